package oauth

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/giantswarm/mcp-toolpool/pkg/logging"
)

const (
	// DefaultCallbackPort is the default port for the local OAuth callback listener.
	DefaultCallbackPort = 8090

	// CallbackPath is the path the authorization server redirects to.
	CallbackPath = "/callback"

	// callbackHost is both the bind address and the redirect URI host, so the
	// browser cannot resolve it to a different loopback family.
	callbackHost = "127.0.0.1"

	// DefaultCallbackTimeout is how long to wait for the redirect.
	DefaultCallbackTimeout = 300 * time.Second

	shutdownTimeout = 5 * time.Second
)

//go:embed templates/callback_success.html
var callbackSuccessHTML string

//go:embed templates/callback_error.html
var callbackErrorHTML string

var (
	successTemplate = template.Must(template.New("success").Parse(callbackSuccessHTML))
	errorTemplate   = template.Must(template.New("error").Parse(callbackErrorHTML))
)

// CallbackResult represents the redirect captured by the listener.
type CallbackResult struct {
	Code             string
	State            string
	Error            string
	ErrorDescription string
}

// IsError returns true if the callback result represents an error.
func (r *CallbackResult) IsError() bool {
	return r.Error != ""
}

// CallbackListener is a short-lived local HTTP server that captures one
// authorization-code redirect. It lives for a single interactive flow:
// Start, WaitForResult, and Stop on every exit path.
type CallbackListener struct {
	port int

	server    *http.Server
	listener  net.Listener
	resultCh  chan *CallbackResult
	record    sync.Once
	serveDone chan struct{}
	stopped   chan struct{}
	stopOnce  sync.Once
}

// NewCallbackListener creates a listener for the given port. Port 0 lets the
// operating system pick a free port, which is mostly useful in tests since
// the redirect URI registered with the authorization server is usually fixed.
func NewCallbackListener(port int) *CallbackListener {
	return &CallbackListener{
		port:      port,
		resultCh:  make(chan *CallbackResult, 1),
		serveDone: make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// Start binds the listener and serves in the background. The listener is
// stopped when ctx is cancelled. It returns the redirect URI to send in the
// authorization request.
func (l *CallbackListener) Start(ctx context.Context) (string, error) {
	addr := net.JoinHostPort(callbackHost, strconv.Itoa(l.port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("failed to start callback listener on %s: %w", addr, err)
	}

	l.listener = listener
	l.port = listener.Addr().(*net.TCPAddr).Port
	redirectURI := fmt.Sprintf("http://%s%s", net.JoinHostPort(callbackHost, strconv.Itoa(l.port)), CallbackPath)

	mux := http.NewServeMux()
	mux.HandleFunc(CallbackPath, l.handleCallback)

	l.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		defer close(l.serveDone)
		if err := l.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("CallbackListener", err, "Callback listener stopped unexpectedly")
		}
	}()

	go func() {
		select {
		case <-ctx.Done():
			l.Stop()
		case <-l.stopped:
		}
	}()

	logging.Debug("CallbackListener", "Listening for OAuth redirect on %s", redirectURI)
	return redirectURI, nil
}

// WaitForResult blocks until a redirect is recorded, timeout elapses or ctx
// is cancelled. The listener is stopped before it returns.
//
// A redirect carrying an error yields *AuthorizationDeniedError; no redirect
// within timeout yields *CallbackTimeoutError.
func (l *CallbackListener) WaitForResult(ctx context.Context, timeout time.Duration) (*CallbackResult, error) {
	defer l.Stop()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case result := <-l.resultCh:
		if result.IsError() {
			return nil, &AuthorizationDeniedError{Reason: result.Error, Description: result.ErrorDescription}
		}
		return result, nil
	case <-timer.C:
		return nil, &CallbackTimeoutError{Timeout: timeout}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *CallbackListener) handleCallback(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'unsafe-inline'")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.Header().Set("Cache-Control", "no-store")

	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query()
	result := &CallbackResult{
		Code:             query.Get("code"),
		State:            query.Get("state"),
		Error:            query.Get("error"),
		ErrorDescription: query.Get("error_description"),
	}

	switch {
	case result.IsError():
		l.deliver(result)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		_ = errorTemplate.Execute(w, map[string]string{
			"Error":       result.Error,
			"Description": result.ErrorDescription,
		})
	case result.Code != "":
		l.deliver(result)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_ = successTemplate.Execute(w, nil)
	default:
		http.Error(w, "missing code parameter", http.StatusBadRequest)
	}
}

// deliver records the first result only.
func (l *CallbackListener) deliver(result *CallbackResult) {
	l.record.Do(func() {
		l.resultCh <- result
	})
}

// Stop shuts the server down, closes the socket and waits for the serve
// goroutine to exit. It is safe to call more than once.
func (l *CallbackListener) Stop() {
	l.stopOnce.Do(func() {
		close(l.stopped)
		if l.server == nil {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = l.server.Shutdown(ctx)
		_ = l.listener.Close()
		<-l.serveDone

		logging.Debug("CallbackListener", "Callback listener on port %d stopped", l.port)
	})
}

// Port returns the port the listener is bound to.
func (l *CallbackListener) Port() int {
	return l.port
}
