package mcpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"

	agentoauth "github.com/giantswarm/mcp-toolpool/internal/agent/oauth"
	"github.com/giantswarm/mcp-toolpool/internal/resolver"
	pkgoauth "github.com/giantswarm/mcp-toolpool/pkg/oauth"
)

// AWSConfigLoader loads AWS configuration for a region. It is used by the
// SigV4 mode to find credentials.
type AWSConfigLoader func(ctx context.Context, region string) (aws.Config, error)

func defaultAWSConfigLoader(ctx context.Context, region string) (aws.Config, error) {
	return resolver.LoadAWSConfig(ctx, resolver.AWSOptions{Region: region})
}

type options struct {
	resolver        resolver.Resolver
	oauthClient     *pkgoauth.Client
	httpClient      *http.Client
	openBrowser     agentoauth.BrowserOpener
	callbackPort    int
	callbackTimeout time.Duration
	awsConfig       AWSConfigLoader
	clientName      string
	clientVersion   string
}

// Option configures a session built by New.
type Option func(*options)

// WithResolver sets the resolver for URL and secret references.
func WithResolver(r resolver.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// WithOAuthClient sets the OAuth protocol client used by the OAuth modes.
func WithOAuthClient(c *pkgoauth.Client) Option {
	return func(o *options) { o.oauthClient = c }
}

// WithHTTPClient sets the base HTTP client. Auth transports wrap its
// Transport.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithBrowserOpener sets how the interactive mode opens the authorization URL.
func WithBrowserOpener(open agentoauth.BrowserOpener) Option {
	return func(o *options) { o.openBrowser = open }
}

// WithCallbackDefaults sets the callback port and timeout used when an
// interactive descriptor leaves them unset.
func WithCallbackDefaults(port int, timeout time.Duration) Option {
	return func(o *options) {
		o.callbackPort = port
		o.callbackTimeout = timeout
	}
}

// WithAWSConfigLoader overrides how the SigV4 mode loads AWS configuration.
func WithAWSConfigLoader(load AWSConfigLoader) Option {
	return func(o *options) { o.awsConfig = load }
}

// WithClientInfo sets the implementation name and version sent in the
// protocol handshake.
func WithClientInfo(name, version string) Option {
	return func(o *options) {
		o.clientName = name
		o.clientVersion = version
	}
}
