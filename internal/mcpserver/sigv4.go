package mcpserver

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
)

// sigV4Transport signs each outgoing request with AWS Signature Version 4.
type sigV4Transport struct {
	base        http.RoundTripper
	credentials aws.CredentialsProvider
	signer      *v4.Signer
	region      string
	service     string
	now         func() time.Time
}

func newSigV4Transport(base http.RoundTripper, credentials aws.CredentialsProvider, region, service string) *sigV4Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &sigV4Transport{
		base:        base,
		credentials: credentials,
		signer:      v4.NewSigner(),
		region:      region,
		service:     service,
		now:         time.Now,
	}
}

func (t *sigV4Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.credentials == nil {
		return nil, fmt.Errorf("sigv4: no AWS credentials provider configured")
	}
	creds, err := t.credentials.Retrieve(req.Context())
	if err != nil {
		return nil, fmt.Errorf("sigv4: retrieve credentials: %w", err)
	}

	// RoundTrippers must not modify the caller's request.
	signed := req.Clone(req.Context())

	var payload []byte
	if req.Body != nil && req.Body != http.NoBody {
		payload, err = io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("sigv4: read request body: %w", err)
		}
		signed.Body = io.NopCloser(bytes.NewReader(payload))
		signed.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(payload)), nil
		}
		signed.ContentLength = int64(len(payload))
	}
	sum := sha256.Sum256(payload)

	if err := t.signer.SignHTTP(req.Context(), creds, signed, hex.EncodeToString(sum[:]), t.service, t.region, t.now()); err != nil {
		return nil, fmt.Errorf("sigv4: sign request: %w", err)
	}
	return t.base.RoundTrip(signed)
}
