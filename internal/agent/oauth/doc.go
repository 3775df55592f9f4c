// Package oauth runs the OAuth flows that authenticate a toolpool session.
//
// Two variants implement Flow:
//
//   - AutomatedFlow: client_credentials, for machine-to-machine access.
//   - InteractiveFlow: authorization_code, with PKCE when the authorization
//     server supports S256. A CallbackListener on 127.0.0.1 captures the
//     redirect while the operator approves access in a browser.
//
// Both share the same state machine (idle, checking cached token,
// discovering metadata, exchanging token, authenticated). A token held in the
// flow's TokenStore whose expiry is strictly in the future, or that was
// issued without an expiry, is reused without any network I/O. An expired
// token carrying a refresh token is first renewed with the refresh_token
// grant; only when that fails does the full flow run again. Failures are
// returned as *FlowError wrapping the cause and are never retried here; the
// server pool owns retries.
//
// NewTokenSource adapts a Flow to golang.org/x/oauth2 so the session's HTTP
// client can attach the Authorization header on every request.
package oauth
