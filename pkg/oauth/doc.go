// Package oauth implements the protocol side of the OAuth client used by
// toolpool sessions.
//
// It covers authorization server metadata discovery (RFC 8414, including the
// path-insertion variants and OpenID Connect fallbacks), protected resource
// discovery (RFC 9728) driven by the WWW-Authenticate challenge of a 401
// response, the token endpoint for the client_credentials and
// authorization_code grants, and PKCE.
//
// The package is stateless. Token storage and the flows that decide when to
// talk to the network live in internal/agent/oauth.
//
//	client := oauth.NewClient()
//	pr, err := client.DiscoverProtectedResource(ctx, serverURL)
//	md, err := client.DiscoverAuthorizationServer(ctx, pr.AuthorizationServer)
//	tokens, err := client.ClientCredentials(ctx, md.TokenEndpoint, id, secret, pr.Scope)
package oauth
