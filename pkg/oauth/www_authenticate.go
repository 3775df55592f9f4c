package oauth

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

// Values may be quoted or bare; a bare value ends at whitespace or a comma.
var authParamRegex = regexp.MustCompile(`(\w+)=(?:"([^"]*)"|([^\s,]+))`)

// ParseWWWAuthenticate parses a WWW-Authenticate header value.
//
// Example headers:
//
//	Bearer realm="https://auth.example.com"
//	Bearer resource_metadata="https://mcp.example.com/.well-known/oauth-protected-resource"
//	Bearer resource_metadata=https://mcp.example.com/.well-known/oauth-protected-resource, scope="tools"
func ParseWWWAuthenticate(header string) (*AuthChallenge, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, fmt.Errorf("empty WWW-Authenticate header")
	}

	parts := strings.SplitN(header, " ", 2)
	challenge := &AuthChallenge{
		Scheme: parts[0],
	}

	if len(parts) > 1 {
		params := parseAuthParams(parts[1])
		challenge.Realm = params["realm"]
		challenge.ResourceMetadataURL = params["resource_metadata"]
		challenge.Scope = params["scope"]
		challenge.Error = params["error"]
		challenge.ErrorDescription = params["error_description"]
	}

	return challenge, nil
}

func parseAuthParams(paramStr string) map[string]string {
	params := make(map[string]string)

	for _, match := range authParamRegex.FindAllStringSubmatch(paramStr, -1) {
		key := strings.ToLower(match[1])
		value := match[2]
		if value == "" {
			value = match[3]
		}
		params[key] = value
	}

	return params
}

// ParseWWWAuthenticateFromResponse extracts the auth challenge from a 401 response.
// Returns nil if no WWW-Authenticate header is present or if parsing fails.
func ParseWWWAuthenticateFromResponse(resp *http.Response) *AuthChallenge {
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		return nil
	}

	challenge, err := ParseWWWAuthenticate(resp.Header.Get("WWW-Authenticate"))
	if err != nil {
		return nil
	}

	return challenge
}
