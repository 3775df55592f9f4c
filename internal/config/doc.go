// Package config loads the toolpool configuration file.
//
// The file lives at ~/.config/toolpool/config.yaml unless --config points
// elsewhere. Before it is decoded as YAML the file is rendered as a Go
// text/template with the sprig function map, so values can be pulled from
// the environment:
//
//	servers:
//	  - name: weather
//	    url: {{ env "WEATHER_URL" | default "https://weather.example.com/mcp" }}
//	    auth:
//	      mode: automated-oauth
//	      clientId: {{ env "WEATHER_CLIENT_ID" | quote }}
//	      clientSecretRef: secretsmanager:weather/oauth#clientSecret
//	  - name: desk
//	    url: https://desk.example.com/mcp
//	    auth:
//	      mode: interactive-oauth
//	      clientIdRef: cfn:LambdaMcpServer-Auth/InteractiveOAuthClientId
//	      callbackPort: 8123
//
// Validate collects every problem it finds into ValidationErrors instead of
// stopping at the first one. ToDescriptors turns a valid Config into the
// descriptors consumed by the server pool; each auth mode is built through
// its mcpserver constructor, which checks the mode's own fields.
package config
