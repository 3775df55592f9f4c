// Package mcpserver manages sessions to remote MCP tool servers.
//
// A ServerDescriptor names a server, its URL (or a reference resolved at
// start-up) and one of four auth modes:
//
//   - NoAuth: plain requests
//   - SigV4Auth: AWS Signature Version 4, for Lambda function URLs
//   - AutomatedOAuth: OAuth client-credentials grant
//   - InteractiveOAuth: OAuth authorization-code grant with a browser redirect
//
// New builds a Session for a descriptor. Initialize resolves the URL, runs the
// auth mode, opens the streamable HTTP transport, performs the MCP handshake
// and caches the tool list. Every resource acquired along the way is released
// in reverse order by Close, or immediately when Initialize fails.
//
// # Tool Calls
//
// CallTool never returns an error. Transport failures are turned into a
// CallResult with IsError set so that one failing tool does not take the
// session down.
package mcpserver
