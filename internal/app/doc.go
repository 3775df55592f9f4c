// Package app wires configuration, the server pool and the tool router
// together for the toolpool commands.
//
// NewApplication only loads and validates configuration. Start brings up
// every configured server and builds the router; Close tears the sessions
// down again. Serve exposes the router as a single MCP server over stdio or
// streamable HTTP.
package app
