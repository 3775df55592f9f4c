// Package aggregator brings up a pool of MCP server sessions and routes tool
// calls across them.
//
// # ServerPool
//
// ServerPool initialises one mcpserver.Session per descriptor. Each server is
// retried according to a RetryPolicy (3 attempts, 1s apart by default) and a
// failed attempt is closed before the next one starts. When a server runs out
// of attempts the sessions that did start are torn down and a BringUpError
// naming the server is returned. TearDown closes sessions in the reverse of
// the order they came up in.
//
// # ToolRouter
//
// ToolRouter keeps an immutable snapshot of every session's tools. Dispatch
// finds the first session offering a tool and returns a ToolResult envelope:
//
//	{"toolResult": {"toolUseId": "...", "content": [{"text": "..."}], "status": "success"}}
//
// Remote tool errors and unknown tools both produce status "error"; Dispatch
// never returns a Go error.
//
// # AggregatorServer
//
// AggregatorServer re-exposes the router's catalog as one MCP server over
// stdio or streamable HTTP.
package aggregator
