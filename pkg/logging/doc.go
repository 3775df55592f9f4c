// Package logging provides the structured logging used throughout toolpool.
//
// It is a thin layer over log/slog that tags every entry with a subsystem
// name, so that output from discovery, the OAuth flows, the server pool and
// the tool router can be told apart and filtered.
//
// # Usage
//
//	import "github.com/giantswarm/mcp-toolpool/pkg/logging"
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("ServerPool", "Bringing up %d servers", len(descriptors))
//	logging.Debug("Discovery", "Trying %s", candidateURL)
//	logging.Warn("Discovery", "No scopes_supported advertised by %s", resourceURL)
//	logging.Error("ServerPool", err, "Failed to close session %s", name)
//
// InitForJSON switches the handler to one JSON object per line, which is what
// the serve command uses when its stderr is collected by a log shipper.
// ParseLevel turns the --log-level flag value into a LogLevel.
//
// # Audit Logging
//
// Token exchanges and cache hits are recorded with Audit. Secrets never appear
// in log output; use TruncateSecret when a token prefix is useful for debugging.
package logging
