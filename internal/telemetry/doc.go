// Package telemetry exposes OpenTelemetry spans and metrics for session
// bring-up and tool calls. It uses the global providers, so without an SDK
// installed every call is a no-op.
package telemetry
