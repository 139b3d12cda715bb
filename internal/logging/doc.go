// Package logging configures structured slog output for docsift.
//
// Logs are JSON lines written to a size-rotated file under ~/.docsift/logs/,
// optionally mirrored to stderr. The MCP server uses SetupMCPMode, which never
// touches stdout or stderr because stdout carries the JSON-RPC stream.
package logging
