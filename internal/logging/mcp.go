package logging

import (
	"log/slog"
)

// SetupMCPMode installs a file-only default logger for the MCP server.
//
// stdout carries JSON-RPC exclusively and clients treat stderr noise as a
// broken server, so nothing is ever mirrored there.
func SetupMCPMode(level, path string) (func(), error) {
	if path == "" {
		path = DefaultLogPath()
	}

	cfg := Config{
		Level:         level,
		FilePath:      path,
		MaxSizeMB:     10,
		MaxFiles:      5,
		WriteToStderr: false,
	}

	logger, cleanup, err := Setup(cfg)
	if err != nil {
		return nil, err
	}

	slog.SetDefault(logger)
	slog.Info("mcp_logging_initialized",
		slog.String("log_file", cfg.FilePath),
		slog.String("level", cfg.Level))

	return cleanup, nil
}
