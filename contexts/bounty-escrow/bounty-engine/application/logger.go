package application

import "log/slog"

const Module = "bounty-escrow/bounty-engine"

func ResolveLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
