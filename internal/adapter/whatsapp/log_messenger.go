package whatsapp

import (
	"context"
	"log/slog"
)

// LogMessenger writes replies to the log instead of sending them.
// It is used when no Cloud API credentials are configured.
type LogMessenger struct {
	logger *slog.Logger
}

// NewLogMessenger creates a messenger that logs each reply.
func NewLogMessenger(logger *slog.Logger) *LogMessenger {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMessenger{logger: logger}
}

// Send logs the reply.
func (m *LogMessenger) Send(ctx context.Context, to, text string) error {
	m.logger.InfoContext(ctx, "whatsapp reply", "to", to, "text", text)
	return nil
}
