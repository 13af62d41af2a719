package broker

import (
	"context"
	"log/slog"

	"github.com/makolaonline/whatsapp-router/internal/domain"
)

// Notifier publishes job events. Failures are logged and never block the
// chat flow.
type Notifier struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewNotifier wraps a publisher.
func NewNotifier(p Publisher, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{publisher: p, logger: logger}
}

// Notify publishes event under its routing key.
func (n *Notifier) Notify(ctx context.Context, event domain.JobEvent, job *domain.DeliveryJob) {
	key := RoutingKey(event.Type)
	if err := n.publisher.Publish(ctx, key, NewEnvelope(event, job)); err != nil {
		n.logger.WarnContext(ctx, "failed to publish job event", "key", key, "job_id", event.JobID, "error", err)
	}
}
