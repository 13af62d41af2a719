// Package service implements the WhatsApp command router and the delivery
// job lifecycle.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/makolaonline/whatsapp-router/internal/adapter/whatsapp"
	"github.com/makolaonline/whatsapp-router/internal/domain"
	"github.com/makolaonline/whatsapp-router/internal/repository"
	"github.com/makolaonline/whatsapp-router/policy"
)

// Notifier receives every recorded job event.
type Notifier interface {
	Notify(ctx context.Context, event domain.JobEvent, job *domain.DeliveryJob)
}

type Service struct {
	store        repository.Store
	messenger    whatsapp.Messenger
	policyEngine *policy.Engine
	notifiers    []Notifier
	logger       *slog.Logger
	now          func() time.Time
}

func New(store repository.Store, messenger whatsapp.Messenger, policyEngine *policy.Engine, logger *slog.Logger, notifiers ...Notifier) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:        store,
		messenger:    messenger,
		policyEngine: policyEngine,
		notifiers:    notifiers,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// reply sends text to a sender.
func (s *Service) reply(ctx context.Context, to, text string) error {
	if err := s.messenger.Send(ctx, to, text); err != nil {
		return fmt.Errorf("failed to send reply to %s: %w", to, err)
	}
	return nil
}
