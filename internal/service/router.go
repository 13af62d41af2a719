package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/makolaonline/whatsapp-router/internal/domain"
)

// ErrMissingSender is returned for messages without a sender address.
var ErrMissingSender = errors.New("message has no sender")

// Classify picks the handler for a message. Product intent is checked
// before rider intent.
func Classify(text string) domain.Route {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "sell") || strings.Contains(lower, "product"):
		return domain.RouteProductUpload
	case strings.Contains(lower, "job") || strings.Contains(lower, "delivery"):
		return domain.RouteRiderCommand
	default:
		return domain.RouteWelcome
	}
}

// ProcessMessage runs the per-message pipeline: session upsert, activity
// touch, classification and the selected handler.
func (s *Service) ProcessMessage(ctx context.Context, msg domain.Message) error {
	if msg.SenderID == "" {
		return ErrMissingSender
	}

	session, err := s.store.GetOrCreateSession(ctx, msg.SenderID)
	if err != nil {
		return fmt.Errorf("failed to get session: %w", err)
	}
	if err := s.store.TouchSession(ctx, session.ID); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	route := Classify(msg.Text)
	s.logger.DebugContext(ctx, "message routed",
		"message_id", msg.ID, "session_id", session.ID, "type", msg.Type, "route", route)

	switch route {
	case domain.RouteProductUpload:
		return s.handleProductUpload(ctx, msg)
	case domain.RouteRiderCommand:
		return s.handleRiderCommand(ctx, msg)
	default:
		return s.reply(ctx, msg.SenderID, welcomeReply)
	}
}
