// Package webhook receives WhatsApp Cloud API webhook calls.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/makolaonline/whatsapp-router/internal/domain"
)

// SignatureHeader carries the HMAC of the request body.
const SignatureHeader = "X-Hub-Signature-256"

// maxBodyBytes bounds a single webhook delivery.
const maxBodyBytes = 4 << 20

// Processor handles one normalized message.
type Processor interface {
	ProcessMessage(ctx context.Context, msg domain.Message) error
}

// Handler handles HTTP requests.
type Handler struct {
	processor   Processor
	verifyToken string
	appSecret   string
	logger      *slog.Logger
}

// NewHandler creates a new handler. Signature checks are skipped when
// appSecret is empty.
func NewHandler(processor Processor, verifyToken, appSecret string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		processor:   processor,
		verifyToken: verifyToken,
		appSecret:   appSecret,
		logger:      logger,
	}
}

// RegisterRoutes registers the webhook routes with the echo server.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/webhook/whatsapp", h.Verify)
	e.POST("/webhook/whatsapp", h.Receive)
}

// Verify answers the subscription handshake.
// GET /webhook/whatsapp
func (h *Handler) Verify(c echo.Context) error {
	mode := c.QueryParam("hub.mode")
	token := c.QueryParam("hub.verify_token")
	challenge := c.QueryParam("hub.challenge")

	if mode == "subscribe" && h.verifyToken != "" && token == h.verifyToken {
		return c.String(http.StatusOK, challenge)
	}
	return c.String(http.StatusForbidden, "Forbidden")
}

// Receive processes a batch of messages. Each message is handled in order
// and a failing message never stops the rest of the batch.
// POST /webhook/whatsapp
func (h *Handler) Receive(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to read webhook body", "error", err)
		return c.String(http.StatusInternalServerError, "Error")
	}

	if h.appSecret != "" && !validSignature(h.appSecret, body, c.Request().Header.Get(SignatureHeader)) {
		h.logger.WarnContext(ctx, "webhook signature mismatch")
		return c.String(http.StatusUnauthorized, "Invalid signature")
	}

	var payload domain.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.ErrorContext(ctx, "webhook error", "error", err)
		return c.String(http.StatusInternalServerError, "Error")
	}

	processed, failed := 0, 0
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, m := range change.Value.Messages {
				msg := m.Normalize(findContact(change.Value.Contacts, m.From))
				if err := h.process(ctx, msg); err != nil {
					failed++
					h.logger.ErrorContext(ctx, "failed to process message",
						"message_id", msg.ID, "from", msg.SenderID, "error", err)
					continue
				}
				processed++
			}
		}
	}

	if processed+failed > 0 {
		h.logger.InfoContext(ctx, "webhook batch handled", "processed", processed, "failed", failed)
	}
	return c.String(http.StatusOK, "OK")
}

func (h *Handler) process(ctx context.Context, msg domain.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h.processor.ProcessMessage(ctx, msg)
}

// findContact returns the contact for sender, falling back to the first
// contact as the platform sends one per single-sender batch.
func findContact(contacts []domain.Contact, sender string) *domain.Contact {
	for i := range contacts {
		if contacts[i].WaID == sender {
			return &contacts[i]
		}
	}
	if len(contacts) > 0 {
		return &contacts[0]
	}
	return nil
}

func validSignature(secret string, body []byte, header string) bool {
	sig, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}
	got, err := hex.DecodeString(sig)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}
