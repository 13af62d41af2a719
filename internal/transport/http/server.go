// Package http provides the HTTP server of the WhatsApp router.
package http

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/makolaonline/whatsapp-router/internal/service"
	v1 "github.com/makolaonline/whatsapp-router/internal/transport/http/v1"
	"github.com/makolaonline/whatsapp-router/internal/transport/http/webhook"
	"github.com/makolaonline/whatsapp-router/internal/transport/ws"
)

// Options carries the settings the routes need.
type Options struct {
	VerifyToken string
	AppSecret   string
	Logger      *slog.Logger
}

// NewServer creates and configures the HTTP server: the WhatsApp webhook,
// the v1 REST API and the live job feed.
func NewServer(svc *service.Service, feed *ws.Server, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	// Handlers
	webhookHandler := webhook.NewHandler(svc, opts.VerifyToken, opts.AppSecret, opts.Logger)
	v1Handler := v1.NewHandler(svc)

	// Register Routes
	webhookHandler.RegisterRoutes(e)
	v1Handler.RegisterRoutes(e)
	if feed != nil {
		e.GET("/v1/ws/jobs", feed.HandleJobFeed)
	}

	return e
}
