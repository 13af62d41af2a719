package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/makolaonline/whatsapp-router/internal/adapter/whatsapp"
	"github.com/makolaonline/whatsapp-router/internal/service"
	"github.com/makolaonline/whatsapp-router/tests/helpers"
)

func TestNewServerRoutes(t *testing.T) {
	store := helpers.NewTestSQLiteStore(t)
	svc := service.New(store, whatsapp.NewLogMessenger(nil), nil, nil)
	e := NewServer(svc, nil, Options{VerifyToken: "secret"})

	tests := []struct {
		method string
		target string
		want   int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/webhook/whatsapp?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=1", http.StatusOK},
		{http.MethodGet, "/webhook/whatsapp?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=1", http.StatusForbidden},
		{http.MethodGet, "/v1/jobs", http.StatusOK},
		{http.MethodGet, "/v1/ws/jobs", http.StatusNotFound},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, tt.target, nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, tt.want, rec.Code, tt.target)
	}
}
