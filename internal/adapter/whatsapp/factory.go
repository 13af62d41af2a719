package whatsapp

import (
	"log/slog"
	"time"
)

// NewMessenger returns a CloudClient when credentials are present and a
// LogMessenger otherwise.
func NewMessenger(baseURL, phoneNumberID, accessToken string, timeout time.Duration, logger *slog.Logger) Messenger {
	if accessToken == "" || phoneNumberID == "" {
		if logger != nil {
			logger.Warn("whatsapp credentials not set, replies will only be logged")
		}
		return NewLogMessenger(logger)
	}
	return NewCloudClient(baseURL, phoneNumberID, accessToken, timeout)
}
