// Package whatsapp sends chat replies through the WhatsApp Cloud API.
package whatsapp

import "context"

// Messenger delivers a text reply to a WhatsApp contact.
type Messenger interface {
	Send(ctx context.Context, to, text string) error
}

// Ensure the implementations satisfy Messenger.
var (
	_ Messenger = (*CloudClient)(nil)
	_ Messenger = (*LogMessenger)(nil)
)
