package domain

// WebhookPayload is the top-level delivery from the WhatsApp Cloud API.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

// Entry represents one business account entry.
type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

// Change wraps a single change notification.
type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

// ChangeValue holds the message data. Status callbacks are ignored.
type ChangeValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Contacts         []Contact        `json:"contacts,omitempty"`
	Messages         []InboundMessage `json:"messages,omitempty"`
}

// Contact is the profile of a sender.
type Contact struct {
	Profile ContactProfile `json:"profile"`
	WaID    string         `json:"wa_id"`
}

// ContactProfile has the display name.
type ContactProfile struct {
	Name string `json:"name"`
}

// InboundMessage is one message as delivered by the platform.
type InboundMessage struct {
	From      string        `json:"from"`
	ID        string        `json:"id"`
	Timestamp string        `json:"timestamp"`
	Type      string        `json:"type"`
	Text      *TextContent  `json:"text,omitempty"`
	Image     *MediaContent `json:"image,omitempty"`
}

// TextContent holds a text message body.
type TextContent struct {
	Body string `json:"body"`
}

// MediaContent references an uploaded media object.
type MediaContent struct {
	ID       string `json:"id"`
	Caption  string `json:"caption,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// Message is an inbound message normalized for the router.
type Message struct {
	ID         string
	SenderID   string
	SenderName string
	Type       MessageType
	Text       string
	ImageRefs  []string
}

// Normalize converts a platform message into its tagged variant.
// Unknown types keep the sender but carry no text.
func (m InboundMessage) Normalize(contact *Contact) Message {
	msg := Message{ID: m.ID, SenderID: m.From}
	if contact != nil {
		msg.SenderName = contact.Profile.Name
	}
	switch m.Type {
	case string(MessageTypeText):
		msg.Type = MessageTypeText
		if m.Text != nil {
			msg.Text = m.Text.Body
		}
	case string(MessageTypeImage):
		msg.Type = MessageTypeImage
		if m.Image != nil {
			msg.Text = m.Image.Caption
			if m.Image.ID != "" {
				msg.ImageRefs = []string{m.Image.ID}
			}
		}
	default:
		msg.Type = MessageTypeUnknown
	}
	return msg
}

// SendMessageRequest is the Cloud API payload for a text reply.
type SendMessageRequest struct {
	MessagingProduct string      `json:"messaging_product"`
	RecipientType    string      `json:"recipient_type"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             TextContent `json:"text"`
}
