package provider

// Meta-standard WhatsApp webhook types.

// WebhookPayload is the top-level webhook delivery.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

// WebhookEntry represents one business account entry.
type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

// WebhookChange wraps a single change notification.
type WebhookChange struct {
	Field string             `json:"field"`
	Value WebhookChangeValue `json:"value"`
}

// WebhookChangeValue holds the message and status data.
type WebhookChangeValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Metadata         WebhookMetadata  `json:"metadata"`
	Contacts         []WebhookContact `json:"contacts,omitempty"`
	Messages         []InboundMessage `json:"messages,omitempty"`
	Statuses         []StatusUpdate   `json:"statuses,omitempty"`
}

// WebhookMetadata describes the receiving phone number.
type WebhookMetadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

// WebhookContact is a WhatsApp contact.
type WebhookContact struct {
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
	WaID string `json:"wa_id"`
}

// InboundMessage represents an incoming WhatsApp message.
type InboundMessage struct {
	From      string        `json:"from"`
	ID        string        `json:"id"`
	Timestamp string        `json:"timestamp"`
	Type      string        `json:"type"`
	Text      *TextContent  `json:"text,omitempty"`
	Image     *MediaContent `json:"image,omitempty"`
	Document  *MediaContent `json:"document,omitempty"`
	Audio     *MediaContent `json:"audio,omitempty"`
	Video     *MediaContent `json:"video,omitempty"`
}

// Body returns the text body of a text message, or "" for other types.
func (m InboundMessage) Body() string {
	if m.Text == nil {
		return ""
	}
	return m.Text.Body
}

// MediaContent holds media attachment data.
type MediaContent struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// StatusUpdate is a delivery status change for a previously sent message.
type StatusUpdate struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	RecipientID string `json:"recipient_id"`
}
