package model

import (
	"time"
)

type Channel string

const (
	ChannelSMS      Channel = "sms"
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
)

func (c Channel) Valid() bool {
	switch c {
	case ChannelSMS, ChannelEmail, ChannelWhatsApp:
		return true
	}
	return false
}

type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
	StatusReceived  Status = "received"
	StatusRead      Status = "read"
)

// CommunicationRecord is one entry in the communication history, written for
// every outbound send attempt and every inbound message. Append-only except
// Status/StatusUpdatedAt, which only the webhook reconciliation touches.
type CommunicationRecord struct {
	ID              int64      `json:"id"`
	Channel         Channel    `json:"channel"`
	Content         string     `json:"content"`
	Recipient       string     `json:"recipient"`
	Sender          string     `json:"sender"`
	AccountNumber   string     `json:"account_number"`
	Status          Status     `json:"status"`
	MessageID       string     `json:"message_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	StatusUpdatedAt *time.Time `json:"status_updated_at,omitempty"`
}

// Customer is the portal account a communication is tied to. The webhook
// flow resolves inbound senders to customers by phone number.
type Customer struct {
	ID            int64  `json:"id"`
	AccountNumber string `json:"account_number"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
}
