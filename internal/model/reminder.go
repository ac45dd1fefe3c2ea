package model

import (
	"time"
)

type ReminderStatus string

const (
	ReminderPending ReminderStatus = "pending"
	ReminderSent    ReminderStatus = "sent"
)

// ReminderSchedule is a future-dated communication intent. A cron sweep
// dispatches due reminders through the same send-and-record path used by
// direct sends and flips them to sent.
type ReminderSchedule struct {
	ID            int64          `json:"id"`
	Message       string         `json:"message"`
	Channel       Channel        `json:"channel"`
	ScheduledAt   time.Time      `json:"scheduled_at"`
	Status        ReminderStatus `json:"status"`
	AccountNumber string         `json:"account_number"`
	CustomerName  string         `json:"customer_name"`
	ContactInfo   string         `json:"contact_info"`
	Amount        string         `json:"amount"`
	CreatedAt     time.Time      `json:"created_at"`
}
