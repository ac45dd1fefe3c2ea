package model

import (
	"strings"
	"time"
)

// MessageTemplate is user-authored reusable content with {placeholder} tokens.
type MessageTemplate struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// TemplateData holds the per-recipient values substituted into a template.
type TemplateData struct {
	CustomerName      string
	AccountNumber     string
	OutstandingAmount string
	Month             string
}

const defaultAmount = "R 0.00"

// RenderTemplate replaces every known {placeholder} token unconditionally.
// Missing values substitute the documented default, never a literal token:
// empty string for names and account numbers, "R 0.00" for the amount, and
// the current month name when Month is unset.
func RenderTemplate(content string, data TemplateData) string {
	month := data.Month
	if month == "" {
		month = time.Now().Format("January")
	}
	amount := data.OutstandingAmount
	if amount == "" {
		amount = defaultAmount
	}

	replacer := strings.NewReplacer(
		"{customerName}", data.CustomerName,
		"{name}", data.CustomerName,
		"{accountNumber}", data.AccountNumber,
		"{user_account_number}", data.AccountNumber,
		"{currentMonth}", month,
		"{outstandingAmount}", amount,
	)
	return replacer.Replace(content)
}
