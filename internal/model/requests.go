package model

import (
	"time"
)

type SendMessageRequest struct {
	Channel       Channel `json:"channel" binding:"required"`
	Recipient     string  `json:"recipient" binding:"required"`
	Content       string  `json:"content" binding:"required"`
	Subject       string  `json:"subject"`
	AccountNumber string  `json:"accountNumber"`
}

type BulkMessageRequest struct {
	Recipients     []Recipient       `json:"recipients" binding:"required"`
	MessageType    string            `json:"messageType" binding:"required"`
	Content        string            `json:"content" binding:"required"`
	TemplateName   string            `json:"templateName"`
	TemplateParams map[string]string `json:"templateParams"`
}

type BulkSMSRequest struct {
	Recipients []Recipient       `json:"recipients" binding:"required"`
	Message    string            `json:"message" binding:"required"`
	IsTemplate bool              `json:"isTemplate"`
	Params     map[string]string `json:"params"`
}

type SendEmailsRequest struct {
	Recipients   []Recipient `json:"recipients" binding:"required"`
	Subject      string      `json:"subject" binding:"required"`
	Content      string      `json:"content" binding:"required"`
	TemplateType string      `json:"templateType"`
}

type CreateTemplateRequest struct {
	Title   string `json:"title" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type SettingsRequest struct {
	AccessToken   string `json:"accessToken" binding:"required"`
	PhoneNumberID string `json:"phoneNumberId" binding:"required"`
	BusinessID    string `json:"businessId"`
}

type ReminderRequest struct {
	Message       string    `json:"message" binding:"required"`
	Channel       Channel   `json:"channel" binding:"required"`
	ScheduledAt   time.Time `json:"scheduledAt" binding:"required"`
	AccountNumber string    `json:"accountNumber" binding:"required"`
	CustomerName  string    `json:"customerName"`
	ContactInfo   string    `json:"contactInfo" binding:"required"`
	Amount        string    `json:"amount"`
}

type DeleteAdminUserRequest struct {
	UserID string `json:"userId" binding:"required"`
}
