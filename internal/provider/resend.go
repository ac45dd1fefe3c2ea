package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"comms-service/internal/config"
)

const resendBaseURL = "https://api.resend.com"

// Resend sends transactional email through the Resend API.
type Resend struct {
	apiKey     string
	from       string
	httpClient *http.Client
}

func NewResend(cfg config.ResendConfig) *Resend {
	return &Resend{
		apiKey: cfg.APIKey,
		from:   cfg.From,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (r *Resend) Sender() string {
	return r.from
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID string `json:"id"`
}

type resendErrorResponse struct {
	Message string `json:"message"`
}

func (r *Resend) Send(ctx context.Context, destination string, payload Payload) (*Response, error) {
	reqBody, err := json.Marshal(resendRequest{
		From:    r.from,
		To:      []string{destination},
		Subject: payload.Subject,
		HTML:    payload.Text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, resendBaseURL+"/emails", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+r.apiKey)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		message := string(body)
		var errResp resendErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Message != "" {
			message = errResp.Message
		}
		return nil, &Error{Provider: "resend", StatusCode: resp.StatusCode, Message: message}
	}

	var result resendResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &Response{MessageID: result.ID, Status: "sent"}, nil
}
