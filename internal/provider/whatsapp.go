package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"comms-service/internal/config"
)

const graphBaseURL = "https://graph.facebook.com"

// WhatsApp sends messages through the Meta WhatsApp Cloud API. Credentials
// can be swapped at runtime through Reconfigure when the settings endpoint
// persists new values; the adapter never reads ambient process env.
type WhatsApp struct {
	mu         sync.RWMutex
	cfg        config.WhatsAppConfig
	httpClient *http.Client
}

func NewWhatsApp(cfg config.WhatsAppConfig) *WhatsApp {
	return &WhatsApp{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Reconfigure applies stored credential overrides to the adapter.
func (w *WhatsApp) Reconfigure(cfg config.WhatsAppConfig) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if cfg.AccessToken != "" {
		w.cfg.AccessToken = cfg.AccessToken
	}
	if cfg.PhoneNumberID != "" {
		w.cfg.PhoneNumberID = cfg.PhoneNumberID
	}
	if cfg.BusinessID != "" {
		w.cfg.BusinessID = cfg.BusinessID
	}
}

func (w *WhatsApp) snapshot() config.WhatsAppConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.cfg
}

func (w *WhatsApp) Sender() string {
	return w.snapshot().PhoneNumberID
}

// TextContent is the body of a plain text message, both outbound and inbound.
type TextContent struct {
	Body string `json:"body"`
}

type waLanguage struct {
	Code string `json:"code"`
}

type waParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type waComponent struct {
	Type       string        `json:"type"`
	Parameters []waParameter `json:"parameters"`
}

type waTemplate struct {
	Name       string        `json:"name"`
	Language   waLanguage    `json:"language"`
	Components []waComponent `json:"components,omitempty"`
}

type waSendRequest struct {
	MessagingProduct string       `json:"messaging_product"`
	RecipientType    string       `json:"recipient_type"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Text             *TextContent `json:"text,omitempty"`
	Template         *waTemplate  `json:"template,omitempty"`
}

type waSendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type waErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ProviderTemplate is one approved template from the Business account.
type ProviderTemplate struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Category string `json:"category"`
	Language string `json:"language"`
}

type waTemplatesResponse struct {
	Data []ProviderTemplate `json:"data"`
}

func (w *WhatsApp) Send(ctx context.Context, destination string, payload Payload) (*Response, error) {
	req := waSendRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               destination,
	}

	if payload.TemplateName != "" {
		req.Type = "template"
		req.Template = &waTemplate{
			Name:     payload.TemplateName,
			Language: waLanguage{Code: "en"},
		}
		if len(payload.TemplateParams) > 0 {
			params := make([]waParameter, 0, len(payload.TemplateParams))
			for _, p := range payload.TemplateParams {
				params = append(params, waParameter{Type: "text", Text: p})
			}
			req.Template.Components = []waComponent{{Type: "body", Parameters: params}}
		}
	} else {
		req.Type = "text"
		req.Text = &TextContent{Body: payload.Text}
	}

	cfg := w.snapshot()
	url := fmt.Sprintf("%s/%s/%s/messages", graphBaseURL, cfg.APIVersion, cfg.PhoneNumberID)
	body, err := w.call(ctx, http.MethodPost, url, cfg.AccessToken, req)
	if err != nil {
		return nil, err
	}

	var result waSendResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Messages) == 0 {
		return nil, &Error{Provider: "whatsapp", StatusCode: http.StatusOK, Message: "empty messages array in response"}
	}

	return &Response{MessageID: result.Messages[0].ID, Status: "sent"}, nil
}

// ListTemplates fetches the approved templates for the Business account.
func (w *WhatsApp) ListTemplates(ctx context.Context) ([]ProviderTemplate, error) {
	cfg := w.snapshot()
	url := fmt.Sprintf("%s/%s/%s/message_templates", graphBaseURL, cfg.APIVersion, cfg.BusinessID)
	body, err := w.call(ctx, http.MethodGet, url, cfg.AccessToken, nil)
	if err != nil {
		return nil, err
	}

	var result waTemplatesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return result.Data, nil
}

func (w *WhatsApp) call(ctx context.Context, method, url, token string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := w.httpClient.Do(req)
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
		var errResp waErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.Error.Message != "" {
			message = errResp.Error.Message
		}
		return nil, &Error{Provider: "whatsapp", StatusCode: resp.StatusCode, Message: message}
	}

	return body, nil
}
