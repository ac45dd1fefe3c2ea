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

// Infobip sends SMS through the Infobip advanced text endpoint.
type Infobip struct {
	baseURL    string
	apiKey     string
	sender     string
	httpClient *http.Client
}

func NewInfobip(cfg config.InfobipConfig) *Infobip {
	return &Infobip{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		sender:  cfg.Sender,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (i *Infobip) Sender() string {
	return i.sender
}

type infobipDestination struct {
	To string `json:"to"`
}

type infobipMessage struct {
	Destinations []infobipDestination `json:"destinations"`
	From         string               `json:"from"`
	Text         string               `json:"text"`
}

type infobipRequest struct {
	Messages []infobipMessage `json:"messages"`
}

type infobipResponse struct {
	Messages []struct {
		MessageID string `json:"messageId"`
		Status    struct {
			Name        string `json:"name"`
			GroupName   string `json:"groupName"`
			Description string `json:"description"`
		} `json:"status"`
	} `json:"messages"`
}

type infobipErrorResponse struct {
	RequestError struct {
		ServiceException struct {
			Text string `json:"text"`
		} `json:"serviceException"`
	} `json:"requestError"`
}

func (i *Infobip) Send(ctx context.Context, destination string, payload Payload) (*Response, error) {
	reqBody, err := json.Marshal(infobipRequest{
		Messages: []infobipMessage{{
			Destinations: []infobipDestination{{To: destination}},
			From:         i.sender,
			Text:         payload.Text,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	url := fmt.Sprintf("%s/sms/2/text/advanced", i.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "App "+i.apiKey)

	resp, err := i.httpClient.Do(req)
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
		var errResp infobipErrorResponse
		if json.Unmarshal(body, &errResp) == nil && errResp.RequestError.ServiceException.Text != "" {
			message = errResp.RequestError.ServiceException.Text
		}
		return nil, &Error{Provider: "infobip", StatusCode: resp.StatusCode, Message: message}
	}

	var result infobipResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if len(result.Messages) == 0 {
		return nil, &Error{Provider: "infobip", StatusCode: resp.StatusCode, Message: "empty messages array in response"}
	}

	return &Response{
		MessageID: result.Messages[0].MessageID,
		Status:    result.Messages[0].Status.GroupName,
	}, nil
}
