// Package external holds thin HTTP clients for services outside the store:
// currently the push-delivery gateway.
package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ---------------------------------------------------------------------------
// Constants
// ---------------------------------------------------------------------------

const (
	pushSendPath = "/v1/send"
	pushTimeout  = 15 * time.Second
)

// ---------------------------------------------------------------------------
// Wire types
// ---------------------------------------------------------------------------

type multicastRequest struct {
	Notification struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	} `json:"notification"`
	Data   map[string]string `json:"data,omitempty"`
	Tokens []string          `json:"tokens"`
}

type multicastResponse struct {
	SuccessCount int `json:"successCount"`
	FailureCount int `json:"failureCount"`
}

// ---------------------------------------------------------------------------
// PushService — multicast client for the push-delivery gateway
// ---------------------------------------------------------------------------

// PushService submits multicast push requests to the delivery gateway.
type PushService struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewPushService creates a push client. Returns nil if baseURL is empty
// (push delivery disabled); the dispatcher treats a nil pusher as a no-op.
func NewPushService(baseURL, apiKey string) *PushService {
	if baseURL == "" {
		return nil
	}
	return &PushService{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: pushTimeout,
		},
	}
}

// SendMulticast submits one multicast request. Partial delivery failures are
// reported through the counts, not the error: the gateway accepts the batch
// and reports per-token outcomes.
func (s *PushService) SendMulticast(ctx context.Context, tokens []string, title, body string, data map[string]string) (success, failure int, err error) {
	reqBody := multicastRequest{Data: data, Tokens: tokens}
	reqBody.Notification.Title = title
	reqBody.Notification.Body = body

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return 0, 0, fmt.Errorf("marshal multicast request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.baseURL+pushSendPath, bytes.NewReader(payload))
	if err != nil {
		return 0, 0, fmt.Errorf("build multicast request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("push gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return 0, 0, fmt.Errorf("push gateway returned %d: %s", resp.StatusCode, snippet)
	}

	var parsed multicastResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, 0, fmt.Errorf("decode multicast response: %w", err)
	}
	return parsed.SuccessCount, parsed.FailureCount, nil
}
