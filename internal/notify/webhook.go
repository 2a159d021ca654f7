// Package notify delivers outbound alerts to external services.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"core_innovators/internal/models"
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 512
)

// Notifier matches service.Notifier.
type Notifier interface {
	Notify(ctx context.Context, recipient string, payload models.AlertPayload) error
}

// Webhook POSTs each alert as a flat JSON template body to URL.
type Webhook struct {
	URL     string
	Headers map[string]string
	Client  *http.Client
}

// webhookBody is the template the email relay expects.
type webhookBody struct {
	ToEmail string `json:"to_email"`
	models.AlertPayload
}

func NewWebhook(url string, headers map[string]string) *Webhook {
	return &Webhook{
		URL:     url,
		Headers: headers,
		Client:  &http.Client{Timeout: defaultTimeout},
	}
}

func (w *Webhook) Notify(ctx context.Context, recipient string, payload models.AlertPayload) error {
	body, err := json.Marshal(webhookBody{ToEmail: recipient, AlertPayload: payload})
	if err != nil {
		return fmt.Errorf("encode webhook body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.Headers {
		req.Header.Set(k, v)
	}

	client := w.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Multi sends to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, recipient string, payload models.AlertPayload) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, recipient, payload); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
