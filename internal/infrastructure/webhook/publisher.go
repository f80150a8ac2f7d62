package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"TrendWatch/internal/domain"
	"TrendWatch/internal/ports"
)

const maxErrorBody = 1024

// Publisher posts digests to a chat webhook as a plain-text message.
type Publisher struct {
	url       string
	username  string
	userAgent string
	client    *http.Client
	logger    *slog.Logger
}

var _ ports.Publisher = (*Publisher)(nil)

type message struct {
	Content  string `json:"content"`
	Username string `json:"username,omitempty"`
}

// NewPublisher registers the webhook endpoint and the display name to post as.
func NewPublisher(url, username, userAgent string, timeout time.Duration, log *slog.Logger) *Publisher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Publisher{
		url:       url,
		username:  username,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		logger:    log,
	}
}

// Publish sends the payload once; a non-2xx answer becomes a DeliveryError.
func (p *Publisher) Publish(ctx context.Context, payload string) error {
	if p.url == "" || p.client == nil {
		return &domain.ConfigurationError{Field: "delivery.webhookUrl", Reason: "not set"}
	}

	body, err := json.Marshal(message{Content: payload, Username: p.username})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.DeliveryError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	if p.logger != nil {
		p.logger.Debug("digest delivered", "status", resp.StatusCode, "bytes", len(body))
	}
	return nil
}
