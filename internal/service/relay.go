package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mamoski/relaydeck/internal/config"
	"github.com/mamoski/relaydeck/pkg/util"
)

// RelayTarget is one resolved destination in the relay payload: the
// selection joined with its catalog descriptor.
type RelayTarget struct {
	PlatformID    string `json:"platform_id"`
	PlatformLabel string `json:"platform_label"`
	Account       string `json:"account,omitempty"`
	PostType      string `json:"post_type,omitempty"`
}

// RelayPayload is the full package sent to the delivery webhook.
type RelayPayload struct {
	Filename     string
	Asset        []byte
	UserID       string
	UserEmail    string
	Notes        string
	CaptionIdeas string
	Targets      []RelayTarget
}

// RelaySender posts an upload package to the delivery webhook.
type RelaySender interface {
	Send(ctx context.Context, payload RelayPayload) error
}

// RelayClient is the production RelaySender. One blocking POST per
// submission, no retry; the request carries an explicit timeout so a hung
// webhook cannot stall the pipeline forever.
type RelayClient struct {
	webhookURL string
	client     *http.Client
	logger     *zap.Logger
}

func NewRelayClient(cfg *config.RelayConfig, logger *zap.Logger) (*RelayClient, error) {
	timeout, err := time.ParseDuration(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("invalid relay timeout: %w", err)
	}

	return &RelayClient{
		webhookURL: cfg.WebhookURL,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}, nil
}

func (c *RelayClient) Send(ctx context.Context, payload RelayPayload) error {
	// Build multipart form
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", payload.Filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(payload.Asset); err != nil {
		return fmt.Errorf("failed to write file content: %w", err)
	}

	fields := map[string]string{
		"user_id":       payload.UserID,
		"user_email":    payload.UserEmail,
		"notes":         payload.Notes,
		"caption_ideas": payload.CaptionIdeas,
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}

	targets, err := json.Marshal(payload.Targets)
	if err != nil {
		return fmt.Errorf("failed to marshal platform targets: %w", err)
	}
	if err := writer.WriteField("platforms", string(targets)); err != nil {
		return fmt.Errorf("failed to write platforms field: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.webhookURL, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRelayUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		c.logger.Warn("Relay rejected upload",
			zap.Int("status", resp.StatusCode),
			zap.String("body", util.Truncate(string(respBody), 512)))
		return fmt.Errorf("%w: relay returned status %d", ErrRelayUnreachable, resp.StatusCode)
	}

	c.logger.Info("Relay accepted upload",
		zap.String("filename", payload.Filename),
		zap.Int("targets", len(payload.Targets)))

	return nil
}
