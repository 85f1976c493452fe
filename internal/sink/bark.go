package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"crypto-digest-bot/internal/store"
)

// BarkNotifier pushes messages through a Bark server.
type BarkNotifier struct {
	server string
	key    string
	client *http.Client
}

// NewBarkNotifier creates a notifier for the configured Bark device.
func NewBarkNotifier(cfg store.BarkConfig) *BarkNotifier {
	return &BarkNotifier{
		server: strings.TrimRight(cfg.Server, "/"),
		key:    cfg.Key,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Notify pushes one message. Callers treat failures as log-and-continue.
func (b *BarkNotifier) Notify(ctx context.Context, title, body string) error {
	payload := map[string]string{
		"device_key": b.key,
		"title":      title,
		"body":       body,
	}
	bb, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.server+"/push", bytes.NewReader(bb))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("bark API error: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
