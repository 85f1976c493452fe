package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"crypto-digest-bot/internal/logger"
	"crypto-digest-bot/internal/trace"
)

const discoveryAttempts = 3

type modelInfo struct {
	ID      string         `json:"id"`
	Pricing map[string]any `json:"pricing"`
}

// isFreeModel reports free-tier eligibility from pricing metadata: every
// listed price field parses to zero (with at least one present), or the
// identifier carries the ":free" suffix.
func isFreeModel(m modelInfo) bool {
	if strings.HasSuffix(m.ID, ":free") {
		return true
	}
	priced := 0
	for _, key := range []string{"prompt", "completion", "request"} {
		v, ok := m.Pricing[key]
		if !ok {
			continue
		}
		price, ok := parsePrice(v)
		if !ok {
			continue
		}
		if price != 0 {
			return false
		}
		priced++
	}
	return priced > 0
}

func parsePrice(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Candidates resolves the ordered model candidate list: an explicit model
// is used as-is, otherwise free models are discovered from the service.
func (c *Client) Candidates(ctx context.Context, explicit string) ([]string, error) {
	if explicit != "" {
		return []string{explicit}, nil
	}
	return c.DiscoverFreeModels(ctx)
}

// DiscoverFreeModels lists the service's models and keeps the free-tier
// eligible ones, deduplicated in discovery order. Up to 3 attempts with
// exponential backoff (1, 2, 4 units); exhaustion or an empty eligible
// list yields a *DiscoveryError.
func (c *Client) DiscoverFreeModels(ctx context.Context) ([]string, error) {
	ctx, span := trace.StartSpan(ctx, "openrouter-discover-models")
	defer span.End()

	var lastErr error
	for attempt := 0; attempt < discoveryAttempts; attempt++ {
		free, err := c.fetchFreeModels(ctx)
		if err == nil {
			logger.Info(ctx, "Discovered free models", "count", len(free))
			return free, nil
		}

		lastErr = err
		wait := c.retryBase << attempt
		logger.Warn(ctx, "Model discovery attempt failed",
			"attempt", attempt+1, "max_attempts", discoveryAttempts, "error", err, "retry_in", wait)
		select {
		case <-ctx.Done():
			return nil, &DiscoveryError{Err: ctx.Err()}
		case <-time.After(wait):
		}
	}
	return nil, &DiscoveryError{Err: fmt.Errorf("exhausted after %d attempts: %w", discoveryAttempts, lastErr)}
}

func (c *Client) fetchFreeModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/models", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}

	var payload struct {
		Data []modelInfo `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode models: %w", err)
	}

	var free []string
	seen := make(map[string]struct{})
	for _, m := range payload.Data {
		if !isFreeModel(m) || m.ID == "" {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		free = append(free, m.ID)
		seen[m.ID] = struct{}{}
	}

	if len(free) == 0 {
		return nil, errors.New("no eligible free models found")
	}
	return free, nil
}
