// Package snapshot loads the externally supplied portfolio snapshot text.
// The content is opaque to the rest of the pipeline: it is embedded into
// the prompt verbatim.
package snapshot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

// Resolve picks the snapshot location: an explicit source wins, otherwise
// the URL is derived from the base URL and the run date (YYYYMMDD).
func Resolve(source, baseURL, date string) string {
	if source != "" {
		return source
	}
	return fmt.Sprintf("%s/report_%s.txt", strings.TrimRight(baseURL, "/"), date)
}

// Load reads the snapshot from a local path or an http(s) URL.
func Load(ctx context.Context, source string) (string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return loadURL(ctx, source)
	}

	b, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("read snapshot %s: %w", source, err)
	}
	return strings.TrimSpace(string(b)), nil
}

func loadURL(ctx context.Context, url string) (string, error) {
	client := &http.Client{Timeout: 10 * time.Second}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch snapshot %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch snapshot %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read snapshot body: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}
