package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const maxPageBytes = 6 * 1024 * 1024

// FetchHTML downloads a page, preferring the browser-fingerprint client when
// one is configured. YouTube serves watch pages with full ytInitialData only
// to browser-looking requests.
func FetchHTML(ctx context.Context, pageURL string, headers map[string]string) ([]byte, error) {
	IncrHTMLFetch()

	if cfg.BrowserClient != nil {
		h := ChromeHeaders()
		for k, v := range headers {
			h[k] = v
		}
		data, _, status, err := cfg.BrowserClient.Do(http.MethodGet, pageURL, h, nil)
		if err == nil && status == http.StatusOK {
			return data, nil
		}
		if err != nil {
			slog.Warn("browser fetch failed, falling back", slog.String("url", pageURL), slog.Any("error", err))
		} else {
			slog.Warn("browser fetch failed, falling back", slog.String("url", pageURL), slog.Int("status", status))
		}
	}

	operation := func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", UserAgentChrome)
		req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := cfg.HTTPClient.Do(req)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		defer resp.Body.Close()

		if IsRetryableStatus(resp.StatusCode) {
			return nil, fmt.Errorf("status %d", resp.StatusCode)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, backoff.Permanent(fmt.Errorf("status %d", resp.StatusCode))
		}
		return io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	}

	data, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3),
		backoff.WithMaxElapsedTime(30*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	return data, nil
}
