// Package innertube talks to YouTube's internal JSON API. Three client
// identities are used: WEB for search and watch-next data, TVHTML5 for
// authenticated browse feeds, and ANDROID for player and watch-tracking
// calls.
package innertube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/legacyprojects/ytapi/internal/engine"
)

// Base URLs are package vars so tests can point them at fakes.
var (
	apiBase   = "https://www.youtube.com/youtubei/v1"
	watchBase = "https://www.youtube.com/watch"
)

const (
	webClientVersion     = "2.20250101"
	tvClientVersion      = "7.20250209.19.00"
	androidClientVersion = "19.14.37"

	maxResponseBytes = 24 * 1024 * 1024
)

// webContext is the desktop browser identity used for search.
func webContext() map[string]any {
	return map[string]any{
		"client": map[string]any{
			"clientName":    "WEB",
			"clientVersion": webClientVersion,
			"hl":            "ru",
			"gl":            "RU",
		},
	}
}

// tvContext impersonates a Samsung smart TV, the only client identity the
// browse feeds render tile data for.
func tvContext() map[string]any {
	return map[string]any{
		"client": map[string]any{
			"hl": "en", "gl": "US",
			"deviceMake":  "Samsung",
			"deviceModel": "SmartTV",
			"userAgent":   "Mozilla/5.0 (SMART-TV; Linux; Tizen 5.0) AppleWebKit/538.1",
			"clientName":  "TVHTML5", "clientVersion": tvClientVersion,
			"osName": "Tizen", "osVersion": "5.0", "platform": "TV",
			"clientFormFactor":   "UNKNOWN_FORM_FACTOR",
			"screenPixelDensity": 1,
		},
	}
}

func androidContext() map[string]any {
	return map[string]any{
		"client": map[string]any{
			"clientName":    "ANDROID",
			"clientVersion": androidClientVersion,
			"hl":            "en",
			"gl":            "US",
			"osName":        "Android",
			"osVersion":     "13",
			"platform":      "MOBILE",
		},
	}
}

// post sends a payload to an InnerTube endpoint and decodes the response.
// headers are applied on top of Content-Type.
func post(ctx context.Context, endpoint, key string, payload map[string]any, headers map[string]string) (engine.Node, error) {
	engine.IncrInnertube()

	body, err := json.Marshal(payload)
	if err != nil {
		return engine.Node{}, fmt.Errorf("innertube %s: encode: %w", endpoint, err)
	}
	reqURL := apiBase + "/" + endpoint + "?key=" + url.QueryEscape(key)

	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return engine.Node{}, fmt.Errorf("innertube %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 300))
		return engine.Node{}, fmt.Errorf("innertube %s: HTTP %d: %s", endpoint, resp.StatusCode, snippet)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return engine.Node{}, fmt.Errorf("innertube %s: read body: %w", endpoint, err)
	}
	node, err := engine.ParseNode(data)
	if err != nil {
		return engine.Node{}, fmt.Errorf("innertube %s: decode: %w", endpoint, err)
	}
	return node, nil
}

const cpnCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateCPN builds a 16-char client playback nonce from random UUID bytes.
func GenerateCPN() string {
	raw := uuid.New()
	out := make([]byte, 16)
	for i, b := range raw[:16] {
		out[i] = cpnCharset[int(b)%len(cpnCharset)]
	}
	return string(out)
}
