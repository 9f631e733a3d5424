package dataapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/legacyprojects/ytapi/internal/engine"
)

// FindChannelID resolves a free-text author query to a channel id via a
// one-result channel search.
func FindChannelID(ctx context.Context, author string) (string, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("q", author)
	params.Set("type", "channel")
	params.Set("maxResults", "1")

	data, err := get(ctx, "search", params)
	if err != nil {
		return "", err
	}
	channelID := data.Get("items", 0, "id", "channelId").Str()
	if channelID == "" {
		return "", fmt.Errorf("channel for %q: %w", author, ErrNotFound)
	}
	return channelID, nil
}

// Suggestions proxies the YouTube autocomplete endpoint. The upstream wraps
// its JSON in a JSONP callback and sometimes an anti-XSSI prefix; both get
// stripped before parsing.
func Suggestions(ctx context.Context, query string) ([]any, error) {
	params := url.Values{}
	params.Set("client", "youtube")
	params.Set("hl", "en")
	params.Set("ds", "yt")
	params.Set("q", query)

	reqURL := suggestionsBase + "?" + params.Encode()
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", engine.UserAgentChrome)
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return nil, fmt.Errorf("suggestions: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("suggestions: read: %w", err)
	}

	cleaned := StripJSONPWrapper(string(body))
	node, err := engine.ParseNode([]byte(cleaned))
	if err != nil {
		return nil, fmt.Errorf("suggestions: decode: %w", err)
	}

	raw := node.Get(1).Arr()
	out := make([]any, 0, 10)
	for i, s := range raw {
		if i >= 10 {
			break
		}
		out = append(out, s.Raw())
	}
	return out, nil
}

// StripJSONPWrapper removes the "window.google.ac.h(...)" callback and the
// ")]}'" anti-XSSI prefix from an autocomplete response.
func StripJSONPWrapper(data string) string {
	if strings.HasPrefix(data, "window.google.ac.h(") {
		data = strings.TrimPrefix(data, "window.google.ac.h(")
		data = strings.TrimSuffix(data, ")")
	}
	data = strings.TrimPrefix(data, ")]}'")
	return data
}
