// Package dataapi talks to the YouTube Data API v3 with rotated keys.
package dataapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/legacyprojects/ytapi/internal/engine"
)

// ErrNotFound marks lookups where the API answered but the resource does
// not exist. Callers turn it into a 400 instead of a 5xx.
var ErrNotFound = errors.New("not found")

// Base URLs are package vars so tests can point them at fakes.
var (
	apiBase         = "https://www.googleapis.com/youtube/v3"
	suggestionsBase = "https://clients1.google.com/complete/search"
)

const maxResponseBytes = 8 * 1024 * 1024

// get performs a GET against the Data API, injecting the next rotated key,
// and decodes the JSON body.
func get(ctx context.Context, resource string, params url.Values) (engine.Node, error) {
	engine.IncrDataAPI()
	params.Set("key", engine.App().APIKey())

	reqURL := apiBase + "/" + resource + "?" + params.Encode()
	resp, err := engine.RetryHTTP(ctx, engine.DefaultRetryConfig, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, err
		}
		return engine.Cfg.HTTPClient.Do(req)
	})
	if err != nil {
		return engine.Node{}, fmt.Errorf("data api %s: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		engine.IncrDataAPIFailure()
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return engine.Node{}, fmt.Errorf("data api %s: HTTP %d: %s", resource, resp.StatusCode, snippet)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return engine.Node{}, fmt.Errorf("data api %s: read body: %w", resource, err)
	}
	node, err := engine.ParseNode(body)
	if err != nil {
		return engine.Node{}, fmt.Errorf("data api %s: decode: %w", resource, err)
	}
	return node, nil
}

// authed performs a Data API request on behalf of a user, with a bearer
// token instead of an API key. Used by the subscription and rating actions.
func authed(ctx context.Context, method, resource string, params url.Values, body io.Reader, accessToken string) (*http.Response, error) {
	reqURL := apiBase + "/" + resource
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	engine.IncrDataAPI()
	return engine.Cfg.HTTPClient.Do(req)
}
