package innertube

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"

	"github.com/legacyprojects/ytapi/internal/engine"
)

var feedbackTokenRE = regexp.MustCompile(`"feedbackToken"\s*:\s*"([^"]+)"`)

// extractFeedbackToken finds the playback feedback token in a raw player
// response. Known JSON locations are tried first, then a regex sweep over
// the body.
func extractFeedbackToken(playerBody []byte) string {
	if node, err := engine.ParseNode(playerBody); err == nil {
		if u := node.Get("playbackTracking", "videostatsPlaybackUrl", "baseUrl").Str(); u != "" {
			return u
		}
		if t := node.Get("playbackTracking", "videostatsPlaybackUrl", "feedbackToken").Str(); t != "" {
			return t
		}
		if t := node.Get("feedbackTokens", 0).Str(); t != "" {
			return t
		}
	}
	if m := feedbackTokenRE.FindSubmatch(playerBody); m != nil {
		return string(m[1])
	}
	return ""
}

// postRaw sends an InnerTube request and returns the raw body without
// decoding, so callers can keep non-JSON error snippets.
func postRaw(ctx context.Context, endpoint, key string, payload map[string]any, headers map[string]string) ([]byte, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		apiBase+"/"+endpoint+"?key="+url.QueryEscape(key), bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	engine.IncrInnertube()
	resp, err := engine.Cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	return data, resp.StatusCode, err
}

// MarkWatched records a video in the user's watch history by replaying the
// ANDROID client's playback feedback call. The player endpoint is tried
// plain first and then with the autoplay params blob, since some videos
// only answer one shape.
func MarkWatched(ctx context.Context, videoID, accessToken string) error {
	key := engine.App().InnertubeKey()
	cpn := GenerateCPN()
	headers := map[string]string{
		"Authorization": "Bearer " + accessToken,
		"User-Agent":    "com.google.android.youtube/" + androidClientVersion,
	}

	var playerBody []byte
	playerOK := false
	for _, includeParams := range []bool{false, true} {
		payload := map[string]any{
			"videoId":        videoID,
			"cpn":            cpn,
			"context":        androidContext(),
			"contentCheckOk": true,
			"racyCheckOk":    true,
		}
		if includeParams {
			payload["params"] = "CgIIAQ=="
		}
		body, status, err := postRaw(ctx, "player", key, payload, headers)
		if err != nil {
			continue
		}
		if status >= 200 && status <= 299 {
			playerBody = body
			playerOK = true
			break
		}
		if len(body) > 300 {
			body = body[:300]
		}
		playerBody = body
	}
	if !playerOK {
		return fmt.Errorf("player request failed: %s", playerBody)
	}

	token := extractFeedbackToken(playerBody)
	if token == "" {
		return errors.New("no feedback token in player response")
	}

	body, status, err := postRaw(ctx, "feedback", key, map[string]any{
		"context":        androidContext(),
		"feedbackTokens": []string{token},
	}, headers)
	if err != nil {
		return fmt.Errorf("feedback request: %w", err)
	}
	if status < 200 || status > 299 {
		if len(body) > 300 {
			body = body[:300]
		}
		return fmt.Errorf("feedback request HTTP %d: %s", status, body)
	}
	return nil
}
