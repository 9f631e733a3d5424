package dataapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/legacyprojects/ytapi/internal/engine"
)

// ErrNotSubscribed is returned by Unsubscribe when no subscription exists
// for the resolved channel.
var ErrNotSubscribed = errors.New("no active subscription found for the channel")

var (
	channelPathRE = regexp.MustCompile(`/channel/(UC[0-9A-Za-z_-]{20,})`)
	externalIDRE  = regexp.MustCompile(`"externalId"\s*:\s*"(UC[0-9A-Za-z_-]{20,})"`)
	channelIDRE   = regexp.MustCompile(`channelId":"(UC[0-9A-Za-z_-]{20,})`)
)

// buildChannelURL turns a handle, @name or bare path into a full youtube.com URL.
// Absolute URLs pass through untouched.
func buildChannelURL(channel string) string {
	c := strings.TrimSpace(channel)
	if strings.HasPrefix(c, "https://") || strings.HasPrefix(c, "http://") {
		return c
	}
	return "https://www.youtube.com/" + strings.TrimPrefix(c, "/")
}

// ResolveChannelID resolves a channel handle, URL or UC id to a canonical
// UC channel id. Bare UC ids pass through without a network round trip;
// anything else requires fetching the channel page and scraping the id from
// either the final redirect URL or the page body.
func ResolveChannelID(ctx context.Context, channel string) (string, error) {
	c := strings.TrimSpace(channel)
	if strings.HasPrefix(c, "UC") && len(c) >= 24 {
		return c, nil
	}

	pageURL := buildChannelURL(c)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("resolve channel: %w", err)
	}
	req.Header.Set("User-Agent", engine.UserAgentChrome)
	resp, err := engine.Cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("resolve channel: %w", err)
	}
	defer resp.Body.Close()

	// Redirects often land on /channel/UC..., which is cheaper than scraping.
	if resp.Request != nil && resp.Request.URL != nil {
		if m := channelPathRE.FindStringSubmatch(resp.Request.URL.String()); m != nil {
			return m[1], nil
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("resolve channel: read body: %w", err)
	}
	for _, re := range []*regexp.Regexp{externalIDRE, channelIDRE, channelPathRE} {
		if m := re.FindSubmatch(body); m != nil {
			return string(m[1]), nil
		}
	}
	return "", fmt.Errorf("channel id for %q: %w", channel, ErrNotFound)
}

// Subscribe subscribes the authenticated user to the given channel and
// returns the resolved channel id.
func Subscribe(ctx context.Context, channel, accessToken string) (string, error) {
	channelID, err := ResolveChannelID(ctx, channel)
	if err != nil {
		return "", err
	}

	payload := fmt.Sprintf(
		`{"snippet":{"resourceId":{"kind":"youtube#channel","channelId":%q}}}`,
		channelID,
	)
	params := url.Values{"part": {"snippet"}}
	resp, err := authed(ctx, http.MethodPost, "subscriptions", params, strings.NewReader(payload), accessToken)
	if err != nil {
		return "", fmt.Errorf("subscribe: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("subscribe: HTTP %d: %s", resp.StatusCode, snippet)
	}
	return channelID, nil
}

// findSubscriptionID looks up the caller's subscription to a channel via
// subscriptions.list with mine=true. Empty string means not subscribed.
func findSubscriptionID(ctx context.Context, channelID, accessToken string) (string, error) {
	params := url.Values{
		"part":         {"id"},
		"mine":         {"true"},
		"forChannelId": {channelID},
		"maxResults":   {"50"},
	}
	resp, err := authed(ctx, http.MethodGet, "subscriptions", params, nil, accessToken)
	if err != nil {
		return "", fmt.Errorf("subscriptions.list: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("subscriptions.list: HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("subscriptions.list: read body: %w", err)
	}
	node, err := engine.ParseNode(body)
	if err != nil {
		return "", fmt.Errorf("subscriptions.list: decode: %w", err)
	}
	return node.Get("items", 0, "id").Str(), nil
}

// Unsubscribe removes the authenticated user's subscription to the given
// channel. Returns ErrNotSubscribed when there is nothing to delete.
func Unsubscribe(ctx context.Context, channel, accessToken string) (string, error) {
	channelID, err := ResolveChannelID(ctx, channel)
	if err != nil {
		return "", err
	}

	subID, err := findSubscriptionID(ctx, channelID, accessToken)
	if err != nil {
		return "", err
	}
	if subID == "" {
		return channelID, ErrNotSubscribed
	}

	params := url.Values{"id": {subID}}
	resp, err := authed(ctx, http.MethodDelete, "subscriptions", params, nil, accessToken)
	if err != nil {
		return "", fmt.Errorf("unsubscribe: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("unsubscribe: HTTP %d: %s", resp.StatusCode, snippet)
	}
	return channelID, nil
}

// ValidRating reports whether value is an accepted videos.rate argument.
func ValidRating(value string) bool {
	switch strings.ToLower(value) {
	case "like", "dislike", "none":
		return true
	}
	return false
}

// RateVideo rates a video as like, dislike or none. The upstream endpoint
// answers 204 on success.
func RateVideo(ctx context.Context, videoID, rating, accessToken string) error {
	params := url.Values{"id": {videoID}, "rating": {rating}}
	resp, err := authed(ctx, http.MethodPost, "videos/rate", params, nil, accessToken)
	if err != nil {
		return fmt.Errorf("rate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("rate: HTTP %d: %s", resp.StatusCode, snippet)
	}
	return nil
}

// VideoRating returns the authenticated user's current rating for a video.
func VideoRating(ctx context.Context, videoID, accessToken string) (string, error) {
	params := url.Values{"id": {videoID}}
	resp, err := authed(ctx, http.MethodGet, "videos/getRating", params, nil, accessToken)
	if err != nil {
		return "", fmt.Errorf("getRating: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return "", fmt.Errorf("getRating: HTTP %d: %s", resp.StatusCode, snippet)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("getRating: read body: %w", err)
	}
	node, err := engine.ParseNode(body)
	if err != nil {
		return "", fmt.Errorf("getRating: decode: %w", err)
	}
	rating := node.Get("items", 0, "rating").Str()
	if rating == "" {
		return "", fmt.Errorf("no rating info returned for video %s", videoID)
	}
	return rating, nil
}

// CheckSubscription reports whether the authenticated user is subscribed
// to the given channel, returning the resolved channel id alongside.
func CheckSubscription(ctx context.Context, channel, accessToken string) (string, bool, error) {
	channelID, err := ResolveChannelID(ctx, channel)
	if err != nil {
		return "", false, err
	}
	subID, err := findSubscriptionID(ctx, channelID, accessToken)
	if err != nil {
		return "", false, err
	}
	return channelID, subID != "", nil
}

// MyChannel fetches the authenticated user's channel with snippet and
// statistics parts. Returns the first item, which may be absent for Google
// accounts without a channel.
func MyChannel(ctx context.Context, accessToken string) (engine.Node, error) {
	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("mine", "true")
	resp, err := authed(ctx, http.MethodGet, "channels", params, nil, accessToken)
	if err != nil {
		return engine.Node{}, fmt.Errorf("fetch my channel: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return engine.Node{}, fmt.Errorf("fetch my channel: HTTP %d: %s", resp.StatusCode, snippet)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return engine.Node{}, err
	}
	node, err := engine.ParseNode(body)
	if err != nil {
		return engine.Node{}, fmt.Errorf("fetch my channel: decode: %w", err)
	}
	return node.Get("items", 0), nil
}
