package innertube

import (
	"context"
	"fmt"
	"strings"

	"github.com/legacyprojects/ytapi/internal/engine"
)

func rewriteAvatarHost(u string) string {
	return strings.Replace(u, "yt3.ggpht.com", "yt3.googleusercontent.com", 1)
}

const iconClientVersion = "2.20250130.08.00"

// iconContext is a minimal English WEB identity, enough for the channel
// metadata lookups behind icon resolution.
func iconContext() map[string]any {
	return map[string]any{
		"client": map[string]any{
			"clientName":    "WEB",
			"clientVersion": iconClientVersion,
			"hl":            "en",
			"gl":            "US",
		},
	}
}

// ChannelIDFromVideo resolves the channel that uploaded a video.
func ChannelIDFromVideo(ctx context.Context, videoID string) (string, error) {
	key := engine.App().InnertubeKey()
	if key == "" {
		return "", fmt.Errorf("innertube key not configured")
	}
	data, err := post(ctx, "player", key, map[string]any{
		"context": iconContext(),
		"videoId": videoID,
	}, nil)
	if err != nil {
		return "", err
	}
	id := data.Get("videoDetails", "channelId").Str()
	if id == "" {
		return "", fmt.Errorf("no channelId in player response for %s", videoID)
	}
	return id, nil
}

// ChannelAvatarURL returns the largest avatar image of a channel. ggpht
// hosts are rewritten to googleusercontent, which legacy TLS stacks can
// still reach.
func ChannelAvatarURL(ctx context.Context, channelID string) (string, error) {
	key := engine.App().InnertubeKey()
	if key == "" {
		return "", fmt.Errorf("innertube key not configured")
	}
	data, err := post(ctx, "browse", key, map[string]any{
		"context":  iconContext(),
		"browseId": channelID,
	}, nil)
	if err != nil {
		return "", err
	}

	if header := data.Get("header", "c4TabbedHeaderRenderer"); header.Exists() {
		best := ""
		bestWidth := int64(-1)
		for _, t := range header.Get("avatar", "thumbnails").Arr() {
			if w := t.Get("width").Int64(); w > bestWidth {
				best, bestWidth = t.Get("url").Str(), w
			}
		}
		if best != "" {
			return rewriteAvatarHost(best), nil
		}
	}

	thumbs := data.Get("metadata", "channelMetadataRenderer", "avatar", "thumbnails").Arr()
	if len(thumbs) > 0 {
		if u := thumbs[len(thumbs)-1].Get("url").Str(); u != "" {
			return u, nil
		}
	}
	return "", fmt.Errorf("no avatar for channel %s", channelID)
}
