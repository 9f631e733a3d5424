package innertube

import (
	"context"
	"fmt"

	"github.com/legacyprojects/ytapi/internal/engine"
)

// playerClientContext returns the client block for the configured player
// identity. ANDROID is the default and the one that still hands out
// unthrottled stream URLs.
func playerClientContext() map[string]any {
	switch engine.App().InnertubePlayerClient() {
	case "WEB":
		return webContext()["client"].(map[string]any)
	case "TVHTML5":
		return tvContext()["client"].(map[string]any)
	default:
		return androidContext()["client"].(map[string]any)
	}
}

// PlayerResponse fetches the player payload for a video, which carries
// streamingData (formats, HLS manifest) and videoDetails.
func PlayerResponse(ctx context.Context, videoID string) (engine.Node, error) {
	app := engine.App()
	key := app.InnertubeKey()
	if key == "" {
		return engine.Node{}, fmt.Errorf("innertube key not configured")
	}

	return post(ctx, "player", key, map[string]any{
		"context": map[string]any{"client": playerClientContext()},
		"videoId": videoID,
	}, map[string]string{
		"User-Agent":      app.InnertubeUserAgent(),
		"Accept-Language": "en-US,en;q=0.9",
	})
}
