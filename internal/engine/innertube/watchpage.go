package innertube

import (
	"context"
	"fmt"
	"regexp"

	"github.com/legacyprojects/ytapi/internal/engine"
)

var (
	ytcfgRE = regexp.MustCompile(`ytcfg\.set\((\{.*?\})\);`)

	playerResponseREs = []*regexp.Regexp{
		regexp.MustCompile(`ytInitialPlayerResponse\s*=\s*(\{.+?\});`),
		regexp.MustCompile(`window\['ytInitialPlayerResponse'\]\s*=\s*(\{.+?\});`),
	}
)

// FetchWatchPage downloads the HTML of a watch page.
func FetchWatchPage(ctx context.Context, videoID string) ([]byte, error) {
	pageURL := watchBase + "?v=" + videoID
	html, err := engine.FetchHTML(ctx, pageURL, map[string]string{
		"User-Agent":      engine.UserAgentChrome,
		"Accept-Language": "en-US,en;q=0.9",
	})
	if err != nil {
		return nil, fmt.Errorf("watch page %s: %w", videoID, err)
	}
	return html, nil
}

// ExtractYtcfg pulls the inline ytcfg.set blob out of watch-page HTML.
// Returns an empty node when the blob is missing or malformed.
func ExtractYtcfg(html []byte) engine.Node {
	if m := ytcfgRE.FindSubmatch(html); m != nil {
		if node, err := engine.ParseNode(m[1]); err == nil {
			return node
		}
	}
	return engine.N(map[string]any{})
}

// ExtractPlayerResponse pulls ytInitialPlayerResponse out of watch-page HTML.
func ExtractPlayerResponse(html []byte) engine.Node {
	for _, re := range playerResponseREs {
		if m := re.FindSubmatch(html); m != nil {
			if node, err := engine.ParseNode(m[1]); err == nil {
				return node
			}
		}
	}
	return engine.N(map[string]any{})
}

// watchContext returns the InnerTube key and context advertised by the watch
// page itself, falling back to the configured key and a plain WEB context.
// The locale is forced to en-US so numbers and dates parse predictably.
func watchContext(html []byte) (key string, context map[string]any) {
	cfg := ExtractYtcfg(html)

	key = cfg.Get("INNERTUBE_API_KEY").StrOr(engine.App().InnertubeKey())

	context = webContext()
	if raw, ok := cfg.Get("INNERTUBE_CONTEXT").Raw().(map[string]any); ok {
		context = raw
	}
	if client, ok := context["client"].(map[string]any); ok {
		client["gl"] = "US"
		client["hl"] = "en-US"
	}
	return key, context
}
