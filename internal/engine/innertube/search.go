package innertube

import (
	"context"
	"strings"

	"github.com/legacyprojects/ytapi/internal/engine"
)

// Search runs an InnerTube search with the WEB client and returns up to
// count video results. Thumbnail URLs are rewritten onto base so the
// clients never see youtube.com origins.
func Search(ctx context.Context, base, query string, count int) ([]engine.SearchResult, error) {
	base = strings.TrimRight(base, "/")
	payload := map[string]any{
		"context": webContext(),
		"query":   query,
	}
	headers := map[string]string{
		"User-Agent":               engine.UserAgentChrome,
		"Accept-Language":          "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7",
		"X-YouTube-Client-Name":    "1",
		"X-YouTube-Client-Version": webClientVersion,
	}

	data, err := post(ctx, "search", engine.App().InnertubeKey(), payload, headers)
	if err != nil {
		return nil, err
	}

	results := make([]engine.SearchResult, 0, count)
	for _, vr := range data.FindAll("videoRenderer") {
		if len(results) >= count {
			break
		}
		if r, ok := parseVideoRenderer(vr, base); ok {
			results = append(results, r)
		}
	}
	return results, nil
}

// parseVideoRenderer maps a videoRenderer node to the legacy search DTO.
// The channel id comes from the owner's browse endpoint when present, with
// the bare channelId field as fallback.
func parseVideoRenderer(vr engine.Node, base string) (engine.SearchResult, bool) {
	videoID := vr.Get("videoId").Str()
	if videoID == "" {
		return engine.SearchResult{}, false
	}

	channelID := vr.Get("ownerText", "runs", 0, "navigationEndpoint", "browseEndpoint", "browseId").Str()
	if channelID == "" {
		channelID = vr.Get("channelId").Str()
	}

	title := vr.Get("title").SimpleText()
	description := vr.Get("descriptionSnippet").SimpleText()
	duration := vr.Get("lengthText").SimpleText()
	views := vr.Get("viewCountText").SimpleText()
	published := vr.Get("publishedTimeText").SimpleText()
	author := vr.Get("ownerText").SimpleText()

	channelThumb := base + "/channel_icon/" + videoID
	if channelID != "" {
		channelThumb = base + "/channel_icon/" + channelID
	}

	return engine.SearchResult{
		Title:            engine.DecodeLabel(title),
		Author:           engine.DecodeLabel(author),
		VideoID:          videoID,
		ChannelID:        channelID,
		Thumbnail:        base + "/thumbnail/" + videoID,
		ChannelThumbnail: channelThumb,
		Duration:         duration,
		Description:      engine.DecodeLabel(description),
		Views:            engine.DecodeLabel(views),
		Published:        engine.DecodeLabel(published),
	}, true
}
