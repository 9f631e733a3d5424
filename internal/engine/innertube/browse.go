package innertube

import (
	"context"
	"net/url"
	"strings"

	"github.com/legacyprojects/ytapi/internal/engine"
)

// browse posts an authenticated TVHTML5 browse request.
func browse(ctx context.Context, key, accessToken string, payload map[string]any) (engine.Node, error) {
	return post(ctx, "browse", key, payload, map[string]string{
		"Authorization": "Bearer " + accessToken,
	})
}

// Recommendations fetches the FEwhat_to_watch home feed for the
// authenticated user.
func Recommendations(ctx context.Context, base, accessToken string, count int) ([]engine.RecommendationItem, error) {
	base = strings.TrimRight(base, "/")

	data, err := browse(ctx, engine.App().InnertubeKey(), accessToken, map[string]any{
		"context":  tvContext(),
		"browseId": "FEwhat_to_watch",
	})
	if err != nil {
		return nil, err
	}

	items := parseRecommendations(data, count)
	for i := range items {
		items[i].Thumbnail = base + "/thumbnail/" + items[i].VideoID
	}
	return items, nil
}

// tileShelfSections returns the shelf sections of a TV browse surface.
func tileShelfSections(data engine.Node) engine.Node {
	return data.Get("contents", "tvBrowseRenderer", "content", "tvSurfaceContentRenderer", "content", "sectionListRenderer", "contents")
}

func parseRecommendations(data engine.Node, max int) []engine.RecommendationItem {
	var items []engine.RecommendationItem
	for _, section := range tileShelfSections(data).Arr() {
		if len(items) >= max {
			break
		}
		shelf := section.Get("shelfRenderer", "content", "horizontalListRenderer", "items")
		for _, item := range shelf.Arr() {
			if len(items) >= max {
				break
			}
			tile := item.Get("tileRenderer")
			videoID := tile.Get("onSelectCommand", "watchEndpoint", "videoId").Str()
			if videoID == "" {
				continue
			}

			title := engine.CleanText(tile.Get("metadata", "tileMetadataRenderer", "title", "simpleText").StrOr("No Title"))
			author := "Unknown"
			if text := tile.Get("metadata", "tileMetadataRenderer", "lines", 0,
				"lineRenderer", "items", 0, "lineItemRenderer", "text", "runs", 0, "text").Str(); text != "" {
				author = engine.CleanText(text)
			}

			items = append(items, engine.RecommendationItem{
				Title:    title,
				Author:   author,
				VideoID:  videoID,
				Duration: tileDuration(tile),
			})
		}
	}
	return items
}

func tileDuration(tile engine.Node) string {
	return tile.Get("header", "tileHeaderRenderer", "thumbnailOverlays", 0,
		"thumbnailOverlayTimeStatusRenderer", "text", "simpleText").StrOr("0:00")
}

// Subscriptions lists the channels the authenticated user follows, read
// from the secondary nav tabs of the FEsubscriptions surface.
func Subscriptions(ctx context.Context, base, accessToken string) ([]engine.SubscriptionItem, error) {
	base = strings.TrimRight(base, "/")

	data, err := browse(ctx, engine.App().APIKey(), accessToken, map[string]any{
		"context":  tvContext(),
		"browseId": "FEsubscriptions",
	})
	if err != nil {
		return nil, err
	}

	tabs := data.Get("contents", "tvBrowseRenderer", "content", "tvSecondaryNavRenderer",
		"sections", 0, "tvSecondaryNavSectionRenderer", "tabs")

	var subs []engine.SubscriptionItem
	for _, tab := range tabs.Arr() {
		renderer := tab.Get("tabRenderer")
		if !renderer.Exists() {
			continue
		}
		title := renderer.Get("title").StrOr("Unknown")
		if strings.EqualFold(title, "all") {
			continue
		}

		thumbs := renderer.Get("thumbnail", "thumbnails").Arr()
		thumbURL := ""
		if len(thumbs) > 0 {
			thumbURL = thumbs[len(thumbs)-1].Get("url").Str()
		}
		if strings.HasPrefix(thumbURL, "//") {
			thumbURL = "https:" + thumbURL
		}

		subs = append(subs, engine.SubscriptionItem{
			ChannelID:      renderer.Get("endpoint", "browseEndpoint", "browseId").StrOr("unknown"),
			Title:          title,
			Thumbnail:      thumbURL,
			LocalThumbnail: base + "/channel_icon/" + url.QueryEscape(thumbURL),
			ProfileURL:     base + "/get_author_videos.php?author=" + url.QueryEscape(title),
		})
	}
	return subs, nil
}

// History fetches the watch history grid, following continuations until
// count items are collected or the feed runs out.
func History(ctx context.Context, base, accessToken string, count int) ([]engine.HistoryItem, error) {
	base = strings.TrimRight(base, "/")

	videos := make([]engine.HistoryItem, 0, count)
	continuation := ""

	for len(videos) < count {
		payload := map[string]any{
			"context":  tvContext(),
			"browseId": "FEhistory",
		}
		if continuation != "" {
			payload["continuation"] = continuation
		}
		page, err := browse(ctx, engine.App().APIKey(), accessToken, payload)
		if err != nil {
			if len(videos) > 0 {
				break
			}
			return nil, err
		}

		items, next := extractHistoryPage(page, count-len(videos), base)
		videos = append(videos, items...)
		if next == "" {
			break
		}
		continuation = next
	}
	return videos, nil
}

// historyContinuation finds the grid continuation token, checking the
// legacy gridContinuation shape first and then appended continuation items.
func historyContinuation(data engine.Node) string {
	token := data.Get("continuationContents", "gridContinuation", "continuations", 0,
		"nextContinuationData", "continuation").Str()
	if token != "" {
		return token
	}
	for _, action := range data.Get("onResponseReceivedActions").Arr() {
		for _, item := range action.Get("appendContinuationItemsAction", "items").Arr() {
			token := item.Get("continuationItemRenderer", "continuationEndpoint", "continuationCommand", "token").Str()
			if token != "" {
				return token
			}
		}
	}
	return ""
}

func parseHistoryTile(tile engine.Node, base string) (engine.HistoryItem, bool) {
	videoID := tile.Get("onSelectCommand", "watchEndpoint", "videoId").Str()
	if videoID == "" {
		return engine.HistoryItem{}, false
	}
	// The watched-at label sits on the third item of the second metadata line.
	watchedAt := tile.Get("metadata", "tileMetadataRenderer", "lines", 1,
		"lineRenderer", "items", 2, "lineItemRenderer", "text", "simpleText").Str()

	return engine.HistoryItem{
		VideoID:   videoID,
		Title:     engine.CleanText(tile.Get("metadata", "tileMetadataRenderer", "title", "simpleText").StrOr("No Title")),
		Author:    "Unknown",
		Views:     "0",
		Duration:  tileDuration(tile),
		WatchedAt: watchedAt,
		Thumbnail: base + "/thumbnail/" + videoID,
	}, true
}

func extractHistoryPage(data engine.Node, max int, base string) ([]engine.HistoryItem, string) {
	var videos []engine.HistoryItem
	continuation := historyContinuation(data)

	grid := data.Get("contents", "tvBrowseRenderer", "content", "tvSurfaceContentRenderer",
		"content", "gridRenderer", "items")
	for _, item := range grid.Arr() {
		if len(videos) >= max {
			break
		}
		if parsed, ok := parseHistoryTile(item.Get("tileRenderer"), base); ok {
			videos = append(videos, parsed)
		}
	}

	if len(videos) < max {
		for _, action := range data.Get("onResponseReceivedActions").Arr() {
			for _, item := range action.Get("appendContinuationItemsAction", "items").Arr() {
				if len(videos) >= max {
					break
				}
				if parsed, ok := parseHistoryTile(item.Get("tileRenderer"), base); ok {
					videos = append(videos, parsed)
				}
				if continuation == "" {
					continuation = item.Get("continuationItemRenderer", "continuationEndpoint",
						"continuationCommand", "token").Str()
				}
			}
		}
	}
	return videos, continuation
}
