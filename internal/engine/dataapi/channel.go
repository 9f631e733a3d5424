package dataapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/legacyprojects/ytapi/internal/engine"
)

// ChannelThumbnailURL returns the high-res avatar URL straight from the
// Data API, bypassing the icon proxy.
func ChannelThumbnailURL(ctx context.Context, channelID string) (string, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("id", channelID)

	data, err := get(ctx, "channels", params)
	if err != nil {
		return "", err
	}
	return data.Get("items", 0, "snippet", "thumbnails", "high", "url").Str(), nil
}

// ChannelVideos fetches channel metadata plus its latest uploads, newest
// first. Views and durations come from a second batched videos call.
func ChannelVideos(ctx context.Context, base, channelID string, count int) (*engine.ChannelVideosResponse, error) {
	base = strings.TrimRight(base, "/")

	params := url.Values{}
	params.Set("part", "snippet,statistics,brandingSettings")
	params.Set("id", channelID)

	channelData, err := get(ctx, "channels", params)
	if err != nil {
		return nil, fmt.Errorf("channel lookup: %w", err)
	}
	item := channelData.Get("items", 0)

	banner := item.Get("brandingSettings", "image", "bannerExternalUrl").Str()
	if strings.HasPrefix(banner, "//") {
		banner = "https:" + banner
	}
	bannerOut := ""
	if banner != "" {
		bannerOut = base + "/channel_icon/" + url.PathEscape(banner)
	}

	channelTitle := item.Get("snippet", "title").StrOr("Unknown")
	info := engine.ChannelInfo{
		Title:           channelTitle,
		Description:     item.Get("snippet", "description").Str(),
		Thumbnail:       base + "/channel_icon/" + channelID,
		Banner:          bannerOut,
		SubscriberCount: item.Get("statistics", "subscriberCount").StrOr("0"),
		VideoCount:      item.Get("statistics", "videoCount").StrOr("0"),
	}

	videos := make([]engine.ChannelVideo, 0, count)
	pageToken := ""

	for len(videos) < count {
		searchParams := url.Values{}
		searchParams.Set("part", "snippet")
		searchParams.Set("channelId", channelID)
		searchParams.Set("maxResults", "50")
		searchParams.Set("type", "video")
		searchParams.Set("order", "date")
		if pageToken != "" {
			searchParams.Set("pageToken", pageToken)
		}

		page, err := get(ctx, "search", searchParams)
		if err != nil {
			break
		}

		items := page.Get("items").Arr()
		ids := make([]string, 0, len(items))
		for _, it := range items {
			if id := it.Get("id", "videoId").Str(); id != "" {
				ids = append(ids, id)
			}
		}
		views, durations := videoStats(ctx, ids)

		for _, it := range items {
			if len(videos) >= count {
				break
			}
			videoID := it.Get("id", "videoId").Str()
			snippet := it.Get("snippet")
			if videoID == "" || !snippet.Exists() {
				continue
			}
			videos = append(videos, engine.ChannelVideo{
				Title:            snippet.Get("title").Str(),
				Author:           channelTitle,
				VideoID:          videoID,
				Thumbnail:        base + "/thumbnail/" + videoID,
				ChannelThumbnail: base + "/channel_icon/" + channelID,
				Views:            orDefault(views[videoID], "0"),
				PublishedAt:      snippet.Get("publishedAt").Str(),
				Duration:         orDefault(durations[videoID], "0:00"),
			})
		}

		pageToken = page.Get("nextPageToken").Str()
		if pageToken == "" {
			break
		}
	}

	return &engine.ChannelVideosResponse{ChannelInfo: info, Videos: videos}, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
