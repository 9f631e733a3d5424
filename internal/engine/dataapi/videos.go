package dataapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/legacyprojects/ytapi/internal/engine"
)

// TopVideos returns the mostPopular chart, optionally narrowed to a
// category. Thumbnail URLs point back at this instance's proxy endpoints.
func TopVideos(ctx context.Context, base string, count int, categoryID string) ([]engine.TopVideo, error) {
	if count < 1 {
		count = 1
	}
	if count > 50 {
		count = 50
	}

	params := url.Values{}
	params.Set("part", "snippet,contentDetails")
	params.Set("chart", "mostPopular")
	params.Set("maxResults", fmt.Sprintf("%d", count))
	if categoryID != "" {
		params.Set("videoCategoryId", categoryID)
	}

	data, err := get(ctx, "videos", params)
	if err != nil {
		return nil, err
	}

	base = strings.TrimRight(base, "/")
	videos := make([]engine.TopVideo, 0, count)
	for _, item := range data.Get("items").Arr() {
		videoID := item.Get("id").Str()
		snippet := item.Get("snippet")
		if videoID == "" || !snippet.Exists() {
			continue
		}
		channelID := snippet.Get("channelId").StrOr(videoID)
		videos = append(videos, engine.TopVideo{
			Title:            engine.DecodeLabel(snippet.Get("title").StrOr("Unknown Title")),
			Author:           snippet.Get("channelTitle").StrOr("Unknown Author"),
			VideoID:          videoID,
			Thumbnail:        base + "/thumbnail/" + videoID,
			ChannelThumbnail: base + "/channel_icon/" + channelID,
			Duration:         durationOr(item.Get("contentDetails", "duration").Str()),
		})
	}
	return videos, nil
}

func durationOr(iso string) string {
	if d := engine.FormatISODuration(iso); d != "" {
		return d
	}
	return "0:00"
}

// Categories lists video categories for a region.
func Categories(ctx context.Context, region string) ([]engine.CategoryItem, error) {
	if region == "" {
		region = "US"
	}
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("regionCode", region)

	data, err := get(ctx, "videoCategories", params)
	if err != nil {
		return nil, err
	}

	var categories []engine.CategoryItem
	for _, item := range data.Get("items").Arr() {
		id := item.Get("id").Str()
		if id == "" {
			continue
		}
		categories = append(categories, engine.CategoryItem{
			ID:    id,
			Title: engine.DecodeLabel(item.Get("snippet", "title").Str()),
		})
	}
	return categories, nil
}

// VideoChannelID looks up the owning channel of a video.
func VideoChannelID(ctx context.Context, videoID string) (string, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("id", videoID)

	data, err := get(ctx, "videos", params)
	if err != nil {
		return "", err
	}
	channelID := data.Get("items", 0, "snippet", "channelId").Str()
	if channelID == "" {
		return "", fmt.Errorf("video %s: %w", videoID, ErrNotFound)
	}
	return channelID, nil
}

// videoStats batch-fetches view counts and display durations for ids.
func videoStats(ctx context.Context, ids []string) (views, durations map[string]string) {
	views = make(map[string]string, len(ids))
	durations = make(map[string]string, len(ids))
	if len(ids) == 0 {
		return views, durations
	}

	params := url.Values{}
	params.Set("part", "statistics,contentDetails")
	params.Set("id", strings.Join(ids, ","))

	data, err := get(ctx, "videos", params)
	if err != nil {
		return views, durations
	}
	for _, item := range data.Get("items").Arr() {
		id := item.Get("id").Str()
		if id == "" {
			continue
		}
		views[id] = item.Get("statistics", "viewCount").StrOr("0")
		durations[id] = durationOr(item.Get("contentDetails", "duration").Str())
	}
	return views, durations
}
