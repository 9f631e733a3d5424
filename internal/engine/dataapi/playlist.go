package dataapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/legacyprojects/ytapi/internal/engine"
)

// Playlist fetches playlist metadata and up to count items, walking page
// tokens. The owning channel is looked up once for author attribution.
func Playlist(ctx context.Context, base, playlistID string, count int) (*engine.PlaylistResponse, error) {
	base = strings.TrimRight(base, "/")

	params := url.Values{}
	params.Set("part", "snippet,contentDetails")
	params.Set("id", playlistID)

	listData, err := get(ctx, "playlists", params)
	if err != nil {
		return nil, fmt.Errorf("playlist lookup: %w", err)
	}
	info := listData.Get("items", 0)
	if !info.Exists() {
		return nil, fmt.Errorf("playlist %s: %w", playlistID, ErrNotFound)
	}

	channelID := info.Get("snippet", "channelId").Str()

	var channelInfo engine.Node
	if channelID != "" {
		chParams := url.Values{}
		chParams.Set("part", "snippet,statistics")
		chParams.Set("id", channelID)
		if chData, err := get(ctx, "channels", chParams); err == nil {
			channelInfo = chData.Get("items", 0)
		}
	}
	channelTitle := channelInfo.Get("snippet", "title").Str()
	channelThumb := channelInfo.Get("snippet", "thumbnails", "high", "url").Str()

	videos := make([]engine.PlaylistVideo, 0, count)
	pageToken := ""

	for len(videos) < count {
		itemParams := url.Values{}
		itemParams.Set("part", "snippet,contentDetails")
		itemParams.Set("playlistId", playlistID)
		itemParams.Set("maxResults", "50")
		if pageToken != "" {
			itemParams.Set("pageToken", pageToken)
		}

		page, err := get(ctx, "playlistItems", itemParams)
		if err != nil {
			break
		}

		for _, item := range page.Get("items").Arr() {
			if len(videos) >= count {
				break
			}
			videoID := item.Get("contentDetails", "videoId").Str()
			snippet := item.Get("snippet")
			if videoID == "" || !snippet.Exists() {
				continue
			}

			author := channelTitle
			if author == "" {
				author = snippet.Get("channelTitle").Str()
			}
			itemChannelThumb := channelThumb
			if itemChannelThumb == "" {
				itemChannelThumb = base + "/channel_icon/" + channelID
			}

			var published *string
			if p := snippet.Get("publishedAt").Str(); p != "" {
				published = &p
			}

			videos = append(videos, engine.PlaylistVideo{
				Title:            engine.DecodeLabel(snippet.Get("title").Str()),
				Author:           author,
				VideoID:          videoID,
				Thumbnail:        base + "/thumbnail/" + videoID,
				ChannelThumbnail: itemChannelThumb,
				PublishedAt:      published,
			})
		}

		pageToken = page.Get("nextPageToken").Str()
		if pageToken == "" {
			break
		}
	}

	firstThumb := ""
	if len(videos) > 0 {
		firstThumb = base + "/thumbnail/" + videos[0].VideoID
	}

	return &engine.PlaylistResponse{
		PlaylistInfo: engine.PlaylistInfo{
			Title:            info.Get("snippet", "title").Str(),
			Description:      info.Get("snippet", "description").Str(),
			Thumbnail:        firstThumb,
			ChannelTitle:     channelTitle,
			ChannelThumbnail: channelThumb,
			VideoCount:       int(info.Get("contentDetails", "itemCount").Int64()),
		},
		Videos: videos,
	}, nil
}
