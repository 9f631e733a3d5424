package innertube

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/legacyprojects/ytapi/internal/engine"
)

// Continuation pages are paced to stay under YouTube's soft limits.
var continuationLimiter = rate.NewLimiter(rate.Every(1500*time.Millisecond), 1)

const maxRelatedPages = 6

type relatedVideo struct {
	videoID   string
	title     string
	channel   string
	views     string
	duration  string
	published string
}

// RelatedVideos returns the watch-next recommendation rail for a video,
// walking up to maxRelatedPages continuations, deduplicated and sliced by
// offset/limit.
func RelatedVideos(ctx context.Context, base, videoID, quality string, limit, offset int) ([]engine.RelatedVideo, error) {
	base = strings.TrimRight(base, "/")

	html, err := FetchWatchPage(ctx, videoID)
	if err != nil {
		return nil, err
	}
	key, itCtx := watchContext(html)

	next, err := post(ctx, "next", key, map[string]any{
		"context": itCtx,
		"videoId": videoID,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("related: %w", err)
	}

	desired := limit
	if desired < 20 {
		desired = 20
	}
	if desired > 100 {
		desired = 100
	}

	videos := extractLockups(next)
	token := relatedContinuation(next)

	for page := 1; token != "" && len(videos) < desired && page < maxRelatedPages; page++ {
		if err := continuationLimiter.Wait(ctx); err != nil {
			break
		}
		cont, err := post(ctx, "next", key, map[string]any{
			"context":      itCtx,
			"continuation": token,
		}, nil)
		if err != nil {
			break
		}
		more := extractLockups(cont)
		if len(more) == 0 {
			break
		}
		videos = append(videos, more...)
		token = relatedContinuation(cont)
	}

	seen := map[string]bool{videoID: true}
	unique := videos[:0]
	for _, v := range videos {
		if seen[v.videoID] {
			continue
		}
		seen[v.videoID] = true
		unique = append(unique, v)
	}

	if offset >= len(unique) {
		return []engine.RelatedVideo{}, nil
	}
	end := offset + limit
	if end > len(unique) {
		end = len(unique)
	}
	window := unique[offset:end]

	app := engine.App()
	out := make([]engine.RelatedVideo, 0, len(window))
	for _, v := range window {
		thumb := base + "/thumbnail/" + v.videoID
		infoURL := fmt.Sprintf("%s/get-ytvideo-info.php?video_id=%s&quality=%s", base, v.videoID, quality)
		if app.Proxy.VideoProxy {
			infoURL = base + "/video.proxy?url=" + url.QueryEscape(infoURL)
		}
		out = append(out, engine.RelatedVideo{
			Title:            v.title,
			Author:           v.channel,
			VideoID:          v.videoID,
			Views:            v.views,
			PublishedAt:      v.published,
			Thumbnail:        thumb,
			ChannelThumbnail: base + "/channel_icon/" + v.videoID,
			URL:              infoURL,
			Source:           "innertube",
			Color:            dominantColor(ctx, thumb),
		})
	}
	return out, nil
}

// relatedContinuation finds the continuation token inside the secondary
// results rail.
func relatedContinuation(data engine.Node) string {
	results := data.Get("contents", "twoColumnWatchNextResults", "secondaryResults", "secondaryResults", "results")
	for _, item := range results.Arr() {
		for _, content := range item.Get("itemSectionRenderer", "contents").Arr() {
			token := content.Get("continuationItemRenderer", "continuationEndpoint", "continuationCommand", "token").Str()
			if token != "" {
				return token
			}
		}
	}
	return ""
}

func extractLockups(data engine.Node) []relatedVideo {
	var videos []relatedVideo
	for _, lockup := range data.FindAll("lockupViewModel") {
		if v, ok := parseLockup(lockup); ok {
			videos = append(videos, v)
		}
	}
	return videos
}

// parseLockup maps one lockupViewModel to a related video. The first
// metadata row carries the channel name, the second views and publish time,
// and the thumbnail badge the duration.
func parseLockup(lockup engine.Node) (relatedVideo, bool) {
	videoID := lockup.Get("rendererContext", "commandContext", "onTap", "innertubeCommand", "watchEndpoint", "videoId").Str()
	if videoID == "" {
		return relatedVideo{}, false
	}
	meta := lockup.Get("metadata", "lockupMetadataViewModel")
	title := meta.Get("title", "content").Str()
	if title == "" {
		return relatedVideo{}, false
	}

	rows := meta.Get("metadata", "contentMetadataViewModel", "metadataRows")
	channel := strings.TrimSpace(rows.Get(0, "metadataParts", 0, "text", "content").StrOr("—"))
	views := cleanViewsString(rows.Get(1, "metadataParts", 0, "text", "content").Str())
	published := strings.TrimSpace(rows.Get(1, "metadataParts", 1, "text", "content").StrOr("—"))

	duration := "—"
	for _, overlay := range lockup.Get("contentImage", "thumbnailViewModel", "overlays").Arr() {
		badge := overlay.Get("thumbnailOverlayBadgeViewModel", "thumbnailBadges", 0, "thumbnailBadgeViewModel", "text").Str()
		if badge != "" {
			duration = badge
			break
		}
	}

	return relatedVideo{
		videoID:   videoID,
		title:     title,
		channel:   channel,
		views:     views,
		published: published,
		duration:  duration,
	}, true
}

// cleanViewsString turns "1.2M views" style text into a bare digit string,
// expanding K and M suffixes.
func cleanViewsString(raw string) string {
	var sb strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == 'K' || r == 'M' || r == '.' {
			sb.WriteRune(r)
		}
	}
	cleaned := sb.String()
	cleaned = strings.ReplaceAll(cleaned, "K", "000")
	cleaned = strings.ReplaceAll(cleaned, "M", "000000")
	return strings.ReplaceAll(cleaned, ".", "")
}

// dominantColor fetches a thumbnail and averages its pixels into a hex
// color. Failures just mean no color hint for the client.
func dominantColor(ctx context.Context, imageURL string) *string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil
	}
	resp, err := engine.Cfg.HTTPClient.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil
	}
	bounds := img.Bounds()
	var r, g, b, count uint64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			pr, pg, pb, _ := img.At(x, y).RGBA()
			r += uint64(pr >> 8)
			g += uint64(pg >> 8)
			b += uint64(pb >> 8)
			count++
		}
	}
	if count == 0 {
		return nil
	}
	hex := fmt.Sprintf("#%02x%02x%02x", uint8(r/count), uint8(g/count), uint8(b/count))
	return &hex
}
