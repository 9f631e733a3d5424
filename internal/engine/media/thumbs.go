package media

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/legacyprojects/ytapi/internal/engine"
	"github.com/legacyprojects/ytapi/internal/engine/innertube"
)

var (
	thumbBase       = "https://i.ytimg.com/vi"
	channelPageBase = "https://www.youtube.com"
)

const maxImageBytes = 8 * 1024 * 1024

var thumbnailFiles = map[string]string{
	"default":  "default.jpg",
	"medium":   "mqdefault.jpg",
	"high":     "hqdefault.jpg",
	"standard": "sddefault.jpg",
	"maxres":   "maxresdefault.jpg",
}

// ThumbnailFile maps a quality name to the i.ytimg filename, defaulting to
// medium.
func ThumbnailFile(quality string) string {
	if f, ok := thumbnailFiles[quality]; ok {
		return f
	}
	return "mqdefault.jpg"
}

func fetchImage(ctx context.Context, imageURL string) ([]byte, string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", 0, err
	}
	req.Header.Set("User-Agent", engine.UserAgentChrome)
	resp, err := engine.Cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, "", 0, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", resp.StatusCode, fmt.Errorf("fetch image: HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", resp.StatusCode, fmt.Errorf("read image: %w", err)
	}
	ct := resp.Header.Get("Content-Type")
	if ct == "" {
		ct = "image/jpeg"
	}
	return data, ct, resp.StatusCode, nil
}

// Thumbnail fetches a video thumbnail from i.ytimg, falling back to the
// medium size when the requested quality does not exist. Results go through
// the byte cache.
func Thumbnail(ctx context.Context, videoID, quality string) ([]byte, string, error) {
	engine.IncrThumbnail()
	file := ThumbnailFile(quality)
	cacheKey := videoID + "_" + file
	if data, ok := engine.CacheGetBytes(ctx, cacheKey); ok {
		return data, "image/jpeg", nil
	}

	data, ct, status, err := fetchImage(ctx, thumbBase+"/"+videoID+"/"+file)
	if err != nil {
		if status != http.StatusNotFound || file == "mqdefault.jpg" {
			return nil, "", err
		}
		data, ct, _, err = fetchImage(ctx, thumbBase+"/"+videoID+"/mqdefault.jpg")
		if err != nil {
			return nil, "", err
		}
	}
	engine.CacheSetBytes(ctx, cacheKey, data)
	return data, ct, nil
}

// ProxyImage fetches an avatar or thumbnail image for re-serving to clients.
// Oversized s900 avatar variants are shrunk to s88 before fetching.
func ProxyImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	data, ct, _, err := fetchImage(ctx, strings.Replace(imageURL, "s900", "s88", 1))
	return data, ct, err
}

var handleChannelIDRE = regexp.MustCompile(`"channelId":"(UC[0-9A-Za-z_-]{20,})"`)
var channelURLRE = regexp.MustCompile(`/channel/(UC[0-9A-Za-z_-]{20,})`)

// canonicalChannelID tokenizes the page head looking for a canonical link or
// og:url pointing at a /channel/UC... URL.
func canonicalChannelID(page []byte) string {
	tk := html.NewTokenizer(bytes.NewReader(page))
	for {
		switch tk.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := tk.Token()
			if tok.Data != "link" && tok.Data != "meta" {
				continue
			}
			var rel, prop, target string
			for _, a := range tok.Attr {
				switch a.Key {
				case "rel":
					rel = a.Val
				case "property":
					prop = a.Val
				case "href", "content":
					target = a.Val
				}
			}
			if rel != "canonical" && prop != "og:url" {
				continue
			}
			if m := channelURLRE.FindStringSubmatch(target); m != nil {
				return m[1]
			}
		}
	}
}

func channelIDFromHandle(ctx context.Context, handle string) (string, error) {
	page, err := engine.FetchHTML(ctx, channelPageBase+"/@"+handle, nil)
	if err != nil {
		return "", err
	}
	if m := handleChannelIDRE.FindSubmatch(page); m != nil {
		return string(m[1]), nil
	}
	if id := canonicalChannelID(page); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("no channel id on page for @%s", handle)
}

// ChannelIcon resolves a channel avatar from whatever the caller passed: a
// direct image URL, a UC channel id, an @handle, or a video id. Returns
// the image bytes and content type.
func ChannelIcon(ctx context.Context, input string) ([]byte, string, error) {
	engine.IncrChannelIcon()

	decoded, err := url.QueryUnescape(input)
	if err != nil {
		decoded = input
	}
	if strings.HasPrefix(decoded, "http://") || strings.HasPrefix(decoded, "https://") {
		if data, ok := engine.CacheGetBytes(ctx, "icon_"+decoded); ok {
			return data, "image/jpeg", nil
		}
		data, ct, err := ProxyImage(ctx, decoded)
		if err != nil {
			return nil, "", err
		}
		engine.CacheSetBytes(ctx, "icon_"+decoded, data)
		return data, ct, nil
	}

	var channelID string
	switch {
	case len(input) == 24 && strings.HasPrefix(input, "UC"):
		channelID = input
	case strings.HasPrefix(input, "@"):
		channelID, err = channelIDFromHandle(ctx, input[1:])
	default:
		channelID, err = innertube.ChannelIDFromVideo(ctx, input)
	}
	if err != nil {
		return nil, "", fmt.Errorf("determine channel id for %q: %w", input, err)
	}

	if data, ok := engine.CacheGetBytes(ctx, "icon_"+channelID); ok {
		return data, "image/jpeg", nil
	}
	avatarURL, err := innertube.ChannelAvatarURL(ctx, channelID)
	if err != nil {
		return nil, "", err
	}
	data, ct, err := ProxyImage(ctx, avatarURL)
	if err != nil {
		return nil, "", err
	}
	engine.CacheSetBytes(ctx, "icon_"+channelID, data)
	return data, ct, nil
}
