package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/legacyprojects/ytapi/internal/engine"
	"github.com/legacyprojects/ytapi/internal/engine/innertube"
)

const maxManifestBytes = 4 * 1024 * 1024

var qualityAliases = map[string]int{
	"tiny":   144,
	"small":  240,
	"medium": 360,
	"large":  480,
	"hd":     720,
	"hd720":  720,
	"hd1080": 1080,
}

// ParseQualityHeight maps a quality string ("360", "720p", "hd1080",
// "medium") to a pixel height.
func ParseQualityHeight(quality string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(quality))
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if digits != "" {
		if h, err := strconv.Atoi(digits); err == nil {
			return h, true
		}
	}
	h, ok := qualityAliases[s]
	return h, ok
}

// ManifestURL fetches the player response for a video and extracts its HLS
// master manifest URL.
func ManifestURL(ctx context.Context, videoID string) (string, error) {
	player, err := innertube.PlayerResponse(ctx, videoID)
	if err != nil {
		return "", err
	}
	url, _, err := ManifestURLAndDuration(player)
	return url, err
}

// ManifestURLAndDuration extracts the HLS master URL and an approximate
// duration in seconds (0 when unknown) from a player response.
func ManifestURLAndDuration(player engine.Node) (string, int64, error) {
	streaming := player.Get("streamingData")
	if !streaming.Exists() {
		return "", 0, fmt.Errorf("player response has no streamingData")
	}
	hls := streaming.Get("hlsManifestUrl").Str()
	if hls == "" {
		return "", 0, fmt.Errorf("no hlsManifestUrl (private, age or region restricted)")
	}

	var duration int64
	for _, key := range []string{"formats", "adaptiveFormats"} {
		if ms := streaming.Get(key, 0, "approxDurationMs").Int64(); ms > 0 {
			duration = (ms + 999) / 1000
			break
		}
	}
	if duration == 0 {
		duration = player.Get("videoDetails", "lengthSeconds").Int64()
	}
	return hls, duration, nil
}

// DirectStreamFromPlayer picks the highest-resolution direct URL from the
// player response formats, when one is exposed without signature ciphering.
func DirectStreamFromPlayer(player engine.Node) (string, bool) {
	streaming := player.Get("streamingData")
	bestHeight := -1
	bestURL := ""
	for _, key := range []string{"formats", "adaptiveFormats"} {
		for _, f := range streaming.Get(key).Arr() {
			url := f.Get("url").Str()
			if url == "" {
				continue
			}
			label := f.Get("qualityLabel").Str()
			height, _ := strconv.Atoi(strings.TrimSuffix(label, "p"))
			if key == "adaptiveFormats" && height == 0 {
				continue
			}
			if height > bestHeight {
				bestHeight, bestURL = height, url
			}
		}
	}
	return bestURL, bestURL != ""
}

// FetchMasterBody downloads an HLS master manifest.
func FetchMasterBody(ctx context.Context, masterURL, userAgent string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, masterURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	resp, err := engine.Cfg.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch master manifest: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("master manifest: HTTP %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxManifestBytes))
	if err != nil {
		return "", fmt.Errorf("read master manifest: %w", err)
	}
	return string(body), nil
}

// Variant is one video rendition of a master manifest, with the playlist of
// its audio group when the stream declares one.
type Variant struct {
	Height   int
	VideoURL string
	AudioURL string
}

var (
	hlsGroupRE = regexp.MustCompile(`GROUP-ID="([^"]+)"`)
	hlsURIRE   = regexp.MustCompile(`URI="([^"]+)"`)
	hlsResRE   = regexp.MustCompile(`RESOLUTION=(\d+)x(\d+)`)
	hlsAudioRE = regexp.MustCompile(`AUDIO="([^"]+)"`)
)

func resolveManifestRef(ref, masterURL string) string {
	if strings.HasPrefix(ref, "http") {
		return ref
	}
	base := masterURL
	if i := strings.LastIndexByte(base, '/'); i >= 0 {
		base = base[:i]
	}
	return base + "/" + ref
}

// ParseAudioGroups maps EXT-X-MEDIA audio GROUP-IDs to playlist URLs.
func ParseAudioGroups(masterBody, masterURL string) map[string]string {
	groups := make(map[string]string)
	for _, line := range strings.Split(masterBody, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "#EXT-X-MEDIA:") || !strings.Contains(line, "TYPE=AUDIO") {
			continue
		}
		gm := hlsGroupRE.FindStringSubmatch(line)
		um := hlsURIRE.FindStringSubmatch(line)
		if gm == nil || um == nil {
			continue
		}
		if _, seen := groups[gm[1]]; !seen {
			groups[gm[1]] = resolveManifestRef(um[1], masterURL)
		}
	}
	return groups
}

// ParseMasterVariants reads the EXT-X-STREAM-INF entries of a master
// manifest, resolving each variant's audio group through audioGroups.
func ParseMasterVariants(masterBody, masterURL string, audioGroups map[string]string) []Variant {
	var variants []Variant
	lines := strings.Split(masterBody, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "#EXT-X-STREAM-INF:") {
			continue
		}
		rm := hlsResRE.FindStringSubmatch(line)
		if rm == nil || i+1 >= len(lines) {
			continue
		}
		uri := strings.TrimSpace(lines[i+1])
		if uri == "" || strings.HasPrefix(uri, "#") {
			continue
		}
		height, _ := strconv.Atoi(rm[2])
		v := Variant{Height: height, VideoURL: resolveManifestRef(uri, masterURL)}
		if am := hlsAudioRE.FindStringSubmatch(line); am != nil {
			v.AudioURL = audioGroups[am[1]]
		}
		variants = append(variants, v)
		i++
	}
	return variants
}

// PickVariant selects the variant matching height exactly, else the tallest
// one below it.
func PickVariant(variants []Variant, height int) (Variant, bool) {
	for _, v := range variants {
		if v.Height == height {
			return v, true
		}
	}
	var best Variant
	found := false
	for _, v := range variants {
		if v.Height <= height && (!found || v.Height > best.Height) {
			best, found = v, true
		}
	}
	return best, found
}
