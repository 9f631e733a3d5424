// Package media resolves playable stream URLs and serves derived media:
// yt-dlp lookups, HLS manifest selection, ffmpeg merges and conversions,
// thumbnail and channel icon proxying.
package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/legacyprojects/ytapi/internal/engine"
)

// watchBase is a package var so tests can point yt-dlp at a fake page.
var watchBase = "https://www.youtube.com/watch?v="

// CookiePaths lists cookie files to try before the cookieless attempt:
// every *.txt under the cookies dir, then the legacy locations.
func CookiePaths() []string {
	dir := engine.Cfg.CookiesDir
	if dir == "" {
		dir = "cookies"
	}
	var paths []string
	entries, err := os.ReadDir(dir)
	if err == nil {
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".txt") {
				paths = append(paths, filepath.Join(dir, e.Name()))
			}
		}
	}
	for _, legacy := range []string{engine.AssetPath("cookies.txt"), "cookies.txt"} {
		if _, err := os.Stat(legacy); err == nil {
			paths = append(paths, legacy)
		}
	}
	return paths
}

// cookieAttempts returns the cookie files to try plus a final "" entry for
// the cookieless attempt. Cookies are skipped entirely when disabled.
func cookieAttempts() []string {
	var attempts []string
	if engine.App().Video.UseCookies {
		attempts = CookiePaths()
		if len(attempts) == 0 {
			slog.Info("cookies enabled; found 0 files")
		} else {
			slog.Info("cookies enabled", slog.Int("files", len(attempts)))
		}
	}
	return append(attempts, "")
}

func runYtdlp(ctx context.Context, args []string, cookiePath string) ([]byte, error) {
	engine.IncrYtdlp()
	if cookiePath != "" {
		args = append(args, "--cookies", cookiePath)
	}
	cmd := exec.CommandContext(ctx, engine.YtdlpPath(), args...)
	out, err := cmd.Output()
	if err != nil {
		var stderr string
		if ee, ok := err.(*exec.ExitError); ok {
			stderr = strings.TrimSpace(string(ee.Stderr))
		}
		if cookiePath != "" {
			return nil, fmt.Errorf("yt-dlp with cookies %s: %w: %s", cookiePath, err, stderr)
		}
		return nil, fmt.Errorf("yt-dlp: %w: %s", err, stderr)
	}
	return out, nil
}

func firstLine(out []byte) string {
	for _, line := range strings.Split(string(out), "\n") {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}

// ResolveStreamURL asks yt-dlp for a single muxed stream URL. quality ""
// means the configured default; audioOnly selects bestaudio instead.
func ResolveStreamURL(ctx context.Context, videoID, quality string, audioOnly bool) (string, error) {
	if quality == "" {
		quality = engine.App().Video.DefaultQuality
	}
	selector := fmt.Sprintf("best[height<=%s][ext=mp4]/best[ext=mp4]/best", quality)
	if audioOnly {
		selector = "bestaudio/best"
	}

	pageURL := watchBase + videoID
	var lastErr error
	for _, cookie := range cookieAttempts() {
		out, err := runYtdlp(ctx, []string{"-f", selector, "--get-url", pageURL}, cookie)
		if err != nil {
			slog.Info("yt-dlp attempt failed", slog.String("video_id", videoID), slog.Any("error", err))
			lastErr = err
			continue
		}
		if url := firstLine(out); url != "" {
			return url, nil
		}
		lastErr = fmt.Errorf("yt-dlp returned empty output")
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("yt-dlp failed for all attempts")
	}
	return "", fmt.Errorf("resolve stream url for %s: %w", videoID, lastErr)
}

// ResolveSplitURLs picks the best video-only format at exactly height (or
// the best one below it) and the best audio-only format, preferring English
// tracks, and resolves both to direct URLs.
func ResolveSplitURLs(ctx context.Context, videoID string, height int) (videoURL, audioURL string, err error) {
	pageURL := watchBase + videoID
	var lastErr error
	for _, cookie := range cookieAttempts() {
		out, err := runYtdlp(ctx, []string{"--dump-json", pageURL}, cookie)
		if err != nil {
			lastErr = err
			continue
		}
		info, err := engine.ParseNode(out)
		if err != nil {
			lastErr = fmt.Errorf("yt-dlp dump-json: %w", err)
			continue
		}
		videoFID, audioFID, ok := pickSplitFormats(info, height)
		if !ok {
			lastErr = fmt.Errorf("no split formats for height %d", height)
			continue
		}

		vOut, err := runYtdlp(ctx, []string{"-f", videoFID, "--get-url", pageURL}, cookie)
		if err != nil {
			lastErr = err
			continue
		}
		aOut, err := runYtdlp(ctx, []string{"-f", audioFID, "--get-url", pageURL}, cookie)
		if err != nil {
			lastErr = err
			continue
		}
		v, a := firstLine(vOut), firstLine(aOut)
		if v == "" || a == "" {
			lastErr = fmt.Errorf("yt-dlp returned empty stream url")
			continue
		}
		return v, a, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no cookie attempt succeeded")
	}
	return "", "", fmt.Errorf("resolve split urls for %s: %w", videoID, lastErr)
}

// pickSplitFormats scans a yt-dlp --dump-json formats list for the best
// https video-only format at or below height and the best audio-only track.
func pickSplitFormats(info engine.Node, height int) (videoFID, audioFID string, ok bool) {
	var (
		bestExactTBR    float64
		bestBelowHeight int
		bestBelowTBR    float64
		fallbackFID     string
		bestAudioTBR    float64
		bestAudioIsEn   bool
	)
	for _, f := range info.Get("formats").Arr() {
		if !strings.HasPrefix(f.Get("protocol").Str(), "https") {
			continue
		}
		vcodec := f.Get("vcodec").StrOr("none")
		acodec := f.Get("acodec").StrOr("none")
		fid := f.Get("format_id").Str()
		if fid == "" {
			continue
		}
		tbr := f.Get("tbr").Float()

		if vcodec != "none" && acodec == "none" {
			h := int(f.Get("height").Int64())
			switch {
			case h == height:
				if videoFID == "" || tbr > bestExactTBR {
					videoFID, bestExactTBR = fid, tbr
				}
			case h > 0 && h < height:
				if h > bestBelowHeight || (h == bestBelowHeight && tbr > bestBelowTBR) {
					fallbackFID, bestBelowHeight, bestBelowTBR = fid, h, tbr
				}
			}
		}
		if vcodec == "none" && acodec != "none" {
			isEn := strings.Contains(f.Get("format").Str(), "[en]")
			replace := audioFID == "" ||
				(isEn && !bestAudioIsEn) ||
				(isEn == bestAudioIsEn && tbr > bestAudioTBR)
			if replace {
				audioFID, bestAudioTBR, bestAudioIsEn = fid, tbr, isEn
			}
		}
	}
	if videoFID == "" {
		videoFID = fallbackFID
	}
	return videoFID, audioFID, videoFID != "" && audioFID != ""
}
