package media

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"
)

const (
	cleanupInterval = 15 * time.Minute
	convertedMaxAge = time.Hour
	hlsCacheMaxAge  = 24 * time.Hour
)

var cleanupStarted atomic.Bool

// CleanTempFiles removes stale conversion output (yt_api_video_*) older
// than an hour and merged HLS cache files older than a day.
func CleanTempFiles() {
	now := time.Now()
	dir := TempDir()

	entries, err := os.ReadDir(dir)
	if err == nil {
		for _, e := range entries {
			name := e.Name()
			if e.IsDir() || !strings.HasPrefix(name, "yt_api_video_") {
				continue
			}
			if !strings.HasSuffix(name, ".mp4") && !strings.HasSuffix(name, ".3gp") {
				continue
			}
			info, err := e.Info()
			if err != nil {
				continue
			}
			if now.Sub(info.ModTime()) > convertedMaxAge {
				path := filepath.Join(dir, name)
				if os.Remove(path) == nil {
					slog.Debug("cleanup: removed stale conversion", slog.String("path", path))
				}
			}
		}
	}

	cacheDir := filepath.Join(dir, hlsCacheDirName)
	entries, err = os.ReadDir(cacheDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) > hlsCacheMaxAge {
			path := filepath.Join(cacheDir, e.Name())
			if os.Remove(path) == nil {
				slog.Debug("cleanup: removed stale hls cache", slog.String("path", path))
			}
		}
	}
}

// StartCleanupLoop sweeps temp files every 15 minutes until ctx is
// cancelled. Safe to call more than once; only the first call starts the
// loop.
func StartCleanupLoop(ctx context.Context) {
	if !cleanupStarted.CompareAndSwap(false, true) {
		return
	}
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				CleanTempFiles()
			}
		}
	}()
}
