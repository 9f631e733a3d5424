package media

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/legacyprojects/ytapi/internal/engine"
)

// TempDir returns the scratch directory for converted and merged files.
func TempDir() string {
	if engine.Cfg.TempDir != "" {
		return engine.Cfg.TempDir
	}
	return os.TempDir()
}

const hlsCacheDirName = "yt_api_hls_cache"

// HLSCachePath returns the cache file for a merged rendition of a video at
// a given height, creating the cache directory on first use.
func HLSCachePath(videoID string, height int) string {
	dir := filepath.Join(TempDir(), hlsCacheDirName)
	os.MkdirAll(dir, 0o755)
	return filepath.Join(dir, fmt.Sprintf("%s_%d.mp4", videoID, height))
}

var byteRangeRE = regexp.MustCompile(`bytes=(\d+)-(\d*)`)

func durationHeaders(h http.Header, seconds int64) {
	if seconds <= 0 {
		return
	}
	s := strconv.FormatInt(seconds, 10)
	h.Set("X-Content-Duration", s)
	h.Set("Content-Duration", s)
	h.Set("X-Video-Duration", s)
	h.Set("X-Duration-Seconds", s)
}

// ServeCachedMP4 serves a merged mp4 from disk with single-range support.
// Legacy players probe duration through the X-Content-Duration family of
// headers, so those are set whenever the duration is known.
func ServeCachedMP4(w http.ResponseWriter, r *http.Request, path string, durationSeconds int64) {
	info, err := os.Stat(path)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	size := info.Size()

	h := w.Header()
	h.Set("Content-Type", "video/mp4")
	h.Set("Accept-Ranges", "bytes")
	durationHeaders(h, durationSeconds)

	if r.Method == http.MethodHead {
		h.Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		return
	}

	start, end := int64(0), size-1
	status := http.StatusOK
	if m := byteRangeRE.FindStringSubmatch(r.Header.Get("Range")); m != nil {
		if s, err := strconv.ParseInt(m[1], 10, 64); err == nil && s < size {
			start = s
		}
		if m[2] != "" {
			if e, err := strconv.ParseInt(m[2], 10, 64); err == nil && e < size {
				end = e
			}
		}
		status = http.StatusPartialContent
		h.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	}

	f, err := os.Open(path)
	if err != nil {
		http.Error(w, "cache read failed", http.StatusInternalServerError)
		return
	}
	defer f.Close()
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		http.Error(w, "cache seek failed", http.StatusInternalServerError)
		return
	}

	length := end - start + 1
	h.Set("Content-Length", strconv.FormatInt(length, 10))
	w.WriteHeader(status)
	n, _ := io.CopyN(w, f, length)
	engine.AddProxiedBytes(n)
}
