package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

const defaultConfigYAML = `server:
  port: 2823
  main_url: ""
  secret_key: ""

api:
  request_timeout: 30
  keys:
    active: []
    disabled: []
  innertube:
    key: ""
  oauth:
    client_id: ""
    client_secret: ""
    redirect_uri: null

video:
  source: "direct"
  use_cookies: true
  default_quality: "360"
  available_qualities:
    - "144"
    - "240"
    - "360"
    - "480"
    - "720"
    - "1080"
    - "1440"
    - "2160"
  default_count: 50

proxy:
  thumbnails:
    video: true
    channel: false
    fetch_channel_thumbnails: false
  video_proxy: true

cache:
  temp_folder_max_size_mb: 5120
  cleanup_threshold_mb: 100

instances:
  - "https://yt.legacyprojects.ru"
  - "https://yt.modyleprojects.ru"
  - "https://ytcloud.meetlook.ru"
`

// EnsureConfig writes the default config.yml when none exists.
func EnsureConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	slog.Warn("config.yml not found, generating default config", slog.String("path", path))
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("create default config: %w", err)
	}
	return nil
}

const ytdlpReleaseBase = "https://github.com/yt-dlp/yt-dlp/releases/latest/download/"

// YtdlpPath returns the yt-dlp binary to invoke: the system binary when on
// PATH, otherwise the copy under assets/.
func YtdlpPath() string {
	if _, err := exec.LookPath("yt-dlp"); err == nil {
		return "yt-dlp"
	}
	return AssetPath("yt-dlp")
}

// EnsureYtdlp checks that yt-dlp is available and downloads the latest
// release binary into assets/ when it is not.
func EnsureYtdlp(ctx context.Context) error {
	if _, err := exec.LookPath("yt-dlp"); err == nil {
		slog.Info("yt-dlp found on PATH")
		return nil
	}
	local := AssetPath("yt-dlp")
	if _, err := os.Stat(local); err == nil {
		slog.Info("yt-dlp found", slog.String("path", local))
		return nil
	}

	asset := "yt-dlp_linux"
	if runtime.GOOS == "darwin" {
		asset = "yt-dlp_macos"
	}
	slog.Info("downloading yt-dlp", slog.String("asset", asset))

	if err := os.MkdirAll(filepath.Dir(local), 0o755); err != nil {
		return fmt.Errorf("create assets dir: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ytdlpReleaseBase+asset, nil)
	if err != nil {
		return err
	}
	resp, err := cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("download yt-dlp: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download yt-dlp: status %d", resp.StatusCode)
	}

	f, err := os.OpenFile(local, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("create yt-dlp binary: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("write yt-dlp binary: %w", err)
	}
	slog.Info("yt-dlp downloaded", slog.String("path", local))
	return nil
}
