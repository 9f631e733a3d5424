// ytapi — YouTube compatibility gateway for legacy clients.
//
// Re-exposes the modern YouTube surface (Data API v3, InnerTube, HLS) through
// the flat REST endpoints that old smart TVs, consoles, and phone apps still
// call. Runs as a single HTTP server around internal/engine.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/legacyprojects/ytapi/internal/apiserver"
	"github.com/legacyprojects/ytapi/internal/engine"
	"github.com/legacyprojects/ytapi/internal/engine/auth"
	"github.com/legacyprojects/ytapi/internal/engine/media"
)

var (
	configPath = env.Str("CONFIG_PATH", "config.yml")
	assetsDir  = env.Str("ASSETS_DIR", "assets")
	cookiesDir = env.Str("COOKIES_DIR", "cookies")
	tempDir    = env.Str("TEMP_DIR", "")
	redisURL   = env.Str("REDIS_URL", "")
	cacheTTL   = env.Duration("CACHE_TTL", time.Hour)
	cacheSize  = env.Int("CACHE_MAX_ENTRIES", 1000)
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	if err := engine.EnsureConfig(configPath); err != nil {
		return fmt.Errorf("ensure config: %w", err)
	}
	appCfg, err := engine.LoadAppConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	initEngine()

	engine.InitCache(redisURL, cacheTTL, cacheSize)

	if err := engine.EnsureYtdlp(ctx); err != nil {
		slog.Warn("yt-dlp unavailable, stream resolution degraded", slog.Any("error", err))
	}

	sessions, err := auth.OpenSessionStore(filepath.Join(assetsDir, "sessions.db"))
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	defer sessions.Close()

	media.StartCleanupLoop(ctx)

	addr := fmt.Sprintf(":%d", appCfg.Server.Port)
	slog.Info("starting ytapi",
		slog.String("addr", addr),
		slog.String("config", configPath),
		slog.Int("api_keys", len(appCfg.API.Keys.Active)),
	)

	srv := &http.Server{
		Addr:              addr,
		Handler:           apiserver.New(sessions).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Long ffmpeg merges and proxied streams need generous write room.
		WriteTimeout: 30 * time.Minute,
	}
	return srv.ListenAndServe()
}

func initEngine() {
	c := engine.Config{
		ConfigPath: configPath,
		AssetsDir:  assetsDir,
		CookiesDir: cookiesDir,
		TempDir:    tempDir,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}

	bc, err := stealth.NewClient(stealth.WithTimeout(15))
	if err != nil {
		slog.Warn("stealth client init failed, scraping with plain http", slog.Any("error", err))
	} else {
		c.BrowserClient = bc
	}

	engine.Init(c)
}
