package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the gateway.
var metrics struct {
	DataAPIRequests    atomic.Int64
	DataAPIKeyFailures atomic.Int64
	InnertubeRequests  atomic.Int64
	HTMLFetches        atomic.Int64
	ThumbnailRequests  atomic.Int64
	ChannelIconLookups atomic.Int64
	YtdlpInvocations   atomic.Int64
	FfmpegConversions  atomic.Int64
	KeyChecks          atomic.Int64
	TokenRefreshes     atomic.Int64
	ProxiedBytes       atomic.Int64
}

func IncrDataAPI()         { metrics.DataAPIRequests.Add(1) }
func IncrDataAPIFailure()  { metrics.DataAPIKeyFailures.Add(1) }
func IncrInnertube()       { metrics.InnertubeRequests.Add(1) }
func IncrHTMLFetch()       { metrics.HTMLFetches.Add(1) }
func IncrThumbnail()       { metrics.ThumbnailRequests.Add(1) }
func IncrChannelIcon()     { metrics.ChannelIconLookups.Add(1) }
func IncrYtdlp()           { metrics.YtdlpInvocations.Add(1) }
func IncrFfmpeg()          { metrics.FfmpegConversions.Add(1) }
func IncrKeyCheck()        { metrics.KeyChecks.Add(1) }
func IncrTokenRefresh()    { metrics.TokenRefreshes.Add(1) }
func AddProxiedBytes(n int64) { metrics.ProxiedBytes.Add(n) }

// GetMetrics returns a snapshot of all counters including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"data_api_requests":     metrics.DataAPIRequests.Load(),
		"data_api_key_failures": metrics.DataAPIKeyFailures.Load(),
		"innertube_requests":    metrics.InnertubeRequests.Load(),
		"html_fetches":          metrics.HTMLFetches.Load(),
		"thumbnail_requests":    metrics.ThumbnailRequests.Load(),
		"channel_icon_lookups":  metrics.ChannelIconLookups.Load(),
		"ytdlp_invocations":     metrics.YtdlpInvocations.Load(),
		"ffmpeg_conversions":    metrics.FfmpegConversions.Load(),
		"key_checks":            metrics.KeyChecks.Load(),
		"token_refreshes":       metrics.TokenRefreshes.Load(),
		"proxied_bytes":         metrics.ProxiedBytes.Load(),
		"cache_hits":            hits,
		"cache_misses":          misses,
	}
}

// FormatMetrics returns counters as simple text for the /metrics endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	keys := []string{
		"data_api_requests", "data_api_key_failures",
		"innertube_requests", "html_fetches",
		"thumbnail_requests", "channel_icon_lookups",
		"ytdlp_invocations", "ffmpeg_conversions",
		"key_checks", "token_refreshes", "proxied_bytes",
		"cache_hits", "cache_misses",
	}
	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}
