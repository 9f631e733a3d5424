package apiserver

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/legacyprojects/ytapi/internal/engine"
	"github.com/legacyprojects/ytapi/internal/engine/innertube"
	"github.com/legacyprojects/ytapi/internal/engine/media"
)

const hlsManifestMessage = "HLS Master Manifest URL - use this for streams without quality selection"

func (s *Server) handleVideoInfo(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("video_id")
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "ID видео не был передан.")
		return
	}

	info, err := innertube.VideoInfo(r.Context(), baseURL(r), videoID)
	if err != nil {
		slog.Error("video info fetch failed", slog.String("video", videoID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch video info")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleRelatedVideos(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("video_id")
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "ID видео не был передан.")
		return
	}

	quality := r.URL.Query().Get("quality")
	if quality == "" {
		quality = engine.App().Video.DefaultQuality
	}
	limit := intParam(r, "limit", defaultCount(r))
	if limit < 20 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := intParam(r, "offset", 0)

	videos, err := innertube.RelatedVideos(r.Context(), baseURL(r), videoID, quality, limit, offset)
	if err != nil {
		slog.Error("related videos fetch failed", slog.String("video", videoID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch related videos")
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (s *Server) handleDirectVideoURL(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("video_id")
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "ID параметр обязателен")
		return
	}

	url, err := media.ResolveStreamURL(r.Context(), videoID, r.URL.Query().Get("quality"), false)
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to resolve direct url", err)
		return
	}
	writeJSON(w, http.StatusOK, engine.DirectURLResponse{VideoURL: url})
}

func (s *Server) handleHLSManifestURL(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("video_id")
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "video_id parameter is required")
		return
	}

	manifestURL, err := media.ManifestURL(r.Context(), videoID)
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to get HLS manifest URL", err)
		return
	}
	msg := hlsManifestMessage
	writeJSON(w, http.StatusOK, engine.HLSManifestURLResponse{
		HLSManifestURL: manifestURL,
		VideoID:        videoID,
		Message:        &msg,
	})
}

// handleDirectURL is the main playback endpoint. Depending on parameters it
// serves an ffmpeg-converted legacy codec, a quality-selected HLS merge, a
// proxied progressive stream, or a bare 302 to the upstream URL.
func (s *Server) handleDirectURL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	videoID := q.Get("video_id")
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "video_id parameter is required")
		return
	}

	if codec := q.Get("codec"); codec != "" {
		s.serveConverted(w, r, videoID, codec)
		return
	}

	if q.Get("hls") == "true" {
		manifestURL, err := media.ManifestURL(r.Context(), videoID)
		if err != nil {
			writeErrorDetails(w, http.StatusInternalServerError, "Failed to get HLS manifest URL", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"hls_manifest_url": manifestURL,
			"video_id":         videoID,
			"message":          hlsManifestMessage,
		})
		return
	}

	quality := q.Get("quality")
	useProxy := strings.ToLower(q.Get("proxy")) != "false"

	if height, ok := media.ParseQualityHeight(quality); ok {
		if s.serveQualityHLS(w, r, videoID, height) {
			return
		}
	}

	var directURL string
	if quality == "" {
		if player, err := innertube.PlayerResponse(r.Context(), videoID); err == nil {
			if u, ok := media.DirectStreamFromPlayer(player); ok {
				directURL = u
			}
		}
	}
	if directURL == "" {
		u, err := media.ResolveStreamURL(r.Context(), videoID, quality, false)
		if err != nil {
			writeErrorDetails(w, http.StatusInternalServerError, "Failed to resolve video url", err)
			return
		}
		directURL = u
	}

	switch {
	case r.Method == http.MethodHead:
		headUpstream(w, r, directURL, "video/mp4")
	case !useProxy:
		http.Redirect(w, r, directURL, http.StatusFound)
	default:
		proxyStream(w, r, directURL, "video/mp4")
	}
}

// serveConverted resolves a 360p progressive stream and transcodes it for
// devices stuck on mpeg4 or h263 decoders.
func (s *Server) serveConverted(w http.ResponseWriter, r *http.Request, videoID, codec string) {
	if codec != "mpeg4" && codec != "h263" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":            "Unsupported codec",
			"details":          "Codec '" + codec + "' is not supported. Available: mpeg4, h263",
			"supported_codecs": []string{"mpeg4", "h263"},
		})
		return
	}

	srcURL, err := media.ResolveStreamURL(r.Context(), videoID, "360", false)
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to resolve video url for conversion", err)
		return
	}

	path, err := media.ConvertToTemp(r.Context(), srcURL, engine.App().InnertubeUserAgent(), codec)
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "FFmpeg conversion failed", err)
		return
	}

	ct := "video/mp4"
	if codec == "h263" {
		ct = "video/3gpp"
	}
	w.Header().Set("Content-Type", ct)
	http.ServeFile(w, r, path)
}

// serveQualityHLS merges the HLS variant matching the requested height into
// a cached mp4 and serves it with Range support. When the master manifest has
// no usable variant it falls back to yt-dlp split streams piped through
// ffmpeg. Returns false when the caller should fall through to progressive
// resolution instead.
func (s *Server) serveQualityHLS(w http.ResponseWriter, r *http.Request, videoID string, height int) bool {
	ua := engine.App().InnertubeUserAgent()

	player, err := innertube.PlayerResponse(r.Context(), videoID)
	if err == nil {
		if masterURL, duration, merr := media.ManifestURLAndDuration(player); merr == nil {
			if body, ferr := media.FetchMasterBody(r.Context(), masterURL, ua); ferr == nil {
				groups := media.ParseAudioGroups(body, masterURL)
				variants := media.ParseMasterVariants(body, masterURL, groups)
				if v, ok := media.PickVariant(variants, height); ok {
					cachePath := media.HLSCachePath(videoID, height)
					if _, serr := os.Stat(cachePath); serr != nil {
						if err := media.MergeHLSToFile(r.Context(), v.VideoURL, v.AudioURL, cachePath, ua); err != nil {
							writeErrorDetails(w, http.StatusInternalServerError, "FFmpeg HLS merge failed", err)
							return true
						}
					}
					media.ServeCachedMP4(w, r, cachePath, duration)
					return true
				}
			}
		}
	}

	videoURL, audioURL, err := media.ResolveSplitURLs(r.Context(), videoID, height)
	if err != nil {
		return false
	}
	w.Header().Set("Content-Type", "video/mp4")
	if r.Method == http.MethodHead {
		return true
	}
	if err := media.StreamMerged(r.Context(), w, videoURL, audioURL, ua); err != nil {
		slog.Warn("split stream merge failed", slog.String("video", videoID), slog.Any("error", err))
	}
	return true
}

func (s *Server) handleDirectAudioURL(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("video_id")
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "ID параметр обязателен")
		return
	}
	useProxy := strings.ToLower(r.URL.Query().Get("proxy")) != "false"

	directURL, err := media.ResolveStreamURL(r.Context(), videoID, "", true)
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to resolve audio url", err)
		return
	}

	switch {
	case r.Method == http.MethodHead:
		headUpstream(w, r, directURL, "audio/m4a")
	case !useProxy:
		http.Redirect(w, r, directURL, http.StatusFound)
	default:
		proxyStream(w, r, directURL, "audio/m4a")
	}
}

func (s *Server) handleVideoProxy(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Query().Get("url")
	if target == "" {
		writeError(w, http.StatusBadRequest, "Missing url parameter")
		return
	}

	if r.Method == http.MethodHead {
		headUpstream(w, r, target, "application/octet-stream")
		return
	}
	proxyStream(w, r, target, "application/octet-stream")
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("video_id")
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "ID параметр обязателен")
		return
	}

	directURL, err := media.ResolveStreamURL(r.Context(), videoID, r.URL.Query().Get("quality"), false)
	if err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to resolve video url", err)
		return
	}

	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+videoID+`.mp4"`)
	http.Redirect(w, r, directURL, http.StatusFound)
}

func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("video_id")
	quality := r.URL.Query().Get("quality")
	if quality == "" {
		quality = "medium"
	}

	data, ct, err := media.Thumbnail(r.Context(), videoID, quality)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to fetch thumbnail")
		return
	}
	w.Header().Set("Content-Type", ct)
	w.Write(data)
}

func (s *Server) handleChannelIcon(w http.ResponseWriter, r *http.Request) {
	data, ct, err := media.ChannelIcon(r.Context(), r.PathValue("input"))
	if err != nil {
		writeError(w, http.StatusNotFound, "Channel icon not found")
		return
	}
	w.Header().Set("Content-Type", ct)
	w.Write(data)
}

// headUpstream relays a HEAD to the upstream URL and mirrors its length and
// range headers. Upstream failures still answer 200: old players treat a
// failed HEAD as a fatal error but cope fine with a missing length.
func headUpstream(w http.ResponseWriter, r *http.Request, target, contentType string) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodHead, target, nil)
	if err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	req.Header.Set("User-Agent", engine.UserAgentChrome)

	resp, err := engine.Cfg.HTTPClient.Do(req)
	if err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}
	defer resp.Body.Close()

	if v := resp.Header.Get("Content-Length"); v != "" {
		w.Header().Set("Content-Length", v)
	}
	if v := resp.Header.Get("Content-Range"); v != "" {
		w.Header().Set("Content-Range", v)
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(resp.StatusCode)
}

// proxyStream pipes the upstream body through this instance, forwarding the
// client's Range header and stripping hop-by-hop response headers.
func proxyStream(w http.ResponseWriter, r *http.Request, target, defaultContentType string) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target, nil)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to proxy request")
		return
	}
	req.Header.Set("User-Agent", engine.UserAgentChrome)
	if rng := r.Header.Get("Range"); rng != "" {
		req.Header.Set("Range", rng)
	}

	resp, err := engine.Cfg.HTTPClient.Do(req)
	if err != nil {
		writeError(w, http.StatusBadGateway, "Failed to proxy request")
		return
	}
	defer resp.Body.Close()

	for key, values := range resp.Header {
		switch strings.ToLower(key) {
		case "connection", "transfer-encoding":
			continue
		}
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	if resp.Header.Get("Content-Type") == "" {
		w.Header().Set("Content-Type", defaultContentType)
	}
	w.WriteHeader(resp.StatusCode)

	n, _ := io.Copy(w, resp.Body)
	engine.AddProxiedBytes(n)
}
