package apiserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/legacyprojects/ytapi/internal/engine"
	"github.com/legacyprojects/ytapi/internal/engine/dataapi"
)

func (s *Server) handleAuthorVideos(w http.ResponseWriter, r *http.Request) {
	author := r.URL.Query().Get("author")
	if author == "" {
		writeError(w, http.StatusBadRequest, "Author parameter is required")
		return
	}

	channelID, err := dataapi.FindChannelID(r.Context(), author)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Channel not found")
		return
	}
	s.serveChannelVideos(w, r, channelID)
}

func (s *Server) handleAuthorVideosByID(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channel_id")
	if channelID == "" {
		writeError(w, http.StatusBadRequest, "Channel ID parameter is required")
		return
	}
	s.serveChannelVideos(w, r, channelID)
}

func (s *Server) serveChannelVideos(w http.ResponseWriter, r *http.Request, channelID string) {
	resp, err := dataapi.ChannelVideos(r.Context(), baseURL(r), channelID, defaultCount(r))
	if err != nil {
		slog.Error("channel videos fetch failed", slog.String("channel", channelID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch channel videos")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleChannelThumbnail(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("video_id")
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "ID параметр обязателен")
		return
	}

	if engine.App().APIKey() == "" {
		writeJSON(w, http.StatusOK, map[string]string{"channel_thumbnail": ""})
		return
	}

	channelID, err := dataapi.VideoChannelID(r.Context(), videoID)
	if err != nil {
		if errors.Is(err, dataapi.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Видео не найдено")
			return
		}
		slog.Error("channel id lookup failed", slog.String("video", videoID), slog.Any("error", err))
		writeError(w, http.StatusBadRequest, "Видео не найдено")
		return
	}

	thumb, err := dataapi.ChannelThumbnailURL(r.Context(), channelID)
	if err != nil {
		thumb = ""
	}
	writeJSON(w, http.StatusOK, map[string]string{"channel_thumbnail": thumb})
}
