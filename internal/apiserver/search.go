package apiserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/legacyprojects/ytapi/internal/engine"
	"github.com/legacyprojects/ytapi/internal/engine/dataapi"
	"github.com/legacyprojects/ytapi/internal/engine/innertube"
)

func (s *Server) handleTopVideos(w http.ResponseWriter, r *http.Request) {
	count := defaultCount(r)
	if count < 1 {
		count = 1
	}
	if count > 50 {
		count = 50
	}

	videos, err := dataapi.TopVideos(r.Context(), baseURL(r), count, "")
	if err != nil {
		slog.Error("top videos fetch failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch top videos")
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (s *Server) handleSearchVideos(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "query parameter not specified")
		return
	}
	query = engine.DecodeLabel(query)

	searchType := r.URL.Query().Get("type")
	if searchType == "" {
		searchType = "video"
	}
	switch searchType {
	case "video", "channel", "playlist":
	default:
		writeError(w, http.StatusBadRequest, "Invalid type parameter. Must be one of: video, channel, playlist")
		return
	}

	results, err := innertube.Search(r.Context(), baseURL(r), query, defaultCount(r))
	if err != nil {
		slog.Error("search failed", slog.String("query", query), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to perform search")
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleSearchSuggestions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if query == "" {
		writeError(w, http.StatusBadRequest, "Query parameter is required")
		return
	}

	suggestions, err := dataapi.Suggestions(r.Context(), query)
	if err != nil {
		slog.Error("suggestions fetch failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch suggestions")
		return
	}
	if len(suggestions) > 10 {
		suggestions = suggestions[:10]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":       query,
		"suggestions": suggestions,
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	region := r.URL.Query().Get("region")
	if region == "" {
		region = "US"
	}

	cats, err := dataapi.Categories(r.Context(), region)
	if err != nil {
		slog.Error("categories fetch failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch categories")
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

func (s *Server) handleCategoryVideos(w http.ResponseWriter, r *http.Request) {
	categoryID := r.URL.Query().Get("categoryId")
	videos, err := dataapi.TopVideos(r.Context(), baseURL(r), defaultCount(r), categoryID)
	if err != nil {
		slog.Error("category videos fetch failed", slog.String("category", categoryID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch category videos")
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (s *Server) handlePlaylistRoot(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusBadRequest, "Playlist ID is required. Use /playlist/PLAYLIST_ID")
}

func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	playlistID := strings.TrimSpace(r.PathValue("playlist_id"))
	if playlistID == "" {
		writeError(w, http.StatusBadRequest, "Playlist ID parameter is required")
		return
	}

	resp, err := dataapi.Playlist(r.Context(), baseURL(r), playlistID, defaultCount(r))
	if err != nil {
		if errors.Is(err, dataapi.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Playlist not found")
			return
		}
		slog.Error("playlist fetch failed", slog.String("playlist", playlistID), slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch playlist")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
