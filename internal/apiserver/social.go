package apiserver

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/legacyprojects/ytapi/internal/engine"
	"github.com/legacyprojects/ytapi/internal/engine/auth"
	"github.com/legacyprojects/ytapi/internal/engine/innertube"
)

// accessTokenFromQuery exchanges the token query parameter for an OAuth
// access token. Writes the error response and returns false on failure.
func accessTokenFromQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	refreshToken := r.URL.Query().Get("token")
	if refreshToken == "" {
		writeError(w, http.StatusBadRequest, "Missing token parameter. Use ?token=YOUR_REFRESH_TOKEN")
		return "", false
	}

	accessToken, err := auth.RefreshAccessToken(r.Context(), refreshToken)
	if err != nil {
		writeErrorDetails(w, http.StatusUnauthorized, "Invalid refresh token", err)
		return "", false
	}
	return accessToken, true
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	accessToken, ok := accessTokenFromQuery(w, r)
	if !ok {
		return
	}

	recs, err := innertube.Recommendations(r.Context(), baseURL(r), accessToken, defaultCount(r))
	if err != nil {
		slog.Error("recommendations fetch failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to call recommendations API")
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleSubscriptions(w http.ResponseWriter, r *http.Request) {
	accessToken, ok := accessTokenFromQuery(w, r)
	if !ok {
		return
	}
	s.serveSubscriptions(w, r, accessToken)
}

// handleSubscriptionsSession is the device-session variant: instead of a
// refresh token the client posts its stored username and password, and the
// linked session's token is used.
func (s *Server) handleSubscriptionsSession(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid form body")
		return
	}
	username := r.PostForm.Get("username")
	password := r.PostForm.Get("password")
	if username == "" || password == "" {
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	sess, ok, err := s.sessions.ByCredentials(r.Context(), username, password)
	if err != nil {
		slog.Error("session lookup failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to load sessions")
		return
	}
	if !ok || sess.RefreshToken == "" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	accessToken, err := auth.RefreshAccessToken(r.Context(), sess.RefreshToken)
	if err != nil {
		writeErrorDetails(w, http.StatusUnauthorized, "Invalid refresh token", err)
		return
	}
	s.serveSubscriptions(w, r, accessToken)
}

func (s *Server) serveSubscriptions(w http.ResponseWriter, r *http.Request, accessToken string) {
	subs, err := innertube.Subscriptions(r.Context(), baseURL(r), accessToken)
	if err != nil {
		slog.Error("subscriptions fetch failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to call subscriptions API")
		return
	}
	writeJSON(w, http.StatusOK, engine.SubscriptionsResponse{
		Status:        "success",
		Count:         len(subs),
		Subscriptions: subs,
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	accessToken, ok := accessTokenFromQuery(w, r)
	if !ok {
		return
	}

	videos, err := innertube.History(r.Context(), baseURL(r), accessToken, defaultCount(r))
	if err != nil {
		slog.Error("history fetch failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch history")
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (s *Server) handleMarkWatched(w http.ResponseWriter, r *http.Request) {
	videoID := r.URL.Query().Get("video_id")
	if videoID == "" {
		writeError(w, http.StatusBadRequest, "Missing video_id")
		return
	}

	refreshToken := r.URL.Query().Get("token")
	if refreshToken == "" {
		writeError(w, http.StatusBadRequest, "Missing token")
		return
	}
	accessToken, err := auth.RefreshAccessToken(r.Context(), refreshToken)
	if err != nil {
		writeErrorDetails(w, http.StatusUnauthorized, "Invalid refresh token", err)
		return
	}

	if err := innertube.MarkWatched(r.Context(), videoID, accessToken); err != nil {
		writeErrorDetails(w, http.StatusInternalServerError, "Failed to mark video as watched", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": fmt.Sprintf("Video %s marked as watched", videoID),
	})
}

func (s *Server) handleInstants(w http.ResponseWriter, r *http.Request) {
	instances := engine.App().Instances
	items := make([]engine.InstantItem, 0, len(instances))
	for _, u := range instances {
		items = append(items, engine.InstantItem{URL: u})
	}
	writeJSON(w, http.StatusOK, engine.InstantsResponse{Instants: items})
}

func (s *Server) handleCheckAPIKeys(w http.ResponseWriter, r *http.Request) {
	report, err := engine.CheckActiveKeys(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCheckFailedAPIKeys(w http.ResponseWriter, r *http.Request) {
	report, err := engine.ReviveDisabledKeys(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}
