package apiserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/legacyprojects/ytapi/internal/engine"
	"github.com/legacyprojects/ytapi/internal/engine/auth"
	"github.com/legacyprojects/ytapi/internal/engine/dataapi"
)

// actionAccessToken validates and exchanges the token form value for the
// account action endpoints. Writes the error response on failure.
func actionAccessToken(w http.ResponseWriter, r *http.Request) (string, bool) {
	accessToken, err := auth.ObtainAccessToken(r.Context(), r.FormValue("token"))
	if err != nil {
		if errors.Is(err, auth.ErrMissingToken) {
			writeError(w, http.StatusBadRequest, "Missing refresh_token")
			return "", false
		}
		writeError(w, http.StatusUnauthorized, err.Error())
		return "", false
	}
	return accessToken, true
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	accessToken, ok := actionAccessToken(w, r)
	if !ok {
		return
	}

	channelID, err := dataapi.Subscribe(r.Context(), r.FormValue("channel"), accessToken)
	if err != nil {
		if errors.Is(err, dataapi.ErrNotFound) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, engine.YoutubeActionResponse{
		Status:    "success",
		Action:    "subscribe",
		ChannelID: &channelID,
		Message:   "Subscribed to channel",
	})
}

func (s *Server) handleUnsubscribe(w http.ResponseWriter, r *http.Request) {
	accessToken, ok := actionAccessToken(w, r)
	if !ok {
		return
	}

	channelID, err := dataapi.Unsubscribe(r.Context(), r.FormValue("channel"), accessToken)
	if err != nil {
		switch {
		case errors.Is(err, dataapi.ErrNotSubscribed):
			writeError(w, http.StatusNotFound, "No active subscription found for the channel")
		case errors.Is(err, dataapi.ErrNotFound):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusBadGateway, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, engine.YoutubeActionResponse{
		Status:    "success",
		Action:    "unsubscribe",
		ChannelID: &channelID,
		Message:   "Unsubscribed from channel",
	})
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	videoID := r.FormValue("video_id")
	rating := r.FormValue("rating")
	if !dataapi.ValidRating(rating) {
		writeError(w, http.StatusBadRequest, "Rating must be one of: like, dislike, none")
		return
	}

	accessToken, ok := actionAccessToken(w, r)
	if !ok {
		return
	}

	if err := dataapi.RateVideo(r.Context(), videoID, rating, accessToken); err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, engine.YoutubeActionResponse{
		Status:  "success",
		Action:  "rate",
		VideoID: &videoID,
		Message: "Video rated " + rating,
	})
}

func (s *Server) handleCheckRating(w http.ResponseWriter, r *http.Request) {
	videoID := strings.TrimSpace(r.FormValue("video_id"))
	if videoID == "" || strings.TrimSpace(r.FormValue("token")) == "" {
		writeError(w, http.StatusBadRequest, "video_id and token are required")
		return
	}

	accessToken, ok := actionAccessToken(w, r)
	if !ok {
		return
	}

	rating, err := dataapi.VideoRating(r.Context(), videoID, accessToken)
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, engine.RatingCheckResponse{
		Status:  "success",
		VideoID: videoID,
		Rating:  rating,
	})
}

func (s *Server) handleCheckSubscription(w http.ResponseWriter, r *http.Request) {
	channel := strings.TrimSpace(r.FormValue("channel"))
	if channel == "" || strings.TrimSpace(r.FormValue("token")) == "" {
		writeError(w, http.StatusBadRequest, "channel and token are required")
		return
	}

	accessToken, ok := actionAccessToken(w, r)
	if !ok {
		return
	}

	channelID, subscribed, err := dataapi.CheckSubscription(r.Context(), channel, accessToken)
	if err != nil {
		if errors.Is(err, dataapi.ErrNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, engine.SubscriptionCheckResponse{
		Status:     "success",
		ChannelID:  channelID,
		Subscribed: subscribed,
	})
}
