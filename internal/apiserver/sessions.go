package apiserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/legacyprojects/ytapi/internal/engine/auth"
)

const wrongCredentialsMsg = "Your username and password are wrong, or your account isn't linked!!!"

func (s *Server) handleUsernameTaken(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeText(w, http.StatusBadRequest, "Must have a username parm.")
		return
	}

	taken, err := s.sessions.UsernameTaken(r.Context(), username)
	if err != nil {
		slog.Error("username lookup failed", slog.Any("error", err))
		writeText(w, http.StatusInternalServerError, "Failed to check username")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"status": taken})
}

func (s *Server) handleLinkDevice(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	str := func(key string) string {
		v, _ := body[key].(string)
		return v
	}

	deviceID := str("device_id")
	if deviceID == "" {
		writeText(w, http.StatusBadRequest, "Missing device_id")
		return
	}

	sess := auth.Session{
		DeviceID:     deviceID,
		Username:     str("username"),
		Password:     str("password"),
		AccessToken:  str("access_token"),
		RefreshToken: str("refresh_token"),
	}
	if err := s.sessions.LinkDevice(r.Context(), sess); err != nil {
		if errors.Is(err, auth.ErrUsernameTaken) {
			writeText(w, http.StatusBadRequest, "Username taken")
			return
		}
		slog.Error("device link failed", slog.Any("error", err))
		writeText(w, http.StatusInternalServerError, "Failed to save sessions")
		return
	}
	writeText(w, http.StatusOK, "Device linked")
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid form body")
		return
	}
	username := r.PostForm.Get("username")
	if username == "" {
		writeText(w, http.StatusBadRequest, "Must have a username parm.")
		return
	}
	password := r.PostForm.Get("password")
	if password == "" {
		writeText(w, http.StatusBadRequest, "Must have a password parm.")
		return
	}

	sess, ok, err := s.sessions.ByCredentials(r.Context(), username, password)
	if err != nil {
		slog.Error("session lookup failed", slog.Any("error", err))
		writeText(w, http.StatusInternalServerError, "Failed to load sessions")
		return
	}
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleClientLogin emulates the ancient Google ClientLogin handshake.
// Success and failure are both 200 text, exactly as the devices expect.
func (s *Server) handleClientLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid form body")
		return
	}
	username := r.PostForm.Get("Email")
	password := r.PostForm.Get("Passwd")

	if username == "" && password == "" {
		writeText(w, http.StatusOK, "You must have a username and password!")
		return
	}

	deviceID, ok, err := s.sessions.LoginDeviceID(r.Context(), username, password)
	if err != nil {
		slog.Error("client login lookup failed", slog.Any("error", err))
		writeText(w, http.StatusInternalServerError, "Failed to load sessions")
		return
	}
	if !ok {
		writeText(w, http.StatusOK, wrongCredentialsMsg)
		return
	}
	writeText(w, http.StatusOK, fmt.Sprintf("SID=%s\nLSID=%s\nAuth=%s\n", deviceID, deviceID, deviceID))
}

func (s *Server) handleOAuth2Token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeText(w, http.StatusBadRequest, "Invalid form body")
		return
	}

	accessToken := r.PostForm.Get("code")
	if accessToken == "" {
		accessToken = r.PostForm.Get("refresh_token")
	}
	if accessToken == "" {
		accessToken = "lifeisstrange"
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  accessToken,
		"token_type":    "Bearer",
		"expires_in":    3600,
		"refresh_token": accessToken,
	})
}

func (s *Server) handleOAuth2Userinfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"id":             "2013",
		"name":           "David Price Is My Bea",
		"email":          "ilovemenandwomenandenbies@gmail.com",
		"verified_email": true,
	})
}
