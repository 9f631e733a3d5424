package apiserver

import (
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/legacyprojects/ytapi/internal/engine/auth"
)

const callbackFailedHTML = `<html>
    <body>
        <h2>Authentication failed</h2>
        <p>No authorization code or state received.</p>
    </body>
</html>`

const callbackSuccessHTML = `<html>
    <body>
        <h2>Authentication successful</h2>
        <p>You can close this window now and refresh the previous page.</p>
        <script>
            window.close();
        </script>
    </body>
</html>`

// handleAuth serves the <ytreq> payload the legacy sign-in screen renders.
// With a refresh_token header the token is echoed back, otherwise a QR code
// pointing at the Google consent page is generated for a fresh session.
func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.NewString()

	if token := r.Header.Get("refresh_token"); token != "" {
		writeHTML(w, http.StatusOK, fmt.Sprintf("<ytreq>Token: %s</ytreq>", html.EscapeString(token)))
		return
	}

	if token, ok := s.tokens.Take(sessionID); ok {
		writeHTML(w, http.StatusOK, fmt.Sprintf("<ytreq>Token: %s</ytreq>", html.EscapeString(token)))
		return
	}

	qr, err := auth.QRBase64PNG(auth.AuthURL(sessionID))
	if err != nil {
		slog.Error("qr generation failed", slog.Any("error", err))
		writeError(w, http.StatusInternalServerError, "Failed to generate QR code")
		return
	}
	writeHTML(w, http.StatusOK, fmt.Sprintf("<ytreq>%s</ytreq>", qr))
}

// handleAuthStart hands out a session id plus the consent URL for clients
// that render their own QR code and then poll /auth/events.
func (s *Server) handleAuthStart(w http.ResponseWriter, r *http.Request) {
	sessionID := uuid.NewString()
	writeJSON(w, http.StatusOK, map[string]string{
		"session_id": sessionID,
		"auth_url":   auth.AuthURL(sessionID),
	})
}

// handleAuthEvents is a single-shot SSE endpoint: one data event per
// request, either the stored token or a timeout error.
func (s *Server) handleAuthEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		fmt.Fprint(w, "data: {\"error\": \"Missing session_id\"}\n\n")
		return
	}

	if token, ok := s.tokens.Take(sessionID); ok {
		fmt.Fprintf(w, "data: {\"token\": %q}\n\n", token)
		return
	}
	fmt.Fprint(w, "data: {\"error\": \"Authentication timed out\"}\n\n")
}

func (s *Server) handleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	sessionID := r.URL.Query().Get("state")
	if code == "" || sessionID == "" {
		writeHTML(w, http.StatusBadRequest, callbackFailedHTML)
		return
	}

	refreshToken := "refresh_token_" + uuid.NewString()
	if tok, err := auth.Exchange(r.Context(), code); err == nil && tok.RefreshToken != "" {
		refreshToken = tok.RefreshToken
	} else if err != nil {
		slog.Warn("oauth code exchange failed, issuing placeholder token", slog.Any("error", err))
	}

	s.tokens.Store(sessionID, refreshToken)
	writeHTML(w, http.StatusOK, callbackSuccessHTML)
}

func (s *Server) handleAccountInfo(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusBadRequest, "Missing token parameter. Use ?token=YOUR_REFRESH_TOKEN")
		return
	}

	info, err := auth.AccountInfo(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrMissingToken) {
			writeError(w, http.StatusBadRequest, "Missing token parameter. Use ?token=YOUR_REFRESH_TOKEN")
			return
		}
		writeErrorDetails(w, http.StatusUnauthorized, "Invalid refresh token", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}
