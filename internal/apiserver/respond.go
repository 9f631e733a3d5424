package apiserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/legacyprojects/ytapi/internal/engine"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func writeErrorDetails(w http.ResponseWriter, code int, msg string, details error) {
	writeJSON(w, code, map[string]any{"error": msg, "details": details.Error()})
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	fmt.Fprint(w, body)
}

func writeHTML(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	fmt.Fprint(w, body)
}

// baseURL resolves the externally visible origin of this instance for
// rewriting thumbnail and channel-icon URLs in responses. main_url wins
// when configured, otherwise the request host is used as seen.
func baseURL(r *http.Request) string {
	if u := strings.TrimSpace(engine.App().Server.MainURL); u != "" {
		return u
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		scheme = p
	}
	return fmt.Sprintf("%s://%s/", scheme, strings.TrimSuffix(r.Host, "/"))
}

func intParam(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func defaultCount(r *http.Request) int {
	return intParam(r, "count", engine.App().Video.DefaultCount)
}
