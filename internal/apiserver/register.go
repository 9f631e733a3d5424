// Package apiserver exposes the REST surface that legacy YouTube clients
// talk to. Handlers translate the old PHP-era endpoint shapes onto the
// engine's Data API, InnerTube, and media subsystems.
package apiserver

import (
	"net/http"

	"github.com/legacyprojects/ytapi/internal/engine"
	"github.com/legacyprojects/ytapi/internal/engine/auth"
	"github.com/rs/cors"
)

// Server holds the per-process state the handlers share: the device
// session database and the in-flight QR auth token store.
type Server struct {
	sessions *auth.SessionStore
	tokens   *auth.TokenStore
}

func New(sessions *auth.SessionStore) *Server {
	return &Server{
		sessions: sessions,
		tokens:   auth.NewTokenStore(),
	}
}

// Routes builds the full route table. Paths keep their historical names,
// .php suffixes included, because the devices have them hardcoded.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	// QR / OAuth flow
	mux.HandleFunc("GET /auth", s.handleAuth)
	mux.HandleFunc("GET /auth/start", s.handleAuthStart)
	mux.HandleFunc("GET /auth/events", s.handleAuthEvents)
	mux.HandleFunc("GET /oauth/callback", s.handleOAuthCallback)
	mux.HandleFunc("GET /account_info", s.handleAccountInfo)

	// Device sessions and the ClientLogin emulation
	mux.HandleFunc("GET /check_if_username_is_taken", s.handleUsernameTaken)
	mux.HandleFunc("POST /link_device_token", s.handleLinkDevice)
	mux.HandleFunc("POST /get_session", s.handleGetSession)
	mux.HandleFunc("POST /accounts/ClientLogin", s.handleClientLogin)
	mux.HandleFunc("POST /youtube/accounts/ClientLogin", s.handleClientLogin)
	mux.HandleFunc("POST /o/oauth2/token", s.handleOAuth2Token)
	mux.HandleFunc("GET /oauth2/v1/userinfo", s.handleOAuth2Userinfo)

	// Catalog: search, categories, playlists, channels
	mux.HandleFunc("GET /get_top_videos.php", s.handleTopVideos)
	mux.HandleFunc("GET /get_search_videos.php", s.handleSearchVideos)
	mux.HandleFunc("GET /get_search_suggestions.php", s.handleSearchSuggestions)
	mux.HandleFunc("GET /get-categories.php", s.handleCategories)
	mux.HandleFunc("GET /get-categories_videos.php", s.handleCategoryVideos)
	mux.HandleFunc("GET /playlist", s.handlePlaylistRoot)
	mux.HandleFunc("GET /playlist/{playlist_id}", s.handlePlaylist)
	mux.HandleFunc("GET /get_author_videos.php", s.handleAuthorVideos)
	mux.HandleFunc("GET /get_author_videos_by_id.php", s.handleAuthorVideosByID)
	mux.HandleFunc("GET /get_channel_thumbnail.php", s.handleChannelThumbnail)
	mux.HandleFunc("GET /get-ytvideo-info.php", s.handleVideoInfo)
	mux.HandleFunc("GET /get_related_videos.php", s.handleRelatedVideos)

	// Media: direct streams, proxying, thumbnails
	mux.HandleFunc("GET /direct_url", s.handleDirectURL)
	mux.HandleFunc("HEAD /direct_url", s.handleDirectURL)
	mux.HandleFunc("GET /direct_audio_url", s.handleDirectAudioURL)
	mux.HandleFunc("HEAD /direct_audio_url", s.handleDirectAudioURL)
	mux.HandleFunc("GET /hls_manifest_url", s.handleHLSManifestURL)
	mux.HandleFunc("GET /get-direct-video-url.php", s.handleDirectVideoURL)
	mux.HandleFunc("GET /video.proxy", s.handleVideoProxy)
	mux.HandleFunc("HEAD /video.proxy", s.handleVideoProxy)
	mux.HandleFunc("GET /download", s.handleDownload)
	mux.HandleFunc("HEAD /download", s.handleDownload)
	mux.HandleFunc("GET /thumbnail/{video_id}", s.handleThumbnail)
	mux.HandleFunc("GET /channel_icon/{input}", s.handleChannelIcon)

	// Authenticated feeds
	mux.HandleFunc("GET /get_recommendations.php", s.handleRecommendations)
	mux.HandleFunc("GET /get_subscriptions.php", s.handleSubscriptions)
	mux.HandleFunc("POST /api/subscriptions_session", s.handleSubscriptionsSession)
	mux.HandleFunc("GET /get_history.php", s.handleHistory)
	mux.HandleFunc("GET /mark_video_watched.php", s.handleMarkWatched)

	// Instance and key health
	mux.HandleFunc("GET /get-instants", s.handleInstants)
	mux.HandleFunc("GET /check_api_keys", s.handleCheckAPIKeys)
	mux.HandleFunc("GET /check_failed_api_keys", s.handleCheckFailedAPIKeys)

	// Account actions. Registered for GET and POST: old devices disagree
	// on the method.
	mux.HandleFunc("/actions/subscribe", s.handleSubscribe)
	mux.HandleFunc("/actions/unsubscribe", s.handleUnsubscribe)
	mux.HandleFunc("/actions/rate", s.handleRate)
	mux.HandleFunc("GET /actions/check_rating", s.handleCheckRating)
	mux.HandleFunc("GET /actions/check_subscription", s.handleCheckSubscription)

	mux.HandleFunc("GET /metrics", s.handleMetrics)

	return mux
}

// Handler wraps the route table with CORS and failure logging.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(logNonOK(s.Routes()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, "YouTube API Legacy is running!")
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeText(w, http.StatusOK, engine.FormatMetrics())
}
