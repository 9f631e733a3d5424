// Package auth covers Google OAuth for YouTube account features: the QR
// login flow, refresh-token exchange, device session storage, and the
// ClientLogin emulation legacy clients expect.
package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/legacyprojects/ytapi/internal/engine"
	"github.com/legacyprojects/ytapi/internal/engine/dataapi"
)

// userinfoBase is a package var so tests can point it at a fake.
var userinfoBase = "https://www.googleapis.com/oauth2/v1/userinfo"

// ErrMissingToken marks an empty refresh token; handlers answer 400.
// Any other refresh failure maps to 401.
var ErrMissingToken = errors.New("missing refresh_token")

var oauthScopes = []string{
	"https://www.googleapis.com/auth/youtube.readonly",
	"https://www.googleapis.com/auth/youtube",
	"https://www.googleapis.com/auth/userinfo.profile",
	"https://www.googleapis.com/auth/userinfo.email",
}

// OAuthConfig builds the oauth2 client config from the loaded app config.
func OAuthConfig() *oauth2.Config {
	app := engine.App()
	redirect := app.RedirectBase()
	if app.API.OAuth.RedirectURI == "" {
		redirect += "/oauth/callback"
	}
	return &oauth2.Config{
		ClientID:     app.API.OAuth.ClientID,
		ClientSecret: app.API.OAuth.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  redirect,
		Scopes:       oauthScopes,
	}
}

// AuthURL returns the consent-screen URL for a login session. offline
// access with forced consent makes Google return a refresh token every
// time, not only on first grant.
func AuthURL(sessionID string) string {
	return OAuthConfig().AuthCodeURL(sessionID,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))
}

// Exchange trades an authorization code for a token.
func Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, engine.Cfg.HTTPClient)
	tok, err := OAuthConfig().Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("oauth exchange: %w", err)
	}
	return tok, nil
}

// RefreshAccessToken trades a refresh token for a fresh access token.
func RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	engine.IncrTokenRefresh()
	ctx = context.WithValue(ctx, oauth2.HTTPClient, engine.Cfg.HTTPClient)
	src := OAuthConfig().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	tok, err := src.Token()
	if err != nil {
		return "", fmt.Errorf("refresh access token: %w", err)
	}
	return tok.AccessToken, nil
}

// ObtainAccessToken validates and exchanges a refresh token, mapping the
// empty case to ErrMissingToken so handlers can distinguish 400 from 401.
func ObtainAccessToken(ctx context.Context, refreshToken string) (string, error) {
	trimmed := strings.TrimSpace(refreshToken)
	if trimmed == "" {
		return "", ErrMissingToken
	}
	return RefreshAccessToken(ctx, trimmed)
}

// AccountInfo resolves a refresh token into the Google profile and the
// user's YouTube channel. The channel part is nil for accounts without one.
func AccountInfo(ctx context.Context, refreshToken string) (*engine.AccountInfoResponse, error) {
	accessToken, err := ObtainAccessToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, userinfoBase, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	resp, err := engine.Cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return nil, fmt.Errorf("fetch userinfo: HTTP %d: %s", resp.StatusCode, snippet)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read userinfo: %w", err)
	}
	info, err := engine.ParseNode(body)
	if err != nil {
		return nil, fmt.Errorf("decode userinfo: %w", err)
	}

	out := &engine.AccountInfoResponse{
		GoogleAccount: engine.GoogleAccount{
			ID:            strPtr(info.Get("id")),
			Name:          strPtr(info.Get("name")),
			GivenName:     strPtr(info.Get("given_name")),
			FamilyName:    strPtr(info.Get("family_name")),
			Email:         strPtr(info.Get("email")),
			VerifiedEmail: boolPtr(info.Get("verified_email")),
			Picture:       strPtr(info.Get("picture")),
			Locale:        strPtr(info.Get("locale")),
		},
	}

	channel, err := dataapi.MyChannel(ctx, accessToken)
	if err != nil || !channel.Exists() {
		// Profile data alone is still useful; the channel stays null.
		return out, nil
	}
	snippet := channel.Get("snippet")
	stats := channel.Get("statistics")
	out.YouTubeChannel = &engine.YouTubeChannel{
		ID:              strPtr(channel.Get("id")),
		Title:           strPtr(snippet.Get("title")),
		Description:     strPtr(snippet.Get("description")),
		CustomURL:       strPtr(snippet.Get("customUrl")),
		PublishedAt:     strPtr(snippet.Get("publishedAt")),
		Thumbnails:      snippet.Get("thumbnails").Raw(),
		Country:         strPtr(snippet.Get("country")),
		SubscriberCount: strPtr(stats.Get("subscriberCount")),
		VideoCount:      strPtr(stats.Get("videoCount")),
		ViewCount:       strPtr(stats.Get("viewCount")),
	}
	return out, nil
}

func strPtr(n engine.Node) *string {
	if s := n.Str(); s != "" {
		return &s
	}
	return nil
}

func boolPtr(n engine.Node) *bool {
	if !n.Exists() {
		return nil
	}
	b := n.Bool()
	return &b
}
