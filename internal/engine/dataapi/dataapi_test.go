package dataapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/legacyprojects/ytapi/internal/engine"
)

const testConfigYAML = `server:
  port: 2823
  main_url: "http://localhost:2823"
api:
  request_timeout: 5
  keys:
    active:
      - "test-key-1"
    disabled: []
video:
  default_count: 50
`

// setupEnv points the package at a fake upstream and loads a minimal
// config so key rotation has something to rotate.
func setupEnv(t *testing.T, upstream *httptest.Server) {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(cfgPath, []byte(testConfigYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := engine.LoadAppConfig(cfgPath); err != nil {
		t.Fatalf("load config: %v", err)
	}
	engine.Init(engine.Config{ConfigPath: cfgPath, HTTPClient: http.DefaultClient})

	oldAPI, oldSuggest := apiBase, suggestionsBase
	apiBase = upstream.URL
	suggestionsBase = upstream.URL + "/complete/search"
	t.Cleanup(func() {
		apiBase = oldAPI
		suggestionsBase = oldSuggest
	})
}

func TestTopVideos(t *testing.T) {
	var gotQuery map[string]string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/videos" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotQuery = map[string]string{
			"chart":      r.URL.Query().Get("chart"),
			"maxResults": r.URL.Query().Get("maxResults"),
			"key":        r.URL.Query().Get("key"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[
			{"id":"vid1","snippet":{"title":"First & Best","channelTitle":"Chan One","channelId":"UCabc"},
			 "contentDetails":{"duration":"PT1H2M3S"}},
			{"id":"vid2","snippet":{"title":"Second","channelTitle":"Chan Two","channelId":"UCdef"},
			 "contentDetails":{"duration":"PT45S"}}
		]}`))
	}))
	defer upstream.Close()
	setupEnv(t, upstream)

	videos, err := TopVideos(context.Background(), "http://localhost:2823/", 120, "")
	if err != nil {
		t.Fatalf("TopVideos: %v", err)
	}
	if gotQuery["chart"] != "mostPopular" {
		t.Errorf("chart = %q, want mostPopular", gotQuery["chart"])
	}
	if gotQuery["maxResults"] != "50" {
		t.Errorf("maxResults = %q, want clamped 50", gotQuery["maxResults"])
	}
	if gotQuery["key"] != "test-key-1" {
		t.Errorf("key = %q, want test-key-1", gotQuery["key"])
	}
	if len(videos) != 2 {
		t.Fatalf("got %d videos, want 2", len(videos))
	}
	first := videos[0]
	if first.Title != "First & Best" {
		t.Errorf("title = %q", first.Title)
	}
	if first.Thumbnail != "http://localhost:2823/thumbnail/vid1" {
		t.Errorf("thumbnail = %q", first.Thumbnail)
	}
	if first.ChannelThumbnail != "http://localhost:2823/channel_icon/UCabc" {
		t.Errorf("channel thumbnail = %q", first.ChannelThumbnail)
	}
	if first.Duration != "1:02:03" {
		t.Errorf("duration = %q, want 1:02:03", first.Duration)
	}
	if videos[1].Duration != "0:45" {
		t.Errorf("duration = %q, want 0:45", videos[1].Duration)
	}
}

func TestCategoriesDefaultRegion(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("regionCode"); got != "US" {
			t.Errorf("regionCode = %q, want US", got)
		}
		w.Write([]byte(`{"items":[{"id":"10","snippet":{"title":"Music"}},{"snippet":{"title":"no id"}}]}`))
	}))
	defer upstream.Close()
	setupEnv(t, upstream)

	cats, err := Categories(context.Background(), "")
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(cats) != 1 || cats[0].ID != "10" || cats[0].Title != "Music" {
		t.Errorf("categories = %+v", cats)
	}
}

func TestFindChannelID(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("type") != "channel" || q.Get("maxResults") != "1" {
			t.Errorf("unexpected query %v", q)
		}
		w.Write([]byte(`{"items":[{"id":{"channelId":"UCfound"}}]}`))
	}))
	defer upstream.Close()
	setupEnv(t, upstream)

	id, err := FindChannelID(context.Background(), "some author")
	if err != nil {
		t.Fatalf("FindChannelID: %v", err)
	}
	if id != "UCfound" {
		t.Errorf("id = %q", id)
	}
}

func TestSuggestions(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`window.google.ac.h(["cats",[["cats",0],["cats funny",0]],{"k":1}])`))
	}))
	defer upstream.Close()
	setupEnv(t, upstream)

	got, err := Suggestions(context.Background(), "cats")
	if err != nil {
		t.Fatalf("Suggestions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d suggestions, want 2", len(got))
	}
}

func TestStripJSONPWrapper(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"callback", `window.google.ac.h(["q",[]])`, `["q",[]]`},
		{"xssi prefix", `)]}'["q",[]]`, `["q",[]]`},
		{"plain", `["q",[]]`, `["q",[]]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripJSONPWrapper(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPIErrorIncludesSnippet(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"message":"quotaExceeded"}}`))
	}))
	defer upstream.Close()
	setupEnv(t, upstream)

	_, err := Categories(context.Background(), "US")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "403") || !strings.Contains(err.Error(), "quotaExceeded") {
		t.Errorf("error = %v", err)
	}
}
