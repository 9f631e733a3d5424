package dataapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestChannelVideos(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/channels", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"snippet":{"title":"My Channel","description":"About"},
			"statistics":{"subscriberCount":"1200","videoCount":"2"},
			"brandingSettings":{"image":{"bannerExternalUrl":"//yt3.ggpht.com/banner"}}}]}`))
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("channelId") != "UCtest" || q.Get("order") != "date" {
			t.Errorf("search query = %v", q)
		}
		w.Write([]byte(`{"items":[
			{"id":{"videoId":"v1"},"snippet":{"title":"Video One","publishedAt":"2024-01-01T00:00:00Z"}},
			{"id":{"videoId":"v2"},"snippet":{"title":"Video Two","publishedAt":"2024-02-01T00:00:00Z"}}
		]}`))
	})
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		ids := r.URL.Query().Get("id")
		if !strings.Contains(ids, "v1") || !strings.Contains(ids, "v2") {
			t.Errorf("stats ids = %q", ids)
		}
		w.Write([]byte(`{"items":[
			{"id":"v1","statistics":{"viewCount":"100"},"contentDetails":{"duration":"PT2M10S"}},
			{"id":"v2","statistics":{"viewCount":"200"},"contentDetails":{"duration":"PT1M"}}
		]}`))
	})
	upstream := httptest.NewServer(mux)
	defer upstream.Close()
	setupEnv(t, upstream)

	resp, err := ChannelVideos(context.Background(), "http://localhost:2823", "UCtest", 10)
	if err != nil {
		t.Fatalf("ChannelVideos: %v", err)
	}
	if resp.ChannelInfo.Title != "My Channel" {
		t.Errorf("title = %q", resp.ChannelInfo.Title)
	}
	if !strings.HasPrefix(resp.ChannelInfo.Banner, "http://localhost:2823/channel_icon/") {
		t.Errorf("banner = %q", resp.ChannelInfo.Banner)
	}
	if len(resp.Videos) != 2 {
		t.Fatalf("got %d videos", len(resp.Videos))
	}
	if resp.Videos[0].Views != "100" || resp.Videos[0].Duration != "2:10" {
		t.Errorf("first video = %+v", resp.Videos[0])
	}
}

func TestPlaylistNotFound(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[]}`))
	}))
	defer upstream.Close()
	setupEnv(t, upstream)

	_, err := Playlist(context.Background(), "http://localhost:2823", "PLmissing", 50)
	if err == nil || !strings.Contains(err.Error(), "PLmissing") {
		t.Fatalf("err = %v", err)
	}
}

func TestPlaylist(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/playlists", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"snippet":{"title":"Mix","channelTitle":"Uploader","channelId":"UCowner"},
			"contentDetails":{"itemCount":2}}]}`))
	})
	mux.HandleFunc("/channels", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"snippet":{"title":"Owner Channel","thumbnails":{"high":{"url":"https://yt3.ggpht.com/owner"}}}}]}`))
	})
	mux.HandleFunc("/playlistItems", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[
			{"snippet":{"title":"Track 1","publishedAt":"2024-01-01T00:00:00Z"},
			 "contentDetails":{"videoId":"t1"}},
			{"snippet":{"title":"Track 2"},"contentDetails":{"videoId":"t2"}}
		]}`))
	})
	upstream := httptest.NewServer(mux)
	defer upstream.Close()
	setupEnv(t, upstream)

	resp, err := Playlist(context.Background(), "http://localhost:2823", "PLx", 50)
	if err != nil {
		t.Fatalf("Playlist: %v", err)
	}
	if resp.PlaylistInfo.Title != "Mix" {
		t.Errorf("title = %q", resp.PlaylistInfo.Title)
	}
	if resp.PlaylistInfo.ChannelTitle != "Owner Channel" {
		t.Errorf("channel title = %q", resp.PlaylistInfo.ChannelTitle)
	}
	if len(resp.Videos) != 2 {
		t.Fatalf("got %d videos", len(resp.Videos))
	}
	if resp.Videos[0].Author != "Owner Channel" {
		t.Errorf("author = %q, want channel title preferred", resp.Videos[0].Author)
	}
	if resp.Videos[0].VideoID != "t1" {
		t.Errorf("video id = %q", resp.Videos[0].VideoID)
	}
	if resp.Videos[0].Views != nil {
		t.Errorf("views should stay null, got %v", *resp.Videos[0].Views)
	}
	if resp.Videos[1].PublishedAt != nil {
		t.Errorf("missing publishedAt should stay null")
	}
	if resp.PlaylistInfo.Thumbnail != "http://localhost:2823/thumbnail/t1" {
		t.Errorf("playlist thumbnail = %q", resp.PlaylistInfo.Thumbnail)
	}
}
