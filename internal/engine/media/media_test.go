package media

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/legacyprojects/ytapi/internal/engine"
)

const testConfigYAML = `server:
  port: 2823
api:
  request_timeout: 5
  innertube:
    key: "it-key"
video:
  source: "direct"
  use_cookies: false
  default_quality: "360"
  default_count: 50
`

func setupEnv(t *testing.T) {
	t.Helper()

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yml")
	if err := os.WriteFile(cfgPath, []byte(testConfigYAML), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := engine.LoadAppConfig(cfgPath); err != nil {
		t.Fatalf("load config: %v", err)
	}
	engine.Init(engine.Config{
		ConfigPath: cfgPath,
		TempDir:    dir,
		CookiesDir: filepath.Join(dir, "cookies"),
		HTTPClient: http.DefaultClient,
	})
	engine.InitCache("", time.Minute, 100)
}

func TestParseQualityHeight(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"360", 360, true},
		{"720p", 720, true},
		{"HD1080", 1080, true},
		{"hd", 720, true},
		{"tiny", 144, true},
		{"medium", 360, true},
		{"best", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseQualityHeight(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("ParseQualityHeight(%q) = %d,%v want %d,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestThumbnailFile(t *testing.T) {
	if got := ThumbnailFile("maxres"); got != "maxresdefault.jpg" {
		t.Errorf("maxres = %q", got)
	}
	if got := ThumbnailFile("bogus"); got != "mqdefault.jpg" {
		t.Errorf("fallback = %q", got)
	}
}

func TestPickSplitFormats(t *testing.T) {
	info, err := engine.ParseNode([]byte(`{"formats":[
		{"format_id":"v360lo","height":360,"vcodec":"avc1","acodec":"none","protocol":"https","tbr":400},
		{"format_id":"v360hi","height":360,"vcodec":"avc1","acodec":"none","protocol":"https","tbr":800},
		{"format_id":"v240","height":240,"vcodec":"avc1","acodec":"none","protocol":"https","tbr":300},
		{"format_id":"vhls","height":360,"vcodec":"avc1","acodec":"none","protocol":"m3u8_native","tbr":900},
		{"format_id":"a-ru","vcodec":"none","acodec":"opus","protocol":"https","tbr":128,"format":"audio [ru]"},
		{"format_id":"a-en","vcodec":"none","acodec":"opus","protocol":"https","tbr":96,"format":"audio [en]"}
	]}`))
	if err != nil {
		t.Fatal(err)
	}

	v, a, ok := pickSplitFormats(info, 360)
	if !ok {
		t.Fatal("no formats picked")
	}
	if v != "v360hi" {
		t.Errorf("video = %q, want highest-tbr exact match", v)
	}
	if a != "a-en" {
		t.Errorf("audio = %q, want english track over higher bitrate", a)
	}

	v, _, ok = pickSplitFormats(info, 480)
	if !ok || v != "v360hi" {
		t.Errorf("fallback below height = %q,%v", v, ok)
	}
}

const testMaster = `#EXTM3U
#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID="aud-main",NAME="en",URI="audio/main.m3u8"
#EXT-X-STREAM-INF:BANDWIDTH=600000,RESOLUTION=640x360,AUDIO="aud-main"
video/360.m3u8
#EXT-X-STREAM-INF:BANDWIDTH=1500000,RESOLUTION=1280x720,AUDIO="aud-main"
https://hls.example.com/abs/720.m3u8
`

func TestParseMasterVariants(t *testing.T) {
	base := "https://hls.example.com/master/index.m3u8"
	groups := ParseAudioGroups(testMaster, base)
	if got := groups["aud-main"]; got != "https://hls.example.com/master/audio/main.m3u8" {
		t.Fatalf("audio group = %q", got)
	}

	variants := ParseMasterVariants(testMaster, base, groups)
	if len(variants) != 2 {
		t.Fatalf("got %d variants", len(variants))
	}
	if variants[0].Height != 360 || variants[0].VideoURL != "https://hls.example.com/master/video/360.m3u8" {
		t.Errorf("relative variant = %+v", variants[0])
	}
	if variants[1].VideoURL != "https://hls.example.com/abs/720.m3u8" {
		t.Errorf("absolute variant = %+v", variants[1])
	}
	if variants[0].AudioURL != groups["aud-main"] {
		t.Errorf("audio not resolved: %+v", variants[0])
	}
}

func TestPickVariant(t *testing.T) {
	variants := []Variant{{Height: 360}, {Height: 720}, {Height: 1080}}
	if v, ok := PickVariant(variants, 720); !ok || v.Height != 720 {
		t.Errorf("exact pick = %+v,%v", v, ok)
	}
	if v, ok := PickVariant(variants, 480); !ok || v.Height != 360 {
		t.Errorf("below pick = %+v,%v", v, ok)
	}
	if _, ok := PickVariant(variants, 144); ok {
		t.Error("picked a variant above the requested height")
	}
}

func TestManifestURLAndDuration(t *testing.T) {
	player, _ := engine.ParseNode([]byte(`{
		"streamingData":{
			"hlsManifestUrl":"https://hls.example.com/master.m3u8",
			"adaptiveFormats":[{"approxDurationMs":"125400"}]
		}
	}`))
	url, dur, err := ManifestURLAndDuration(player)
	if err != nil {
		t.Fatal(err)
	}
	if url != "https://hls.example.com/master.m3u8" {
		t.Errorf("url = %q", url)
	}
	if dur != 126 {
		t.Errorf("duration = %d, want ceil(125.4)", dur)
	}

	noHLS, _ := engine.ParseNode([]byte(`{"streamingData":{}}`))
	if _, _, err := ManifestURLAndDuration(noHLS); err == nil {
		t.Error("expected error without hlsManifestUrl")
	}
}

func TestDirectStreamFromPlayer(t *testing.T) {
	player, _ := engine.ParseNode([]byte(`{"streamingData":{
		"formats":[{"url":"https://v/muxed360","qualityLabel":"360p"}],
		"adaptiveFormats":[
			{"url":"https://v/v720","qualityLabel":"720p"},
			{"url":"https://v/audio"}
		]
	}}`))
	url, ok := DirectStreamFromPlayer(player)
	if !ok || url != "https://v/v720" {
		t.Errorf("got %q,%v want tallest labeled format", url, ok)
	}

	empty, _ := engine.ParseNode([]byte(`{}`))
	if _, ok := DirectStreamFromPlayer(empty); ok {
		t.Error("picked a stream from an empty response")
	}
}

func TestServeCachedMP4(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "clip.mp4")
	if err := os.WriteFile(path, []byte("0123456789"), 0o644); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/direct_url?video_id=x", nil)
	rec := httptest.NewRecorder()
	ServeCachedMP4(rec, req, path, 95)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Body.String() != "0123456789" {
		t.Errorf("body = %q", rec.Body.String())
	}
	if rec.Header().Get("X-Content-Duration") != "95" {
		t.Errorf("duration header = %q", rec.Header().Get("X-Content-Duration"))
	}

	req = httptest.NewRequest(http.MethodGet, "/direct_url?video_id=x", nil)
	req.Header.Set("Range", "bytes=2-5")
	rec = httptest.NewRecorder()
	ServeCachedMP4(rec, req, path, 0)
	if rec.Code != http.StatusPartialContent {
		t.Fatalf("range status = %d", rec.Code)
	}
	if rec.Body.String() != "2345" {
		t.Errorf("range body = %q", rec.Body.String())
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 2-5/10" {
		t.Errorf("content-range = %q", got)
	}

	req = httptest.NewRequest(http.MethodHead, "/direct_url?video_id=x", nil)
	rec = httptest.NewRecorder()
	ServeCachedMP4(rec, req, path, 95)
	if rec.Code != http.StatusOK || rec.Body.Len() != 0 {
		t.Errorf("HEAD: status %d body %d bytes", rec.Code, rec.Body.Len())
	}
	if rec.Header().Get("Content-Length") != "10" {
		t.Errorf("HEAD content-length = %q", rec.Header().Get("Content-Length"))
	}
}

func TestThumbnailFallsBackToMedium(t *testing.T) {
	var paths []string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/vid1/maxresdefault.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpegbytes"))
	}))
	defer upstream.Close()
	setupEnv(t)

	oldBase := thumbBase
	thumbBase = upstream.URL
	t.Cleanup(func() { thumbBase = oldBase })

	data, ct, err := Thumbnail(context.Background(), "vid1", "maxres")
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "jpegbytes" || ct != "image/jpeg" {
		t.Errorf("got %q %q", data, ct)
	}
	if len(paths) != 2 || paths[1] != "/vid1/mqdefault.jpg" {
		t.Errorf("request paths = %v", paths)
	}

	// Second call must come from cache.
	if _, _, err := Thumbnail(context.Background(), "vid1", "maxres"); err != nil {
		t.Fatal(err)
	}
	if len(paths) != 2 {
		t.Errorf("cache miss: %d upstream requests", len(paths))
	}
}

func TestChannelIconDirectURL(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/avatar/s88-photo.jpg" {
			t.Errorf("path = %s, want s900 shrunk to s88", r.URL.Path)
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("pngbytes"))
	}))
	defer upstream.Close()
	setupEnv(t)

	input := url.QueryEscape(upstream.URL + "/avatar/s900-photo.jpg")
	data, ct, err := ChannelIcon(context.Background(), input)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "pngbytes" || ct != "image/png" {
		t.Errorf("got %q %q", data, ct)
	}
}

func TestCanonicalChannelID(t *testing.T) {
	cases := []struct {
		name string
		page string
		want string
	}{
		{
			"canonical link",
			`<html><head><link rel="canonical" href="https://www.youtube.com/channel/UCabcdefghijklmnopqrst"></head></html>`,
			"UCabcdefghijklmnopqrst",
		},
		{
			"og url meta",
			`<html><head><meta property="og:url" content="https://www.youtube.com/channel/UCabcdefghijklmnopqrst"/></head></html>`,
			"UCabcdefghijklmnopqrst",
		},
		{
			"canonical points at handle",
			`<html><head><link rel="canonical" href="https://www.youtube.com/@someone"></head></html>`,
			"",
		},
		{"no head", `<html><body>nothing here</body></html>`, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := canonicalChannelID([]byte(tc.page)); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCookiePaths(t *testing.T) {
	setupEnv(t)
	dir := engine.Cfg.CookiesDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"main.txt", "backup.txt", "notes.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("# cookies"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	paths := CookiePaths()
	if len(paths) != 2 {
		t.Fatalf("got %d cookie files: %v", len(paths), paths)
	}
}

func TestCleanTempFiles(t *testing.T) {
	setupEnv(t)
	dir := TempDir()
	old := time.Now().Add(-2 * time.Hour)

	stale := filepath.Join(dir, "yt_api_video_1_1.mp4")
	fresh := filepath.Join(dir, "yt_api_video_2_2.3gp")
	other := filepath.Join(dir, "unrelated.mp4")
	for _, p := range []string{stale, fresh, other} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(other, old, old); err != nil {
		t.Fatal(err)
	}

	staleHLS := HLSCachePath("oldvid", 360)
	if err := os.WriteFile(staleHLS, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	dayOld := time.Now().Add(-25 * time.Hour)
	if err := os.Chtimes(staleHLS, dayOld, dayOld); err != nil {
		t.Fatal(err)
	}

	CleanTempFiles()

	for p, wantGone := range map[string]bool{stale: true, fresh: false, other: false, staleHLS: true} {
		_, err := os.Stat(p)
		gone := os.IsNotExist(err)
		if gone != wantGone {
			t.Errorf("%s: gone=%v want %v", filepath.Base(p), gone, wantGone)
		}
	}
}

func TestHLSCachePath(t *testing.T) {
	setupEnv(t)
	p := HLSCachePath("abc", 720)
	want := filepath.Join(TempDir(), hlsCacheDirName, "abc_720.mp4")
	if p != want {
		t.Errorf("path = %q want %q", p, want)
	}
	if _, err := os.Stat(filepath.Dir(p)); err != nil {
		t.Errorf("cache dir not created: %v", err)
	}
}

