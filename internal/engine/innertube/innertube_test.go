package innertube

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
      - "data-key"
    disabled: []
  innertube:
    key: "it-key"
video:
  source: "direct"
  default_count: 50
`

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

	oldAPI, oldWatch := apiBase, watchBase
	apiBase = upstream.URL + "/youtubei/v1"
	watchBase = upstream.URL + "/watch"
	t.Cleanup(func() {
		apiBase = oldAPI
		watchBase = oldWatch
	})
}

func TestExtractYtcfg(t *testing.T) {
	html := []byte(`<script>ytcfg.set({"INNERTUBE_API_KEY":"page-key","INNERTUBE_CONTEXT":{"client":{"clientName":"WEB","clientVersion":"2.20250101"}}});</script>`)
	cfg := ExtractYtcfg(html)
	if got := cfg.Get("INNERTUBE_API_KEY").Str(); got != "page-key" {
		t.Errorf("key = %q", got)
	}

	empty := ExtractYtcfg([]byte("<html>no config</html>"))
	if empty.Get("INNERTUBE_API_KEY").Exists() {
		t.Error("expected empty node for html without ytcfg")
	}
}

func TestExtractPlayerResponse(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"assignment", `var ytInitialPlayerResponse = {"videoDetails":{"videoId":"abc"}};`},
		{"window index", `window['ytInitialPlayerResponse'] = {"videoDetails":{"videoId":"abc"}};`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pr := ExtractPlayerResponse([]byte(tt.html))
			if got := pr.Get("videoDetails", "videoId").Str(); got != "abc" {
				t.Errorf("videoId = %q", got)
			}
		})
	}
}

func TestWatchContextForcesLocale(t *testing.T) {
	html := []byte(`ytcfg.set({"INNERTUBE_API_KEY":"page-key","INNERTUBE_CONTEXT":{"client":{"clientName":"WEB","gl":"RU","hl":"ru"}}});`)
	key, ctx := watchContext(html)
	if key != "page-key" {
		t.Errorf("key = %q", key)
	}
	client := ctx["client"].(map[string]any)
	if client["gl"] != "US" || client["hl"] != "en-US" {
		t.Errorf("client locale = %v", client)
	}
}

func TestParseVideoRenderer(t *testing.T) {
	raw := map[string]any{
		"videoId": "vid1",
		"title":   map[string]any{"runs": []any{map[string]any{"text": "A "}, map[string]any{"text": "Title"}}},
		"ownerText": map[string]any{
			"runs": []any{map[string]any{
				"text": "Some Channel",
				"navigationEndpoint": map[string]any{
					"browseEndpoint": map[string]any{"browseId": "UCowner"},
				},
			}},
		},
		"lengthText":        map[string]any{"simpleText": "10:01"},
		"viewCountText":     map[string]any{"simpleText": "1,234 views"},
		"publishedTimeText": map[string]any{"simpleText": "2 days ago"},
	}
	r, ok := parseVideoRenderer(engine.N(raw), "http://localhost:2823")
	if !ok {
		t.Fatal("expected a result")
	}
	if r.Title != "A Title" || r.Author != "Some Channel" {
		t.Errorf("title/author = %q/%q", r.Title, r.Author)
	}
	if r.ChannelID != "UCowner" {
		t.Errorf("channel id = %q", r.ChannelID)
	}
	if r.ChannelThumbnail != "http://localhost:2823/channel_icon/UCowner" {
		t.Errorf("channel thumbnail = %q", r.ChannelThumbnail)
	}
	if r.Duration != "10:01" {
		t.Errorf("duration = %q", r.Duration)
	}

	// Missing owner endpoint falls back to the bare channelId field, and
	// missing channel entirely points the icon at the video id.
	delete(raw, "ownerText")
	r, _ = parseVideoRenderer(engine.N(raw), "http://localhost:2823")
	if r.ChannelThumbnail != "http://localhost:2823/channel_icon/vid1" {
		t.Errorf("fallback channel thumbnail = %q", r.ChannelThumbnail)
	}
}

func TestSearch(t *testing.T) {
	var gotHeaders http.Header
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/youtubei/v1/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "it-key" {
			t.Errorf("key = %q", r.URL.Query().Get("key"))
		}
		gotHeaders = r.Header.Clone()
		w.Write([]byte(`{"contents":{"sectionListRenderer":{"contents":[
			{"videoRenderer":{"videoId":"v1","title":{"simpleText":"One"}}},
			{"videoRenderer":{"videoId":"v2","title":{"simpleText":"Two"}}},
			{"videoRenderer":{"videoId":"v3","title":{"simpleText":"Three"}}}
		]}}}`))
	}))
	defer upstream.Close()
	setupEnv(t, upstream)

	results, err := Search(context.Background(), "http://localhost:2823", "cats", 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want capped 2", len(results))
	}
	if gotHeaders.Get("X-Youtube-Client-Name") != "1" {
		t.Errorf("client name header = %q", gotHeaders.Get("X-Youtube-Client-Name"))
	}
	if results[0].VideoID != "v1" || results[0].Title != "One" {
		t.Errorf("first result = %+v", results[0])
	}

	// A base with a trailing slash (the request-host form) must not produce
	// double-slash proxy URLs.
	results, err = Search(context.Background(), "http://localhost:2823/", "cats", 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if results[0].Thumbnail != "http://localhost:2823/thumbnail/v1" {
		t.Errorf("thumbnail = %q", results[0].Thumbnail)
	}
	if results[0].ChannelThumbnail != "http://localhost:2823/channel_icon/v1" {
		t.Errorf("channel thumbnail = %q", results[0].ChannelThumbnail)
	}
}

func TestCommentsToken(t *testing.T) {
	next := engine.N(map[string]any{
		"contents": map[string]any{
			"twoColumnWatchNextResults": map[string]any{
				"results": map[string]any{
					"results": map[string]any{
						"contents": []any{
							map[string]any{"itemSectionRenderer": map[string]any{
								"sectionIdentifier": "related-items",
							}},
							map[string]any{"itemSectionRenderer": map[string]any{
								"sectionIdentifier": "comment-item-section",
								"contents": []any{
									map[string]any{"continuationItemRenderer": map[string]any{
										"continuationEndpoint": map[string]any{
											"continuationCommand": map[string]any{"token": "tok123"},
										},
									}},
								},
							}},
						},
					},
				},
			},
		},
	})
	if got := commentsToken(next); got != "tok123" {
		t.Errorf("token = %q", got)
	}
}

func TestExtractComments(t *testing.T) {
	data := engine.N(map[string]any{
		"frameworkUpdates": map[string]any{
			"mutations": []any{
				map[string]any{"commentEntityPayload": map[string]any{
					"author": map[string]any{"displayName": " someuser "},
					"properties": map[string]any{
						"content":       map[string]any{"content": "great video"},
						"publishedTime": "2 часа назад",
					},
					"avatar": map[string]any{"image": map[string]any{"sources": []any{
						map[string]any{"url": "https://yt3.ggpht.com/a"},
					}}},
				}},
				map[string]any{"commentEntityPayload": map[string]any{
					"properties": map[string]any{
						"content": map[string]any{"content": "   "},
					},
				}},
			},
		},
	})
	comments := extractComments(data, "http://localhost:2823")
	if len(comments) != 1 {
		t.Fatalf("got %d comments, want 1 (blank text skipped)", len(comments))
	}
	c := comments[0]
	if c.Author != "someuser" {
		t.Errorf("author = %q", c.Author)
	}
	if c.PublishedAt != "2 hours ago" {
		t.Errorf("published = %q", c.PublishedAt)
	}
	if !strings.HasPrefix(c.AuthorThumbnail, "http://localhost:2823/channel_icon/") {
		t.Errorf("thumbnail = %q", c.AuthorThumbnail)
	}
}

func TestFindLikesButtonTitle(t *testing.T) {
	next := engine.N(map[string]any{
		"contents": map[string]any{"twoColumnWatchNextResults": map[string]any{
			"results": map[string]any{"results": map[string]any{"contents": []any{
				map[string]any{"videoPrimaryInfoRenderer": map[string]any{
					"videoActions": map[string]any{"menuRenderer": map[string]any{
						"topLevelButtons": []any{map[string]any{
							"segmentedLikeDislikeButtonViewModel": map[string]any{
								"likeButtonViewModel": map[string]any{"likeButtonViewModel": map[string]any{
									"toggleButtonViewModel": map[string]any{"toggleButtonViewModel": map[string]any{
										"defaultButtonViewModel": map[string]any{"buttonViewModel": map[string]any{
											"title": "1.2K",
										}},
									}},
								}},
							},
						}},
					}},
				}},
			}}},
		}},
	})
	if got := findLikes(next); got != "1200" {
		t.Errorf("likes = %q, want 1200", got)
	}
}

func TestFindLikesAccessibilityText(t *testing.T) {
	button := engine.N(map[string]any{
		"accessibilityText": "like this video along with 4,835 other people",
	})
	if got := likesFromButton(button); got != "4835" {
		t.Errorf("likes = %q, want 4835", got)
	}
}

func TestFindLikesMicroformatFallback(t *testing.T) {
	next := engine.N(map[string]any{
		"microformat": map[string]any{"playerMicroformatRenderer": map[string]any{
			"likeCount": "777",
		}},
	})
	if got := findLikes(next); got != "777" {
		t.Errorf("likes = %q, want 777", got)
	}
}

func TestFindSubscriberCount(t *testing.T) {
	next := engine.N(map[string]any{
		"contents": map[string]any{"twoColumnWatchNextResults": map[string]any{
			"results": map[string]any{"results": map[string]any{"contents": []any{
				map[string]any{},
				map[string]any{"videoSecondaryInfoRenderer": map[string]any{
					"owner": map[string]any{"videoOwnerRenderer": map[string]any{
						"subscriberCountText": map[string]any{"simpleText": "1.5M subscribers"},
					}},
				}},
			}}},
		}},
	})
	if got := findSubscriberCount(next); got != "15000000" {
		t.Errorf("subscribers = %q, want 15000000", got)
	}
	if got := findSubscriberCount(engine.N(map[string]any{})); got != "0" {
		t.Errorf("empty = %q, want 0", got)
	}
}

func TestFindCommentsCountPanel(t *testing.T) {
	next := engine.N(map[string]any{
		"engagementPanels": []any{
			map[string]any{"engagementPanelSectionListRenderer": map[string]any{
				"panelIdentifier": "engagement-panel-comments-section",
				"header": map[string]any{"engagementPanelTitleHeaderRenderer": map[string]any{
					"contextualInfo": map[string]any{"runs": []any{map[string]any{"text": "4,321"}}},
				}},
			}},
		},
	})
	if got := findCommentsCount(engine.Node{}, next); got != "4321" {
		t.Errorf("comments = %q, want 4321", got)
	}
}

func TestParseLockup(t *testing.T) {
	lockup := engine.N(map[string]any{
		"rendererContext": map[string]any{"commandContext": map[string]any{
			"onTap": map[string]any{"innertubeCommand": map[string]any{
				"watchEndpoint": map[string]any{"videoId": "rel1"},
			}},
		}},
		"metadata": map[string]any{"lockupMetadataViewModel": map[string]any{
			"title": map[string]any{"content": "Related One"},
			"metadata": map[string]any{"contentMetadataViewModel": map[string]any{
				"metadataRows": []any{
					map[string]any{"metadataParts": []any{
						map[string]any{"text": map[string]any{"content": "Author X "}},
					}},
					map[string]any{"metadataParts": []any{
						map[string]any{"text": map[string]any{"content": "1.2M views"}},
						map[string]any{"text": map[string]any{"content": "3 weeks ago"}},
					}},
				},
			}},
		}},
		"contentImage": map[string]any{"thumbnailViewModel": map[string]any{
			"overlays": []any{
				map[string]any{"thumbnailOverlayBadgeViewModel": map[string]any{
					"thumbnailBadges": []any{
						map[string]any{"thumbnailBadgeViewModel": map[string]any{"text": "12:34"}},
					},
				}},
			},
		}},
	})
	v, ok := parseLockup(lockup)
	if !ok {
		t.Fatal("expected a video")
	}
	if v.title != "Related One" || v.channel != "Author X" {
		t.Errorf("title/channel = %q/%q", v.title, v.channel)
	}
	if v.views != "12000000" {
		t.Errorf("views = %q, want 12000000", v.views)
	}
	if v.published != "3 weeks ago" || v.duration != "12:34" {
		t.Errorf("published/duration = %q/%q", v.published, v.duration)
	}
}

func TestCleanViewsString(t *testing.T) {
	tests := []struct{ in, want string }{
		{"1.2M views", "12000000"},
		{"880K views", "880000"},
		{"1,234 views", "1234"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := cleanViewsString(tt.in); got != tt.want {
			t.Errorf("cleanViewsString(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGenerateCPN(t *testing.T) {
	a, b := GenerateCPN(), GenerateCPN()
	if len(a) != 16 || len(b) != 16 {
		t.Fatalf("lengths = %d, %d", len(a), len(b))
	}
	if a == b {
		t.Error("two nonces should differ")
	}
	for _, r := range a {
		if !strings.ContainsRune(cpnCharset, r) {
			t.Errorf("unexpected rune %q", r)
		}
	}
}

func TestExtractFeedbackToken(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"playback url", `{"playbackTracking":{"videostatsPlaybackUrl":{"baseUrl":"https://s.youtube.com/api/stats?x=1"}}}`, "https://s.youtube.com/api/stats?x=1"},
		{"token field", `{"playbackTracking":{"videostatsPlaybackUrl":{"feedbackToken":"fb1"}}}`, "fb1"},
		{"token array", `{"feedbackTokens":["fb2"]}`, "fb2"},
		{"regex fallback", `garbage "feedbackToken" : "fb3" garbage`, "fb3"},
		{"missing", `{}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractFeedbackToken([]byte(tt.body)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
