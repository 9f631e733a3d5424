package innertube

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/legacyprojects/ytapi/internal/engine"
)

var (
	alongWithRE  = regexp.MustCompile(`along with ([\d, ]*) other`)
	digitGroupRE = regexp.MustCompile(`(\d[\d, ]*)`)
)

// likesFromButton reads a like count from a buttonViewModel, first from the
// title and then from the accessibility text.
func likesFromButton(button engine.Node) string {
	if title := button.Get("title").Str(); title != "" && strings.ContainsAny(title, "0123456789") {
		return engine.ParseHumanNumber(title)
	}
	if acc := button.Get("accessibilityText").Str(); acc != "" {
		if m := alongWithRE.FindStringSubmatch(acc); m != nil {
			return strings.NewReplacer(",", "", " ", "").Replace(m[1])
		}
		if m := digitGroupRE.FindStringSubmatch(acc); m != nil {
			return engine.ParseHumanNumber(m[1])
		}
	}
	return ""
}

// findLikes digs the like count out of the segmented like/dislike button in
// the watch-next response, falling back to the microformat and finally a
// free-text scan.
func findLikes(next engine.Node) string {
	toggle := next.Get(
		"contents", "twoColumnWatchNextResults", "results", "results", "contents", 0,
		"videoPrimaryInfoRenderer", "videoActions", "menuRenderer", "topLevelButtons", 0,
		"segmentedLikeDislikeButtonViewModel", "likeButtonViewModel", "likeButtonViewModel",
		"toggleButtonViewModel", "toggleButtonViewModel",
	)
	if toggle.Exists() {
		if likes := likesFromButton(toggle.Get("toggledButtonViewModel", "buttonViewModel")); likes != "" {
			return likes
		}
		if likes := likesFromButton(toggle.Get("defaultButtonViewModel", "buttonViewModel")); likes != "" {
			return likes
		}
	}

	if likes := next.Get("microformat", "playerMicroformatRenderer", "likeCount").Str(); likes != "" {
		return likes
	}

	return next.SearchNumberNear("like", "likes", "лайк", "лайков", "лайка")
}

// findSubscriberCount reads the owner's subscriber text from the secondary
// info renderer in the watch-next response.
func findSubscriberCount(next engine.Node) string {
	subText := next.Get(
		"contents", "twoColumnWatchNextResults", "results", "results", "contents", 1,
		"videoSecondaryInfoRenderer", "owner", "videoOwnerRenderer", "subscriberCountText",
	)
	text := subText.Get("simpleText").Str()
	if text == "" {
		text = subText.Get("runs", 0, "text").Str()
	}
	if text == "" {
		return "0"
	}
	return engine.ParseSubscriberCount(text)
}

func digitsOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// findCommentsCount prefers the comments engagement panel header, then any
// commentCountText/countText node in either response, then a free-text scan.
func findCommentsCount(player, next engine.Node) string {
	for _, panel := range next.Get("engagementPanels").Arr() {
		renderer := panel.Get("engagementPanelSectionListRenderer")
		if renderer.Get("panelIdentifier").Str() != "engagement-panel-comments-section" {
			continue
		}
		text := renderer.Get("header", "engagementPanelTitleHeaderRenderer", "contextualInfo", "runs", 0, "text").Str()
		if n := digitsOnly(text); n != "" {
			return n
		}
	}

	for _, data := range []engine.Node{player, next} {
		if !data.Exists() {
			continue
		}
		candidates := append(data.FindAll("commentCountText"), data.FindAll("countText")...)
		for _, ct := range candidates {
			text := ct.Get("simpleText").Str()
			if text == "" {
				text = ct.Get("runs", 0, "text").Str()
			}
			if n := digitsOnly(text); n != "" {
				return n
			}
		}
	}

	return next.SearchNumberNear("comment", "comments", "коммент", "коммента")
}

// VideoInfo assembles the full metadata payload for a video: watch page,
// watch-next data, comments and counters. The watch-next request reuses the
// key and context the page itself advertises.
func VideoInfo(ctx context.Context, base, videoID string) (*engine.VideoInfoResponse, error) {
	base = strings.TrimRight(base, "/")

	html, err := FetchWatchPage(ctx, videoID)
	if err != nil {
		return nil, err
	}

	player := ExtractPlayerResponse(html)
	key, itCtx := watchContext(html)

	next, err := post(ctx, "next", key, map[string]any{
		"context": itCtx,
		"videoId": videoID,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("watch next: %w", err)
	}

	// A continuation fetch yields the actual comment payloads; the first
	// response only carries the section stub.
	commentsSource := next
	if token := commentsToken(next); token != "" {
		if cont, err := post(ctx, "next", key, map[string]any{
			"context":      itCtx,
			"continuation": token,
		}, nil); err == nil {
			commentsSource = cont
		}
	}
	comments := extractComments(commentsSource, base)

	details := player.Get("videoDetails")
	micro := player.Get("microformat", "playerMicroformatRenderer")

	contents := next.Get("contents", "twoColumnWatchNextResults", "results", "results", "contents")
	primary := contents.Get(0, "videoPrimaryInfoRenderer")
	secondary := contents.Get(1, "videoSecondaryInfoRenderer")

	title := primary.Get("title").SimpleText()
	publishedAt := primary.Get("dateText").SimpleText()
	views := digitsOnly(primary.Get("viewCount", "videoViewCountRenderer", "viewCount").SimpleText())

	description := secondary.Get("attributedDescription", "content").Str()
	owner := secondary.Get("owner", "videoOwnerRenderer")
	author := owner.Get("title").SimpleText()
	channelID := owner.Get("navigationEndpoint", "browseEndpoint", "browseId").Str()
	channelThumb := owner.Get("thumbnail", "thumbnails", 0, "url").Str()

	if title == "" {
		title = details.Get("title").Str()
	}
	if author == "" {
		author = details.Get("author").StrOr(micro.Get("ownerChannelName").Str())
	}
	if description == "" {
		description = details.Get("shortDescription").StrOr(details.Get("description").Str())
	}
	if publishedAt == "" {
		publishedAt = micro.Get("publishDate").Str()
	}
	if views == "" {
		views = digitsOnly(details.Get("viewCount").Str())
	}
	if channelID == "" {
		channelID = details.Get("channelId").Str()
	}

	duration := ""
	if secs := details.Get("lengthSeconds").Int64(); secs > 0 {
		duration = fmt.Sprintf("PT%dM%dS", secs/60, secs%60)
	}

	app := engine.App()
	videoURL := ""
	if app.Video.Source == "direct" {
		videoURL = base + "/direct_url?video_id=" + videoID
	}

	var customURL *string
	if profile := micro.Get("ownerProfileUrl").Str(); profile != "" {
		if idx := strings.LastIndex(profile, "/"); idx >= 0 {
			part := profile[idx+1:]
			customURL = &part
		}
	}

	channelThumbOut := ""
	switch {
	case channelThumb != "":
		channelThumbOut = base + "/channel_icon/" + url.QueryEscape(channelThumb)
	case channelID != "":
		channelThumbOut = base + "/channel_icon/" + channelID
	}

	likes := findLikes(next)
	commentCount := findCommentsCount(player, next)
	if commentCount == "" {
		commentCount = fmt.Sprintf("%d", len(comments))
	}

	resp := &engine.VideoInfoResponse{
		Title:            engine.DecodeLabel(title),
		Author:           author,
		SubscriberCount:  findSubscriberCount(next),
		ChannelCustomURL: customURL,
		Description:      description,
		VideoID:          videoID,
		EmbedURL:         "https://www.youtube.com/embed/" + videoID,
		Duration:         duration,
		PublishedAt:      publishedAt,
		Comments:         comments,
		ChannelThumbnail: channelThumbOut,
		Thumbnail:        base + "/thumbnail/" + videoID,
		VideoURL:         videoURL,
	}
	if likes != "" {
		resp.Likes = &likes
	}
	if views != "" {
		resp.Views = &views
	}
	resp.CommentCount = &commentCount
	return resp, nil
}
