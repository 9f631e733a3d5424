package innertube

import (
	"net/url"
	"strings"

	"github.com/legacyprojects/ytapi/internal/engine"
)

// commentsToken finds the continuation token for the comment section in a
// watch-next response. The section is tagged comment-item-section.
func commentsToken(next engine.Node) string {
	contents := next.Get("contents", "twoColumnWatchNextResults", "results", "results", "contents")
	for _, item := range contents.Arr() {
		section := item.Get("itemSectionRenderer")
		if section.Get("sectionIdentifier").Str() != "comment-item-section" {
			continue
		}
		for _, content := range section.Get("contents").Arr() {
			token := content.Get("continuationItemRenderer", "continuationEndpoint", "continuationCommand", "token").Str()
			if token != "" {
				return token
			}
		}
	}
	return ""
}

// extractComments walks a response for commentEntityPayload objects, the
// shape both the watch-next and continuation responses use. Avatar URLs are
// rewritten through the icon proxy on base.
func extractComments(data engine.Node, base string) []engine.Comment {
	var comments []engine.Comment
	for _, p := range data.FindAll("commentEntityPayload") {
		props := p.Get("properties")

		author := strings.TrimSpace(p.Get("author", "displayName").Str())
		if author == "" {
			author = "Unknown"
		}

		content := props.Get("content")
		text := content.Get("content").Str()
		if text == "" {
			var sb strings.Builder
			for _, run := range content.Get("runs").Arr() {
				sb.WriteString(run.Get("text").Str())
			}
			text = sb.String()
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		published := engine.TranslateRussianTime(props.Get("publishedTime").StrOr("unknown"))

		avatar := p.Get("avatar", "image", "sources", 0, "url").Str()
		authorThumb := ""
		if avatar != "" {
			authorThumb = base + "/channel_icon/" + url.QueryEscape(avatar)
		}

		comments = append(comments, engine.Comment{
			Author:          author,
			Text:            text,
			PublishedAt:     published,
			AuthorThumbnail: authorThumb,
		})
	}
	return comments
}
