package engine

// DTOs served to legacy clients. Field names and optionality mirror what the
// clients already parse; do not rename without checking the devices.

type TopVideo struct {
	Title            string `json:"title"`
	Author           string `json:"author"`
	VideoID          string `json:"video_id"`
	Thumbnail        string `json:"thumbnail"`
	ChannelThumbnail string `json:"channel_thumbnail"`
	Duration         string `json:"duration"`
}

type SearchResult struct {
	Title            string `json:"title"`
	Author           string `json:"author"`
	VideoID          string `json:"video_id,omitempty"`
	ChannelID        string `json:"channel_id,omitempty"`
	PlaylistID       string `json:"playlist_id,omitempty"`
	Thumbnail        string `json:"thumbnail"`
	ChannelThumbnail string `json:"channel_thumbnail"`
	Duration         string `json:"duration,omitempty"`
	Description      string `json:"description,omitempty"`
	Views            string `json:"views,omitempty"`
	Published        string `json:"published,omitempty"`
}

type CategoryItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type PlaylistVideo struct {
	Title            string  `json:"title"`
	Author           string  `json:"author"`
	VideoID          string  `json:"video_id"`
	Thumbnail        string  `json:"thumbnail"`
	ChannelThumbnail string  `json:"channel_thumbnail"`
	Views            *string `json:"views"`
	PublishedAt      *string `json:"published_at"`
}

type PlaylistInfo struct {
	Title            string `json:"title"`
	Description      string `json:"description"`
	Thumbnail        string `json:"thumbnail"`
	ChannelTitle     string `json:"channel_title"`
	ChannelThumbnail string `json:"channel_thumbnail"`
	VideoCount       int    `json:"video_count"`
}

type PlaylistResponse struct {
	PlaylistInfo PlaylistInfo    `json:"playlist_info"`
	Videos       []PlaylistVideo `json:"videos"`
}

type ChannelInfo struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Thumbnail       string `json:"thumbnail"`
	Banner          string `json:"banner"`
	SubscriberCount string `json:"subscriber_count"`
	VideoCount      string `json:"video_count"`
}

type ChannelVideo struct {
	Title            string `json:"title"`
	Author           string `json:"author"`
	VideoID          string `json:"video_id"`
	Thumbnail        string `json:"thumbnail"`
	ChannelThumbnail string `json:"channel_thumbnail"`
	Views            string `json:"views"`
	PublishedAt      string `json:"published_at"`
	Duration         string `json:"duration"`
}

type ChannelVideosResponse struct {
	ChannelInfo ChannelInfo    `json:"channel_info"`
	Videos      []ChannelVideo `json:"videos"`
}

type Comment struct {
	Author           string  `json:"author"`
	Text             string  `json:"text"`
	PublishedAt      string  `json:"published_at"`
	AuthorThumbnail  string  `json:"author_thumbnail"`
	AuthorChannelURL *string `json:"author_channel_url"`
}

type VideoInfoResponse struct {
	Title            string    `json:"title"`
	Author           string    `json:"author"`
	SubscriberCount  string    `json:"subscriberCount"`
	ChannelCustomURL *string   `json:"channel_custom_url"`
	Description      string    `json:"description"`
	VideoID          string    `json:"video_id"`
	EmbedURL         string    `json:"embed_url"`
	Duration         string    `json:"duration"`
	PublishedAt      string    `json:"published_at"`
	Likes            *string   `json:"likes"`
	Views            *string   `json:"views"`
	CommentCount     *string   `json:"comment_count"`
	Comments         []Comment `json:"comments"`
	ChannelThumbnail string    `json:"channel_thumbnail"`
	Thumbnail        string    `json:"thumbnail"`
	VideoURL         string    `json:"video_url"`
}

type RelatedVideo struct {
	Title            string  `json:"title"`
	Author           string  `json:"author"`
	VideoID          string  `json:"video_id"`
	Views            string  `json:"views"`
	PublishedAt      string  `json:"published_at"`
	Thumbnail        string  `json:"thumbnail"`
	ChannelThumbnail string  `json:"channel_thumbnail"`
	URL              string  `json:"url"`
	Source           string  `json:"source"`
	Color            *string `json:"color"`
}

type DirectURLResponse struct {
	VideoURL string `json:"video_url"`
}

type HLSManifestURLResponse struct {
	HLSManifestURL string  `json:"hls_manifest_url"`
	VideoID        string  `json:"video_id"`
	Message        *string `json:"message"`
}

type YoutubeActionResponse struct {
	Status    string  `json:"status"`
	Action    string  `json:"action"`
	ChannelID *string `json:"channel_id"`
	VideoID   *string `json:"video_id"`
	Message   string  `json:"message"`
}

type RatingCheckResponse struct {
	Status  string `json:"status"`
	VideoID string `json:"video_id"`
	Rating  string `json:"rating"`
}

type SubscriptionCheckResponse struct {
	Status     string `json:"status"`
	ChannelID  string `json:"channel_id"`
	Subscribed bool   `json:"subscribed"`
}

type GoogleAccount struct {
	ID            *string `json:"id"`
	Name          *string `json:"name"`
	GivenName     *string `json:"given_name"`
	FamilyName    *string `json:"family_name"`
	Email         *string `json:"email"`
	VerifiedEmail *bool   `json:"verified_email"`
	Picture       *string `json:"picture"`
	Locale        *string `json:"locale"`
}

type YouTubeChannel struct {
	ID              *string `json:"id"`
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	CustomURL       *string `json:"custom_url"`
	PublishedAt     *string `json:"published_at"`
	Thumbnails      any     `json:"thumbnails"`
	Country         *string `json:"country"`
	SubscriberCount *string `json:"subscriber_count"`
	VideoCount      *string `json:"video_count"`
	ViewCount       *string `json:"view_count"`
}

type AccountInfoResponse struct {
	GoogleAccount  GoogleAccount   `json:"google_account"`
	YouTubeChannel *YouTubeChannel `json:"youtube_channel"`
}

type RecommendationItem struct {
	Title            string `json:"title"`
	Author           string `json:"author"`
	VideoID          string `json:"video_id"`
	Thumbnail        string `json:"thumbnail"`
	ChannelThumbnail string `json:"channel_thumbnail"`
	Duration         string `json:"duration"`
}

type SubscriptionItem struct {
	ChannelID      string `json:"channel_id"`
	Title          string `json:"title"`
	Thumbnail      string `json:"thumbnail"`
	LocalThumbnail string `json:"local_thumbnail"`
	ProfileURL     string `json:"profile_url"`
}

type SubscriptionsResponse struct {
	Status        string             `json:"status"`
	Count         int                `json:"count"`
	Subscriptions []SubscriptionItem `json:"subscriptions"`
}

type HistoryItem struct {
	VideoID          string `json:"video_id"`
	Title            string `json:"title"`
	Author           string `json:"author"`
	Views            string `json:"views"`
	Duration         string `json:"duration"`
	WatchedAt        string `json:"watched_at"`
	Thumbnail        string `json:"thumbnail"`
	ChannelThumbnail string `json:"channel_thumbnail"`
}

type InstantItem struct {
	URL string `json:"url"`
}

type InstantsResponse struct {
	Instants []InstantItem `json:"instants"`
}
