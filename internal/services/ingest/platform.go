package ingest

import (
	"net/url"
	"strings"

	"github.com/killallgit/waskita-api/internal/models"
	"github.com/killallgit/waskita-api/internal/services/normalizer"
)

var platformHosts = []struct {
	host     string
	platform string
}{
	{"twitter.com", models.PlatformTwitter},
	{"x.com", models.PlatformTwitter},
	{"facebook.com", models.PlatformFacebook},
	{"fb.com", models.PlatformFacebook},
	{"instagram.com", models.PlatformInstagram},
	{"tiktok.com", models.PlatformTikTok},
}

// DetectPlatform infers the platform from a post URL, falling back to manual
func DetectPlatform(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return models.PlatformManual
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return models.PlatformManual
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range platformHosts {
		if host == h.host || strings.HasSuffix(host, "."+h.host) {
			return h.platform
		}
	}
	return models.PlatformManual
}

// Engagement holds the universal engagement counters
type Engagement struct {
	Likes    int64 `json:"likes"`
	Retweets int64 `json:"retweets"`
	Replies  int64 `json:"replies"`
	Comments int64 `json:"comments"`
	Shares   int64 `json:"shares"`
	Views    int64 `json:"views"`
}

// engagementKeys lists source keys per counter; platform-specific keys come first
var engagementKeys = []struct {
	keys []string
	set  func(e *Engagement, n int64)
}{
	{[]string{"diggCount", "likes", "likeCount", "likesCount", "favorite_count", "favoriteCount"}, func(e *Engagement, n int64) { e.Likes = n }},
	{[]string{"retweets", "retweetCount", "retweet_count"}, func(e *Engagement, n int64) { e.Retweets = n }},
	{[]string{"replies", "replyCount", "reply_count"}, func(e *Engagement, n int64) { e.Replies = n }},
	{[]string{"commentCount", "comments", "commentsCount"}, func(e *Engagement, n int64) { e.Comments = n }},
	{[]string{"shareCount", "shares", "sharesCount"}, func(e *Engagement, n int64) { e.Shares = n }},
	{[]string{"playCount", "views", "viewCount", "videoViewCount", "viewsCount"}, func(e *Engagement, n int64) { e.Views = n }},
}

// EngagementFromRow reads the counters from a flattened row. Unparseable values count as zero.
func EngagementFromRow(row map[string]any) Engagement {
	var e Engagement
	for _, ek := range engagementKeys {
		for _, k := range ek.keys {
			if n, ok := normalizer.ParseCount(row[k]); ok {
				ek.set(&e, n)
				break
			}
		}
	}
	return e
}
