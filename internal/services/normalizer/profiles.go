package normalizer

import (
	"github.com/killallgit/waskita-api/internal/models"
)

// Generic key lists used for unknown platforms and as extra alternatives for known ones
var (
	GenericUsernameKeys = []string{
		"username", "user", "author", "userName", "ownerUsername", "screen_name", "name",
		"author.userName", "author.name", "author.username",
		"user.userName", "user.name", "user.username",
		"authorMeta.name", "authorMeta.userName",
	}
	GenericContentKeys   = []string{"text", "content", "caption", "full_text", "description", "message", "body"}
	GenericURLKeys       = []string{"url", "link", "permalink", "webVideoUrl", "shortcode", "post_url"}
	GenericCreatedAtKeys = []string{"created_at", "timestamp", "time", "createTime", "date", "published_at"}
)

var profiles = map[string]profile{
	models.PlatformTwitter: {
		username:  []string{"author.userName", "author.name", "userName", "user", "screen_name", "name"},
		content:   []string{"text", "full_text"},
		url:       []string{"url", "twitterUrl"},
		createdAt: []string{"createdAt"},
		engagement: []engagementField{
			{"retweetCount", "retweets"},
			{"replyCount", "replies"},
			{"likeCount", "likes"},
			{"quoteCount", "quotes"},
			{"viewCount", "views"},
			{"bookmarkCount", "bookmarks"},
		},
		metadata: []string{"source", "lang", "isReply", "isQuote", "isPinned", "author.profilePicture"},
		urlFromItem: func(item map[string]any) (string, string) {
			if id := scalarString(lookup(item, "id")); id != "" {
				return "constructed_url", "https://twitter.com/i/web/status/" + id
			}
			return "", ""
		},
	},
	models.PlatformFacebook: {
		username:  []string{"authorName", "author", "user", "user.name", "pageName"},
		content:   []string{"text", "message"},
		url:       []string{"url", "link", "postUrl"},
		createdAt: []string{"time", "timestamp"},
		engagement: []engagementField{
			{"likes", "likes"},
			{"comments", "comments"},
			{"shares", "shares"},
			{"reactions", "reactions"},
		},
	},
	models.PlatformInstagram: {
		username:  []string{"ownerUsername", "username", "owner", "owner.username"},
		content:   []string{"caption", "text", "description"},
		url:       []string{"url", "permalink"},
		createdAt: []string{"timestamp", "taken_at_timestamp", "date"},
		engagement: []engagementField{
			{"likesCount", "likes"},
			{"commentsCount", "comments"},
			{"videoViewCount", "views"},
		},
		metadata: []string{"type", "hashtags", "locationName"},
		urlFromItem: func(item map[string]any) (string, string) {
			if code := scalarString(lookup(item, "shortcode")); code != "" {
				return "shortcode", "https://www.instagram.com/p/" + code + "/"
			}
			return "", ""
		},
	},
	models.PlatformTikTok: {
		username:  []string{"authorMeta.name", "authorMeta.uniqueId", "author", "username", "uniqueId"},
		content:   []string{"text", "desc", "description"},
		url:       []string{"webVideoUrl", "videoUrl", "url"},
		createdAt: []string{"createTimeISO", "createTime", "timestamp"},
		engagement: []engagementField{
			{"diggCount", "likes"},
			{"shareCount", "shares"},
			{"commentCount", "comments"},
			{"playCount", "views"},
		},
		metadata: []string{"musicMeta.musicName", "videoMeta.duration"},
	},
}

// profileFor returns the platform profile, or the generic one
func profileFor(platform string) profile {
	if p, ok := profiles[platform]; ok {
		return p
	}
	return profile{
		username:  GenericUsernameKeys,
		content:   GenericContentKeys,
		url:       GenericURLKeys,
		createdAt: GenericCreatedAtKeys,
	}
}
