package normalizer

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_PreservesCount(t *testing.T) {
	items := []map[string]any{
		{"text": "a"},
		nil,
		{"unrelated": true},
	}
	out := Normalize(items, "twitter")
	require.Len(t, out, len(items))

	assert.Equal(t, Partial, out[0].Extraction.State)
	assert.Equal(t, Failed, out[1].Extraction.State)
	assert.NotEmpty(t, out[1].Extraction.Err)
	assert.Empty(t, out[1].Content)
	assert.Equal(t, Partial, out[2].Extraction.State)
	assert.Contains(t, out[2].Extraction.Missing, FieldContent)
	assert.False(t, out[2].Extraction.OK())
}

func TestNormalize_Twitter(t *testing.T) {
	item := map[string]any{
		"id":           "1750000000000",
		"text":         "Banjir lagi di Jakarta",
		"createdAt":    "Tue Jan 23 10:00:00 +0000 2024",
		"author":       map[string]any{"userName": "warga_jkt", "name": "Warga Jakarta"},
		"retweetCount": float64(12),
		"likeCount":    float64(40),
		"lang":         "in",
	}

	c := Normalize([]map[string]any{item}, "twitter")[0]
	assert.Equal(t, Complete, c.Extraction.State)
	assert.Equal(t, "warga_jkt", c.Username)
	assert.Equal(t, "Banjir lagi di Jakarta", c.Content)
	assert.Equal(t, "https://twitter.com/i/web/status/1750000000000", c.URL)
	assert.Equal(t, int64(12), c.Engagement["retweets"])
	assert.Equal(t, int64(40), c.Engagement["likes"])
	assert.Equal(t, "in", c.Metadata["lang"])

	require.GreaterOrEqual(t, len(c.Alternatives.Username), 2)
	assert.Equal(t, "author.userName", c.Alternatives.Username[0].Field)
	assert.Equal(t, "author.name", c.Alternatives.Username[1].Field)
	assert.Equal(t, "constructed_url", c.Alternatives.URL[0].Field)
}

func TestNormalize_TwitterNumericID(t *testing.T) {
	c := Normalize([]map[string]any{{"id": json.Number("1790000000000000123"), "text": "banjir"}}, "twitter")[0]
	assert.Equal(t, "https://twitter.com/i/web/status/1790000000000000123", c.URL)
}

func TestNormalize_TwitterPrefersDirectURL(t *testing.T) {
	c := Normalize([]map[string]any{{"id": "1", "url": "https://x.com/a/status/1", "text": "t"}}, "twitter")[0]
	assert.Equal(t, "https://x.com/a/status/1", c.URL)
}

func TestNormalize_TikTok(t *testing.T) {
	item := map[string]any{
		"desc":        "video banjir",
		"webVideoUrl": "https://www.tiktok.com/@a/video/1",
		"createTime":  float64(1705000000),
		"authorMeta":  map[string]any{"name": "akun_a", "uniqueId": "a"},
		"diggCount":   float64(1000),
		"playCount":   "25,000",
	}

	c := Normalize([]map[string]any{item}, "tiktok")[0]
	assert.Equal(t, "akun_a", c.Username)
	assert.Equal(t, "video banjir", c.Content)
	assert.Equal(t, "1705000000", c.CreatedAt)
	assert.Equal(t, int64(1000), c.Engagement["likes"])
	assert.Equal(t, int64(25000), c.Engagement["views"])
}

func TestNormalize_InstagramShortcode(t *testing.T) {
	c := Normalize([]map[string]any{{
		"caption":       "caption text",
		"shortcode":     "CxYz",
		"ownerUsername": "ig_user",
		"timestamp":     "2024-01-01T00:00:00.000Z",
		"likesCount":    float64(3),
	}}, "instagram")[0]

	assert.Equal(t, "https://www.instagram.com/p/CxYz/", c.URL)
	assert.Equal(t, "ig_user", c.Username)
	assert.Equal(t, int64(3), c.Engagement["likes"])
}

func TestNormalize_GenericPlatform(t *testing.T) {
	c := Normalize([]map[string]any{{
		"body":   "isi pesan",
		"user":   map[string]any{"name": "nested"},
		"link":   "https://example.com/p/1",
		"date":   "2024-01-01",
		"nested": map[string]any{"text": "ignored"},
	}}, "forum")[0]

	assert.Equal(t, "isi pesan", c.Content)
	assert.Equal(t, "nested", c.Username)
	assert.Equal(t, "https://example.com/p/1", c.URL)
	assert.Equal(t, Complete, c.Extraction.State)
}

func TestFlatten(t *testing.T) {
	c := Normalize([]map[string]any{{
		"text":      "hello",
		"url":       "https://twitter.com/x/status/1",
		"likeCount": float64(5),
		"likes":     "raw-value",
		"author":    map[string]any{"userName": "u"},
	}}, "twitter")[0]

	row := Flatten(c)
	assert.Equal(t, "hello", row["content"])
	assert.Equal(t, "u", row["username"])
	assert.Equal(t, "twitter", row["platform"])
	assert.Equal(t, "raw-value", row["likes"], "raw keys are not overwritten")
	assert.Equal(t, float64(5), row["likeCount"])
	_, hasErr := row[FieldError]
	assert.False(t, hasErr)

	failedRow := Flatten(Normalize([]map[string]any{nil}, "twitter")[0])
	assert.NotEmpty(t, failedRow[FieldError])
	assert.Equal(t, "", failedRow["content"])
}

func TestContentPreview(t *testing.T) {
	assert.Equal(t, "short", ContentPreview("short"))

	exact := strings.Repeat("a", PreviewLength)
	assert.Equal(t, exact, ContentPreview(exact))

	long := strings.Repeat("é", PreviewLength+5)
	got := ContentPreview(long)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, PreviewLength+3, len([]rune(got)))
}

func TestParseCount(t *testing.T) {
	tests := []struct {
		in     any
		want   int64
		wantOK bool
	}{
		{float64(12), 12, true},
		{12, 12, true},
		{"1,234", 1234, true},
		{"12.7", 12, true},
		{"", 0, false},
		{"n/a", 0, false},
		{nil, 0, false},
		{map[string]any{}, 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseCount(tt.in)
		assert.Equal(t, tt.wantOK, ok, "%v", tt.in)
		assert.Equal(t, tt.want, got, "%v", tt.in)
	}
}
