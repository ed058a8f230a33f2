// Package cleaning normalizes raw post text and promotes raw records to clean records.
package cleaning

import (
	"regexp"
	"strings"
)

var (
	urlPattern     = regexp.MustCompile(`https?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\(\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)
	mentionPattern = regexp.MustCompile(`@[A-Za-z0-9_]+`)
	hashtagPattern = regexp.MustCompile(`#[A-Za-z0-9_]+`)
	emojiPattern   = regexp.MustCompile(`[` +
		`\x{1F600}-\x{1F64F}` + // emoticons
		`\x{1F300}-\x{1F5FF}` + // symbols & pictographs
		`\x{1F680}-\x{1F6FF}` + // transport & map
		`\x{1F1E0}-\x{1F1FF}` + // flags
		`\x{2702}-\x{27B0}` +
		`\x{24C2}-\x{1F251}` +
		`]+`)
)

// asciiPunctuation is every printable ASCII symbol that is not a letter, digit or space
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Clean strips URLs, mentions, hashtags and emoji, drops ASCII punctuation, lowercases
// and collapses whitespace. It is pure and Clean(Clean(s)) == Clean(s).
func Clean(text string) string {
	if text == "" {
		return ""
	}
	text = urlPattern.ReplaceAllString(text, "")
	text = mentionPattern.ReplaceAllString(text, "")
	text = hashtagPattern.ReplaceAllString(text, "")
	text = emojiPattern.ReplaceAllString(text, "")
	text = collapseSpaces(text)
	text = strings.Map(func(r rune) rune {
		if r < 0x80 && strings.ContainsRune(asciiPunctuation, r) {
			return -1
		}
		return r
	}, text)
	text = strings.ToLower(text)
	// removing punctuation can leave double spaces behind ("a - b")
	return collapseSpaces(text)
}

// collapseSpaces joins unicode-whitespace separated fields with single spaces
func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
