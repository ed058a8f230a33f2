// Package normalizer maps schema-less scrape results onto a canonical record shape.
//
// Third-party result schemas drift, so extraction is permissive: every item yields a
// Candidate carrying best-guess core values plus the alternative fields that were found,
// and an Extraction tag stating what is missing. Items are never dropped.
package normalizer

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// PreviewLength is the rune limit of content previews
const PreviewLength = 100

// Normalize returns one Candidate per input item, in order
func Normalize(items []map[string]any, platform string) []Candidate {
	platform = strings.ToLower(strings.TrimSpace(platform))
	out := make([]Candidate, len(items))
	for i, item := range items {
		out[i] = normalizeItem(item, platform)
	}
	return out
}

func normalizeItem(item map[string]any, platform string) (c Candidate) {
	c = Candidate{Raw: item, Platform: platform}

	defer func() {
		if r := recover(); r != nil {
			c = failed(item, platform, fmt.Sprintf("extraction panicked: %v", r))
		}
	}()

	if item == nil {
		return failed(item, platform, "item is not an object")
	}

	p := profileFor(platform)
	generic := profileFor("")

	usernames := findAll(item, p.username, generic.username)
	contents := findAll(item, p.content, generic.content)
	urls := findAll(item, p.url, generic.url)
	dates := findAll(item, p.createdAt, generic.createdAt)

	// a real URL field beats a constructed one, but a constructed one beats a bare code
	if p.urlFromItem != nil && (len(urls) == 0 || !looksLikeURL(urls[0].value)) {
		if field, u := p.urlFromItem(item); u != "" {
			urls = append([]found{{field: field, value: u}}, urls...)
		}
	}

	c.Username = first(usernames)
	c.Content = first(contents)
	c.URL = first(urls)
	c.CreatedAt = first(dates)

	c.Alternatives = Alternatives{
		Username:  toCandidates(usernames, false),
		Content:   toCandidates(contents, true),
		URL:       toCandidates(urls, false),
		CreatedAt: toCandidates(dates, false),
	}

	for _, ef := range p.engagement {
		if n, ok := ParseCount(lookup(item, ef.source)); ok {
			if c.Engagement == nil {
				c.Engagement = make(map[string]int64)
			}
			c.Engagement[ef.metric] = n
		}
	}
	for _, key := range p.metadata {
		if v := lookup(item, key); v != nil {
			if c.Metadata == nil {
				c.Metadata = make(map[string]any)
			}
			c.Metadata[key] = v
		}
	}

	var missing []string
	if c.Username == "" {
		missing = append(missing, FieldUsername)
	}
	if c.Content == "" {
		missing = append(missing, FieldContent)
	}
	if c.URL == "" {
		missing = append(missing, FieldURL)
	}
	if c.CreatedAt == "" {
		missing = append(missing, FieldCreatedAt)
	}
	if len(missing) > 0 {
		c.Extraction = Extraction{State: Partial, Missing: missing}
	} else {
		c.Extraction = Extraction{State: Complete}
	}
	return c
}

func failed(item map[string]any, platform, reason string) Candidate {
	return Candidate{
		Raw:        item,
		Platform:   platform,
		Extraction: Extraction{State: Failed, Err: reason},
	}
}

// Flatten produces the staged row for a candidate: the raw keys plus the canonical
// core and engagement keys. Raw keys win when both exist.
func Flatten(c Candidate) map[string]any {
	row := make(map[string]any, len(c.Raw)+8)
	for k, v := range c.Raw {
		row[k] = v
	}
	setDefault(row, FieldPlatform, c.Platform)
	setDefault(row, FieldUsername, c.Username)
	setDefault(row, FieldContent, c.Content)
	setDefault(row, FieldURL, c.URL)
	setDefault(row, FieldCreatedAt, c.CreatedAt)
	for metric, n := range c.Engagement {
		setDefault(row, metric, n)
	}
	if c.Extraction.State == Failed {
		row[FieldError] = c.Extraction.Err
	}
	return row
}

func setDefault(row map[string]any, key string, v any) {
	if _, ok := row[key]; !ok {
		row[key] = v
	}
}

// ContentPreview truncates s to PreviewLength runes followed by "..."
func ContentPreview(s string) string {
	if utf8.RuneCountInString(s) <= PreviewLength {
		return s
	}
	return string([]rune(s)[:PreviewLength]) + "..."
}

// ParseCount reads an engagement counter from JSON numbers or numeric strings
func ParseCount(v any) (int64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(f), true
		}
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(n), ",", "")
		if s == "" {
			return 0, false
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}

type found struct {
	field string
	value string
}

// findAll collects every non-empty scalar found under keys, then extra, without repeats
func findAll(item map[string]any, keys []string, extra []string) []found {
	seen := make(map[string]bool)
	var out []found
	for _, list := range [][]string{keys, extra} {
		for _, k := range list {
			if seen[k] {
				continue
			}
			seen[k] = true
			if s := scalarString(lookup(item, k)); s != "" {
				out = append(out, found{field: k, value: s})
			}
		}
	}
	return out
}

func first(fs []found) string {
	if len(fs) == 0 {
		return ""
	}
	return fs[0].value
}

func toCandidates(fs []found, preview bool) []FieldCandidate {
	out := make([]FieldCandidate, 0, len(fs))
	for _, f := range fs {
		v := f.value
		if preview {
			v = ContentPreview(v)
		}
		out = append(out, FieldCandidate{Field: f.field, Preview: v})
	}
	return out
}

// lookup resolves a dotted key through nested objects
func lookup(item map[string]any, key string) any {
	if v, ok := item[key]; ok {
		return v
	}
	parts := strings.Split(key, ".")
	if len(parts) == 1 {
		return nil
	}
	var cur any = item
	for _, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		if cur, ok = m[part]; !ok {
			return nil
		}
	}
	return cur
}

// scalarString renders strings, numbers and booleans; objects and arrays yield ""
func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int:
		return strconv.Itoa(s)
	case int64:
		return strconv.FormatInt(s, 10)
	case json.Number:
		return s.String()
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

func looksLikeURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Value returns the scalar under key (dotted keys address nested objects) as a trimmed string
func Value(row map[string]any, key string) string {
	if row == nil || key == "" {
		return ""
	}
	return scalarString(lookup(row, key))
}
