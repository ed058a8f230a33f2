package apify

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/killallgit/waskita-api/internal/models"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
)

const dateLayout = "2006-01-02"

// Date window used for twitter searches without an explicit range
const (
	defaultTwitterSince = "2021-12-31_23:59:59_UTC"
	defaultTwitterUntil = "2024-12-31_23:59:59_UTC"
)

// Per-platform caps enforced by the actors
const (
	instagramSearchLimitCap  = 50
	instagramResultsLimitCap = 100
	tiktokResultsPerPageCap  = 100
)

// Normalize validates req in place: platform is lowercased, the keyword trimmed,
// and max results outside 1..1000 fall back to the default.
func (req *StartRequest) Normalize() error {
	req.Platform = strings.ToLower(strings.TrimSpace(req.Platform))
	if !models.IsScrapePlatform(req.Platform) {
		return apperrors.ValidationError("platform",
			fmt.Sprintf("must be one of %s", strings.Join(models.ScrapePlatforms, ", ")))
	}

	req.Keyword = strings.TrimSpace(req.Keyword)
	if req.Keyword == "" {
		return apperrors.ValidationError("keyword", "keyword is required")
	}

	if req.MaxResults < 1 || req.MaxResults > MaxResultsLimit {
		req.MaxResults = DefaultMaxResults
	}

	var from, to time.Time
	var err error
	if req.DateFrom = strings.TrimSpace(req.DateFrom); req.DateFrom != "" {
		if from, err = time.Parse(dateLayout, req.DateFrom); err != nil {
			return apperrors.ValidationError("date_from", "expected format YYYY-MM-DD")
		}
	}
	if req.DateTo = strings.TrimSpace(req.DateTo); req.DateTo != "" {
		if to, err = time.Parse(dateLayout, req.DateTo); err != nil {
			return apperrors.ValidationError("date_to", "expected format YYYY-MM-DD")
		}
	}
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return apperrors.ValidationError("date_from", "must not be after date_to")
	}
	return nil
}

// BuildActorInput shapes the actor input for the request's platform.
// req must already be normalized.
func BuildActorInput(req StartRequest) map[string]any {
	switch req.Platform {
	case models.PlatformTwitter:
		return twitterInput(req)
	case models.PlatformFacebook:
		return facebookInput(req)
	case models.PlatformInstagram:
		return instagramInput(req)
	case models.PlatformTikTok:
		return tiktokInput(req)
	default:
		return map[string]any{
			"searchTerms": []string{req.Keyword},
			"maxItems":    req.MaxResults,
		}
	}
}

var twitterFilters = []string{
	"blue_verified", "consumer_video", "has_engagement", "hashtags", "images", "links",
	"media", "mentions", "native_video", "nativeretweets", "news", "pro_video", "quote",
	"replies", "safe", "spaces", "twimg", "videos", "vine",
}

func twitterInput(req StartRequest) map[string]any {
	input := make(map[string]any, len(twitterFilters)+6)
	for _, f := range twitterFilters {
		input["filter:"+f] = false
	}
	input["include:nativeretweets"] = true
	input["lang"] = "in"
	input["maxItems"] = req.MaxResults
	input["searchTerms"] = []string{req.Keyword}

	input["since"] = defaultTwitterSince
	if req.DateFrom != "" {
		input["since"] = req.DateFrom + "_00:00:00_UTC"
	}
	input["until"] = defaultTwitterUntil
	if req.DateTo != "" {
		input["until"] = req.DateTo + "_23:59:59_UTC"
	}
	return input
}

func facebookInput(req StartRequest) map[string]any {
	return map[string]any{
		"startUrls": []map[string]string{
			{"url": "https://www.facebook.com/search/posts/?q=" + url.QueryEscape(req.Keyword)},
		},
		"resultsLimit":       req.MaxResults,
		"scrapeComments":     false,
		"scrapeReactions":    true,
		"onlyPostsFromPages": false,
		"useApifyProxy":      true,
		"apifyProxyGroups":   []string{"RESIDENTIAL"},
		"maxRequestRetries":  3,
		"requestTimeoutSecs": 60,
	}
}

func instagramInput(req StartRequest) map[string]any {
	input := map[string]any{
		"search":       req.Keyword,
		"searchType":   "hashtag",
		"searchLimit":  min(req.MaxResults, instagramSearchLimitCap),
		"resultsType":  "posts",
		"resultsLimit": min(req.MaxResults, instagramResultsLimitCap),
	}

	p := req.PlatformParams
	if s, ok := paramString(p, "search"); ok {
		input["search"] = s
	}
	if s, ok := paramString(p, "search_type", "searchType"); ok {
		input["searchType"] = s
	}
	if s, ok := paramString(p, "results_type", "resultsType"); ok {
		input["resultsType"] = s
	}
	if n, ok := paramInt(p, "search_limit", "searchLimit"); ok && n > 0 {
		input["searchLimit"] = min(n, instagramSearchLimitCap)
	}
	if n, ok := paramInt(p, "results_limit", "resultsLimit"); ok && n > 0 {
		input["resultsLimit"] = min(n, instagramResultsLimitCap)
	}
	if s, ok := paramString(p, "direct_url", "directUrl"); ok {
		input["directUrls"] = []string{s}
	}
	if b, ok := p["add_parent_data"].(bool); ok {
		input["addParentData"] = b
	}
	return input
}

func tiktokInput(req StartRequest) map[string]any {
	return map[string]any{
		"hashtags":                      []string{strings.ReplaceAll(req.Keyword, "#", "")},
		"resultsPerPage":                min(req.MaxResults, tiktokResultsPerPageCap),
		"proxyCountryCode":              "US",
		"shouldDownloadCovers":          false,
		"shouldDownloadSlideshowImages": false,
		"shouldDownloadSubtitles":       false,
		"shouldDownloadVideos":          false,
	}
}

func paramString(p map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := p[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}

func paramInt(p map[string]any, keys ...string) (int, bool) {
	for _, k := range keys {
		switch v := p[k].(type) {
		case int:
			return v, true
		case int64:
			return int(v), true
		case float64:
			return int(v), true
		}
	}
	return 0, false
}
