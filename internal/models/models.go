package models

// RecordStatus tracks how far a raw record has moved through the pipeline
type RecordStatus string

const (
	StatusRaw        RecordStatus = "raw"
	StatusCleaned    RecordStatus = "cleaned"
	StatusClassified RecordStatus = "classified"
)

// rank orders statuses; transitions only go up
func (s RecordStatus) rank() int {
	switch s {
	case StatusRaw:
		return 0
	case StatusCleaned:
		return 1
	case StatusClassified:
		return 2
	default:
		return -1
	}
}

// CanAdvanceTo reports whether moving from s to next keeps status monotonic
func (s RecordStatus) CanAdvanceTo(next RecordStatus) bool {
	return next.rank() > s.rank()
}

// DataSource distinguishes uploaded rows from scraped rows
type DataSource string

const (
	SourceUpload  DataSource = "upload"
	SourceScraper DataSource = "scraper"
)

// Classification labels
const (
	LabelRadical    = "radikal"
	LabelNonRadical = "non-radikal"
)

// Platform names
const (
	PlatformTwitter   = "twitter"
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
	PlatformManual    = "manual"
)

// ScrapePlatforms lists the platforms the scraping service can be asked for
var ScrapePlatforms = []string{PlatformTwitter, PlatformFacebook, PlatformInstagram, PlatformTikTok}

// IsScrapePlatform reports whether p is a supported scrape platform
func IsScrapePlatform(p string) bool {
	for _, s := range ScrapePlatforms {
		if s == p {
			return true
		}
	}
	return false
}

// All returns every persisted model in migration order
func All() []any {
	return []any{
		&Dataset{},
		&RawRecord{},
		&CleanRecord{},
		&ClassificationResult{},
		&DatasetStatistics{},
		&ScrapeJob{},
	}
}
