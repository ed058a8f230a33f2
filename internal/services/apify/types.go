package apify

import (
	"context"
	"time"
)

// ServiceName is used in error messages and metrics
const ServiceName = "Apify"

// Default values applied by NewClient
const (
	DefaultBaseURL       = "https://api.apify.com/v2"
	DefaultTimeout       = 30 * time.Second
	DefaultMaxRetries    = 3
	DefaultRetryDelay    = 2 * time.Second
	DefaultRateLimit     = 5
	DefaultMaxWait       = 300 * time.Second
	DefaultCheckInterval = 10 * time.Second
	DefaultMaxResults    = 25
	MaxResultsLimit      = 1000
)

// DefaultActors maps each platform to the actor used when none is configured
var DefaultActors = map[string]string{
	"twitter":   "kaitoeasyapi/twitter-x-data-tweet-scraper-pay-per-result-cheapest",
	"facebook":  "apify/facebook-scraper",
	"instagram": "apify/instagram-scraper",
	"tiktok":    "clockworks/free-tiktok-scraper",
}

// Config holds configuration for the scraping service client
type Config struct {
	APIToken string
	BaseURL  string // Default: https://api.apify.com/v2
	Timeout  time.Duration

	// Retries apply only to rate limiting and transient network failures
	MaxRetries int
	RetryDelay time.Duration

	// RateLimit is the outbound request budget per second
	RateLimit int

	Actors map[string]string
	Wait   WaitOptions
}

// StartRequest describes one scrape run
type StartRequest struct {
	Platform       string         `json:"platform"`
	Keyword        string         `json:"keyword"`
	DateFrom       string         `json:"date_from,omitempty"` // YYYY-MM-DD
	DateTo         string         `json:"date_to,omitempty"`   // YYYY-MM-DD
	MaxResults     int            `json:"max_results"`
	PlatformParams map[string]any `json:"platform_params,omitempty"`
}

// RunInfo is returned when a run has been accepted
type RunInfo struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// RunStatus is the polled state of a remote run
type RunStatus struct {
	ID               string     `json:"id"`
	ActorID          string     `json:"actId"`
	Status           string     `json:"status"`
	StatusMessage    string     `json:"statusMessage,omitempty"`
	StartedAt        *time.Time `json:"startedAt"`
	FinishedAt       *time.Time `json:"finishedAt"`
	DefaultDatasetID string     `json:"defaultDatasetId"`
	Stats            RunStats   `json:"stats"`
}

// RunStats carries the subset of run statistics the pipeline reads
type RunStats struct {
	RunTimeSecs float64 `json:"runTimeSecs"`
}

// WaitOptions bounds the completion poll loop
type WaitOptions struct {
	MaxWait       time.Duration
	CheckInterval time.Duration
	// OnStatus is invoked after every successful poll
	OnStatus func(*RunStatus)
	// Cancelled is checked between polls; returning true aborts the remote run
	Cancelled func() bool
}

// ScrapeResult is the outcome of a complete start, wait and fetch cycle
type ScrapeResult struct {
	Run   *RunStatus
	Items []map[string]any
}

// JobClient is the contract the rest of the pipeline depends on
type JobClient interface {
	StartJob(ctx context.Context, req StartRequest) (*RunInfo, error)
	PollStatus(ctx context.Context, runID string) (*RunStatus, error)
	FetchResults(ctx context.Context, runID string) ([]map[string]any, error)
	AbortRun(ctx context.Context, runID string) error
	WaitForCompletion(ctx context.Context, runID string, opts WaitOptions) (*RunStatus, error)
}

// envelope wraps single-object responses
type envelope struct {
	Data RunStatus `json:"data"`
}

// DatasetInfo is the metadata of the dataset a run wrote to
type DatasetInfo struct {
	ID        string `json:"id"`
	ItemCount int    `json:"itemCount"`
}

type datasetEnvelope struct {
	Data DatasetInfo `json:"data"`
}

// errorBody is the error shape returned on non-2xx responses
type errorBody struct {
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}
