package types

// ScrapeRequest starts a scrape job
type ScrapeRequest struct {
	Platform       string         `json:"platform" binding:"required" example:"twitter"`
	Keyword        string         `json:"keyword" binding:"required" example:"radikalisme"`
	DateFrom       string         `json:"date_from,omitempty" example:"2024-01-01"` // YYYY-MM-DD
	DateTo         string         `json:"date_to,omitempty" example:"2024-01-31"`   // YYYY-MM-DD
	MaxResults     int            `json:"max_results,omitempty" example:"25"`
	DatasetName    string         `json:"dataset_name,omitempty" example:"Scraper Data Twitter - radikalisme"`
	Description    string         `json:"description,omitempty"`
	PlatformParams map[string]any `json:"platform_params,omitempty" swaggertype:"object"`
}

// MappingRequest commits a column mapping for staged scrape results
type MappingRequest struct {
	Token          string `json:"token" binding:"required" example:"3f1c9a2e-6a3b-4e0f-9d9e-1f2a3b4c5d6e"`
	ContentColumn  string `json:"content_column" binding:"required" example:"text"`
	UsernameColumn string `json:"username_column,omitempty" example:"author"`
	URLColumn      string `json:"url_column,omitempty" example:"url"`
}

// CorrectionRequest overrides a model prediction
type CorrectionRequest struct {
	Label string `json:"label" binding:"required" example:"radikal"`
}
