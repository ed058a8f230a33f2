package mapping

import (
	"context"
	"time"

	"github.com/killallgit/waskita-api/internal/models"
	"github.com/killallgit/waskita-api/internal/services/ingest"
)

const (
	// SchemaScanRows is how many rows contribute to the column list
	SchemaScanRows = 20
	// SampleRowCount is how many rows are returned as a preview
	SampleRowCount = 5
)

// StageContext is the scrape request a staged result set came from
type StageContext struct {
	JobID       uint   `json:"job_id,omitempty"`
	DatasetID   uint   `json:"dataset_id"`
	DatasetName string `json:"dataset_name,omitempty"`
	OwnerID     uint   `json:"owner_id"`
	Platform    string `json:"platform"`
	Keyword     string `json:"keyword"`
	DateFrom    string `json:"date_from,omitempty"`
	DateTo      string `json:"date_to,omitempty"`
	RunID       string `json:"run_id,omitempty"`
}

// Candidates lists columns likely to hold each core value, best first
type Candidates struct {
	Content  []string `json:"content"`
	Username []string `json:"username"`
	URL      []string `json:"url"`
	Date     []string `json:"date"`
}

// Schema describes a staged result set so a caller can choose a mapping
type Schema struct {
	Token      string           `json:"token"`
	Columns    []string         `json:"columns"`
	SampleRows []map[string]any `json:"sample_rows"`
	TotalItems int              `json:"total_items"`
	Candidates Candidates       `json:"candidates"`
	Context    StageContext     `json:"context"`
	ExpiresAt  time.Time        `json:"expires_at"`
}

// Mapping selects the columns to read core fields from
type Mapping struct {
	ContentColumn  string `json:"content_column"`
	UsernameColumn string `json:"username_column,omitempty"`
	URLColumn      string `json:"url_column,omitempty"`
}

// CommitResult reports the outcome of applying a mapping
type CommitResult struct {
	Added        int               `json:"written_count"`
	Skipped      int               `json:"skipped_count"`
	Failed       int               `json:"failed_count"`
	Errors       []ingest.RowError `json:"errors,omitempty"`
	DatasetID    uint              `json:"dataset_id"`
	TotalRecords int               `json:"total_records"`
	Context      StageContext      `json:"-"`
}

// payload is what the pending store holds for one token
type payload struct {
	Context    StageContext     `json:"context"`
	Rows       []map[string]any `json:"rows"`
	Candidates Candidates       `json:"candidates"`
	StagedAt   time.Time        `json:"staged_at"`
	ExpiresAt  time.Time        `json:"expires_at"`
}

// RecordWriter persists mapped rows
type RecordWriter interface {
	Write(ctx context.Context, inputs []ingest.RecordInput, target ingest.WriteTarget) (*ingest.WriteResult, error)
}

// DatasetReader looks up dataset counters after a commit
type DatasetReader interface {
	GetDataset(ctx context.Context, id uint) (*models.Dataset, error)
}
