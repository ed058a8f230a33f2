package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultUsername replaces empty or whitespace-only usernames
const DefaultUsername = "unknown"

// RawRecord is an ingested row, either uploaded or scraped.
// DedupKey carries a unique index so duplicate content is rejected by the store itself.
type RawRecord struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DatasetID *uint      `gorm:"index" json:"dataset_id"`
	OwnerID   uint       `gorm:"not null;default:0;index" json:"owner_id"`
	Source    DataSource `gorm:"not null;size:16;index:idx_raw_source_status" json:"source"`

	Username string `gorm:"not null;size:255" json:"username"`
	Content  string `gorm:"not null;type:text" json:"content"`
	URL      string `gorm:"size:2048" json:"url"`
	Platform string `gorm:"not null;size:32" json:"platform"`
	Keyword  string `gorm:"size:255" json:"keyword,omitempty"`

	Status   RecordStatus `gorm:"not null;size:16;default:'raw';index:idx_raw_source_status" json:"status"`
	DedupKey string       `gorm:"not null;size:64;uniqueIndex" json:"-"`

	// Scrape-only fields
	ScrapeDate *time.Time `json:"scrape_date,omitempty"`
	Likes      int64      `gorm:"not null;default:0" json:"likes"`
	Retweets   int64      `gorm:"not null;default:0" json:"retweets"`
	Replies    int64      `gorm:"not null;default:0" json:"replies"`
	Comments   int64      `gorm:"not null;default:0" json:"comments"`
	Shares     int64      `gorm:"not null;default:0" json:"shares"`
	Views      int64      `gorm:"not null;default:0" json:"views"`

	// Upload-only fields
	OriginalFilename string `gorm:"size:255" json:"original_filename,omitempty"`
	FileSize         int64  `json:"file_size,omitempty"`

	Metadata datatypes.JSON `json:"metadata,omitempty"`
}

// TableName returns the table name for RawRecord
func (RawRecord) TableName() string {
	return "raw_records"
}

// BeforeCreate fills defaults and computes the dedup key
func (r *RawRecord) BeforeCreate(tx *gorm.DB) error {
	if strings.TrimSpace(r.Username) == "" {
		r.Username = DefaultUsername
	}
	if r.Status == "" {
		r.Status = StatusRaw
	}
	if r.DedupKey == "" {
		r.DedupKey = r.ComputeDedupKey()
	}
	return nil
}

// ComputeDedupKey hashes the exact-match duplicate scope of the record.
// Scraped rows are scoped by (content, dataset, platform, keyword), uploads by (content, dataset).
func (r *RawRecord) ComputeDedupKey() string {
	var dataset uint
	if r.DatasetID != nil {
		dataset = *r.DatasetID
	}
	var parts []string
	if r.Source == SourceScraper {
		parts = []string{string(r.Source), fmt.Sprint(dataset), r.Platform, r.Keyword, r.Content}
	} else {
		parts = []string{string(r.Source), fmt.Sprint(dataset), r.Content}
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x1f")))
	return hex.EncodeToString(sum[:])
}

// CleanRecord holds the normalized text derived from exactly one RawRecord
type CleanRecord struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	RawRecordID    uint       `gorm:"not null;uniqueIndex" json:"raw_record_id"`
	DatasetID      *uint      `gorm:"index" json:"dataset_id"`
	Source         DataSource `gorm:"not null;size:16" json:"source"`
	Username       string     `gorm:"size:255" json:"username"`
	Content        string     `gorm:"type:text" json:"content"`
	CleanedContent string     `gorm:"not null;type:text" json:"cleaned_content"`
	ContentHash    string     `gorm:"not null;size:64;index" json:"-"`
	URL            string     `gorm:"size:2048" json:"url"`
	Platform       string     `gorm:"size:32" json:"platform"`
	Keyword        string     `gorm:"size:255" json:"keyword,omitempty"`
}

// TableName returns the table name for CleanRecord
func (CleanRecord) TableName() string {
	return "clean_records"
}

// BeforeCreate computes the cleaned content hash used for dedup lookups
func (c *CleanRecord) BeforeCreate(tx *gorm.DB) error {
	if c.ContentHash == "" {
		c.ContentHash = HashText(c.CleanedContent)
	}
	return nil
}

// HashText returns the hex SHA-256 of s
func HashText(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
