package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// Dataset groups ingested records. Unique per (name, owner).
type Dataset struct {
	gorm.Model
	Name        string `gorm:"not null;size:255;uniqueIndex:idx_datasets_name_owner" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	OwnerID     uint   `gorm:"not null;default:0;uniqueIndex:idx_datasets_name_owner" json:"owner_id"`

	// Counters refreshed after each committed batch
	TotalRecords      int `gorm:"not null;default:0" json:"total_records"`
	CleanedRecords    int `gorm:"not null;default:0" json:"cleaned_records"`
	ClassifiedRecords int `gorm:"not null;default:0" json:"classified_records"`
}

// TableName returns the table name for the Dataset model
func (Dataset) TableName() string {
	return "datasets"
}

// BeforeSave normalizes the dataset name
func (d *Dataset) BeforeSave(tx *gorm.DB) error {
	d.Name = strings.TrimSpace(d.Name)
	return nil
}

// DatasetStatistics is the single-row dashboard summary across all datasets
type DatasetStatistics struct {
	ID               uint      `gorm:"primaryKey" json:"-"`
	TotalRawUpload   int64     `json:"total_raw_upload"`
	TotalRawScraper  int64     `json:"total_raw_scraper"`
	TotalCleanUpload int64     `json:"total_clean_upload"`
	TotalCleanScrape int64     `gorm:"column:total_clean_scraper" json:"total_clean_scraper"`
	TotalClassified  int64     `json:"total_classified"`
	TotalRadical     int64     `gorm:"column:total_radikal" json:"total_radikal"`
	TotalNonRadical  int64     `gorm:"column:total_non_radikal" json:"total_non_radikal"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// TableName returns the table name for DatasetStatistics
func (DatasetStatistics) TableName() string {
	return "dataset_statistics"
}

// StatisticsRowID is the primary key of the only statistics row
const StatisticsRowID uint = 1
