package types

import (
	"github.com/killallgit/waskita-api/internal/models"
	"github.com/killallgit/waskita-api/internal/services/mapping"
	"github.com/killallgit/waskita-api/internal/services/progress"
)

// Status constants for API responses
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusAccepted = "accepted"
)

// BaseResponse contains fields common to all API responses
type BaseResponse struct {
	Status  string `json:"status"`            // One of the Status constants above
	Message string `json:"message,omitempty"` // Human-readable message
}

// ErrorResponse for detailed error information
type ErrorResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`   // Error code
	Details interface{} `json:"details,omitempty"` // Additional error details
}

// ScrapeStartResponse is returned once a scrape job has been queued
type ScrapeStartResponse struct {
	BaseResponse
	JobID       uint   `json:"job_id"`
	DatasetID   uint   `json:"dataset_id"`
	DatasetName string `json:"dataset_name"`
	JobStatus   string `json:"job_status"`
}

// ScrapeJobResponse describes a job and the progress of its remote run
type ScrapeJobResponse struct {
	BaseResponse
	Job      *models.ScrapeJob  `json:"job"`
	Progress *progress.Progress `json:"progress,omitempty"`
}

// ScrapeJobsResponse lists jobs
type ScrapeJobsResponse struct {
	BaseResponse
	Jobs   []models.ScrapeJob `json:"jobs"`
	Count  int                `json:"count"`
	Total  int64              `json:"total"`
	Offset int                `json:"offset,omitempty"`
}

// MappingResponse reports the records written by a committed mapping
type MappingResponse struct {
	BaseResponse
	mapping.CommitResult
	JobID uint `json:"job_id,omitempty"`
}

// DatasetResponse for a single dataset
type DatasetResponse struct {
	BaseResponse
	Dataset *models.Dataset `json:"dataset"`
}

// DatasetsResponse lists datasets
type DatasetsResponse struct {
	BaseResponse
	Datasets []models.Dataset `json:"datasets"`
	Count    int              `json:"count"`
	Total    int64            `json:"total"`
	Offset   int              `json:"offset,omitempty"`
}

// ClassificationsResponse lists classification results
type ClassificationsResponse struct {
	BaseResponse
	Results []models.ClassificationResult `json:"results"`
	Count   int                           `json:"count"`
	Total   int64                         `json:"total"`
	Offset  int                           `json:"offset,omitempty"`
}

// StatisticsResponse for the dashboard summary
type StatisticsResponse struct {
	BaseResponse
	Statistics *models.DatasetStatistics `json:"statistics"`
}

// HealthResponse for health check endpoint
type HealthResponse struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Database  map[string]interface{} `json:"database"`
}
