package models

import (
	"time"

	"gorm.io/gorm"
)

// ClassificationResult is one model's verdict on one CleanRecord.
// (data_type, data_id, model_name) is unique.
type ClassificationResult struct {
	gorm.Model
	DataType  DataSource `gorm:"not null;size:16;uniqueIndex:idx_classification_triple" json:"data_type"`
	DataID    uint       `gorm:"not null;uniqueIndex:idx_classification_triple" json:"data_id"`
	ModelName string     `gorm:"not null;size:64;uniqueIndex:idx_classification_triple" json:"model_name"`

	Prediction     string  `gorm:"not null;size:32" json:"prediction"`
	ProbRadical    float64 `gorm:"column:probability_radikal" json:"probability_radikal"`
	ProbNonRadical float64 `gorm:"column:probability_non_radikal" json:"probability_non_radikal"`
	// Unclassifiable marks results produced by the zero-vector policy rather than a model
	Unclassifiable bool `gorm:"not null;default:false" json:"unclassifiable"`

	IsCorrected         bool       `gorm:"not null;default:false" json:"is_corrected"`
	CorrectedPrediction string     `gorm:"size:32" json:"corrected_prediction,omitempty"`
	CorrectedBy         *uint      `json:"corrected_by,omitempty"`
	CorrectedAt         *time.Time `json:"corrected_at,omitempty"`
}

// TableName returns the table name for ClassificationResult
func (ClassificationResult) TableName() string {
	return "classification_results"
}

// FinalPrediction returns the manual correction when present
func (c *ClassificationResult) FinalPrediction() string {
	if c.IsCorrected && c.CorrectedPrediction != "" {
		return c.CorrectedPrediction
	}
	return c.Prediction
}

// IsValidLabel reports whether label is a known classification label
func IsValidLabel(label string) bool {
	return label == LabelRadical || label == LabelNonRadical
}
