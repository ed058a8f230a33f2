package classification

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/killallgit/waskita-api/internal/models"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ExportSheet is the worksheet name used for spreadsheet exports
const ExportSheet = "Classifications"

var exportBaseColumns = []string{"id", "username", "content", "url", "data_type", "platform", "created_at"}

// ParseExportFormat normalizes a requested export format. Empty means CSV.
func ParseExportFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX, "excel":
		return FormatXLSX, nil
	}
	return "", apperrors.ValidationError("format", "format must be csv or xlsx")
}

// Export is a flat table of classification results, one row per clean record and
// three columns per model
type Export struct {
	Columns []string
	Rows    [][]string
}

// ExportResults builds the export table for a dataset. Predictions honour manual
// corrections and probabilities are rendered as percentages.
func (s *Service) ExportResults(ctx context.Context, datasetID uint) (*Export, error) {
	results, _, err := s.ListResults(ctx, ResultFilters{DatasetID: datasetID})
	if err != nil {
		return nil, err
	}

	byRecord := make(map[uint]map[string]models.ClassificationResult)
	modelSet := make(map[string]bool)
	for _, name := range s.ModelNames() {
		modelSet[name] = true
	}
	for _, r := range results {
		if byRecord[r.DataID] == nil {
			byRecord[r.DataID] = make(map[string]models.ClassificationResult)
		}
		byRecord[r.DataID][r.ModelName] = r
		modelSet[r.ModelName] = true
	}
	modelNames := make([]string, 0, len(modelSet))
	for name := range modelSet {
		modelNames = append(modelNames, name)
	}
	sort.Strings(modelNames)

	ids := make([]uint, 0, len(byRecord))
	for id := range byRecord {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var records []models.CleanRecord
	if len(ids) > 0 {
		if err := s.db.WithContext(ctx).Where("id IN ?", ids).Order("id").Find(&records).Error; err != nil {
			return nil, apperrors.DatabaseError("load clean records for export", err)
		}
	}

	export := &Export{Columns: append([]string(nil), exportBaseColumns...)}
	for _, name := range modelNames {
		export.Columns = append(export.Columns,
			name+"_prediction",
			name+"_probability_radikal",
			name+"_probability_non_radikal")
	}

	for _, rec := range records {
		row := []string{
			fmt.Sprint(rec.ID),
			rec.Username,
			rec.Content,
			rec.URL,
			string(rec.Source),
			rec.Platform,
			rec.CreatedAt.UTC().Format(time.DateTime),
		}
		for _, name := range modelNames {
			r, ok := byRecord[rec.ID][name]
			if !ok {
				row = append(row, "-", "-", "-")
				continue
			}
			row = append(row, r.FinalPrediction(), percent(r.ProbRadical), percent(r.ProbNonRadical))
		}
		export.Rows = append(export.Rows, row)
	}
	return export, nil
}

func percent(p float64) string {
	return fmt.Sprintf("%.1f%%", p*100)
}

// WriteCSV writes the export as UTF-8 CSV with a byte order mark so spreadsheet
// programs pick the right encoding
func (e *Export) WriteCSV(w io.Writer) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(e.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(e.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteXLSX writes the export as a single-sheet workbook
func (e *Export) WriteXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), ExportSheet); err != nil {
		return err
	}
	write := func(rowNum int, values []string) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		row := make([]interface{}, len(values))
		for i, v := range values {
			row[i] = v
		}
		return f.SetSheetRow(ExportSheet, cell, &row)
	}
	if err := write(1, e.Columns); err != nil {
		return err
	}
	for i, r := range e.Rows {
		if err := write(i+2, r); err != nil {
			return err
		}
	}

	return f.Write(w)
}
