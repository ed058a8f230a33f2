package upload

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/killallgit/waskita-api/internal/models"
	"github.com/killallgit/waskita-api/internal/services/ingest"
	"github.com/killallgit/waskita-api/internal/services/normalizer"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
	"github.com/killallgit/waskita-api/pkg/logger"
)

// Header names tried when a column is not chosen explicitly, in preference order
var (
	contentKeys  = concat(normalizer.GenericContentKeys, []string{"tweet", "konten", "isi", "teks", "post"})
	usernameKeys = concat(normalizer.GenericUsernameKeys, []string{"akun", "pengguna"})
)

func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	return append(append(out, a...), b...)
}

// Request is one uploaded file plus optional overrides
type Request struct {
	Filename       string
	Data           []byte
	DatasetName    string
	Description    string
	OwnerID        uint
	ContentColumn  string
	UsernameColumn string
	URLColumn      string
	// Platform overrides per-row detection from the URL column
	Platform string
}

// Result summarizes an ingested upload
type Result struct {
	DatasetID      uint              `json:"dataset_id"`
	DatasetName    string            `json:"dataset_name"`
	DatasetCreated bool              `json:"dataset_created"`
	Columns        []string          `json:"columns"`
	ContentColumn  string            `json:"content_column"`
	UsernameColumn string            `json:"username_column,omitempty"`
	URLColumn      string            `json:"url_column,omitempty"`
	TotalRows      int               `json:"total_rows"`
	Written        int               `json:"written_count"`
	Skipped        int               `json:"skipped_count"`
	Failed         int               `json:"failed_count"`
	Errors         []ingest.RowError `json:"errors,omitempty"`
}

// DatasetFinder resolves the target dataset
type DatasetFinder interface {
	FindOrCreate(ctx context.Context, name string, ownerID uint, description string) (*models.Dataset, bool, error)
}

// RecordWriter persists rows
type RecordWriter interface {
	Write(ctx context.Context, inputs []ingest.RecordInput, target ingest.WriteTarget) (*ingest.WriteResult, error)
}

// Service ingests uploaded files
type Service struct {
	datasets DatasetFinder
	writer   RecordWriter
	maxSize  int64
	log      logger.Logger
}

// NewService creates an upload service. maxSize <= 0 uses DefaultMaxSize.
func NewService(datasets DatasetFinder, writer RecordWriter, maxSize int64, log logger.Logger) *Service {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		datasets: datasets,
		writer:   writer,
		maxSize:  maxSize,
		log:      log.With(logger.String("service", "upload")),
	}
}

// MaxSize returns the accepted upload size in bytes
func (s *Service) MaxSize() int64 {
	return s.maxSize
}

// Ingest parses the file, resolves the dataset and writes every row
func (s *Service) Ingest(ctx context.Context, req Request) (*Result, error) {
	filename := filepath.Base(strings.TrimSpace(req.Filename))
	if filename == "" || filename == "." {
		return nil, apperrors.ValidationError("file", "filename is required")
	}
	if !SupportedExtension(filename) {
		return nil, apperrors.ValidationError("file", "only CSV, XLSX and XLS files are accepted")
	}
	if int64(len(req.Data)) > s.maxSize {
		return nil, apperrors.ValidationError("file", fmt.Sprintf("file exceeds the %d MB limit", s.maxSize>>20))
	}

	table, err := Parse(filename, req.Data)
	if err != nil {
		return nil, err
	}

	contentCol, err := resolveColumn(table.Columns, req.ContentColumn, "content_column", contentKeys)
	if err != nil {
		return nil, err
	}
	if contentCol == "" {
		return nil, apperrors.ValidationError("content_column",
			fmt.Sprintf("no content column found; choose one of: %s", strings.Join(table.Columns, ", ")))
	}
	usernameCol, err := resolveColumn(table.Columns, req.UsernameColumn, "username_column", usernameKeys)
	if err != nil {
		return nil, err
	}
	urlCol, err := resolveColumn(table.Columns, req.URLColumn, "url_column", normalizer.GenericURLKeys)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.DatasetName)
	if name == "" {
		name = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	dataset, created, err := s.datasets.FindOrCreate(ctx, name, req.OwnerID, req.Description)
	if err != nil {
		return nil, err
	}

	platform := strings.ToLower(strings.TrimSpace(req.Platform))
	inputs := make([]ingest.RecordInput, 0, len(table.Rows))
	for i, row := range table.Rows {
		in := ingest.RecordInput{
			// header is row 1
			Row:        i + 2,
			Content:    normalizer.Value(row, contentCol),
			Username:   normalizer.Value(row, usernameCol),
			URL:        normalizer.Value(row, urlCol),
			Platform:   platform,
			Engagement: ingest.EngagementFromRow(row),
		}
		if in.Platform == "" {
			in.Platform = ingest.DetectPlatform(in.URL)
		}
		inputs = append(inputs, in)
	}

	res, err := s.writer.Write(ctx, inputs, ingest.WriteTarget{
		DatasetID:        dataset.ID,
		OwnerID:          req.OwnerID,
		Source:           models.SourceUpload,
		OriginalFilename: filename,
		FileSize:         int64(len(req.Data)),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Upload ingested",
		logger.String("filename", filename),
		logger.Uint("dataset_id", dataset.ID),
		logger.Int("rows", len(table.Rows)),
		logger.Int("written", res.Written),
		logger.Int("skipped", res.Skipped))

	return &Result{
		DatasetID:      dataset.ID,
		DatasetName:    dataset.Name,
		DatasetCreated: created,
		Columns:        table.Columns,
		ContentColumn:  contentCol,
		UsernameColumn: usernameCol,
		URLColumn:      urlCol,
		TotalRows:      len(table.Rows),
		Written:        res.Written,
		Skipped:        res.Skipped,
		Failed:         res.Failed,
		Errors:         res.Errors,
	}, nil
}

// resolveColumn validates an explicit choice or guesses one from keys, matching headers case-insensitively
func resolveColumn(columns []string, explicit, field string, keys []string) (string, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		for _, c := range columns {
			if strings.EqualFold(c, explicit) {
				return c, nil
			}
		}
		return "", apperrors.ValidationError(field, fmt.Sprintf("column %q not found in file", explicit))
	}
	for _, k := range keys {
		for _, c := range columns {
			if strings.EqualFold(c, k) {
				return c, nil
			}
		}
	}
	return "", nil
}
