package upload

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	apperrors "github.com/killallgit/waskita-api/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// DefaultMaxSize is the upload limit when none is configured
const DefaultMaxSize int64 = 16 << 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Table is a parsed upload: header names and one map per data row
type Table struct {
	Columns []string
	Rows    []map[string]any
}

// SupportedExtension reports whether filename has an accepted extension
func SupportedExtension(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".xlsx", ".xls":
		return true
	}
	return false
}

// Parse reads a CSV or spreadsheet into a Table. Blank rows are dropped.
func Parse(filename string, data []byte) (*Table, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		records, err = readCSV(data)
	case ".xlsx", ".xls":
		records, err = readSpreadsheet(data)
	default:
		return nil, apperrors.ValidationError("file", "only CSV, XLSX and XLS files are accepted")
	}
	if err != nil {
		return nil, err
	}
	return toTable(records)
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	var records [][]string
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.ValidationError("file", fmt.Sprintf("malformed CSV: %v", err))
		}
		records = append(records, rec)
	}
	return records, nil
}

// readSpreadsheet reads the first sheet of a workbook
func readSpreadsheet(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, apperrors.ValidationError("file", fmt.Sprintf("unreadable spreadsheet: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.ValidationError("file", "spreadsheet has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, apperrors.ValidationError("file", fmt.Sprintf("reading sheet %q: %v", sheets[0], err))
	}
	return rows, nil
}

func toTable(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, apperrors.ValidationError("file", "file is empty")
	}

	header := records[0]
	columns := make([]string, len(header))
	used := make(map[string]int, len(header))
	for i, h := range header {
		name := strings.TrimSpace(h)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		// duplicate headers get a numeric suffix so no column is shadowed
		if n := used[name]; n > 0 {
			used[name] = n + 1
			name = fmt.Sprintf("%s_%d", name, n+1)
		} else {
			used[name] = 1
		}
		columns[i] = name
	}

	t := &Table{Columns: columns}
	for _, rec := range records[1:] {
		row := make(map[string]any, len(columns))
		blank := true
		for i, col := range columns {
			if i >= len(rec) {
				break
			}
			v := strings.TrimSpace(rec[i])
			if v != "" {
				blank = false
			}
			row[col] = v
		}
		if !blank {
			t.Rows = append(t.Rows, row)
		}
	}
	if len(t.Rows) == 0 {
		return nil, apperrors.ValidationError("file", "file has a header but no data rows")
	}
	return t, nil
}
