package classification

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/killallgit/waskita-api/internal/models"
	apperrors "github.com/killallgit/waskita-api/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestParseExportFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", FormatCSV},
		{"CSV", FormatCSV},
		{"xlsx", FormatXLSX},
		{"excel", FormatXLSX},
	}
	for _, tt := range tests {
		got, err := ParseExportFormat(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseExportFormat("pdf")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeValidation))
}

// exportFixture classifies one record with every model and a second with model1 only,
// then corrects model2 on the first record
func exportFixture(t *testing.T) (*Service, *fixture, *models.CleanRecord, *models.CleanRecord) {
	t.Helper()
	f := newFixture(t)
	svc := f.service(t, threeModels())
	ctx := context.Background()

	first := f.cleanRecord(t, "Ayo jihad serang")
	_, err := svc.ClassifyRecord(ctx, first.ID)
	require.NoError(t, err)

	second := f.cleanRecord(t, "banjir lagi")
	only := f.service(t, map[string]Classifier{"model1": fixedClassifier{label: "Non-Radikal", proba: []float64{0.75, 0.25}}})
	_, err = only.ClassifyRecord(ctx, second.ID)
	require.NoError(t, err)

	f.cleanRecord(t, "belum diklasifikasi")

	var row models.ClassificationResult
	require.NoError(t, f.db.Where("data_id = ? AND model_name = ?", first.ID, "model2").First(&row).Error)
	_, err = svc.CorrectResult(ctx, row.ID, models.LabelRadical, nil)
	require.NoError(t, err)
	return svc, f, first, second
}

func TestService_ExportResults(t *testing.T) {
	svc, f, first, second := exportFixture(t)

	export, err := svc.ExportResults(context.Background(), f.dataset)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"id", "username", "content", "url", "data_type", "platform", "created_at",
		"model1_prediction", "model1_probability_radikal", "model1_probability_non_radikal",
		"model2_prediction", "model2_probability_radikal", "model2_probability_non_radikal",
		"model3_prediction", "model3_probability_radikal", "model3_probability_non_radikal",
	}, export.Columns)
	require.Len(t, export.Rows, 2, "records without results are left out")

	row := export.Rows[0]
	assert.Equal(t, first.Content, row[2])
	assert.Equal(t, string(models.SourceScraper), row[4])
	assert.Equal(t, models.LabelRadical, row[7])
	assert.Equal(t, "90.0%", row[8])
	assert.Equal(t, "10.0%", row[9])
	assert.Equal(t, models.LabelRadical, row[10], "manual correction wins")

	row = export.Rows[1]
	assert.Equal(t, second.Content, row[2])
	assert.Equal(t, models.LabelNonRadical, row[7])
	assert.Equal(t, "25.0%", row[8])
	assert.Equal(t, []string{"-", "-", "-", "-", "-", "-"}, row[10:])
}

func TestService_ExportResults_EmptyDataset(t *testing.T) {
	f := newFixture(t)
	svc := f.service(t, threeModels())

	export, err := svc.ExportResults(context.Background(), f.dataset)
	require.NoError(t, err)
	assert.Empty(t, export.Rows)
	assert.Len(t, export.Columns, len(exportBaseColumns)+9)
}

func TestExport_Writers(t *testing.T) {
	export := &Export{
		Columns: []string{"id", "content"},
		Rows:    [][]string{{"1", "jihad, serang"}, {"2", "banjir"}},
	}

	var csvBuf bytes.Buffer
	require.NoError(t, export.WriteCSV(&csvBuf))
	require.True(t, bytes.HasPrefix(csvBuf.Bytes(), []byte{0xEF, 0xBB, 0xBF}))
	records, err := csv.NewReader(bytes.NewReader(csvBuf.Bytes()[3:])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"id", "content"}, {"1", "jihad, serang"}, {"2", "banjir"}}, records)

	var xlsxBuf bytes.Buffer
	require.NoError(t, export.WriteXLSX(&xlsxBuf))
	wb, err := excelize.OpenReader(&xlsxBuf)
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()
	assert.Equal(t, []string{ExportSheet}, wb.GetSheetList())
	rows, err := wb.GetRows(ExportSheet)
	require.NoError(t, err)
	assert.Equal(t, records, rows)
}
