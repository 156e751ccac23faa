package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/xelth-com/scraprecon/internal/models"
	"github.com/xelth-com/scraprecon/internal/reconcile"
)

func open(t *testing.T, buf *bytes.Buffer) *excelize.File {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func raw(t *testing.T, f *excelize.File, sheet, cell string) string {
	t.Helper()
	v, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return v
}

func TestWriteRecords(t *testing.T) {
	records := []models.ObservationRecord{
		{
			ID: 2, LotID: "DEV00002", ReservationTag: "4471", Status: models.StatusConfirmed,
			ProductCode: 1001, Description: "BAR A", Quantity: 2, MeasuredWeightKg: 10,
			MeasuredLengthMM: 1300, CutLengthMM: 1000, TheoreticalWeightKg: 6, ScrapKg: 4,
		},
		{
			ID: 1, LotID: "DEV00001", ReservationTag: "4470", Status: models.StatusPending,
			ProductCode: 9999, Description: "NOT FOUND", Quantity: 1, MeasuredWeightKg: 2.5,
			MeasuredLengthMM: 700, CutLengthMM: 500, ScrapKg: 2.5,
			Warnings: []string{"product code 9999 not in reference table"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, records))
	f := open(t, &buf)

	assert.Equal(t, "Registros", f.GetSheetName(0))
	rows, err := f.GetRows("Registros")
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, recordHeadings, rows[0])

	assert.Equal(t, "4471", raw(t, f, "Registros", "A2"))
	assert.Equal(t, "1001", raw(t, f, "Registros", "B2"))
	assert.Equal(t, "6", raw(t, f, "Registros", "H2"))
	assert.Equal(t, "4", raw(t, f, "Registros", "I2"))
	assert.Equal(t, "DEV00002", raw(t, f, "Registros", "J2"))
	assert.Equal(t, "Confirmed", raw(t, f, "Registros", "K2"))
	assert.Contains(t, raw(t, f, "Registros", "L3"), "9999")

	// totals row
	assert.Equal(t, "Total", raw(t, f, "Registros", "A4"))
	assert.Equal(t, "12.5", raw(t, f, "Registros", "E4"))
	assert.Equal(t, "6.5", raw(t, f, "Registros", "I4"))

	style, err := f.GetCellStyle("Registros", "E2")
	require.NoError(t, err)
	assert.NotZero(t, style)
}

func TestWriteRecords_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, nil))
	f := open(t, &buf)

	rows, err := f.GetRows("Registros")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Total", rows[1][0])
}

func TestWriteReconciliation(t *testing.T) {
	results := []reconcile.Result{{
		ProductCode: 1001, Description: "BAR A", Quantity: 2, MeasuredWeightKg: 10,
		MeasuredLengthMM: 1300, WeightPerLength: 3, CutLengthMM: 1000,
		TheoreticalWeightKg: 6, ScrapKg: 4, Found: true,
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteReconciliation(&buf, results))
	f := open(t, &buf)

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	assert.Equal(t, reconciliationHeadings, rows[0])
	assert.Equal(t, "3", raw(t, f, sheet, "H2"))
	assert.Equal(t, "6", raw(t, f, sheet, "I2"))
	assert.Equal(t, "4", raw(t, f, sheet, "J3"))
}
