// Package export writes reconciliation reports as Excel workbooks.
// Weights are stored as native numbers with a two decimal display format, so
// the sheet stays summable in any locale.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/xelth-com/scraprecon/internal/models"
	"github.com/xelth-com/scraprecon/internal/reconcile"
)

// ContentType of the generated files
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// numFmtTwoDecimals is the built-in "0.00" format
const numFmtTwoDecimals = 2

var recordHeadings = []string{
	"Reserva", "Produto", "Descrição", "Quantidade", "Peso Medido (kg)",
	"Comprimento (mm)", "Comprimento Corte (mm)", "Peso Teórico (kg)", "Sucata (kg)",
	"Lote", "Status", "Avisos",
}

var reconciliationHeadings = []string{
	"Reserva", "Produto", "Descrição", "Quantidade", "Peso Medido (kg)",
	"Comprimento (mm)", "Comprimento Corte (mm)", "Peso SAP (kg/m)", "Peso Teórico (kg)",
	"Sucata (kg)", "Avisos",
}

// sheet describes one table to write
type sheet struct {
	name       string
	headings   []string
	rows       [][]interface{}
	decimals   []int // zero based indexes of weight columns
	totalsFrom reconcile.Summary
	totalCols  [3]int // measured, theoretical, scrap
}

// WriteRecords writes stored records in list order with a totals row
func WriteRecords(w io.Writer, records []models.ObservationRecord) error {
	rows := make([][]interface{}, 0, len(records))
	for _, r := range records {
		rows = append(rows, []interface{}{
			r.ReservationTag, r.ProductCode, r.Description, r.Quantity, r.MeasuredWeightKg,
			r.MeasuredLengthMM, r.CutLengthMM, r.TheoreticalWeightKg, r.ScrapKg,
			r.LotID, string(r.Status), strings.Join(r.Warnings, "; "),
		})
	}
	return write(w, sheet{
		name:       "Registros",
		headings:   recordHeadings,
		rows:       rows,
		decimals:   []int{4, 7, 8},
		totalsFrom: reconcile.SummarizeRecords(records),
		totalCols:  [3]int{4, 7, 8},
	})
}

// WriteReconciliation writes unsaved results of a batch run
func WriteReconciliation(w io.Writer, results []reconcile.Result) error {
	rows := make([][]interface{}, 0, len(results))
	for _, r := range results {
		rows = append(rows, []interface{}{
			r.ReservationTag, r.ProductCode, r.Description, r.Quantity, r.MeasuredWeightKg,
			r.MeasuredLengthMM, r.CutLengthMM, r.WeightPerLength, r.TheoreticalWeightKg,
			r.ScrapKg, strings.Join(r.Warnings, "; "),
		})
	}
	return write(w, sheet{
		name:       "Conciliacao",
		headings:   reconciliationHeadings,
		rows:       rows,
		decimals:   []int{4, 7, 8, 9},
		totalsFrom: reconcile.Summarize(results),
		totalCols:  [3]int{4, 8, 9},
	})
}

func write(w io.Writer, s sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", s.name); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	decimalStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtTwoDecimals})
	if err != nil {
		return err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{NumFmt: numFmtTwoDecimals, Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}

	if err := setRow(f, s.name, 1, toCells(s.headings)); err != nil {
		return err
	}
	if err := styleRow(f, s.name, 1, len(s.headings), headerStyle); err != nil {
		return err
	}

	for i, row := range s.rows {
		if err := setRow(f, s.name, i+2, row); err != nil {
			return err
		}
	}

	last := len(s.rows) + 1
	for _, col := range s.decimals {
		if last < 2 {
			break
		}
		from, _ := excelize.CoordinatesToCellName(col+1, 2)
		to, _ := excelize.CoordinatesToCellName(col+1, last)
		if err := f.SetCellStyle(s.name, from, to, decimalStyle); err != nil {
			return err
		}
	}

	// totals
	totalRow := last + 1
	totals := make([]interface{}, len(s.headings))
	totals[0] = "Total"
	totals[s.totalCols[0]] = s.totalsFrom.TotalMeasuredKg
	totals[s.totalCols[1]] = s.totalsFrom.TotalTheoreticalKg
	totals[s.totalCols[2]] = s.totalsFrom.TotalScrapKg
	if err := setRow(f, s.name, totalRow, totals); err != nil {
		return err
	}
	if err := styleRow(f, s.name, totalRow, len(s.headings), totalStyle); err != nil {
		return err
	}

	if err := f.SetColWidth(s.name, "A", columnName(len(s.headings)), 16); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheetName string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheetName, cell, &values)
}

func styleRow(f *excelize.File, sheetName string, row, cols, style int) error {
	from, _ := excelize.CoordinatesToCellName(1, row)
	to, _ := excelize.CoordinatesToCellName(cols, row)
	return f.SetCellStyle(sheetName, from, to, style)
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func columnName(n int) string {
	name, _ := excelize.ColumnNumberToName(n)
	return name
}
