package printer

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/skip2/go-qrcode"

	"github.com/xelth-com/scraprecon/internal/models"
)

// LabelConfig holds the label grid layout on an A4 sheet
type LabelConfig struct {
	Cols       int     `json:"cols"`
	Rows       int     `json:"rows"`
	MarginTop  float64 `json:"marginTop"`
	MarginLeft float64 `json:"marginLeft"`
	GapX       float64 `json:"gapX"`
	GapY       float64 `json:"gapY"`
	Border     bool    `json:"border"` // draw cut lines
}

// DefaultLabelConfig is a 3x8 grid
func DefaultLabelConfig() LabelConfig {
	return LabelConfig{Cols: 3, Rows: 8, MarginTop: 10, MarginLeft: 7, GapX: 2, GapY: 0}
}

// MaxGrid is the largest row or column count that still fits a readable QR on A4
const MaxGrid = 10

var ErrNoLabels = errors.New("no records to print")

// GenerateLotLabelsPDF renders one label per record: a QR holding the lot id
// on the left, lot and product details on the right.
func GenerateLotLabelsPDF(records []models.ObservationRecord, cfg LabelConfig) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoLabels
	}
	if cfg.Cols <= 0 || cfg.Rows <= 0 || cfg.Cols > MaxGrid || cfg.Rows > MaxGrid {
		return nil, fmt.Errorf("invalid label grid %dx%d", cfg.Cols, cfg.Rows)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetFont("Arial", "B", 10)
	tr := pdf.UnicodeTranslatorFromDescriptor("") // cp1252 for accented descriptions

	// A4 dimensions
	pageWidth, pageHeight := 210.0, 297.0

	totalGapX := float64(cfg.Cols-1) * cfg.GapX
	totalGapY := float64(cfg.Rows-1) * cfg.GapY
	availW := pageWidth - (cfg.MarginLeft * 2)
	availH := pageHeight - (cfg.MarginTop * 2)
	labelW := (availW - totalGapX) / float64(cfg.Cols)
	labelH := (availH - totalGapY) / float64(cfg.Rows)

	labelsPerPage := cfg.Cols * cfg.Rows

	for i, rec := range records {
		if i%labelsPerPage == 0 {
			pdf.AddPage()
		}

		indexOnPage := i % labelsPerPage
		col := indexOnPage % cfg.Cols
		row := indexOnPage / cfg.Cols
		x := cfg.MarginLeft + float64(col)*(labelW+cfg.GapX)
		y := cfg.MarginTop + float64(row)*(labelH+cfg.GapY)

		qrPng, err := qrcode.Encode(rec.LotID, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("failed to encode QR for %s: %w", rec.LotID, err)
		}

		imgName := fmt.Sprintf("qr_%d", i)
		imgOptions := gofpdf.ImageOptions{ImageType: "PNG", ReadDpi: true}
		pdf.RegisterImageOptionsReader(imgName, imgOptions, bytes.NewReader(qrPng))

		qrSize := labelH * 0.85
		if qrSize > labelW*0.45 {
			qrSize = labelW * 0.45
		}
		pdf.ImageOptions(imgName, x+1, y+(labelH-qrSize)/2, qrSize, qrSize, false, imgOptions, 0, "")

		textX := x + qrSize + 2
		textW := labelW - qrSize - 3

		pdf.SetXY(textX, y+2)
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(textW, 5, rec.LotID, "", 2, "L", false, 0, "")

		pdf.SetFont("Arial", "", 7)
		pdf.SetX(textX)
		pdf.CellFormat(textW, 3.5, fmt.Sprintf("Cod. %d", rec.ProductCode), "", 2, "L", false, 0, "")
		pdf.SetX(textX)
		pdf.CellFormat(textW, 3.5, tr(truncate(rec.Description, 28)), "", 2, "L", false, 0, "")
		pdf.SetX(textX)
		pdf.CellFormat(textW, 3.5, fmt.Sprintf("%d x %d mm", rec.Quantity, rec.CutLengthMM), "", 2, "L", false, 0, "")
		pdf.SetX(textX)
		pdf.CellFormat(textW, 3.5, fmt.Sprintf("%.2f kg", rec.MeasuredWeightKg), "", 2, "L", false, 0, "")
		if rec.ReservationTag != "" {
			pdf.SetX(textX)
			pdf.CellFormat(textW, 3.5, "Res. "+rec.ReservationTag, "", 2, "L", false, 0, "")
		}

		if cfg.Border {
			pdf.Rect(x, y, labelW, labelH, "D")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
