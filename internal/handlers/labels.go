package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/xelth-com/scraprecon/internal/models"
	"github.com/xelth-com/scraprecon/internal/services/printer"
)

// printLabels renders lot labels as PDF. ?ids=3,4 limits the selection;
// ?cols, ?rows and ?border tune the grid.
func (r *Router) printLabels(w http.ResponseWriter, req *http.Request) {
	records, _, err := r.recon.List(req.Context())
	if err != nil {
		respondServiceError(w, "printLabels", err)
		return
	}

	q := req.URL.Query()
	if ids := q.Get("ids"); ids != "" {
		wanted := make(map[uint]bool)
		for _, part := range strings.Split(ids, ",") {
			id, err := strconv.ParseUint(strings.TrimSpace(part), 10, 64)
			if err != nil {
				respondError(w, http.StatusBadRequest, "Invalid ids")
				return
			}
			wanted[uint(id)] = true
		}
		var selected []models.ObservationRecord
		for _, rec := range records {
			if wanted[rec.ID] {
				selected = append(selected, rec)
			}
		}
		records = selected
	}

	cfg := printer.DefaultLabelConfig()
	if n, err := strconv.Atoi(q.Get("cols")); err == nil && n > 0 {
		cfg.Cols = min(n, printer.MaxGrid)
	}
	if n, err := strconv.Atoi(q.Get("rows")); err == nil && n > 0 {
		cfg.Rows = min(n, printer.MaxGrid)
	}
	cfg.Border = q.Get("border") == "1" || q.Get("border") == "true"

	pdfBytes, err := printer.GenerateLotLabelsPDF(records, cfg)
	if err != nil {
		respondServiceError(w, "printLabels", err)
		return
	}

	// Set headers for download
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"lotes_%s.pdf\"", time.Now().Format("20060102_1504")))
	w.Header().Set("Content-Length", strconv.Itoa(len(pdfBytes)))

	w.Write(pdfBytes)
}
