package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/xelth-com/scraprecon/internal/models"
	"github.com/xelth-com/scraprecon/internal/reconcile"
	"github.com/xelth-com/scraprecon/internal/services/export"
)

// CommitRequest is an observation confirmed by the operator
type CommitRequest struct {
	reconcile.RawInput
	Source string `json:"source"`
}

func (c CommitRequest) source() string {
	switch c.Source {
	case models.SourceScan, models.SourceVision:
		return c.Source
	}
	return models.SourceManual
}

// previewObservation reconciles without saving and shows the next lot id
func (r *Router) previewObservation(w http.ResponseWriter, req *http.Request) {
	var raw reconcile.RawInput
	if err := json.NewDecoder(req.Body).Decode(&raw); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	preview, err := r.recon.Preview(req.Context(), raw)
	if err != nil {
		respondServiceError(w, "previewObservation", err)
		return
	}
	respondJSON(w, http.StatusOK, preview)
}

// commitRecord issues a lot and stores the observation.
// A repeated Idempotency-Key inside the replay window is rejected.
func (r *Router) commitRecord(w http.ResponseWriter, req *http.Request) {
	var body CommitRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	key := req.Header.Get("Idempotency-Key")
	if r.commits.IsDuplicate(key) {
		respondError(w, http.StatusConflict, "Duplicate submission")
		return
	}

	rec, err := r.recon.Commit(req.Context(), body.RawInput, body.source())
	if err != nil {
		r.commits.Forget(key)
		respondServiceError(w, "commitRecord", err)
		return
	}
	respondJSON(w, http.StatusCreated, rec)
}

// listRecords returns records newest first with report totals
func (r *Router) listRecords(w http.ResponseWriter, req *http.Request) {
	records, summary, err := r.recon.List(req.Context())
	if err != nil {
		respondServiceError(w, "listRecords", err)
		return
	}
	if records == nil {
		records = []models.ObservationRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"records": records,
		"summary": summary,
	})
}

// exportRecords downloads all records as xlsx
func (r *Router) exportRecords(w http.ResponseWriter, req *http.Request) {
	records, _, err := r.recon.List(req.Context())
	if err != nil {
		respondServiceError(w, "exportRecords", err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteRecords(&buf, records); err != nil {
		respondServiceError(w, "exportRecords", err)
		return
	}
	sendXLSX(w, fmt.Sprintf("registros_%s.xlsx", time.Now().Format("20060102")), buf.Bytes())
}

// nextLot previews the lot id a commit for this product code would get
func (r *Router) nextLot(w http.ResponseWriter, req *http.Request) {
	code, err := strconv.ParseInt(mux.Vars(req)["code"], 10, 64)
	if err != nil || code < 0 {
		respondError(w, http.StatusBadRequest, "Invalid product code")
		return
	}

	lotID, err := r.recon.NextLot(req.Context(), code)
	if err != nil {
		respondServiceError(w, "nextLot", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"product_code": code,
		"lot_id":       lotID,
	})
}

func sendXLSX(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}
