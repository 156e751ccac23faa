package handlers

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/xelth-com/scraprecon/internal/reconcile"
	"github.com/xelth-com/scraprecon/internal/reference"
	"github.com/xelth-com/scraprecon/internal/services/export"
	"github.com/xelth-com/scraprecon/internal/services/recon"
)

// extractLabels reads uploaded label photos (field "images") into drafts.
// Drafts are returned for confirmation and never saved here.
func (r *Router) extractLabels(w http.ResponseWriter, req *http.Request) {
	if !r.parseUpload(w, req) {
		return
	}

	images, err := readImages(req.MultipartForm, "images")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	drafts, err := r.recon.ExtractDrafts(req.Context(), images)
	if err != nil {
		respondServiceError(w, "extractLabels", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"drafts": drafts,
		"failed": countFailed(drafts),
	})
}

// batchRows reconciles an observation sheet (field "rows") and returns xlsx.
// An optional "reference" file is used for this run only.
func (r *Router) batchRows(w http.ResponseWriter, req *http.Request) {
	if !r.parseUpload(w, req) {
		return
	}

	table, ok := r.optionalReference(w, req)
	if !ok {
		return
	}

	file, header, err := req.FormFile("rows")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing rows file")
		return
	}
	defer file.Close()

	rows, err := reconcile.LoadRows(header.Filename, file)
	if err != nil {
		respondServiceError(w, "batchRows", err)
		return
	}

	results, err := r.recon.ReconcileBatch(rows, table)
	if err != nil {
		respondServiceError(w, "batchRows", err)
		return
	}
	r.sendReconciliation(w, results, 0)
}

// batchImages is the photo flow: reference sheet plus label photos in, xlsx out.
// An uploaded "reference" becomes the active table. Images that fail are
// counted in X-Failed-Images and left out of the sheet.
func (r *Router) batchImages(w http.ResponseWriter, req *http.Request) {
	if !r.parseUpload(w, req) {
		return
	}

	table, ok := r.optionalReference(w, req)
	if !ok {
		return
	}
	if !r.recon.HasExtractor() {
		respondServiceError(w, "batchImages", recon.ErrNoExtractor)
		return
	}
	if table != nil {
		r.recon.SetReference(table)
	}

	images, err := readImages(req.MultipartForm, "images")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	drafts, err := r.recon.ExtractDrafts(req.Context(), images)
	if err != nil {
		respondServiceError(w, "batchImages", err)
		return
	}

	var results []reconcile.Result
	for _, d := range drafts {
		if d.Preview != nil {
			results = append(results, d.Preview.Result)
		}
	}
	r.sendReconciliation(w, results, countFailed(drafts))
}

func (r *Router) sendReconciliation(w http.ResponseWriter, results []reconcile.Result, failed int) {
	var buf bytes.Buffer
	if err := export.WriteReconciliation(&buf, results); err != nil {
		respondServiceError(w, "sendReconciliation", err)
		return
	}
	w.Header().Set("X-Failed-Images", strconv.Itoa(failed))
	sendXLSX(w, fmt.Sprintf("conciliacao_%s.xlsx", time.Now().Format("20060102_1504")), buf.Bytes())
}

func (r *Router) parseUpload(w http.ResponseWriter, req *http.Request) bool {
	req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes)
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return false
	}
	return true
}

// optionalReference loads the "reference" part when present
func (r *Router) optionalReference(w http.ResponseWriter, req *http.Request) (*reference.Table, bool) {
	file, header, err := req.FormFile("reference")
	if err == http.ErrMissingFile {
		return nil, true
	}
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid reference file")
		return nil, false
	}
	defer file.Close()

	table, err := reference.Load(header.Filename, file, r.referenceOptions())
	if err != nil {
		respondServiceError(w, "optionalReference", err)
		return nil, false
	}
	return table, true
}

func readImages(form *multipart.Form, field string) ([]recon.Image, error) {
	if form == nil || len(form.File[field]) == 0 {
		return nil, fmt.Errorf("no files in field %q", field)
	}

	images := make([]recon.Image, 0, len(form.File[field]))
	for _, fh := range form.File[field] {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("cannot open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", fh.Filename, err)
		}

		mimeType := fh.Header.Get("Content-Type")
		if mimeType == "" || mimeType == "application/octet-stream" {
			mimeType = http.DetectContentType(data)
		}
		images = append(images, recon.Image{Name: fh.Filename, MimeType: mimeType, Data: data})
	}
	return images, nil
}

func countFailed(drafts []recon.Draft) int {
	n := 0
	for _, d := range drafts {
		if d.Error != "" {
			n++
		}
	}
	return n
}
