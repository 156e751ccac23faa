package handlers

import (
	"net/http"

	"github.com/xelth-com/scraprecon/internal/reference"
)

// uploadReference replaces the reference table with an uploaded csv/xlsx (field "file")
func (r *Router) uploadReference(w http.ResponseWriter, req *http.Request) {
	req.Body = http.MaxBytesReader(w, req.Body, maxUploadBytes)
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	file, header, err := req.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()

	table, err := reference.Load(header.Filename, file, r.referenceOptions())
	if err != nil {
		respondServiceError(w, "uploadReference", err)
		return
	}
	r.recon.SetReference(table)

	info, _ := r.recon.ReferenceInfo()
	respondJSON(w, http.StatusOK, info)
}

// getReference describes the loaded table; ?entries=1 includes the rows
func (r *Router) getReference(w http.ResponseWriter, req *http.Request) {
	info, err := r.recon.ReferenceInfo()
	if err != nil {
		respondServiceError(w, "getReference", err)
		return
	}
	if req.URL.Query().Get("entries") == "" {
		respondJSON(w, http.StatusOK, info)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"source":   info.Source,
		"warnings": info.Warnings,
		"entries":  r.recon.Reference().Entries(),
	})
}

func (r *Router) referenceOptions() reference.Options {
	return reference.Options{RequireDescription: r.cfg.Reference.RequireDescription}
}
