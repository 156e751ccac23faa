package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/xelth-com/scraprecon/internal/models"
)

func recordID(req *http.Request) (uint, bool) {
	id, err := strconv.ParseUint(mux.Vars(req)["id"], 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// updateRecordStatus changes the review status of a record (Pending/Confirmed)
func (r *Router) updateRecordStatus(w http.ResponseWriter, req *http.Request) {
	id, ok := recordID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid record id")
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	// Validate status enum
	status, err := models.ParseRecordStatus(body.Status)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid status")
		return
	}

	rec, err := r.recon.UpdateStatus(req.Context(), id, status)
	if err != nil {
		respondServiceError(w, "updateRecordStatus", err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

// deleteRecord removes a record. Its lot number is never reissued.
func (r *Router) deleteRecord(w http.ResponseWriter, req *http.Request) {
	id, ok := recordID(req)
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid record id")
		return
	}

	if err := r.recon.Delete(req.Context(), id); err != nil {
		respondServiceError(w, "deleteRecord", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Record deleted successfully",
		"id":      id,
	})
}

// clearRecords empties the record list; lot counters continue
func (r *Router) clearRecords(w http.ResponseWriter, req *http.Request) {
	if err := r.recon.ClearRecords(req.Context()); err != nil {
		respondServiceError(w, "clearRecords", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Records cleared, lot counters kept"})
}

// resetAll empties records and restarts every lot counter
func (r *Router) resetAll(w http.ResponseWriter, req *http.Request) {
	if err := r.recon.ResetAll(req.Context()); err != nil {
		respondServiceError(w, "resetAll", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Records and lot counters reset"})
}
