package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xelth-com/scraprecon/internal/models"
	"github.com/xelth-com/scraprecon/internal/services/recon"
	"github.com/xelth-com/scraprecon/internal/wizard"
)

// WizardInput is one value typed or scanned by the operator
type WizardInput struct {
	Value string `json:"value"`
}

// WizardResponse standardizes the wizard result
type WizardResponse struct {
	Session wizard.Session            `json:"session"`
	Preview *recon.Preview            `json:"preview,omitempty"` // set once all fields are in
	Record  *models.ObservationRecord `json:"record,omitempty"`  // set after commit
}

// startWizard opens a scanner session awaiting the product barcode
func (r *Router) startWizard(w http.ResponseWriter, req *http.Request) {
	s := r.wizards.Start()
	respondJSON(w, http.StatusCreated, WizardResponse{Session: s})
}

// getWizard returns a session and, when complete, its preview
func (r *Router) getWizard(w http.ResponseWriter, req *http.Request) {
	s, err := r.wizards.Get(mux.Vars(req)["id"])
	if err != nil {
		respondServiceError(w, "getWizard", err)
		return
	}
	r.respondWizard(w, req, s)
}

// wizardInput feeds the next field. The first input is the raw barcode.
func (r *Router) wizardInput(w http.ResponseWriter, req *http.Request) {
	var body WizardInput
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s, err := r.wizards.Update(mux.Vars(req)["id"], func(s *wizard.Session) error {
		return s.Advance(body.Value)
	})
	if err != nil {
		respondServiceError(w, "wizardInput", err)
		return
	}
	r.respondWizard(w, req, s)
}

// wizardCommit stores the collected observation and closes the session
func (r *Router) wizardCommit(w http.ResponseWriter, req *http.Request) {
	var rec *models.ObservationRecord
	s, err := r.wizards.Update(mux.Vars(req)["id"], func(s *wizard.Session) error {
		if !s.CanCommit() {
			return s.MarkCommitted("", 0) // reports the invalid transition
		}
		var err error
		rec, err = r.recon.Commit(req.Context(), s.Draft, models.SourceScan)
		if err != nil {
			return err
		}
		return s.MarkCommitted(rec.LotID, rec.ID)
	})
	if err != nil {
		respondServiceError(w, "wizardCommit", err)
		return
	}
	respondJSON(w, http.StatusCreated, WizardResponse{Session: s, Record: rec})
}

func (r *Router) respondWizard(w http.ResponseWriter, req *http.Request, s wizard.Session) {
	resp := WizardResponse{Session: s}
	if s.CanCommit() {
		// no reference yet is fine here; commit reports it
		if p, err := r.recon.Preview(req.Context(), s.Draft); err == nil {
			resp.Preview = p
		}
	}
	respondJSON(w, http.StatusOK, resp)
}
