package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/xelth-com/scraprecon/internal/buildinfo"
	"github.com/xelth-com/scraprecon/internal/config"
	"github.com/xelth-com/scraprecon/internal/middleware"
	"github.com/xelth-com/scraprecon/internal/reference"
	"github.com/xelth-com/scraprecon/internal/services/printer"
	"github.com/xelth-com/scraprecon/internal/services/recon"
	"github.com/xelth-com/scraprecon/internal/store"
	"github.com/xelth-com/scraprecon/internal/utils"
	"github.com/xelth-com/scraprecon/internal/websocket"
	"github.com/xelth-com/scraprecon/internal/wizard"
)

var log = config.GetLogger()

// maxUploadBytes caps multipart bodies (reference sheets and label photos)
const maxUploadBytes = 32 << 20

// wizardTTL drops scanner sessions left unfinished
const wizardTTL = 30 * time.Minute

// replayWindow is how long an Idempotency-Key blocks a repeated commit
const replayWindow = 5 * time.Minute

// Router wraps the mux router and the services behind it
type Router struct {
	*mux.Router
	cfg       *config.Config
	recon     *recon.Service
	wizards   *wizard.Registry
	commits   *utils.Deduplicator
	hub       *websocket.Hub
	adminHash string
}

// NewRouter creates a new HTTP router with all routes.
// hub may be nil, in which case /ws is not served.
func NewRouter(cfg *config.Config, svc *recon.Service, hub *websocket.Hub) (*Router, error) {
	r := &Router{
		Router:  mux.NewRouter(),
		cfg:     cfg,
		recon:   svc,
		wizards: wizard.NewRegistry(wizardTTL),
		commits: utils.NewDeduplicator(replayWindow),
		hub:     hub,
	}

	if cfg.Admin.Password != "" {
		hash, err := utils.HashPassword(cfg.Admin.Password)
		if err != nil {
			return nil, err
		}
		r.adminHash = hash
	} else {
		log.Warn("⚠️ ADMIN_PASSWORD not set, admin endpoints are locked")
	}

	// Health check endpoint
	r.HandleFunc("/health", r.healthCheck).Methods("GET")

	// Auth routes
	r.HandleFunc("/auth/login", r.login).Methods("POST")

	api := r.PathPrefix("/api").Subrouter()

	// Reference table
	api.HandleFunc("/reference", r.uploadReference).Methods("POST")
	api.HandleFunc("/reference", r.getReference).Methods("GET")

	// Reconciliation and records (operator)
	api.HandleFunc("/reconcile/preview", r.previewObservation).Methods("POST")
	api.HandleFunc("/records", r.commitRecord).Methods("POST")
	api.HandleFunc("/records", r.listRecords).Methods("GET")
	api.HandleFunc("/records/export", r.exportRecords).Methods("GET")
	api.HandleFunc("/records/labels", r.printLabels).Methods("GET")
	api.HandleFunc("/lots/{code}/next", r.nextLot).Methods("GET")

	// Vision and batch
	api.HandleFunc("/extract", r.extractLabels).Methods("POST")
	api.HandleFunc("/batch", r.batchRows).Methods("POST")
	api.HandleFunc("/batch/images", r.batchImages).Methods("POST")

	// Scanner wizard
	api.HandleFunc("/wizard", r.startWizard).Methods("POST")
	api.HandleFunc("/wizard/{id}", r.getWizard).Methods("GET")
	api.HandleFunc("/wizard/{id}/input", r.wizardInput).Methods("POST")
	api.HandleFunc("/wizard/{id}/commit", r.wizardCommit).Methods("POST")

	// Admin routes (protected)
	admin := api.NewRoute().Subrouter()
	admin.Use(middleware.AdminOnly(cfg.JWTSecret))
	admin.HandleFunc("/records/{id}/status", r.updateRecordStatus).Methods("PUT")
	admin.HandleFunc("/records/{id}", r.deleteRecord).Methods("DELETE")
	admin.HandleFunc("/records", r.clearRecords).Methods("DELETE")
	admin.HandleFunc("/admin/reset", r.resetAll).Methods("POST")

	if hub != nil {
		r.HandleFunc("/ws", r.serveWs)
	}

	return r, nil
}

// Handler returns the router with path normalization applied
func (r *Router) Handler() http.Handler {
	return middleware.CaseInsensitivePaths(r.Router)
}

// healthCheck returns the health status of the API
func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	resp := map[string]interface{}{
		"status":    "ok",
		"build":     buildinfo.Current(),
		"backend":   r.cfg.RecordBackend(),
		"vision":    r.recon.HasExtractor(),
		"addresses": utils.LANURLs(r.cfg.Port),
	}
	if info, err := r.recon.ReferenceInfo(); err == nil {
		resp["reference"] = info
	}
	if r.hub != nil {
		resp["listeners"] = r.hub.ClientCount()
	}
	respondJSON(w, http.StatusOK, resp)
}

func (r *Router) serveWs(w http.ResponseWriter, req *http.Request) {
	websocket.ServeWs(r.hub, w, req)
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError sends an error response
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// respondServiceError maps domain errors to status codes
func respondServiceError(w http.ResponseWriter, op string, err error) {
	var loadErr *reference.LoadError
	switch {
	case errors.Is(err, recon.ErrNoReference):
		respondError(w, http.StatusConflict, "Reference table not loaded")
	case errors.As(err, &loadErr):
		respondError(w, http.StatusUnprocessableEntity, loadErr.Error())
	case errors.Is(err, recon.ErrNoExtractor):
		respondError(w, http.StatusServiceUnavailable, "Label extraction not configured")
	case errors.Is(err, store.ErrNotFound), errors.Is(err, wizard.ErrSessionNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, wizard.ErrInvalidTransition):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, wizard.ErrEmptyScan), errors.Is(err, printer.ErrNoLabels):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		config.LogError(log, "handlers", op, "request failed", nil, err)
		respondError(w, http.StatusInternalServerError, "Internal error")
	}
}
