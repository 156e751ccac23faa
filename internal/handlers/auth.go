package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/xelth-com/scraprecon/internal/utils"
)

// LoginRequest represents an admin login request
type LoginRequest struct {
	Password string `json:"password"`
}

// login exchanges the admin password for a Bearer token
func (r *Router) login(w http.ResponseWriter, req *http.Request) {
	var loginReq LoginRequest
	if err := json.NewDecoder(req.Body).Decode(&loginReq); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}

	if r.adminHash == "" || !utils.CheckPasswordHash(loginReq.Password, r.adminHash) {
		log.Warnf("🔒 Failed admin login from %s", req.RemoteAddr)
		respondError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, err := utils.GenerateAdminToken(r.cfg.JWTSecret, utils.AdminTokenTTL)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"accessToken": token,
		"expiresIn":   int(utils.AdminTokenTTL.Seconds()),
		"role":        utils.RoleAdmin,
	})
}
