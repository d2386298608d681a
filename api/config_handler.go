// Package api — configuration inspection endpoints.
package api

import (
	"net/http"

	"github.com/Doshir1/compound-fixed-rate-swap/internal/config"
)

// ConfigResponse is the JSON envelope returned by GET /api/v1/config.
// Secrets never appear: the sensitive fields carry json:"-" tags.
type ConfigResponse struct {
	Config  *config.Config     `json:"config"`
	Secrets []config.KeyStatus `json:"secrets"`
}

// handleGetConfig returns the running configuration plus the masked
// status of every external credential.
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data: ConfigResponse{
			Config:  s.cfg,
			Secrets: config.CheckSecrets(s.cfg),
		},
	})
}

// handleGetConfigKeys returns just the credential status list.
func (s *Server) handleGetConfigKeys(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    config.CheckSecrets(s.cfg),
	})
}
