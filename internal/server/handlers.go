package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Body of a trigger request.
type triggerRequest struct {
	Revision string `json:"revision"`
}

// Body of a trigger response.
type triggerResponse struct {
	RunID    string `json:"run_id"`
	Revision string `json:"revision"`
	Started  bool   `json:"started"` // False when an in-flight run was reused.
}

// Handles POST /api/runs.
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}

	revision := strings.TrimSpace(req.Revision)
	if revision == "" {
		respondError(w, http.StatusBadRequest, "revision is required")
		return
	}

	rn, started := s.trigger(revision)
	if started {
		slog.Info("run triggered", "run", rn.ID, "revision", revision)
	} else {
		slog.Info("run already in flight", "run", rn.ID, "revision", revision)
	}

	respond(w, http.StatusAccepted, triggerResponse{
		RunID:    rn.ID,
		Revision: rn.Revision,
		Started:  started,
	})
}

// Handles GET /api/runs/{runID}.
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "runID")

	rn, ok := s.lookup(id)
	if !ok {
		respondError(w, http.StatusNotFound, "run not found")
		return
	}

	respond(w, http.StatusOK, rn.Report())
}

// Writes a JSON response with the given status.
func respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

// Writes a JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}
