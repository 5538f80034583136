package main

import (
	"fmt"
	"net/http"

	"github.com/maisondudroit/entretien"
	"github.com/maisondudroit/entretien/internal"
	"go.uber.org/zap"
)

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, fmt.Sprintf("database unavailable: %v", err))
			return
		}
	}
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleForm handles GET /api/v1/form
func (s *Server) handleForm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	def, err := s.manager.FormDefinition(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, def)
}

// handleFormJSONSchema handles GET /api/v1/form/jsonschema
func (s *Server) handleFormJSONSchema(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	def, err := s.manager.FormDefinition(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, internal.FormJSONSchema(def.Parent))
}

// handleEntretiens handles GET (list) and POST (create) on /api/v1/entretiens
func (s *Server) handleEntretiens(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleList(w, r)
	case http.MethodPost:
		s.handleCreate(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.manager.List(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, list)
}

// handleCreate handles POST /api/v1/entretiens
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body submissionBody
	if err := readJSONBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid json body: %v", err))
		return
	}

	def, err := s.manager.FormDefinition(r.Context())
	if err != nil {
		writeEngineError(w, err)
		return
	}

	sub, err := prepareSubmission(def, &body, s.sanitize)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	num, err := s.manager.Submit(r.Context(), sub)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	zap.S().Infow("entretien created", "num", num, "request_id", requestID(r))
	writeSuccess(w, http.StatusCreated, map[string]any{
		"num":     num,
		"message": fmt.Sprintf("Dossier n°%d enregistré", num),
	})
}

// handleEntretien handles GET /api/v1/entretiens/{num}
func (s *Server) handleEntretien(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	num, err := parseRecordPath(r.URL.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid path: %v", err))
		return
	}

	record, err := s.manager.Get(r.Context(), num)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, record)
}

// writeEngineError maps engine error kinds onto HTTP statuses.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case entretien.IsValidation(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case entretien.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case entretien.IsSchemaUnavailable(err):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		zap.S().Errorw("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
