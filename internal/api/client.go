package api

import (
	"errors"
	"net/http"

	"github.com/nerrad567/driveshare-core/internal/audit"
	"github.com/nerrad567/driveshare-core/internal/dataserv"
)

// handleValidateClient checks the configured dataserv-client with --version.
func (s *Server) handleValidateClient(w http.ResponseWriter, r *http.Request) {
	version, err := s.supervisor.ValidateClient(r.Context(), "")
	if err != nil {
		var execErr *dataserv.ExecutionError
		switch {
		case errors.Is(err, dataserv.ErrInvalidClient):
			writeError(w, http.StatusUnprocessableEntity, ErrCodeInvalidClient, err.Error())
		case errors.As(err, &execErr):
			writeError(w, http.StatusBadGateway, ErrCodeClientFailed, execErr.Error())
		default:
			writeInternalError(w, "failed to validate dataserv-client")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"binary":  s.supervisor.Binary(),
		"version": version,
	})
}

// handleRegister starts a registration run, replacing any running one.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	p := s.supervisor.Register()
	s.recordAudit(r, audit.ActionRegister, p.ID(), map[string]any{"pid": p.PID()})
	writeJSON(w, http.StatusAccepted, processView(p))
}

// handlePoll starts a poll run, replacing any running one.
func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	p := s.supervisor.Poll()
	s.recordAudit(r, audit.ActionPoll, p.ID(), map[string]any{"pid": p.PID()})
	writeJSON(w, http.StatusAccepted, processView(p))
}
