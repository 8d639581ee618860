package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/driveshare-core/internal/audit"
)

// handleListProcesses returns every registry entry, live or terminated.
func (s *Server) handleListProcesses(w http.ResponseWriter, _ *http.Request) {
	procs := s.supervisor.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"processes": procs,
		"count":     len(procs),
	})
}

// handleTerminateProcess kills the live process registered under {id}.
func (s *Server) handleTerminateProcess(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.supervisor.Terminate(id) {
		writeNotFound(w, "no live process for "+id)
		return
	}
	s.logger.Info("process terminated via api", "process_key", id)
	s.recordAudit(r, audit.ActionTerminate, id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// handleProcessOutput returns the buffered output of the most recent
// process registered under {id}.
func (s *Server) handleProcessOutput(w http.ResponseWriter, r *http.Request) {
	s.writeOutput(w, chi.URLParam(r, "id"))
}

func (s *Server) writeOutput(w http.ResponseWriter, id string) {
	out, ok := s.supervisor.Output(id)
	if !ok {
		writeNotFound(w, "no process recorded for "+id)
		return
	}
	name, _ := s.supervisor.Name(id)
	writeJSON(w, http.StatusOK, map[string]any{
		"id":     id,
		"name":   name,
		"output": out,
	})
}
