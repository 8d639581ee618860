package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/driveshare-core/internal/audit"
)

// recordAudit stores an operator action. Failures are logged and never
// fail the request that caused them.
func (s *Server) recordAudit(r *http.Request, action, target string, details map[string]any) {
	if s.audit == nil {
		return
	}
	op, _ := operatorFromContext(r.Context())
	entry := &audit.Entry{
		Action:  action,
		Target:  target,
		Subject: op.Subject,
		Details: details,
	}
	if err := s.audit.Create(r.Context(), entry); err != nil {
		s.logger.Warn("failed to record audit entry", "action", action, "target", target, "error", err)
	}
}

// handleListAudit returns a page of audit entries, newest first.
// Query parameters: action, target, limit, offset.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeJSON(w, http.StatusOK, &audit.ListResult{Entries: []audit.Entry{}, Limit: audit.DefaultLimit})
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action: q.Get("action"),
		Target: q.Get("target"),
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeBadRequest(w, name+" must be a non-negative integer")
				return
			}
			*dst = n
		}
	}

	res, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("listing audit entries", "error", err)
		writeInternalError(w, "failed to list audit entries")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
