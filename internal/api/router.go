package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/driveshare-core/internal/auth"
)

// healthCheckTimeout bounds each component check in GET /health.
const healthCheckTimeout = 2 * time.Second

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// The WebSocket authenticates with a ticket, not a bearer header.
		r.Get("/ws", s.handleWebSocket)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/auth/ws-ticket", s.handleWSTicket)

			r.Route("/processes", func(r chi.Router) {
				r.With(s.requirePermission(auth.PermProcessRead)).Get("/", s.handleListProcesses)
				r.Route("/{id}", func(r chi.Router) {
					r.With(s.requirePermission(auth.PermProcessRead)).Get("/output", s.handleProcessOutput)
					r.With(s.requirePermission(auth.PermProcessControl)).Delete("/", s.handleTerminateProcess)
				})
			})

			r.Route("/drives", func(r chi.Router) {
				r.With(s.requirePermission(auth.PermDriveRead)).Get("/", s.handleListDrives)
				r.With(s.requirePermission(auth.PermDriveManage)).Post("/", s.handleCreateDrive)

				r.Route("/{id}", func(r chi.Router) {
					r.Group(func(r chi.Router) {
						r.Use(s.requirePermission(auth.PermDriveRead))
						r.Get("/", s.handleGetDrive)
						r.Get("/runs", s.handleDriveRuns)
						r.Get("/output", s.handleDriveOutput)
					})
					r.Group(func(r chi.Router) {
						r.Use(s.requirePermission(auth.PermDriveManage))
						r.Put("/", s.handleUpdateDrive)
						r.Delete("/", s.handleDeleteDrive)
						r.Put("/address", s.handleSetAddress)
					})
					r.Group(func(r chi.Router) {
						r.Use(s.requirePermission(auth.PermProcessControl))
						r.Post("/farm", s.handleFarm)
						r.Post("/build", s.handleBuild)
					})
				})
			})

			r.With(s.requirePermission(auth.PermAuditRead)).Get("/audit", s.handleListAudit)

			r.Route("/client", func(r chi.Router) {
				r.With(s.requirePermission(auth.PermProcessRead)).Get("/validate", s.handleValidateClient)
				r.With(s.requirePermission(auth.PermProcessControl)).Post("/register", s.handleRegister)
				r.With(s.requirePermission(auth.PermProcessControl)).Post("/poll", s.handlePoll)
			})
		})
	})

	return r
}

// handleHealth reports overall status plus each registered component.
// Any failing component turns the response into 503.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	components := make(map[string]string, len(s.health))
	healthy := true
	for name, checker := range s.health {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		err := checker.HealthCheck(ctx)
		cancel()
		if err != nil {
			components[name] = err.Error()
			healthy = false
			continue
		}
		components[name] = "ok"
	}

	status, code := "ok", http.StatusOK
	if !healthy {
		status, code = "degraded", http.StatusServiceUnavailable
	}

	live := 0
	for _, st := range s.supervisor.Snapshot() {
		if st.Live {
			live++
		}
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"version":    s.version,
		"components": components,
		"processes":  live,
		"ws_clients": s.hub.ClientCount(),
	})
}
