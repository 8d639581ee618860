package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/driveshare-core/internal/audit"
	"github.com/nerrad567/driveshare-core/internal/dataserv"
	"github.com/nerrad567/driveshare-core/internal/drive"
)

// maxRunsLimit caps the limit query parameter of GET /drives/{id}/runs.
const maxRunsLimit = 500

// driveRequest is the body of drive create and update requests.
type driveRequest struct {
	ID          string `json:"id,omitempty"`
	Address     string `json:"address"`
	StoragePath string `json:"storage_path"`
	MaxSizeGB   int    `json:"max_size_gb"`
}

// driveView is a tab plus the registry state of its process, if any.
type driveView struct {
	*drive.Tab
	Process *dataserv.Status `json:"process,omitempty"`
}

func (s *Server) handleListDrives(w http.ResponseWriter, r *http.Request) {
	tabs, err := s.drives.List(r.Context())
	if err != nil {
		s.logger.Error("listing drives", "error", err)
		writeInternalError(w, "failed to list drives")
		return
	}

	statuses := make(map[string]dataserv.Status)
	for _, st := range s.supervisor.Snapshot() {
		statuses[st.ID] = st
	}

	views := make([]driveView, 0, len(tabs))
	for i := range tabs {
		views = append(views, s.viewOf(&tabs[i], statuses))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"drives": views,
		"count":  len(views),
	})
}

func (s *Server) handleGetDrive(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.loadTab(w, r)
	if !ok {
		return
	}
	statuses := make(map[string]dataserv.Status)
	for _, st := range s.supervisor.Snapshot() {
		if st.ID == tab.ID {
			statuses[st.ID] = st
		}
	}
	writeJSON(w, http.StatusOK, s.viewOf(tab, statuses))
}

func (s *Server) handleCreateDrive(w http.ResponseWriter, r *http.Request) {
	var req driveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON: "+err.Error())
		return
	}

	tab := drive.NewTab()
	if req.ID != "" {
		tab.ID = req.ID
	}
	tab.Address = req.Address
	tab.StoragePath = req.StoragePath
	tab.MaxSizeGB = req.MaxSizeGB

	if err := s.drives.Create(r.Context(), tab); err != nil {
		switch {
		case errors.Is(err, drive.ErrInvalidTab):
			writeValidationError(w, err.Error())
		case errors.Is(err, drive.ErrTabExists):
			writeError(w, http.StatusConflict, ErrCodeConflict, "drive "+tab.ID+" already exists")
		default:
			s.logger.Error("creating drive", "id", tab.ID, "error", err)
			writeInternalError(w, "failed to create drive")
		}
		return
	}

	s.logger.Info("drive created", "id", tab.ID)
	s.recordAudit(r, audit.ActionDriveCreate, tab.ID, nil)
	writeJSON(w, http.StatusCreated, tab)
}

func (s *Server) handleUpdateDrive(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.loadTab(w, r)
	if !ok {
		return
	}

	var req driveRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if req.ID != "" && req.ID != tab.ID {
		writeValidationError(w, "drive id cannot be changed")
		return
	}

	tab.Address = req.Address
	tab.StoragePath = req.StoragePath
	tab.MaxSizeGB = req.MaxSizeGB

	if err := s.drives.Update(r.Context(), tab); err != nil {
		s.writeDriveError(w, tab.ID, "updating drive", err)
		return
	}
	s.recordAudit(r, audit.ActionDriveUpdate, tab.ID, nil)
	writeJSON(w, http.StatusOK, tab)
}

// handleDeleteDrive terminates the drive's process, if live, and removes it.
func (s *Server) handleDeleteDrive(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.drives.Delete(r.Context(), id); err != nil {
		s.writeDriveError(w, id, "deleting drive", err)
		return
	}
	terminated := s.supervisor.Terminate(id)
	if terminated {
		s.logger.Info("terminated process of deleted drive", "id", id)
	}
	s.recordAudit(r, audit.ActionDriveDelete, id, map[string]any{"terminated": terminated})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFarm(w http.ResponseWriter, r *http.Request) {
	s.startDriveCommand(w, r, audit.ActionFarm, s.supervisor.Farm)
}

func (s *Server) handleBuild(w http.ResponseWriter, r *http.Request) {
	s.startDriveCommand(w, r, audit.ActionBuild, s.supervisor.Build)
}

// startDriveCommand loads the drive and bootstraps a long-running command
// for it, replacing any process already registered under its id.
func (s *Server) startDriveCommand(w http.ResponseWriter, r *http.Request, action string, start func(dataserv.Identity, dataserv.Options) (*dataserv.Process, error)) {
	tab, ok := s.loadTab(w, r)
	if !ok {
		return
	}

	p, err := start(tab.Identity(), tab.Options())
	if err != nil {
		if errors.Is(err, dataserv.ErrInvalidCommand) {
			writeValidationError(w, err.Error())
			return
		}
		s.logger.Error("starting dataserv-client", "id", tab.ID, "error", err)
		writeInternalError(w, "failed to start dataserv-client")
		return
	}
	s.recordAudit(r, action, tab.ID, map[string]any{"pid": p.PID()})
	writeJSON(w, http.StatusAccepted, processView(p))
}

// handleSetAddress writes the payout address into the drive's client
// config and saves it on the drive.
func (s *Server) handleSetAddress(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.loadTab(w, r)
	if !ok {
		return
	}

	var req struct {
		Address string `json:"address"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "invalid JSON: "+err.Error())
		return
	}
	if err := drive.ValidateAddress(req.Address); err != nil {
		writeValidationError(w, err.Error())
		return
	}

	out, err := s.supervisor.SetAddress(r.Context(), req.Address, tab.Identity())
	if err != nil {
		var execErr *dataserv.ExecutionError
		switch {
		case errors.Is(err, dataserv.ErrInvalidCommand):
			writeValidationError(w, err.Error())
		case errors.As(err, &execErr):
			writeError(w, http.StatusBadGateway, ErrCodeClientFailed, execErr.Error())
		default:
			s.logger.Error("setting payout address", "id", tab.ID, "error", err)
			writeInternalError(w, "failed to set payout address")
		}
		return
	}

	tab.Address = req.Address
	if err := s.drives.Update(r.Context(), tab); err != nil {
		s.writeDriveError(w, tab.ID, "saving payout address", err)
		return
	}
	s.recordAudit(r, audit.ActionSetAddress, tab.ID, map[string]any{"address": req.Address})

	writeJSON(w, http.StatusOK, map[string]any{
		"drive":  tab,
		"output": out,
	})
}

// handleDriveRuns lists the recorded runs of the drive, newest first.
func (s *Server) handleDriveRuns(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.loadTab(w, r)
	if !ok {
		return
	}

	limit := drive.DefaultRunsLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxRunsLimit {
			writeBadRequest(w, "limit must be between 1 and "+strconv.Itoa(maxRunsLimit))
			return
		}
		limit = n
	}

	runs := []drive.Run{}
	if s.history != nil {
		var err error
		runs, err = s.history.Runs(r.Context(), tab.ID, limit)
		if err != nil {
			s.logger.Error("listing runs", "id", tab.ID, "error", err)
			writeInternalError(w, "failed to list runs")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runs":  runs,
		"count": len(runs),
	})
}

func (s *Server) handleDriveOutput(w http.ResponseWriter, r *http.Request) {
	tab, ok := s.loadTab(w, r)
	if !ok {
		return
	}
	s.writeOutput(w, tab.ID)
}

// loadTab fetches the drive named by the {id} URL parameter, writing a
// 404 or 500 response on failure.
func (s *Server) loadTab(w http.ResponseWriter, r *http.Request) (*drive.Tab, bool) {
	id := chi.URLParam(r, "id")
	tab, err := s.drives.Get(r.Context(), id)
	if err != nil {
		s.writeDriveError(w, id, "loading drive", err)
		return nil, false
	}
	return tab, true
}

func (s *Server) writeDriveError(w http.ResponseWriter, id, op string, err error) {
	switch {
	case errors.Is(err, drive.ErrTabNotFound):
		writeNotFound(w, "drive "+id+" not found")
	case errors.Is(err, drive.ErrInvalidTab):
		writeValidationError(w, err.Error())
	default:
		s.logger.Error(op, "id", id, "error", err)
		writeInternalError(w, op+" failed")
	}
}

func (s *Server) viewOf(t *drive.Tab, statuses map[string]dataserv.Status) driveView {
	v := driveView{Tab: t}
	if st, ok := statuses[t.ID]; ok {
		v.Process = &st
	}
	return v
}

// processView is the response body for a freshly bootstrapped process.
func processView(p *dataserv.Process) map[string]any {
	return map[string]any{
		"id":         p.ID(),
		"name":       p.Name(),
		"pid":        p.PID(),
		"started_at": p.StartedAt(),
	}
}
