package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/joe/media-sync/internal/syncengine"
)

// handleHealthz handles GET /healthz
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	resp := HealthzResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
		Phase:         string(s.ctrl.Snapshot().Phase),
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleStatus handles GET /status
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.ctrl.Snapshot())
}

// handleSummary handles GET /summary
func (s *Server) handleSummary(w http.ResponseWriter, _ *http.Request) {
	summary := s.ctrl.Summary()

	resp := SummaryResponse{
		Planned:   summary.Planned,
		Completed: summary.Completed,
		Failed:    summary.Failed,
		Bytes:     summary.Bytes,
	}

	for _, failure := range summary.Failures {
		resp.Failures = append(resp.Failures, FailureItem{
			Path:  failure.Item.RelativePath,
			Error: failure.Err.Error(),
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

// handlePlan handles POST /plan
// Replaces the queue with a fresh plan. Refused while a copy is active.
func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.ctrl.Plan(r.Context())
	if err != nil {
		s.logger.Warn("plan request failed", "error", err)
		s.writeError(w, planStatusCode(err), err.Error())

		return
	}

	resp := PlanResponse{
		Items:      make([]PlanItem, 0, plan.Len()),
		TotalBytes: plan.TotalBytes,
		Status:     syncengine.StatusLine(plan),
	}

	for _, item := range plan.Items {
		resp.Items = append(resp.Items, PlanItem{
			Path:    item.RelativePath,
			Size:    item.Size,
			ModTime: item.ModTime.Format(time.RFC3339),
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

// handleCopy handles POST /copy
func (s *Server) handleCopy(w http.ResponseWriter, _ *http.Request) {
	err := s.ctrl.Copy()
	if err != nil {
		switch {
		case errors.Is(err, syncengine.ErrNoPlan), errors.Is(err, syncengine.ErrQueueExhausted):
			s.writeError(w, http.StatusConflict, err.Error())
		default:
			s.writeError(w, http.StatusInternalServerError, err.Error())
		}

		return
	}

	s.respondAction(w, "copy")
}

// handlePause handles POST /pause
func (s *Server) handlePause(w http.ResponseWriter, _ *http.Request) {
	s.ctrl.Pause()
	s.respondAction(w, "pause")
}

// handleSkip handles POST /skip
func (s *Server) handleSkip(w http.ResponseWriter, _ *http.Request) {
	s.ctrl.Skip()
	s.respondAction(w, "skip")
}

func (s *Server) respondAction(w http.ResponseWriter, action string) {
	respondJSON(w, http.StatusAccepted, ActionResponse{Action: action, Status: s.ctrl.Snapshot()})
}

// planStatusCode maps a planning failure to an HTTP status.
func planStatusCode(err error) int {
	var persistErr *syncengine.PersistError

	switch {
	case errors.Is(err, syncengine.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, syncengine.ErrSourceNotFound), errors.Is(err, syncengine.ErrDestinationNotFound):
		return http.StatusUnprocessableEntity
	case errors.As(err, &persistErr):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
