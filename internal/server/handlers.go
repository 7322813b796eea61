package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/narendersurabhi/agents-event-driven/internal/bus"
	"github.com/narendersurabhi/agents-event-driven/internal/pipeline"
	"github.com/narendersurabhi/agents-event-driven/internal/store"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// RunRequest is the body for POST /pipeline/run.
type RunRequest struct {
	JobDescription      string `json:"job_description" validate:"required,min=20"`
	ResumeText          string `json:"resume_text" validate:"required,min=20"`
	RunQA               *bool  `json:"run_qa,omitempty"`
	RunImprover         *bool  `json:"run_improver,omitempty"`
	ForceProfileRefresh bool   `json:"force_profile_refresh,omitempty"`
}

// RunResponse is returned by POST /pipeline/run.
type RunResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

// handleRun accepts a job description and resume, assigns a job id, and
// publishes pipeline.start. The response returns before the pipeline runs;
// clients poll the status endpoint.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if err := validate.Struct(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "validation failed: "+err.Error())
		return
	}

	runQA := req.RunQA == nil || *req.RunQA
	runImprover := req.RunImprover == nil || *req.RunImprover

	jobID := uuid.NewString()
	if err := s.bus.Publish(bus.Event{
		Type: pipeline.PipelineStart,
		Payload: map[string]any{
			"jd_text":               req.JobDescription,
			"resume_text":           req.ResumeText,
			"run_qa":                runQA,
			"run_improver":          runImprover,
			"force_profile_refresh": req.ForceProfileRefresh,
		},
		CorrelationID: jobID,
	}); err != nil {
		s.logger.Error("failed to publish start", "job_id", jobID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to start pipeline")
		return
	}

	s.jsonResponse(w, http.StatusAccepted, RunResponse{JobID: jobID, Status: "started"})
}

// handleResume republishes work for a known job. Unknown jobs get 404; jobs
// that are already complete still get 202, resume is idempotent.
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	if !s.jobExists(w, r, jobID) {
		return
	}

	if err := s.bus.Publish(bus.Event{
		Type:          pipeline.PipelineResume,
		CorrelationID: jobID,
	}); err != nil {
		s.logger.Error("failed to publish resume", "job_id", jobID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to resume pipeline")
		return
	}
	s.jsonResponse(w, http.StatusAccepted, RunResponse{JobID: jobID, Status: "resuming"})
}

// handleRestartCompose rebuilds the tailored resume and everything after it
// from the existing plan.
func (s *Server) handleRestartCompose(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	snap, err := s.status.StateSnapshot(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, "job not found")
			return
		}
		s.logger.Error("failed to load job", "job_id", jobID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to load job")
		return
	}

	// The orchestrator rejects the restart anyway without these, but a 409
	// here gives the caller an actionable answer.
	if snap.Artifacts[pipeline.SlotJD] == nil ||
		snap.Artifacts[pipeline.SlotProfile] == nil ||
		snap.Artifacts[pipeline.SlotPlan] == nil {
		s.errorResponse(w, http.StatusConflict, "job has no plan yet; restart requires jd, profile, and plan")
		return
	}

	if err := s.bus.Publish(bus.Event{
		Type:          pipeline.PipelineRestartCompose,
		CorrelationID: jobID,
	}); err != nil {
		s.logger.Error("failed to publish restart_compose", "job_id", jobID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to restart composition")
		return
	}
	s.jsonResponse(w, http.StatusAccepted, RunResponse{JobID: jobID, Status: "restarting_compose"})
}

// StatusResponse is returned by GET /pipeline/status/{id}.
type StatusResponse struct {
	JobID       string          `json:"job_id"`
	Stage       string          `json:"stage"`
	RunQA       bool            `json:"run_qa"`
	RunImprover bool            `json:"run_improver"`
	Artifacts   map[string]bool `json:"artifacts"`
}

// handleStatus reports the job's stage and which artifacts exist. Artifact
// bodies are large; this endpoint only reports presence.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	jobID := r.PathValue("id")
	snap, err := s.status.StateSnapshot(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, "job not found")
			return
		}
		s.logger.Error("failed to load job", "job_id", jobID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to load job")
		return
	}

	artifacts := make(map[string]bool, len(snap.Artifacts))
	for slot, value := range snap.Artifacts {
		artifacts[slot] = value != nil
	}
	s.jsonResponse(w, http.StatusOK, StatusResponse{
		JobID:       snap.JobID,
		Stage:       snap.Stage,
		RunQA:       snap.RunQA,
		RunImprover: snap.RunImprover,
		Artifacts:   artifacts,
	})
}

// handleListJobs lists recent jobs, most recently updated first.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			s.errorResponse(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	snaps, err := s.store.List(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list jobs", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to list jobs")
		return
	}

	jobs := make([]map[string]any, 0, len(snaps))
	for _, snap := range snaps {
		jobs = append(jobs, map[string]any{
			"job_id": snap.JobID,
			"stage":  snap.Stage,
		})
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"jobs": jobs})
}

// jobExists writes the error response and returns false when the job is
// unknown or the lookup fails.
func (s *Server) jobExists(w http.ResponseWriter, r *http.Request, jobID string) bool {
	_, err := s.status.StateSnapshot(r.Context(), jobID)
	if err == nil {
		return true
	}
	if errors.Is(err, store.ErrNotFound) {
		s.errorResponse(w, http.StatusNotFound, "job not found")
	} else {
		s.logger.Error("failed to load job", "job_id", jobID, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to load job")
	}
	return false
}
