package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narendersurabhi/agents-event-driven/internal/bus"
	"github.com/narendersurabhi/agents-event-driven/internal/pipeline"
	"github.com/narendersurabhi/agents-event-driven/internal/server/ratelimit"
	"github.com/narendersurabhi/agents-event-driven/internal/store"
)

type serverFixture struct {
	bus    *bus.InMemoryBus
	store  *store.MemoryStore
	server *Server
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()
	b := bus.NewInMemoryBus()
	s := store.NewMemoryStore()
	logger := slog.New(slog.DiscardHandler)
	orch := pipeline.NewOrchestrator(b, s, logger)

	srv := New(Config{
		Port:      0,
		RateLimit: &ratelimit.Config{Enabled: false},
	}, b, s, orch, logger)

	return &serverFixture{bus: b, store: s, server: srv}
}

func (f *serverFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.RemoteAddr = "10.0.0.1:12345"
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	return rec
}

func recvBusEvent(t *testing.T, ch <-chan bus.Event) bus.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return bus.Event{}
	}
}

func seedJob(t *testing.T, s *store.MemoryStore, jobID, stage string, artifacts map[string]any) {
	t.Helper()
	require.NoError(t, s.Save(context.Background(), jobID, &store.Snapshot{
		JobID:       jobID,
		Stage:       stage,
		RunQA:       true,
		RunImprover: true,
		Artifacts:   artifacts,
	}))
}

const longText = "This is a sufficiently long piece of text for validation purposes."

func TestRunPublishesStartEvent(t *testing.T) {
	f := newServerFixture(t)
	starts := f.bus.Subscribe(pipeline.PipelineStart)

	rec := f.do(t, http.MethodPost, "/pipeline/run", map[string]any{
		"job_description": longText,
		"resume_text":     longText,
		"run_qa":          false,
	})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp RunResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "started", resp.Status)
	_, err := uuid.Parse(resp.JobID)
	assert.NoError(t, err, "job id should be a UUID")

	event := recvBusEvent(t, starts)
	assert.Equal(t, resp.JobID, event.CorrelationID)
	assert.Equal(t, longText, event.StringField("jd_text"))
	assert.Equal(t, longText, event.StringField("resume_text"))
	assert.False(t, event.BoolField("run_qa", true))
	assert.True(t, event.BoolField("run_improver", false))
}

func TestRunRejectsShortInputs(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/pipeline/run", map[string]any{
		"job_description": "too short",
		"resume_text":     longText,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "validation failed")
}

func TestRunRejectsInvalidJSON(t *testing.T) {
	f := newServerFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/pipeline/run", strings.NewReader("{not json"))
	req.RemoteAddr = "10.0.0.1:12345"
	rec := httptest.NewRecorder()
	f.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResumePublishesForKnownJob(t *testing.T) {
	f := newServerFixture(t)
	seedJob(t, f.store, "job-1", pipeline.StageMatchCompleted, nil)
	resumes := f.bus.Subscribe(pipeline.PipelineResume)

	rec := f.do(t, http.MethodPost, "/pipeline/resume/job-1", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	event := recvBusEvent(t, resumes)
	assert.Equal(t, "job-1", event.CorrelationID)
}

func TestResumeUnknownJobIs404(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/pipeline/resume/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRestartComposeRequiresPlan(t *testing.T) {
	f := newServerFixture(t)
	seedJob(t, f.store, "job-1", pipeline.StageStarted, map[string]any{
		pipeline.SlotJD: map[string]any{"role_title": "x"},
	})

	rec := f.do(t, http.MethodPost, "/pipeline/restart-compose/job-1", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRestartComposePublishesForPlannedJob(t *testing.T) {
	f := newServerFixture(t)
	seedJob(t, f.store, "job-1", pipeline.StageComposeCompleted, map[string]any{
		pipeline.SlotJD:      map[string]any{"role_title": "x"},
		pipeline.SlotProfile: map[string]any{"full_name": "y"},
		pipeline.SlotPlan:    map[string]any{"target_title": "x"},
	})
	restarts := f.bus.Subscribe(pipeline.PipelineRestartCompose)

	rec := f.do(t, http.MethodPost, "/pipeline/restart-compose/job-1", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)

	event := recvBusEvent(t, restarts)
	assert.Equal(t, "job-1", event.CorrelationID)
}

func TestStatusReportsArtifactPresence(t *testing.T) {
	f := newServerFixture(t)
	seedJob(t, f.store, "job-1", pipeline.StageMatchCompleted, map[string]any{
		pipeline.SlotJD:      map[string]any{"role_title": "x"},
		pipeline.SlotProfile: map[string]any{"full_name": "y"},
		pipeline.SlotPlan:    map[string]any{"target_title": "x"},
	})

	rec := f.do(t, http.MethodGet, "/pipeline/status/job-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "job-1", resp.JobID)
	assert.Equal(t, pipeline.StageMatchCompleted, resp.Stage)
	assert.True(t, resp.Artifacts[pipeline.SlotJD])
	assert.True(t, resp.Artifacts[pipeline.SlotPlan])
	assert.False(t, resp.Artifacts[pipeline.SlotTailored])
}

func TestStatusUnknownJobIs404(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/pipeline/status/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListJobs(t *testing.T) {
	f := newServerFixture(t)
	seedJob(t, f.store, "job-1", pipeline.StageCompleted, nil)
	seedJob(t, f.store, "job-2", pipeline.StageStarted, nil)

	rec := f.do(t, http.MethodGet, "/pipeline/jobs", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Jobs []map[string]any `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Jobs, 2)
}

func TestListJobsRejectsBadLimit(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/pipeline/jobs?limit=zero", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHealth(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestRunRateLimited(t *testing.T) {
	b := bus.NewInMemoryBus()
	s := store.NewMemoryStore()
	logger := slog.New(slog.DiscardHandler)
	orch := pipeline.NewOrchestrator(b, s, logger)
	srv := New(Config{
		RateLimit: &ratelimit.Config{
			Enabled:   true,
			RunLimit:  1,
			ReadLimit: 100,
			Window:    time.Minute,
		},
	}, b, s, orch, logger)
	f := &serverFixture{bus: b, store: s, server: srv}

	body := map[string]any{"job_description": longText, "resume_text": longText}
	rec := f.do(t, http.MethodPost, "/pipeline/run", body)
	require.Equal(t, http.StatusAccepted, rec.Code)

	rec = f.do(t, http.MethodPost, "/pipeline/run", body)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
