package worker

import (
	"context"
	"log/slog"

	"github.com/narendersurabhi/agents-event-driven/internal/bus"
	"github.com/narendersurabhi/agents-event-driven/internal/llm"
	"github.com/narendersurabhi/agents-event-driven/internal/pipeline"
)

// StageConfig describes how one pipeline stage maps onto the generic step
// worker: its topics, the prompt and schema for its LLM call, and how to turn
// the raw structured result into the stage's artifact.
type StageConfig struct {
	// Name identifies the stage in logs, e.g. "jd" or "compose".
	Name string
	// RequestTopic is the <stage>.requested topic this worker consumes.
	RequestTopic string
	// LLMDoneTopic is the <stage>.llm.completed topic the step worker replies to.
	LLMDoneTopic string
	// CompletedTopic is the <stage>.completed topic the orchestrator consumes.
	CompletedTopic string
	// ArtifactKey is the payload key the artifact is published under.
	ArtifactKey string
	// Tier selects the model tier for this stage's LLM call.
	Tier llm.ModelTier
	// BuildPrompt renders the stage's prompt from the request payload.
	BuildPrompt func(payload map[string]any) (string, error)
	// SchemaText is the JSON Schema the step worker validates output against.
	SchemaText string
	// ParseResult converts the step worker's structured result into the
	// stage's artifact. Nil means the result is used as-is.
	ParseResult func(result any) (any, error)
}

// StageWorker bridges one stage's events to the central step worker. It runs
// two loops: one turning <stage>.requested into llm_step.requested, and one
// turning <stage>.llm.completed into <stage>.completed.
type StageWorker struct {
	bus    bus.Bus
	cfg    StageConfig
	logger *slog.Logger
}

// NewStageWorker creates a stage worker from its config.
func NewStageWorker(b bus.Bus, cfg StageConfig, logger *slog.Logger) *StageWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &StageWorker{bus: b, cfg: cfg, logger: logger}
}

// Start registers both stage loops with the supervisor.
func (w *StageWorker) Start(sup *pipeline.Supervisor) {
	sup.Go(w.cfg.Name+".requests", w.RunRequests)
	sup.Go(w.cfg.Name+".results", w.RunResults)
}

// RunRequests consumes <stage>.requested events and emits llm_step.requested.
func (w *StageWorker) RunRequests(ctx context.Context) error {
	ch := w.bus.Subscribe(w.cfg.RequestTopic)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-ch:
			w.handleRequest(event)
		}
	}
}

func (w *StageWorker) handleRequest(event bus.Event) {
	jobID := event.CorrelationID

	prompt, err := w.cfg.BuildPrompt(event.Payload)
	if err != nil {
		w.logger.Error("stage request malformed",
			"stage", w.cfg.Name, "job_id", jobID, "error", err)
		w.publishFailed(jobID, err.Error())
		return
	}

	if err := w.bus.Publish(bus.Event{
		Type: pipeline.LLMStepRequested,
		Payload: map[string]any{
			"prompt":      prompt,
			"schema_text": w.cfg.SchemaText,
			"tier":        string(w.cfg.Tier),
		},
		CorrelationID: jobID,
		ReplyTo:       w.cfg.LLMDoneTopic,
	}); err != nil {
		w.logger.Error("failed to publish step request",
			"stage", w.cfg.Name, "job_id", jobID, "error", err)
	}
}

// RunResults consumes <stage>.llm.completed events and emits <stage>.completed.
func (w *StageWorker) RunResults(ctx context.Context) error {
	ch := w.bus.Subscribe(w.cfg.LLMDoneTopic)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-ch:
			w.handleResult(event)
		}
	}
}

func (w *StageWorker) handleResult(event bus.Event) {
	jobID := event.CorrelationID
	artifact := event.Payload["result"]

	if w.cfg.ParseResult != nil {
		parsed, err := w.cfg.ParseResult(artifact)
		if err != nil {
			w.logger.Error("stage result rejected",
				"stage", w.cfg.Name, "job_id", jobID, "error", err)
			w.publishFailed(jobID, err.Error())
			return
		}
		artifact = parsed
	}

	if err := w.bus.Publish(bus.Event{
		Type:          w.cfg.CompletedTopic,
		Payload:       map[string]any{w.cfg.ArtifactKey: artifact},
		CorrelationID: jobID,
	}); err != nil {
		w.logger.Error("failed to publish stage completion",
			"stage", w.cfg.Name, "job_id", jobID, "error", err)
	}
}

func (w *StageWorker) publishFailed(jobID, message string) {
	if err := w.bus.Publish(bus.Event{
		Type:          pipeline.LLMStepFailed,
		Payload:       map[string]any{"error": message, "stage": w.cfg.Name},
		CorrelationID: jobID,
	}); err != nil {
		w.logger.Error("failed to publish stage failure",
			"stage", w.cfg.Name, "job_id", jobID, "error", err)
	}
}
