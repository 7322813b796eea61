// Package worker provides the generic LLM step worker and the per-stage
// workers that bridge stage events to it. The step worker owns JSON repair:
// stage agents describe their LLM call and only ever see clean structured
// values or a failure event.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/narendersurabhi/agents-event-driven/internal/bus"
	"github.com/narendersurabhi/agents-event-driven/internal/llm"
	"github.com/narendersurabhi/agents-event-driven/internal/pipeline"
	"github.com/narendersurabhi/agents-event-driven/internal/schemas"
)

// Repairer is the single bounded repair procedure applied to unparseable LLM
// output. Satisfied by llm.RepairAgent.
type Repairer interface {
	Repair(ctx context.Context, raw, schemaText, parseErr string) (string, error)
}

// StepWorker processes llm_step.requested events: it calls the LLM, parses
// and validates the JSON output, attempts exactly one repair on failure, and
// publishes the result to the topic named in the request's reply_to.
type StepWorker struct {
	bus    bus.Bus
	client llm.Client
	repair Repairer
	logger *slog.Logger
}

// NewStepWorker creates a step worker. A nil repairer disables repair; parse
// failures then fail immediately.
func NewStepWorker(b bus.Bus, client llm.Client, repair Repairer, logger *slog.Logger) *StepWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &StepWorker{bus: b, client: client, repair: repair, logger: logger}
}

// Run blocks and processes LLM step requests until ctx is cancelled.
func (w *StepWorker) Run(ctx context.Context) error {
	ch := w.bus.Subscribe(pipeline.LLMStepRequested)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-ch:
			w.handleRequest(ctx, event)
		}
	}
}

// inferStep names the requesting stage for logging, derived from reply_to.
func inferStep(replyTo string) string {
	if idx := strings.Index(replyTo, ".llm."); idx >= 0 {
		return replyTo[:idx]
	}
	return strings.TrimSuffix(replyTo, ".completed")
}

// handleRequest never lets an error or panic escape: one bad job must not
// halt processing of subsequent jobs.
func (w *StepWorker) handleRequest(ctx context.Context, event bus.Event) {
	jobID := event.CorrelationID

	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("step worker panic", "job_id", jobID, "panic", r)
			w.publishFailed(jobID, fmt.Sprintf("panic during step execution: %v", r))
		}
	}()

	prompt := event.StringField("prompt")
	if prompt == "" {
		w.logger.Error("invalid step request",
			"job_id", jobID, "missing", "prompt", "reply_to", event.ReplyTo)
		w.publishFailed(jobID, "missing field: prompt")
		return
	}
	schemaText := event.StringField("schema_text")

	tier := llm.ModelTier(event.StringField("tier"))
	if tier == "" {
		tier = llm.TierStandard
	}

	replyTo := event.ReplyTo
	if replyTo == "" {
		replyTo = pipeline.LLMStepCompleted
	}
	step := inferStep(replyTo)
	w.logger.Info("step started", "job_id", jobID, "step", step, "tier", string(tier))

	raw, err := w.client.GenerateJSON(ctx, prompt, tier)
	if err != nil {
		w.logger.Error("step generation failed", "job_id", jobID, "step", step, "error", err)
		w.publishFailed(jobID, err.Error())
		return
	}

	repaired := false
	data, parseErr := parseStructured(raw, schemaText)
	if parseErr != nil {
		w.logger.Warn("step output unparseable",
			"job_id", jobID, "step", step, "error", parseErr)
		if w.repair == nil {
			w.publishFailed(jobID, parseErr.Error())
			return
		}

		// Exactly one repair attempt, then give up.
		repairedRaw, repairErr := w.repair.Repair(ctx, raw, schemaText, parseErr.Error())
		if repairErr != nil {
			w.logger.Error("step repair failed", "job_id", jobID, "step", step, "error", repairErr)
			w.publishFailed(jobID, repairErr.Error())
			return
		}
		repaired = true
		data, parseErr = parseStructured(repairedRaw, schemaText)
		if parseErr != nil {
			w.logger.Error("step output unparseable after repair",
				"job_id", jobID, "step", step, "error", parseErr)
			w.publishFailed(jobID, parseErr.Error())
			return
		}
	}

	if err := w.bus.Publish(bus.Event{
		Type:          replyTo,
		Payload:       map[string]any{"result": data},
		CorrelationID: jobID,
	}); err != nil {
		w.logger.Error("failed to publish step result", "job_id", jobID, "step", step, "error", err)
		return
	}
	w.logger.Info("step finished", "job_id", jobID, "step", step, "repaired", repaired)
}

// parseStructured interprets raw LLM output as a JSON value and, when a
// schema is provided, validates its shape. Shared by the step worker and the
// direct executor.
func parseStructured(raw, schemaText string) (any, error) {
	cleaned := llm.CleanJSONBlock(raw)

	var data any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("failed to parse JSON output: %w", err)
	}
	if schemaText != "" {
		if err := schemas.ValidateJSONString(schemaText, cleaned); err != nil {
			return nil, err
		}
	}
	return data, nil
}

func (w *StepWorker) publishFailed(jobID, message string) {
	if err := w.bus.Publish(bus.Event{
		Type:          pipeline.LLMStepFailed,
		Payload:       map[string]any{"error": message},
		CorrelationID: jobID,
	}); err != nil {
		w.logger.Error("failed to publish step failure", "job_id", jobID, "error", err)
	}
}
