package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/narendersurabhi/agents-event-driven/internal/llm"
)

// DirectExecutor runs a stage's LLM call synchronously, without the bus. It
// applies the same parse, validate, and single-repair contract as the step
// worker, so a stage behaves identically in direct and event-driven mode.
type DirectExecutor struct {
	client llm.Client
	repair Repairer
	logger *slog.Logger
}

// NewDirectExecutor creates a direct executor. A nil repairer disables repair.
func NewDirectExecutor(client llm.Client, repair Repairer, logger *slog.Logger) *DirectExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectExecutor{client: client, repair: repair, logger: logger}
}

// Execute runs one stage against the given payload and returns its artifact.
func (e *DirectExecutor) Execute(ctx context.Context, cfg StageConfig, payload map[string]any) (any, error) {
	prompt, err := cfg.BuildPrompt(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s prompt: %w", cfg.Name, err)
	}

	tier := cfg.Tier
	if tier == "" {
		tier = llm.TierStandard
	}
	e.logger.Info("stage started", "stage", cfg.Name, "tier", string(tier))

	raw, err := e.client.GenerateJSON(ctx, prompt, tier)
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s output: %w", cfg.Name, err)
	}

	repaired := false
	data, parseErr := parseStructured(raw, cfg.SchemaText)
	if parseErr != nil {
		if e.repair == nil {
			return nil, parseErr
		}
		e.logger.Warn("stage output unparseable", "stage", cfg.Name, "error", parseErr)

		repairedRaw, repairErr := e.repair.Repair(ctx, raw, cfg.SchemaText, parseErr.Error())
		if repairErr != nil {
			return nil, fmt.Errorf("failed to repair %s output: %w", cfg.Name, repairErr)
		}
		repaired = true
		data, parseErr = parseStructured(repairedRaw, cfg.SchemaText)
		if parseErr != nil {
			return nil, fmt.Errorf("%s output invalid after repair: %w", cfg.Name, parseErr)
		}
	}

	if cfg.ParseResult != nil {
		data, err = cfg.ParseResult(data)
		if err != nil {
			return nil, fmt.Errorf("%s result rejected: %w", cfg.Name, err)
		}
	}
	e.logger.Info("stage finished", "stage", cfg.Name, "repaired", repaired)
	return data, nil
}
