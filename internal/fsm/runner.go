package fsm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/narendersurabhi/agents-event-driven/internal/worker"
)

// Runner states. Like the orchestrator's stage markers, they name the last
// completed step.
const (
	StatePending          = "PENDING"
	StateJDAnalyzed       = "JD_ANALYZED"
	StateProfileExtracted = "PROFILE_EXTRACTED"
	StatePlanReady        = "PLAN_READY"
	StateComposed         = "COMPOSED"
	StateQADone           = "QA_DONE"
	StateImproved         = "IMPROVED"
	StateDone             = "DONE"
	StateFailed           = "FAILED"
)

// Executor runs one stage synchronously. Satisfied by worker.DirectExecutor.
type Executor interface {
	Execute(ctx context.Context, cfg worker.StageConfig, payload map[string]any) (any, error)
}

// Result collects every artifact produced by a direct run.
type Result struct {
	JD          any
	Profile     any
	Plan        any
	Tailored    any
	QA          any
	Improved    any
	CoverLetter any
}

// FinalResume returns the improved resume when the improver ran, otherwise
// the composed one.
func (r *Result) FinalResume() any {
	if r.Improved != nil {
		return r.Improved
	}
	return r.Tailored
}

// Runner executes the pipeline stages sequentially in one process, tracking
// progress on a state machine instead of the event bus. It applies the same
// stage ordering and QA/improver gating as the orchestrator.
type Runner struct {
	machine     Machine
	executor    Executor
	stages      map[string]worker.StageConfig
	logger      *slog.Logger
	runQA       bool
	runImprover bool
}

// NewRunner builds a runner over the given stage configs, keyed by stage name.
// A nil machine defaults to SimpleMachine.
func NewRunner(machine Machine, executor Executor, stages []worker.StageConfig, runQA, runImprover bool, logger *slog.Logger) *Runner {
	if machine == nil {
		machine = NewSimpleMachine()
	}
	if logger == nil {
		logger = slog.Default()
	}
	byName := make(map[string]worker.StageConfig, len(stages))
	for _, cfg := range stages {
		byName[cfg.Name] = cfg
	}
	r := &Runner{
		machine:     machine,
		executor:    executor,
		stages:      byName,
		logger:      logger,
		runQA:       runQA,
		runImprover: runImprover,
	}
	r.wire()
	return r
}

func (r *Runner) wire() {
	for _, s := range []string{
		StatePending, StateJDAnalyzed, StateProfileExtracted, StatePlanReady,
		StateComposed, StateQADone, StateImproved, StateDone, StateFailed,
	} {
		r.machine.AddState(s)
	}

	r.machine.AddTransition("analyze", StatePending, StateJDAnalyzed, nil)
	r.machine.AddTransition("profile", StateJDAnalyzed, StateProfileExtracted, nil)
	r.machine.AddTransition("plan", StateProfileExtracted, StatePlanReady, nil)
	r.machine.AddTransition("compose", StatePlanReady, StateComposed, nil)
	r.machine.AddTransition("qa", StateComposed, StateQADone, nil)
	r.machine.AddTransition("improve", StateQADone, StateImproved, nil)

	// finish is legal whenever the remaining optional steps are skipped.
	for _, source := range []string{StateComposed, StateQADone, StateImproved} {
		r.machine.AddTransition("finish", source, StateDone, nil)
	}

	for _, source := range []string{
		StatePending, StateJDAnalyzed, StateProfileExtracted, StatePlanReady,
		StateComposed, StateQADone, StateImproved,
	} {
		r.machine.AddTransition("fail", source, StateFailed, nil)
	}
}

// State returns the machine's current state.
func (r *Runner) State() string {
	return r.machine.State()
}

func (r *Runner) step(ctx context.Context, trigger, stage string, payload map[string]any) (any, error) {
	cfg, ok := r.stages[stage]
	if !ok {
		return nil, fmt.Errorf("no stage config for %s", stage)
	}
	artifact, err := r.executor.Execute(ctx, cfg, payload)
	if err != nil {
		if ferr := r.machine.Trigger("fail"); ferr != nil {
			r.logger.Error("fail transition rejected", "stage", stage, "error", ferr)
		}
		return nil, err
	}
	if err := r.machine.Trigger(trigger); err != nil {
		return nil, fmt.Errorf("failed to advance past %s: %w", stage, err)
	}
	r.logger.Info("stage done", "stage", stage, "state", r.machine.State())
	return artifact, nil
}

// Run executes the full pipeline for one job description and resume.
func (r *Runner) Run(ctx context.Context, jdText, resumeText string) (*Result, error) {
	if err := r.machine.SetState(StatePending); err != nil {
		return nil, err
	}
	result := &Result{}

	var err error
	result.JD, err = r.step(ctx, "analyze", "jd", map[string]any{"job_description": jdText})
	if err != nil {
		return nil, err
	}
	result.Profile, err = r.step(ctx, "profile", "profile", map[string]any{"resume_text": resumeText})
	if err != nil {
		return nil, err
	}
	result.Plan, err = r.step(ctx, "plan", "match", map[string]any{
		"jd": result.JD, "profile": result.Profile,
	})
	if err != nil {
		return nil, err
	}
	result.Tailored, err = r.step(ctx, "compose", "compose", map[string]any{
		"jd": result.JD, "profile": result.Profile, "plan": result.Plan,
	})
	if err != nil {
		return nil, err
	}

	if r.runQA {
		result.QA, err = r.step(ctx, "qa", "qa", map[string]any{
			"jd": result.JD, "profile": result.Profile, "resume": result.Tailored,
		})
		if err != nil {
			return nil, err
		}

		if r.runImprover {
			result.Improved, err = r.step(ctx, "improve", "qa_improve", map[string]any{
				"jd":      result.JD,
				"profile": result.Profile,
				"resume":  result.Tailored,
				"qa":      result.QA,
			})
			if err != nil {
				return nil, err
			}

			// The cover letter is written only from an improved resume.
			letterCfg, ok := r.stages["cover_letter"]
			if ok {
				result.CoverLetter, err = r.executor.Execute(ctx, letterCfg, map[string]any{
					"jd":      result.JD,
					"profile": result.Profile,
					"resume":  result.FinalResume(),
				})
				if err != nil {
					if ferr := r.machine.Trigger("fail"); ferr != nil {
						r.logger.Error("fail transition rejected", "stage", "cover_letter", "error", ferr)
					}
					return nil, err
				}
			}
		}
	}

	if err := r.machine.Trigger("finish"); err != nil {
		return nil, fmt.Errorf("failed to finish run: %w", err)
	}
	return result, nil
}
