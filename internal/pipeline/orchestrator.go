package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/narendersurabhi/agents-event-driven/internal/bus"
	"github.com/narendersurabhi/agents-event-driven/internal/store"
)

// Orchestrator drives jobs through the pipeline purely via events. It owns
// every JobState, merges completion artifacts, persists a snapshot after each
// transition, and publishes the next request. An artifact is always recorded
// durably before the downstream request is published, so a crash between the
// two is recoverable via resume.
type Orchestrator struct {
	bus    bus.Bus
	store  store.Store
	logger *slog.Logger
	arena  *stateArena
}

// NewOrchestrator creates an orchestrator over the given bus and store.
func NewOrchestrator(b bus.Bus, s store.Store, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{bus: b, store: s, logger: logger, arena: newStateArena()}
}

// Start registers every orchestrator handler loop with the supervisor.
func (o *Orchestrator) Start(sup *Supervisor) {
	sup.Go(PipelineStart, o.consume(PipelineStart, o.handleStart))
	sup.Go(PipelineResume, o.consume(PipelineResume, o.handleResume))
	sup.Go(PipelineRestartCompose, o.consume(PipelineRestartCompose, o.handleRestartCompose))
	sup.Go(JDCompleted, o.consume(JDCompleted, o.handleJDCompleted))
	sup.Go(ProfileCompleted, o.consume(ProfileCompleted, o.handleProfileCompleted))
	sup.Go(MatchCompleted, o.consume(MatchCompleted, o.handleMatchCompleted))
	sup.Go(ComposeCompleted, o.consume(ComposeCompleted, o.handleComposeCompleted))
	sup.Go(QACompleted, o.consume(QACompleted, o.handleQACompleted))
	sup.Go(QAImproveCompleted, o.consume(QAImproveCompleted, o.handleQAImproveCompleted))
	sup.Go(CoverLetterCompleted, o.consume(CoverLetterCompleted, o.handleCoverLetterCompleted))
}

// consume adapts a per-event handler into a supervisor worker loop. Events
// without a correlation id cannot be routed to a job and are dropped.
func (o *Orchestrator) consume(topic string, handle func(ctx context.Context, event bus.Event) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		ch := o.bus.Subscribe(topic)
		for {
			select {
			case <-ctx.Done():
				return nil
			case event := <-ch:
				if event.CorrelationID == "" {
					o.logger.Warn("event without correlation id dropped", "topic", topic)
					continue
				}
				if err := handle(ctx, event); err != nil {
					return fmt.Errorf("failed to handle %s event: %w", topic, err)
				}
			}
		}
	}
}

// withState runs fn with the job's state under the job's lock, hydrating from
// the store on first touch. Store errors other than not-found propagate.
func (o *Orchestrator) withState(ctx context.Context, jobID string, fn func(state *JobState) error) error {
	lock := o.arena.lockFor(jobID)
	lock.Lock()
	defer lock.Unlock()

	state := o.arena.get(jobID)
	if state == nil {
		snap, err := o.store.Load(ctx, jobID)
		switch {
		case err == nil:
			state = StateFromSnapshot(snap)
		case errors.Is(err, store.ErrNotFound):
			state = NewJobState()
		default:
			return fmt.Errorf("failed to hydrate job %s: %w", jobID, err)
		}
		o.arena.put(jobID, state)
	}
	return fn(state)
}

func (o *Orchestrator) persist(ctx context.Context, jobID string, state *JobState) error {
	if err := o.store.Save(ctx, jobID, state.Snapshot(jobID)); err != nil {
		return fmt.Errorf("failed to persist job %s: %w", jobID, err)
	}
	return nil
}

// StateSnapshot returns the current snapshot for a job, preferring in-memory
// state and falling back to the store. Returns store.ErrNotFound for jobs
// this process has never seen.
func (o *Orchestrator) StateSnapshot(ctx context.Context, jobID string) (*store.Snapshot, error) {
	lock := o.arena.lockFor(jobID)
	lock.Lock()
	state := o.arena.get(jobID)
	if state != nil {
		snap := state.Snapshot(jobID)
		lock.Unlock()
		return snap, nil
	}
	lock.Unlock()
	return o.store.Load(ctx, jobID)
}

// ----- Entry points -----

func (o *Orchestrator) handleStart(ctx context.Context, event bus.Event) error {
	jobID := event.CorrelationID
	jdText := event.StringField("jd_text")
	resumeText := event.StringField("resume_text")
	runQA := event.BoolField("run_qa", true)
	runImprover := event.BoolField("run_improver", true)
	forceProfileRefresh := event.BoolField("force_profile_refresh", false)

	err := o.withState(ctx, jobID, func(state *JobState) error {
		state.RunQA = runQA
		state.RunImprover = runImprover
		state.Stage = StageStarted
		state.Inputs = map[string]any{
			"jd_text":     jdText,
			"resume_text": resumeText,
		}
		return o.persist(ctx, jobID, state)
	})
	if err != nil {
		return err
	}

	o.logger.Info("pipeline started",
		"job_id", jobID,
		"run_qa", runQA,
		"run_improver", runImprover,
		"force_profile_refresh", forceProfileRefresh,
	)

	// Kick off JD and profile extraction in parallel.
	if err := o.bus.Publish(bus.Event{
		Type:          JDRequested,
		Payload:       map[string]any{"job_description": jdText},
		CorrelationID: jobID,
	}); err != nil {
		return err
	}
	return o.bus.Publish(bus.Event{
		Type: ProfileRequested,
		Payload: map[string]any{
			"resume_text":   resumeText,
			"force_refresh": forceProfileRefresh,
		},
		CorrelationID: jobID,
	})
}

func (o *Orchestrator) handleResume(ctx context.Context, event bus.Event) error {
	jobID := event.CorrelationID
	return o.withState(ctx, jobID, func(state *JobState) error {
		o.logger.Info("pipeline resume", "job_id", jobID, "stage", state.Stage)

		requests := state.NextAction(jobID)
		if len(requests) == 0 {
			if state.readyToComplete() && state.Stage != StageCompleted {
				return o.publishCompleted(ctx, jobID, state)
			}
			// Nothing to resume: not started, or already completed.
			return nil
		}
		for _, request := range requests {
			if err := o.bus.Publish(request); err != nil {
				return err
			}
		}
		return nil
	})
}

func (o *Orchestrator) handleRestartCompose(ctx context.Context, event bus.Event) error {
	jobID := event.CorrelationID
	return o.withState(ctx, jobID, func(state *JobState) error {
		if state.JD == nil || state.Profile == nil || state.Plan == nil {
			o.logger.Error("restart_compose requested before prerequisites exist",
				"job_id", jobID, "stage", state.Stage)
			return nil
		}

		o.logger.Info("pipeline restart_compose", "job_id", jobID)
		// Clear downstream artifacts so fresh ones are produced.
		state.Tailored = nil
		state.QA = nil
		state.Improved = nil
		state.CoverLetter = nil
		state.Stage = StageComposeRestarted
		if err := o.persist(ctx, jobID, state); err != nil {
			return err
		}

		return o.bus.Publish(bus.Event{
			Type:          ComposeRequested,
			Payload:       map[string]any{"jd": state.JD, "profile": state.Profile, "plan": state.Plan},
			CorrelationID: jobID,
		})
	})
}

// ----- Intermediate stages -----

// mergeArtifact writes value into the slot, treating an unchanged duplicate
// as a no-op. Returns false when the handler should skip persist and publish.
func (o *Orchestrator) mergeArtifact(jobID string, slot *any, value any, stage string) bool {
	if *slot != nil && reflect.DeepEqual(*slot, value) {
		o.logger.Info("duplicate completion ignored", "job_id", jobID, "stage", stage)
		return false
	}
	*slot = value
	return true
}

func (o *Orchestrator) handleJDCompleted(ctx context.Context, event bus.Event) error {
	jobID := event.CorrelationID
	return o.withState(ctx, jobID, func(state *JobState) error {
		if !o.mergeArtifact(jobID, &state.JD, event.Payload[SlotJD], StageJDCompleted) {
			return nil
		}
		state.Stage = StageJDCompleted
		if err := o.persist(ctx, jobID, state); err != nil {
			return err
		}
		o.logger.Info("jd completed", "job_id", jobID)

		if state.Profile != nil && state.Plan == nil {
			return o.publishMatchRequested(jobID, state)
		}
		return nil
	})
}

func (o *Orchestrator) handleProfileCompleted(ctx context.Context, event bus.Event) error {
	jobID := event.CorrelationID
	return o.withState(ctx, jobID, func(state *JobState) error {
		if !o.mergeArtifact(jobID, &state.Profile, event.Payload[SlotProfile], StageProfileCompleted) {
			return nil
		}
		state.Stage = StageProfileCompleted
		if err := o.persist(ctx, jobID, state); err != nil {
			return err
		}
		o.logger.Info("profile completed", "job_id", jobID)

		if state.JD != nil && state.Plan == nil {
			return o.publishMatchRequested(jobID, state)
		}
		return nil
	})
}

func (o *Orchestrator) publishMatchRequested(jobID string, state *JobState) error {
	o.logger.Info("match requested", "job_id", jobID)
	return o.bus.Publish(bus.Event{
		Type:          MatchRequested,
		Payload:       map[string]any{"jd": state.JD, "profile": state.Profile},
		CorrelationID: jobID,
	})
}

func (o *Orchestrator) handleMatchCompleted(ctx context.Context, event bus.Event) error {
	jobID := event.CorrelationID
	return o.withState(ctx, jobID, func(state *JobState) error {
		if !o.mergeArtifact(jobID, &state.Plan, event.Payload[SlotPlan], StageMatchCompleted) {
			return nil
		}
		state.Stage = StageMatchCompleted
		if err := o.persist(ctx, jobID, state); err != nil {
			return err
		}
		o.logger.Info("match completed", "job_id", jobID)

		if state.JD != nil && state.Profile != nil {
			o.logger.Info("compose requested", "job_id", jobID)
			return o.bus.Publish(bus.Event{
				Type:          ComposeRequested,
				Payload:       map[string]any{"jd": state.JD, "profile": state.Profile, "plan": state.Plan},
				CorrelationID: jobID,
			})
		}
		return nil
	})
}

func (o *Orchestrator) handleComposeCompleted(ctx context.Context, event bus.Event) error {
	jobID := event.CorrelationID
	return o.withState(ctx, jobID, func(state *JobState) error {
		if !o.mergeArtifact(jobID, &state.Tailored, event.Payload[SlotTailored], StageComposeCompleted) {
			return nil
		}
		state.Stage = StageComposeCompleted
		if err := o.persist(ctx, jobID, state); err != nil {
			return err
		}
		o.logger.Info("compose completed", "job_id", jobID)

		if state.RunQA {
			o.logger.Info("qa requested", "job_id", jobID)
			return o.bus.Publish(bus.Event{
				Type:          QARequested,
				Payload:       map[string]any{"jd": state.JD, "profile": state.Profile, "resume": state.Tailored},
				CorrelationID: jobID,
			})
		}
		return o.publishCompleted(ctx, jobID, state)
	})
}

func (o *Orchestrator) handleQACompleted(ctx context.Context, event bus.Event) error {
	jobID := event.CorrelationID
	return o.withState(ctx, jobID, func(state *JobState) error {
		if !o.mergeArtifact(jobID, &state.QA, event.Payload[SlotQA], StageQACompleted) {
			return nil
		}
		state.Stage = StageQACompleted
		if err := o.persist(ctx, jobID, state); err != nil {
			return err
		}
		o.logger.Info("qa completed", "job_id", jobID)

		if state.RunImprover {
			o.logger.Info("qa_improve requested", "job_id", jobID)
			return o.bus.Publish(bus.Event{
				Type: QAImproveRequested,
				Payload: map[string]any{
					"jd":      state.JD,
					"profile": state.Profile,
					"resume":  state.Tailored,
					"qa":      state.QA,
				},
				CorrelationID: jobID,
			})
		}
		return o.publishCompleted(ctx, jobID, state)
	})
}

func (o *Orchestrator) handleQAImproveCompleted(ctx context.Context, event bus.Event) error {
	jobID := event.CorrelationID
	return o.withState(ctx, jobID, func(state *JobState) error {
		improved := event.Payload[SlotTailored]
		if !o.mergeArtifact(jobID, &state.Improved, improved, StageQAImproveCompleted) {
			return nil
		}
		state.Stage = StageQAImproveCompleted
		if err := o.persist(ctx, jobID, state); err != nil {
			return err
		}
		o.logger.Info("qa_improve completed", "job_id", jobID)

		// With an improved resume in hand, request a cover letter for it.
		finalResume := state.finalResume()
		if finalResume != nil {
			o.logger.Info("cover_letter requested", "job_id", jobID)
			return o.bus.Publish(bus.Event{
				Type: CoverLetterRequested,
				Payload: map[string]any{
					"jd":      state.JD,
					"profile": state.Profile,
					"resume":  finalResume,
				},
				CorrelationID: jobID,
			})
		}
		return o.publishCompleted(ctx, jobID, state)
	})
}

func (o *Orchestrator) handleCoverLetterCompleted(ctx context.Context, event bus.Event) error {
	jobID := event.CorrelationID
	return o.withState(ctx, jobID, func(state *JobState) error {
		if !o.mergeArtifact(jobID, &state.CoverLetter, event.Payload[SlotCoverLetter], StageCoverLetterCompleted) {
			return nil
		}
		state.Stage = StageCoverLetterCompleted
		if err := o.persist(ctx, jobID, state); err != nil {
			return err
		}
		o.logger.Info("cover_letter completed", "job_id", jobID)
		return o.publishCompleted(ctx, jobID, state)
	})
}

// ----- Finalization -----

// publishCompleted records the terminal stage and fans out every artifact
// collected so far. The improved slot falls back to the composed resume so
// consumers always have a final document under that key.
func (o *Orchestrator) publishCompleted(ctx context.Context, jobID string, state *JobState) error {
	state.Stage = StageCompleted
	if err := o.persist(ctx, jobID, state); err != nil {
		return err
	}

	o.logger.Info("pipeline completed", "job_id", jobID)
	return o.bus.Publish(bus.Event{
		Type: PipelineCompleted,
		Payload: map[string]any{
			SlotJD:          state.JD,
			SlotProfile:     state.Profile,
			SlotPlan:        state.Plan,
			SlotTailored:    state.Tailored,
			SlotQA:          state.QA,
			SlotImproved:    state.finalResume(),
			SlotCoverLetter: state.CoverLetter,
		},
		CorrelationID: jobID,
	})
}
