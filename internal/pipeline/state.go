package pipeline

import (
	"github.com/narendersurabhi/agents-event-driven/internal/bus"
	"github.com/narendersurabhi/agents-event-driven/internal/store"
)

// Stage markers recorded in JobState.Stage. They name the last completed
// transition, not the stage currently running.
const (
	StagePending              = "PENDING"
	StageStarted              = "STARTED"
	StageJDCompleted          = "JD_COMPLETED"
	StageProfileCompleted     = "PROFILE_COMPLETED"
	StageMatchCompleted       = "MATCH_COMPLETED"
	StageComposeCompleted     = "COMPOSE_COMPLETED"
	StageComposeRestarted     = "COMPOSE_RESTARTED"
	StageQACompleted          = "QA_COMPLETED"
	StageQAImproveCompleted   = "QA_IMPROVE_COMPLETED"
	StageCoverLetterCompleted = "COVER_LETTER_COMPLETED"
	StageCompleted            = "COMPLETED"
)

// Artifact slot names used in snapshots and the pipeline.completed payload.
const (
	SlotJD          = "jd"
	SlotProfile     = "profile"
	SlotPlan        = "plan"
	SlotTailored    = "tailored"
	SlotQA          = "qa"
	SlotImproved    = "improved"
	SlotCoverLetter = "cover_letter"
)

// JobState is the per-job record owned by the orchestrator. Artifacts are
// held as decoded JSON values; only the stage agents interpret their shape.
type JobState struct {
	JD          any
	Profile     any
	Plan        any
	Tailored    any
	QA          any
	Improved    any
	CoverLetter any

	RunQA       bool
	RunImprover bool
	Stage       string

	// Inputs keeps the original start payload (job description and resume
	// text) so resume can re-request an entry stage that never completed.
	Inputs map[string]any
}

// NewJobState returns the state for a job that has not started yet.
func NewJobState() *JobState {
	return &JobState{RunQA: true, RunImprover: true, Stage: StagePending}
}

// Snapshot projects the state into its durable form.
func (s *JobState) Snapshot(jobID string) *store.Snapshot {
	return &store.Snapshot{
		JobID:       jobID,
		Stage:       s.Stage,
		RunQA:       s.RunQA,
		RunImprover: s.RunImprover,
		Inputs:      s.Inputs,
		Artifacts: map[string]any{
			SlotJD:          s.JD,
			SlotProfile:     s.Profile,
			SlotPlan:        s.Plan,
			SlotTailored:    s.Tailored,
			SlotQA:          s.QA,
			SlotImproved:    s.Improved,
			SlotCoverLetter: s.CoverLetter,
		},
	}
}

// StateFromSnapshot rebuilds a JobState from a stored snapshot. Slots the
// snapshot does not mention stay nil, so older snapshots load cleanly.
func StateFromSnapshot(snap *store.Snapshot) *JobState {
	state := &JobState{
		RunQA:       snap.RunQA,
		RunImprover: snap.RunImprover,
		Stage:       snap.Stage,
		Inputs:      snap.Inputs,
	}
	if state.Stage == "" {
		state.Stage = StagePending
	}
	if snap.Artifacts != nil {
		state.JD = snap.Artifacts[SlotJD]
		state.Profile = snap.Artifacts[SlotProfile]
		state.Plan = snap.Artifacts[SlotPlan]
		state.Tailored = snap.Artifacts[SlotTailored]
		state.QA = snap.Artifacts[SlotQA]
		state.Improved = snap.Artifacts[SlotImproved]
		state.CoverLetter = snap.Artifacts[SlotCoverLetter]
	}
	return state
}

// finalResume is the document downstream stages should work from: the
// improved resume when the improver ran, otherwise the composed one.
func (s *JobState) finalResume() any {
	if s.Improved != nil {
		return s.Improved
	}
	return s.Tailored
}

// NextAction derives the request events that move the job forward, as a pure
// function of state. Calling it repeatedly on unchanged state yields the same
// events, which is what makes resume idempotent. An empty result means there
// is nothing to request: the job either has not started and has no recorded
// inputs, or every remaining stage is done (see readyToComplete).
func (s *JobState) NextAction(jobID string) []bus.Event {
	if s.JD == nil || s.Profile == nil {
		var events []bus.Event
		if s.JD == nil {
			if jdText, ok := s.Inputs["jd_text"].(string); ok && jdText != "" {
				events = append(events, bus.Event{
					Type:          JDRequested,
					Payload:       map[string]any{"job_description": jdText},
					CorrelationID: jobID,
				})
			}
		}
		if s.Profile == nil {
			if resumeText, ok := s.Inputs["resume_text"].(string); ok && resumeText != "" {
				events = append(events, bus.Event{
					Type: ProfileRequested,
					Payload: map[string]any{
						"resume_text":   resumeText,
						"force_refresh": false,
					},
					CorrelationID: jobID,
				})
			}
		}
		return events
	}

	switch {
	case s.Plan == nil:
		return []bus.Event{{
			Type:          MatchRequested,
			Payload:       map[string]any{"jd": s.JD, "profile": s.Profile},
			CorrelationID: jobID,
		}}
	case s.Tailored == nil:
		return []bus.Event{{
			Type:          ComposeRequested,
			Payload:       map[string]any{"jd": s.JD, "profile": s.Profile, "plan": s.Plan},
			CorrelationID: jobID,
		}}
	case s.RunQA && s.QA == nil:
		return []bus.Event{{
			Type:          QARequested,
			Payload:       map[string]any{"jd": s.JD, "profile": s.Profile, "resume": s.Tailored},
			CorrelationID: jobID,
		}}
	case s.RunQA && s.RunImprover && s.Improved == nil:
		return []bus.Event{{
			Type: QAImproveRequested,
			Payload: map[string]any{
				"jd":      s.JD,
				"profile": s.Profile,
				"resume":  s.Tailored,
				"qa":      s.QA,
			},
			CorrelationID: jobID,
		}}
	case s.Improved != nil && s.CoverLetter == nil:
		return []bus.Event{{
			Type: CoverLetterRequested,
			Payload: map[string]any{
				"jd":      s.JD,
				"profile": s.Profile,
				"resume":  s.finalResume(),
			},
			CorrelationID: jobID,
		}}
	}
	return nil
}

// readyToComplete reports whether every stage the job's flags call for has
// produced its artifact. Used by resume to finalize a job whose last event
// was lost before the completion fan-out.
func (s *JobState) readyToComplete() bool {
	if s.Tailored == nil {
		return false
	}
	if s.RunQA && s.QA == nil {
		return false
	}
	if s.RunQA && s.RunImprover && s.Improved == nil {
		return false
	}
	if s.Improved != nil && s.CoverLetter == nil {
		return false
	}
	return true
}
