// Package pipeline implements the event-driven orchestration core: the event
// taxonomy, per-job state, the orchestrator state machine, and the worker
// supervisor. Agents never call each other; the orchestrator only reacts to
// completion events and publishes new requests based on per-job state.
package pipeline

// Central LLM step topics. One generic worker consumes llm_step.requested for
// every stage; reply_to routes the result back to the requesting stage.
const (
	LLMStepRequested = "llm_step.requested"
	LLMStepCompleted = "llm_step.completed"
	LLMStepFailed    = "llm_step.failed"
)

// Pipeline lifecycle topics.
const (
	PipelineStart          = "pipeline.start"
	PipelineResume         = "pipeline.resume"
	PipelineRestartCompose = "pipeline.restart_compose"
	PipelineCompleted      = "pipeline.completed"
)

// JD analysis topics.
const (
	JDRequested    = "jd.requested"
	JDLLMCompleted = "jd.llm.completed"
	JDCompleted    = "jd.completed"
)

// Profile extraction topics.
const (
	ProfileRequested    = "profile.requested"
	ProfileLLMCompleted = "profile.llm.completed"
	ProfileCompleted    = "profile.completed"
)

// Match planning topics.
const (
	MatchRequested    = "match.requested"
	MatchLLMCompleted = "match.llm.completed"
	MatchCompleted    = "match.completed"
)

// Resume composition topics.
const (
	ComposeRequested    = "compose.requested"
	ComposeLLMCompleted = "compose.llm.completed"
	ComposeCompleted    = "compose.completed"
)

// Resume QA topics.
const (
	QARequested    = "qa.requested"
	QALLMCompleted = "qa.llm.completed"
	QACompleted    = "qa.completed"
)

// QA improver topics.
const (
	QAImproveRequested    = "qa_improve.requested"
	QAImproveLLMCompleted = "qa_improve.llm.completed"
	QAImproveCompleted    = "qa_improve.completed"
)

// Cover letter topics.
const (
	CoverLetterRequested    = "cover_letter.requested"
	CoverLetterLLMCompleted = "cover_letter.llm.completed"
	CoverLetterCompleted    = "cover_letter.completed"
)
