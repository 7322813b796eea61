package agents

import (
	"fmt"

	"github.com/narendersurabhi/agents-event-driven/internal/llm"
	"github.com/narendersurabhi/agents-event-driven/internal/pipeline"
	"github.com/narendersurabhi/agents-event-driven/internal/types"
	"github.com/narendersurabhi/agents-event-driven/internal/worker"
)

// QASchema returns the schema for the QA review report.
func QASchema() llm.ExtractionSchema {
	return llm.ExtractionSchema{
		Name:        "QAReport",
		Description: "Structured QA review of a tailored resume against the JD and profile.",
		Fields: []llm.SchemaField{
			{Name: "overall_match_score", Type: "number", Description: "0-100 match score", Required: true},
			{Name: "must_have_coverage", Type: "object", Description: "JD must-have skill -> boolean coverage", Required: true},
			{Name: "issues", Type: "[]object", Description: "Each: severity (blocker|major|minor), message, location_hint", Required: true},
			{Name: "suggestions", Type: "[]string", Description: "Optional guidance strings"},
		},
	}
}

// BuildQAPrompt renders the review prompt. The profile is the truth source:
// truthfulness gaps between resume and profile become issues.
func BuildQAPrompt(jdJSON, profileJSON, resumeJSON string) string {
	return fmt.Sprintf(`You are a strict resume reviewer. Output MUST be valid JSON and nothing else.

Rules:
- must_have_coverage: key = JD must-have skill, value = boolean (true if covered; false if missing).
- issues: each item must include severity + message; include location_hint when known. Use issues for truthfulness gaps.
- suggestions: optional guidance strings.
- No additional top-level keys or nesting.
- No markdown or prose outside the JSON object.

Output STRICT JSON matching:

%s

JD:
%s

PROFILE (truth source):
%s

TAILORED RESUME:
%s

Return only the JSON report.`, QASchema().SchemaJSON(), jdJSON, profileJSON, resumeJSON)
}

// QAStage wires resume QA into the event pipeline.
func QAStage() worker.StageConfig {
	schema := QASchema()
	return worker.StageConfig{
		Name:           "qa",
		RequestTopic:   pipeline.QARequested,
		LLMDoneTopic:   pipeline.QALLMCompleted,
		CompletedTopic: pipeline.QACompleted,
		ArtifactKey:    pipeline.SlotQA,
		Tier:           llm.TierStandard,
		SchemaText:     schema.SchemaJSON(),
		BuildPrompt: func(payload map[string]any) (string, error) {
			jdJSON, err := payloadJSON(payload, "jd")
			if err != nil {
				return "", err
			}
			profileJSON, err := payloadJSON(payload, "profile")
			if err != nil {
				return "", err
			}
			resumeJSON, err := payloadJSON(payload, "resume")
			if err != nil {
				return "", err
			}
			return BuildQAPrompt(jdJSON, profileJSON, resumeJSON), nil
		},
		ParseResult: func(result any) (any, error) {
			var report types.QAReport
			if err := decodeInto(result, &report); err != nil {
				return nil, err
			}
			return result, nil
		},
	}
}
