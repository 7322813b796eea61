package agents

import (
	"fmt"

	"github.com/narendersurabhi/agents-event-driven/internal/llm"
	"github.com/narendersurabhi/agents-event-driven/internal/pipeline"
	"github.com/narendersurabhi/agents-event-driven/internal/types"
	"github.com/narendersurabhi/agents-event-driven/internal/worker"
)

// BuildImprovePrompt renders the revision prompt. The improver rewrites the
// tailored resume to address QA findings without inventing new facts.
func BuildImprovePrompt(jdJSON, profileJSON, resumeJSON, qaJSON string) string {
	return fmt.Sprintf(`You are the Resume Improver. Revise the tailored resume to address the QA report.

Rules:
- Fix every blocker and major issue; address minor issues where possible.
- Apply the suggestions when they do not conflict with the profile.
- Use ONLY facts from the candidate profile. Never invent skills, employers, dates, or metrics.
- Keep bullets' source_experience_index values pointing at the correct profile experience.
- Keep the candidate's verbatim years-of-experience claims intact.
- Preserve anything the QA report did not flag.

Output STRICT JSON, no markdown, matching:

%s

JD ANALYSIS:
%s

CANDIDATE PROFILE (truth source):
%s

CURRENT TAILORED RESUME:
%s

QA REPORT:
%s

Return ONLY JSON for the revised resume. No commentary.`, ComposeSchema().SchemaJSON(), jdJSON, profileJSON, resumeJSON, qaJSON)
}

// ImproveStage wires QA-driven revision into the event pipeline. The revised
// resume is published under the tailored artifact key so downstream stages
// pick up the improved version.
func ImproveStage() worker.StageConfig {
	schema := ComposeSchema()
	return worker.StageConfig{
		Name:           "qa_improve",
		RequestTopic:   pipeline.QAImproveRequested,
		LLMDoneTopic:   pipeline.QAImproveLLMCompleted,
		CompletedTopic: pipeline.QAImproveCompleted,
		ArtifactKey:    pipeline.SlotTailored,
		Tier:           llm.TierAdvanced,
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
			qaJSON, err := payloadJSON(payload, "qa")
			if err != nil {
				return "", err
			}
			return BuildImprovePrompt(jdJSON, profileJSON, resumeJSON, qaJSON), nil
		},
		ParseResult: func(result any) (any, error) {
			var resume types.TailoredResume
			if err := decodeInto(result, &resume); err != nil {
				return nil, err
			}
			return result, nil
		},
	}
}
