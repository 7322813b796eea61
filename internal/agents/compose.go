package agents

import (
	"fmt"

	"github.com/narendersurabhi/agents-event-driven/internal/llm"
	"github.com/narendersurabhi/agents-event-driven/internal/pipeline"
	"github.com/narendersurabhi/agents-event-driven/internal/types"
	"github.com/narendersurabhi/agents-event-driven/internal/worker"
)

// ComposeSchema returns the schema for the tailored resume.
func ComposeSchema() llm.ExtractionSchema {
	return llm.ExtractionSchema{
		Name:        "TailoredResume",
		Description: "A resume tailored to one job description, grounded in the candidate's profile.",
		Fields: []llm.SchemaField{
			{Name: "full_name", Type: "string", Required: true},
			{Name: "headline", Type: "string"},
			{Name: "location", Type: "string"},
			{Name: "phone", Type: "string"},
			{Name: "email", Type: "string"},
			{Name: "linkedin_url", Type: "string"},
			{Name: "github_url", Type: "string"},
			{Name: "summary", Type: "string", Description: "Tailored professional summary", Required: true},
			{Name: "skills", Type: "[]object", Description: "Skill categories: name, items", Required: true},
			{Name: "experience", Type: "[]object", Description: "Experience entries with bullets carrying source_experience_index", Required: true},
			{Name: "education", Type: "[]object"},
			{Name: "certifications", Type: "[]object"},
			{Name: "resume_text", Type: "string", Description: "Optional flattened Markdown rendering"},
		},
	}
}

// BuildComposePrompt renders the composition prompt from the JD analysis,
// profile, and plan, all as JSON documents.
func BuildComposePrompt(jdJSON, profileJSON, planJSON string) string {
	return fmt.Sprintf(`You are the Resume Composer. Write a tailored resume following the plan exactly.

Rules:
- Use ONLY facts from the candidate profile. Never invent skills, employers, dates, or metrics.
- Follow the plan: include the planned experiences, with the planned bullet counts, emphasizing the focus skills.
- Every bullet carries source_experience_index pointing at the profile experience it came from.
- Keep the candidate's verbatim years-of-experience claims intact.
- Write crisp, active bullets; lead with impact where the profile provides evidence.

Output STRICT JSON, no markdown, matching:

%s

JD ANALYSIS:
%s

CANDIDATE PROFILE:
%s

RESUME PLAN:
%s

Return ONLY JSON for the tailored resume. No commentary.`, ComposeSchema().SchemaJSON(), jdJSON, profileJSON, planJSON)
}

// ComposeStage wires resume composition into the event pipeline.
func ComposeStage() worker.StageConfig {
	schema := ComposeSchema()
	return worker.StageConfig{
		Name:           "compose",
		RequestTopic:   pipeline.ComposeRequested,
		LLMDoneTopic:   pipeline.ComposeLLMCompleted,
		CompletedTopic: pipeline.ComposeCompleted,
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
			planJSON, err := payloadJSON(payload, "plan")
			if err != nil {
				return "", err
			}
			return BuildComposePrompt(jdJSON, profileJSON, planJSON), nil
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
