package agents

import (
	"fmt"

	"github.com/narendersurabhi/agents-event-driven/internal/llm"
	"github.com/narendersurabhi/agents-event-driven/internal/pipeline"
	"github.com/narendersurabhi/agents-event-driven/internal/types"
	"github.com/narendersurabhi/agents-event-driven/internal/worker"
)

// CoverLetterSchema returns the schema for the generated cover letter.
func CoverLetterSchema() llm.ExtractionSchema {
	return llm.ExtractionSchema{
		Name:        "CoverLetter",
		Description: "A short cover letter grounded in the tailored resume and JD.",
		Fields: []llm.SchemaField{
			{Name: "full_name", Type: "string", Required: true},
			{Name: "email", Type: "string"},
			{Name: "phone", Type: "string"},
			{Name: "company", Type: "string", Description: "Company from the JD if known"},
			{Name: "role_title", Type: "string", Description: "Role from the JD if known"},
			{Name: "body", Type: "string", Description: "Letter body, 3-4 paragraphs of plain text", Required: true},
		},
	}
}

// BuildCoverLetterPrompt renders the cover letter prompt.
func BuildCoverLetterPrompt(jdJSON, profileJSON, resumeJSON string) string {
	return fmt.Sprintf(`You are the Cover Letter Writer. Write a concise, specific cover letter for this candidate and role.

Rules:
- Ground every claim in the profile and tailored resume. Never invent experience.
- 3-4 short paragraphs: hook, evidence for the must-have skills, fit and motivation, close.
- Professional but human tone. No cliches like "I am writing to express".
- Address the company and role when the JD names them.

Output STRICT JSON, no markdown, matching:

%s

JD ANALYSIS:
%s

CANDIDATE PROFILE:
%s

TAILORED RESUME:
%s

Return ONLY JSON for the cover letter. No commentary.`, CoverLetterSchema().SchemaJSON(), jdJSON, profileJSON, resumeJSON)
}

// CoverLetterStage wires cover letter generation into the event pipeline.
func CoverLetterStage() worker.StageConfig {
	schema := CoverLetterSchema()
	return worker.StageConfig{
		Name:           "cover_letter",
		RequestTopic:   pipeline.CoverLetterRequested,
		LLMDoneTopic:   pipeline.CoverLetterLLMCompleted,
		CompletedTopic: pipeline.CoverLetterCompleted,
		ArtifactKey:    pipeline.SlotCoverLetter,
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
			return BuildCoverLetterPrompt(jdJSON, profileJSON, resumeJSON), nil
		},
		ParseResult: func(result any) (any, error) {
			var letter types.CoverLetter
			if err := decodeInto(result, &letter); err != nil {
				return nil, err
			}
			return result, nil
		},
	}
}
