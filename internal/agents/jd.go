package agents

import (
	"github.com/narendersurabhi/agents-event-driven/internal/llm"
	"github.com/narendersurabhi/agents-event-driven/internal/pipeline"
	"github.com/narendersurabhi/agents-event-driven/internal/types"
	"github.com/narendersurabhi/agents-event-driven/internal/worker"
)

// JDSchema returns the extraction schema for job description analysis.
func JDSchema() llm.ExtractionSchema {
	return llm.ExtractionSchema{
		Name: "JDAnalysis",
		Description: `You are a precise Job Description Analysis Agent.
You receive one job description as plain text and extract its structure.
- Infer role_title, company, and seniority_level from the text when possible.
- must_have_skills = core technical and domain skills explicitly required or clearly implied.
- nice_to_have_skills = secondary or "bonus" skills.
- notes_for_resume = concise bullet-style text (as one string) with suggestions on how a candidate should tailor their resume.`,
		Fields: []llm.SchemaField{
			{Name: "role_title", Type: "string", Description: "Primary job title for this role", Required: true},
			{Name: "company", Type: "string", Description: "Company name if present or inferable"},
			{Name: "seniority_level", Type: "string", Description: "Seniority, e.g. 'Senior', 'Staff', 'Lead'"},
			{Name: "must_have_skills", Type: "[]string", Description: "Core skills required for the role", Required: true},
			{Name: "nice_to_have_skills", Type: "[]string", Description: "Bonus skills that strengthen a candidate", Required: true},
			{Name: "notes_for_resume", Type: "string", Description: "Guidance on tailoring a resume to this JD", Required: true},
		},
	}
}

// BuildJDPrompt renders the JD analysis prompt for the given posting text.
func BuildJDPrompt(jobDescription string) string {
	return llm.BuildExtractionPrompt(JDSchema(), jobDescription)
}

// JDStage wires JD analysis into the event pipeline.
func JDStage() worker.StageConfig {
	schema := JDSchema()
	return worker.StageConfig{
		Name:           "jd",
		RequestTopic:   pipeline.JDRequested,
		LLMDoneTopic:   pipeline.JDLLMCompleted,
		CompletedTopic: pipeline.JDCompleted,
		ArtifactKey:    pipeline.SlotJD,
		Tier:           llm.TierLite,
		SchemaText:     schema.SchemaJSON(),
		BuildPrompt: func(payload map[string]any) (string, error) {
			text, err := payloadString(payload, "job_description")
			if err != nil {
				return "", err
			}
			return BuildJDPrompt(text), nil
		},
		ParseResult: func(result any) (any, error) {
			var jd types.JDAnalysis
			if err := decodeInto(result, &jd); err != nil {
				return nil, err
			}
			return result, nil
		},
	}
}
