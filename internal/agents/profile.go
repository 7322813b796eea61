package agents

import (
	"github.com/narendersurabhi/agents-event-driven/internal/llm"
	"github.com/narendersurabhi/agents-event-driven/internal/pipeline"
	"github.com/narendersurabhi/agents-event-driven/internal/types"
	"github.com/narendersurabhi/agents-event-driven/internal/worker"
)

// ProfileSchema returns the extraction schema for the canonical candidate
// profile. The profile is JD-agnostic: it captures what the candidate has
// actually done, verbatim where it matters.
func ProfileSchema() llm.ExtractionSchema {
	return llm.ExtractionSchema{
		Name: "Profile",
		Description: `You are a precise Resume Parsing Agent.
You receive a candidate's resume as plain text and extract a canonical professional profile.
- Copy factual claims verbatim; never inflate titles, dates, or years of experience.
- experience entries keep their original bullets, one string per bullet.
- experience_years_claims captures any "N+ years" style claims with the exact snippet as evidence.
- core_skills are the candidate's primary skills as stated, not inferred from job duties.`,
		Fields: []llm.SchemaField{
			{Name: "full_name", Type: "string", Description: "Candidate's full name", Required: true},
			{Name: "headline", Type: "string", Description: "Professional headline if present"},
			{Name: "location", Type: "string"},
			{Name: "phone", Type: "string"},
			{Name: "email", Type: "string"},
			{Name: "linkedin_url", Type: "string"},
			{Name: "github_url", Type: "string"},
			{Name: "years_of_experience", Type: "number", Description: "Total years of experience if stated"},
			{Name: "experience_years_claims", Type: "[]object", Description: "Verbatim years-of-experience claims: area, years_text, evidence"},
			{Name: "core_skills", Type: "[]string", Description: "Primary skills as stated in the resume", Required: true},
			{Name: "domain_expertise", Type: "[]string"},
			{Name: "tools_and_tech", Type: "[]string"},
			{Name: "experience", Type: "[]object", Description: "Roles with title, company, dates, location, bullets, skills", Required: true},
			{Name: "education", Type: "[]string"},
			{Name: "education_items", Type: "[]object", Description: "Structured education entries: institution, degree, dates"},
			{Name: "certifications", Type: "[]object", Description: "Certifications: name, issuer, year"},
		},
	}
}

// BuildProfilePrompt renders the profile extraction prompt for resume text.
func BuildProfilePrompt(resumeText string) string {
	return llm.BuildExtractionPrompt(ProfileSchema(), resumeText)
}

// ProfileStage wires profile extraction into the event pipeline.
func ProfileStage() worker.StageConfig {
	schema := ProfileSchema()
	return worker.StageConfig{
		Name:           "profile",
		RequestTopic:   pipeline.ProfileRequested,
		LLMDoneTopic:   pipeline.ProfileLLMCompleted,
		CompletedTopic: pipeline.ProfileCompleted,
		ArtifactKey:    pipeline.SlotProfile,
		Tier:           llm.TierStandard,
		SchemaText:     schema.SchemaJSON(),
		BuildPrompt: func(payload map[string]any) (string, error) {
			text, err := payloadString(payload, "resume_text")
			if err != nil {
				return "", err
			}
			return BuildProfilePrompt(text), nil
		},
		ParseResult: func(result any) (any, error) {
			var profile types.Profile
			if err := decodeInto(result, &profile); err != nil {
				return nil, err
			}
			return result, nil
		},
	}
}
