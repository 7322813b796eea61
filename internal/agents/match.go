package agents

import (
	"fmt"

	"github.com/narendersurabhi/agents-event-driven/internal/llm"
	"github.com/narendersurabhi/agents-event-driven/internal/pipeline"
	"github.com/narendersurabhi/agents-event-driven/internal/types"
	"github.com/narendersurabhi/agents-event-driven/internal/worker"
)

// MatchSchema returns the schema for the resume tailoring plan.
func MatchSchema() llm.ExtractionSchema {
	return llm.ExtractionSchema{
		Name:        "ResumePlan",
		Description: "Plan for tailoring a resume to a job description.",
		Fields: []llm.SchemaField{
			{Name: "target_title", Type: "string", Description: "Title to target on the resume", Required: true},
			{Name: "target_company", Type: "string"},
			{Name: "sections_order", Type: "[]string", Description: "Resume section order, e.g. Summary, Skills, Experience, Education", Required: true},
			{Name: "length_hint", Type: "string", Description: `"one_page" or "two_pages_ok"`, Required: true},
			{Name: "experiences_plan", Type: "[]object", Description: "Per experience: profile_experience_index, include, relevance_score (0.0-1.0), target_bullet_count, focus_skills", Required: true},
			{Name: "skills_plan", Type: "object", Description: "must_have_covered, must_have_missing, nice_to_have_covered, extra_profile_skills", Required: true},
		},
	}
}

// BuildMatchPrompt renders the planning prompt from the JD analysis and
// profile, both as JSON documents.
func BuildMatchPrompt(jdJSON, profileJSON string) string {
	return fmt.Sprintf(`You are the Match Planner. Given a JD analysis and a candidate's professional profile,
produce a concrete plan for how the resume SHOULD be tailored. You DO NOT write text.
You ONLY output a JSON plan matching the given schema.

Rules:
- Include only experiences from the profile (by index).
- Choose which experiences to include and how many bullets each gets.
- Focus on covering JD must-have skills with evidence from the profile.
- Set length_hint: "one_page" if 0-7 years of exp or small scope; otherwise "two_pages_ok".
- Do NOT invent skills or companies. Planning only.
- Scores are 0.0-1.0 where 1.0 means highly relevant to the JD.

Output STRICT JSON, no markdown, matching:

%s

JD ANALYSIS:
%s

CANDIDATE PROFILE:
%s

Return ONLY JSON for the plan. No commentary.`, MatchSchema().SchemaJSON(), jdJSON, profileJSON)
}

// MatchStage wires match planning into the event pipeline.
func MatchStage() worker.StageConfig {
	schema := MatchSchema()
	return worker.StageConfig{
		Name:           "match",
		RequestTopic:   pipeline.MatchRequested,
		LLMDoneTopic:   pipeline.MatchLLMCompleted,
		CompletedTopic: pipeline.MatchCompleted,
		ArtifactKey:    pipeline.SlotPlan,
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
			return BuildMatchPrompt(jdJSON, profileJSON), nil
		},
		ParseResult: func(result any) (any, error) {
			var plan types.ResumePlan
			if err := decodeInto(result, &plan); err != nil {
				return nil, err
			}
			return result, nil
		},
	}
}
