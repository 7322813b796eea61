package agents

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narendersurabhi/agents-event-driven/internal/pipeline"
)

func sampleJD() map[string]any {
	return map[string]any{
		"role_title":          "Senior Backend Engineer",
		"company":             "Acme",
		"must_have_skills":    []any{"Go", "PostgreSQL"},
		"nice_to_have_skills": []any{"NATS"},
		"notes_for_resume":    "Lead with distributed systems work.",
	}
}

func sampleProfile() map[string]any {
	return map[string]any{
		"full_name":   "Jordan Smith",
		"core_skills": []any{"Go", "PostgreSQL", "Kubernetes"},
		"experience": []any{
			map[string]any{
				"title":   "Backend Engineer",
				"company": "Widgets Inc",
				"bullets": []any{"Built the order service in Go."},
			},
		},
	}
}

func sampleResume() map[string]any {
	return map[string]any{
		"full_name": "Jordan Smith",
		"summary":   "Backend engineer with Go and PostgreSQL experience.",
		"skills": []any{
			map[string]any{"name": "Languages", "items": []any{"Go"}},
		},
		"experience": []any{
			map[string]any{
				"title":   "Backend Engineer",
				"company": "Widgets Inc",
				"bullets": []any{
					map[string]any{"text": "Built the order service in Go.", "source_experience_index": float64(0)},
				},
			},
		},
	}
}

func TestStagesCoverAllTopics(t *testing.T) {
	stages := Stages()
	require.Len(t, stages, 7)

	wantRequests := []string{
		pipeline.JDRequested,
		pipeline.ProfileRequested,
		pipeline.MatchRequested,
		pipeline.ComposeRequested,
		pipeline.QARequested,
		pipeline.QAImproveRequested,
		pipeline.CoverLetterRequested,
	}
	for i, stage := range stages {
		assert.Equal(t, wantRequests[i], stage.RequestTopic)
		assert.NotEmpty(t, stage.Name)
		assert.NotEmpty(t, stage.LLMDoneTopic)
		assert.NotEmpty(t, stage.CompletedTopic)
		assert.NotEmpty(t, stage.ArtifactKey)
		assert.NotEmpty(t, stage.SchemaText)
		assert.NotNil(t, stage.BuildPrompt)
	}
}

func TestImproveStagePublishesUnderTailoredKey(t *testing.T) {
	stage := ImproveStage()
	assert.Equal(t, pipeline.SlotTailored, stage.ArtifactKey)
}

func TestJDStageBuildPrompt(t *testing.T) {
	stage := JDStage()

	prompt, err := stage.BuildPrompt(map[string]any{"job_description": "We need a Go engineer."})
	require.NoError(t, err)
	assert.Contains(t, prompt, "We need a Go engineer.")
	assert.Contains(t, prompt, "must_have_skills")

	_, err = stage.BuildPrompt(map[string]any{})
	assert.EqualError(t, err, "missing field: job_description")
}

func TestProfileStageBuildPrompt(t *testing.T) {
	stage := ProfileStage()

	prompt, err := stage.BuildPrompt(map[string]any{"resume_text": "Jordan Smith, backend engineer."})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Jordan Smith, backend engineer.")
	assert.Contains(t, prompt, "core_skills")

	_, err = stage.BuildPrompt(map[string]any{"resume_text": ""})
	assert.EqualError(t, err, "missing field: resume_text")
}

func TestMatchStageBuildPromptEmbedsArtifacts(t *testing.T) {
	stage := MatchStage()

	prompt, err := stage.BuildPrompt(map[string]any{
		"jd":      sampleJD(),
		"profile": sampleProfile(),
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Senior Backend Engineer")
	assert.Contains(t, prompt, "Widgets Inc")
	assert.Contains(t, prompt, "experiences_plan")

	_, err = stage.BuildPrompt(map[string]any{"jd": sampleJD()})
	assert.EqualError(t, err, "missing field: profile")
}

func TestComposeStageBuildPromptRequiresPlan(t *testing.T) {
	stage := ComposeStage()

	_, err := stage.BuildPrompt(map[string]any{
		"jd":      sampleJD(),
		"profile": sampleProfile(),
	})
	assert.EqualError(t, err, "missing field: plan")

	prompt, err := stage.BuildPrompt(map[string]any{
		"jd":      sampleJD(),
		"profile": sampleProfile(),
		"plan":    map[string]any{"target_title": "Senior Backend Engineer"},
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "source_experience_index")
}

func TestQAStageBuildPrompt(t *testing.T) {
	stage := QAStage()

	prompt, err := stage.BuildPrompt(map[string]any{
		"jd":      sampleJD(),
		"profile": sampleProfile(),
		"resume":  sampleResume(),
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "truth source")
	assert.Contains(t, prompt, "must_have_coverage")

	_, err = stage.BuildPrompt(map[string]any{"jd": sampleJD(), "profile": sampleProfile()})
	assert.EqualError(t, err, "missing field: resume")
}

func TestImproveStageBuildPromptRequiresQAReport(t *testing.T) {
	stage := ImproveStage()

	_, err := stage.BuildPrompt(map[string]any{
		"jd":      sampleJD(),
		"profile": sampleProfile(),
		"resume":  sampleResume(),
	})
	assert.EqualError(t, err, "missing field: qa")

	prompt, err := stage.BuildPrompt(map[string]any{
		"jd":      sampleJD(),
		"profile": sampleProfile(),
		"resume":  sampleResume(),
		"qa": map[string]any{
			"overall_match_score": float64(60),
			"issues":              []any{map[string]any{"severity": "major", "message": "Summary too generic."}},
		},
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Summary too generic.")
	assert.Contains(t, prompt, "QA REPORT")
}

func TestCoverLetterStageBuildPrompt(t *testing.T) {
	stage := CoverLetterStage()

	prompt, err := stage.BuildPrompt(map[string]any{
		"jd":      sampleJD(),
		"profile": sampleProfile(),
		"resume":  sampleResume(),
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Cover Letter Writer")
	assert.Contains(t, prompt, "Acme")
}

func TestJDStageParseResult(t *testing.T) {
	stage := JDStage()

	result, err := stage.ParseResult(sampleJD())
	require.NoError(t, err)
	assert.Equal(t, sampleJD(), result)

	_, err = stage.ParseResult(map[string]any{"must_have_skills": "not a list"})
	assert.ErrorContains(t, err, "artifact shape")
}

func TestQAStageParseResult(t *testing.T) {
	stage := QAStage()

	report := map[string]any{
		"overall_match_score": float64(82.5),
		"must_have_coverage":  map[string]any{"Go": true, "PostgreSQL": false},
		"issues": []any{
			map[string]any{"severity": "minor", "message": "Tighten the summary.", "location_hint": "summary"},
		},
		"suggestions": []any{"Mention PostgreSQL in the top role."},
	}
	result, err := stage.ParseResult(report)
	require.NoError(t, err)
	assert.Equal(t, report, result)

	_, err = stage.ParseResult(map[string]any{"overall_match_score": "high"})
	assert.ErrorContains(t, err, "artifact shape")
}

func TestComposeStageParseResult(t *testing.T) {
	stage := ComposeStage()

	result, err := stage.ParseResult(sampleResume())
	require.NoError(t, err)
	assert.Equal(t, sampleResume(), result)

	_, err = stage.ParseResult(map[string]any{"experience": "prose instead of entries"})
	assert.ErrorContains(t, err, "artifact shape")
}

func TestSchemaTextIsValidJSONSchema(t *testing.T) {
	for _, stage := range Stages() {
		var doc map[string]any
		require.NoError(t, json.Unmarshal([]byte(stage.SchemaText), &doc), "stage %s", stage.Name)
		assert.Equal(t, "object", doc["type"], "stage %s", stage.Name)
		assert.NotEmpty(t, doc["properties"], "stage %s", stage.Name)
	}
}
