package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildExtractionPrompt(t *testing.T) {
	schema := ExtractionSchema{
		Name:        "JDAnalysis",
		Description: "You are an expert job posting parser.",
		Fields: []SchemaField{
			{Name: "title", Type: "string", Description: "Job title", Required: true},
			{Name: "skills", Type: "[]string", Description: "Required skills", Required: true},
			{Name: "notes", Type: "string"},
		},
	}

	prompt := BuildExtractionPrompt(schema, "Senior Go engineer, Kubernetes required")

	assert.Contains(t, prompt, "You are an expert job posting parser.")
	assert.Contains(t, prompt, `"title": string (required)`)
	assert.Contains(t, prompt, `"skills": []string (required)`)
	assert.Contains(t, prompt, "Senior Go engineer, Kubernetes required")
	assert.Contains(t, prompt, "Return ONLY the JSON object")
}

func TestSchemaJSON(t *testing.T) {
	schema := ExtractionSchema{
		Name: "QAReport",
		Fields: []SchemaField{
			{Name: "score", Type: "number", Required: true},
			{Name: "issues", Type: "[]string", Required: true},
			{Name: "metadata", Type: "map[string]string"},
		},
	}

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(schema.SchemaJSON()), &doc))

	assert.Equal(t, "QAReport", doc["title"])
	assert.Equal(t, "object", doc["type"])

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)
	score := props["score"].(map[string]any)
	assert.Equal(t, "number", score["type"])
	issues := props["issues"].(map[string]any)
	assert.Equal(t, "array", issues["type"])

	required, ok := doc["required"].([]any)
	require.True(t, ok)
	assert.ElementsMatch(t, []any{"score", "issues"}, required)
}
