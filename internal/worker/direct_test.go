package worker

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narendersurabhi/agents-event-driven/internal/llm"
)

func directTestConfig() StageConfig {
	return StageConfig{
		Name:       "jd",
		Tier:       llm.TierLite,
		SchemaText: testSchema,
		BuildPrompt: func(payload map[string]any) (string, error) {
			text, _ := payload["job_description"].(string)
			if text == "" {
				return "", errors.New("missing field: job_description")
			}
			return "Analyze: " + text, nil
		},
	}
}

func TestDirectExecutor_ReturnsParsedArtifact(t *testing.T) {
	client := &fakeClient{responses: []string{`{"title": "Senior Go Engineer"}`}}
	repair := &countingRepairer{}
	exec := NewDirectExecutor(client, repair, slog.New(slog.DiscardHandler))

	artifact, err := exec.Execute(context.Background(), directTestConfig(), map[string]any{
		"job_description": "We need a Go engineer.",
	})
	require.NoError(t, err)
	result, ok := artifact.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Senior Go Engineer", result["title"])
	assert.Equal(t, 0, repair.callCount())
}

func TestDirectExecutor_BadPayloadFailsWithoutLLMCall(t *testing.T) {
	client := &fakeClient{responses: []string{`{"title": "x"}`}}
	exec := NewDirectExecutor(client, &countingRepairer{}, slog.New(slog.DiscardHandler))

	_, err := exec.Execute(context.Background(), directTestConfig(), map[string]any{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "job_description")
	assert.Equal(t, 0, client.callCount())
}

func TestDirectExecutor_ExactlyOneRepairAttempt(t *testing.T) {
	client := &fakeClient{responses: []string{"not json at all"}}
	repair := &countingRepairer{output: "still not json"}
	exec := NewDirectExecutor(client, repair, slog.New(slog.DiscardHandler))

	_, err := exec.Execute(context.Background(), directTestConfig(), map[string]any{
		"job_description": "text",
	})
	require.Error(t, err)
	assert.Equal(t, 1, repair.callCount())
}

func TestDirectExecutor_RepairRecoversResult(t *testing.T) {
	client := &fakeClient{responses: []string{"garbled"}}
	repair := &countingRepairer{output: `{"title": "Repaired"}`}
	exec := NewDirectExecutor(client, repair, slog.New(slog.DiscardHandler))

	artifact, err := exec.Execute(context.Background(), directTestConfig(), map[string]any{
		"job_description": "text",
	})
	require.NoError(t, err)
	result := artifact.(map[string]any)
	assert.Equal(t, "Repaired", result["title"])
	assert.Equal(t, 1, repair.callCount())
}

func TestDirectExecutor_ParseResultRejectionSurfaces(t *testing.T) {
	client := &fakeClient{responses: []string{`{"title": "ok"}`}}
	cfg := directTestConfig()
	cfg.ParseResult = func(result any) (any, error) {
		return nil, errors.New("shape mismatch")
	}
	exec := NewDirectExecutor(client, &countingRepairer{}, slog.New(slog.DiscardHandler))

	_, err := exec.Execute(context.Background(), cfg, map[string]any{"job_description": "text"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shape mismatch")
}
