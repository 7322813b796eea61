// Package agents defines the pipeline's stage agents: for each stage, the
// prompt it sends to the LLM, the schema its output must match, and the check
// that the structured result decodes into the stage's typed artifact. Agents
// never call each other; stage workers wire them to the bus, and the direct
// runner calls them in sequence.
package agents

import (
	"encoding/json"
	"fmt"

	"github.com/narendersurabhi/agents-event-driven/internal/worker"
)

// payloadString extracts a required string field from a request payload.
func payloadString(payload map[string]any, key string) (string, error) {
	value, _ := payload[key].(string)
	if value == "" {
		return "", fmt.Errorf("missing field: %s", key)
	}
	return value, nil
}

// payloadJSON renders a required artifact field as pretty JSON for embedding
// in a prompt.
func payloadJSON(payload map[string]any, key string) (string, error) {
	value, ok := payload[key]
	if !ok || value == nil {
		return "", fmt.Errorf("missing field: %s", key)
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode %s for prompt: %w", key, err)
	}
	return string(data), nil
}

// decodeInto round-trips a structured result through JSON into target,
// verifying the result fits the stage's typed artifact. Unknown fields are
// tolerated; shape mismatches are not.
func decodeInto(result any, target any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("result does not match expected artifact shape: %w", err)
	}
	return nil
}

// Stages returns the full set of stage configs, in pipeline order.
func Stages() []worker.StageConfig {
	return []worker.StageConfig{
		JDStage(),
		ProfileStage(),
		MatchStage(),
		ComposeStage(),
		QAStage(),
		ImproveStage(),
		CoverLetterStage(),
	}
}
