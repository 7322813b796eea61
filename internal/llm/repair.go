package llm

import (
	"context"
	"fmt"
	"strings"
)

// RepairAgent asks an LLM to fix malformed JSON against a target schema.
// This is infrastructure, not a domain stage: the step worker invokes it at
// most once per request when a stage's output fails to parse or validate.
type RepairAgent struct {
	client Client
	tier   ModelTier
}

// NewRepairAgent creates a repair agent using the given client. Repair runs
// on the advanced tier; reconstructing intent from broken output is harder
// than producing it in the first place.
func NewRepairAgent(client Client) *RepairAgent {
	return &RepairAgent{client: client, tier: TierAdvanced}
}

// Repair returns a best-effort corrected JSON string for raw, which failed to
// parse or validate against schemaText (a JSON Schema document). The parse or
// validation error is included in the prompt when available. Callers must
// still parse and validate the result; repair is not guaranteed to succeed.
func (a *RepairAgent) Repair(ctx context.Context, raw, schemaText, parseErr string) (string, error) {
	var b strings.Builder
	b.WriteString("You are a strict JSON repair tool.\n")
	b.WriteString("You receive invalid or partially valid JSON that was intended to match this JSON Schema:\n\n")
	b.WriteString(schemaText)
	b.WriteString("\n\nYour job:\n")
	b.WriteString("- Return a single valid JSON object or array that best matches the schema.\n")
	b.WriteString("- Do NOT invent new fields beyond the schema unless absolutely necessary.\n")
	b.WriteString("- If values are missing or unclear, use null or an empty list/string.\n")
	b.WriteString("- Output JSON only, with no markdown, no backticks, and no commentary.\n\n")
	b.WriteString("The following text is the model's output that failed to parse or validate as JSON.\n")
	b.WriteString("Return a corrected JSON version.\n\nOriginal output:\n")
	b.WriteString(raw)
	if parseErr != "" {
		b.WriteString("\n\nParser/validation error:\n")
		b.WriteString(parseErr)
	}

	repaired, err := a.client.GenerateJSON(ctx, b.String(), a.tier)
	if err != nil {
		return "", fmt.Errorf("failed to repair JSON output: %w", err)
	}
	return CleanJSONBlock(repaired), nil
}
