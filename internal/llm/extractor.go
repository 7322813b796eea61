// Package llm - extractor.go provides generic LLM-based structured extraction.
package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractionSchema defines the structure for LLM-based content extraction.
// One schema definition drives the prompt, the JSON Schema used for output
// validation, and the repair prompt, so the three can never drift apart.
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "JDAnalysis", "ResumePlan")
	Description string        // System prompt preamble describing the extraction task
	Fields      []SchemaField // Expected output fields
}

// SchemaField defines a single field in the extraction output.
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint: "string", "[]string", "map[string]string", "object", "[]object", "number", "bool"
	Description string // Description for the LLM
	Required    bool   // Whether this field is required
}

// BuildExtractionPrompt constructs the LLM prompt from schema and input text.
func BuildExtractionPrompt(schema ExtractionSchema, inputText string) string {
	var sb strings.Builder

	// System description
	sb.WriteString(schema.Description)
	sb.WriteString("\n\n")

	// Output schema
	sb.WriteString("Return ONLY valid JSON matching this exact structure:\n{\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = "string"
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  \"%s\": %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("}\n\n")

	// Instructions
	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Extract information directly from the text, do not invent or summarize.\n")
	sb.WriteString("- Return ONLY the JSON object, no markdown, no explanation, no code blocks.\n\n")

	// Input text
	sb.WriteString("Input text:\n\"\"\"\n")
	sb.WriteString(inputText)
	sb.WriteString("\n\"\"\"\n")

	return sb.String()
}

// SchemaJSON renders the schema as a JSON Schema document suitable for
// validating the LLM's output and for the repair prompt.
func (s ExtractionSchema) SchemaJSON() string {
	properties := make(map[string]any, len(s.Fields))
	var required []string
	for _, field := range s.Fields {
		properties[field.Name] = fieldTypeSchema(field.Type)
		if field.Required {
			required = append(required, field.Name)
		}
	}

	doc := map[string]any{
		"$schema":    "http://json-schema.org/draft-07/schema#",
		"title":      s.Name,
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		// The document is built from plain maps and strings; this cannot fail.
		return "{}"
	}
	return string(data)
}

func fieldTypeSchema(typeHint string) map[string]any {
	switch typeHint {
	case "", "string":
		return map[string]any{"type": "string"}
	case "[]string":
		return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	case "map[string]string":
		return map[string]any{"type": "object", "additionalProperties": map[string]any{"type": "string"}}
	case "object":
		return map[string]any{"type": "object"}
	case "[]object":
		return map[string]any{"type": "array", "items": map[string]any{"type": "object"}}
	case "number":
		return map[string]any{"type": "number"}
	case "bool":
		return map[string]any{"type": "boolean"}
	default:
		// Unknown hints validate as anything rather than rejecting output.
		return map[string]any{}
	}
}
