package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateJSONString_Valid(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["title"],
		"properties": {
			"title": {"type": "string"}
		}
	}`
	jsonContent := `{"title": "Senior Go engineer"}`

	err := ValidateJSONString(schemaContent, jsonContent)
	assert.NoError(t, err)
}

func TestValidateJSONString_MissingRequiredField(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["title"],
		"properties": {
			"title": {"type": "string"}
		}
	}`
	jsonContent := `{"location": "remote"}`

	err := ValidateJSONString(schemaContent, jsonContent)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidateJSONString_WrongType(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"properties": {
			"skills": {"type": "array", "items": {"type": "string"}}
		}
	}`
	jsonContent := `{"skills": "not an array"}`

	err := ValidateJSONString(schemaContent, jsonContent)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Greater(t, len(validationErr.Errors), 0)
}

func TestValidateJSONString_MalformedDocument(t *testing.T) {
	schemaContent := `{"type": "object"}`
	jsonContent := `{ invalid json }`

	err := ValidateJSONString(schemaContent, jsonContent)
	require.Error(t, err)

	// Malformed documents fail to load, not to validate.
	_, isSchemaLoadErr := err.(*SchemaLoadError)
	assert.True(t, isSchemaLoadErr)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Errors: []FieldError{
			{Field: "title", Message: "is required"},
			{Field: "score", Message: "must be a number"},
		},
	}

	errorMsg := err.Error()
	assert.Contains(t, errorMsg, "validation failed")
	assert.Contains(t, errorMsg, "title")
	assert.Contains(t, errorMsg, "score")
}

func TestValidateJSONString_NestedFieldValidation(t *testing.T) {
	schemaContent := `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"required": ["summary"],
		"properties": {
			"summary": {
				"type": "object",
				"required": ["headline"],
				"properties": {
					"headline": {"type": "string"}
				}
			}
		}
	}`

	jsonContent := `{"summary": {}}`

	err := ValidateJSONString(schemaContent, jsonContent)
	require.Error(t, err)

	validationErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Greater(t, len(validationErr.Errors), 0)
	// Check that the field path includes nested field
	found := false
	for _, fieldErr := range validationErr.Errors {
		if fieldErr.Field != "" {
			found = true
			break
		}
	}
	assert.True(t, found, "should include field path in error")
}
