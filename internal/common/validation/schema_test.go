package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scoreInputSchema = `{
  "type": "object",
  "required": ["assessmentId", "sector"],
  "additionalProperties": false,
  "properties": {
    "assessmentId": {"type": "string", "minLength": 1},
    "sector": {"type": "string", "enum": ["healthcare", "retail"]},
    "score": {"type": "number", "minimum": 0, "maximum": 100}
  }
}`

func createTestSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := Compile(scoreInputSchema)
	require.NoError(t, err)
	return s
}

func hasCode(result *ValidationResult, code string) bool {
	for _, e := range result.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

func TestSchema_Validate(t *testing.T) {
	s := createTestSchema(t)

	tests := []struct {
		name     string
		document interface{}
		valid    bool
		code     string
	}{
		{
			name:     "valid document",
			document: map[string]interface{}{"assessmentId": "a-1", "sector": "retail", "score": 42},
			valid:    true,
		},
		{
			name:     "missing required field",
			document: map[string]interface{}{"sector": "retail"},
			code:     "REQUIRED_FIELD_MISSING",
		},
		{
			name:     "unexpected field",
			document: map[string]interface{}{"assessmentId": "a-1", "sector": "retail", "extra": true},
			code:     "EXTRA_FIELD",
		},
		{
			name:     "enum mismatch",
			document: map[string]interface{}{"assessmentId": "a-1", "sector": "space"},
			code:     "INVALID_ENUM_VALUE",
		},
		{
			name:     "wrong type",
			document: map[string]interface{}{"assessmentId": 7, "sector": "retail"},
			code:     "INVALID_TYPE",
		},
		{
			name:     "above maximum",
			document: map[string]interface{}{"assessmentId": "a-1", "sector": "retail", "score": 101},
			code:     "VALUE_TOO_LARGE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.Validate(tt.document)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid)
			if !tt.valid {
				assert.True(t, hasCode(result, tt.code), "expected code %s in %+v", tt.code, result.Errors)
				assert.NotEmpty(t, result.Messages())
			}
		})
	}
}

func TestSchema_ValidateJSON(t *testing.T) {
	s := createTestSchema(t)

	result, err := s.ValidateJSON(`{"assessmentId":"a-1","sector":"healthcare"}`)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)

	result, err = s.ValidateJSON(`{"assessmentId":`)
	require.NoError(t, err)
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "INVALID_JSON", result.Errors[0].Code)
}

func TestCompile_FromGoValue(t *testing.T) {
	s, err := Compile(map[string]interface{}{
		"type":     "object",
		"required": []interface{}{"id"},
	})
	require.NoError(t, err)

	result, err := s.Validate(map[string]interface{}{})
	require.NoError(t, err)
	assert.False(t, result.Valid)
}

func TestCompile_InvalidSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)

	assert.Panics(t, func() { MustCompile(`not json`) })
}
