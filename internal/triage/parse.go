package triage

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ParseError means the model reply was not valid JSON after sanitization. It
// carries the sanitized text so callers can surface the literal model output
// instead of a generic failure.
type ParseError struct {
	Raw   string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse model response: %v", e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// ValidationError means the reply parsed as JSON but does not satisfy the
// assessment schema. Distinct from ParseError so callers can tell a malformed
// reply from a well-formed one with the wrong shape.
type ValidationError struct {
	Raw   string
	Cause error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validate model response: %v", e.Cause)
}

func (e *ValidationError) Unwrap() error { return e.Cause }

// fenceRE matches a markdown code fence with an optional json language tag,
// capturing the fenced content.
var fenceRE = regexp.MustCompile("(?s)```(json)?\\s*(.*?)```")

const assessmentSchemaJSON = `{
	"type": "object",
	"required": ["risk_level", "urgency_score", "category", "recommended_action", "escalation_needed"],
	"properties": {
		"risk_level": {"type": "string"},
		"urgency_score": {"type": "integer", "minimum": 1, "maximum": 10},
		"category": {"type": "string"},
		"recommended_action": {"type": "string"},
		"escalation_needed": {"type": "boolean"}
	}
}`

var assessmentSchema = jsonschema.MustCompileString("assessment.json", assessmentSchemaJSON)

// Sanitize strips markdown code-fence wrapping from a model reply, keeping
// only the fenced content, and trims whitespace. Fence-free input passes
// through unchanged, so the function is idempotent.
func Sanitize(raw string) string {
	return strings.TrimSpace(fenceRE.ReplaceAllString(raw, "$2"))
}

// ParseAssessment sanitizes raw model text and parses it as JSON, then checks
// the result against the assessment schema. The parsed value is returned
// as-is, with no field coercion. Failures come back as *ParseError or
// *ValidationError, both carrying the sanitized text.
func ParseAssessment(raw string) (any, error) {
	clean := Sanitize(raw)
	var v any
	if err := json.Unmarshal([]byte(clean), &v); err != nil {
		return nil, &ParseError{Raw: clean, Cause: err}
	}
	if err := assessmentSchema.Validate(v); err != nil {
		return nil, &ValidationError{Raw: clean, Cause: err}
	}
	return v, nil
}
