// Package validator checks raw assessment answers against the question catalog.
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"assessment-workers/internal/assessment/catalog"
	"assessment-workers/internal/models"
)

// Reason explains why a single answer was rejected.
type Reason string

const (
	ReasonMissingRequired Reason = "MISSING_REQUIRED"
	ReasonOutOfRange      Reason = "OUT_OF_RANGE"
	ReasonUnknownQuestion Reason = "UNKNOWN_QUESTION"
)

var ErrValidation = errors.New("RESPONSE_VALIDATION_FAILED")

type Issue struct {
	QuestionID string `json:"questionId"`
	Reason     Reason `json:"reason"`
}

// ValidationError carries every rejected answer so callers can render
// per-question feedback.
type ValidationError struct {
	Sector string
	Issues []Issue
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Issues))
	for i, issue := range e.Issues {
		parts[i] = fmt.Sprintf("%s=%s", issue.QuestionID, issue.Reason)
	}
	return fmt.Sprintf("invalid responses for sector %q: %s", e.Sector, strings.Join(parts, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Reasons counts issues per reason.
func (e *ValidationError) Reasons() map[Reason]int {
	out := make(map[Reason]int)
	for _, issue := range e.Issues {
		out[issue.Reason]++
	}
	return out
}

type Validator struct {
	catalog *catalog.Catalog
}

func New(c *catalog.Catalog) *Validator {
	return &Validator{catalog: c}
}

// Validate coerces raw answers to integers and checks them against the
// sector's catalog. With partial set, unanswered questions are allowed but
// every supplied answer must still be known and in range.
func (v *Validator) Validate(sector string, raw map[string]interface{}, partial bool) (models.ResponseSet, error) {
	questions, err := v.catalog.QuestionsFor(sector)
	if err != nil {
		return nil, err
	}

	known := make(map[string]catalog.QuestionDefinition, len(questions))
	for _, q := range questions {
		known[q.ID] = q
	}

	var issues []Issue
	var unknown []string
	out := make(models.ResponseSet, len(raw))

	for _, q := range questions {
		value, present := raw[q.ID]
		if !present || value == nil {
			if !partial {
				issues = append(issues, Issue{QuestionID: q.ID, Reason: ReasonMissingRequired})
			}
			continue
		}
		answer, ok := coerce(value)
		if !ok || !q.Range.Contains(answer) {
			issues = append(issues, Issue{QuestionID: q.ID, Reason: ReasonOutOfRange})
			continue
		}
		out[q.ID] = answer
	}

	for id := range raw {
		if _, ok := known[id]; !ok {
			unknown = append(unknown, id)
		}
	}
	sort.Strings(unknown)
	for _, id := range unknown {
		issues = append(issues, Issue{QuestionID: id, Reason: ReasonUnknownQuestion})
	}

	if len(issues) > 0 {
		return nil, &ValidationError{Sector: sector, Issues: issues}
	}
	return out, nil
}

// ValidateSet re-checks already-typed answers, e.g. a stored progress entry.
func (v *Validator) ValidateSet(sector string, responses models.ResponseSet, partial bool) (models.ResponseSet, error) {
	raw := make(map[string]interface{}, len(responses))
	for k, val := range responses {
		raw[k] = val
	}
	return v.Validate(sector, raw, partial)
}

// coerce accepts integral numbers and numeric strings.
func coerce(value interface{}) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case float64:
		return fromFloat(v)
	case float32:
		return fromFloat(float64(v))
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i), true
		}
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return fromFloat(f)
	case string:
		s := strings.TrimSpace(v)
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return fromFloat(f)
	default:
		return 0, false
	}
}

func fromFloat(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
