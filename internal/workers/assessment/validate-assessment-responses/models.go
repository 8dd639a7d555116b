// internal/workers/assessment/validate-assessment-responses/models.go
package validateassessmentresponses

import (
	"assessment-workers/internal/assessment/validator"
	"assessment-workers/internal/models"
)

type Input struct {
	AssessmentID string                 `json:"assessmentId,omitempty"`
	Sector       string                 `json:"sector"`
	Responses    map[string]interface{} `json:"responses"`
	// Partial accepts unanswered questions and reports issues instead of
	// throwing.
	Partial bool `json:"partial"`
}

type Output struct {
	Valid     bool               `json:"valid"`
	Sector    string             `json:"sector"`
	Responses models.ResponseSet `json:"responses"`
	Issues    []validator.Issue  `json:"issues"`
	Answered  int                `json:"answered"`
	Total     int                `json:"total"`
}
