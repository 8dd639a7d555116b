// internal/workers/assessment/score-assessment/models.go
package scoreassessment

import "assessment-workers/internal/models"

// Input carries either the full answer set or an assessment id whose saved
// progress is scored.
type Input struct {
	AssessmentID string                 `json:"assessmentId,omitempty"`
	Sector       string                 `json:"sector"`
	Responses    map[string]interface{} `json:"responses,omitempty"`
}

type Output struct {
	AssessmentResult     models.AssessmentResult `json:"assessmentResult"`
	OverallScore         int                     `json:"overallScore"`
	MaturityLevel        string                  `json:"maturityLevel"`
	Grade                string                  `json:"grade"`
	Percentile           *int                    `json:"percentile,omitempty"`
	BenchmarkUnavailable bool                    `json:"benchmarkUnavailable"`
	ResponseSource       string                  `json:"responseSource"`
}

// Where the scored answers came from.
const (
	SourceInput    = "input"
	SourceProgress = "progress"
)
