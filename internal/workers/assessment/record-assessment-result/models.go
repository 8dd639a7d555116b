// internal/workers/assessment/record-assessment-result/models.go
package recordassessmentresult

import "assessment-workers/internal/models"

// Input is usually the output of score-assessment. Without an assessment id
// a new assessment row is created for the lead.
type Input struct {
	AssessmentID     string                   `json:"assessmentId,omitempty"`
	LeadID           string                   `json:"leadId,omitempty"`
	AssessmentResult *models.AssessmentResult `json:"assessmentResult"`
}

type Output struct {
	AssessmentID     string                  `json:"assessmentId"`
	ResultVersion    int                     `json:"resultVersion"`
	Created          bool                    `json:"created"`
	Indexed          bool                    `json:"indexed"`
	AssessmentResult models.AssessmentResult `json:"assessmentResult"`
}
