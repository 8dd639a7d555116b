// internal/workers/assessment/save-assessment-progress/models.go
package saveassessmentprogress

import (
	"time"

	"assessment-workers/internal/models"
)

type Input struct {
	AssessmentID string                 `json:"assessmentId"`
	Sector       string                 `json:"sector"`
	Responses    map[string]interface{} `json:"responses"`
}

type Output struct {
	AssessmentID string                    `json:"assessmentId"`
	Sector       string                    `json:"sector"`
	Progress     models.AssessmentProgress `json:"progress"`
	Persisted    bool                      `json:"persisted"`
	UpdatedAt    time.Time                 `json:"updatedAt"`
	ExpiresAt    time.Time                 `json:"expiresAt"`
}
