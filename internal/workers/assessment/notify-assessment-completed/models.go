// internal/workers/assessment/notify-assessment-completed/models.go
package notifyassessmentcompleted

import "assessment-workers/internal/models"

type Input struct {
	AssessmentID     string                   `json:"assessmentId"`
	ResultVersion    int                      `json:"resultVersion,omitempty"`
	LeadID           string                   `json:"leadId,omitempty"`
	LeadEmail        string                   `json:"leadEmail,omitempty"`
	AssessmentResult *models.AssessmentResult `json:"assessmentResult"`
}

type Output struct {
	EventID        string `json:"eventId,omitempty"`
	Published      bool   `json:"published"`
	SNSMessageID   string `json:"snsMessageId,omitempty"`
	EmailSent      bool   `json:"emailSent"`
	EmailMessageID string `json:"emailMessageId,omitempty"`
}
