// Package notify announces completed assessments: an SNS event for
// downstream systems and an SES summary email for the respondent.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/google/uuid"

	"assessment-workers/internal/models"
)

const EventTypeCompleted = "assessment.completed"

var ErrMissingTopic = errors.New("sns topic arn is required")

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// CompletedEvent is the JSON payload published when an assessment is scored.
type CompletedEvent struct {
	EventID              string    `json:"eventId"`
	EventType            string    `json:"eventType"`
	AssessmentID         string    `json:"assessmentId"`
	Version              int       `json:"version"`
	LeadID               string    `json:"leadId,omitempty"`
	Sector               string    `json:"sector"`
	OverallScore         int       `json:"overallScore"`
	MaturityLevel        string    `json:"maturityLevel"`
	Grade                string    `json:"grade"`
	Percentile           *int      `json:"percentile,omitempty"`
	BenchmarkUnavailable bool      `json:"benchmarkUnavailable"`
	OccurredAt           time.Time `json:"occurredAt"`
}

type Publisher struct {
	sns      SNSService
	topicARN string
	now      func() time.Time
	newID    func() string
}

func NewPublisher(client SNSService, topicARN string) *Publisher {
	return &Publisher{sns: client, topicARN: topicARN, now: time.Now, newID: uuid.NewString}
}

// NewCompletedEvent builds the event for result. The event id is left empty.
func NewCompletedEvent(result models.AssessmentResult, leadID string) CompletedEvent {
	ev := CompletedEvent{
		EventType:            EventTypeCompleted,
		AssessmentID:         result.AssessmentID,
		Version:              result.Version,
		LeadID:               leadID,
		Sector:               result.Sector,
		OverallScore:         result.OverallScore,
		MaturityLevel:        result.MaturityLevel.Name,
		Grade:                result.Grade,
		BenchmarkUnavailable: result.BenchmarkUnavailable,
	}
	if result.Benchmark != nil {
		p := result.Benchmark.Percentile
		ev.Percentile = &p
	}
	return ev
}

// PublishCompleted publishes ev and returns the event as sent along with the
// SNS message id.
func (p *Publisher) PublishCompleted(ctx context.Context, ev CompletedEvent) (CompletedEvent, string, error) {
	if p.topicARN == "" {
		return CompletedEvent{}, "", ErrMissingTopic
	}
	if ev.EventID == "" {
		ev.EventID = p.newID()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = p.now().UTC()
	}
	ev.EventType = EventTypeCompleted

	payload, err := json.Marshal(ev)
	if err != nil {
		return CompletedEvent{}, "", fmt.Errorf("encode event: %w", err)
	}

	out, err := p.sns.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(payload)),
		MessageAttributes: map[string]snstypes.MessageAttributeValue{
			"eventType": {DataType: aws.String("String"), StringValue: aws.String(EventTypeCompleted)},
			"sector":    {DataType: aws.String("String"), StringValue: aws.String(ev.Sector)},
		},
	})
	if err != nil {
		return CompletedEvent{}, "", fmt.Errorf("publish %s: %w", EventTypeCompleted, err)
	}
	return ev, aws.ToString(out.MessageId), nil
}
