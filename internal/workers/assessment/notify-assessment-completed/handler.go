// internal/workers/assessment/notify-assessment-completed/handler.go
package notifyassessmentcompleted

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"assessment-workers/internal/common/camunda"
	"assessment-workers/internal/common/errors"
	"assessment-workers/internal/common/logger"
	"assessment-workers/internal/models"
	"assessment-workers/internal/notify"
)

const (
	TaskType = "notify-assessment-completed"
)

type EventPublisher interface {
	PublishCompleted(ctx context.Context, ev notify.CompletedEvent) (notify.CompletedEvent, string, error)
}

type SummaryMailer interface {
	SendSummary(ctx context.Context, to string, result models.AssessmentResult) (string, error)
}

type Handler struct {
	config       *Config
	publisher    EventPublisher
	mailer       SummaryMailer
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// NewHandler wires the notification channels. Either may be nil, in which
// case that channel is skipped.
func NewHandler(config *Config, publisher EventPublisher, mailer SummaryMailer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		publisher:    publisher,
		mailer:       mailer,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	input, err := h.parseInput(job)
	if err != nil {
		h.errorHandler.HandleJobError(context.Background(), client, job, err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	return h.completeJob(ctx, client, job, output)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err))
	}
	input.AssessmentID = strings.TrimSpace(input.AssessmentID)
	input.LeadEmail = strings.TrimSpace(input.LeadEmail)
	if input.AssessmentID == "" {
		return nil, errors.NewInvalidInputError("assessmentId is required")
	}
	if input.AssessmentResult == nil {
		return nil, errors.NewInvalidInputError("assessmentResult is required")
	}
	return &input, nil
}

// Execute publishes the completion event and, when a lead email is known,
// sends the summary email. A failed publish fails the job so it is retried.
// A failed email is logged and reported in the output only.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.AssessmentResult == nil {
		return nil, errors.NewInvalidInputError("assessmentResult is required")
	}
	result := input.AssessmentResult.Clone()
	if input.AssessmentID != "" {
		result.AssessmentID = input.AssessmentID
	}
	if input.ResultVersion > 0 {
		result.Version = input.ResultVersion
	}

	output := &Output{}

	if h.publisher != nil {
		ev, msgID, err := h.publisher.PublishCompleted(ctx, notify.NewCompletedEvent(result, input.LeadID))
		if err != nil {
			return nil, errors.NewNotificationSendFailedError("sns", err)
		}
		output.EventID = ev.EventID
		output.Published = true
		output.SNSMessageID = msgID
	}

	if h.shouldEmail(input) {
		msgID, err := h.mailer.SendSummary(ctx, input.LeadEmail, result)
		if err != nil {
			h.logger.Warn("summary email failed", map[string]interface{}{
				"assessmentId": result.AssessmentID,
				"error":        err.Error(),
			})
		} else {
			output.EmailSent = true
			output.EmailMessageID = msgID
		}
	}

	h.logger.Info("assessment completion announced", map[string]interface{}{
		"assessmentId": result.AssessmentID,
		"version":      result.Version,
		"published":    output.Published,
		"emailSent":    output.EmailSent,
	})

	return output, nil
}

func (h *Handler) shouldEmail(input *Input) bool {
	return h.config.SESEnabled && h.mailer != nil && input.LeadEmail != ""
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return err
	}
	h.logger.Info("job completed successfully", map[string]interface{}{
		"jobKey":  job.Key,
		"eventId": output.EventID,
	})
	return nil
}
