// internal/workers/assessment/validate-assessment-responses/handler.go
package validateassessmentresponses

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"assessment-workers/internal/assessment/engine"
	"assessment-workers/internal/assessment/validator"
	"assessment-workers/internal/common/camunda"
	"assessment-workers/internal/common/errors"
	"assessment-workers/internal/common/logger"
	"assessment-workers/internal/common/metrics"
	"assessment-workers/internal/models"
)

const (
	TaskType = "validate-assessment-responses"
)

type Handler struct {
	config       *Config
	engine       *engine.Engine
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, eng *engine.Engine, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		engine:       eng,
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
	if input.Responses == nil {
		return nil, errors.NewInvalidInputError("responses is required")
	}
	return &input, nil
}

// Execute validates the submission. In partial mode rejected answers are
// reported in the output; in full mode they fail the job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	sector := h.engine.ResolveSector(input.Sector)

	responses, err := h.engine.Validate(sector, input.Responses, input.Partial)
	if err != nil {
		var verr *validator.ValidationError
		if !stderrors.As(err, &verr) {
			return nil, err
		}
		for _, issue := range verr.Issues {
			metrics.RecordValidationIssue(sector, string(issue.Reason))
		}
		h.logger.Info("responses rejected", map[string]interface{}{
			"sector":       sector,
			"assessmentId": input.AssessmentID,
			"issues":       len(verr.Issues),
			"partial":      input.Partial,
		})
		if !input.Partial {
			return nil, err
		}
		return h.buildOutput(sector, models.ResponseSet{}, verr.Issues)
	}

	return h.buildOutput(sector, responses, []validator.Issue{})
}

func (h *Handler) buildOutput(sector string, responses models.ResponseSet, issues []validator.Issue) (*Output, error) {
	progress, err := h.engine.ProgressOf(sector, responses)
	if err != nil {
		return nil, err
	}
	return &Output{
		Valid:     len(issues) == 0,
		Sector:    sector,
		Responses: responses,
		Issues:    issues,
		Answered:  progress.Answered,
		Total:     progress.Total,
	}, nil
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
		"jobKey": job.Key,
		"valid":  output.Valid,
	})
	return nil
}
