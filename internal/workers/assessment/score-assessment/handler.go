// internal/workers/assessment/score-assessment/handler.go
package scoreassessment

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"assessment-workers/internal/assessment/engine"
	"assessment-workers/internal/assessment/validator"
	"assessment-workers/internal/common/camunda"
	"assessment-workers/internal/common/errors"
	"assessment-workers/internal/common/logger"
	"assessment-workers/internal/common/metrics"
	"assessment-workers/internal/models"
	"assessment-workers/internal/progress"
)

const (
	TaskType = "score-assessment"
)

type Handler struct {
	config       *Config
	engine       *engine.Engine
	store        *progress.Store
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, eng *engine.Engine, store *progress.Store, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		engine:       eng,
		store:        store,
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
	if input.Responses == nil && input.AssessmentID == "" {
		return nil, errors.NewInvalidInputError("either responses or assessmentId is required")
	}
	return &input, nil
}

// Execute scores the submitted answers, or the saved progress entry when the
// input carries no answers.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	var (
		result models.AssessmentResult
		source string
		err    error
	)

	if input.Responses != nil {
		source = SourceInput
		result, err = h.engine.Score(input.Sector, input.Responses)
	} else {
		source = SourceProgress
		result, err = h.scoreProgress(ctx, input)
	}
	if err != nil {
		h.recordIssues(input.Sector, err)
		return nil, err
	}

	result.AssessmentID = input.AssessmentID
	metrics.RecordScored(result.Sector, result.MaturityLevel.Name, result.OverallScore, result.BenchmarkUnavailable)

	h.logger.Info("assessment scored", map[string]interface{}{
		"assessmentId":  input.AssessmentID,
		"sector":        result.Sector,
		"overallScore":  result.OverallScore,
		"maturityLevel": result.MaturityLevel.Name,
		"source":        source,
	})

	output := &Output{
		AssessmentResult:     result,
		OverallScore:         result.OverallScore,
		MaturityLevel:        result.MaturityLevel.Name,
		Grade:                result.Grade,
		BenchmarkUnavailable: result.BenchmarkUnavailable,
		ResponseSource:       source,
	}
	if result.Benchmark != nil {
		p := result.Benchmark.Percentile
		output.Percentile = &p
	}
	return output, nil
}

func (h *Handler) scoreProgress(ctx context.Context, input *Input) (models.AssessmentResult, error) {
	if input.AssessmentID == "" {
		return models.AssessmentResult{}, errors.NewInvalidInputError("assessmentId is required when responses are omitted")
	}

	entry, err := h.store.Load(ctx, input.AssessmentID)
	if err != nil {
		if stderrors.Is(err, progress.ErrNotFound) {
			return models.AssessmentResult{}, errors.NewProgressNotFoundError(input.AssessmentID)
		}
		return models.AssessmentResult{}, errors.NewProgressStoreFailedError("load", err)
	}

	sector := input.Sector
	if strings.TrimSpace(sector) == "" {
		sector = entry.Sector
	}
	return h.engine.ScoreResponses(sector, entry.Responses)
}

func (h *Handler) recordIssues(sector string, err error) {
	var verr *validator.ValidationError
	if !stderrors.As(err, &verr) {
		return
	}
	for _, issue := range verr.Issues {
		metrics.RecordValidationIssue(verr.Sector, string(issue.Reason))
	}
	h.logger.Info("responses rejected", map[string]interface{}{
		"sector": h.engine.ResolveSector(sector),
		"issues": len(verr.Issues),
	})
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
		"jobKey":       job.Key,
		"overallScore": output.OverallScore,
	})
	return nil
}
