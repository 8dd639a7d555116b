// internal/workers/assessment/record-assessment-result/handler.go
package recordassessmentresult

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"assessment-workers/internal/assessment/maturity"
	"assessment-workers/internal/common/camunda"
	"assessment-workers/internal/common/errors"
	"assessment-workers/internal/common/logger"
	"assessment-workers/internal/models"
	"assessment-workers/internal/repository"
)

const (
	TaskType = "record-assessment-result"
)

type ResultStore interface {
	Create(ctx context.Context, leadID, sector string) (*models.Assessment, error)
	SaveResult(ctx context.Context, assessmentID string, result models.AssessmentResult) (int, error)
}

type Indexer interface {
	Index(ctx context.Context, result models.AssessmentResult) error
}

type ProgressClearer interface {
	Clear(ctx context.Context, assessmentID string) error
}

type Handler struct {
	config       *Config
	store        ResultStore
	indexer      Indexer
	progress     ProgressClearer
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

// NewHandler wires the result store. indexer and progress may be nil.
func NewHandler(config *Config, store ResultStore, indexer Indexer, progress ProgressClearer, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		store:        store,
		indexer:      indexer,
		progress:     progress,
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
	if input.AssessmentID == "" && input.AssessmentResult != nil {
		input.AssessmentID = input.AssessmentResult.AssessmentID
	}
	if err := h.validateInput(&input); err != nil {
		return nil, err
	}
	return &input, nil
}

func (h *Handler) validateInput(input *Input) error {
	if input.AssessmentResult == nil {
		return errors.NewInvalidInputError("assessmentResult is required")
	}
	if strings.TrimSpace(input.AssessmentResult.Sector) == "" {
		return errors.NewInvalidInputError("assessmentResult.sector is required")
	}
	score := float64(input.AssessmentResult.OverallScore)
	if score < maturity.MinScore || score > maturity.MaxScore {
		return errors.NewInvalidScoreError(&maturity.InvalidScoreError{Score: score})
	}
	return nil
}

// Execute stores the result as the next version of the assessment. Search
// indexing and progress cleanup never fail the job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if err := h.validateInput(input); err != nil {
		return nil, err
	}
	result := *input.AssessmentResult

	assessmentID := input.AssessmentID
	created := false
	if assessmentID == "" {
		a, err := h.store.Create(ctx, input.LeadID, result.Sector)
		if err != nil {
			return nil, errors.NewDatabaseInsertFailedError(err)
		}
		assessmentID = a.ID
		created = true
	}

	version, err := h.store.SaveResult(ctx, assessmentID, result)
	if err != nil {
		if stderrors.Is(err, repository.ErrAssessmentNotFound) {
			return nil, errors.NewAssessmentNotFoundError(assessmentID)
		}
		if stderrors.Is(err, context.DeadlineExceeded) {
			return nil, errors.NewQueryTimeoutError("save-result")
		}
		return nil, errors.NewDatabaseInsertFailedError(err)
	}

	stored := result.Clone()
	stored.AssessmentID = assessmentID
	stored.Version = version

	indexed := h.index(ctx, stored)
	h.clearProgress(ctx, assessmentID)

	h.logger.Info("assessment result recorded", map[string]interface{}{
		"assessmentId": assessmentID,
		"version":      version,
		"created":      created,
		"indexed":      indexed,
		"overallScore": stored.OverallScore,
	})

	return &Output{
		AssessmentID:     assessmentID,
		ResultVersion:    version,
		Created:          created,
		Indexed:          indexed,
		AssessmentResult: stored,
	}, nil
}

func (h *Handler) index(ctx context.Context, result models.AssessmentResult) bool {
	if h.indexer == nil {
		return false
	}
	if err := h.indexer.Index(ctx, result); err != nil {
		h.logger.Warn("search indexing failed", map[string]interface{}{
			"assessmentId": result.AssessmentID,
			"version":      result.Version,
			"error":        err.Error(),
		})
		return false
	}
	return true
}

func (h *Handler) clearProgress(ctx context.Context, assessmentID string) {
	if !h.config.ClearProgress || h.progress == nil {
		return
	}
	if err := h.progress.Clear(ctx, assessmentID); err != nil {
		h.logger.Warn("failed to clear progress entry", map[string]interface{}{
			"assessmentId": assessmentID,
			"error":        err.Error(),
		})
	}
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
		"version": output.ResultVersion,
	})
	return nil
}
