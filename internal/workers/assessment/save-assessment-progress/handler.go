// internal/workers/assessment/save-assessment-progress/handler.go
package saveassessmentprogress

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
	"assessment-workers/internal/repository"
)

const (
	TaskType = "save-assessment-progress"
)

// ResponseWriter persists the durable copy of in-progress answers.
type ResponseWriter interface {
	UpdateResponses(ctx context.Context, id string, responses models.ResponseSet) error
}

type Handler struct {
	config       *Config
	engine       *engine.Engine
	store        *progress.Store
	repo         ResponseWriter
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, eng *engine.Engine, store *progress.Store, repo ResponseWriter, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		engine:       eng,
		store:        store,
		repo:         repo,
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
	if input.AssessmentID == "" {
		return nil, errors.NewInvalidInputError("assessmentId is required")
	}
	if input.Responses == nil {
		input.Responses = map[string]interface{}{}
	}
	return &input, nil
}

// Execute merges the answers into the progress entry and reports completion
// against the entry's sector.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	sector := h.engine.ResolveSector(input.Sector)

	responses, err := h.engine.Validate(sector, input.Responses, true)
	if err != nil {
		var verr *validator.ValidationError
		if stderrors.As(err, &verr) {
			for _, issue := range verr.Issues {
				metrics.RecordValidationIssue(sector, string(issue.Reason))
			}
		}
		return nil, err
	}

	entry, err := h.store.Save(ctx, input.AssessmentID, sector, responses)
	if err != nil {
		return nil, errors.NewProgressStoreFailedError("save", err)
	}

	status, err := h.engine.ProgressOf(entry.Sector, entry.Responses)
	if err != nil {
		return nil, err
	}

	persisted := h.persist(ctx, input.AssessmentID, entry.Responses)

	h.logger.Info("progress saved", map[string]interface{}{
		"assessmentId": input.AssessmentID,
		"sector":       entry.Sector,
		"answered":     status.Answered,
		"total":        status.Total,
	})

	return &Output{
		AssessmentID: input.AssessmentID,
		Sector:       entry.Sector,
		Progress:     status,
		Persisted:    persisted,
		UpdatedAt:    entry.UpdatedAt,
		ExpiresAt:    entry.UpdatedAt.Add(h.store.TTL()),
	}, nil
}

// persist is best effort: the Redis entry is the source for scoring.
func (h *Handler) persist(ctx context.Context, assessmentID string, responses models.ResponseSet) bool {
	if !h.config.PersistResponses || h.repo == nil {
		return false
	}
	err := h.repo.UpdateResponses(ctx, assessmentID, responses)
	switch {
	case err == nil:
		return true
	case stderrors.Is(err, repository.ErrAssessmentNotFound):
		h.logger.Debug("no in-progress assessment row, kept answers in cache only", map[string]interface{}{
			"assessmentId": assessmentID,
		})
	default:
		h.logger.Warn("failed to persist responses", map[string]interface{}{
			"assessmentId": assessmentID,
			"error":        err.Error(),
		})
	}
	return false
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
		"jobKey":   job.Key,
		"complete": output.Progress.Complete,
	})
	return nil
}
