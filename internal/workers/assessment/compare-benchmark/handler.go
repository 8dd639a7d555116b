// internal/workers/assessment/compare-benchmark/handler.go
package comparebenchmark

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"assessment-workers/internal/assessment/benchmark"
	"assessment-workers/internal/assessment/catalog"
	"assessment-workers/internal/assessment/engine"
	"assessment-workers/internal/common/camunda"
	"assessment-workers/internal/common/errors"
	"assessment-workers/internal/common/logger"
	"assessment-workers/internal/models"
)

const (
	TaskType = "compare-benchmark"
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
	if input.Score == nil {
		return nil, errors.NewInvalidInputError("score is required")
	}
	input.Dimension = strings.TrimSpace(input.Dimension)
	return &input, nil
}

// Execute classifies the score and places it in the sector distribution.
// A sector or dimension without reference data yields Available=false.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Score == nil {
		return nil, errors.NewInvalidInputError("score is required")
	}
	score := *input.Score

	sector := h.engine.ResolveSector(input.Sector)
	if !h.engine.Catalog().HasSector(sector) {
		return nil, &catalog.UnknownSectorError{Sector: sector, Known: h.engine.Catalog().Sectors()}
	}

	level, err := h.engine.Classifier().Classify(score)
	if err != nil {
		return nil, err
	}

	output := &Output{
		Sector:        sector,
		Dimension:     input.Dimension,
		Score:         score,
		MaturityLevel: level,
	}

	var comparison models.BenchmarkComparison
	if input.Dimension != "" {
		comparison, err = h.engine.Comparator().CompareDimension(sector, input.Dimension, score)
	} else {
		comparison, err = h.engine.Comparator().Compare(sector, score)
	}
	switch {
	case err == nil:
		output.Available = true
		output.Comparison = &comparison
	case stderrors.Is(err, benchmark.ErrNoBenchmarkData):
		output.Reason = err.Error()
		h.logger.Info("no benchmark reference", map[string]interface{}{
			"sector":    sector,
			"dimension": input.Dimension,
		})
	default:
		return nil, err
	}

	return output, nil
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
		"jobKey":    job.Key,
		"available": output.Available,
	})
	return nil
}
