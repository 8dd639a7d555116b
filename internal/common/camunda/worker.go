// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"assessment-workers/internal/common/errors"
	"assessment-workers/internal/common/logger"
	"assessment-workers/internal/common/metrics"
	"assessment-workers/internal/common/observability"
	"assessment-workers/internal/common/validation"
)

// JobHandler completes or fails the job itself and reports the outcome.
// A non-nil error means the job was failed or thrown.
type JobHandler interface {
	Handle(client worker.JobClient, job entities.Job) error
}

// HandlerFunc adapts a function to JobHandler.
type HandlerFunc func(client worker.JobClient, job entities.Job) error

func (f HandlerFunc) Handle(client worker.JobClient, job entities.Job) error {
	return f(client, job)
}

// Instrument wraps a JobHandler with job metrics, a trace span and error logging.
func Instrument(taskType string, handler JobHandler, obs *observability.Observability, log logger.Logger) worker.JobHandler {
	if obs == nil {
		obs = &observability.Observability{}
	}
	log = log.WithFields(map[string]interface{}{"taskType": taskType})

	return func(client worker.JobClient, job entities.Job) {
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		defer metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()

		start := time.Now()
		ctx, span := obs.StartSpan(context.Background(), taskType,
			attribute.Int64("job.key", job.GetKey()),
			attribute.Int64("process.instance.key", job.GetProcessInstanceKey()),
		)
		defer span.End()

		status := "completed"
		if err := handler.Handle(client, job); err != nil {
			status = "failed"
			code := string(errors.FromAssessment(err).Code)
			metrics.WorkerJobsFailed.WithLabelValues(taskType, code).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, code)
			log.Debug("Handler returned error", map[string]interface{}{
				"jobKey":    job.GetKey(),
				"errorCode": code,
			})
		} else {
			metrics.WorkerJobsCompleted.WithLabelValues(taskType).Inc()
		}

		duration := time.Since(start)
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(duration.Seconds())
		obs.RecordJobProcessed(ctx, taskType, status)
		obs.RecordJobDuration(ctx, taskType, duration, status)
	}
}

// ValidateInput checks job variables against schema before handler runs.
// Invalid input is thrown as INVALID_INPUT with the field errors attached.
func ValidateInput(schema *validation.Schema, handler JobHandler, errHandler *errors.ErrorHandler) JobHandler {
	if schema == nil {
		return handler
	}
	return HandlerFunc(func(client worker.JobClient, job entities.Job) error {
		result, err := schema.ValidateJSON(job.GetVariables())
		if err != nil {
			stdErr := errors.NewInvalidInputError(err.Error())
			errHandler.HandleJobError(context.Background(), client, job, stdErr)
			return stdErr
		}
		if !result.Valid {
			messages := result.Messages()
			stdErr := errors.NewInvalidInputError(strings.Join(messages, "; "))
			stdErr.Metadata = map[string]interface{}{"fieldErrors": messages}
			errHandler.HandleJobError(context.Background(), client, job, stdErr)
			return stdErr
		}
		return handler.Handle(client, job)
	})
}

// CompleteJob sends the complete command with output as job variables.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromObject(output)
	if err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("encode job output: %v", err))
	}
	if _, err := cmd.Send(ctx); err != nil {
		return errors.NewWorkflowEngineError("complete-job", err)
	}
	return nil
}

type CamundaWorker struct {
	worker   worker.JobWorker
	logger   logger.Logger
	taskType string
}

// NewWorker opens a job worker for taskType. The Zeebe client is shared and
// owned by the caller.
func NewWorker(
	client zbc.Client,
	taskType string,
	maxJobsActive int,
	timeout time.Duration,
	handler JobHandler,
	obs *observability.Observability,
	log logger.Logger,
) *CamundaWorker {
	step := client.NewJobWorker().
		JobType(taskType).
		Handler(Instrument(taskType, handler, obs, log)).
		MaxJobsActive(maxJobsActive).
		Name(taskType)
	if timeout > 0 {
		step = step.Timeout(timeout)
	}

	return &CamundaWorker{
		worker:   step.Open(),
		logger:   log,
		taskType: taskType,
	}
}

func (w *CamundaWorker) TaskType() string { return w.taskType }

func (w *CamundaWorker) Start() {
	w.logger.Info("worker started", map[string]interface{}{"taskType": w.taskType})
}

func (w *CamundaWorker) Stop() {
	w.logger.Info("stopping worker", map[string]interface{}{"taskType": w.taskType})
	w.worker.Close()
	w.worker.AwaitClose()
}
