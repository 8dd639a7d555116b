package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	grpccodes "google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"assessment-workers/internal/assessment/catalog"
	"assessment-workers/internal/common/errors"
	"assessment-workers/internal/common/logger"
	"assessment-workers/internal/common/metrics"
	"assessment-workers/internal/common/observability"
)

// ==========================
// Test Helpers
// ==========================

func createTestJob(key int64) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                key,
		Type:               "score-assessment",
		ProcessInstanceKey: key * 10,
		Retries:            3,
		Variables:          "{}",
	}}
}

func createTestClient(maxRetries int) *Client {
	return &Client{config: &ClientConfig{
		GatewayAddress:    "localhost:26500",
		ConnectionTimeout: time.Second,
		RetryConfig: &RetryConfig{
			MaxRetries: maxRetries,
			BaseDelay:  time.Millisecond,
			MaxDelay:   2 * time.Millisecond,
		},
	}}
}

// ==========================
// Instrument Tests
// ==========================

func TestInstrument_Success(t *testing.T) {
	const taskType = "test-instrument-success"
	recorder := tracetest.NewSpanRecorder()
	obs := observability.New("camunda-test", observability.WithSpanProcessor(recorder))
	defer obs.Shutdown()

	called := false
	handler := HandlerFunc(func(_ worker.JobClient, job entities.Job) error {
		called = true
		assert.Equal(t, int64(7), job.GetKey())
		return nil
	})

	Instrument(taskType, handler, obs, logger.NewTestLogger(t))(nil, createTestJob(7))

	assert.True(t, called)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType)))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WorkerJobsActive.WithLabelValues(taskType)))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, taskType, spans[0].Name())
	assert.NotEqual(t, codes.Error, spans[0].Status().Code)
}

func TestInstrument_Failure(t *testing.T) {
	const taskType = "test-instrument-failure"
	recorder := tracetest.NewSpanRecorder()
	obs := observability.New("camunda-test", observability.WithSpanProcessor(recorder))
	defer obs.Shutdown()

	handler := HandlerFunc(func(worker.JobClient, entities.Job) error {
		return &catalog.UnknownSectorError{Sector: "healthcar3"}
	})

	Instrument(taskType, handler, obs, logger.NewTestLogger(t))(nil, createTestJob(8))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WorkerJobsFailed.WithLabelValues(taskType, "UNKNOWN_SECTOR")))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.WorkerJobsCompleted.WithLabelValues(taskType)))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
	assert.Equal(t, "UNKNOWN_SECTOR", spans[0].Status().Description)
}

func TestInstrument_NilObservability(t *testing.T) {
	handler := HandlerFunc(func(worker.JobClient, entities.Job) error { return nil })

	assert.NotPanics(t, func() {
		Instrument("test-instrument-nil-obs", handler, nil, logger.NewNoOpLogger())(nil, createTestJob(9))
	})
}

// ==========================
// Client Retry Tests
// ==========================

func TestExecuteWithRetry_RecoversFromTransientError(t *testing.T) {
	c := createTestClient(3)
	attempts := 0

	result, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
		attempts++
		if attempts < 3 {
			return nil, stderrors.New("rpc error: code = Unavailable desc = connection refused")
		}
		return "ok", nil
	}, "topology")

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, attempts)
}

func TestExecuteWithRetry_Errors(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		wantAttempts int
		wantCode     errors.ErrorCode
		retryable    bool
	}{
		{
			name:         "permanent error is not retried",
			err:          stderrors.New("permission denied"),
			wantAttempts: 1,
			wantCode:     errors.ErrCodeWorkflowEngineUnavailable,
			retryable:    false,
		},
		{
			name:         "timeouts exhaust retries",
			err:          stderrors.New("context deadline exceeded"),
			wantAttempts: 3,
			wantCode:     errors.ErrCodeWorkflowEngineTimeout,
			retryable:    true,
		},
		{
			name:         "unavailable exhausts retries",
			err:          stderrors.New("code = Unavailable"),
			wantAttempts: 3,
			wantCode:     errors.ErrCodeWorkflowEngineUnavailable,
			retryable:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := createTestClient(2)
			attempts := 0

			_, err := c.ExecuteWithRetry(context.Background(), func(context.Context) (interface{}, error) {
				attempts++
				return nil, tt.err
			}, "complete-job")

			require.Error(t, err)
			assert.Equal(t, tt.wantAttempts, attempts)

			var stdErr *errors.StandardError
			require.True(t, stderrors.As(err, &stdErr))
			assert.Equal(t, tt.wantCode, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestExecuteWithRetry_ContextCancelled(t *testing.T) {
	c := createTestClient(5)
	c.config.RetryConfig.BaseDelay = time.Second
	c.config.RetryConfig.MaxDelay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ExecuteWithRetry(ctx, func(context.Context) (interface{}, error) {
		return nil, stderrors.New("connection reset by peer")
	}, "activate")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(stderrors.New("broken pipe")))
	assert.True(t, isRetryableZeebeError(stderrors.New("i/o timeout")))
	assert.False(t, isRetryableZeebeError(stderrors.New("NOT_FOUND: job 7")))
	assert.True(t, isRetryableZeebeError(context.DeadlineExceeded))

	assert.True(t, isRetryableZeebeError(status.Error(grpccodes.Unavailable, "gateway restarting")))
	assert.True(t, isRetryableZeebeError(status.Error(grpccodes.ResourceExhausted, "backpressure")))
	assert.False(t, isRetryableZeebeError(status.Error(grpccodes.NotFound, "job 7 not found")))
	assert.False(t, isRetryableZeebeError(status.Error(grpccodes.InvalidArgument, "timeout must be positive")))
}

func TestMapZeebeError_GRPCStatus(t *testing.T) {
	c := createTestClient(0)

	err := c.mapZeebeError(status.Error(grpccodes.DeadlineExceeded, "slow broker"), "complete-job", 0)
	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeWorkflowEngineTimeout, stdErr.Code)

	err = c.mapZeebeError(status.Error(grpccodes.NotFound, "job 7 not found"), "complete-job", 2)
	require.True(t, stderrors.As(err, &stdErr))
	assert.Equal(t, errors.ErrCodeWorkflowEngineUnavailable, stdErr.Code)
	assert.False(t, stdErr.Retryable)
	assert.Contains(t, stdErr.Details, "after 3 attempts")
	assert.Contains(t, stdErr.Details, "operation: complete-job")
}
