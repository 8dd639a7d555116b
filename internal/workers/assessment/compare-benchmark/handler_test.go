// internal/workers/assessment/compare-benchmark/handler_test.go
package comparebenchmark

import (
	"context"
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-workers/internal/assessment/benchmark"
	"assessment-workers/internal/assessment/catalog"
	"assessment-workers/internal/assessment/engine"
	"assessment-workers/internal/common/errors"
	"assessment-workers/internal/common/logger"
	"assessment-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createMockJob(key int64, variables map[string]interface{}) entities.Job {
	variablesJSON, _ := json.Marshal(variables)

	activatedJob := &pb.ActivatedJob{
		Key:                      key,
		Type:                     TaskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "ai-readiness-chat",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_CompareBenchmark",
		ElementInstanceKey:       1,
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  3,
		Deadline:                 0,
		Variables:                string(variablesJSON),
	}

	return entities.Job{ActivatedJob: activatedJob}
}

func createTestHandler(t *testing.T) *Handler {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	b, err := benchmark.Default()
	require.NoError(t, err)
	eng, err := engine.New(engine.Config{Catalog: c, Benchmarks: b}, logger.NewTestLogger(t))
	require.NoError(t, err)

	return NewHandler(&Config{Timeout: 5 * time.Second}, eng, logger.NewTestLogger(t))
}

func score(v float64) *float64 { return &v }

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	h := createTestHandler(t)

	tests := []struct {
		name           string
		input          *Input
		validateOutput func(t *testing.T, output *Output)
	}{
		{
			name:  "overall score at the sector average",
			input: &Input{Sector: "retail", Score: score(50)},
			validateOutput: func(t *testing.T, output *Output) {
				require.True(t, output.Available)
				assert.Equal(t, 50, output.Comparison.Percentile)
				assert.Equal(t, models.PositionAboveAverage, output.Comparison.Position)
				assert.Equal(t, -20.0, output.Comparison.Gaps.ToTopQuartile)
				assert.Equal(t, "Operationalizing", output.MaturityLevel.Name)
			},
		},
		{
			name:  "overall score at the top quartile",
			input: &Input{Sector: "Retail ", Score: score(70)},
			validateOutput: func(t *testing.T, output *Output) {
				require.True(t, output.Available)
				assert.Equal(t, "retail", output.Sector)
				assert.Equal(t, 75, output.Comparison.Percentile)
				assert.Equal(t, models.PositionTopQuartile, output.Comparison.Position)
			},
		},
		{
			name:  "dimension comparison",
			input: &Input{Sector: "retail", Score: score(52), Dimension: "data_maturity"},
			validateOutput: func(t *testing.T, output *Output) {
				require.True(t, output.Available)
				assert.Equal(t, "data_maturity", output.Comparison.DimensionID)
				assert.Equal(t, 50, output.Comparison.Percentile)
			},
		},
		{
			name:  "empty sector selects general",
			input: &Input{Score: score(30)},
			validateOutput: func(t *testing.T, output *Output) {
				require.True(t, output.Available)
				assert.Equal(t, "general", output.Sector)
				assert.Equal(t, models.PositionBelowAverage, output.Comparison.Position)
			},
		},
		{
			name:  "core-only sector has no reference",
			input: &Input{Sector: "energy", Score: score(64)},
			validateOutput: func(t *testing.T, output *Output) {
				assert.False(t, output.Available)
				assert.Nil(t, output.Comparison)
				assert.NotEmpty(t, output.Reason)
				assert.Equal(t, "Scaling", output.MaturityLevel.Name)
			},
		},
		{
			name:  "unknown dimension has no reference",
			input: &Input{Sector: "retail", Score: score(64), Dimension: "ethics"},
			validateOutput: func(t *testing.T, output *Output) {
				assert.False(t, output.Available)
				assert.Equal(t, "ethics", output.Dimension)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := h.Execute(context.Background(), tt.input)
			require.NoError(t, err)
			require.NotNil(t, output)
			tt.validateOutput(t, output)
		})
	}
}

func TestHandler_Execute_PercentileMonotonic(t *testing.T) {
	h := createTestHandler(t)

	previous := 0
	for s := 0; s <= 100; s += 5 {
		output, err := h.Execute(context.Background(), &Input{Sector: "healthcare", Score: score(float64(s))})
		require.NoError(t, err)
		require.True(t, output.Available)
		assert.GreaterOrEqual(t, output.Comparison.Percentile, previous, "score %d", s)
		previous = output.Comparison.Percentile
	}
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_Errors(t *testing.T) {
	h := createTestHandler(t)

	tests := []struct {
		name    string
		input   *Input
		errCode errors.ErrorCode
	}{
		{name: "score above range", input: &Input{Sector: "retail", Score: score(101)}, errCode: errors.ErrCodeInvalidScore},
		{name: "negative score", input: &Input{Sector: "retail", Score: score(-1)}, errCode: errors.ErrCodeInvalidScore},
		{name: "NaN score", input: &Input{Sector: "retail", Score: score(math.NaN())}, errCode: errors.ErrCodeInvalidScore},
		{name: "invalid score without reference", input: &Input{Sector: "energy", Score: score(150)}, errCode: errors.ErrCodeInvalidScore},
		{name: "unknown sector", input: &Input{Sector: "healthcar3", Score: score(50)}, errCode: errors.ErrCodeUnknownSector},
		{name: "missing score", input: &Input{Sector: "retail"}, errCode: errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Nil(t, output)
			assert.Equal(t, tt.errCode, errors.FromAssessment(err).Code)
		})
	}
}

// ==========================
// Input Parsing Tests
// ==========================

func TestHandler_ParseInput(t *testing.T) {
	h := createTestHandler(t)

	input, err := h.parseInput(createMockJob(1, map[string]interface{}{
		"sector":    "retail",
		"score":     64.5,
		"dimension": " data_maturity ",
	}))
	require.NoError(t, err)
	require.NotNil(t, input.Score)
	assert.Equal(t, 64.5, *input.Score)
	assert.Equal(t, "data_maturity", input.Dimension)

	_, err = h.parseInput(createMockJob(2, map[string]interface{}{"sector": "retail"}))
	require.Error(t, err)
	stdErr, ok := err.(*errors.StandardError)
	require.True(t, ok, "error should be StandardError")
	assert.Equal(t, errors.ErrCodeInvalidInput, stdErr.Code)

	_, err = h.parseInput(createMockJob(3, map[string]interface{}{"score": "high"}))
	require.Error(t, err)
}
