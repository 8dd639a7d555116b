package engine

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"assessment-workers/internal/assessment/benchmark"
	"assessment-workers/internal/assessment/catalog"
	"assessment-workers/internal/assessment/maturity"
	"assessment-workers/internal/assessment/validator"
	"assessment-workers/internal/common/logger"
	"assessment-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

var fixedNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

const twoDimensionCatalog = `
version: "test-1"
scale:
  min: 1
  max: 5
dimensions:
  - id: alpha
    label: Alpha
    weight: 0.5
    questions: []
  - id: beta
    label: Beta
    weight: 0.5
    questions: []
sectors:
  - id: technology
    name: Technology
    questions:
      - id: a_1
        dimension: alpha
        prompt: First alpha question
      - id: a_2
        dimension: alpha
        prompt: Second alpha question
      - id: b_1
        dimension: beta
        prompt: First beta question
      - id: b_2
        dimension: beta
        prompt: Second beta question
`

func createTestEngine(t *testing.T) *Engine {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	b, err := benchmark.Default()
	require.NoError(t, err)

	e, err := New(Config{Catalog: c, Benchmarks: b}, logger.NewTestLogger(t), WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return e
}

func createObservedEngine(t *testing.T, doc string) (*Engine, *observer.ObservedLogs) {
	t.Helper()
	c, err := catalog.Load(strings.NewReader(doc))
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	e, err := New(Config{Catalog: c, DefaultSector: "technology"}, logger.NewZapAdapter(zap.New(core)),
		WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, err)
	return e, logs
}

func uniformAnswers(t *testing.T, e *Engine, sector string, value interface{}) map[string]interface{} {
	t.Helper()
	qs, err := e.Catalog().QuestionsFor(sector)
	require.NoError(t, err)
	out := make(map[string]interface{}, len(qs))
	for _, q := range qs {
		out[q.ID] = value
	}
	return out
}

// ==========================
// Scoring Pipeline Tests
// ==========================

func TestScore_CompleteAssessment(t *testing.T) {
	e := createTestEngine(t)

	result, err := e.Score("healthcare", uniformAnswers(t, e, "healthcare", 4))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Version)
	assert.Equal(t, "healthcare", result.Sector)
	assert.Equal(t, "Healthcare", result.SectorName)
	assert.Equal(t, "2025.1", result.CatalogVersion)
	assert.Equal(t, 75, result.OverallScore)
	assert.Equal(t, "Transforming", result.MaturityLevel.Name)
	assert.Equal(t, 5, result.MaturityLevel.Ordinal)
	assert.Equal(t, "C", result.Grade)
	assert.Equal(t, fixedNow, result.CompletedAt)
	assert.Len(t, result.Responses, 50)

	require.Len(t, result.DimensionScores, 5)
	for _, ds := range result.DimensionScores {
		assert.Equal(t, 75.0, ds.Score)
		assert.NotEmpty(t, ds.Strengths)
	}

	require.NotNil(t, result.Benchmark)
	assert.False(t, result.BenchmarkUnavailable)
	assert.Equal(t, models.PositionTopQuartile, result.Benchmark.Position)
	assert.Len(t, result.Benchmark.Dimensions, 5)

	assert.NotEmpty(t, result.TopStrengths)
	assert.Empty(t, result.TopImprovements)
	assert.Equal(t, "Drive AI innovation through dedicated R&D function", result.Recommendations[0])
}

func TestScore_TwoDimensionExampleWithoutBenchmark(t *testing.T) {
	e, logs := createObservedEngine(t, twoDimensionCatalog)

	result, err := e.Score("technology", map[string]interface{}{"a_1": 5, "a_2": 5, "b_1": 1, "b_2": 1})
	require.NoError(t, err)

	assert.Equal(t, 1.0, result.DimensionScores[0].Normalized)
	assert.Equal(t, 0.0, result.DimensionScores[1].Normalized)
	assert.Equal(t, 50, result.OverallScore)
	assert.Equal(t, "Operationalizing", result.MaturityLevel.Name)

	assert.Nil(t, result.Benchmark)
	assert.True(t, result.BenchmarkUnavailable)

	warnings := logs.FilterLevelExact(zapcore.WarnLevel).All()
	require.Len(t, warnings, 1)
	assert.Equal(t, "technology", warnings[0].ContextMap()["sector"])
}

func TestScore_SectorNormalization(t *testing.T) {
	e := createTestEngine(t)

	tests := []struct {
		name   string
		sector string
		want   string
	}{
		{"mixed case with spaces", "  HealthCare ", "healthcare"},
		{"empty selects default", "", "general"},
		{"core-only sector", "Energy", "energy"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := e.Score(tt.sector, uniformAnswers(t, e, tt.want, 3))
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Sector)
			assert.Equal(t, 50, result.OverallScore)
		})
	}
}

func TestScore_CoreOnlySectorDegrades(t *testing.T) {
	e := createTestEngine(t)

	result, err := e.Score("education", uniformAnswers(t, e, "education", 2))
	require.NoError(t, err)
	assert.True(t, result.BenchmarkUnavailable)
	assert.Nil(t, result.Benchmark)
	assert.Equal(t, 25, result.OverallScore)
	assert.Equal(t, "Experimenting", result.MaturityLevel.Name)
}

// ==========================
// Error Scenarios
// ==========================

func TestScore_Errors(t *testing.T) {
	e := createTestEngine(t)

	tests := []struct {
		name    string
		sector  string
		answers func() map[string]interface{}
		target  error
	}{
		{
			name:   "unknown sector",
			sector: "healthcar3",
			answers: func() map[string]interface{} {
				return map[string]interface{}{"dm_1": 3}
			},
			target: catalog.ErrUnknownSector,
		},
		{
			name:   "answer above scale",
			sector: "retail",
			answers: func() map[string]interface{} {
				a := uniformAnswers(t, e, "retail", 3)
				a["dm_1"] = 7
				return a
			},
			target: validator.ErrValidation,
		},
		{
			name:   "missing answer",
			sector: "retail",
			answers: func() map[string]interface{} {
				a := uniformAnswers(t, e, "retail", 3)
				delete(a, "ret_gc_1")
				return a
			},
			target: validator.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Score(tt.sector, tt.answers())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.target)
		})
	}
}

func TestScore_OutOfRangeIssue(t *testing.T) {
	e := createTestEngine(t)
	answers := uniformAnswers(t, e, "general", 3)
	answers["wc_1"] = 7

	_, err := e.Score("general", answers)
	var verr *validator.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []validator.Issue{{QuestionID: "wc_1", Reason: validator.ReasonOutOfRange}}, verr.Issues)
}

func TestScoreResponses_IncompleteIsRejected(t *testing.T) {
	e := createTestEngine(t)

	_, err := e.ScoreResponses("general", models.ResponseSet{"dm_1": 3})
	assert.ErrorIs(t, err, validator.ErrValidation)

	result, err := e.ScoreResponses("general", models.ResponseSet{})
	assert.Error(t, err)
	assert.Empty(t, result.Sector)
}

func TestNew_InvalidConfiguration(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	_, err = New(Config{}, logger.NewNoOpLogger())
	assert.Error(t, err)

	_, err = New(Config{Catalog: c, DefaultSector: "space"}, logger.NewNoOpLogger())
	assert.ErrorIs(t, err, catalog.ErrUnknownSector)

	_, err = New(Config{Catalog: c, Bands: maturity.DefaultBands()[:3]}, logger.NewNoOpLogger())
	assert.ErrorIs(t, err, maturity.ErrInvalidBands)
}

// ==========================
// Versioning & Progress Tests
// ==========================

func TestRescore_CreatesNewVersion(t *testing.T) {
	e := createTestEngine(t)

	first, err := e.Score("retail", uniformAnswers(t, e, "retail", 2))
	require.NoError(t, err)
	first.AssessmentID = "a-1"
	snapshot := first.Clone()

	second, err := e.Rescore(first, uniformAnswers(t, e, "retail", 5))
	require.NoError(t, err)

	assert.Equal(t, "a-1", second.AssessmentID)
	assert.Equal(t, 2, second.Version)
	assert.Equal(t, 100, second.OverallScore)
	assert.Equal(t, snapshot, first)
}

func TestScore_ResultsAreIndependent(t *testing.T) {
	e := createTestEngine(t)
	answers := uniformAnswers(t, e, "general", 4)

	first, err := e.Score("general", answers)
	require.NoError(t, err)
	first.DimensionScores[0].Strengths[0] = "tampered"
	first.Recommendations[0] = "tampered"
	first.Benchmark.Percentile = -1

	second, err := e.Score("general", answers)
	require.NoError(t, err)
	assert.NotEqual(t, "tampered", second.DimensionScores[0].Strengths[0])
	assert.NotEqual(t, "tampered", second.Recommendations[0])
	assert.NotEqual(t, -1, second.Benchmark.Percentile)
}

func TestProgress_PartialSubmission(t *testing.T) {
	e := createTestEngine(t)

	progress, responses, err := e.Progress("government", map[string]interface{}{
		"dm_1": 3, "dm_2": "4", "gov_dm_1": 2, "ti_1": 1,
	})
	require.NoError(t, err)

	assert.Len(t, responses, 4)
	assert.Equal(t, "government", progress.Sector)
	assert.Equal(t, 4, progress.Answered)
	assert.Equal(t, 50, progress.Total)
	assert.Equal(t, 8.0, progress.Percent)
	assert.False(t, progress.Complete)
	require.Len(t, progress.Dimensions, 5)
	assert.Equal(t, 3, progress.Dimensions[0].Answered)
	assert.Equal(t, 10, progress.Dimensions[0].Total)
	assert.Equal(t, 1, progress.Dimensions[1].Answered)
}

func TestProgress_RejectsBadAnswers(t *testing.T) {
	e := createTestEngine(t)

	_, _, err := e.Progress("government", map[string]interface{}{"dm_1": 0})
	assert.ErrorIs(t, err, validator.ErrValidation)
}

func TestProgressOf_Complete(t *testing.T) {
	e := createTestEngine(t)
	responses, err := e.Validate("technology", uniformAnswers(t, e, "technology", 3), false)
	require.NoError(t, err)

	progress, err := e.ProgressOf("technology", responses)
	require.NoError(t, err)
	assert.True(t, progress.Complete)
	assert.Equal(t, 100.0, progress.Percent)
}

// ==========================
// Concurrency Tests
// ==========================

func TestScore_ConcurrentUse(t *testing.T) {
	e := createTestEngine(t)
	sectors := e.Catalog().Sectors()

	expected := make(map[string]models.AssessmentResult, len(sectors))
	inputs := make(map[string]map[string]interface{}, len(sectors))
	for i, s := range sectors {
		inputs[s] = uniformAnswers(t, e, s, 1+i%5)
		r, err := e.Score(s, inputs[s])
		require.NoError(t, err)
		expected[s] = r
	}

	var wg sync.WaitGroup
	errs := make(chan error, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := sectors[i%len(sectors)]
			r, err := e.Score(s, inputs[s])
			if err != nil {
				errs <- err
				return
			}
			if r.OverallScore != expected[s].OverallScore || r.MaturityLevel != expected[s].MaturityLevel {
				errs <- errors.New("non-deterministic result for " + s)
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Error(err)
	}
}
