// Package engine runs the scoring pipeline: validate, aggregate, classify,
// benchmark and summarise. An Engine holds only read-only tables and is safe
// for concurrent use.
package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"assessment-workers/internal/assessment/benchmark"
	"assessment-workers/internal/assessment/catalog"
	"assessment-workers/internal/assessment/insights"
	"assessment-workers/internal/assessment/maturity"
	"assessment-workers/internal/assessment/scoring"
	"assessment-workers/internal/assessment/validator"
	"assessment-workers/internal/common/logger"
	"assessment-workers/internal/models"
)

const DefaultSector = "general"

type Config struct {
	Catalog    *catalog.Catalog
	Benchmarks *benchmark.Table
	// Bands overrides the default maturity table when non-empty.
	Bands         []maturity.Band
	DefaultSector string
}

type Option func(*Engine)

// WithClock replaces time.Now for completion timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

type Engine struct {
	catalog       *catalog.Catalog
	validator     *validator.Validator
	aggregator    *scoring.Aggregator
	classifier    *maturity.Classifier
	comparator    *benchmark.Comparator
	insights      *insights.Generator
	defaultSector string
	now           func() time.Time
	logger        logger.Logger
}

func New(cfg Config, log logger.Logger, opts ...Option) (*Engine, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("engine: catalog is required")
	}
	if cfg.Benchmarks == nil {
		table, err := benchmark.NewTable("", nil)
		if err != nil {
			return nil, err
		}
		cfg.Benchmarks = table
	}
	classifier, err := maturity.NewClassifier(cfg.Bands)
	if err != nil {
		return nil, err
	}

	defaultSector := normalizeSector(cfg.DefaultSector)
	if defaultSector == "" {
		defaultSector = DefaultSector
	}
	if !cfg.Catalog.HasSector(defaultSector) {
		return nil, fmt.Errorf("engine: default sector: %w", &catalog.UnknownSectorError{Sector: defaultSector, Known: cfg.Catalog.Sectors()})
	}

	e := &Engine{
		catalog:       cfg.Catalog,
		validator:     validator.New(cfg.Catalog),
		aggregator:    scoring.New(cfg.Catalog),
		classifier:    classifier,
		comparator:    benchmark.NewComparator(cfg.Benchmarks),
		insights:      insights.New(cfg.Catalog, len(classifier.Bands())),
		defaultSector: defaultSector,
		now:           time.Now,
		logger:        log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Catalog exposes the read-only catalog the engine scores against.
func (e *Engine) Catalog() *catalog.Catalog { return e.catalog }

func (e *Engine) Classifier() *maturity.Classifier { return e.classifier }

func (e *Engine) Comparator() *benchmark.Comparator { return e.comparator }

// ResolveSector trims and lower-cases a sector id; empty selects the default.
func (e *Engine) ResolveSector(sector string) string {
	s := normalizeSector(sector)
	if s == "" {
		return e.defaultSector
	}
	return s
}

// Validate checks raw answers without scoring them.
func (e *Engine) Validate(sector string, raw map[string]interface{}, partial bool) (models.ResponseSet, error) {
	return e.validator.Validate(e.ResolveSector(sector), raw, partial)
}

// Score runs the full pipeline over a complete submission. A missing
// benchmark reference is not fatal: the result is returned with
// BenchmarkUnavailable set.
func (e *Engine) Score(sector string, raw map[string]interface{}) (models.AssessmentResult, error) {
	sector = e.ResolveSector(sector)

	responses, err := e.validator.Validate(sector, raw, false)
	if err != nil {
		return models.AssessmentResult{}, err
	}
	return e.score(sector, responses)
}

// ScoreResponses scores an already-typed response set.
func (e *Engine) ScoreResponses(sector string, responses models.ResponseSet) (models.AssessmentResult, error) {
	sector = e.ResolveSector(sector)

	validated, err := e.validator.ValidateSet(sector, responses, false)
	if err != nil {
		return models.AssessmentResult{}, err
	}
	return e.score(sector, validated)
}

// Rescore produces the next version of a result. previous is not modified.
func (e *Engine) Rescore(previous models.AssessmentResult, raw map[string]interface{}) (models.AssessmentResult, error) {
	sector := previous.Sector
	if sector == "" {
		sector = e.defaultSector
	}
	result, err := e.Score(sector, raw)
	if err != nil {
		return models.AssessmentResult{}, err
	}
	result.AssessmentID = previous.AssessmentID
	result.Version = previous.Version + 1
	return result, nil
}

func (e *Engine) score(sector string, responses models.ResponseSet) (models.AssessmentResult, error) {
	agg, err := e.aggregator.Aggregate(sector, responses)
	if err != nil {
		return models.AssessmentResult{}, err
	}

	level, err := e.classifier.Classify(float64(agg.Overall))
	if err != nil {
		return models.AssessmentResult{}, err
	}

	dims, err := e.insights.Annotate(sector, agg.Dimensions, responses)
	if err != nil {
		return models.AssessmentResult{}, err
	}
	summary := e.insights.Summarize(dims, level)

	sectorName, err := e.catalog.SectorName(sector)
	if err != nil {
		return models.AssessmentResult{}, err
	}

	result := models.AssessmentResult{
		Version:         1,
		Sector:          sector,
		SectorName:      sectorName,
		CatalogVersion:  e.catalog.Version(),
		OverallScore:    agg.Overall,
		MaturityLevel:   level,
		Grade:           maturity.Grade(float64(agg.Overall)),
		DimensionScores: dims,
		TopStrengths:    summary.TopStrengths,
		TopImprovements: summary.TopImprovements,
		Recommendations: summary.Recommendations,
		Responses:       responses.Clone(),
		CompletedAt:     e.now().UTC(),
	}

	comparison, err := e.comparator.Compare(sector, float64(agg.Overall), dims...)
	switch {
	case err == nil:
		result.Benchmark = &comparison
	case errors.Is(err, benchmark.ErrNoBenchmarkData):
		result.BenchmarkUnavailable = true
		e.logger.Warn("No benchmark data for sector, omitting comparison", map[string]interface{}{
			"sector": sector,
		})
	default:
		return models.AssessmentResult{}, err
	}

	e.logger.Debug("Assessment scored", map[string]interface{}{
		"sector":        sector,
		"overallScore":  result.OverallScore,
		"maturityLevel": level.Name,
	})
	return result, nil
}

// Progress reports answered/total counts for a partial submission.
func (e *Engine) Progress(sector string, raw map[string]interface{}) (models.AssessmentProgress, models.ResponseSet, error) {
	sector = e.ResolveSector(sector)

	responses, err := e.validator.Validate(sector, raw, true)
	if err != nil {
		return models.AssessmentProgress{}, nil, err
	}
	progress, err := e.ProgressOf(sector, responses)
	if err != nil {
		return models.AssessmentProgress{}, nil, err
	}
	return progress, responses, nil
}

// ProgressOf computes progress for an already-validated response set.
func (e *Engine) ProgressOf(sector string, responses models.ResponseSet) (models.AssessmentProgress, error) {
	sector = e.ResolveSector(sector)

	dims, err := e.catalog.DimensionsFor(sector)
	if err != nil {
		return models.AssessmentProgress{}, err
	}

	out := models.AssessmentProgress{Sector: sector, Dimensions: make([]models.DimensionProgress, 0, len(dims))}
	for _, d := range dims {
		dp := models.DimensionProgress{DimensionID: d.ID, Label: d.Label, Total: len(d.QuestionIDs)}
		for _, qid := range d.QuestionIDs {
			if _, ok := responses[qid]; ok {
				dp.Answered++
			}
		}
		out.Answered += dp.Answered
		out.Total += dp.Total
		out.Dimensions = append(out.Dimensions, dp)
	}
	if out.Total > 0 {
		out.Percent = scoring.RoundHalfEven(float64(out.Answered)*100/float64(out.Total), 1)
	}
	out.Complete = out.Answered == out.Total
	return out, nil
}

func normalizeSector(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
