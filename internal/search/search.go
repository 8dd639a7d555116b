// Package search indexes completed assessment results in Elasticsearch and
// derives per-sector score statistics from them.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"assessment-workers/internal/models"
)

const DefaultIndex = "assessment-results"

var ErrMissingAssessmentID = errors.New("assessment id is required")

// Document is the flattened form of a result stored in the index.
type Document struct {
	AssessmentID    string             `json:"assessment_id"`
	Version         int                `json:"version"`
	Sector          string             `json:"sector"`
	OverallScore    int                `json:"overall_score"`
	MaturityLevel   string             `json:"maturity_level"`
	MaturityOrdinal int                `json:"maturity_ordinal"`
	Grade           string             `json:"grade"`
	Dimensions      map[string]float64 `json:"dimensions"`
	Percentile      *int               `json:"percentile,omitempty"`
	CompletedAt     time.Time          `json:"completed_at"`
}

// SectorStats summarises indexed overall scores for one sector.
type SectorStats struct {
	Sector         string  `json:"sector"`
	Count          int64   `json:"count"`
	Average        float64 `json:"average"`
	BottomQuartile float64 `json:"bottomQuartile"`
	Median         float64 `json:"median"`
	TopQuartile    float64 `json:"topQuartile"`
}

type ResultIndexer struct {
	client *elasticsearch.Client
	index  string
}

func NewResultIndexer(client *elasticsearch.Client, index string) *ResultIndexer {
	if index == "" {
		index = DefaultIndex
	}
	return &ResultIndexer{client: client, index: index}
}

func (r *ResultIndexer) IndexName() string { return r.index }

func DocumentID(assessmentID string, version int) string {
	return assessmentID + "-v" + strconv.Itoa(version)
}

func NewDocument(result models.AssessmentResult) Document {
	doc := Document{
		AssessmentID:    result.AssessmentID,
		Version:         result.Version,
		Sector:          result.Sector,
		OverallScore:    result.OverallScore,
		MaturityLevel:   result.MaturityLevel.Name,
		MaturityOrdinal: result.MaturityLevel.Ordinal,
		Grade:           result.Grade,
		Dimensions:      make(map[string]float64, len(result.DimensionScores)),
		CompletedAt:     result.CompletedAt,
	}
	for _, ds := range result.DimensionScores {
		doc.Dimensions[ds.DimensionID] = ds.Score
	}
	if result.Benchmark != nil {
		p := result.Benchmark.Percentile
		doc.Percentile = &p
	}
	return doc
}

// Index writes result under <assessmentId>-v<version>. Re-indexing the same
// version overwrites the document.
func (r *ResultIndexer) Index(ctx context.Context, result models.AssessmentResult) error {
	if result.AssessmentID == "" {
		return ErrMissingAssessmentID
	}

	body, err := json.Marshal(NewDocument(result))
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      r.index,
		DocumentID: DocumentID(result.AssessmentID, result.Version),
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, r.client)
	if err != nil {
		return fmt.Errorf("index result: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index result: %s", res.String())
	}
	return nil
}

// SectorStats aggregates the overall score of every indexed result in sector.
func (r *ResultIndexer) SectorStats(ctx context.Context, sector string) (SectorStats, error) {
	query := map[string]interface{}{
		"size": 0,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []interface{}{
					map[string]interface{}{"terms": map[string]interface{}{"sector": []string{sector}}},
				},
			},
		},
		"aggs": map[string]interface{}{
			"avg_score": map[string]interface{}{
				"avg": map[string]interface{}{"field": "overall_score"},
			},
			"score_percentiles": map[string]interface{}{
				"percentiles": map[string]interface{}{
					"field":    "overall_score",
					"percents": []float64{25, 50, 75},
				},
			},
		},
	}
	body, err := json.Marshal(query)
	if err != nil {
		return SectorStats{}, fmt.Errorf("encode query: %w", err)
	}

	req := esapi.SearchRequest{
		Index:          []string{r.index},
		Body:           bytes.NewReader(body),
		TrackTotalHits: true,
	}
	res, err := req.Do(ctx, r.client)
	if err != nil {
		return SectorStats{}, fmt.Errorf("sector stats: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return SectorStats{}, fmt.Errorf("sector stats: %s", res.String())
	}

	var parsed statsResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return SectorStats{}, fmt.Errorf("decode sector stats: %w", err)
	}

	stats := SectorStats{Sector: sector, Count: parsed.Hits.Total.Value}
	if stats.Count == 0 {
		return stats, nil
	}
	if parsed.Aggregations.AvgScore.Value != nil {
		stats.Average = *parsed.Aggregations.AvgScore.Value
	}
	values := parsed.Aggregations.ScorePercentiles.Values
	stats.BottomQuartile = percentileValue(values, "25.0")
	stats.Median = percentileValue(values, "50.0")
	stats.TopQuartile = percentileValue(values, "75.0")
	return stats, nil
}

type statsResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
	} `json:"hits"`
	Aggregations struct {
		AvgScore struct {
			Value *float64 `json:"value"`
		} `json:"avg_score"`
		ScorePercentiles struct {
			Values map[string]*float64 `json:"values"`
		} `json:"score_percentiles"`
	} `json:"aggregations"`
}

func percentileValue(values map[string]*float64, key string) float64 {
	if v, ok := values[key]; ok && v != nil {
		return *v
	}
	return 0
}
