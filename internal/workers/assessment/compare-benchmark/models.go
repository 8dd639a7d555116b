// internal/workers/assessment/compare-benchmark/models.go
package comparebenchmark

import "assessment-workers/internal/models"

type Input struct {
	Sector string   `json:"sector"`
	Score  *float64 `json:"score"`
	// Dimension selects a single dimension's distribution; empty compares
	// the overall score.
	Dimension string `json:"dimension,omitempty"`
}

type Output struct {
	Sector        string                      `json:"sector"`
	Dimension     string                      `json:"dimension,omitempty"`
	Score         float64                     `json:"score"`
	Available     bool                        `json:"available"`
	MaturityLevel models.MaturityLevel        `json:"maturityLevel"`
	Comparison    *models.BenchmarkComparison `json:"comparison,omitempty"`
	Reason        string                      `json:"reason,omitempty"`
}
