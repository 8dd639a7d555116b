// internal/models/benchmark.go
package models

// Benchmark position buckets.
const (
	PositionBottomQuartile = "bottom_quartile"
	PositionBelowAverage   = "below_average"
	PositionAboveAverage   = "above_average"
	PositionTopQuartile    = "top_quartile"
)

type BenchmarkSummary struct {
	Average        float64 `json:"average"`
	TopQuartile    float64 `json:"topQuartile"`
	BottomQuartile float64 `json:"bottomQuartile"`
	Leader         float64 `json:"leader"`
}

type BenchmarkGaps struct {
	ToAverage     float64 `json:"toAverage"`
	ToTopQuartile float64 `json:"toTopQuartile"`
	ToLeader      float64 `json:"toLeader"`
}

// BenchmarkComparison places a score within its sector's reference distribution.
type BenchmarkComparison struct {
	Sector      string                         `json:"sector"`
	SectorName  string                         `json:"sectorName"`
	DimensionID string                         `json:"dimensionId,omitempty"`
	Score       float64                        `json:"score"`
	Percentile  int                            `json:"percentile"`
	Position    string                         `json:"position"`
	Reference   BenchmarkSummary               `json:"reference"`
	Gaps        BenchmarkGaps                  `json:"gaps"`
	SampleSize  string                         `json:"sampleSize,omitempty"`
	Source      string                         `json:"source,omitempty"`
	Dimensions  map[string]BenchmarkComparison `json:"dimensions,omitempty"`
}

func (b BenchmarkComparison) Clone() BenchmarkComparison {
	out := b
	if b.Dimensions != nil {
		out.Dimensions = make(map[string]BenchmarkComparison, len(b.Dimensions))
		for k, v := range b.Dimensions {
			out.Dimensions[k] = v.Clone()
		}
	}
	return out
}
