// Package scoring turns validated responses into per-dimension and overall
// readiness scores.
package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"assessment-workers/internal/assessment/catalog"
	"assessment-workers/internal/models"
)

var ErrIncompleteDimension = errors.New("INCOMPLETE_DIMENSION")

// IncompleteDimensionError names the first dimension, in catalog order, that
// is missing answers.
type IncompleteDimensionError struct {
	Sector    string
	Dimension string
	Missing   []string
}

func (e *IncompleteDimensionError) Error() string {
	return fmt.Sprintf("dimension %q in sector %q is missing answers for %s",
		e.Dimension, e.Sector, strings.Join(e.Missing, ", "))
}

func (e *IncompleteDimensionError) Is(target error) bool {
	return target == ErrIncompleteDimension
}

// Aggregate is the scoring output before classification and benchmarking.
type Aggregate struct {
	Dimensions []models.DimensionScore
	Overall    int
	// Exact is the unrounded overall score, used for tie diagnostics.
	Exact float64
}

type Aggregator struct {
	catalog *catalog.Catalog
}

func New(c *catalog.Catalog) *Aggregator {
	return &Aggregator{catalog: c}
}

// Aggregate scores a complete response set. Dimensions are visited in
// catalog order so floating-point sums are reproducible.
func (a *Aggregator) Aggregate(sector string, responses models.ResponseSet) (Aggregate, error) {
	dims, err := a.catalog.DimensionsFor(sector)
	if err != nil {
		return Aggregate{}, err
	}

	out := Aggregate{Dimensions: make([]models.DimensionScore, 0, len(dims))}
	overall := 0.0

	for _, d := range dims {
		var missing []string
		var weightSum, unitSum, rawSum float64

		for _, qid := range d.QuestionIDs {
			q, _ := a.catalog.Question(sector, qid)
			answer, ok := responses[qid]
			if !ok {
				missing = append(missing, qid)
				continue
			}
			weightSum += q.Weight
			unitSum += q.Weight * unit(answer, q.Range)
			rawSum += q.Weight * float64(answer)
		}
		if len(missing) > 0 {
			return Aggregate{}, &IncompleteDimensionError{Sector: sector, Dimension: d.ID, Missing: missing}
		}

		normalized := unitSum / weightSum
		contribution := d.Weight * normalized * 100
		overall += contribution

		out.Dimensions = append(out.Dimensions, models.DimensionScore{
			DimensionID:          d.ID,
			Label:                d.Label,
			Weight:               d.Weight,
			RawAverage:           RoundHalfEven(rawSum/weightSum, 2),
			Normalized:           RoundHalfEven(normalized, 4),
			Score:                RoundHalfEven(normalized*100, 1),
			WeightedContribution: RoundHalfEven(contribution, 2),
			QuestionCount:        len(d.QuestionIDs),
		})
	}

	out.Exact = overall
	out.Overall = clampScore(int(RoundHalfEven(overall, 0)))
	return out, nil
}

// unit maps an answer onto [0,1] across its range; clamped so an answer that
// slipped past validation cannot push a score outside its bounds.
func unit(answer int, r catalog.Range) float64 {
	v := float64(answer-r.Min) / r.Span()
	return math.Max(0, math.Min(1, v))
}

// RoundHalfEven rounds to the given number of decimal places, resolving ties
// to the even neighbour. The scaled value is first snapped to 1e-9 so sums
// like 62.49999999999999 are treated as the tie they represent.
func RoundHalfEven(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	scaled := math.Round(v*scale*1e9) / 1e9
	return math.RoundToEven(scaled) / scale
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
