// internal/models/assessment.go
package models

import "time"

// Assessment lifecycle states.
const (
	AssessmentStatusInProgress = "in_progress"
	AssessmentStatusCompleted  = "completed"
	AssessmentStatusArchived   = "archived"
)

// ResponseSet maps question ids to validated integer answers.
type ResponseSet map[string]int

// Clone returns an independent copy of the response set.
func (r ResponseSet) Clone() ResponseSet {
	out := make(ResponseSet, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge returns a new set holding r overlaid with other.
func (r ResponseSet) Merge(other ResponseSet) ResponseSet {
	out := r.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

type DimensionScore struct {
	DimensionID          string   `json:"dimensionId"`
	Label                string   `json:"label"`
	Weight               float64  `json:"weight"`
	RawAverage           float64  `json:"rawAverage"`
	Normalized           float64  `json:"normalized"`
	Score                float64  `json:"score"`
	WeightedContribution float64  `json:"weightedContribution"`
	QuestionCount        int      `json:"questionCount"`
	Strengths            []string `json:"strengths,omitempty"`
	Improvements         []string `json:"improvements,omitempty"`
}

type MaturityLevel struct {
	Name        string  `json:"name"`
	Ordinal     int     `json:"ordinal"`
	Description string  `json:"description,omitempty"`
	Lower       float64 `json:"lower"`
	Upper       float64 `json:"upper"`
}

// AssessmentResult is the scored outcome of a completed assessment.
// A result is never edited after creation; re-scoring yields a new Version.
type AssessmentResult struct {
	AssessmentID         string               `json:"assessmentId,omitempty"`
	Version              int                  `json:"version"`
	Sector               string               `json:"sector"`
	SectorName           string               `json:"sectorName"`
	CatalogVersion       string               `json:"catalogVersion"`
	OverallScore         int                  `json:"overallScore"`
	MaturityLevel        MaturityLevel        `json:"maturityLevel"`
	Grade                string               `json:"grade"`
	DimensionScores      []DimensionScore     `json:"dimensionScores"`
	Benchmark            *BenchmarkComparison `json:"benchmark,omitempty"`
	BenchmarkUnavailable bool                 `json:"benchmarkUnavailable"`
	TopStrengths         []string             `json:"topStrengths"`
	TopImprovements      []string             `json:"topImprovements"`
	Recommendations      []string             `json:"recommendations"`
	Responses            ResponseSet          `json:"responses"`
	CompletedAt          time.Time            `json:"completedAt"`
}

// Clone deep-copies the result so callers can derive a new version safely.
func (r AssessmentResult) Clone() AssessmentResult {
	out := r
	out.DimensionScores = make([]DimensionScore, len(r.DimensionScores))
	for i, ds := range r.DimensionScores {
		ds.Strengths = cloneStrings(ds.Strengths)
		ds.Improvements = cloneStrings(ds.Improvements)
		out.DimensionScores[i] = ds
	}
	if r.Benchmark != nil {
		b := r.Benchmark.Clone()
		out.Benchmark = &b
	}
	out.TopStrengths = cloneStrings(r.TopStrengths)
	out.TopImprovements = cloneStrings(r.TopImprovements)
	out.Recommendations = cloneStrings(r.Recommendations)
	if r.Responses != nil {
		out.Responses = r.Responses.Clone()
	}
	return out
}

// Dimension looks up a dimension score by id.
func (r AssessmentResult) Dimension(id string) (DimensionScore, bool) {
	for _, ds := range r.DimensionScores {
		if ds.DimensionID == id {
			return ds, true
		}
	}
	return DimensionScore{}, false
}

// DimensionProgress reports how far a partial submission has come.
type DimensionProgress struct {
	DimensionID string `json:"dimensionId"`
	Label       string `json:"label"`
	Answered    int    `json:"answered"`
	Total       int    `json:"total"`
}

type AssessmentProgress struct {
	Sector     string              `json:"sector"`
	Answered   int                 `json:"answered"`
	Total      int                 `json:"total"`
	Percent    float64             `json:"percent"`
	Complete   bool                `json:"complete"`
	Dimensions []DimensionProgress `json:"dimensions"`
}

// Assessment is the persisted assessment row.
type Assessment struct {
	ID          string      `json:"id"`
	LeadID      string      `json:"leadId,omitempty"`
	Sector      string      `json:"sector"`
	Status      string      `json:"status"`
	Responses   ResponseSet `json:"responses,omitempty"`
	CreatedAt   time.Time   `json:"createdAt"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

// AssessmentStats summarises assessment throughput.
type AssessmentStats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	InProgress     int     `json:"inProgress"`
	CompletionRate float64 `json:"completionRate"`
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
