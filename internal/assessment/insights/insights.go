// Package insights derives narrative findings from scored dimensions:
// per-dimension strengths and gaps, and recommendations by maturity tier.
package insights

import (
	"fmt"
	"sort"
	"strings"

	"assessment-workers/internal/assessment/catalog"
	"assessment-workers/internal/models"
)

const (
	strengthAnswer    = 4
	improvementAnswer = 2

	maxPromptLength     = 80
	notesPerDimension   = 3
	notesPerSummaryLine = 2
	maxSummaryItems     = 6
	maxRecommendations  = 7
	tierRecommendations = 3

	strengthThreshold = 60.0
	priorityThreshold = 50.0
)

type tier int

const (
	tierExploring tier = iota
	tierExperimenting
	tierScaling
	tierOptimizing
)

var tierByLevel = map[string]tier{
	"nascent":          tierExploring,
	"experimenting":    tierExperimenting,
	"operationalizing": tierExperimenting,
	"scaling":          tierScaling,
	"transforming":     tierOptimizing,
	"leading":          tierOptimizing,
}

var tierRecommendationText = map[tier][]string{
	tierExploring: {
		"Establish an AI steering committee with executive sponsorship",
		"Conduct AI literacy training for leadership team",
		"Inventory existing data assets and assess quality",
		"Identify 2-3 low-risk, high-value AI pilot use cases",
		"Develop a data governance framework foundation",
	},
	tierExperimenting: {
		"Scale successful pilots with clear success metrics",
		"Invest in cloud infrastructure for AI workloads",
		"Build or acquire core AI/ML technical talent",
		"Establish AI ethics guidelines and review process",
		"Create reusable AI/ML platform components",
	},
	tierScaling: {
		"Implement MLOps for production model management",
		"Expand AI training programs across the organization",
		"Develop AI Center of Excellence governance model",
		"Integrate AI into strategic planning processes",
		"Establish continuous model monitoring and retraining",
	},
	tierOptimizing: {
		"Drive AI innovation through dedicated R&D function",
		"Explore advanced AI (GenAI, autonomous systems)",
		"Share AI best practices across business units",
		"Measure and optimize AI ROI portfolio-wide",
		"Lead industry AI standards and collaboration",
	},
}

var priorityByDimension = map[string]string{
	"data_maturity":             "PRIORITY: Invest in data quality and governance - this is foundational for all AI initiatives",
	"technology_infrastructure": "PRIORITY: Modernize technology stack with cloud and API capabilities for AI workloads",
	"process_operations":        "PRIORITY: Document and automate key processes to create foundation for AI optimization",
	"workforce_culture":         "PRIORITY: Launch AI literacy program and secure executive championship for AI initiatives",
	"governance_compliance":     "PRIORITY: Establish AI ethics framework and risk management before scaling AI",
}

// Summary holds the result-level findings.
type Summary struct {
	TopStrengths    []string
	TopImprovements []string
	Recommendations []string
}

type Generator struct {
	catalog   *catalog.Catalog
	bandCount int
}

// New creates a generator. bandCount is the size of the maturity table and
// is used to place custom level names on a recommendation tier.
func New(c *catalog.Catalog, bandCount int) *Generator {
	return &Generator{catalog: c, bandCount: bandCount}
}

// Annotate returns copies of dims with Strengths and Improvements filled
// from the answers: high answers are strengths, low answers improvements.
func (g *Generator) Annotate(sector string, dims []models.DimensionScore, responses models.ResponseSet) ([]models.DimensionScore, error) {
	defs, err := g.catalog.DimensionsFor(sector)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]catalog.DimensionDefinition, len(defs))
	for _, d := range defs {
		byID[d.ID] = d
	}

	out := make([]models.DimensionScore, len(dims))
	for i, ds := range dims {
		ds.Strengths, ds.Improvements = nil, nil
		for _, qid := range byID[ds.DimensionID].QuestionIDs {
			answer, ok := responses[qid]
			if !ok {
				continue
			}
			q, _ := g.catalog.Question(sector, qid)
			switch {
			case answer >= strengthAnswer && len(ds.Strengths) < notesPerDimension:
				ds.Strengths = append(ds.Strengths, truncate(q.Prompt))
			case answer <= improvementAnswer && len(ds.Improvements) < notesPerDimension:
				ds.Improvements = append(ds.Improvements, truncate(q.Prompt))
			}
		}
		out[i] = ds
	}
	return out, nil
}

// Summarize builds top strengths, top improvements and recommendations.
func (g *Generator) Summarize(dims []models.DimensionScore, level models.MaturityLevel) Summary {
	return Summary{
		TopStrengths:    topStrengths(dims),
		TopImprovements: topImprovements(dims),
		Recommendations: g.recommendations(dims, level),
	}
}

func topStrengths(dims []models.DimensionScore) []string {
	sorted := append([]models.DimensionScore(nil), dims...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })

	out := []string{}
	for _, ds := range sorted {
		if ds.Score >= strengthThreshold {
			out = append(out, headline(ds))
			out = append(out, bullets(ds.Strengths)...)
		}
	}
	return capped(out, maxSummaryItems)
}

func topImprovements(dims []models.DimensionScore) []string {
	sorted := append([]models.DimensionScore(nil), dims...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score < sorted[j].Score })

	out := []string{}
	for _, ds := range sorted {
		if ds.Score < strengthThreshold {
			out = append(out, headline(ds))
			out = append(out, bullets(ds.Improvements)...)
		}
	}
	return capped(out, maxSummaryItems)
}

func (g *Generator) recommendations(dims []models.DimensionScore, level models.MaturityLevel) []string {
	out := []string{}
	recs := tierRecommendationText[g.tierFor(level)]
	out = append(out, recs[:tierRecommendations]...)

	sorted := append([]models.DimensionScore(nil), dims...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score < sorted[j].Score })
	for _, ds := range sorted {
		if ds.Score >= priorityThreshold || len(out) >= maxRecommendations {
			continue
		}
		if rec, ok := priorityByDimension[ds.DimensionID]; ok {
			out = append(out, rec)
		}
	}
	return out
}

func (g *Generator) tierFor(level models.MaturityLevel) tier {
	if t, ok := tierByLevel[strings.ToLower(level.Name)]; ok {
		return t
	}
	if g.bandCount <= 0 || level.Ordinal <= 0 {
		return tierExploring
	}
	t := tier((level.Ordinal - 1) * len(tierRecommendationText) / g.bandCount)
	if t > tierOptimizing {
		t = tierOptimizing
	}
	return t
}

func headline(ds models.DimensionScore) string {
	return fmt.Sprintf("%s: %.0f/100", ds.Label, ds.Score)
}

func bullets(notes []string) []string {
	if len(notes) > notesPerSummaryLine {
		notes = notes[:notesPerSummaryLine]
	}
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = "  - " + n
	}
	return out
}

func truncate(prompt string) string {
	r := []rune(prompt)
	if len(r) <= maxPromptLength {
		return prompt
	}
	return string(r[:maxPromptLength]) + "..."
}

func capped(items []string, n int) []string {
	if len(items) > n {
		return items[:n]
	}
	return items
}
