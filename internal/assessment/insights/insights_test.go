package insights

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-workers/internal/assessment/catalog"
	"assessment-workers/internal/models"
)

func createTestGenerator(t *testing.T) (*Generator, *catalog.Catalog) {
	t.Helper()
	c, err := catalog.Default()
	require.NoError(t, err)
	return New(c, 6), c
}

func dims(scores ...float64) []models.DimensionScore {
	ids := []string{"data_maturity", "technology_infrastructure", "process_operations", "workforce_culture", "governance_compliance"}
	labels := []string{"Data Maturity", "Technology Infrastructure", "Process & Operations", "Workforce & Culture", "Governance & Compliance"}
	out := make([]models.DimensionScore, len(scores))
	for i, s := range scores {
		out[i] = models.DimensionScore{DimensionID: ids[i], Label: labels[i], Score: s}
	}
	return out
}

// ==========================
// Annotation Tests
// ==========================

func TestAnnotate_StrengthsAndImprovements(t *testing.T) {
	g, c := createTestGenerator(t)

	responses := models.ResponseSet{}
	qs, err := c.QuestionsFor("general")
	require.NoError(t, err)
	for _, q := range qs {
		responses[q.ID] = 3
	}
	responses["dm_1"] = 5
	responses["dm_2"] = 4
	responses["dm_3"] = 1
	responses["ti_1"] = 2

	in := dims(50, 50, 50, 50, 50)
	out, err := g.Annotate("general", in, responses)
	require.NoError(t, err)

	require.Len(t, out[0].Strengths, 2)
	assert.True(t, strings.HasSuffix(out[0].Strengths[0], "..."))
	assert.Len(t, []rune(out[0].Strengths[0]), maxPromptLength+3)
	assert.Equal(t, "Does your organization have a formal data governance framework?", out[0].Strengths[1])
	assert.Len(t, out[0].Improvements, 1)
	assert.Equal(t, "What is your organization's cloud adoption status?", out[1].Improvements[0])
	assert.Empty(t, out[2].Strengths)

	// input is left untouched
	assert.Nil(t, in[0].Strengths)
}

func TestAnnotate_CapsAtThreePerDimension(t *testing.T) {
	g, c := createTestGenerator(t)

	responses := models.ResponseSet{}
	qs, err := c.QuestionsFor("retail")
	require.NoError(t, err)
	for _, q := range qs {
		responses[q.ID] = 5
	}

	out, err := g.Annotate("retail", dims(100, 100, 100, 100, 100), responses)
	require.NoError(t, err)
	for _, ds := range out {
		assert.Len(t, ds.Strengths, notesPerDimension)
		assert.Empty(t, ds.Improvements)
	}
}

func TestAnnotate_UnknownSector(t *testing.T) {
	g, _ := createTestGenerator(t)

	_, err := g.Annotate("healthcar3", dims(1), models.ResponseSet{})
	assert.ErrorIs(t, err, catalog.ErrUnknownSector)
}

// ==========================
// Summary Tests
// ==========================

func TestSummarize_StrengthsAndImprovements(t *testing.T) {
	g, _ := createTestGenerator(t)

	in := dims(80, 45, 62.5, 30, 60)
	in[0].Strengths = []string{"s1", "s2", "s3"}
	in[3].Improvements = []string{"i1"}

	summary := g.Summarize(in, models.MaturityLevel{Name: "Operationalizing", Ordinal: 3})

	assert.Equal(t, []string{
		"Data Maturity: 80/100",
		"  - s1",
		"  - s2",
		"Process & Operations: 62/100",
		"Governance & Compliance: 60/100",
	}, summary.TopStrengths)

	assert.Equal(t, []string{
		"Workforce & Culture: 30/100",
		"  - i1",
		"Technology Infrastructure: 45/100",
	}, summary.TopImprovements)
}

func TestSummarize_Recommendations(t *testing.T) {
	g, _ := createTestGenerator(t)

	tests := []struct {
		name           string
		dims           []models.DimensionScore
		level          models.MaturityLevel
		validateOutput func(t *testing.T, recs []string)
	}{
		{
			name:  "nascent with every dimension low",
			dims:  dims(10, 5, 20, 15, 0),
			level: models.MaturityLevel{Name: "Nascent", Ordinal: 1},
			validateOutput: func(t *testing.T, recs []string) {
				require.Len(t, recs, maxRecommendations)
				assert.Equal(t, "Establish an AI steering committee with executive sponsorship", recs[0])
				// lowest dimension first
				assert.Equal(t, priorityByDimension["governance_compliance"], recs[3])
				assert.Equal(t, priorityByDimension["technology_infrastructure"], recs[4])
				assert.Equal(t, priorityByDimension["data_maturity"], recs[5])
				assert.Equal(t, priorityByDimension["workforce_culture"], recs[6])
			},
		},
		{
			name:  "leading without weak dimensions",
			dims:  dims(95, 92, 90, 91, 96),
			level: models.MaturityLevel{Name: "Leading", Ordinal: 6},
			validateOutput: func(t *testing.T, recs []string) {
				assert.Equal(t, tierRecommendationText[tierOptimizing][:3], recs)
			},
		},
		{
			name:  "scaling with one weak dimension",
			dims:  dims(70, 70, 70, 40, 70),
			level: models.MaturityLevel{Name: "Scaling", Ordinal: 4},
			validateOutput: func(t *testing.T, recs []string) {
				require.Len(t, recs, 4)
				assert.Equal(t, "Implement MLOps for production model management", recs[0])
				assert.Equal(t, priorityByDimension["workforce_culture"], recs[3])
			},
		},
		{
			name:  "custom level name falls back to ordinal",
			dims:  dims(70, 70, 70, 70, 70),
			level: models.MaturityLevel{Name: "Pioneering", Ordinal: 6},
			validateOutput: func(t *testing.T, recs []string) {
				assert.Equal(t, tierRecommendationText[tierOptimizing][0], recs[0])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := g.Summarize(tt.dims, tt.level)
			tt.validateOutput(t, summary.Recommendations)
		})
	}
}
