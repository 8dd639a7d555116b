package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

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

func loadString(t *testing.T, doc string) (*Catalog, error) {
	t.Helper()
	return Load(strings.NewReader(doc))
}

func requireInvalid(t *testing.T, err error, fragment string) {
	t.Helper()
	require.Error(t, err)
	var invalid *InvalidCatalogError
	require.True(t, errors.As(err, &invalid), "expected InvalidCatalogError, got %T", err)
	assert.True(t, errors.Is(err, ErrInvalidCatalog))
	assert.Contains(t, invalid.Error(), fragment)
}

// ==========================
// Default Catalog Tests
// ==========================

func TestDefault_LoadsAllSectors(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{
		"financial_services", "government", "healthcare", "manufacturing", "retail",
		"general", "technology", "education", "energy", "transportation",
	}, c.Sectors())
	assert.NotEmpty(t, c.Version())
	assert.Equal(t, Range{Min: 1, Max: 5}, c.Scale())
	assert.Len(t, c.ScaleLabels(), 5)
}

func TestDefault_SectorQuestionCounts(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	tests := []struct {
		sector string
		want   int
	}{
		{"healthcare", 50},
		{"financial_services", 50},
		{"general", 50},
		{"technology", 40},
		{"transportation", 40},
	}

	for _, tt := range tests {
		t.Run(tt.sector, func(t *testing.T) {
			qs, err := c.QuestionsFor(tt.sector)
			require.NoError(t, err)
			assert.Len(t, qs, tt.want)
		})
	}
}

func TestDefault_DimensionsInCatalogOrder(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	dims, err := c.DimensionsFor("healthcare")
	require.NoError(t, err)

	ids := make([]string, len(dims))
	total := 0.0
	for i, d := range dims {
		ids[i] = d.ID
		total += d.Weight
		assert.NotEmpty(t, d.QuestionIDs)
	}
	assert.Equal(t, []string{
		"data_maturity", "technology_infrastructure", "process_operations",
		"workforce_culture", "governance_compliance",
	}, ids)
	assert.InDelta(t, 1.0, total, WeightTolerance)

	// sector questions follow the shared ones within their dimension
	assert.Equal(t, "hc_dm_2", dims[0].QuestionIDs[len(dims[0].QuestionIDs)-1])
}

// ==========================
// Lookup Tests
// ==========================

func TestQuestionsFor_StableOrder(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	first, err := c.QuestionsFor("retail")
	require.NoError(t, err)
	second, err := c.QuestionsFor("retail")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	for i, q := range first {
		assert.Equal(t, i, c.Position("retail", q.ID))
	}
}

func TestQuestionsFor_ReturnsCopies(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	qs, err := c.QuestionsFor("general")
	require.NoError(t, err)
	qs[0].Prompt = "tampered"

	dims, err := c.DimensionsFor("general")
	require.NoError(t, err)
	dims[0].QuestionIDs[0] = "tampered"

	again, err := c.QuestionsFor("general")
	require.NoError(t, err)
	assert.NotEqual(t, "tampered", again[0].Prompt)

	dimsAgain, err := c.DimensionsFor("general")
	require.NoError(t, err)
	assert.Equal(t, "dm_1", dimsAgain[0].QuestionIDs[0])
}

func TestQuestionsFor_UnknownSector(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	_, err = c.QuestionsFor("healthcar3")
	require.Error(t, err)

	var unknown *UnknownSectorError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "healthcar3", unknown.Sector)
	assert.True(t, errors.Is(err, ErrUnknownSector))
	assert.Contains(t, unknown.Known, "healthcare")

	_, err = c.DimensionsFor("healthcar3")
	assert.ErrorIs(t, err, ErrUnknownSector)

	_, err = c.SectorName("healthcar3")
	assert.ErrorIs(t, err, ErrUnknownSector)
}

func TestQuestion_Lookup(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	q, ok := c.Question("healthcare", "hc_gc_1")
	require.True(t, ok)
	assert.Equal(t, "governance_compliance", q.Dimension)
	assert.Equal(t, "healthcare", q.Sector)
	assert.Equal(t, 1.0, q.Weight)

	_, ok = c.Question("retail", "hc_gc_1")
	assert.False(t, ok)
	assert.Equal(t, -1, c.Position("retail", "hc_gc_1"))
}

func TestLoad_CustomCatalog(t *testing.T) {
	c, err := loadString(t, twoDimensionCatalog)
	require.NoError(t, err)

	assert.Equal(t, "test-1", c.Version())
	dims, err := c.DimensionsFor("technology")
	require.NoError(t, err)
	require.Len(t, dims, 2)
	assert.Equal(t, []string{"a_1", "a_2"}, dims[0].QuestionIDs)
	assert.Equal(t, []string{"b_1", "b_2"}, dims[1].QuestionIDs)

	name, err := c.SectorName("technology")
	require.NoError(t, err)
	assert.Equal(t, "Technology", name)
}

// ==========================
// Invariant Tests
// ==========================

func TestLoad_InvariantViolations(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(string) string
		fragment string
	}{
		{
			name: "weights do not sum to one",
			mutate: func(s string) string {
				return strings.Replace(s, "weight: 0.5\n    questions: []\n  - id: beta", "weight: 0.6\n    questions: []\n  - id: beta", 1)
			},
			fragment: "sum to 1.100000",
		},
		{
			name: "question without dimension",
			mutate: func(s string) string {
				return strings.Replace(s, "      - id: b_2\n        dimension: beta\n", "      - id: b_2\n", 1)
			},
			fragment: `question "b_2" in sector "technology" has no owning dimension`,
		},
		{
			name: "unknown dimension",
			mutate: func(s string) string {
				return strings.Replace(s, "dimension: beta\n        prompt: Second", "dimension: gamma\n        prompt: Second", 1)
			},
			fragment: `unknown dimension "gamma"`,
		},
		{
			name: "empty dimension",
			mutate: func(s string) string {
				s = strings.Replace(s, "      - id: b_1\n        dimension: beta\n        prompt: First beta question\n", "", 1)
				return strings.Replace(s, "      - id: b_2\n        dimension: beta\n        prompt: Second beta question\n", "", 1)
			},
			fragment: `dimension "beta" has no questions in sector "technology"`,
		},
		{
			name: "duplicate question",
			mutate: func(s string) string {
				return strings.Replace(s, "id: a_2", "id: a_1", 1)
			},
			fragment: `duplicate question "a_1"`,
		},
		{
			name: "empty range",
			mutate: func(s string) string {
				return strings.Replace(s, "prompt: First beta question", "prompt: First beta question\n        range: {min: 3, max: 3}", 1)
			},
			fragment: `empty range [3,3]`,
		},
		{
			name: "sector weight override of unknown dimension",
			mutate: func(s string) string {
				return strings.Replace(s, "    name: Technology\n", "    name: Technology\n    dimension_weights:\n      gamma: 0.1\n", 1)
			},
			fragment: `unknown dimension "gamma"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadString(t, tt.mutate(twoDimensionCatalog))
			requireInvalid(t, err, tt.fragment)
		})
	}
}

func TestLoad_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "missing sectors",
			doc:  "version: x\nscale: {min: 1, max: 5}\ndimensions:\n  - {id: a, label: A, weight: 1, questions: []}\n",
		},
		{
			name: "unexpected top-level key",
			doc:  twoDimensionCatalog + "extra: true\n",
		},
		{
			name: "non-positive question weight",
			doc:  strings.Replace(twoDimensionCatalog, "prompt: First alpha question", "prompt: First alpha question\n        weight: 0", 1),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadString(t, tt.doc)
			requireInvalid(t, err, "")
		})
	}
}

func TestLoad_SectorWeightOverride(t *testing.T) {
	doc := strings.Replace(twoDimensionCatalog, "    name: Technology\n",
		"    name: Technology\n    dimension_weights:\n      alpha: 0.7\n      beta: 0.3\n", 1)

	c, err := loadString(t, doc)
	require.NoError(t, err)

	dims, err := c.DimensionsFor("technology")
	require.NoError(t, err)
	assert.Equal(t, 0.7, dims[0].Weight)
	assert.Equal(t, 0.3, dims[1].Weight)
}

func TestLoad_MalformedYAML(t *testing.T) {
	_, err := loadString(t, "version: [unterminated")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse catalog")
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile("does-not-exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "open catalog")
}
