// Package maturity maps an overall score onto ordered maturity levels.
package maturity

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"assessment-workers/internal/models"
)

const (
	MinScore = 0.0
	MaxScore = 100.0
)

var (
	ErrInvalidScore = errors.New("INVALID_SCORE")
	ErrInvalidBands = errors.New("INVALID_MATURITY_BANDS")
)

type InvalidScoreError struct {
	Score float64
}

func (e *InvalidScoreError) Error() string {
	return fmt.Sprintf("score %v is outside [%v,%v]", e.Score, MinScore, MaxScore)
}

func (e *InvalidScoreError) Is(target error) bool {
	return target == ErrInvalidScore
}

type InvalidBandsError struct {
	Problems []string
}

func (e *InvalidBandsError) Error() string {
	return fmt.Sprintf("invalid maturity bands: %s", strings.Join(e.Problems, "; "))
}

func (e *InvalidBandsError) Is(target error) bool {
	return target == ErrInvalidBands
}

// Band is one maturity level, starting at Lower and running up to the next
// band's Lower (exclusive). The last band runs to 100 inclusive.
type Band struct {
	Name        string  `json:"name" yaml:"name" mapstructure:"name"`
	Lower       float64 `json:"lower" yaml:"lower" mapstructure:"lower"`
	Description string  `json:"description,omitempty" yaml:"description" mapstructure:"description"`
}

func DefaultBands() []Band {
	return []Band{
		{Name: "Nascent", Lower: 0, Description: "Early awareness with little AI activity. The organization is still learning what AI could do for it."},
		{Name: "Experimenting", Lower: 20, Description: "Pilots and proofs of concept are underway while foundational capabilities are built and use cases tested."},
		{Name: "Operationalizing", Lower: 40, Description: "First AI use cases run in production with repeatable delivery practices emerging."},
		{Name: "Scaling", Lower: 60, Description: "Production AI deployments are expanding on established practices and growing organizational capability."},
		{Name: "Transforming", Lower: 75, Description: "AI reshapes core processes and decisions, backed by mature data, platforms and governance."},
		{Name: "Leading", Lower: 90, Description: "AI-driven organization with continuous improvement. AI is embedded in strategy and operations."},
	}
}

type Classifier struct {
	bands []Band
}

// NewClassifier validates the band table. A nil or empty table selects DefaultBands.
func NewClassifier(bands []Band) (*Classifier, error) {
	if len(bands) == 0 {
		bands = DefaultBands()
	}

	var problems []string
	if len(bands) < 5 || len(bands) > 6 {
		problems = append(problems, fmt.Sprintf("want 5 or 6 bands, got %d", len(bands)))
	}
	if bands[0].Lower != MinScore {
		problems = append(problems, fmt.Sprintf("first band %q must start at 0, starts at %v", bands[0].Name, bands[0].Lower))
	}
	seen := make(map[string]bool, len(bands))
	for i, b := range bands {
		name := strings.TrimSpace(b.Name)
		if name == "" {
			problems = append(problems, fmt.Sprintf("band %d has no name", i))
		} else if seen[strings.ToLower(name)] {
			problems = append(problems, fmt.Sprintf("duplicate band name %q", name))
		}
		seen[strings.ToLower(name)] = true

		if b.Lower >= MaxScore || math.IsNaN(b.Lower) {
			problems = append(problems, fmt.Sprintf("band %q lower bound %v must be below 100", b.Name, b.Lower))
		}
		if i > 0 && b.Lower <= bands[i-1].Lower {
			problems = append(problems, fmt.Sprintf("band %q lower bound %v must exceed %v", b.Name, b.Lower, bands[i-1].Lower))
		}
	}
	if len(problems) > 0 {
		return nil, &InvalidBandsError{Problems: problems}
	}

	return &Classifier{bands: append([]Band(nil), bands...)}, nil
}

// Bands returns a copy of the band table, lowest first.
func (c *Classifier) Bands() []Band {
	return append([]Band(nil), c.bands...)
}

// Classify is total over [0,100]. Each band includes its lower bound.
func (c *Classifier) Classify(score float64) (models.MaturityLevel, error) {
	if math.IsNaN(score) || score < MinScore || score > MaxScore {
		return models.MaturityLevel{}, &InvalidScoreError{Score: score}
	}

	i := len(c.bands) - 1
	for ; i > 0; i-- {
		if score >= c.bands[i].Lower {
			break
		}
	}
	return c.level(i), nil
}

// Level returns the band with the given name, matched case-insensitively.
func (c *Classifier) Level(name string) (models.MaturityLevel, bool) {
	for i, b := range c.bands {
		if strings.EqualFold(b.Name, name) {
			return c.level(i), true
		}
	}
	return models.MaturityLevel{}, false
}

func (c *Classifier) level(i int) models.MaturityLevel {
	upper := MaxScore
	if i+1 < len(c.bands) {
		upper = c.bands[i+1].Lower
	}
	b := c.bands[i]
	return models.MaturityLevel{
		Name:        b.Name,
		Ordinal:     i + 1,
		Description: b.Description,
		Lower:       b.Lower,
		Upper:       upper,
	}
}

// Grade converts a score into a letter grade.
func Grade(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
