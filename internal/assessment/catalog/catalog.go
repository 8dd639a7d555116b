// Package catalog holds the read-only question catalog: sectors, dimensions
// and the questions asked in each sector.
//
// A Catalog is built once at startup from a YAML document and never mutated.
// Accessors return copies, so callers cannot alter shared state.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"assessment-workers/internal/common/validation"
)

// WeightTolerance bounds the allowed drift of a sector's dimension weight sum from 1.0.
const WeightTolerance = 1e-6

var (
	//go:embed data/default.yaml
	defaultCatalog []byte

	//go:embed data/catalog.schema.json
	catalogSchemaJSON []byte

	fileSchema = validation.MustCompile(catalogSchemaJSON)
)

type Catalog struct {
	version     string
	scale       Range
	scaleLabels []string
	order       []string
	sectors     map[string]*sectorCatalog
}

type sectorCatalog struct {
	id         string
	name       string
	dimensions []DimensionDefinition
	questions  []QuestionDefinition
	index      map[string]int
}

// Default loads the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}

// LoadFile loads a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

// Load parses, schema-checks and invariant-checks a YAML catalog.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	result, err := fileSchema.Validate(raw)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, &InvalidCatalogError{Problems: result.Messages()}
	}

	var doc file
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return build(doc)
}

func build(doc file) (*Catalog, error) {
	var problems []string
	addProblem := func(format string, args ...interface{}) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	c := &Catalog{
		version:     doc.Version,
		scale:       Range{Min: doc.Scale.Min, Max: doc.Scale.Max},
		scaleLabels: append([]string(nil), doc.Scale.Labels...),
		sectors:     make(map[string]*sectorCatalog, len(doc.Sectors)),
	}
	if c.scale.Min >= c.scale.Max {
		addProblem("scale min %d must be below max %d", c.scale.Min, c.scale.Max)
	}

	dimIndex := make(map[string]int, len(doc.Dimensions))
	for i, d := range doc.Dimensions {
		if _, dup := dimIndex[d.ID]; dup {
			addProblem("duplicate dimension %q", d.ID)
			continue
		}
		dimIndex[d.ID] = i
		for _, q := range d.Questions {
			if q.Dimension != "" && q.Dimension != d.ID {
				addProblem("question %q declared under %q but names dimension %q", q.ID, d.ID, q.Dimension)
			}
		}
	}

	for _, s := range doc.Sectors {
		if _, dup := c.sectors[s.ID]; dup {
			addProblem("duplicate sector %q", s.ID)
			continue
		}
		sc := &sectorCatalog{
			id:    s.ID,
			name:  s.Name,
			index: make(map[string]int),
		}

		for dimID := range s.DimensionWeights {
			if _, ok := dimIndex[dimID]; !ok {
				addProblem("sector %q overrides weight of unknown dimension %q", s.ID, dimID)
			}
		}

		grouped := make([][]questionSpec, len(doc.Dimensions))
		for i, d := range doc.Dimensions {
			grouped[i] = append(grouped[i], d.Questions...)
		}
		for _, q := range s.Questions {
			if q.Dimension == "" {
				addProblem("question %q in sector %q has no owning dimension", q.ID, s.ID)
				continue
			}
			i, ok := dimIndex[q.Dimension]
			if !ok {
				addProblem("question %q in sector %q references unknown dimension %q", q.ID, s.ID, q.Dimension)
				continue
			}
			grouped[i] = append(grouped[i], q)
		}

		weightSum := 0.0
		for i, d := range doc.Dimensions {
			weight := d.Weight
			if w, ok := s.DimensionWeights[d.ID]; ok {
				weight = w
			}
			weightSum += weight

			def := DimensionDefinition{
				ID:          d.ID,
				Label:       d.Label,
				Description: d.Description,
				Weight:      weight,
			}
			for _, q := range grouped[i] {
				if _, dup := sc.index[q.ID]; dup {
					addProblem("duplicate question %q in sector %q", q.ID, s.ID)
					continue
				}
				qd := QuestionDefinition{
					ID:        q.ID,
					Sector:    s.ID,
					Dimension: d.ID,
					Prompt:    q.Prompt,
					Weight:    1,
					Range:     c.scale,
				}
				if q.Weight != nil {
					qd.Weight = *q.Weight
				}
				if q.Range != nil {
					qd.Range = *q.Range
				}
				if qd.Weight <= 0 {
					addProblem("question %q in sector %q has non-positive weight %v", q.ID, s.ID, qd.Weight)
				}
				if qd.Range.Min >= qd.Range.Max {
					addProblem("question %q in sector %q has empty range [%d,%d]", q.ID, s.ID, qd.Range.Min, qd.Range.Max)
				}
				sc.index[q.ID] = len(sc.questions)
				sc.questions = append(sc.questions, qd)
				def.QuestionIDs = append(def.QuestionIDs, q.ID)
			}
			if len(def.QuestionIDs) == 0 {
				addProblem("dimension %q has no questions in sector %q", d.ID, s.ID)
			}
			sc.dimensions = append(sc.dimensions, def)
		}

		if math.Abs(weightSum-1.0) > WeightTolerance {
			addProblem("dimension weights for sector %q sum to %.6f, want 1.0", s.ID, weightSum)
		}

		c.sectors[s.ID] = sc
		c.order = append(c.order, s.ID)
	}

	if len(problems) > 0 {
		return nil, &InvalidCatalogError{Problems: problems}
	}
	return c, nil
}

// Version identifies the catalog content; results record it for traceability.
func (c *Catalog) Version() string { return c.version }

// Scale is the default answer range.
func (c *Catalog) Scale() Range { return c.scale }

// ScaleLabels describes each point of the default scale, lowest first.
func (c *Catalog) ScaleLabels() []string {
	return append([]string(nil), c.scaleLabels...)
}

// Sectors returns sector ids in declaration order.
func (c *Catalog) Sectors() []string {
	return append([]string(nil), c.order...)
}

func (c *Catalog) HasSector(sector string) bool {
	_, ok := c.sectors[sector]
	return ok
}

func (c *Catalog) SectorName(sector string) (string, error) {
	sc, err := c.lookup(sector)
	if err != nil {
		return "", err
	}
	return sc.name, nil
}

// QuestionsFor returns the sector's questions grouped by dimension in catalog
// order. The order is identical on every call.
func (c *Catalog) QuestionsFor(sector string) ([]QuestionDefinition, error) {
	sc, err := c.lookup(sector)
	if err != nil {
		return nil, err
	}
	return append([]QuestionDefinition(nil), sc.questions...), nil
}

func (c *Catalog) DimensionsFor(sector string) ([]DimensionDefinition, error) {
	sc, err := c.lookup(sector)
	if err != nil {
		return nil, err
	}
	out := make([]DimensionDefinition, len(sc.dimensions))
	for i, d := range sc.dimensions {
		out[i] = d.clone()
	}
	return out, nil
}

// Question looks up a single question within a sector.
func (c *Catalog) Question(sector, id string) (QuestionDefinition, bool) {
	sc, ok := c.sectors[sector]
	if !ok {
		return QuestionDefinition{}, false
	}
	i, ok := sc.index[id]
	if !ok {
		return QuestionDefinition{}, false
	}
	return sc.questions[i], true
}

// Position is the question's index in QuestionsFor order, or -1.
func (c *Catalog) Position(sector, id string) int {
	sc, ok := c.sectors[sector]
	if !ok {
		return -1
	}
	i, ok := sc.index[id]
	if !ok {
		return -1
	}
	return i
}

func (c *Catalog) lookup(sector string) (*sectorCatalog, error) {
	sc, ok := c.sectors[sector]
	if !ok {
		return nil, &UnknownSectorError{Sector: sector, Known: c.Sectors()}
	}
	return sc, nil
}
