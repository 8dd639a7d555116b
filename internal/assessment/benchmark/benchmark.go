// Package benchmark compares readiness scores with sector reference
// distributions.
package benchmark

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"assessment-workers/internal/assessment/maturity"
	"assessment-workers/internal/models"
)

// DefaultLeader is used when a sector does not publish an overall leader score.
const DefaultLeader = 90.0

var (
	ErrNoBenchmarkData  = errors.New("NO_BENCHMARK_DATA")
	ErrInvalidReference = errors.New("INVALID_BENCHMARK_REFERENCE")
)

//go:embed data/benchmarks.yaml
var defaultReferences []byte

type NoBenchmarkDataError struct {
	Sector    string
	Dimension string
}

func (e *NoBenchmarkDataError) Error() string {
	if e.Dimension != "" {
		return fmt.Sprintf("no benchmark data for dimension %q in sector %q", e.Dimension, e.Sector)
	}
	return fmt.Sprintf("no benchmark data for sector %q", e.Sector)
}

func (e *NoBenchmarkDataError) Is(target error) bool {
	return target == ErrNoBenchmarkData
}

type InvalidReferenceError struct {
	Problems []string
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid benchmark reference: %s", strings.Join(e.Problems, "; "))
}

func (e *InvalidReferenceError) Is(target error) bool {
	return target == ErrInvalidReference
}

// Stats is a reference score distribution summarised by its quartiles.
type Stats struct {
	Average        float64 `json:"average" yaml:"average"`
	TopQuartile    float64 `json:"topQuartile" yaml:"top_quartile"`
	BottomQuartile float64 `json:"bottomQuartile" yaml:"bottom_quartile"`
	Leader         float64 `json:"leader,omitempty" yaml:"leader,omitempty"`
}

func (s Stats) summary() models.BenchmarkSummary {
	return models.BenchmarkSummary{
		Average:        s.Average,
		TopQuartile:    s.TopQuartile,
		BottomQuartile: s.BottomQuartile,
		Leader:         s.Leader,
	}
}

// withDefaultLeader fills an omitted leader with DefaultLeader, or with the
// top quartile when that is already higher.
func (s Stats) withDefaultLeader() Stats {
	if s.Leader == 0 {
		s.Leader = math.Max(DefaultLeader, s.TopQuartile)
	}
	return s
}

func (s Stats) check(label string) []string {
	var problems []string
	if !(s.BottomQuartile > 0 && s.BottomQuartile < s.Average && s.Average < s.TopQuartile && s.TopQuartile < 100) {
		problems = append(problems, fmt.Sprintf("%s: want 0 < bottom(%v) < average(%v) < top(%v) < 100",
			label, s.BottomQuartile, s.Average, s.TopQuartile))
	}
	if s.Leader < s.TopQuartile || s.Leader > 100 {
		problems = append(problems, fmt.Sprintf("%s: leader %v must be within [top quartile %v, 100]",
			label, s.Leader, s.TopQuartile))
	}
	return problems
}

// Reference is one sector's benchmark data.
type Reference struct {
	Sector     string           `json:"sector" yaml:"id"`
	Name       string           `json:"name" yaml:"name"`
	SampleSize string           `json:"sampleSize,omitempty" yaml:"sample_size,omitempty"`
	Source     string           `json:"source,omitempty" yaml:"source,omitempty"`
	Overall    Stats            `json:"overall" yaml:"overall"`
	Dimensions map[string]Stats `json:"dimensions,omitempty" yaml:"dimensions,omitempty"`
}

func (r Reference) clone() Reference {
	out := r
	if r.Dimensions != nil {
		out.Dimensions = make(map[string]Stats, len(r.Dimensions))
		for k, v := range r.Dimensions {
			out.Dimensions[k] = v
		}
	}
	return out
}

type document struct {
	Version string      `yaml:"version"`
	Sectors []Reference `yaml:"sectors"`
}

// Table is the immutable set of sector references.
type Table struct {
	version string
	order   []string
	refs    map[string]Reference
}

// Default loads the reference data embedded in the binary.
func Default() (*Table, error) {
	return Load(bytes.NewReader(defaultReferences))
}

func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open benchmarks %s: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}

func Load(r io.Reader) (*Table, error) {
	var doc document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse benchmarks: %w", err)
	}
	return NewTable(doc.Version, doc.Sectors)
}

// NewTable validates references and builds a table. A missing overall
// leader defaults to DefaultLeader.
func NewTable(version string, refs []Reference) (*Table, error) {
	t := &Table{version: version, refs: make(map[string]Reference, len(refs))}
	var problems []string

	for _, ref := range refs {
		ref = ref.clone()
		if ref.Sector == "" {
			problems = append(problems, "reference without sector id")
			continue
		}
		if _, dup := t.refs[ref.Sector]; dup {
			problems = append(problems, fmt.Sprintf("duplicate sector %q", ref.Sector))
			continue
		}
		ref.Overall = ref.Overall.withDefaultLeader()
		problems = append(problems, ref.Overall.check(ref.Sector)...)

		dims := make([]string, 0, len(ref.Dimensions))
		for id := range ref.Dimensions {
			dims = append(dims, id)
		}
		sort.Strings(dims)
		for _, id := range dims {
			stats := ref.Dimensions[id].withDefaultLeader()
			ref.Dimensions[id] = stats
			problems = append(problems, stats.check(ref.Sector+"."+id)...)
		}

		t.refs[ref.Sector] = ref
		t.order = append(t.order, ref.Sector)
	}

	if len(problems) > 0 {
		return nil, &InvalidReferenceError{Problems: problems}
	}
	return t, nil
}

func (t *Table) Version() string { return t.version }

// Sectors lists sectors with reference data in declaration order.
func (t *Table) Sectors() []string {
	return append([]string(nil), t.order...)
}

func (t *Table) Reference(sector string) (Reference, error) {
	ref, ok := t.refs[sector]
	if !ok {
		return Reference{}, &NoBenchmarkDataError{Sector: sector}
	}
	return ref.clone(), nil
}

// With returns a new table with ref added or replaced. The receiver is unchanged.
func (t *Table) With(ref Reference) (*Table, error) {
	refs := make([]Reference, 0, len(t.order)+1)
	replaced := false
	for _, id := range t.order {
		if id == ref.Sector {
			refs = append(refs, ref)
			replaced = true
			continue
		}
		refs = append(refs, t.refs[id])
	}
	if !replaced {
		refs = append(refs, ref)
	}
	return NewTable(t.version, refs)
}

// Encode writes the table in the same YAML layout Load reads.
func (t *Table) Encode(w io.Writer) error {
	doc := document{Version: t.version}
	for _, id := range t.order {
		doc.Sectors = append(doc.Sectors, t.refs[id])
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode benchmarks: %w", err)
	}
	return enc.Close()
}

type Comparator struct {
	table *Table
}

func NewComparator(t *Table) *Comparator {
	return &Comparator{table: t}
}

// Compare places an overall score within the sector's distribution and
// attaches per-dimension comparisons when dimension scores are supplied.
func (c *Comparator) Compare(sector string, score float64, dimensions ...models.DimensionScore) (models.BenchmarkComparison, error) {
	ref, ok := c.table.refs[sector]
	if !ok {
		return models.BenchmarkComparison{}, &NoBenchmarkDataError{Sector: sector}
	}
	out, err := compare(ref, ref.Overall, score)
	if err != nil {
		return models.BenchmarkComparison{}, err
	}

	for _, ds := range dimensions {
		stats, ok := ref.Dimensions[ds.DimensionID]
		if !ok {
			continue
		}
		dim, err := compare(ref, stats, ds.Score)
		if err != nil {
			return models.BenchmarkComparison{}, err
		}
		dim.DimensionID = ds.DimensionID
		dim.SampleSize, dim.Source = "", ""
		if out.Dimensions == nil {
			out.Dimensions = make(map[string]models.BenchmarkComparison, len(dimensions))
		}
		out.Dimensions[ds.DimensionID] = dim
	}
	return out, nil
}

// CompareDimension compares a single dimension score against its sector stats.
func (c *Comparator) CompareDimension(sector, dimension string, score float64) (models.BenchmarkComparison, error) {
	ref, ok := c.table.refs[sector]
	if !ok {
		return models.BenchmarkComparison{}, &NoBenchmarkDataError{Sector: sector}
	}
	stats, ok := ref.Dimensions[dimension]
	if !ok {
		return models.BenchmarkComparison{}, &NoBenchmarkDataError{Sector: sector, Dimension: dimension}
	}
	out, err := compare(ref, stats, score)
	if err != nil {
		return models.BenchmarkComparison{}, err
	}
	out.DimensionID = dimension
	return out, nil
}

func compare(ref Reference, s Stats, score float64) (models.BenchmarkComparison, error) {
	if math.IsNaN(score) || score < maturity.MinScore || score > maturity.MaxScore {
		return models.BenchmarkComparison{}, &maturity.InvalidScoreError{Score: score}
	}
	return models.BenchmarkComparison{
		Sector:     ref.Sector,
		SectorName: ref.Name,
		Score:      score,
		Percentile: Percentile(s, score),
		Position:   Position(s, score),
		Reference:  s.summary(),
		Gaps: models.BenchmarkGaps{
			ToAverage:     round1(score - s.Average),
			ToTopQuartile: round1(score - s.TopQuartile),
			ToLeader:      round1(score - s.Leader),
		},
		SampleSize: ref.SampleSize,
		Source:     ref.Source,
	}, nil
}

// Percentile interpolates linearly between the knots (0,0), (bottom,25),
// (average,50), (top,75) and (100,95), floors, and clamps to [5,95].
// It never decreases as score increases.
func Percentile(s Stats, score float64) int {
	knots := [...][2]float64{
		{0, 0},
		{s.BottomQuartile, 25},
		{s.Average, 50},
		{s.TopQuartile, 75},
		{100, 95},
	}

	p := knots[len(knots)-1][1]
	for i := 1; i < len(knots); i++ {
		x0, y0 := knots[i-1][0], knots[i-1][1]
		x1, y1 := knots[i][0], knots[i][1]
		if score < x1 {
			p = y0 + (score-x0)/(x1-x0)*(y1-y0)
			break
		}
	}

	pct := int(math.Floor(p + 1e-9))
	if pct < 5 {
		return 5
	}
	if pct > 95 {
		return 95
	}
	return pct
}

func Position(s Stats, score float64) string {
	switch {
	case score >= s.TopQuartile:
		return models.PositionTopQuartile
	case score >= s.Average:
		return models.PositionAboveAverage
	case score >= s.BottomQuartile:
		return models.PositionBelowAverage
	default:
		return models.PositionBottomQuartile
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
