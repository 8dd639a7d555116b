package catalog

// Range is the inclusive set of integer answers a question accepts.
type Range struct {
	Min int `json:"min" yaml:"min"`
	Max int `json:"max" yaml:"max"`
}

func (r Range) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// Span is the width used to normalise an answer into [0,1].
func (r Range) Span() float64 {
	return float64(r.Max - r.Min)
}

type QuestionDefinition struct {
	ID        string  `json:"id"`
	Sector    string  `json:"sector"`
	Dimension string  `json:"dimension"`
	Prompt    string  `json:"prompt"`
	Weight    float64 `json:"weight"`
	Range     Range   `json:"range"`
}

type DimensionDefinition struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Description string   `json:"description,omitempty"`
	Weight      float64  `json:"weight"`
	QuestionIDs []string `json:"questionIds"`
}

func (d DimensionDefinition) clone() DimensionDefinition {
	out := d
	out.QuestionIDs = append([]string(nil), d.QuestionIDs...)
	return out
}

// file mirrors the YAML catalog document.
type file struct {
	Version    string          `yaml:"version"`
	Scale      scaleSpec       `yaml:"scale"`
	Dimensions []dimensionSpec `yaml:"dimensions"`
	Sectors    []sectorSpec    `yaml:"sectors"`
}

type scaleSpec struct {
	Min    int      `yaml:"min"`
	Max    int      `yaml:"max"`
	Labels []string `yaml:"labels"`
}

type dimensionSpec struct {
	ID          string         `yaml:"id"`
	Label       string         `yaml:"label"`
	Description string         `yaml:"description"`
	Weight      float64        `yaml:"weight"`
	Questions   []questionSpec `yaml:"questions"`
}

type sectorSpec struct {
	ID               string             `yaml:"id"`
	Name             string             `yaml:"name"`
	DimensionWeights map[string]float64 `yaml:"dimension_weights"`
	Questions        []questionSpec     `yaml:"questions"`
}

type questionSpec struct {
	ID        string   `yaml:"id"`
	Dimension string   `yaml:"dimension"`
	Prompt    string   `yaml:"prompt"`
	Weight    *float64 `yaml:"weight"`
	Range     *Range   `yaml:"range"`
}
