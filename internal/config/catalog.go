package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ViolationType is one entry of the violation catalog.
type ViolationType struct {
	Name   string `yaml:"name" json:"name"`
	Points int    `yaml:"points" json:"points"`
}

// ViolationCatalog maps a violation type name to its canonical point value.
// It is read-only after load.
type ViolationCatalog struct {
	points map[string]int
}

type catalogFile struct {
	Violations []ViolationType `yaml:"violations"`
}

// DefaultViolationTypes is the catalog used when no file override is configured.
var DefaultViolationTypes = []ViolationType{
	{Name: "Speeding", Points: 3},
	{Name: "Running Red Light", Points: 4},
	{Name: "Illegal Parking", Points: 1},
	{Name: "No Seatbelt", Points: 2},
	{Name: "Phone While Driving", Points: 3},
	{Name: "Reckless Driving", Points: 6},
	{Name: "DUI", Points: 12},
	{Name: "Driving Without License", Points: 8},
	{Name: "Overloading", Points: 4},
	{Name: "Failure to Yield", Points: 3},
}

// NewViolationCatalog builds a catalog from a list of types. Names must be
// unique and points positive.
func NewViolationCatalog(types []ViolationType) (*ViolationCatalog, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("violation catalog is empty")
	}
	points := make(map[string]int, len(types))
	for _, t := range types {
		if t.Name == "" {
			return nil, fmt.Errorf("violation type with empty name")
		}
		if t.Points <= 0 {
			return nil, fmt.Errorf("violation type %q: points must be positive", t.Name)
		}
		if _, dup := points[t.Name]; dup {
			return nil, fmt.Errorf("duplicate violation type %q", t.Name)
		}
		points[t.Name] = t.Points
	}
	return &ViolationCatalog{points: points}, nil
}

// LoadViolationCatalog reads the catalog from a YAML file, or returns the
// default catalog when path is empty.
//
//	violations:
//	  - name: Speeding
//	    points: 3
func LoadViolationCatalog(path string) (*ViolationCatalog, error) {
	if path == "" {
		return NewViolationCatalog(DefaultViolationTypes)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return NewViolationCatalog(f.Violations)
}

// Points returns the canonical point value for a violation type.
func (c *ViolationCatalog) Points(name string) (int, bool) {
	p, ok := c.points[name]
	return p, ok
}

// Types returns the catalog sorted by name.
func (c *ViolationCatalog) Types() []ViolationType {
	out := make([]ViolationType, 0, len(c.points))
	for name, p := range c.points {
		out = append(out, ViolationType{Name: name, Points: p})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
