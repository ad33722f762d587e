package model

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/lazypower/workbench/internal/atomspace"
	"gopkg.in/yaml.v3"
)

// Spec is a model description file.
type Spec struct {
	Name       string      `yaml:"name" json:"name" validate:"required"`
	File       string      `yaml:"file" json:"file"`
	Modes      []Mode      `yaml:"modes" json:"modes" validate:"dive"`
	Parameters []Parameter `yaml:"parameters" json:"parameters" validate:"dive"`
	Flows      []Flow      `yaml:"flows" json:"flows" validate:"dive"`
	Goals      []Goal      `yaml:"goals" json:"goals" validate:"dive"`
}

type Mode struct {
	ID   int    `yaml:"id" json:"id" validate:"gte=0"`
	Name string `yaml:"name" json:"name" validate:"required"`
}

// Flow refers to its mode by id.
type Flow struct {
	Mode     int    `yaml:"mode" json:"mode"`
	Variable string `yaml:"variable" json:"variable" validate:"required"`
	Equation string `yaml:"equation" json:"equation" validate:"required"`
}

type Goal struct {
	Name        string  `yaml:"name" json:"name" validate:"required"`
	Condition   string  `yaml:"condition" json:"condition"`
	Probability float64 `yaml:"probability" json:"probability" validate:"gte=0,lte=1"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and cross references.
func (s *Spec) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid model %q: %w", s.Name, err)
	}
	modes := make(map[int]bool, len(s.Modes))
	for _, m := range s.Modes {
		if modes[m.ID] {
			return fmt.Errorf("invalid model %q: duplicate mode id %d", s.Name, m.ID)
		}
		modes[m.ID] = true
	}
	for _, p := range s.Parameters {
		if len(p.Bounds) == 2 && p.Bounds[0] > p.Bounds[1] {
			return fmt.Errorf("invalid model %q: parameter %s has inverted bounds", s.Name, p.Name)
		}
	}
	for _, f := range s.Flows {
		if !modes[f.Mode] {
			return fmt.Errorf("invalid model %q: flow %s refers to unknown mode %d", s.Name, f.Variable, f.Mode)
		}
	}
	return nil
}

// Parse decodes and validates a YAML model description. Unknown fields are
// rejected.
func Parse(data []byte) (*Spec, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var spec Spec
	if err := dec.Decode(&spec); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty model description")
		}
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// LoadFile reads a model description from disk.
func LoadFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	spec, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if spec.File == "" {
		spec.File = path
	}
	return spec, nil
}

// Load interns every element of spec into s and returns the model atom.
func Load(s *atomspace.Space, spec *Spec) *atomspace.Atom {
	root := AddModel(s, spec.Name, spec.File)
	modeNames := make(map[int]string, len(spec.Modes))
	for _, m := range spec.Modes {
		AddMode(s, spec.Name, m.ID, m.Name)
		modeNames[m.ID] = ModeName(spec.Name, m.ID)
	}
	for _, p := range spec.Parameters {
		AddParameter(s, p)
	}
	for _, f := range spec.Flows {
		AddFlow(s, modeNames[f.Mode], f.Variable, f.Equation)
	}
	for _, g := range spec.Goals {
		AddGoal(s, g.Name, g.Condition, g.Probability)
	}
	return root
}
