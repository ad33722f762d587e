// Package model populates an atom space from hybrid-system model
// descriptions: one atom per model, mode, parameter, flow and goal.
package model

import (
	"fmt"

	"github.com/lazypower/workbench/internal/atomspace"
	"github.com/lazypower/workbench/internal/truth"
)

// Metadata keys written by the loaders.
const (
	MetaModelFile   = "model_file"
	MetaModel       = "model"
	MetaModeName    = "mode_name"
	MetaModeID      = "mode_id"
	MetaValue       = "value"
	MetaBounds      = "bounds"
	MetaUncertainty = "uncertainty"
	MetaMode        = "mode"
	MetaVariable    = "variable"
	MetaEquation    = "equation"
	MetaCondition   = "condition"
)

// AddModel interns the root atom of a model and registers it by name.
func AddModel(s *atomspace.Space, name, file string) *atomspace.Atom {
	a := atomspace.NewNode(atomspace.Model, name)
	a.TV = truth.Certain()
	a.SetMeta(MetaModelFile, file)
	a = s.Intern(a)
	s.RegisterModel(name, a)
	return a
}

// ModeName is the atom name of mode id of model.
func ModeName(model string, id int) string {
	return fmt.Sprintf("%s_mode_%d", model, id)
}

// AddMode interns a mode of model. When the model is registered the mode is
// linked to it with an inheritance link.
func AddMode(s *atomspace.Space, model string, id int, modeName string) *atomspace.Atom {
	m := atomspace.NewNode(atomspace.Mode, ModeName(model, id))
	m.SetMeta(MetaModel, model)
	m.SetMeta(MetaModeName, modeName)
	m.SetMeta(MetaModeID, id)
	m = s.Intern(m)

	if root, ok := s.Model(model); ok {
		isa := atomspace.NewLink(atomspace.Inheritance,
			fmt.Sprintf("mode_%d_isa_%s", id, model), m, root)
		s.Intern(isa)
	}
	return m
}

// Parameter describes a model parameter. Bounds is empty or [lower, upper];
// a nil Uncertainty means the value is exact.
type Parameter struct {
	Name        string    `yaml:"name" json:"name" validate:"required"`
	Value       float64   `yaml:"value" json:"value"`
	Bounds      []float64 `yaml:"bounds,omitempty" json:"bounds,omitempty" validate:"omitempty,len=2"`
	Uncertainty *float64  `yaml:"uncertainty,omitempty" json:"uncertainty,omitempty" validate:"omitempty,min=0,max=1"`
}

// AddParameter interns a parameter. Its confidence is 1 - uncertainty.
func AddParameter(s *atomspace.Space, p Parameter) *atomspace.Atom {
	confidence := 1.0
	var uncertainty any
	if p.Uncertainty != nil {
		confidence = 1 - *p.Uncertainty
		uncertainty = *p.Uncertainty
	}
	var bounds any
	if len(p.Bounds) == 2 {
		bounds = []float64{p.Bounds[0], p.Bounds[1]}
	}

	a := atomspace.NewNode(atomspace.Parameter, p.Name)
	a.TV = truth.New(1, confidence)
	a.SetMeta(MetaValue, p.Value)
	a.SetMeta(MetaBounds, bounds)
	a.SetMeta(MetaUncertainty, uncertainty)
	return s.Intern(a)
}

// AddFlow interns the flow equation of variable in mode.
func AddFlow(s *atomspace.Space, mode, variable, equation string) *atomspace.Atom {
	a := atomspace.NewNode(atomspace.Flow, fmt.Sprintf("%s_flow_%s", mode, variable))
	a.SetMeta(MetaMode, mode)
	a.SetMeta(MetaVariable, variable)
	a.SetMeta(MetaEquation, equation)
	return s.Intern(a)
}

// AddGoal interns a reachability goal with a prior probability.
func AddGoal(s *atomspace.Space, name, condition string, probability float64) *atomspace.Atom {
	a := atomspace.NewNode(atomspace.Goal, name)
	a.TV = truth.New(probability, 0.5)
	a.SetMeta(MetaCondition, condition)
	return s.Intern(a)
}
