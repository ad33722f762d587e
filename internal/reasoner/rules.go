package reasoner

import (
	"fmt"
	"sort"

	"github.com/lazypower/workbench/internal/truth"
)

// Rule describes an inference rule by the shape of its premises and
// conclusion. Apply combines the premise truth values.
type Rule struct {
	Name       string   `json:"name"`
	Premises   []string `json:"premises"`
	Conclusion string   `json:"conclusion"`

	Apply func(premises ...truth.Value) (truth.Value, error) `json:"-"`
}

func standardRules() map[string]Rule {
	return map[string]Rule{
		"deduction": {
			Name: "deduction", Premises: []string{"A->B", "B->C"}, Conclusion: "A->C",
			Apply: binary("deduction", truth.Deduction),
		},
		"induction": {
			Name: "induction", Premises: []string{"A->B"}, Conclusion: "B->A",
			Apply: func(p ...truth.Value) (truth.Value, error) {
				if len(p) != 1 {
					return truth.Value{}, arityError("induction", 1, len(p))
				}
				return truth.Induction(p[0], truth.DefaultEvidenceCount), nil
			},
		},
		"abduction": {
			Name: "abduction", Premises: []string{"A->C", "B->C"}, Conclusion: "A->B",
			Apply: binary("abduction", truth.Abduction),
		},
		"revision": {
			Name: "revision", Premises: []string{"A", "A"}, Conclusion: "A",
			Apply: binary("revision", truth.Revision),
		},
	}
}

func binary(name string, f func(a, b truth.Value) truth.Value) func(...truth.Value) (truth.Value, error) {
	return func(p ...truth.Value) (truth.Value, error) {
		if len(p) != 2 {
			return truth.Value{}, arityError(name, 2, len(p))
		}
		return f(p[0], p[1]), nil
	}
}

func arityError(rule string, want, got int) error {
	return fmt.Errorf("rule %s: want %d premises, got %d", rule, want, got)
}

// Rules lists the registered rules by name.
func (r *Reasoner) Rules() []Rule {
	out := make([]Rule, 0, len(r.rules))
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Apply runs the named rule over premises.
func (r *Reasoner) Apply(name string, premises ...truth.Value) (truth.Value, error) {
	rule, ok := r.rules[name]
	if !ok {
		return truth.Value{}, fmt.Errorf("unknown rule %q", name)
	}
	return rule.Apply(premises...)
}
