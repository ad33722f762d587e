// Package reasoner applies the truth-value algebra across the atom graph:
// uncertainty propagation, reachability estimation, bounded backward and
// forward chaining, and one-hop explanations.
package reasoner

import (
	"math"

	"github.com/lazypower/workbench/internal/atomspace"
	"github.com/lazypower/workbench/internal/truth"
	"go.uber.org/zap"
)

// Operation names how a parameter enters a computation.
type Operation string

const (
	Multiply Operation = "multiply"
	Add      Operation = "add"
)

// confidence multipliers per operation; anything else uses otherFactor.
const (
	multiplyFactor = 0.9
	addFactor      = 0.95
	otherFactor    = 0.8
)

// UnknownGoalPrior is the starting point of reachability for goals the
// store does not know.
var UnknownGoalPrior = truth.Value{Strength: 0.5, Confidence: 0.1}

// Evidence is one named observation about a goal.
type Evidence struct {
	Source string      `json:"source"`
	TV     truth.Value `json:"truth_value"`
}

// Reasoner reads and writes truth values on a Space. Like the Space it is
// not safe for concurrent use.
type Reasoner struct {
	space  *atomspace.Space
	rules  map[string]Rule
	logger *zap.Logger
}

// Option configures a Reasoner.
type Option func(*Reasoner)

// WithLogger sets the logger used for debug traces.
func WithLogger(l *zap.Logger) Option {
	return func(r *Reasoner) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a reasoner over space with the standard rule set.
func New(space *atomspace.Space, opts ...Option) *Reasoner {
	r := &Reasoner{
		space:  space,
		rules:  standardRules(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reasoner) Deduction(ab, bc truth.Value) truth.Value { return truth.Deduction(ab, bc) }

func (r *Reasoner) Induction(ab truth.Value, n int) truth.Value { return truth.Induction(ab, n) }

func (r *Reasoner) Abduction(ac, bc truth.Value) truth.Value { return truth.Abduction(ac, bc) }

func (r *Reasoner) Revision(a, b truth.Value) truth.Value { return truth.Revision(a, b) }

func (r *Reasoner) Conjunction(values []truth.Value) truth.Value { return truth.Conjunction(values) }

func (r *Reasoner) Disjunction(values []truth.Value) truth.Value { return truth.Disjunction(values) }

// PropagateUncertainty returns the parameter's strength with its confidence
// scaled for op. A missing parameter yields the neutral value.
func (r *Reasoner) PropagateUncertainty(param string, op Operation) truth.Value {
	a, ok := r.space.Get(atomspace.Parameter, param)
	if !ok {
		return truth.Neutral()
	}
	factor := otherFactor
	switch op {
	case Multiply:
		factor = multiplyFactor
	case Add:
		factor = addFactor
	}
	return truth.New(a.TV.Strength, a.TV.Confidence*factor)
}

// ReasonAboutReachability folds Revision over evidence, in the order given,
// starting from the goal's stored truth value (or UnknownGoalPrior). With no
// evidence at all the answer is the neutral value.
func (r *Reasoner) ReasonAboutReachability(goal string, evidence []Evidence) truth.Value {
	if len(evidence) == 0 {
		return truth.Neutral()
	}
	current := UnknownGoalPrior
	if a, ok := r.space.Get(atomspace.Goal, goal); ok {
		current = a.TV
	}
	for _, ev := range evidence {
		current = truth.Revision(current, ev.TV)
	}
	r.logger.Debug("reachability",
		zap.String("goal", goal),
		zap.Int("evidence", len(evidence)),
		zap.Stringer("tv", current))
	return current
}

// BackwardChain collects the links supporting goal, depth first: each
// incoming link, then its own support, down to maxDepth levels. Every atom
// is visited at most once, so cyclic graphs terminate and the result has
// no duplicates.
func (r *Reasoner) BackwardChain(goal *atomspace.Atom, maxDepth int) []*atomspace.Atom {
	if goal == nil {
		return nil
	}
	visited := map[atomspace.Key]bool{goal.Key(): true}
	var out []*atomspace.Atom
	var walk func(a *atomspace.Atom, depth int)
	walk = func(a *atomspace.Atom, depth int) {
		if depth <= 0 {
			return
		}
		for _, in := range r.space.Incoming(a) {
			if visited[in.Key()] {
				continue
			}
			visited[in.Key()] = true
			out = append(out, in)
			walk(in, depth-1)
		}
	}
	walk(goal, maxDepth)
	return out
}

// ForwardChain follows outgoing edges from premises for up to maxSteps
// hops. Each step's frontier is the set of endpoints of the previous one and
// is appended to the result in full, so an atom may appear more than once.
// Chaining stops early when a step reaches nothing new.
func (r *Reasoner) ForwardChain(premises []*atomspace.Atom, maxSteps int) []*atomspace.Atom {
	seen := make(map[atomspace.Key]bool)
	for _, p := range premises {
		if p != nil {
			seen[p.Key()] = true
		}
	}
	var out []*atomspace.Atom
	frontier := premises
	for step := 0; step < maxSteps; step++ {
		var next []*atomspace.Atom
		inStep := make(map[atomspace.Key]bool)
		fresh := false
		for _, p := range frontier {
			for _, o := range r.space.Outgoing(p) {
				if o == nil || inStep[o.Key()] {
					continue
				}
				inStep[o.Key()] = true
				next = append(next, o)
				if !seen[o.Key()] {
					fresh = true
				}
			}
		}
		if !fresh {
			break
		}
		for _, o := range next {
			seen[o.Key()] = true
		}
		out = append(out, next...)
		frontier = next
	}
	return out
}

// AtomRef identifies an atom in an explanation.
type AtomRef struct {
	Type       atomspace.Type `json:"type"`
	Name       string         `json:"name"`
	TruthValue *truth.Value   `json:"truth_value,omitempty"`
}

// Explanation is a one-hop account of a conclusion.
type Explanation struct {
	Conclusion AtomRef   `json:"conclusion"`
	Premises   []AtomRef `json:"premises"`
}

// ExplainInference returns the atom's truth value and its direct incoming
// links as premises.
func (r *Reasoner) ExplainInference(a *atomspace.Atom) Explanation {
	if a == nil {
		return Explanation{Premises: []AtomRef{}}
	}
	tv := a.TV
	ex := Explanation{
		Conclusion: AtomRef{Type: a.Type(), Name: a.Name(), TruthValue: &tv},
		Premises:   []AtomRef{},
	}
	for _, in := range r.space.Incoming(a) {
		ex.Premises = append(ex.Premises, AtomRef{Type: in.Type(), Name: in.Name()})
	}
	return ex
}

// InferParameterBounds estimates a parameter range as mean ± 2σ of the
// observations (population deviation). No observations yields (0, 1).
func InferParameterBounds(observations []float64) (lo, hi float64) {
	if len(observations) == 0 {
		return 0, 1
	}
	n := float64(len(observations))
	mean := 0.0
	for _, x := range observations {
		mean += x
	}
	mean /= n
	variance := 0.0
	for _, x := range observations {
		variance += (x - mean) * (x - mean)
	}
	sd := math.Sqrt(variance / n)
	return mean - 2*sd, mean + 2*sd
}

// EstimateGoalProbability is the fraction of trajectories that satisfied the
// goal. With no trajectories it is 0.5.
func EstimateGoalProbability(satisfied, total int) float64 {
	if total <= 0 {
		return 0.5
	}
	if satisfied < 0 {
		satisfied = 0
	}
	if satisfied > total {
		satisfied = total
	}
	return float64(satisfied) / float64(total)
}
