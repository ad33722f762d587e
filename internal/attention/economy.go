package attention

import (
	"math"
	"sort"

	"github.com/lazypower/workbench/internal/atomspace"
	"go.uber.org/zap"
)

// Economy allocates the attention budget over the atoms of a Space.
// It is single-actor: every method reads and writes shared state without
// locking, so callers must serialize access.
type Economy struct {
	space    *atomspace.Space
	budget   float64
	boundary float64
	bank     float64
	records  map[atomspace.Key]*Value
	focus    map[atomspace.Key]struct{}
	logger   *zap.Logger
}

// Option configures an Economy.
type Option func(*Economy)

// WithLogger sets the logger used for debug traces.
func WithLogger(l *zap.Logger) Option {
	return func(e *Economy) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an economy over space. The whole budget starts in the bank.
// Non-positive config values fall back to the defaults.
func New(space *atomspace.Space, cfg Config, opts ...Option) *Economy {
	if cfg.TotalSTI <= 0 {
		cfg.TotalSTI = DefaultTotalSTI
	}
	if cfg.FocusBoundary <= 0 {
		cfg.FocusBoundary = DefaultFocusBoundary
	}
	e := &Economy{
		space:    space,
		budget:   cfg.TotalSTI,
		boundary: cfg.FocusBoundary,
		bank:     cfg.TotalSTI,
		records:  make(map[atomspace.Key]*Value),
		focus:    make(map[atomspace.Key]struct{}),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Budget returns the fixed total STI budget B.
func (e *Economy) Budget() float64 { return e.budget }

// Bank returns the STI not assigned to any atom.
func (e *Economy) Bank() float64 { return e.bank }

// FocusThreshold is the STI an atom needs to enter the focus set.
func (e *Economy) FocusThreshold() float64 {
	return e.boundary * e.budget / 100
}

// Value returns the attention record of k.
func (e *Economy) Value(k atomspace.Key) (Value, bool) {
	v, ok := e.records[k]
	if !ok {
		return Value{}, false
	}
	return *v, true
}

// Len returns the number of atoms holding an attention record.
func (e *Economy) Len() int { return len(e.records) }

// InFocus reports whether k is in the focus set.
func (e *Economy) InFocus(k atomspace.Key) bool {
	_, ok := e.focus[k]
	return ok
}

// Focus returns the focus set in store order.
func (e *Economy) Focus() []atomspace.Key {
	var out []atomspace.Key
	for _, k := range e.keys() {
		if _, ok := e.focus[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Initialize spreads the budget uniformly over every atom currently in the
// store and empties the bank. Previous records are discarded.
func (e *Economy) Initialize() {
	atoms := e.space.All()
	if len(atoms) == 0 {
		return
	}
	share := e.budget / float64(len(atoms))
	e.records = make(map[atomspace.Key]*Value, len(atoms))
	e.focus = make(map[atomspace.Key]struct{})
	for _, a := range atoms {
		e.records[a.Key()] = &Value{STI: share}
	}
	e.bank = 0
	e.logger.Debug("attention initialized",
		zap.Int("atoms", len(atoms)), zap.Float64("share", share))
}

// Stimulate moves min(amount, bank) from the bank to a's STI, creating
// its record first if needed, and caches the new total on the atom.
// Negative and NaN amounts move nothing. It returns the amount transferred.
func (e *Economy) Stimulate(a *atomspace.Atom, amount float64) float64 {
	if a == nil {
		return 0
	}
	if !(amount > 0) {
		amount = 0
	}
	rec := e.record(a.Key())
	moved := math.Min(amount, e.bank)
	rec.STI += moved
	e.bank -= moved
	a.Attention = rec.Total()
	return moved
}

// Diffuse moves sti*rate out of every atom with positive STI and splits it
// evenly across the atom's neighbors. Amounts are fixed from a snapshot
// taken before any neighbor is credited. Shares that have nowhere to go
// (isolated atoms, neighbors without a record) are dropped rather than
// banked; the dropped total is returned.
func (e *Economy) Diffuse(rate float64) float64 {
	type outflow struct {
		key    atomspace.Key
		amount float64
	}
	var flows []outflow
	for _, k := range e.keys() {
		if sti := e.records[k].STI; sti > 0 {
			flows = append(flows, outflow{key: k, amount: sti * rate})
		}
	}

	dropped := 0.0
	for _, f := range flows {
		e.records[f.key].STI -= f.amount

		var neighbors []*atomspace.Atom
		if a, ok := e.space.Lookup(f.key); ok {
			neighbors = e.space.Neighbors(a)
		}
		if len(neighbors) == 0 {
			dropped += f.amount
			continue
		}
		share := f.amount / float64(len(neighbors))
		for _, n := range neighbors {
			if rec, ok := e.records[n.Key()]; ok {
				rec.STI += share
			} else {
				dropped += share
			}
		}
	}
	if dropped > 0 {
		e.logger.Debug("diffusion dropped attention", zap.Float64("amount", dropped))
	}
	return dropped
}

// UpdateLTI grows k's LTI by rate*sti while its STI is above the focus
// threshold, and decays it slowly otherwise.
func (e *Economy) UpdateLTI(k atomspace.Key, rate float64) {
	rec, ok := e.records[k]
	if !ok {
		return
	}
	if rec.STI > e.FocusThreshold() {
		rec.LTI += rate * rec.STI
	} else {
		rec.LTI *= 1 - ltiDecayFactor*rate
	}
}

// Normalize rescales every STI so their sum is exactly the budget and
// empties the bank. It does nothing while the total is zero.
func (e *Economy) Normalize() {
	total := e.totalSTI()
	if total == 0 {
		return
	}
	scale := e.budget / total
	for _, rec := range e.records {
		rec.STI *= scale
	}
	e.bank = 0
}

// UpdateFocus recomputes the focus set and refreshes the cached attention
// of every focused atom.
func (e *Economy) UpdateFocus() {
	e.focus = make(map[atomspace.Key]struct{})
	threshold := e.FocusThreshold()
	for _, a := range e.space.All() {
		rec, ok := e.records[a.Key()]
		if !ok || rec.STI < threshold {
			continue
		}
		e.focus[a.Key()] = struct{}{}
		a.Attention = rec.Total()
	}
}

// TopAtoms returns up to n atoms ordered by total attention, highest first.
// Ties keep store order. When types are given only atoms of those types
// are considered.
func (e *Economy) TopAtoms(n int, types ...atomspace.Type) []*atomspace.Atom {
	if n <= 0 {
		return nil
	}
	filter := make(map[atomspace.Type]bool, len(types))
	for _, t := range types {
		filter[t] = true
	}

	var atoms []*atomspace.Atom
	for _, a := range e.space.All() {
		if len(filter) > 0 && !filter[a.Type()] {
			continue
		}
		atoms = append(atoms, a)
	}
	sort.SliceStable(atoms, func(i, j int) bool {
		return e.total(atoms[i].Key()) > e.total(atoms[j].Key())
	})
	if len(atoms) > n {
		atoms = atoms[:n]
	}
	return atoms
}

// FocusOnGoal stimulates goal with intensity and each of its neighbors
// with half of it, then diffuses once and refreshes the focus set.
func (e *Economy) FocusOnGoal(goal *atomspace.Atom, intensity float64) {
	if goal == nil {
		return
	}
	e.Stimulate(goal, intensity)
	for _, n := range e.space.Neighbors(goal) {
		e.Stimulate(n, intensity*NeighborStimulusFactor)
	}
	e.Diffuse(GoalDiffusionRate)
	e.UpdateFocus()
}

// Forget drops the record of every atom whose STI and LTI are both below
// threshold, returning its STI to the bank first. Atoms stay in the store.
// It returns the number of records removed.
func (e *Economy) Forget(threshold float64) int {
	removed := 0
	for _, k := range e.keys() {
		rec := e.records[k]
		if rec.STI < threshold && rec.LTI < threshold {
			e.bank += rec.STI
			delete(e.records, k)
			delete(e.focus, k)
			removed++
		}
	}
	if removed > 0 {
		e.logger.Debug("attention forgotten", zap.Int("removed", removed))
	}
	return removed
}

// Importance is a's total attention, boosted by 10% for every context atom
// among its neighbors.
func (e *Economy) Importance(a *atomspace.Atom, context []*atomspace.Atom) float64 {
	if a == nil {
		return 0
	}
	importance := e.total(a.Key())
	if len(context) == 0 {
		return importance
	}
	inContext := make(map[atomspace.Key]bool, len(context))
	for _, c := range context {
		if c != nil {
			inContext[c.Key()] = true
		}
	}
	connections := 0
	for _, n := range e.space.Neighbors(a) {
		if inContext[n.Key()] {
			connections++
		}
	}
	return importance * (1 + 0.1*float64(connections))
}

// SpreadActivation propagates relevance outward from sources for the given
// number of steps. Sources start at 1.0; at step s every atom of the current
// layer adds decay^s to each neighbor, and the neighbors touched form the
// next layer. Each layer is a set, so work per step is bounded by the store
// size even on cyclic graphs. The accumulated activation a of every stored
// atom is then applied as Stimulate(atom, a*10), in the order atoms were
// first reached. The activation map is returned.
func (e *Economy) SpreadActivation(sources []*atomspace.Atom, steps int, decay float64) map[atomspace.Key]float64 {
	activation := make(map[atomspace.Key]float64)
	var reached []*atomspace.Atom
	touch := func(a *atomspace.Atom) {
		if _, ok := activation[a.Key()]; !ok {
			activation[a.Key()] = 0
			reached = append(reached, a)
		}
	}

	var layer []*atomspace.Atom
	for _, src := range sources {
		if src == nil {
			continue
		}
		if _, ok := activation[src.Key()]; !ok {
			layer = append(layer, src)
		}
		touch(src)
		activation[src.Key()] = 1.0
	}

	for s := 0; s < steps; s++ {
		amount := math.Pow(decay, float64(s))
		seen := make(map[atomspace.Key]bool)
		var next []*atomspace.Atom
		for _, a := range layer {
			for _, n := range e.space.Neighbors(a) {
				touch(n)
				activation[n.Key()] += amount
				if !seen[n.Key()] {
					seen[n.Key()] = true
					next = append(next, n)
				}
			}
		}
		layer = next
	}

	for _, a := range reached {
		stored, ok := e.space.Lookup(a.Key())
		if !ok {
			continue
		}
		e.Stimulate(stored, activation[a.Key()]*ActivationStimulusScale)
	}
	return activation
}

// RentCollection drains rate*sti from every atom into the bank.
func (e *Economy) RentCollection(rate float64) {
	for _, k := range e.keys() {
		rec := e.records[k]
		rent := rec.STI * rate
		rec.STI -= rent
		e.bank += rent
	}
}

// RunCycle runs the full allocation loop iterations times: diffuse, collect
// rent, update LTI of the focused atoms, refresh focus, normalize.
func (e *Economy) RunCycle(iterations int) {
	for i := 0; i < iterations; i++ {
		e.Diffuse(CycleDiffusionRate)
		e.RentCollection(CycleRentRate)
		for _, k := range e.Focus() {
			e.UpdateLTI(k, DefaultLearningRate)
		}
		e.UpdateFocus()
		e.Normalize()
	}
}

// Statistics summarizes the current records. Sums run in store order so
// repeated calls on the same state agree bit for bit.
func (e *Economy) Statistics() Stats {
	st := Stats{BankSTI: e.bank, FocusSize: len(e.focus)}
	if len(e.records) == 0 {
		return st
	}
	totalLTI := 0.0
	first := true
	for _, k := range e.keys() {
		rec := e.records[k]
		st.TotalSTI += rec.STI
		totalLTI += rec.LTI
		if first || rec.STI > st.MaxSTI {
			st.MaxSTI = rec.STI
			first = false
		}
	}
	n := float64(len(e.records))
	st.MeanSTI = st.TotalSTI / n
	st.MeanLTI = totalLTI / n
	return st
}

func (e *Economy) record(k atomspace.Key) *Value {
	rec, ok := e.records[k]
	if !ok {
		rec = &Value{}
		e.records[k] = rec
	}
	return rec
}

func (e *Economy) total(k atomspace.Key) float64 {
	if rec, ok := e.records[k]; ok {
		return rec.Total()
	}
	return 0
}

func (e *Economy) totalSTI() float64 {
	total := 0.0
	for _, k := range e.keys() {
		total += e.records[k].STI
	}
	return total
}

// keys returns the record keys in store order, followed by records of
// atoms that were stimulated without being interned, sorted.
func (e *Economy) keys() []atomspace.Key {
	keys := make([]atomspace.Key, 0, len(e.records))
	seen := make(map[atomspace.Key]bool, len(e.records))
	for _, a := range e.space.All() {
		if _, ok := e.records[a.Key()]; ok {
			keys = append(keys, a.Key())
			seen[a.Key()] = true
		}
	}
	var rest []atomspace.Key
	for k := range e.records {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i].String() < rest[j].String() })
	return append(keys, rest...)
}
