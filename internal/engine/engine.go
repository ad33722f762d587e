package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lazypower/workbench/internal/agent"
	"github.com/lazypower/workbench/internal/atomspace"
	"github.com/lazypower/workbench/internal/attention"
	"github.com/lazypower/workbench/internal/metrics"
	"github.com/lazypower/workbench/internal/model"
	"github.com/lazypower/workbench/internal/reasoner"
	"github.com/lazypower/workbench/internal/snapshot"
	"github.com/lazypower/workbench/internal/truth"
	"github.com/lazypower/workbench/internal/workflow"
	"go.uber.org/zap"
)

var (
	ErrGoalNotFound  = errors.New("goal not found")
	ErrModelNotFound = errors.New("model not found")
	ErrAtomNotFound  = errors.New("atom not found")
)

// Iteration counts of the composite operations.
const (
	workflowCycleIterations = 5
	optimizeCycleIterations = 10
	optimizeStimulus        = 50.0
	supportDepth            = 3
	topFocusSize            = 5
)

// Deps are the components an Engine drives. Space, Attention, Reasoner and
// Coordinator are required.
type Deps struct {
	Space       *atomspace.Space
	Attention   *attention.Economy
	Reasoner    *reasoner.Reasoner
	Coordinator *workflow.Coordinator
	Metrics     *metrics.Collector
	Logger      *zap.Logger

	// CycleIterations is how many iterations each timer tick runs.
	CycleIterations int
}

// Engine serializes every operation on the core behind one mutex. It is
// the single writer that the HTTP server, the MCP tools and the cycle
// timer all go through.
type Engine struct {
	mu         sync.Mutex
	space      *atomspace.Space
	att        *attention.Economy
	rsn        *reasoner.Reasoner
	coord      *workflow.Coordinator
	metrics    *metrics.Collector
	logger     *zap.Logger
	iterations int

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates an Engine. It panics if a required dependency is missing.
func New(d Deps) *Engine {
	if d.Space == nil || d.Attention == nil || d.Reasoner == nil || d.Coordinator == nil {
		panic("engine: Space, Attention, Reasoner and Coordinator are required")
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.CycleIterations <= 0 {
		d.CycleIterations = workflowCycleIterations
	}
	e := &Engine{
		space:      d.Space,
		att:        d.Attention,
		rsn:        d.Reasoner,
		coord:      d.Coordinator,
		metrics:    d.Metrics,
		logger:     d.Logger,
		iterations: d.CycleIterations,
		stopCh:     make(chan struct{}),
	}
	e.observe()
	return e
}

// LoadModel interns spec and re-initializes attention over every atom.
func (e *Engine) LoadModel(spec *model.Spec) snapshot.Record {
	e.mu.Lock()
	defer e.mu.Unlock()

	root := model.Load(e.space, spec)
	e.att.Initialize()
	e.observe()
	e.logger.Info("model loaded", zap.String("model", spec.Name), zap.Int("atoms", e.space.Len()))
	return snapshot.NewRecord(root)
}

// CreateAnalysisWorkflow builds the simulate, verify, analyze chain for a
// loaded model and queues its tasks. An empty goal picks the first goal in
// the store. It returns the workflow id, "<name>_<model>".
func (e *Engine) CreateAnalysisWorkflow(modelName, name, goal string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	root, ok := e.space.Model(modelName)
	if !ok {
		return "", fmt.Errorf("create workflow for %s: %w", modelName, ErrModelNotFound)
	}
	if name == "" {
		name = "default"
	}
	if goal == "" {
		if goals := e.space.ByType(atomspace.Goal); len(goals) > 0 {
			goal = goals[0].Name()
		}
	}
	file, _ := root.Meta(model.MetaModelFile)
	modelFile, _ := file.(string)
	if modelFile == "" {
		modelFile = fmt.Sprintf("model/%s/%s.pdrh", modelName, modelName)
	}

	id := name + "_" + modelName
	sim := e.coord.CreateTask(workflow.TaskSpec{
		ID:       id + "_simulate",
		Kind:     workflow.Simulate,
		Params:   map[string]any{"model_file": modelFile, "num_paths": 100, "depth": 365},
		Priority: 0.8,
	})
	verify := e.coord.CreateTask(workflow.TaskSpec{
		ID:           id + "_verify",
		Kind:         workflow.Verify,
		Params:       map[string]any{"model_file": modelFile, "goal": goal, "precision": 0.01},
		Priority:     0.9,
		Dependencies: []string{sim.ID},
	})
	analyze := e.coord.CreateTask(workflow.TaskSpec{
		ID:           id + "_analyze",
		Kind:         workflow.Analyze,
		Params:       map[string]any{"analysis_type": "sensitivity"},
		Priority:     0.7,
		Dependencies: []string{verify.ID},
	})
	tasks := []*workflow.Task{sim, verify, analyze}
	for _, t := range tasks {
		if err := e.coord.Submit(t); err != nil {
			e.logger.Warn("task not queued", zap.String("task", t.ID), zap.Error(err))
		}
	}
	e.coord.CreateWorkflow(id, tasks)
	return id, nil
}

// ExecuteWorkflow runs a workflow, records verification bounds on their
// goals and runs a short attention cycle.
func (e *Engine) ExecuteWorkflow(ctx context.Context, id string) (*workflow.Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.logger.Info("executing workflow", zap.String("workflow", id))
	report, err := e.coord.Execute(ctx, id)
	if err != nil {
		return nil, err
	}
	for _, t := range report.Tasks {
		if t.Status == workflow.Completed {
			e.applyResult(t.Result)
		}
	}
	e.runCycle(workflowCycleIterations)
	e.logger.Info("workflow done",
		zap.String("workflow", id),
		zap.Int("completed", report.Completed),
		zap.Int("total", report.Total))
	return report, nil
}

// applyResult turns bounds [lo, hi] into the goal truth ((lo+hi)/2, 1-(hi-lo)).
func (e *Engine) applyResult(res workflow.Result) {
	lo, hi, ok := bounds(res["probability_bounds"])
	if !ok {
		return
	}
	name, _ := res["goal"].(string)
	goal, found := e.space.Get(atomspace.Goal, name)
	if !found {
		return
	}
	goal.TV = truth.New((lo+hi)/2, 1-(hi-lo))
	e.logger.Debug("goal updated", zap.String("goal", name), zap.Stringer("tv", goal.TV))
}

func bounds(v any) (lo, hi float64, ok bool) {
	switch b := v.(type) {
	case agent.Bounds:
		return b.Lower, b.Upper, true
	case []float64:
		if len(b) == 2 {
			return b[0], b[1], true
		}
	case [2]float64:
		return b[0], b[1], true
	}
	return 0, 0, false
}

// EvidenceItem is one piece of evidence used for a goal.
type EvidenceItem struct {
	Name       string  `json:"name"`
	Strength   float64 `json:"strength"`
	Confidence float64 `json:"confidence"`
}

// Reachability is the estimated probability of reaching a goal.
type Reachability struct {
	Probability float64 `json:"probability"`
	Confidence  float64 `json:"confidence"`
}

// GoalReasoning is the answer of ReasonAboutGoal.
type GoalReasoning struct {
	Goal         string               `json:"goal"`
	Reachability Reachability         `json:"reachability"`
	Evidence     []EvidenceItem       `json:"evidence"`
	Support      []string             `json:"support"`
	Explanation  reasoner.Explanation `json:"explanation"`
}

// ReasonAboutGoal combines the propagated uncertainty of every parameter
// into a reachability estimate for the named goal.
func (e *Engine) ReasonAboutGoal(name string) (*GoalReasoning, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	goal, ok := e.space.Get(atomspace.Goal, name)
	if !ok {
		return nil, fmt.Errorf("reason about %s: %w", name, ErrGoalNotFound)
	}

	var evidence []reasoner.Evidence
	out := &GoalReasoning{Goal: name, Evidence: []EvidenceItem{}, Support: []string{}}
	for _, p := range e.space.ByType(atomspace.Parameter) {
		tv := e.rsn.PropagateUncertainty(p.Name(), reasoner.Multiply)
		evidence = append(evidence, reasoner.Evidence{Source: p.Name(), TV: tv})
		out.Evidence = append(out.Evidence, EvidenceItem{Name: p.Name(), Strength: tv.Strength, Confidence: tv.Confidence})
	}
	tv := e.rsn.ReasonAboutReachability(name, evidence)
	out.Reachability = Reachability{Probability: tv.Strength, Confidence: tv.Confidence}
	for _, a := range e.rsn.BackwardChain(goal, supportDepth) {
		out.Support = append(out.Support, a.Key().String())
	}
	out.Explanation = e.rsn.ExplainInference(goal)
	return out, nil
}

// OptimizeAttention stimulates every atom named in focus, runs a long
// attention cycle and re-prioritizes queued tasks.
func (e *Engine) OptimizeAttention(focus []string) attention.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, name := range focus {
		for _, a := range e.space.ByName(name) {
			e.att.Stimulate(a, optimizeStimulus)
		}
	}
	e.runCycle(optimizeCycleIterations)
	e.coord.AllocatePriority()
	st := e.att.Statistics()
	e.logger.Info("attention optimized",
		zap.Float64("total_sti", st.TotalSTI),
		zap.Int("focus", st.FocusSize))
	return st
}

// Stimulate moves up to amount STI from the bank to one atom and returns
// the amount moved.
func (e *Engine) Stimulate(t atomspace.Type, name string, amount float64) (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.space.Get(t, name)
	if !ok {
		return 0, fmt.Errorf("stimulate %s:%s: %w", t, name, ErrAtomNotFound)
	}
	moved := e.att.Stimulate(a, amount)
	e.observe()
	return moved, nil
}

// FocusOnGoal concentrates attention around a goal.
func (e *Engine) FocusOnGoal(name string, intensity float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	goal, ok := e.space.Get(atomspace.Goal, name)
	if !ok {
		return fmt.Errorf("focus on %s: %w", name, ErrGoalNotFound)
	}
	e.att.FocusOnGoal(goal, intensity)
	e.observe()
	return nil
}

// SpreadActivation propagates relevance from the named atoms.
func (e *Engine) SpreadActivation(sources []string, steps int, decay float64) map[string]float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	var atoms []*atomspace.Atom
	for _, name := range sources {
		atoms = append(atoms, e.space.ByName(name)...)
	}
	act := e.att.SpreadActivation(atoms, steps, decay)
	e.observe()
	out := make(map[string]float64, len(act))
	for k, v := range act {
		out[k.String()] = v
	}
	return out
}

// RunCycle runs the attention cycle and returns the resulting statistics.
func (e *Engine) RunCycle(iterations int) attention.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.runCycle(iterations)
	return e.att.Statistics()
}

// Forget drops weak attention records and returns how many were removed.
func (e *Engine) Forget(threshold float64) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.forget(threshold)
}

func (e *Engine) forget(threshold float64) int {
	n := e.att.Forget(threshold)
	if e.metrics != nil && n > 0 {
		e.metrics.Forgotten.Add(float64(n))
	}
	e.observe()
	return n
}

func (e *Engine) runCycle(iterations int) {
	if iterations <= 0 {
		return
	}
	start := time.Now()
	e.att.RunCycle(iterations)
	if e.metrics != nil {
		e.metrics.CycleRun(iterations, time.Since(start))
	}
	e.observe()
}

// TopAtoms returns the n most important atoms, optionally of given types.
func (e *Engine) TopAtoms(n int, types ...atomspace.Type) []snapshot.Record {
	e.mu.Lock()
	defer e.mu.Unlock()

	return records(e.att.TopAtoms(n, types...))
}

// Atom returns one atom and its attention record.
func (e *Engine) Atom(t atomspace.Type, name string) (AtomDetail, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.space.Get(t, name)
	if !ok {
		return AtomDetail{}, fmt.Errorf("%s:%s: %w", t, name, ErrAtomNotFound)
	}
	d := AtomDetail{
		Record:   snapshot.NewRecord(a),
		InFocus:  e.att.InFocus(a.Key()),
		Incoming: keys(e.space.Incoming(a)),
		Outgoing: keys(a.Outgoing()),
	}
	if v, ok := e.att.Value(a.Key()); ok {
		d.Importance = &v
	}
	return d, nil
}

// AtomDetail is an atom with its graph neighborhood and attention.
type AtomDetail struct {
	snapshot.Record
	Importance *attention.Value `json:"importance,omitempty"`
	InFocus    bool             `json:"in_focus"`
	Incoming   []string         `json:"incoming"`
	Outgoing   []string         `json:"outgoing"`
}

// Query returns the atoms matching p.
func (e *Engine) Query(p atomspace.Pattern) []snapshot.Record {
	e.mu.Lock()
	defer e.mu.Unlock()

	return records(e.space.Query(p))
}

// Stats returns the attention statistics.
func (e *Engine) Stats() attention.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.att.Statistics()
}

// Status is the overall workbench status.
type Status struct {
	Atoms     int             `json:"num_atoms"`
	Models    []string        `json:"models"`
	Agents    workflow.Stats  `json:"agents"`
	Attention attention.Stats `json:"attention"`
	TopFocus  []string        `json:"top_focus"`
}

// Status summarizes store, coordinator and attention state.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := Status{
		Atoms:     e.space.Len(),
		Models:    e.space.Models(),
		Agents:    e.coord.Stats(),
		Attention: e.att.Statistics(),
		TopFocus:  []string{},
	}
	for _, k := range e.att.Focus() {
		if len(st.TopFocus) == topFocusSize {
			break
		}
		st.TopFocus = append(st.TopFocus, k.Name)
	}
	return st
}

// Snapshot exports the full session state.
func (e *Engine) Snapshot() snapshot.Document {
	e.mu.Lock()
	defer e.mu.Unlock()

	return snapshot.Document{
		Atomspace:   snapshot.Build(e.space),
		Attention:   e.att.Statistics(),
		Coordinator: e.coord.Stats(),
	}
}

// StartCycleTimer runs the attention cycle, followed by forgetting, every
// interval until Stop. A non-positive interval does nothing.
func (e *Engine) StartCycleTimer(interval time.Duration) {
	if interval <= 0 {
		return
	}
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				e.tick()
			case <-e.stopCh:
				return
			}
		}
	}()
}

func (e *Engine) tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.runCycle(e.iterations)
	if n := e.forget(attention.DefaultForgetThreshold); n > 0 {
		e.logger.Info("attention forgotten", zap.Int("removed", n))
	}
}

// Stop shuts down the engine's background goroutines and waits for them.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stopCh) })
	e.wg.Wait()
}

func (e *Engine) observe() {
	if e.metrics == nil {
		return
	}
	st := e.att.Statistics()
	e.metrics.Observe(metrics.Gauges{
		Atoms:     e.space.Len(),
		Bank:      st.BankSTI,
		STITotal:  st.TotalSTI,
		FocusSize: st.FocusSize,
	})
}

func records(atoms []*atomspace.Atom) []snapshot.Record {
	out := make([]snapshot.Record, 0, len(atoms))
	for _, a := range atoms {
		out = append(out, snapshot.NewRecord(a))
	}
	return out
}

func keys(atoms []*atomspace.Atom) []string {
	out := make([]string, 0, len(atoms))
	for _, a := range atoms {
		out = append(out, a.Key().String())
	}
	return out
}
