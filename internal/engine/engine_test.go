package engine

import (
	"context"
	"testing"
	"time"

	"github.com/lazypower/workbench/internal/agent"
	"github.com/lazypower/workbench/internal/atomspace"
	"github.com/lazypower/workbench/internal/attention"
	"github.com/lazypower/workbench/internal/metrics"
	"github.com/lazypower/workbench/internal/model"
	"github.com/lazypower/workbench/internal/reasoner"
	"github.com/lazypower/workbench/internal/workflow"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixture struct {
	e     *Engine
	space *atomspace.Space
	coord *workflow.Coordinator
	m     *metrics.Collector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	space := atomspace.New()
	m := metrics.New()
	coord := workflow.NewCoordinator(workflow.WithFinishHook(func(t *workflow.Task) {
		m.TaskFinished(string(t.Status))
	}))
	coord.Register("simulator", &agent.Simulator{})
	coord.Register("verifier", &agent.Verifier{})
	coord.Register("analyzer", &agent.Analyzer{})

	e := New(Deps{
		Space:       space,
		Attention:   attention.New(space, attention.DefaultConfig()),
		Reasoner:    reasoner.New(space),
		Coordinator: coord,
		Metrics:     m,
	})
	t.Cleanup(e.Stop)
	return &fixture{e: e, space: space, coord: coord, m: m}
}

func loaded(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.e.LoadModel(model.Psoriasis())
	return f
}

func TestNewRequiresCore(t *testing.T) {
	assert.Panics(t, func() { New(Deps{}) })
}

func TestLoadModel(t *testing.T) {
	f := newFixture(t)
	root := f.e.LoadModel(model.Psoriasis())

	assert.Equal(t, atomspace.Model, root.Type)
	assert.Equal(t, "psoriasis", root.Name)

	st := f.e.Stats()
	assert.InDelta(t, attention.DefaultTotalSTI, st.TotalSTI, 1e-9)
	assert.Zero(t, st.BankSTI)
	assert.Equal(t, 11.0, testutil.ToFloat64(f.m.Atoms))
}

func TestCreateAnalysisWorkflow(t *testing.T) {
	f := loaded(t)

	id, err := f.e.CreateAnalysisWorkflow("psoriasis", "analysis", "")
	require.NoError(t, err)
	assert.Equal(t, "analysis_psoriasis", id)

	tasks, ok := f.coord.Workflow(id)
	require.True(t, ok)
	require.Len(t, tasks, 3)
	assert.Equal(t, workflow.Simulate, tasks[0].Kind)
	assert.Equal(t, 0.8, tasks[0].Priority)
	assert.Equal(t, 365, tasks[0].Params["depth"])

	verify := tasks[1]
	assert.Equal(t, "remission_365", verify.Params["goal"])
	assert.Equal(t, "model/psoriasis/psoriasis.pdrh", verify.Params["model_file"])
	assert.Equal(t, []string{tasks[0].ID}, verify.Dependencies)
	assert.Equal(t, []string{verify.ID}, tasks[2].Dependencies)

	st := f.coord.Stats()
	for _, q := range st.Queues {
		assert.Equal(t, 1, q.QueueSize, q.Name)
	}
}

func TestCreateAnalysisWorkflowUnknownModel(t *testing.T) {
	f := loaded(t)
	_, err := f.e.CreateAnalysisWorkflow("ghost", "analysis", "")
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestExecuteWorkflowUpdatesGoal(t *testing.T) {
	f := loaded(t)
	id, err := f.e.CreateAnalysisWorkflow("psoriasis", "analysis", "remission_365")
	require.NoError(t, err)

	report, err := f.e.ExecuteWorkflow(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Completed)
	assert.Equal(t, 3, report.Total)

	goal, ok := f.space.Get(atomspace.Goal, "remission_365")
	require.True(t, ok)
	assert.InDelta(t, 0.8, goal.TV.Strength, 1e-9)
	assert.InDelta(t, 0.8, goal.TV.Confidence, 1e-9)

	assert.Equal(t, 3.0, testutil.ToFloat64(f.m.Tasks.WithLabelValues("completed")))
	assert.Equal(t, float64(workflowCycleIterations), testutil.ToFloat64(f.m.Cycles))

	for _, q := range f.coord.Stats().Queues {
		assert.Zero(t, q.QueueSize, q.Name)
	}
}

func TestExecuteWorkflowUnknown(t *testing.T) {
	f := loaded(t)
	_, err := f.e.ExecuteWorkflow(context.Background(), "missing")
	assert.ErrorIs(t, err, workflow.ErrWorkflowNotFound)
}

func TestApplyResultBounds(t *testing.T) {
	for name, b := range map[string]any{
		"struct": agent.Bounds{Lower: 0.2, Upper: 0.6},
		"slice":  []float64{0.2, 0.6},
		"array":  [2]float64{0.2, 0.6},
	} {
		t.Run(name, func(t *testing.T) {
			f := loaded(t)
			f.e.applyResult(workflow.Result{"goal": "remission_365", "probability_bounds": b})
			goal, _ := f.space.Get(atomspace.Goal, "remission_365")
			assert.InDelta(t, 0.4, goal.TV.Strength, 1e-9)
			assert.InDelta(t, 0.6, goal.TV.Confidence, 1e-9)
		})
	}

	f := loaded(t)
	f.e.applyResult(workflow.Result{"goal": "remission_365", "probability_bounds": []float64{0.1}})
	goal, _ := f.space.Get(atomspace.Goal, "remission_365")
	assert.Zero(t, goal.TV.Strength, "malformed bounds are ignored")
}

func TestReasonAboutGoal(t *testing.T) {
	f := loaded(t)

	r, err := f.e.ReasonAboutGoal("remission_365")
	require.NoError(t, err)
	assert.Equal(t, "remission_365", r.Goal)
	require.Len(t, r.Evidence, 5)
	assert.Equal(t, "gamma1", r.Evidence[0].Name)
	assert.InDelta(t, 0.81, r.Evidence[0].Confidence, 1e-9)
	assert.Greater(t, r.Reachability.Probability, 0.0)
	assert.LessOrEqual(t, r.Reachability.Probability, 1.0)
	assert.Empty(t, r.Support)
	assert.Equal(t, "remission_365", r.Explanation.Conclusion.Name)

	_, err = f.e.ReasonAboutGoal("ghost")
	assert.ErrorIs(t, err, ErrGoalNotFound)
}

func TestReasonAboutGoalWithoutParameters(t *testing.T) {
	f := newFixture(t)
	f.e.LoadModel(&model.Spec{Name: "bare", Goals: []model.Goal{{Name: "g", Probability: 0.3}}})

	r, err := f.e.ReasonAboutGoal("g")
	require.NoError(t, err)
	assert.Empty(t, r.Evidence)
	assert.Equal(t, 0.5, r.Reachability.Probability)
	assert.Zero(t, r.Reachability.Confidence)
}

func TestOptimizeAttention(t *testing.T) {
	f := loaded(t)
	id, err := f.e.CreateAnalysisWorkflow("psoriasis", "analysis", "")
	require.NoError(t, err)

	st := f.e.OptimizeAttention([]string{"gamma1", "remission_365", "nothing"})
	assert.Equal(t, st, f.e.Stats())
	assert.Equal(t, float64(optimizeCycleIterations), testutil.ToFloat64(f.m.Cycles))

	verify, ok := f.coord.Task(id + "_verify")
	require.True(t, ok)
	assert.InDelta(t, 1.1, verify.Priority, 1e-9)
}

func TestStimulate(t *testing.T) {
	f := newFixture(t)
	model.Load(f.space, model.Psoriasis())

	moved, err := f.e.Stimulate(atomspace.Parameter, "gamma1", 25)
	require.NoError(t, err)
	assert.Equal(t, 25.0, moved)
	assert.Equal(t, 975.0, testutil.ToFloat64(f.m.Bank))

	_, err = f.e.Stimulate(atomspace.Parameter, "ghost", 25)
	assert.ErrorIs(t, err, ErrAtomNotFound)
}

func TestFocusOnGoal(t *testing.T) {
	f := loaded(t)
	require.NoError(t, f.e.FocusOnGoal("remission_365", attention.DefaultGoalIntensity))
	assert.ErrorIs(t, f.e.FocusOnGoal("ghost", 1), ErrGoalNotFound)
}

func TestSpreadActivation(t *testing.T) {
	f := newFixture(t)
	model.Load(f.space, model.Psoriasis())

	act := f.e.SpreadActivation([]string{"psoriasis_mode_1"}, 2, 0.5)
	assert.Contains(t, act, "ModeNode:psoriasis_mode_1")
	assert.Contains(t, act, "InheritanceLink:mode_1_isa_psoriasis")
}

func TestForget(t *testing.T) {
	f := loaded(t)
	assert.Zero(t, f.e.Forget(0))
	assert.Equal(t, 11, f.e.Forget(1000))
	assert.Equal(t, 11.0, testutil.ToFloat64(f.m.Forgotten))
}

func TestAtomDetail(t *testing.T) {
	f := loaded(t)

	d, err := f.e.Atom(atomspace.Mode, "psoriasis_mode_1")
	require.NoError(t, err)
	assert.Equal(t, "treatment", d.Metadata[model.MetaModeName])
	assert.Equal(t, []string{"InheritanceLink:mode_1_isa_psoriasis"}, d.Incoming)
	assert.Empty(t, d.Outgoing)
	require.NotNil(t, d.Importance)
	assert.InDelta(t, attention.DefaultTotalSTI/11, d.Importance.STI, 1e-9)

	link, err := f.e.Atom(atomspace.Inheritance, "mode_1_isa_psoriasis")
	require.NoError(t, err)
	assert.Equal(t, []string{"ModeNode:psoriasis_mode_1", "ModelNode:psoriasis"}, link.Outgoing)

	_, err = f.e.Atom(atomspace.Goal, "ghost")
	assert.ErrorIs(t, err, ErrAtomNotFound)
}

func TestQueryAndTop(t *testing.T) {
	f := loaded(t)

	params := f.e.Query(atomspace.Pattern{atomspace.PatternType: atomspace.Parameter})
	assert.Len(t, params, 5)

	modes := f.e.Query(atomspace.Pattern{model.MetaModel: "psoriasis"})
	assert.Len(t, modes, 2)

	top := f.e.TopAtoms(3, atomspace.Parameter)
	require.Len(t, top, 3)
	for _, r := range top {
		assert.Equal(t, atomspace.Parameter, r.Type)
	}
}

func TestStatusAndSnapshot(t *testing.T) {
	f := loaded(t)

	st := f.e.Status()
	assert.Equal(t, 11, st.Atoms)
	assert.Equal(t, []string{"psoriasis"}, st.Models)
	assert.Equal(t, 3, st.Agents.Handlers)
	assert.LessOrEqual(t, len(st.TopFocus), topFocusSize)

	doc := f.e.Snapshot()
	assert.Len(t, doc.Atomspace.Atoms, 11)
	assert.Equal(t, 3, doc.Coordinator.Handlers)
}

func TestCycleTimer(t *testing.T) {
	f := loaded(t)
	f.e.StartCycleTimer(time.Millisecond)

	require.Eventually(t, func() bool {
		return testutil.ToFloat64(f.m.Cycles) > 0
	}, time.Second, time.Millisecond)

	f.e.Stop()
	f.e.Stop()
}

func TestCycleTimerDisabled(t *testing.T) {
	f := loaded(t)
	f.e.StartCycleTimer(0)
	f.e.Stop()
	assert.Zero(t, testutil.ToFloat64(f.m.Cycles))
}
