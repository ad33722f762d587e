package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandler struct {
	kinds map[Kind]bool
	err   error
	calls []string
}

func newFake(kinds ...Kind) *fakeHandler {
	f := &fakeHandler{kinds: map[Kind]bool{}}
	for _, k := range kinds {
		f.kinds[k] = true
	}
	return f
}

func (f *fakeHandler) CanHandle(k Kind) bool { return f.kinds[k] }

func (f *fakeHandler) Execute(_ context.Context, t *Task) (Result, error) {
	f.calls = append(f.calls, t.ID)
	if f.err != nil {
		return nil, f.err
	}
	return Result{"ok": true}, nil
}

func TestCreateTaskDefaults(t *testing.T) {
	c := NewCoordinator()
	task := c.CreateTask(TaskSpec{Kind: Simulate})

	_, err := uuid.Parse(task.ID)
	assert.NoError(t, err)
	assert.Equal(t, DefaultPriority, task.Priority)
	assert.Equal(t, Pending, task.Status)
	assert.NotNil(t, task.Params)

	got, ok := c.Task(task.ID)
	require.True(t, ok)
	assert.Same(t, task, got)
}

func TestSubmitAndNext(t *testing.T) {
	c := NewCoordinator()
	c.Register("sim", newFake(Simulate))
	c.Register("ver", newFake(Verify))

	low := c.CreateTask(TaskSpec{ID: "low", Kind: Simulate, Priority: 0.2})
	high := c.CreateTask(TaskSpec{ID: "high", Kind: Simulate, Priority: 0.9})
	mid := c.CreateTask(TaskSpec{ID: "mid", Kind: Simulate, Priority: 0.2})
	for _, task := range []*Task{low, high, mid} {
		require.NoError(t, c.Submit(task))
	}

	var order []string
	for {
		task, ok := c.Next("sim")
		if !ok {
			break
		}
		order = append(order, task.ID)
	}
	assert.Equal(t, []string{"high", "low", "mid"}, order)

	_, ok := c.Next("ver")
	assert.False(t, ok)

	err := c.Submit(c.CreateTask(TaskSpec{Kind: Analyze}))
	assert.ErrorIs(t, err, ErrNoHandler)
}

func TestExecuteRespectsDependencies(t *testing.T) {
	c := NewCoordinator()
	sim := newFake(Simulate)
	ver := newFake(Verify)
	ver.err = errors.New("solver crashed")
	ana := newFake(Analyze)
	c.Register("sim", sim)
	c.Register("ver", ver)
	c.Register("ana", ana)

	s := c.CreateTask(TaskSpec{ID: "s", Kind: Simulate})
	v := c.CreateTask(TaskSpec{ID: "v", Kind: Verify, Dependencies: []string{"s"}})
	a := c.CreateTask(TaskSpec{ID: "a", Kind: Analyze, Dependencies: []string{"v"}})
	c.CreateWorkflow("wf", []*Task{s, v, a})

	rep, err := c.Execute(context.Background(), "wf")
	require.NoError(t, err)

	assert.Equal(t, "wf", rep.WorkflowID)
	assert.Equal(t, 3, rep.Total)
	assert.Equal(t, 1, rep.Completed)
	require.Len(t, rep.Tasks, 2)
	assert.Equal(t, Completed, rep.Tasks[0].Status)
	assert.Equal(t, Failed, rep.Tasks[1].Status)
	assert.Equal(t, "solver crashed", rep.Tasks[1].Error)

	assert.Equal(t, Pending, a.Status, "skipped task stays pending")
	assert.Empty(t, ana.calls)
	st, ok := c.Status("v")
	require.True(t, ok)
	assert.Equal(t, Failed, st)
}

func TestExecuteUnknownWorkflow(t *testing.T) {
	c := NewCoordinator()
	_, err := c.Execute(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestExecuteCancelled(t *testing.T) {
	var finished []Status
	c := NewCoordinator(WithFinishHook(func(t *Task) { finished = append(finished, t.Status) }))
	c.Register("sim", newFake(Simulate))
	s := c.CreateTask(TaskSpec{ID: "s", Kind: Simulate})
	c.CreateWorkflow("wf", []*Task{s})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep, err := c.Execute(ctx, "wf")
	require.NoError(t, err)
	assert.Zero(t, rep.Completed)
	assert.Equal(t, Cancelled, s.Status)
	assert.Equal(t, []Status{Cancelled}, finished)
}

func TestFinishHookSeesEveryExecutedTask(t *testing.T) {
	var finished []string
	c := NewCoordinator(WithFinishHook(func(t *Task) { finished = append(finished, t.ID+":"+string(t.Status)) }))
	c.Register("any", newFake(Simulate, Verify))
	s := c.CreateTask(TaskSpec{ID: "s", Kind: Simulate})
	v := c.CreateTask(TaskSpec{ID: "v", Kind: Verify, Dependencies: []string{"s"}})
	c.CreateWorkflow("wf", []*Task{s, v})

	_, err := c.Execute(context.Background(), "wf")
	require.NoError(t, err)
	assert.Equal(t, []string{"s:completed", "v:completed"}, finished)
}

func TestAllocatePriority(t *testing.T) {
	c := NewCoordinator()
	c.Register("any", newFake(Simulate, Verify))
	done := c.CreateTask(TaskSpec{ID: "done", Kind: Simulate})
	done.Status = Completed
	c.CreateTask(TaskSpec{ID: "open", Kind: Simulate})

	ver := c.CreateTask(TaskSpec{ID: "ver", Kind: Verify, Priority: 0.9, Dependencies: []string{"done", "open", "ghost"}})
	sim := c.CreateTask(TaskSpec{ID: "sim", Kind: Simulate, Priority: 0.4, Dependencies: []string{"done"}})
	require.NoError(t, c.Submit(ver))
	require.NoError(t, c.Submit(sim))

	assert.Equal(t, 2, c.AllocatePriority())
	assert.InDelta(t, 1.2, ver.Priority, 1e-9)
	assert.InDelta(t, 0.5, sim.Priority, 1e-9)
}

func TestStats(t *testing.T) {
	c := NewCoordinator()
	c.Register("sim", newFake(Simulate))
	c.Register("ver", newFake(Verify))
	s := c.CreateTask(TaskSpec{ID: "s", Kind: Simulate})
	require.NoError(t, c.Submit(s))
	c.CreateWorkflow("wf", []*Task{s})

	assert.Equal(t, Stats{
		Handlers:  2,
		Tasks:     1,
		Workflows: 1,
		Queues:    []QueueStats{{Name: "sim", QueueSize: 1}, {Name: "ver", QueueSize: 0}},
	}, c.Stats())
}

func TestTaskParams(t *testing.T) {
	task := &Task{Params: map[string]any{
		"model_file": "m.pdrh",
		"num_paths":  float64(100),
		"depth":      365,
		"precision":  0.01,
		"fraction":   2.5,
	}}

	assert.Equal(t, "m.pdrh", task.String("model_file", ""))
	assert.Equal(t, "x", task.String("missing", "x"))
	assert.Equal(t, 100, task.Int("num_paths", 1))
	assert.Equal(t, 365, task.Int("depth", 1))
	assert.Equal(t, 7, task.Int("fraction", 7))
	assert.Equal(t, 0.01, task.Float("precision", 0))
	assert.Equal(t, 365.0, task.Float("depth", 0))
}

func TestExecuteDequeuesSubmittedTasks(t *testing.T) {
	c := NewCoordinator()
	c.Register("sim", newFake(Simulate))
	s := c.CreateTask(TaskSpec{ID: "s", Kind: Simulate})
	other := c.CreateTask(TaskSpec{ID: "other", Kind: Simulate})
	require.NoError(t, c.Submit(s))
	require.NoError(t, c.Submit(other))
	c.CreateWorkflow("wf", []*Task{s})

	_, err := c.Execute(context.Background(), "wf")
	require.NoError(t, err)

	next, ok := c.Next("sim")
	require.True(t, ok)
	assert.Same(t, other, next)
	_, ok = c.Next("sim")
	assert.False(t, ok)
}
