package workflow

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Priority boosts applied by AllocatePriority.
const (
	completedDependencyBoost = 0.1
	verificationBoost        = 0.2
)

type registration struct {
	name    string
	handler Handler
	queue   []*Task
}

// Coordinator owns tasks, workflows and the per-handler queues. It is not
// safe for concurrent use.
type Coordinator struct {
	handlers  []*registration
	tasks     map[string]*Task
	workflows map[string][]*Task
	onFinish  func(*Task)
	logger    *zap.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the coordinator logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFinishHook registers f to be called after every executed task.
func WithFinishHook(f func(*Task)) Option {
	return func(c *Coordinator) { c.onFinish = f }
}

// NewCoordinator creates a coordinator with no handlers.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		tasks:     make(map[string]*Task),
		workflows: make(map[string][]*Task),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Register adds a handler under name. Handlers are consulted in
// registration order.
func (c *Coordinator) Register(name string, h Handler) {
	c.handlers = append(c.handlers, &registration{name: name, handler: h})
	c.logger.Debug("handler registered", zap.String("handler", name))
}

// TaskSpec describes a task to create.
type TaskSpec struct {
	ID           string
	Kind         Kind
	Params       map[string]any
	Priority     float64
	Dependencies []string
}

// CreateTask records a new pending task. An empty ID gets a random one and
// a zero priority becomes DefaultPriority.
func (c *Coordinator) CreateTask(spec TaskSpec) *Task {
	if spec.ID == "" {
		spec.ID = uuid.NewString()
	}
	if spec.Priority == 0 {
		spec.Priority = DefaultPriority
	}
	if spec.Params == nil {
		spec.Params = map[string]any{}
	}
	t := &Task{
		ID:           spec.ID,
		Kind:         spec.Kind,
		Params:       spec.Params,
		Status:       Pending,
		Dependencies: append([]string{}, spec.Dependencies...),
		Priority:     spec.Priority,
	}
	c.tasks[t.ID] = t
	return t
}

// Submit queues t on the first handler that accepts its kind.
func (c *Coordinator) Submit(t *Task) error {
	reg := c.handlerFor(t.Kind)
	if reg == nil {
		c.logger.Warn("no handler for task", zap.String("task", t.ID), zap.String("kind", string(t.Kind)))
		return fmt.Errorf("submit %s: %w", t.ID, ErrNoHandler)
	}
	reg.queue = append(reg.queue, t)
	c.logger.Debug("task queued", zap.String("task", t.ID), zap.String("handler", reg.name))
	return nil
}

// Next pops the highest-priority task queued for the named handler.
// Equal priorities come out in submission order.
func (c *Coordinator) Next(handler string) (*Task, bool) {
	for _, reg := range c.handlers {
		if reg.name != handler || len(reg.queue) == 0 {
			continue
		}
		sort.SliceStable(reg.queue, func(i, j int) bool {
			return reg.queue[i].Priority > reg.queue[j].Priority
		})
		t := reg.queue[0]
		reg.queue = reg.queue[1:]
		return t, true
	}
	return nil, false
}

// CreateWorkflow names an ordered task list.
func (c *Coordinator) CreateWorkflow(id string, tasks []*Task) {
	c.workflows[id] = tasks
	c.logger.Debug("workflow created", zap.String("workflow", id), zap.Int("tasks", len(tasks)))
}

// Workflow returns the tasks of a workflow.
func (c *Coordinator) Workflow(id string) ([]*Task, bool) {
	tasks, ok := c.workflows[id]
	return tasks, ok
}

// Report is the outcome of one workflow execution.
type Report struct {
	WorkflowID string `json:"workflow_id"`
	Tasks      []Task `json:"tasks"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
}

// Execute runs a workflow's tasks in order, taking each out of its handler
// queue if it was submitted. A task whose dependencies have not completed in
// this run is skipped and stays pending. Handler errors mark the task
// failed. Once ctx is done the remaining tasks are cancelled.
func (c *Coordinator) Execute(ctx context.Context, id string) (*Report, error) {
	tasks, ok := c.workflows[id]
	if !ok {
		return nil, fmt.Errorf("execute %s: %w", id, ErrWorkflowNotFound)
	}

	report := &Report{WorkflowID: id, Total: len(tasks)}
	completed := make(map[string]bool)
	for _, t := range tasks {
		if ctx.Err() != nil {
			t.Status = Cancelled
			report.Tasks = append(report.Tasks, t.clone())
			c.finish(t)
			continue
		}
		if !dependenciesMet(t, completed) {
			c.logger.Warn("dependencies not met", zap.String("task", t.ID))
			continue
		}
		reg := c.handlerFor(t.Kind)
		if reg == nil {
			c.logger.Warn("no handler for task", zap.String("task", t.ID), zap.String("kind", string(t.Kind)))
			continue
		}

		c.run(ctx, reg, t)
		if t.Status == Completed {
			completed[t.ID] = true
			report.Completed++
		}
		report.Tasks = append(report.Tasks, t.clone())
	}
	return report, nil
}

func (c *Coordinator) run(ctx context.Context, reg *registration, t *Task) {
	reg.dequeue(t)
	t.Status = Running
	res, err := reg.handler.Execute(ctx, t)
	if err != nil {
		t.Status = Failed
		t.Error = err.Error()
		t.Result = nil
		c.logger.Warn("task failed", zap.String("task", t.ID), zap.String("handler", reg.name), zap.Error(err))
	} else {
		t.Status = Completed
		t.Error = ""
		t.Result = res
		c.logger.Debug("task completed", zap.String("task", t.ID), zap.String("handler", reg.name))
	}
	c.finish(t)
}

func (r *registration) dequeue(t *Task) {
	for i, q := range r.queue {
		if q == t {
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			return
		}
	}
}

func (c *Coordinator) finish(t *Task) {
	if c.onFinish != nil {
		c.onFinish(t)
	}
}

func dependenciesMet(t *Task, completed map[string]bool) bool {
	for _, dep := range t.Dependencies {
		if !completed[dep] {
			return false
		}
	}
	return true
}

// Task returns a task by id.
func (c *Coordinator) Task(id string) (*Task, bool) {
	t, ok := c.tasks[id]
	return t, ok
}

// Status returns the status of a task.
func (c *Coordinator) Status(id string) (Status, bool) {
	t, ok := c.tasks[id]
	if !ok {
		return "", false
	}
	return t.Status, true
}

// AllocatePriority raises the priority of every queued task by 0.1 per
// completed dependency, plus 0.2 for verification tasks. It returns the
// number of queued tasks visited.
func (c *Coordinator) AllocatePriority() int {
	n := 0
	for _, reg := range c.handlers {
		for _, t := range reg.queue {
			for _, dep := range t.Dependencies {
				if d, ok := c.tasks[dep]; ok && d.Status == Completed {
					t.Priority += completedDependencyBoost
				}
			}
			if t.Kind == Verify {
				t.Priority += verificationBoost
			}
			n++
		}
	}
	if n > 0 {
		c.logger.Debug("priorities allocated", zap.Int("tasks", n))
	}
	return n
}

// QueueStats describes one handler queue.
type QueueStats struct {
	Name      string `json:"id"`
	QueueSize int    `json:"queue_size"`
}

// Stats summarizes the coordinator.
type Stats struct {
	Handlers  int          `json:"num_agents"`
	Tasks     int          `json:"num_tasks"`
	Workflows int          `json:"num_workflows"`
	Queues    []QueueStats `json:"agents"`
}

// Stats reports handler, task and workflow counts.
func (c *Coordinator) Stats() Stats {
	st := Stats{
		Handlers:  len(c.handlers),
		Tasks:     len(c.tasks),
		Workflows: len(c.workflows),
		Queues:    make([]QueueStats, 0, len(c.handlers)),
	}
	for _, reg := range c.handlers {
		st.Queues = append(st.Queues, QueueStats{Name: reg.name, QueueSize: len(reg.queue)})
	}
	return st
}

func (c *Coordinator) handlerFor(kind Kind) *registration {
	for _, reg := range c.handlers {
		if reg.handler.CanHandle(kind) {
			return reg
		}
	}
	return nil
}
