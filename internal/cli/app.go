package cli

import (
	"fmt"

	"github.com/lazypower/workbench/internal/agent"
	"github.com/lazypower/workbench/internal/atomspace"
	"github.com/lazypower/workbench/internal/attention"
	"github.com/lazypower/workbench/internal/config"
	"github.com/lazypower/workbench/internal/engine"
	"github.com/lazypower/workbench/internal/logging"
	"github.com/lazypower/workbench/internal/metrics"
	"github.com/lazypower/workbench/internal/model"
	"github.com/lazypower/workbench/internal/reasoner"
	"github.com/lazypower/workbench/internal/workflow"
	"go.uber.org/zap"
)

// app is the composition root shared by every command.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	metrics *metrics.Collector
	engine  *engine.Engine
}

// newApp loads configuration, builds every component and loads the
// configured model (the built-in psoriasis model when none is set).
func newApp(path string) (*app, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	spec := model.Psoriasis()
	if cfg.Model.Path != "" {
		spec, err = model.LoadFile(cfg.Model.Path)
		if err != nil {
			return nil, fmt.Errorf("load model: %w", err)
		}
	}

	m := metrics.New()
	space := atomspace.New()
	coord := workflow.NewCoordinator(
		workflow.WithLogger(logger.Named("workflow")),
		workflow.WithFinishHook(func(t *workflow.Task) { m.TaskFinished(string(t.Status)) }),
	)
	coord.Register("simulator", &agent.Simulator{Logger: logger.Named("simulator")})
	coord.Register("verifier", &agent.Verifier{Logger: logger.Named("verifier")})
	coord.Register("analyzer", &agent.Analyzer{Logger: logger.Named("analyzer")})

	econ := attention.New(space, attention.Config{
		TotalSTI:      cfg.Attention.TotalSTI,
		FocusBoundary: cfg.Attention.FocusBoundary,
	}, attention.WithLogger(logger.Named("attention")))

	eng := engine.New(engine.Deps{
		Space:           space,
		Attention:       econ,
		Reasoner:        reasoner.New(space, reasoner.WithLogger(logger.Named("reasoner"))),
		Coordinator:     coord,
		Metrics:         m,
		Logger:          logger,
		CycleIterations: cfg.Attention.CycleIterations,
	})
	eng.LoadModel(spec)

	return &app{cfg: cfg, logger: logger, metrics: m, engine: eng}, nil
}

func (a *app) close() {
	a.engine.Stop()
	_ = a.logger.Sync()
}
