package cli

import (
	"github.com/lazypower/workbench/internal/mcptools"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the workbench tools over MCP stdio",
	RunE:  runMCP,
}

func runMCP(cmd *cobra.Command, args []string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	a.engine.StartCycleTimer(a.cfg.Attention.CycleInterval)

	s := server.NewMCPServer(
		"workbench",
		Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(mcpInstructions),
	)
	mcptools.Register(s, a.engine)

	// Logs go to stderr; stdout belongs to the transport.
	a.logger.Info("workbench mcp serving on stdio")
	return server.ServeStdio(s)
}

const mcpInstructions = `Workbench holds a hybrid-system model as a knowledge graph.
Use wb_query_atoms and wb_top_atoms to inspect it, wb_stimulate and wb_run_cycle
to steer attention, wb_reason_goal to estimate goal reachability, and
wb_analyze_model to run the simulate/verify/analyze workflow.`
