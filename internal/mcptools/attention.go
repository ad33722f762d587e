package mcptools

import (
	"context"
	"fmt"

	"github.com/lazypower/workbench/internal/atomspace"
	"github.com/mark3labs/mcp-go/mcp"
)

const maxCycleIterations = 1000

// StimulateTool handles wb_stimulate.
type StimulateTool struct {
	backend Backend
}

func NewStimulateTool(b Backend) *StimulateTool {
	return &StimulateTool{backend: b}
}

func (t *StimulateTool) Definition() mcp.Tool {
	return mcp.NewTool("wb_stimulate",
		mcp.WithDescription(
			"Give short-term importance to one atom. The amount is drawn from the "+
				"attention bank and capped by what the bank holds.",
		),
		mcp.WithString("type", mcp.Required(), mcp.Description("Atom type")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Atom name")),
		mcp.WithNumber("amount", mcp.Required(), mcp.Description("STI to transfer")),
	)
}

func (t *StimulateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	typ := req.GetString("type", "")
	name := req.GetString("name", "")
	if typ == "" || name == "" {
		return mcp.NewToolResultError("'type' and 'name' are required"), nil
	}
	amount := req.GetFloat("amount", 0)

	moved, err := t.backend.Stimulate(atomspace.Type(typ), name, amount)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("stimulated %s:%s by %g (bank %g)",
		typ, name, moved, t.backend.Stats().BankSTI)), nil
}

// AttentionStatsTool handles wb_attention_stats.
type AttentionStatsTool struct {
	backend Backend
}

func NewAttentionStatsTool(b Backend) *AttentionStatsTool {
	return &AttentionStatsTool{backend: b}
}

func (t *AttentionStatsTool) Definition() mcp.Tool {
	return mcp.NewTool("wb_attention_stats",
		mcp.WithDescription("Summarize the attention economy: total and mean STI, bank, focus size."),
	)
}

func (t *AttentionStatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(t.backend.Stats())
}

// RunCycleTool handles wb_run_cycle.
type RunCycleTool struct {
	backend Backend
}

func NewRunCycleTool(b Backend) *RunCycleTool {
	return &RunCycleTool{backend: b}
}

func (t *RunCycleTool) Definition() mcp.Tool {
	return mcp.NewTool("wb_run_cycle",
		mcp.WithDescription("Run the attention allocation cycle: diffusion, rent, LTI update, focus, normalization."),
		mcp.WithNumber("iterations",
			mcp.Description("Cycle iterations (default: 1, max: 1000)"),
		),
	)
}

func (t *RunCycleTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n := intArg(req, "iterations", 1)
	if n <= 0 || n > maxCycleIterations {
		return mcp.NewToolResultError(fmt.Sprintf("'iterations' must be between 1 and %d", maxCycleIterations)), nil
	}
	return jsonResult(t.backend.RunCycle(n))
}
