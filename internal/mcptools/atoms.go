package mcptools

import (
	"context"
	"fmt"

	"github.com/lazypower/workbench/internal/atomspace"
	"github.com/mark3labs/mcp-go/mcp"
)

const defaultTopN = 10

// QueryAtomsTool handles wb_query_atoms.
type QueryAtomsTool struct {
	backend Backend
}

func NewQueryAtomsTool(b Backend) *QueryAtomsTool {
	return &QueryAtomsTool{backend: b}
}

func (t *QueryAtomsTool) Definition() mcp.Tool {
	return mcp.NewTool("wb_query_atoms",
		mcp.WithDescription(
			"Find atoms in the knowledge graph by type and/or name. "+
				"With no arguments every atom is returned.",
		),
		mcp.WithString("type",
			mcp.Description("Atom type, e.g. ParameterNode, GoalNode, ModeNode"),
		),
		mcp.WithString("name",
			mcp.Description("Exact atom name"),
		),
	)
}

func (t *QueryAtomsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := atomspace.Pattern{}
	if typ := req.GetString("type", ""); typ != "" {
		p[atomspace.PatternType] = typ
	}
	if name := req.GetString("name", ""); name != "" {
		p[atomspace.PatternName] = name
	}
	return jsonResult(t.backend.Query(p))
}

// TopAtomsTool handles wb_top_atoms.
type TopAtomsTool struct {
	backend Backend
}

func NewTopAtomsTool(b Backend) *TopAtomsTool {
	return &TopAtomsTool{backend: b}
}

func (t *TopAtomsTool) Definition() mcp.Tool {
	return mcp.NewTool("wb_top_atoms",
		mcp.WithDescription("List the atoms with the highest attention, most important first."),
		mcp.WithNumber("n",
			mcp.Description("How many atoms to return (default: 10)"),
		),
		mcp.WithString("types",
			mcp.Description("Comma-separated atom types to restrict to"),
		),
	)
}

func (t *TopAtomsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	n := intArg(req, "n", defaultTopN)
	if n <= 0 {
		return mcp.NewToolResultError(fmt.Sprintf("'n' must be positive, got %d", n)), nil
	}
	return jsonResult(t.backend.TopAtoms(n, typesArg(req, "types")...))
}
