// Package mcptools exposes the workbench engine as MCP tools.
//
// Each tool is a struct holding the Backend it calls, with Definition()
// returning the mcp.Tool schema and Handle() serving the call.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lazypower/workbench/internal/atomspace"
	"github.com/lazypower/workbench/internal/attention"
	"github.com/lazypower/workbench/internal/engine"
	"github.com/lazypower/workbench/internal/snapshot"
	"github.com/lazypower/workbench/internal/workflow"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Backend is the engine surface the tools use.
type Backend interface {
	Stats() attention.Stats
	TopAtoms(n int, types ...atomspace.Type) []snapshot.Record
	Query(p atomspace.Pattern) []snapshot.Record
	Stimulate(t atomspace.Type, name string, amount float64) (float64, error)
	RunCycle(iterations int) attention.Stats
	ReasonAboutGoal(name string) (*engine.GoalReasoning, error)
	CreateAnalysisWorkflow(model, name, goal string) (string, error)
	ExecuteWorkflow(ctx context.Context, id string) (*workflow.Report, error)
}

// Register adds every tool to s.
func Register(s *server.MCPServer, b Backend) {
	for _, t := range []interface {
		Definition() mcp.Tool
		Handle(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
	}{
		NewQueryAtomsTool(b),
		NewTopAtomsTool(b),
		NewStimulateTool(b),
		NewAttentionStatsTool(b),
		NewRunCycleTool(b),
		NewReasonGoalTool(b),
		NewAnalyzeModelTool(b),
	} {
		s.AddTool(t.Definition(), t.Handle)
	}
}

// intArg extracts an integer argument; JSON numbers arrive as float64.
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// typesArg splits a comma-separated list of atom types.
func typesArg(req mcp.CallToolRequest, key string) []atomspace.Type {
	var out []atomspace.Type
	for _, t := range strings.Split(req.GetString(key, ""), ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, atomspace.Type(t))
		}
	}
	return out
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
