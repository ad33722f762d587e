package mcptools

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/lazypower/workbench/internal/agent"
	"github.com/lazypower/workbench/internal/atomspace"
	"github.com/lazypower/workbench/internal/attention"
	"github.com/lazypower/workbench/internal/engine"
	"github.com/lazypower/workbench/internal/model"
	"github.com/lazypower/workbench/internal/reasoner"
	"github.com/lazypower/workbench/internal/snapshot"
	"github.com/lazypower/workbench/internal/workflow"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBackend(t *testing.T) *engine.Engine {
	t.Helper()
	space := atomspace.New()
	coord := workflow.NewCoordinator()
	coord.Register("simulator", &agent.Simulator{})
	coord.Register("verifier", &agent.Verifier{})
	coord.Register("analyzer", &agent.Analyzer{})
	e := engine.New(engine.Deps{
		Space:       space,
		Attention:   attention.New(space, attention.DefaultConfig()),
		Reasoner:    reasoner.New(space),
		Coordinator: coord,
	})
	t.Cleanup(e.Stop)
	e.LoadModel(model.Psoriasis())
	return e
}

func makeReq(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(r *mcp.CallToolResult) string {
	if r == nil {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestDefinitions(t *testing.T) {
	b := newBackend(t)
	tests := []struct {
		def      mcp.Tool
		name     string
		required []string
	}{
		{NewQueryAtomsTool(b).Definition(), "wb_query_atoms", nil},
		{NewTopAtomsTool(b).Definition(), "wb_top_atoms", nil},
		{NewStimulateTool(b).Definition(), "wb_stimulate", []string{"type", "name", "amount"}},
		{NewAttentionStatsTool(b).Definition(), "wb_attention_stats", nil},
		{NewRunCycleTool(b).Definition(), "wb_run_cycle", nil},
		{NewReasonGoalTool(b).Definition(), "wb_reason_goal", []string{"goal"}},
		{NewAnalyzeModelTool(b).Definition(), "wb_analyze_model", []string{"model"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.name, tt.def.Name)
		assert.ElementsMatch(t, tt.required, tt.def.InputSchema.Required, tt.name)
	}
}

func TestRegister(t *testing.T) {
	s := server.NewMCPServer("workbench-test", "dev", server.WithToolCapabilities(true))
	Register(s, newBackend(t))

	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var body struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(data, &body))
	var names []string
	for _, tool := range body.Result.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{
		"wb_query_atoms", "wb_top_atoms", "wb_stimulate", "wb_attention_stats",
		"wb_run_cycle", "wb_reason_goal", "wb_analyze_model",
	}, names)
}

func TestQueryAtoms(t *testing.T) {
	tool := NewQueryAtomsTool(newBackend(t))

	res, err := tool.Handle(context.Background(), makeReq(map[string]any{"type": "ParameterNode"}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var recs []snapshot.Record
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &recs))
	assert.Len(t, recs, 5)

	res, err = tool.Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &recs))
	assert.Len(t, recs, 11)
}

func TestTopAtoms(t *testing.T) {
	tool := NewTopAtomsTool(newBackend(t))

	res, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"n":     float64(2),
		"types": "GoalNode, ModeNode",
	}))
	require.NoError(t, err)
	var recs []snapshot.Record
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &recs))
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Contains(t, []atomspace.Type{atomspace.Goal, atomspace.Mode}, r.Type)
	}

	res, err = tool.Handle(context.Background(), makeReq(map[string]any{"n": float64(-1)}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestStimulate(t *testing.T) {
	b := newBackend(t)
	b.Forget(attention.DefaultTotalSTI)
	tool := NewStimulateTool(b)

	res, err := tool.Handle(context.Background(), makeReq(map[string]any{
		"type": "ParameterNode", "name": "gamma1", "amount": float64(12),
	}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))
	assert.Contains(t, resultText(res), "stimulated ParameterNode:gamma1 by 12")

	for _, args := range []map[string]any{
		{"name": "gamma1", "amount": float64(1)},
		{"type": "ParameterNode", "name": "ghost", "amount": float64(1)},
	} {
		res, err := tool.Handle(context.Background(), makeReq(args))
		require.NoError(t, err)
		assert.True(t, res.IsError, args)
	}
}

func TestAttentionStatsAndCycle(t *testing.T) {
	b := newBackend(t)

	res, err := NewAttentionStatsTool(b).Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	var st attention.Stats
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &st))
	assert.InDelta(t, attention.DefaultTotalSTI, st.TotalSTI, 1e-9)

	cycle := NewRunCycleTool(b)
	res, err = cycle.Handle(context.Background(), makeReq(map[string]any{"iterations": float64(3)}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	res, err = cycle.Handle(context.Background(), makeReq(map[string]any{"iterations": float64(5000)}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestReasonGoal(t *testing.T) {
	tool := NewReasonGoalTool(newBackend(t))

	res, err := tool.Handle(context.Background(), makeReq(map[string]any{"goal": "remission_365"}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	text := resultText(res)
	assert.True(t, strings.HasPrefix(text, "# Goal remission_365"))
	assert.Contains(t, text, "- gamma1 <1.0000, 0.8100>")

	res, err = tool.Handle(context.Background(), makeReq(map[string]any{"goal": "ghost"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = tool.Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestAnalyzeModel(t *testing.T) {
	tool := NewAnalyzeModelTool(newBackend(t))

	res, err := tool.Handle(context.Background(), makeReq(map[string]any{"model": "psoriasis"}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(res))

	var rep workflow.Report
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &rep))
	assert.Equal(t, "analysis_psoriasis", rep.WorkflowID)
	assert.Equal(t, 3, rep.Completed)

	res, err = tool.Handle(context.Background(), makeReq(map[string]any{"model": "ghost"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
