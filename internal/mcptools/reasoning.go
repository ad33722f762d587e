package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReasonGoalTool handles wb_reason_goal.
type ReasonGoalTool struct {
	backend Backend
}

func NewReasonGoalTool(b Backend) *ReasonGoalTool {
	return &ReasonGoalTool{backend: b}
}

func (t *ReasonGoalTool) Definition() mcp.Tool {
	return mcp.NewTool("wb_reason_goal",
		mcp.WithDescription(
			"Estimate how likely a goal is to be reached, combining the uncertainty "+
				"of every model parameter with the goal's current truth value.",
		),
		mcp.WithString("goal", mcp.Required(), mcp.Description("Goal name, e.g. remission_365")),
	)
}

func (t *ReasonGoalTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	goal := req.GetString("goal", "")
	if goal == "" {
		return mcp.NewToolResultError("'goal' is required"), nil
	}
	res, err := t.backend.ReasonAboutGoal(goal)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Goal %s\n\n", res.Goal)
	fmt.Fprintf(&b, "**Probability:** %.4f\n", res.Reachability.Probability)
	fmt.Fprintf(&b, "**Confidence:** %.4f\n\n", res.Reachability.Confidence)
	if len(res.Evidence) == 0 {
		b.WriteString("No parameter evidence.\n")
	} else {
		b.WriteString("## Evidence\n\n")
		for _, ev := range res.Evidence {
			fmt.Fprintf(&b, "- %s <%.4f, %.4f>\n", ev.Name, ev.Strength, ev.Confidence)
		}
	}
	if len(res.Support) > 0 {
		b.WriteString("\n## Support\n\n")
		for _, s := range res.Support {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

// AnalyzeModelTool handles wb_analyze_model.
type AnalyzeModelTool struct {
	backend Backend
}

func NewAnalyzeModelTool(b Backend) *AnalyzeModelTool {
	return &AnalyzeModelTool{backend: b}
}

func (t *AnalyzeModelTool) Definition() mcp.Tool {
	return mcp.NewTool("wb_analyze_model",
		mcp.WithDescription(
			"Create and run the simulate, verify, analyze workflow for a loaded model. "+
				"Verification bounds are written back to the goal's truth value.",
		),
		mcp.WithString("model", mcp.Required(), mcp.Description("Model name")),
		mcp.WithString("goal", mcp.Description("Goal to verify (default: first goal)")),
		mcp.WithString("name", mcp.Description("Workflow name prefix (default: analysis)")),
	)
}

func (t *AnalyzeModelTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	model := req.GetString("model", "")
	if model == "" {
		return mcp.NewToolResultError("'model' is required"), nil
	}
	id, err := t.backend.CreateAnalysisWorkflow(model, req.GetString("name", "analysis"), req.GetString("goal", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := t.backend.ExecuteWorkflow(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("execute %s: %v", id, err)), nil
	}
	return jsonResult(report)
}
