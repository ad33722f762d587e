package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lazypower/workbench/internal/atomspace"
	"github.com/lazypower/workbench/internal/snapshot"
	"github.com/spf13/cobra"
)

var demoExport string

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Walk through an analysis of the loaded model",
	Long: "Demo creates and runs the analysis workflow, reasons about the first goal, " +
		"optimizes attention around it and prints what changed at each step.",
	RunE: runDemo,
}

func init() {
	demoCmd.Flags().StringVar(&demoExport, "export", "", "also write the final snapshot to this file")
}

func runDemo(cmd *cobra.Command, args []string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	out := cmd.OutOrStdout()
	rule := strings.Repeat("=", 70)
	eng := a.engine

	st := eng.Status()
	fmt.Fprintln(out, rule)
	fmt.Fprintln(out, "Workbench analysis demo")
	fmt.Fprintln(out, rule)
	if len(st.Models) == 0 {
		return fmt.Errorf("no model loaded")
	}
	modelName := st.Models[0]
	params := eng.Query(atomspace.Pattern{atomspace.PatternType: atomspace.Parameter})
	fmt.Fprintf(out, "\nModel %s: %d atoms, %d parameters\n", modelName, st.Atoms, len(params))

	goals := eng.Query(atomspace.Pattern{atomspace.PatternType: atomspace.Goal})
	goal := ""
	if len(goals) > 0 {
		goal = goals[0].Name
	}

	id, err := eng.CreateAnalysisWorkflow(modelName, "comprehensive", goal)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "\nWorkflow %s\n", id)

	report, err := eng.ExecuteWorkflow(context.Background(), id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  completed %d/%d tasks\n", report.Completed, report.Total)
	for i, t := range report.Tasks {
		fmt.Fprintf(out, "  %d. %s %s (priority %.2f)\n", i+1, t.Kind, t.Status, t.Priority)
		if t.Error != "" {
			fmt.Fprintf(out, "     error: %s\n", t.Error)
		}
	}

	focus := []string{}
	if goal != "" {
		r, err := eng.ReasonAboutGoal(goal)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\nGoal %s\n", goal)
		fmt.Fprintf(out, "  probability %.3f, confidence %.3f\n", r.Reachability.Probability, r.Reachability.Confidence)
		for i, ev := range r.Evidence {
			if i == 3 {
				fmt.Fprintf(out, "  ... %d more\n", len(r.Evidence)-i)
				break
			}
			fmt.Fprintf(out, "  - %s: strength=%.3f conf=%.3f\n", ev.Name, ev.Strength, ev.Confidence)
		}
		focus = append(focus, goal)
	}
	if len(params) > 0 {
		focus = append(focus, params[len(params)-1].Name)
	}

	stats := eng.OptimizeAttention(focus)
	fmt.Fprintf(out, "\nAttention on %s\n", strings.Join(focus, ", "))
	fmt.Fprintf(out, "  focus size %d, mean STI %.2f\n", stats.FocusSize, stats.MeanSTI)
	for i, r := range eng.TopAtoms(5) {
		fmt.Fprintf(out, "  %d. %s: %s (%.2f)\n", i+1, r.Type, r.Name, r.Attention)
	}

	st = eng.Status()
	fmt.Fprintf(out, "\nStatus: %d atoms, %d models, %d handlers, %d tasks\n",
		st.Atoms, len(st.Models), st.Agents.Handlers, st.Agents.Tasks)
	if len(st.TopFocus) > 0 {
		fmt.Fprintf(out, "  focus: %s\n", strings.Join(st.TopFocus, ", "))
	}

	if demoExport != "" {
		f, err := os.Create(demoExport)
		if err != nil {
			return fmt.Errorf("create %s: %w", demoExport, err)
		}
		defer f.Close()
		if err := snapshot.Write(f, eng.Snapshot()); err != nil {
			return fmt.Errorf("write snapshot: %w", err)
		}
		fmt.Fprintf(out, "\nSnapshot written to %s\n", demoExport)
	}
	return nil
}
