package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/lazypower/workbench/internal/client"
	"github.com/spf13/cobra"
)

var serverURL string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the status of a running workbench server",
	RunE:  runStatus,
}

var stimulateCmd = &cobra.Command{
	Use:   "stimulate <type> <name> <amount>",
	Short: "Stimulate an atom on a running workbench server",
	Args:  cobra.ExactArgs(3),
	RunE:  runStimulate,
}

func init() {
	for _, c := range []*cobra.Command{statusCmd, stimulateCmd} {
		c.Flags().StringVar(&serverURL, "url", "", "server URL (default $WORKBENCH_URL or http://127.0.0.1:37778)")
	}
}

func remoteContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := remoteContext()
	defer cancel()

	st, err := client.New(serverURL).Status(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "atoms:     %d\n", st.Atoms)
	fmt.Fprintf(out, "models:    %s\n", strings.Join(st.Models, ", "))
	fmt.Fprintf(out, "handlers:  %d (%d tasks, %d workflows)\n", st.Agents.Handlers, st.Agents.Tasks, st.Agents.Workflows)
	fmt.Fprintf(out, "sti:       %.2f (bank %.2f)\n", st.Attention.TotalSTI, st.Attention.BankSTI)
	fmt.Fprintf(out, "focus:     %d atoms\n", st.Attention.FocusSize)
	if len(st.TopFocus) > 0 {
		fmt.Fprintf(out, "top focus: %s\n", strings.Join(st.TopFocus, ", "))
	}
	return nil
}

func runStimulate(cmd *cobra.Command, args []string) error {
	amount, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("amount %q: %w", args[2], err)
	}
	ctx, cancel := remoteContext()
	defer cancel()

	moved, err := client.New(serverURL).Stimulate(ctx, args[0], args[1], amount)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "stimulated %s:%s by %g\n", args[0], args[1], moved)
	return nil
}
