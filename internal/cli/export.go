package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/lazypower/workbench/internal/snapshot"
	"github.com/spf13/cobra"
)

var (
	exportOutput string
	exportCycles int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write a JSON snapshot of the loaded model and attention state",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")
	exportCmd.Flags().IntVar(&exportCycles, "cycles", 0, "attention cycle iterations to run before exporting")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp(configPath)
	if err != nil {
		return err
	}
	defer a.close()

	if exportCycles > 0 {
		a.engine.RunCycle(exportCycles)
	}

	var w io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("create %s: %w", exportOutput, err)
		}
		defer f.Close()
		w = f
	}
	if err := snapshot.Write(w, a.engine.Snapshot()); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	if exportOutput != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "snapshot written to %s\n", exportOutput)
	}
	return nil
}
