package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tripshift/infra/logger"
	"github.com/kilianp07/tripshift/pkg/export"
	"github.com/kilianp07/tripshift/qa/scenarios"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "QA scenario commands",
}

var scenarioRunCmd = &cobra.Command{
	Use:   "run <file.yaml>...",
	Short: "Run scenario files and check their expectations",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScenarios,
}

var scenarioVerbose bool

func init() {
	scenarioRunCmd.Flags().BoolVarP(&scenarioVerbose, "verbose", "v", false, "print the comparison of every scenario")
	scenarioCmd.AddCommand(scenarioRunCmd)
	rootCmd.AddCommand(scenarioCmd)
}

func runScenarios(cmd *cobra.Command, args []string) error {
	log := logger.New("scenario")
	w := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		sc, err := scenarios.Load(path)
		if err != nil {
			return err
		}
		out, err := scenarios.Run(sc, log, nil)
		if err != nil {
			return fmt.Errorf("%s: %w", sc.Name, err)
		}
		if scenarioVerbose {
			if err := export.FormatComparison(w, out.Comparison); err != nil {
				return err
			}
		}
		if err := out.Err(); err != nil {
			failed++
			fmt.Fprintf(w, "FAIL %s\n", sc.Name)
			for _, m := range out.Mismatches {
				fmt.Fprintf(w, "  %s\n", m)
			}
			continue
		}
		fmt.Fprintf(w, "ok   %s\n", sc.Name)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d scenarios failed", failed, len(args))
	}
	return nil
}
