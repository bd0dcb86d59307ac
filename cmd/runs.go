package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tripshift/config"
	"github.com/kilianp07/tripshift/core/runlog"
)

var (
	runsSince time.Duration
	runsLimit int
	runsCar   string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Run history commands",
}

var runsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recorded reassignment runs",
	RunE:  runRunsLs,
}

func init() {
	runsLsCmd.Flags().DurationVar(&runsSince, "since", 0, "only runs newer than this, e.g. 24h")
	runsLsCmd.Flags().IntVar(&runsLimit, "limit", 20, "maximum number of runs, most recent kept")
	runsLsCmd.Flags().StringVar(&runsCar, "car", "", "only runs whose fleet includes this car")
	runsCmd.AddCommand(runsLsCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsLs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := runlog.New(cfg.Runlog)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	q := runlog.Query{Limit: runsLimit, CarID: runsCar}
	if runsSince > 0 {
		q.Start = time.Now().Add(-runsSince)
	}
	recs, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}
	return printRuns(cmd, recs)
}

func printRuns(cmd *cobra.Command, recs []runlog.Record) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tRUN\tCARS\tASSIGNED\tDROPPED\tFILTERED\tFLEET BEFORE\tFLEET AFTER")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%.4f\t%.4f\n",
			r.Timestamp.Local().Format(time.DateTime), r.ID, len(r.Cars),
			r.Assigned, r.Dropped, r.Filtered, r.FleetBefore, r.FleetAfter)
	}
	return tw.Flush()
}
