package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/tripshift/app"
	"github.com/kilianp07/tripshift/config"
	"github.com/kilianp07/tripshift/infra/logger"
	"github.com/kilianp07/tripshift/pkg/export"
)

var (
	tripsPath string
	format    string
	itinerary bool
	serve     bool
)

var rescheduleCmd = &cobra.Command{
	Use:   "reschedule",
	Short: "Reassign the logged trips and print utilization before and after",
	RunE:  runReschedule,
}

func init() {
	rescheduleCmd.Flags().StringVar(&tripsPath, "trips", "", "trip file (defaults to loader.path)")
	rescheduleCmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, json, csv or yaml")
	rescheduleCmd.Flags().BoolVar(&itinerary, "itinerary", false, "print the reassigned trips of every car as csv")
	rescheduleCmd.Flags().BoolVar(&serve, "serve", false, "keep serving Prometheus metrics until interrupted")
	rootCmd.AddCommand(rescheduleCmd)
}

func runReschedule(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := export.ParseFormat(format)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()

	res, err := svc.Run(ctx, tripsPath)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if itinerary {
		if err := export.WriteItineraryCSV(w, res.Comparison.After.Cars); err != nil {
			return err
		}
	} else if err := export.WriteReport(w, res.Comparison, out); err != nil {
		return err
	}
	if serve {
		return svc.ServeMetrics(ctx)
	}
	return nil
}
