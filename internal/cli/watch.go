package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/invoiceguard/invoiceguard/internal/ingest"
)

var (
	watchInitialScan bool
	watchDebounce    time.Duration
	watchWorkers     int
)

var watchCmd = &cobra.Command{
	Use:   "watch [directory...]",
	Short: "Watch directories and process invoices as they appear",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().BoolVar(&watchInitialScan, "initial-scan", false, "Process files already present at startup")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "Quiet period before a changed file is processed")
	watchCmd.Flags().IntVar(&watchWorkers, "workers", 4, "Concurrent processing workers")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	p, err := buildPipeline()
	if err != nil {
		return err
	}

	queue := ingest.NewPipelineQueue(pipelineJob(p), logger, ingest.WithWorkers(watchWorkers))
	defer queue.Shutdown(context.Background())

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       args,
		InitialScan: watchInitialScan,
		Debounce:    watchDebounce,
	}, logger)
	if err != nil {
		return err
	}

	fmt.Printf("watching %v\n", args)
	for {
		select {
		case <-ctx.Done():
			return nil
		case path, ok := <-events:
			if !ok {
				return nil
			}
			_ = queue.Enqueue(ctx, ingest.Job{SourcePath: path, SubmittedAt: time.Now().UTC()})
		case err, ok := <-errs:
			if ok && err != nil {
				logger.Error("watch error", "error", err)
			}
		}
	}
}
