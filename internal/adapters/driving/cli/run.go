package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/entsync/internal/adapters/driving/tui"
	"github.com/custodia-labs/entsync/internal/core/domain"
	"github.com/custodia-labs/entsync/internal/logger"
)

var (
	runFull  bool
	runWatch bool
	runToken string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a sync",
	Long: `Run pulls all entities from the configured source and writes changed ones
to the destinations. Incremental runs (the default) only touch entities
whose fingerprints changed; --full also removes entities the source no
longer has.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		a, err := newApp(ctx, configPath)
		if err != nil {
			return err
		}
		defer a.close()

		syncType := domain.SyncTypeIncremental
		if runFull {
			syncType = domain.SyncTypeFull
		}

		job := domain.SyncJob{
			ID:     uuid.New(),
			SyncID: a.sync.ID,
			Status: domain.JobStatusPending,
			Type:   syncType,
		}
		if err := a.jobs.Create(ctx, job); err != nil {
			return err
		}

		runner, err := a.factory.Create(ctx, domain.RunParams{
			SyncID:      a.sync.ID,
			JobID:       job.ID,
			Type:        syncType,
			AccessToken: runToken,
		}, a.dag)
		if err != nil {
			return err
		}

		if runWatch {
			return tui.Run(ctx, runner, a.sync.Name)
		}

		stats, unsubscribe := runner.Subscribe()
		defer unsubscribe()
		go reportProgress(stats)

		runErr := runner.Run(ctx)

		// The run context may be cancelled; the summary read must still
		// work.
		final, err := a.jobs.Get(context.Background(), job.ID)
		if err == nil {
			printSummary(cmd, final)
		}
		return runErr
	},
}

func init() {
	runCmd.Flags().BoolVar(&runFull, "full", false, "full sync: also remove entities missing from the source")
	runCmd.Flags().BoolVarP(&runWatch, "watch", "w", false, "show a live progress view")
	runCmd.Flags().StringVar(&runToken, "token", "", "access token to use instead of stored credentials")
	rootCmd.AddCommand(runCmd)
}

// reportProgress logs a snapshot at most once per second.
func reportProgress(stats <-chan domain.SyncStats) {
	var last time.Time
	for snapshot := range stats {
		if time.Since(last) < time.Second {
			continue
		}
		last = time.Now()
		logger.Info("progress: %d processed (%d inserted, %d updated, %d kept), %d failed",
			snapshot.Processed(), snapshot.Inserted, snapshot.Updated, snapshot.Kept, snapshot.Failed)
	}
}

func printSummary(cmd *cobra.Command, job *domain.SyncJob) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "status:   %s\n", job.Status)
	fmt.Fprintf(out, "inserted: %d\n", job.Stats.Inserted)
	fmt.Fprintf(out, "updated:  %d\n", job.Stats.Updated)
	fmt.Fprintf(out, "deleted:  %d\n", job.Stats.Deleted)
	fmt.Fprintf(out, "kept:     %d\n", job.Stats.Kept)
	fmt.Fprintf(out, "skipped:  %d\n", job.Stats.Skipped)
	fmt.Fprintf(out, "failed:   %d\n", job.Stats.Failed)
	if job.Error != "" {
		fmt.Fprintf(out, "error:    %s\n", job.Error)
	}
}
