package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Show running jobs for the configured sync",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		defer a.close()

		running, err := a.jobs.ListRunning(cmd.Context(), a.sync.ID)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(running) == 0 {
			fmt.Fprintln(out, "no running jobs")
			return nil
		}
		for _, job := range running {
			fmt.Fprintf(out, "%s  %-12s %-11s started %s\n",
				job.ID, job.Status, job.Type, started(job.StartedAt))
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status <job-id>",
	Short: "Show the status of a job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid job id %q: %w", args[0], err)
		}

		a, err := newApp(cmd.Context(), configPath)
		if err != nil {
			return err
		}
		defer a.close()

		job, err := a.jobs.Get(cmd.Context(), jobID)
		if err != nil {
			return err
		}
		printSummary(cmd, job)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(statusCmd)
}

func started(t time.Time) string {
	if t.IsZero() {
		return "(not started)"
	}
	return t.Format("2006-01-02 15:04:05")
}
