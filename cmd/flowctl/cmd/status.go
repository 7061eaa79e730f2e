package cmd

import (
	"errors"
	"net/http"
	"sort"

	"flowplane/pkg/api"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status [job_id]",
	Short: "Show the status document of a job",
	Long:  `Show the recorded status of every submission of a job: unknown, registered, inactive, submitted, held, queued, active or error.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		project, ok := projectID(cmd)
		if !ok {
			return
		}

		job, err := newClient().JobStatus(project, args[0])
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
				cmd.Printf("Job %s not found in project %s\n", args[0], project)
				return
			}
			cmd.Printf("Failed to get status: %v\n", err)
			return
		}

		printJob(cmd, *job)
	},
}

func printJob(cmd *cobra.Command, job api.JobStatusResponse) {
	cmd.Printf("%sJob %s%s\n", colorBold, job.JobID, colorReset)
	cmd.Println("──────────────────────────────")

	if len(job.StatePoint) > 0 {
		cmd.Printf("%sState point:%s %s\n", colorDim, colorReset, formatStatePoint(job.StatePoint))
	}

	if len(job.Status) == 0 {
		cmd.Printf("%sStatus:%s      %s\n", colorDim, colorReset, colorizeStatus("unknown"))
		return
	}

	ids := make([]string, 0, len(job.Status))
	for id := range job.Status {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		cmd.Printf("  %s  %s\n", colorizeStatus(job.Status[id]), id)
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
