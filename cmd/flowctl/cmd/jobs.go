package cmd

import (
	"github.com/spf13/cobra"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List the jobs of a project",
	Long: `List every job of a project together with its state point and the
most significant status recorded for it.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		project, ok := projectID(cmd)
		if !ok {
			return
		}

		resp, err := newClient().ListJobs(project)
		if err != nil {
			cmd.Printf("Failed to list jobs: %v\n", err)
			return
		}

		if len(resp.Jobs) == 0 {
			cmd.Printf("No jobs in project %s\n", resp.Project)
			return
		}

		cmd.Printf("%s%-32s  %-12s  %s%s\n", colorBold, "JOB", "STATUS", "STATE POINT", colorReset)
		for _, job := range resp.Jobs {
			cmd.Printf("%-32s  %s  %s\n", job.JobID, padStatus(overallStatus(job.Status), 12), formatStatePoint(job.StatePoint))
		}
		cmd.Printf("\n%d job(s)\n", len(resp.Jobs))
	},
}

func init() {
	rootCmd.AddCommand(jobsCmd)
}
