package cmd

import (
	"errors"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Refresh job status from the scheduler",
	Long: `Run one reconciliation pass: query the scheduler once and recompute the
status document of every job in the project.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		project, ok := projectID(cmd)
		if !ok {
			return
		}

		resp, err := newClient().UpdateStatus(project)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && resp != nil {
				cmd.Printf("%s Updated %d job(s) with errors: %s\n", statusIcon("error"), resp.Updated, apiErr.Message)
				return
			}
			cmd.Printf("Update failed: %v\n", err)
			return
		}

		cmd.Printf("%s Updated %d job(s)\n", statusIcon("inactive"), resp.Updated)
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
