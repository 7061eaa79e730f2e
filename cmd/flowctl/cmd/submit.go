package cmd

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"

	"flowplane/pkg/api"

	"github.com/spf13/cobra"
)

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit the job of a state point",
	Long: `Open the job identified by a state point and submit it to the scheduler.

The job is skipped when it is already submitted, queued, active or in an
error state. Use --force to submit it anyway, or --pretend to go through
the motions without contacting the scheduler.

Example:
  flowctl submit --project ising --state-point '{"T": 2.0}' --script run.sh
  flowctl submit --project ising --state-point '{"T": 2.0}' --script run.sh --id analysis --arg=--fast`,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		statePoint, _ := flags.GetString("state-point")
		scriptFile, _ := flags.GetString("script")
		identifier, _ := flags.GetString("id")
		force, _ := flags.GetBool("force")
		pretend, _ := flags.GetBool("pretend")
		scriptArgs, _ := flags.GetStringArray("arg")
		options, _ := flags.GetStringToString("option")

		project, ok := projectID(cmd)
		if !ok {
			return
		}

		if statePoint == "" {
			cmd.Println("Error: --state-point is required")
			return
		}
		var sp map[string]any
		if err := json.Unmarshal([]byte(statePoint), &sp); err != nil {
			cmd.Printf("Error: --state-point must be a JSON object: %v\n", err)
			return
		}

		if scriptFile == "" {
			cmd.Println("Error: --script is required")
			return
		}
		script, err := os.ReadFile(scriptFile)
		if err != nil {
			cmd.Printf("Error: failed to read script: %v\n", err)
			return
		}

		result, err := newClient().Submit(project, api.SubmitRequest{
			StatePoint: sp,
			Script:     string(script),
			Identifier: identifier,
			Force:      force,
			Pretend:    pretend,
			Args:       scriptArgs,
			Options:    options,
		})

		var apiErr *APIError
		switch {
		case err == nil:
			verb := "submitted"
			if pretend {
				verb = "submitted (pretend)"
			}
			cmd.Printf("%s Job %s\n", statusIcon("submitted"), verb)
			printSubmitResult(cmd, result)
		case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict && result != nil:
			cmd.Printf("%s Job not submitted: already %s (use --force to resubmit)\n", statusIcon(result.Status), result.Status)
			printSubmitResult(cmd, result)
		case errors.As(err, &apiErr):
			cmd.Printf("Submit failed (%d): %s\n", apiErr.StatusCode, apiErr.Message)
			if result != nil {
				printSubmitResult(cmd, result)
			}
		default:
			cmd.Printf("Submit failed: %v\n", err)
		}
	},
}

func printSubmitResult(cmd *cobra.Command, result *api.SubmitResponse) {
	cmd.Printf("%sJob ID:%s      %s\n", colorDim, colorReset, result.JobID)
	cmd.Printf("%sSubmission:%s  %s\n", colorDim, colorReset, result.JobSubmissionID)
	cmd.Printf("%sStatus:%s      %s\n", colorDim, colorReset, colorizeStatus(result.Status))
}

func init() {
	flags := submitCmd.Flags()
	flags.StringP("state-point", "s", "", "State point of the job as a JSON object (required)")
	flags.String("script", "", "Path of the script to run (required)")
	flags.String("id", "", "Submission identifier (default \"default\")")
	flags.BoolP("force", "f", false, "Submit even if the job is already submitted")
	flags.Bool("pretend", false, "Record the submission without contacting the scheduler")
	flags.StringArray("arg", nil, "Argument passed to the script (repeatable)")
	flags.StringToString("option", nil, "Scheduler option as key=value (repeatable)")

	rootCmd.AddCommand(submitCmd)
}
