package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "flowctl",
	Short: "flowctl submits workflow jobs and tracks their status",
	Long: `flowctl is the command-line interface for the flowplane controller.

A flowplane project is a collection of jobs, each identified by its state point:
the set of parameters the job runs with. Submitting a state point opens the job,
records its status and hands a script to the configured scheduler. A job that
is already submitted, queued, active or failed is not submitted again unless
--force is given.

Common workflows:

  Submit a job:
    flowctl submit --project ising --state-point '{"T": 2.0, "L": 16}' --script run.sh

  Check which jobs a project has:
    flowctl jobs --project ising

  Show the status document of a job:
    flowctl status --project ising <job-id>

  Refresh status from the scheduler:
    flowctl update --project ising

Configuration:
  Set the API endpoint and project via flags, environment variables or a config file:
    FLOWPLANE_URL       Controller endpoint (default: http://localhost:6161)
    FLOWPLANE_PROJECT   Default project`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".flowctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".flowctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "FLOWPLANE_VARNAME"
	viper.SetEnvPrefix("FLOWPLANE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// projectID returns the project selected by flag, environment or config.
func projectID(cmd *cobra.Command) (string, bool) {
	project := viper.GetString("project")
	if project == "" {
		cmd.Println("Error: --project is required (or set FLOWPLANE_PROJECT)")
		return "", false
	}
	return project, true
}

func newClient() *FlowClient {
	return NewFlowClient(viper.GetString("url"))
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.flowctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:6161", "flowplane controller URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("project", "p", "", "Project the jobs belong to")
	viper.BindPFlag("project", rootCmd.PersistentFlags().Lookup("project"))
}
