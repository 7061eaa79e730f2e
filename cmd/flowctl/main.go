// Package main is the entry point for the flowctl CLI.
// The CLI is the terminal tool for submitting jobs to the flowplane controller
// and inspecting their status.
package main

import (
	"os"

	"flowplane/cmd/flowctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
