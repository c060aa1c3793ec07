// Package cmd provides the command-line interface for the decision server
// using the Cobra framework. It defines the root command and subcommands
// for serving decisions and checking one from the command line.
package cmd

import "github.com/spf13/cobra"

// rootCmd is the base command for the CLI. Subcommands are registered via their init() hooks.
var rootCmd = &cobra.Command{
	Use:   "hierauthz",
	Short: "Attribute-based access decisions over a resource hierarchy",
}

// Execute runs the root Cobra command and returns any error encountered during execution.
// This is the main entry point called from main.go.
func Execute() error {
	return rootCmd.Execute()
}
