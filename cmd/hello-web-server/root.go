package main

import (
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "v0.0.0"

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "hello-web-server",
		Short:         "A tiny web server answering every connection on a fixed worker pool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// .env is optional
			_ = godotenv.Load()
		},
	}

	root.AddCommand(newServeCommand(), newVersionCommand())
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			color.New(color.FgCyan).Fprintf(cmd.OutOrStdout(), "hello-web-server %s\n", version)
		},
	}
}
