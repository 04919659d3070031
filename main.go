package main

import (
	"os"

	"github.com/cottand/jet/cmd"
	"github.com/spf13/cobra"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "jet [subcommand]",
	Short:        "jet checks subtyping and resolves overloaded calls over declared classes and functions",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.CheckCmd)
	rootCmd.AddCommand(cmd.QueryCmd)
}
