//go:build !(js || wasm)

package main

import (
	"os"

	"github.com/cottand/depmatch/cmd"
	"github.com/spf13/cobra"
)

func main() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "depmatch [subcommand]",
	Short:        "depmatch checks dependent pattern matching clauses",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(cmd.CheckCmd)
}
