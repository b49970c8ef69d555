package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

var log = commonlog.GetLogger("cxg.cli")

func newRootCmd() *cobra.Command {
	var verbose int

	rootCmd := &cobra.Command{
		Use:   "cxg",
		Short: "An incremental construction grammar parser",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			commonlog.Configure(verbose, nil)
		},
	}
	rootCmd.PersistentFlags().CountVarP(&verbose, "verbose", "v", "increase log verbosity (repeatable)")

	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newMatchCmd())
	rootCmd.AddCommand(newCompileCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newSyntaxCmd())
	rootCmd.AddCommand(newStoreCmd())
	rootCmd.AddCommand(newLSPCmd())

	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Errorf("%s", err)
		os.Exit(1)
	}
}
