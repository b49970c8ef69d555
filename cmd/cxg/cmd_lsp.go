package main

import (
	"github.com/dhamidi/cxg/lsp"
	"github.com/spf13/cobra"
)

func newLSPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the language server for grammar files",
		RunE: func(cmd *cobra.Command, args []string) error {
			server := lsp.NewServer(version)
			return server.RunStdio()
		},
	}
}
