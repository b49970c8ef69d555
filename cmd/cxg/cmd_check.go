package main

import (
	"fmt"
	"os"

	"github.com/dhamidi/cxg/lsp"
	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:          "check <grammar.yaml>...",
		Short:        "Validate grammar files and report problems with their positions",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, path := range args {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read grammar: %w", err)
				}
				for _, d := range lsp.Diagnose(data) {
					severity := "error"
					if d.Severity == lsp.SeverityWarning {
						severity = "warning"
					}
					if severity == "error" || strict {
						failed++
					}
					fmt.Fprintf(out, "%s:%d:%d: %s: %s\n", path, d.Line+1, d.Column+1, severity, d.Message)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d problems found", failed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")

	return cmd
}
