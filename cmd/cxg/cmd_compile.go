package main

import (
	"fmt"

	"github.com/dhamidi/cxg/pattern"
	"github.com/spf13/cobra"
)

func newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile <pattern>",
		Short: "Compile a pattern and dump its graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if v := pattern.Validate(args[0]); !v.Valid {
				for _, msg := range v.Messages() {
					fmt.Fprintln(cmd.ErrOrStderr(), msg)
				}
				return fmt.Errorf("invalid pattern %q", args[0])
			}
			g, err := pattern.Compile(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, g.String())
			fmt.Fprintf(out, "elements\t%d\nmin_length\t%d\nthreshold\t%d\n", g.ElementCount(), g.MinLength(), g.Threshold())
			return nil
		},
	}
}
