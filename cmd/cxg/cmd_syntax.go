package main

import (
	"fmt"
	"os"
	"reflect"

	"github.com/dhamidi/cxg/pattern"
	"github.com/spf13/cobra"
	"golang.org/x/exp/ebnf"
)

func newSyntaxCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "syntax",
		Short:         "Print the EBNF of the pattern language",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := pattern.Syntax(); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), pattern.SyntaxSource())
			return nil
		},
	}

	cmd.AddCommand(newSyntaxCheckCmd())

	return cmd
}

func newSyntaxCheckCmd() *cobra.Command {
	var startProduction string

	cmd := &cobra.Command{
		Use:           "check <file>",
		Short:         "Parse and verify an EBNF grammar file",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]

			f, err := os.Open(filename)
			if err != nil {
				return fmt.Errorf("open file: %w", err)
			}
			defer f.Close()

			grammar, err := ebnf.Parse(filename, f)
			if err != nil {
				printErrors(cmd, err)
				return err
			}

			if startProduction != "" {
				if err := ebnf.Verify(grammar, startProduction); err != nil {
					printErrors(cmd, err)
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d productions\n", filename, len(grammar))
			return nil
		},
	}

	cmd.Flags().StringVar(&startProduction, "start", "Pattern", "start production for verification (if empty, only checks syntax)")

	return cmd
}

// printErrors lists each error of an ebnf error list on its own line.
func printErrors(cmd *cobra.Command, err error) {
	out := cmd.ErrOrStderr()
	v := reflect.ValueOf(err)
	if v.Kind() == reflect.Slice {
		for i := 0; i < v.Len(); i++ {
			fmt.Fprintln(out, v.Index(i).Interface())
		}
	} else {
		fmt.Fprintln(out, err)
	}
}
