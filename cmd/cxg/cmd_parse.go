package main

import (
	"fmt"

	"github.com/dhamidi/cxg/engine"
	v5 "github.com/dhamidi/cxg/engine/v5"
	"github.com/dhamidi/cxg/format"
	"github.com/dhamidi/cxg/token"
	"github.com/spf13/cobra"
)

func newParseCmd() *cobra.Command {
	var source grammarSource
	var configPath string
	var engineName string
	var outputFormat string
	var detect bool

	cmd := &cobra.Command{
		Use:   "parse <tokens.json|tokens.conllu|->",
		Short: "Parse tokenised sentences with a construction grammar",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := source.load()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, configPath)
			if err != nil {
				return err
			}
			sentences, err := readSentences(args[0])
			if err != nil {
				return err
			}
			enc, err := newEncoder(cmd, outputFormat)
			if err != nil {
				return err
			}

			for i, tokens := range sentences {
				var r *format.Result
				switch {
				case detect:
					r = format.FromMatches(i, token.Words(tokens), engine.New(reg, cfg).Detect(tokens))
				case engineName == "v4":
					st, err := engine.New(reg, cfg).Parse(tokens)
					if err != nil {
						return err
					}
					r = format.FromState(i, st)
				case engineName == "v5":
					st, err := v5.New(reg, cfg).Parse(tokens)
					if err != nil {
						return err
					}
					r = format.FromStateV5(i, st)
				default:
					return fmt.Errorf("unknown engine: %s (expected v4 or v5)", engineName)
				}
				if err := enc.Encode(r); err != nil {
					return fmt.Errorf("encode: %w", err)
				}
			}
			return nil
		},
	}

	source.addFlags(cmd)
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "engine config YAML file")
	cmd.Flags().StringVarP(&engineName, "engine", "e", "v4", "parser engine (v4, v5)")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "json", "output format (json, line)")
	cmd.Flags().BoolVar(&detect, "detect", false, "match all constructions at once instead of parsing incrementally")
	cmd.Flags().Int("max-alternatives", 0, "override max_active_alternatives")
	cmd.Flags().Int("max-ghost-age", 0, "override max_ghost_age")
	cmd.Flags().String("strategy", "", "override preservation_strategy (all, last, hybrid)")

	return cmd
}
