package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dhamidi/cxg/engine"
	"github.com/dhamidi/cxg/pattern"
	"github.com/spf13/cobra"
)

func newMatchCmd() *cobra.Command {
	var maxDepth int

	cmd := &cobra.Command{
		Use:   "match <pattern> <tokens.json|tokens.conllu|->",
		Short: "Match one pattern against tokenised sentences",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := pattern.Compile(args[0])
			if err != nil {
				return err
			}
			sentences, err := readSentences(args[1])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			matcher := pattern.NewMatcher(maxDepth)
			for i, tokens := range sentences {
				for _, m := range matcher.MatchAll(g, tokens) {
					fmt.Fprintf(out, "%d\t%d-%d\t%s\t%s\n", i, m.Start, m.End-1, strings.Join(m.MatchedTokens, " "), slotsStr(m.Slots))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxDepth, "max-depth", engine.DefaultConfig().MaxBacktrackDepth, "backtracking depth ceiling")

	return cmd
}

func slotsStr(slots map[string]string) string {
	keys := make([]string, 0, len(slots))
	for k := range slots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + slots[k]
	}
	return strings.Join(parts, ",")
}
