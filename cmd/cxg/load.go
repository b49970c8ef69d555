package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dhamidi/cxg/construction"
	"github.com/dhamidi/cxg/engine"
	"github.com/dhamidi/cxg/format"
	"github.com/dhamidi/cxg/registry"
	"github.com/dhamidi/cxg/token"
	"github.com/spf13/cobra"
)

// grammarSource selects a registry either from a grammar file or from a
// grammar stored in a SQLite database.
type grammarSource struct {
	grammar   string
	db        string
	grammarID string
}

func (s *grammarSource) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&s.grammar, "grammar", "g", "", "grammar YAML file")
	cmd.Flags().StringVar(&s.db, "db", "", "SQLite grammar store")
	cmd.Flags().StringVar(&s.grammarID, "grammar-id", "", "grammar id within --db")
}

func (s *grammarSource) load() (registry.Registry, error) {
	switch {
	case s.grammar != "" && s.db != "":
		return nil, errors.New("use either --grammar or --db, not both")
	case s.grammar != "":
		g, warnings, err := construction.LoadFile(s.grammar)
		for _, w := range warnings {
			log.Warningf("%s", w)
		}
		if err != nil {
			return nil, err
		}
		log.Infof("loaded grammar %s: %d constructions", g.ID, len(g.Constructions))
		return registry.NewMemory(g.ID, g.Constructions)
	case s.db != "":
		if s.grammarID == "" {
			return nil, errors.New("--grammar-id is required with --db")
		}
		store, err := registry.NewSQLiteStore(s.db)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		defer store.Close()
		return store.LoadConstructions(s.grammarID)
	}
	return nil, errors.New("one of --grammar or --db is required")
}

// readSentences reads tokenised sentences from a JSON or CoNLL-U file, or
// from stdin as JSON when name is "-".
func readSentences(name string) ([][]token.Token, error) {
	var r io.Reader = os.Stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("open tokens: %w", err)
		}
		defer f.Close()
		r = f
	}
	sentences, err := token.ReadFile(name, r)
	if err != nil {
		return nil, fmt.Errorf("read tokens: %w", err)
	}
	return sentences, nil
}

func loadConfig(cmd *cobra.Command, path string) (engine.Config, error) {
	cfg := engine.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = engine.LoadConfig(path); err != nil {
			return cfg, err
		}
	}
	flags := cmd.Flags()
	if flags.Changed("max-alternatives") {
		cfg.MaxActiveAlternatives, _ = flags.GetInt("max-alternatives")
	}
	if flags.Changed("max-ghost-age") {
		cfg.MaxGhostAge, _ = flags.GetInt("max-ghost-age")
	}
	if flags.Changed("strategy") {
		cfg.PreservationStrategy, _ = flags.GetString("strategy")
	}
	if flags.Changed("verbose") {
		cfg.Verbose = true
	}
	return cfg, cfg.Validate()
}

func newEncoder(cmd *cobra.Command, name string) (format.Encoder, error) {
	switch name {
	case "json":
		return format.NewJSONEncoder(cmd.OutOrStdout()), nil
	case "line":
		return format.NewLineEncoder(cmd.OutOrStdout()), nil
	}
	return nil, fmt.Errorf("unknown format: %s", name)
}
