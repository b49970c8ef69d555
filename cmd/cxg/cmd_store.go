package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dhamidi/cxg/construction"
	"github.com/dhamidi/cxg/registry"
	"github.com/spf13/cobra"
)

func newStoreCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage grammars kept in a SQLite store",
	}

	cmd.PersistentFlags().StringVar(&dbPath, "db", "cxg.db", "SQLite grammar store")

	open := func() (*registry.SQLiteStore, error) {
		store, err := registry.NewSQLiteStore(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
		return store, nil
	}

	cmd.AddCommand(newStoreImportCmd(open))
	cmd.AddCommand(newStoreListCmd(open))
	cmd.AddCommand(newStoreDeleteCmd(open))

	return cmd
}

type storeOpener func() (*registry.SQLiteStore, error)

func newStoreImportCmd(open storeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "import <grammar.yaml>...",
		Short: "Validate grammar files and save them in the store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			var errs []error
			for _, path := range args {
				g, warnings, err := construction.LoadFile(path)
				for _, w := range warnings {
					log.Warningf("%s: %s", path, w)
				}
				if err != nil {
					errs = append(errs, err)
					continue
				}
				if err := store.SaveGrammar(g); err != nil {
					errs = append(errs, fmt.Errorf("save %s: %w", g.ID, err))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%d constructions)\n", g.ID, len(g.Constructions))
			}
			return errors.Join(errs...)
		},
	}
}

func newStoreListCmd(open storeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored grammars",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()

			grammars, err := store.Grammars()
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tCONSTRUCTIONS\tLOADED\tDESCRIPTION")
			for _, g := range grammars {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", g.ID, g.Constructions, g.LoadedAt.Format("2006-01-02 15:04"), g.Description)
			}
			return w.Flush()
		},
	}
}

func newStoreDeleteCmd(open storeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <grammar-id>",
		Short: "Remove a grammar from the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open()
			if err != nil {
				return err
			}
			defer store.Close()
			return store.DeleteGrammar(args[0])
		},
	}
}
