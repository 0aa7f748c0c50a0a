package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIndexCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Write the catalog of every configured semester into the vector index",
		Long: `Embed title and description of every course in the catalog and upsert the
records into the semester's collection, creating it when missing.

Run it after loading a new semester into the catalog when the index backend is
milvus; the memory backend indexes itself at startup.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.IndexCatalog(cmd.Context()); err != nil {
				return err
			}
			snap := app.Catalog.Snapshot()
			for _, sem := range snap.Semesters() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d courses indexed\n", sem, snap.Len(sem))
			}
			return nil
		},
	}
}
