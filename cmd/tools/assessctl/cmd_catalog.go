// cmd/tools/assessctl/cmd_catalog.go
package main

import (
	stderrors "errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"assessment-workers/internal/assessment/catalog"
)

func newCatalogCommand(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect or check a question catalog",
	}
	cmd.AddCommand(newCatalogListCommand(opts))
	cmd.AddCommand(newCatalogCheckCommand())
	return cmd
}

func newCatalogListCommand(opts *rootOptions) *cobra.Command {
	var sector string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sectors, or the questions of one sector",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := opts.loadCatalog()
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

			if sector == "" {
				fmt.Fprintf(out, "catalog %s, scale %d-%d\n\n", cat.Version(), cat.Scale().Min, cat.Scale().Max)
				fmt.Fprintln(tw, "SECTOR\tNAME\tQUESTIONS")
				for _, id := range cat.Sectors() {
					name, _ := cat.SectorName(id)
					qs, _ := cat.QuestionsFor(id)
					fmt.Fprintf(tw, "%s\t%s\t%d\n", id, name, len(qs))
				}
				return tw.Flush()
			}

			dims, err := cat.DimensionsFor(sector)
			if err != nil {
				return err
			}
			fmt.Fprintln(tw, "QUESTION\tDIMENSION\tWEIGHT\tPROMPT")
			for _, d := range dims {
				for _, id := range d.QuestionIDs {
					q, _ := cat.Question(sector, id)
					fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\n", q.ID, d.ID, q.Weight, q.Prompt)
				}
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&sector, "sector", "", "List the questions asked in this sector")
	return cmd
}

func newCatalogCheckCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load a catalog file and report every invariant violation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cat, err := catalog.LoadFile(path)
			var invalid *catalog.InvalidCatalogError
			if stderrors.As(err, &invalid) {
				for _, p := range invalid.Problems {
					fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", p)
				}
				return &ValidationFailedError{Message: fmt.Sprintf("catalog %s has %d problems", path, len(invalid.Problems))}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "catalog %s OK: version %s, %d sectors\n", path, cat.Version(), len(cat.Sectors()))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "file", "", "Catalog YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
