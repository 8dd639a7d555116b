// cmd/tools/assessctl/cmd_benchmark.go
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/spf13/cobra"

	"assessment-workers/internal/assessment/benchmark"
	"assessment-workers/internal/common/config"
	"assessment-workers/internal/common/database"
	"assessment-workers/internal/models"
	"assessment-workers/internal/search"
)

func newBenchmarkCommand(opts *rootOptions) *cobra.Command {
	var (
		sector    string
		dimension string
		score     float64
		format    string
	)

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Compare a score with its sector benchmark",
		Long: `Compare an overall or dimension score with the sector benchmark table.

Known sectors without reference data report that no benchmark is available.
Unknown sectors are an error.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("unknown format %q: want table or json", format)
			}
			eng, err := opts.loadEngine(cmd)
			if err != nil {
				return err
			}
			resolved := eng.ResolveSector(sector)
			if _, err := eng.Catalog().SectorName(resolved); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			var (
				comparison    models.BenchmarkComparison
				comparisonErr error
			)
			if dimension != "" {
				comparison, comparisonErr = eng.Comparator().CompareDimension(resolved, dimension, score)
			} else {
				comparison, comparisonErr = eng.Comparator().Compare(resolved, score)
			}
			if stderrors.Is(comparisonErr, benchmark.ErrNoBenchmarkData) {
				fmt.Fprintf(out, "no benchmark available: %v\n", comparisonErr)
				return nil
			}
			if comparisonErr != nil {
				return &ValidationFailedError{Message: comparisonErr.Error()}
			}

			if format == "json" {
				return writeJSON(out, comparison)
			}
			label := "overall"
			if dimension != "" {
				label = dimension
			}
			fmt.Fprintf(out, "%s %s score %.1f\n", comparison.SectorName, label, comparison.Score)
			fmt.Fprintf(out, "  percentile:      %d (%s)\n", comparison.Percentile, comparison.Position)
			fmt.Fprintf(out, "  sector average:  %.1f (gap %+.1f)\n", comparison.Reference.Average, comparison.Gaps.ToAverage)
			fmt.Fprintf(out, "  top quartile:    %.1f (gap %+.1f)\n", comparison.Reference.TopQuartile, comparison.Gaps.ToTopQuartile)
			fmt.Fprintf(out, "  leader:          %.1f (gap %+.1f)\n", comparison.Reference.Leader, comparison.Gaps.ToLeader)
			return nil
		},
	}
	cmd.Flags().StringVar(&sector, "sector", "", "Sector id (default: the default sector)")
	cmd.Flags().StringVar(&dimension, "dimension", "", "Compare a single dimension instead of the overall score")
	cmd.Flags().Float64Var(&score, "score", 0, "Score between 0 and 100")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table | json")
	_ = cmd.MarkFlagRequired("score")

	cmd.AddCommand(newBenchmarkRefreshCommand(opts))
	return cmd
}

func newBenchmarkRefreshCommand(opts *rootOptions) *cobra.Command {
	var (
		sector     string
		esURL      string
		index      string
		minSamples int64
		outPath    string
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "refresh",
		Short: "Derive a sector's overall benchmark from indexed results",
		Long: `Derive a sector's overall benchmark from the assessment results indexed in
Elasticsearch and write the updated benchmark table as YAML.

Dimension statistics and the leader score are carried over from the current
table. The running workers never read the output; deploy it with --benchmarks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := opts.loadBenchmarks()
			if err != nil {
				return fmt.Errorf("load benchmarks: %w", err)
			}
			cat, err := opts.loadCatalog()
			if err != nil {
				return fmt.Errorf("load catalog: %w", err)
			}
			name, err := cat.SectorName(sector)
			if err != nil {
				return err
			}

			es, err := database.NewElasticsearch(config.ElasticsearchConfig{URL: esURL})
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			stats, err := search.NewResultIndexer(es.GetClient(), index).SectorStats(ctx, sector)
			if err != nil {
				return err
			}
			opts.logger(cmd).Debug("sector stats", map[string]interface{}{
				"sector":  sector,
				"count":   stats.Count,
				"average": stats.Average,
			})
			if stats.Count < minSamples {
				return &ValidationFailedError{Message: fmt.Sprintf("sector %s has %d indexed results, need at least %d", sector, stats.Count, minSamples)}
			}

			refreshed, err := refreshReference(table, sector, name, stats)
			if err != nil {
				return err
			}
			updated, err := table.With(refreshed)
			if err != nil {
				if stderrors.Is(err, benchmark.ErrInvalidReference) {
					return &ValidationFailedError{Message: err.Error()}
				}
				return err
			}
			return writeTable(cmd.OutOrStdout(), outPath, updated)
		},
	}
	cmd.Flags().StringVar(&sector, "sector", "", "Sector id to refresh")
	cmd.Flags().StringVar(&esURL, "es-url", "http://localhost:9200", "Elasticsearch URL")
	cmd.Flags().StringVar(&index, "index", search.DefaultIndex, "Results index")
	cmd.Flags().Int64Var(&minSamples, "min-samples", 30, "Minimum indexed results required")
	cmd.Flags().StringVar(&outPath, "out", "", "Write the table here instead of stdout")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Query timeout")
	_ = cmd.MarkFlagRequired("sector")
	return cmd
}

// refreshReference replaces the overall quartiles of sector with stats,
// keeping any dimension data and leader score already in table.
func refreshReference(table *benchmark.Table, sector, name string, stats search.SectorStats) (benchmark.Reference, error) {
	ref, err := table.Reference(sector)
	if err != nil && !stderrors.Is(err, benchmark.ErrNoBenchmarkData) {
		return benchmark.Reference{}, err
	}
	if err != nil {
		ref = benchmark.Reference{Sector: sector, Name: name}
	}

	leader := ref.Overall.Leader
	if leader == 0 {
		leader = benchmark.DefaultLeader
	}
	top := round1(stats.TopQuartile)
	ref.Overall = benchmark.Stats{
		Average:        round1(stats.Average),
		TopQuartile:    top,
		BottomQuartile: round1(stats.BottomQuartile),
		Leader:         math.Max(leader, top),
	}
	ref.SampleSize = fmt.Sprintf("%d assessments", stats.Count)
	ref.Source = "indexed assessment results"
	return ref, nil
}

func writeTable(stdout io.Writer, path string, table *benchmark.Table) error {
	if path == "" {
		return table.Encode(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := table.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
