// cmd/tools/assessctl/root.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"assessment-workers/internal/assessment/benchmark"
	"assessment-workers/internal/assessment/catalog"
	"assessment-workers/internal/assessment/engine"
	"assessment-workers/internal/common/logger"
)

var version = "dev"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	catalogPath   string
	benchmarkPath string
	defaultSector string
	debug         bool
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "assessctl",
		Short: "Score, validate and inspect AI readiness assessments",
		Long: `assessctl runs the assessment scoring engine offline.

It scores response files, checks catalogs and benchmark tables, classifies
scores and maintains the activity registry used by the worker manager.

Exit codes: 0 success, 1 validation failure, 2 configuration or runtime error.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.catalogPath, "catalog", "", "Question catalog YAML (default: embedded catalog)")
	flags.StringVar(&opts.benchmarkPath, "benchmarks", "", "Benchmark table YAML (default: embedded table)")
	flags.StringVar(&opts.defaultSector, "default-sector", engine.DefaultSector, "Sector used when none is given")
	flags.BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(newScoreCommand(opts))
	cmd.AddCommand(newValidateCommand(opts))
	cmd.AddCommand(newCatalogCommand(opts))
	cmd.AddCommand(newBenchmarkCommand(opts))
	cmd.AddCommand(newClassifyCommand(opts))
	cmd.AddCommand(newRegistryCommand(opts))

	return cmd
}

func execute() error {
	return newRootCommand().Execute()
}

func (o *rootOptions) logger(cmd *cobra.Command) logger.Logger {
	level := "warn"
	if o.debug {
		level = "debug"
	}
	return logger.NewWriter(cmd.ErrOrStderr(), level, "console")
}

func (o *rootOptions) loadCatalog() (*catalog.Catalog, error) {
	if o.catalogPath == "" {
		return catalog.Default()
	}
	return catalog.LoadFile(o.catalogPath)
}

func (o *rootOptions) loadBenchmarks() (*benchmark.Table, error) {
	if o.benchmarkPath == "" {
		return benchmark.Default()
	}
	return benchmark.LoadFile(o.benchmarkPath)
}

func (o *rootOptions) loadEngine(cmd *cobra.Command) (*engine.Engine, error) {
	log := o.logger(cmd)

	cat, err := o.loadCatalog()
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	table, err := o.loadBenchmarks()
	if err != nil {
		return nil, fmt.Errorf("load benchmarks: %w", err)
	}
	eng, err := engine.New(engine.Config{
		Catalog:       cat,
		Benchmarks:    table,
		DefaultSector: o.defaultSector,
	}, log)
	if err != nil {
		return nil, err
	}

	log.Debug("engine loaded", map[string]interface{}{
		"catalogVersion":   cat.Version(),
		"benchmarkVersion": table.Version(),
	})
	return eng, nil
}
