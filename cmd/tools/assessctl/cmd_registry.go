// cmd/tools/assessctl/cmd_registry.go
package main

import (
	stderrors "errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"assessment-workers/pkg/registry"
)

func newRegistryCommand(_ *rootOptions) *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Maintain the activity registry read by the worker manager",
	}
	cmd.PersistentFlags().StringVar(&path, "file", registry.DefaultPath, "Path to registry file")

	cmd.AddCommand(newRegistryValidateCommand(&path))
	cmd.AddCommand(newRegistryListCommand(&path))
	cmd.AddCommand(newRegistryAddCommand(&path))
	cmd.AddCommand(newRegistryUpdateCommand(&path))
	return cmd
}

func newRegistryValidateCommand(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check ids, task types, timeouts and input schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return fmt.Errorf("load registry: %w", err)
			}
			err = reg.Validate()
			var invalid *registry.InvalidRegistryError
			if stderrors.As(err, &invalid) {
				for _, p := range invalid.Problems {
					fmt.Fprintf(cmd.OutOrStdout(), "  - %s\n", p)
				}
				return &ValidationFailedError{Message: fmt.Sprintf("registry %s has %d problems", *path, len(invalid.Problems))}
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registry %s OK: %d activities\n", *path, len(reg.Activities))
			return nil
		},
	}
}

func newRegistryListCommand(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return fmt.Errorf("load registry: %w", err)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TASK TYPE\tSTATUS\tVERSION\tTIMEOUT\tRETRIES")
			for _, tt := range reg.TaskTypes() {
				a, _ := reg.Find(tt)
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", a.TaskType, a.ImplementationStatus, a.Version, a.Timeout, a.Retries)
			}
			return tw.Flush()
		},
	}
}

func newRegistryAddCommand(path *string) *cobra.Command {
	a := registry.Activity{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return fmt.Errorf("load registry: %w", err)
			}
			if a.TaskType == "" {
				a.TaskType = a.ID
			}
			a.InputSchema = map[string]interface{}{}
			a.OutputSchema = map[string]interface{}{}
			a.ErrorCodes = []string{}
			a.Workflows = []string{}
			a.Tags = []string{}

			if err := reg.Add(a, time.Now()); err != nil {
				return err
			}
			if err := reg.Validate(); err != nil {
				return &ValidationFailedError{Message: err.Error()}
			}
			if err := registry.Save(reg, *path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added activity: %s\n", a.ID)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&a.ID, "id", "", "Activity ID (e.g. score-assessment)")
	f.StringVar(&a.DisplayName, "display-name", "", "Display name")
	f.StringVar(&a.Description, "description", "", "Description")
	f.StringVar(&a.Category, "category", "assessment", "Category")
	f.StringVar(&a.TaskType, "task-type", "", "Zeebe task type (default: the id)")
	f.StringVar(&a.Version, "version", "1.0.0", "Version")
	f.StringVar(&a.ImplementationStatus, "status", registry.StatusPlanned, "planned | in-progress | completed | verified")
	f.StringVar(&a.Timeout, "timeout", "10s", "Job timeout")
	f.IntVar(&a.Retries, "retries", 3, "Job retries")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("display-name")
	return cmd
}

func newRegistryUpdateCommand(path *string) *cobra.Command {
	var id, field, value string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change one field of a registered activity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return fmt.Errorf("load registry: %w", err)
			}
			if err := reg.Update(id, field, value, time.Now()); err != nil {
				return err
			}
			if err := registry.Save(reg, *path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated %s.%s = %s\n", id, field, value)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "Activity ID")
	cmd.Flags().StringVar(&field, "field", "", "status | version | displayName | description | category | timeout | retries")
	cmd.Flags().StringVar(&value, "value", "", "New value")
	_ = cmd.MarkFlagRequired("id")
	_ = cmd.MarkFlagRequired("field")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}
