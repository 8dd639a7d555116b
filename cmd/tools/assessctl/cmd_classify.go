// cmd/tools/assessctl/cmd_classify.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"assessment-workers/internal/assessment/maturity"
)

func newClassifyCommand(opts *rootOptions) *cobra.Command {
	var score float64

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Map a 0-100 score to its maturity level and grade",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := opts.loadEngine(cmd)
			if err != nil {
				return err
			}
			level, err := eng.Classifier().Classify(score)
			if err != nil {
				return &ValidationFailedError{Message: err.Error()}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (level %d, %g-%g) grade %s\n",
				level.Name, level.Ordinal, level.Lower, level.Upper, maturity.Grade(score))
			if level.Description != "" {
				fmt.Fprintln(cmd.OutOrStdout(), level.Description)
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&score, "score", 0, "Score between 0 and 100")
	_ = cmd.MarkFlagRequired("score")
	return cmd
}
