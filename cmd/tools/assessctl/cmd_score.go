// cmd/tools/assessctl/cmd_score.go
package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"assessment-workers/internal/assessment/validator"
	"assessment-workers/internal/models"
)

// responseFile accepts either a bare {"dm_1": 3, ...} map or an object with
// "sector" and "responses" keys.
type responseFile struct {
	Sector    string                 `json:"sector"`
	Responses map[string]interface{} `json:"responses"`
}

func readResponses(path string) (responseFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return responseFile{}, fmt.Errorf("read responses: %w", err)
	}

	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return responseFile{}, fmt.Errorf("decode responses %s: %w", path, err)
	}

	nested, ok := raw["responses"].(map[string]interface{})
	if !ok {
		return responseFile{Responses: raw}, nil
	}
	out := responseFile{Responses: nested}
	if s, ok := raw["sector"].(string); ok {
		out.Sector = s
	}
	return out, nil
}

func newScoreCommand(opts *rootOptions) *cobra.Command {
	var (
		sector        string
		responsesPath string
		format        string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Score a completed response file",
		Long: `Score a completed response file and print the assessment result.

The file is JSON: either a map of question id to answer, or an object with
"sector" and "responses" keys. --sector overrides the sector in the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("unknown format %q: want table or json", format)
			}
			eng, err := opts.loadEngine(cmd)
			if err != nil {
				return err
			}
			file, err := readResponses(responsesPath)
			if err != nil {
				return err
			}
			if sector != "" {
				file.Sector = sector
			}

			result, err := eng.Score(file.Sector, file.Responses)
			if err != nil {
				return asValidationFailure(err)
			}

			if format == "json" {
				return writeJSON(cmd.OutOrStdout(), result)
			}
			return writeResultTable(cmd.OutOrStdout(), result)
		},
	}
	cmd.Flags().StringVar(&sector, "sector", "", "Sector id (default: file sector, then the default sector)")
	cmd.Flags().StringVar(&responsesPath, "responses", "", "Response file (JSON)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table | json")
	_ = cmd.MarkFlagRequired("responses")
	return cmd
}

func newValidateCommand(opts *rootOptions) *cobra.Command {
	var (
		sector        string
		responsesPath string
		partial       bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a response file against the catalog",
		Long: `Check a response file against the catalog for its sector.

With --partial, missing answers are allowed and only range and unknown
question problems are reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := opts.loadEngine(cmd)
			if err != nil {
				return err
			}
			file, err := readResponses(responsesPath)
			if err != nil {
				return err
			}
			if sector != "" {
				file.Sector = sector
			}

			resolved := eng.ResolveSector(file.Sector)
			accepted, err := eng.Validate(file.Sector, file.Responses, partial)
			out := cmd.OutOrStdout()

			var verr *validator.ValidationError
			if stderrors.As(err, &verr) {
				for _, issue := range verr.Issues {
					fmt.Fprintf(out, "  %-20s %s\n", issue.QuestionID, issue.Reason)
				}
				return &ValidationFailedError{Message: fmt.Sprintf("%d invalid responses for sector %s", len(verr.Issues), verr.Sector)}
			}
			if err != nil {
				return err
			}

			progress, err := eng.ProgressOf(resolved, accepted)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "valid: %d of %d questions answered for sector %s\n",
				progress.Answered, progress.Total, resolved)
			return nil
		},
	}
	cmd.Flags().StringVar(&sector, "sector", "", "Sector id (default: file sector, then the default sector)")
	cmd.Flags().StringVar(&responsesPath, "responses", "", "Response file (JSON)")
	cmd.Flags().BoolVar(&partial, "partial", false, "Allow unanswered questions")
	_ = cmd.MarkFlagRequired("responses")
	return cmd
}

// asValidationFailure maps rejected responses to exit code 1. Other errors
// (unknown sector, bad catalog) stay runtime errors.
func asValidationFailure(err error) error {
	var verr *validator.ValidationError
	if stderrors.As(err, &verr) {
		return &ValidationFailedError{Message: verr.Error()}
	}
	return err
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeResultTable(w io.Writer, r models.AssessmentResult) error {
	fmt.Fprintf(w, "Sector:          %s (%s)\n", r.SectorName, r.Sector)
	fmt.Fprintf(w, "Overall score:   %d/100\n", r.OverallScore)
	fmt.Fprintf(w, "Maturity level:  %s\n", r.MaturityLevel.Name)
	fmt.Fprintf(w, "Grade:           %s\n", r.Grade)
	if r.Benchmark != nil {
		fmt.Fprintf(w, "Percentile:      %d (%s)\n", r.Benchmark.Percentile, r.Benchmark.Position)
	} else {
		fmt.Fprintln(w, "Percentile:      n/a (no benchmark for sector)")
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "DIMENSION\tWEIGHT\tSCORE\tCONTRIBUTION")
	for _, ds := range r.DimensionScores {
		fmt.Fprintf(tw, "%s\t%.2f\t%.1f\t%.2f\n", ds.Label, ds.Weight, ds.Score, ds.WeightedContribution)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Recommendations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Recommendations:")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(w, "  - %s\n", rec)
		}
	}
	if len(r.TopImprovements) > 0 {
		fmt.Fprintf(w, "\nFocus areas: %s\n", strings.Join(r.TopImprovements, ", "))
	}
	return nil
}
