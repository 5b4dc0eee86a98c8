// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/dimensions-go/internal/analyze"
	"github.com/pdiddy/dimensions-go/internal/dsl"
	"github.com/pdiddy/dimensions-go/internal/history"
	"github.com/pdiddy/dimensions-go/pkg/types"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [query-file]",
	Short: "Compute frequency reports over stored results",
	Long: `Analyze computes frequency reports (most common journals, authors,
countries, institutions) over a saved query file or a history entry.
Reports need the relevant columns in the stored projection: journal
reports need journal.title, the others need authors with affiliations.`,
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("report", "journals", "report to compute: journals, authors, countries, or institutions")
	analyzeCmd.Flags().Int("top", 10, "number of entries per report")
	analyzeCmd.Flags().Int64("history-id", 0, "analyze a history entry instead of a query file")
	analyzeCmd.Flags().Bool("json", false, "output the report as JSON")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	rs, err := analysisInput(cmd, args)
	if err != nil {
		return err
	}
	if rs.Len() == 0 {
		return fmt.Errorf("no rows to analyze")
	}

	name, _ := cmd.Flags().GetString("report")
	topN, _ := cmd.Flags().GetInt("top")
	report, err := analyze.ByName(rs, name, topN)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return analyze.FormatJSON(report, os.Stdout)
	}
	analyze.FormatTable(report, os.Stdout)
	return nil
}

// analysisInput loads the result set to analyze from either a saved
// query file argument or a --history-id.
func analysisInput(cmd *cobra.Command, args []string) (*types.ResultSet, error) {
	historyID, _ := cmd.Flags().GetInt64("history-id")

	switch {
	case historyID != 0 && len(args) > 0:
		return nil, fmt.Errorf("provide either a query file or --history-id, not both")
	case historyID != 0:
		store, err := history.NewStore(historyConfig())
		if err != nil {
			return nil, err
		}
		defer store.Close()
		_, rs, err := store.Get(context.Background(), historyID)
		return rs, err
	case len(args) == 1:
		qf, err := dsl.ReadQueryFile(args[0])
		if err != nil {
			return nil, err
		}
		if qf.Results == nil {
			return nil, fmt.Errorf("query file %s has no results: execute and save it first", args[0])
		}
		return qf.Results, nil
	default:
		return nil, fmt.Errorf("provide a saved query file or --history-id")
	}
}
