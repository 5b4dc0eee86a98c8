// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/dimensions-go/internal/dimapi"
	"github.com/pdiddy/dimensions-go/internal/dsl"
	"github.com/pdiddy/dimensions-go/internal/history"
	"github.com/pdiddy/dimensions-go/internal/secrets"
	"github.com/pdiddy/dimensions-go/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "dimensions-go/0.1"
)

var queryCmd = &cobra.Command{
	Use:   "query",
	Short: "Build and execute an Analytics DSL query",
	Long: `Query builds a DSL query from structured parameters, executes it
against the Dimensions Analytics API, and prints a preview of the
tabular result. The run is recorded in the local history unless
--no-history is given; --save writes the query and its results to a
YAML file for later reloading.`,
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().String("topic", "", "free-text search term (required unless --load is given)")
	queryCmd.Flags().String("where", "", "filter clause in the Analytics DSL grammar")
	queryCmd.Flags().String("search", "", "record scope to search (default publications)")
	queryCmd.Flags().String("return", "", "plus-delimited return columns (default id+title)")
	queryCmd.Flags().Int("limit", 0, "maximum number of records (default 20)")
	queryCmd.Flags().String("load", "", "load query parameters from a saved query file")
	queryCmd.Flags().String("save", "", "save the query and results to a YAML file")
	queryCmd.Flags().Bool("dry-run", false, "print the DSL string without executing")
	queryCmd.Flags().Bool("json", false, "output results as JSON")
	queryCmd.Flags().Int("preview", 10, "number of rows to show in the table preview")
	queryCmd.Flags().Bool("no-history", false, "do not record this run in the history")
	queryCmd.Flags().String("api-key", "", "Dimensions API key (overrides environment and .secrets/)")
	queryCmd.Flags().String("endpoint", "", "Analytics API endpoint (default https://app.dimensions.ai)")
	queryCmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")

	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	spec, err := specFromFlags(cmd)
	if err != nil {
		return err
	}

	q, err := dsl.NewQuery(spec)
	if err != nil {
		var invalid *dsl.InvalidArgumentError
		if errors.As(err, &invalid) && invalid.Field == "topic" {
			return fmt.Errorf("%w (set --topic or --load a saved query)", err)
		}
		return err
	}

	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		fmt.Println(q.String())
		return nil
	}

	client, err := buildClient(cmd)
	if err != nil {
		return err
	}

	ctx := context.Background()
	rs, err := q.Execute(ctx, client)
	if err != nil {
		return err
	}

	if noHistory, _ := cmd.Flags().GetBool("no-history"); !noHistory {
		if err := recordHistory(ctx, q, rs); err != nil {
			fmt.Fprintf(os.Stderr, "warning: history not recorded: %v\n", err)
		}
	}

	if savePath, _ := cmd.Flags().GetString("save"); savePath != "" {
		if err := dsl.WriteQueryFile(savePath, q); err != nil {
			return fmt.Errorf("saving query file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Saved query to %s\n", savePath)
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return dsl.FormatJSON(rs, os.Stdout)
	}

	previewN, _ := cmd.Flags().GetInt("preview")
	dsl.FormatTable(rs.Preview(previewN), os.Stdout)
	if rs.Len() > previewN {
		fmt.Printf("(showing first %d of %d fetched rows)\n", previewN, rs.Len())
	}
	return nil
}

// specFromFlags assembles the query spec from flags, a loaded query
// file, and configured defaults, in that precedence order.
func specFromFlags(cmd *cobra.Command) (dsl.Spec, error) {
	var spec dsl.Spec

	if loadPath, _ := cmd.Flags().GetString("load"); loadPath != "" {
		qf, err := dsl.ReadQueryFile(loadPath)
		if err != nil {
			return spec, err
		}
		spec = qf.Query.ToSpec()
	}

	if v, _ := cmd.Flags().GetString("topic"); v != "" {
		spec.Topic = v
	}
	if v, _ := cmd.Flags().GetString("where"); v != "" {
		spec.Where = v
	}
	if v, _ := cmd.Flags().GetString("search"); v != "" {
		spec.Search = v
	}
	if v, _ := cmd.Flags().GetString("return"); v != "" {
		spec.ReturnCols = v
	}
	if v, _ := cmd.Flags().GetInt("limit"); v != 0 {
		spec.Limit = v
	}

	// Config-file defaults fill remaining gaps; dsl.NewQuery applies the
	// built-in defaults after that.
	if spec.Search == "" {
		spec.Search = viper.GetString("query.search")
	}
	if spec.ReturnCols == "" {
		spec.ReturnCols = viper.GetString("query.return_cols")
	}
	if spec.Limit == 0 {
		spec.Limit = viper.GetInt("query.limit")
	}

	return spec, nil
}

// buildClient constructs an authenticated Analytics API client.
func buildClient(cmd *cobra.Command) (*dimapi.Client, error) {
	endpoint, _ := cmd.Flags().GetString("endpoint")
	if endpoint == "" {
		endpoint = viper.GetString("api.endpoint")
	}
	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = viper.GetDuration("api.timeout")
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}

	cfg := types.APIConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		Endpoint:   endpoint,
		MaxRetries: viper.GetInt("api.max_retries"),
	}

	explicitKey, _ := cmd.Flags().GetString("api-key")
	apiKey := secrets.ResolveAPIKey(explicitKey, secretsDir)
	if apiKey == "" {
		return nil, fmt.Errorf("no API key found: set --api-key, DIMENSIONS_API_KEY, or .secrets/dimensions-api-key")
	}

	client := dimapi.NewClient(cfg)
	if err := client.Login(context.Background(), apiKey); err != nil {
		return nil, err
	}
	return client, nil
}

func recordHistory(ctx context.Context, q *dsl.Query, rs *types.ResultSet) error {
	store, err := history.NewStore(historyConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	_, err = store.Record(ctx, q, rs)
	return err
}

func historyConfig() types.HistoryConfig {
	dir := viper.GetString("history.history_dir")
	if dir == "" {
		dir = "history"
	}
	return types.HistoryConfig{
		HistoryDir: dir,
		MaxResults: viper.GetInt("history.max_results"),
	}
}
