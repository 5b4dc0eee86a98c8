// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pdiddy/dimensions-go/internal/dsl"
	"github.com/pdiddy/dimensions-go/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect previously executed queries",
	Long: `History manages the local SQLite record of executed queries. Use
subcommands to list recent runs, show a stored result set, search past
queries by topic, or export the history to YAML and JSON.`,
}

// --- list subcommand ---

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent query runs, newest first",
	RunE:  runHistoryList,
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	store, err := history.NewStore(historyConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	n, _ := cmd.Flags().GetInt("max-results")
	entries, err := store.List(context.Background(), n)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatEntries(entries, jsonOutput)
}

// --- show subcommand ---

var historyShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a stored query run and its result set",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid history id %q", args[0])
	}

	store, err := history.NewStore(historyConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	entry, rs, err := store.Get(context.Background(), id)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		return dsl.FormatJSON(rs, os.Stdout)
	}

	fmt.Printf("#%d  %s\n%s\n\n", entry.ID, entry.ExecutedAt.Format("2006-01-02 15:04"), entry.DSL)
	dsl.FormatTable(rs, os.Stdout)
	return nil
}

// --- search subcommand ---

var historySearchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search past queries by topic or query text",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runHistorySearch,
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	store, err := history.NewStore(historyConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	n, _ := cmd.Flags().GetInt("max-results")
	entries, err := store.Search(context.Background(), strings.Join(args, " "), n)
	if err != nil {
		return err
	}

	jsonOutput, _ := cmd.Flags().GetBool("json")
	return formatEntries(entries, jsonOutput)
}

// --- export subcommand ---

var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the query history to YAML and JSON files",
	RunE:  runHistoryExport,
}

func runHistoryExport(cmd *cobra.Command, args []string) error {
	store, err := history.NewStore(historyConfig())
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.ExportYAML(ctx); err != nil {
		return err
	}
	if err := store.ExportJSON(ctx); err != nil {
		return err
	}
	fmt.Fprintln(os.Stderr, "Exported history to export.yaml and export.json")
	return nil
}

func formatEntries(entries []history.Entry, jsonOutput bool) error {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No history entries.")
		return nil
	}

	fmt.Printf("%-5s  %-16s  %-40s  %-6s  %s\n", "ID", "Executed", "Topic", "Rows", "Total")
	fmt.Println(strings.Repeat("-", 84))
	for _, e := range entries {
		topic := e.Topic
		if len(topic) > 40 {
			topic = topic[:37] + "..."
		}
		fmt.Printf("%-5d  %-16s  %-40s  %-6d  %d\n",
			e.ID, e.ExecutedAt.Format("2006-01-02 15:04"), topic, e.Rows, e.Total)
	}
	return nil
}

func init() {
	historyListCmd.Flags().Int("max-results", 0, "maximum number of entries to list (default 20)")
	historyListCmd.Flags().Bool("json", false, "output entries as JSON")
	historyShowCmd.Flags().Bool("json", false, "output the result set as JSON")
	historySearchCmd.Flags().Int("max-results", 0, "maximum number of entries to list (default 20)")
	historySearchCmd.Flags().Bool("json", false, "output entries as JSON")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historySearchCmd)
	historyCmd.AddCommand(historyExportCmd)
	rootCmd.AddCommand(historyCmd)
}
