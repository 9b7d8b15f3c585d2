package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/woodfish/woodfish/internal/adapter/output"
	"github.com/woodfish/woodfish/internal/store"
)

var historyOpts struct {
	limit    int
	since    string
	filter   string
	reverse  bool
	template string
}

var historyCmd = &cobra.Command{
	Use:   "history [index|id]",
	Short: "Show recent changes made to settings.json",
	Long: `Show the operation journal: every import-list change, effect toggle and
uninstall woodfish made, oldest first.

With an index (1-based, after filtering) or a record ID prefix, only that
record is shown.

Filter expressions are comma-separated conditions, all of which must hold.
Fields: op, key, uri, detail, added, removed, dry_run, time.
Operators: = != ~ (contains) ~= (regex) > < >= <=.

Custom templates receive .Index, .Record (ID, Time, Op, Key, Added, Removed,
Detail, DryRun) and .RelativeTime, plus the truncate, reltime and join
functions.

Examples:
  woodfish history -l 5
  woodfish history --since 7d --filter "op=effect"
  woodfish history --filter "removed>0,dry_run=false" --reverse
  woodfish history 01HZ3X --format json
  woodfish history --template '{{.RelativeTime}} {{.Record.Op}} {{join .Record.Added ","}}'`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyOpts.limit, "limit", "l", 20,
		"Number of records to show (0 for all)")
	historyCmd.Flags().StringVar(&historyOpts.since, "since", "",
		"Only records newer than this (e.g., 1h, 7d, 1w)")
	historyCmd.Flags().StringVarP(&historyOpts.filter, "filter", "f", "",
		"Filter expression (e.g., \"op=enable,uri~glow\")")
	historyCmd.Flags().BoolVarP(&historyOpts.reverse, "reverse", "r", false,
		"Newest first")
	historyCmd.Flags().StringVar(&historyOpts.template, "template", "",
		"Go template for each plain line")
}

func runHistory(cmd *cobra.Command, args []string) error {
	since, err := store.ParseDuration(historyOpts.since)
	if err != nil {
		return fmt.Errorf("invalid --since value: %w", err)
	}
	filter, err := store.ParseFilter(historyOpts.filter)
	if err != nil {
		return fmt.Errorf("invalid --filter value: %w", err)
	}

	path, err := store.JournalPath()
	if err != nil {
		return fmt.Errorf("failed to locate journal: %w", err)
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(os.Stderr, "no history yet")
		return nil
	}

	j, err := store.OpenJournal(path)
	if err != nil {
		return err
	}
	defer j.Close()

	records, err := j.Load()
	if err != nil {
		return err
	}

	opts := store.QueryOptions{Since: since, Filter: filter, Limit: historyOpts.limit, Reverse: historyOpts.reverse}
	if len(args) == 1 {
		// Index into every match, not only the displayed tail
		opts.Limit = 0
	}
	records = store.Query(records, opts)

	if len(args) == 1 {
		r, err := store.Lookup(records, args[0])
		if err != nil {
			return err
		}
		records = []store.Record{*r}
	}

	formatter, err := newFormatter(func(o *output.FormatterOptions) {
		o.Template = historyOpts.template
	})
	if err != nil {
		return err
	}
	return formatter.History(os.Stdout, records)
}
