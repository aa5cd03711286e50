package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"barcoded/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent render requests, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			stdout := cmd.OutOrStdout()
			if !cfg.History.Enabled {
				fmt.Fprintln(stdout, "History journal is disabled")
				return nil
			}
			if _, err := os.Stat(cfg.History.Path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintln(stdout, "No requests recorded")
				return nil
			}

			store, err := history.Open(cfg.History.Path)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			records, err := store.List(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Fprintln(stdout, "No requests recorded")
				return nil
			}
			fmt.Fprint(stdout, renderTable(historyColumns, historyRows(records)))
			fmt.Fprintln(stdout)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of requests to show (0 for all)")
	return cmd
}

var historyColumns = []tableColumn{
	{Header: "ID", Align: alignRight},
	{Header: "When"},
	{Header: "Outcome"},
	{Header: "Output", MaxWidth: 48},
	{Header: "Data"},
	{Header: "Took", Align: alignRight},
	{Header: "Error", MaxWidth: 48},
}

func historyRows(records []history.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		output := rec.OutputPath
		if output == "" {
			output = rec.TargetDir + "/" + rec.Name + ".jpg"
		}
		detail := rec.ErrorKind
		if rec.ErrorMessage != "" {
			detail = rec.ErrorKind + ": " + rec.ErrorMessage
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", rec.ID),
			rec.CreatedAt.Local().Format(time.DateTime),
			string(rec.Outcome),
			output,
			truncate(rec.Data, 32),
			rec.Duration.Round(time.Millisecond).String(),
			detail,
		})
	}
	return rows
}

func truncate(value string, limit int) string {
	runes := []rune(value)
	if limit <= 3 || len(runes) <= limit {
		return value
	}
	return string(runes[:limit-3]) + "..."
}
