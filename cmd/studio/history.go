package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/shouni/gemini-content-studio/pkg/domain"

	"github.com/spf13/cobra"
)

var historyJSON bool

var historyCmd = &cobra.Command{
	Use:   "history <category>",
	Short: "List recent generations of a category, newest first",
	Long: `List the recent generations recorded for a category.

History lives in memory unless history.path points to a SQLite file.`,
	Args: cobra.ExactArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Print entries as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	kind, err := domain.ParseKind(args[0])
	if err != nil {
		return err
	}
	svc, closeFn, err := newService(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	entries := svc.History(cmd.Context(), kind)
	out := cmd.OutOrStdout()
	if historyJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	printHistory(out, kind, entries)
	return nil
}

func printHistory(w io.Writer, kind domain.Kind, entries []domain.HistoryEntry) {
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render(string(kind)), labelStyle.Render(fmt.Sprintf("%d entries", len(entries))))
	for _, e := range entries {
		done := 0
		for _, r := range e.Items {
			if r.Status == domain.StatusDone {
				done++
			}
		}
		title := e.Plan.Title
		if title == "" {
			title = e.ID
		}
		fmt.Fprintf(w, "%s %s %s\n",
			labelStyle.Render(e.CreatedAt.Format("2006-01-02 15:04")),
			title,
			labelStyle.Render(fmt.Sprintf("%d/%d", done, len(e.Items))),
		)
	}
}
