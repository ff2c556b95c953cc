package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/loqalabs/loqa-dictate/internal/eventstore"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent utterances from the journal",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of utterances to show")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print JSON lines")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := context.Background()
	store, err := eventstore.Open(ctx, cfg.EventStore, quietLogger())
	if err != nil {
		return err
	}
	defer store.Close()

	recs, err := store.ListUtterances(ctx, historyLimit)
	if err != nil {
		return fmt.Errorf("list utterances: %w", err)
	}
	out := cmd.OutOrStdout()
	if historyJSON {
		enc := json.NewEncoder(out)
		for _, rec := range recs {
			if err := enc.Encode(rec); err != nil {
				return err
			}
		}
		return nil
	}
	if len(recs) == 0 {
		fmt.Fprintln(out, "no utterances recorded")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tMODE\tOUTCOME\tTEXT")
	for _, rec := range recs {
		text := rec.InjectedText
		if text == "" {
			text = rec.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rec.FinishedAt.Local().Format("2006-01-02 15:04:05"), rec.Mode, rec.Outcome, text)
	}
	return tw.Flush()
}
