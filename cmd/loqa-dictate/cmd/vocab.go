package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/loqalabs/loqa-dictate/internal/eventstore"
	"github.com/loqalabs/loqa-dictate/internal/rolling"
	"github.com/spf13/cobra"
)

var vocabCmd = &cobra.Command{
	Use:   "vocab",
	Short: "Manage the user vocabulary passed to the corrector",
}

var vocabAddCmd = &cobra.Command{
	Use:   "add <heard> <correct>",
	Short: "Record a recurring transcription error and its correction",
	Long: `Adds or reinforces a correction pair. Repeating a pair raises its
frequency; the most frequent pairs are sent with every correction request.

Examples:
  loqa-dictate vocab add "ความดันสุง" "ความดันสูง"
  loqa-dictate vocab add "กูเกิ้ล" "Google"`,
	Args: cobra.ExactArgs(2),
	RunE: runVocabAdd,
}

var vocabListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vocabulary entries by frequency",
	RunE:  runVocabList,
}

func init() {
	rootCmd.AddCommand(vocabCmd)
	vocabCmd.AddCommand(vocabAddCmd, vocabListCmd)
}

func openVocabulary(ctx context.Context) (*eventstore.Store, *rolling.Store, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if cfg.EventStore.RetentionMode == "ephemeral" {
		return nil, nil, fmt.Errorf("event_store.retention_mode is ephemeral; vocabulary is not persisted")
	}
	es, err := eventstore.Open(ctx, cfg.EventStore, quietLogger())
	if err != nil {
		return nil, nil, err
	}
	entries, err := es.LoadVocabulary(ctx)
	if err != nil {
		es.Close()
		return nil, nil, fmt.Errorf("load vocabulary: %w", err)
	}
	store := rolling.NewStore(rolling.Options{})
	store.LoadVocabulary(entries)
	store.SetPersister(es)
	return es, store, nil
}

func runVocabAdd(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	es, store, err := openVocabulary(ctx)
	if err != nil {
		return err
	}
	defer es.Close()

	entry, err := store.AddVocabulary(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%q → %q (seen %d)\n", entry.Error, entry.Correction, entry.Frequency)
	return nil
}

func runVocabList(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()
	es, _, err := openVocabulary(ctx)
	if err != nil {
		return err
	}
	defer es.Close()

	entries, err := es.LoadVocabulary(ctx)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "vocabulary is empty")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HEARD\tCORRECT\tFREQ")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", e.Error, e.Correction, e.Frequency)
	}
	return tw.Flush()
}
