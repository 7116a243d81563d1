package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clde-code/polycopy/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect a JSONL trade journal",
	Long: `Journal summarizes a JSONL journal file written by a previous run:
how many executions were attempted, how many filled, how many failed.

Example:
  polycopy journal -f journal.jsonl`,
	RunE: runJournal,
}

var journalPath string

func init() {
	rootCmd.AddCommand(journalCmd)

	journalCmd.Flags().StringVarP(&journalPath, "file", "f", "journal.jsonl", "path to JSONL journal")
}

func runJournal(cmd *cobra.Command, args []string) error {
	stats, err := journal.ReadStats(journalPath)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Executions: %d\n", stats.Total)
	fmt.Fprintf(out, "Filled:     %d\n", stats.Successful)
	fmt.Fprintf(out, "Failed:     %d\n", stats.Failed)
	return nil
}
