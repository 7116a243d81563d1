package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/clde-code/polycopy/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print a starter configuration",
	Long: `Config prints the default configuration as YAML. Redirect it to a
file and fill in the feed and journal paths:

  polycopy config > config.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		cfg.Feed.Path = "data/trades.csv"
		cfg.Journal.Path = "journal.jsonl"

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("marshal config: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
}
