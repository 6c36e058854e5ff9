package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent question/answer exchanges",
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "maximum number of exchanges (default from config)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}

	convs, err := agent.History(context.Background(), historyLimit)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if historyJSON {
		data, err := json.MarshalIndent(convs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal history: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(convs) == 0 {
		cmd.Println("No conversations yet.")
		return nil
	}

	for _, conv := range convs {
		cmd.Printf("[%s] Q: %s\n", conv.CreatedAt.Format("2006-01-02 15:04"), conv.Question)
		cmd.Printf("           A: %s\n", conv.Answer)
		cmd.Println()
	}

	return nil
}
