package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ragdesk/ragdesk/internal/adapters/driving/tui"
	"github.com/ragdesk/ragdesk/internal/core/domain"
)

var chatTUI bool

var chatCmd = &cobra.Command{
	Use:   "chat [question]",
	Short: "Ask a question against the knowledge base",
	Long: `Answers a single question from the ingested documents, citing the
source file and page of every chunk used. With --tui an interactive
chat session opens instead.`,
	Args: cobra.ArbitraryArgs,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatTUI, "tui", false, "open an interactive chat session")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if err := initServices(); err != nil {
		return err
	}

	if chatTUI {
		return tui.Run(agent)
	}

	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		return errors.New("provide a question, or use --tui for an interactive session")
	}

	answer, err := agent.Chat(context.Background(), question)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyQuestion) {
			return errors.New("question cannot be empty")
		}
		return fmt.Errorf("chat failed: %w", err)
	}

	cmd.Println(answer.Text)

	if len(answer.Sources) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, src := range answer.Sources {
			cmd.Printf("  [%d] %s, page %d\n", src.Rank, src.File, src.Page)
		}
	}
	if answer.Extractive {
		cmd.Println()
		cmd.Println("(verbatim excerpt; no synthesis provider configured or available)")
	}

	return nil
}
