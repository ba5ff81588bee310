package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui"
)

var (
	exploreK       int
	exploreSize    int
	exploreOverlap int
)

// runTUI starts the program. Tests replace it to avoid a terminal.
var runTUI = func(app *tui.App) error {
	return app.Run()
}

var exploreCmd = needsServices(&cobra.Command{
	Use:   "explore",
	Short: "Launch the interactive retrieval explorer",
	Long: `Launch an interactive terminal UI for one index: type a question,
browse the retrieved chunks, open any chunk in full and generate an answer
from them.

Controls:
  Enter    - Retrieve / Open chunk
  ↑/k, ↓/j - Navigate chunks
  a        - Generate an answer
  n        - New query
  Esc      - Back
  ?        - Help
  q        - Quit`,
	Args: cobra.NoArgs,
	RunE: runExplore,
})

func init() {
	exploreCmd.Flags().IntVarP(&exploreK, "limit", "n", 0, "number of chunks (default top_k from config)")
	exploreCmd.Flags().IntVar(&exploreSize, "size", 0, "chunk size (default from config)")
	exploreCmd.Flags().IntVar(&exploreOverlap, "overlap", 0, "chunk overlap (default from config)")
	rootCmd.AddCommand(exploreCmd)
}

func runExplore(cmd *cobra.Command, _ []string) error {
	run := runFromFlags(cmd, exploreSize, exploreOverlap)
	k := services.Settings().TopK
	if cmd.Flags().Changed("limit") {
		k = exploreK
	}

	retriever := services.Retriever(run)
	defer retriever.Close() //nolint:errcheck

	if err := retriever.EnsureReady(cmd.Context()); err != nil {
		cmd.PrintErrln("Warning:", err)
	}

	app, err := tui.NewApp(&tui.Ports{
		Retriever: retriever,
		Answers:   services.Answers(),
		K:         k,
	})
	if err != nil {
		return fmt.Errorf("failed to create TUI: %w", err)
	}
	app.WithContext(cmd.Context())

	if err := runTUI(app); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
