package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

var askJSON bool

// exitWords end an interactive ask session.
var exitWords = map[string]bool{"sair": true, "exit": true, "quit": true}

var askCmd = needsServices(&cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the indexed corpus",
	Long: `Retrieves context for the question from the configured index and asks
the generator to answer it. Questions that ask for a count ("quantos",
"quantidade", "número de", "liste e conte") use the counting prompt.

Without a question an interactive session starts; type 'sair' to leave.
When the generator is unavailable the answer is a fixed apology.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAsk,
})

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	answers := services.Answers()

	if len(args) == 1 {
		return askOnce(cmd, answers, args[0])
	}

	cmd.Println("Ask a question about the corpus. Type 'sair' to leave.")
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("\nPergunta: ")
		if !scanner.Scan() {
			cmd.Println()
			return scanner.Err()
		}

		question := strings.TrimSpace(scanner.Text())
		if exitWords[strings.ToLower(question)] {
			return nil
		}
		if question == "" {
			continue
		}
		if err := askOnce(cmd, answers, question); err != nil {
			if cmd.Context().Err() != nil {
				return err
			}
			cmd.PrintErrln("Error:", err)
		}
	}
}

func askOnce(cmd *cobra.Command, answers driving.AnswerService, question string) error {
	answer, err := answers.Ask(cmd.Context(), question)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("\nResposta: %s\n", answer.Text)
	if len(answer.Sources) > 0 {
		cmd.Println("\nSources:")
		for _, s := range answer.Sources {
			cmd.Printf("  - %s\n", s)
		}
	}
	return nil
}
