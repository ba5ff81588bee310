package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// previewLength caps the chunk text shown by retrieve.
const previewLength = 200

var (
	retrieveK       int
	retrieveSize    int
	retrieveOverlap int
	retrieveJSON    bool
)

var retrieveCmd = needsServices(&cobra.Command{
	Use:   "retrieve [query]",
	Short: "Show the chunks retrieved for a query",
	Long: `Retrieves the k chunks nearest to the query from one index and prints
their location and a preview of their text. The index is built first if
it does not exist.`,
	Args: cobra.ExactArgs(1),
	RunE: runRetrieve,
})

func init() {
	retrieveCmd.Flags().IntVarP(&retrieveK, "limit", "n", 0, "number of chunks (default top_k from config)")
	retrieveCmd.Flags().IntVar(&retrieveSize, "size", 0, "chunk size (default from config)")
	retrieveCmd.Flags().IntVar(&retrieveOverlap, "overlap", 0, "chunk overlap (default from config)")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output chunks as JSON")
	rootCmd.AddCommand(retrieveCmd)
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	run := runFromFlags(cmd, retrieveSize, retrieveOverlap)
	k := services.Settings().TopK
	if cmd.Flags().Changed("limit") {
		k = retrieveK
	}

	retriever := services.Retriever(run)
	defer retriever.Close() //nolint:errcheck

	if err := retriever.EnsureReady(cmd.Context()); err != nil {
		cmd.PrintErrln("Warning:", err)
	}

	chunks, err := retriever.Retrieve(cmd.Context(), args[0], k)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	if retrieveJSON {
		data, err := json.MarshalIndent(chunks, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal chunks: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	outputChunks(cmd, chunks)
	return nil
}

func outputChunks(cmd *cobra.Command, chunks []domain.Chunk) {
	if len(chunks) == 0 {
		cmd.Println("No chunks retrieved.")
		return
	}

	for i, c := range chunks {
		cmd.Printf("  [%d] %s\n", i+1, c.Location())
		cmd.Printf("      %s\n", preview(c.Content, previewLength))
		cmd.Println()
	}
}

// preview flattens whitespace and truncates text to n runes.
func preview(text string, n int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "..."
}
