package cli

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	debugSize    int
	debugOverlap int
	debugK       int
	debugJSON    bool
)

var debugCmd = needsServices(&cobra.Command{
	Use:   "debug",
	Short: "Rebuild one configuration and show every failing question",
	Long: `Rebuilds the index for a single chunk size and overlap, retrieves k
chunks for every evaluation question and prints the chunks of each
question whose expected text was not found.

The index is always rebuilt. Defaults come from the [debug] config table.`,
	Args: cobra.NoArgs,
	RunE: runDebug,
})

func init() {
	debugCmd.Flags().IntVar(&debugSize, "size", 0, "chunk size (default from config)")
	debugCmd.Flags().IntVar(&debugOverlap, "overlap", 0, "chunk overlap (default from config)")
	debugCmd.Flags().IntVar(&debugK, "k", 0, "chunks retrieved per question (default from config)")
	debugCmd.Flags().BoolVar(&debugJSON, "json", false, "output the report as JSON")
	rootCmd.AddCommand(debugCmd)
}

func runDebug(cmd *cobra.Command, _ []string) error {
	cfg := services.Settings().Debug
	run := cfg.Run()
	k := cfg.K
	if cmd.Flags().Changed("size") {
		run.ChunkSize = debugSize
	}
	if cmd.Flags().Changed("overlap") {
		run.ChunkOverlap = debugOverlap
	}
	if cmd.Flags().Changed("k") {
		k = debugK
	}

	report, err := services.Debugger().Debug(cmd.Context(), run, k)
	if err != nil {
		return fmt.Errorf("debug failed: %w", err)
	}

	if debugJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	outputReport(cmd, report)
	return nil
}

func outputReport(cmd *cobra.Command, report *domain.DebugReport) {
	cmd.Printf("Debugging %s with k=%d\n", report.Run, report.K)
	cmd.Println()

	for _, o := range report.Outcomes {
		if o.Passed {
			cmd.Printf("[PASS] %d. %s\n", o.Index+1, o.Question)
			continue
		}

		cmd.Println(strings.Repeat("=", 60))
		cmd.Printf("[FAIL] %d. %s\n", o.Index+1, o.Question)
		cmd.Printf("Expected: %q\n", o.ExpectedText)
		if len(o.Retrieved) == 0 {
			cmd.Println("No chunks retrieved.")
		}
		for i, c := range o.Retrieved {
			cmd.Printf("--- Chunk %d: %s\n", i+1, c.Location())
			printMetadata(cmd, c.Metadata)
			cmd.Println(c.Content)
		}
		cmd.Println(strings.Repeat("=", 60))
	}

	cmd.Println()
	cmd.Printf("Accuracy: %.2f%% (%d/%d)\n", report.Accuracy, report.Successes, report.Total)
}

// printMetadata writes a chunk's metadata one key per line, sorted by key.
func printMetadata(cmd *cobra.Command, meta domain.Metadata) {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		cmd.Printf("  %s: %s\n", k, meta[k])
	}
}
