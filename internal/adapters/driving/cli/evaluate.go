package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

var (
	evalSizes    []int
	evalOverlaps []int
	evalK        []int
	evalReuse    bool
	evalJSON     bool
	evalTop      int
)

var evaluateCmd = needsServices(&cobra.Command{
	Use:   "evaluate",
	Short: "Sweep chunking parameters and score retrieval accuracy",
	Long: `Builds one index per (chunk size, overlap) pair and scores every
evaluation question at each k. A question passes when its expected text
appears, ignoring case, in the retrieved chunks.

Pairs whose overlap is not smaller than the chunk size are skipped.
Index directories are left on disk after the sweep; remove them with
'sercha-rag index prune'.`,
	Args: cobra.NoArgs,
	RunE: runEvaluate,
})

func init() {
	evaluateCmd.Flags().IntSliceVar(&evalSizes, "sizes", nil, "chunk sizes (default from config)")
	evaluateCmd.Flags().IntSliceVar(&evalOverlaps, "overlaps", nil, "chunk overlaps (default from config)")
	evaluateCmd.Flags().IntSliceVar(&evalK, "k", nil, "top-k values (default from config)")
	evaluateCmd.Flags().BoolVar(&evalReuse, "reuse", false, "reuse indexes already on disk")
	evaluateCmd.Flags().BoolVar(&evalJSON, "json", false, "output all results as JSON")
	evaluateCmd.Flags().IntVarP(&evalTop, "top", "n", 10, "number of results to print")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, _ []string) error {
	settings := services.Settings()
	grid := driving.SweepGrid{
		ChunkSizes:    settings.Sweep.ChunkSizes,
		ChunkOverlaps: settings.Sweep.ChunkOverlaps,
		TopK:          settings.Sweep.TopK,
	}
	if cmd.Flags().Changed("sizes") {
		grid.ChunkSizes = evalSizes
	}
	if cmd.Flags().Changed("overlaps") {
		grid.ChunkOverlaps = evalOverlaps
	}
	if cmd.Flags().Changed("k") {
		grid.TopK = evalK
	}

	evaluator := services.Evaluator(evalReuse, sweepProgress(evalJSON))
	results, err := evaluator.Evaluate(cmd.Context(), grid)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	if evalJSON {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal results: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	outputResults(cmd, results, evalTop)
	cmd.Println()
	cmd.Printf("Index directories were left under %s.\n", settings.Index.Root)
	cmd.Println("Run 'sercha-rag index prune' to remove them.")
	return nil
}

// sweepProgress reports sweep transitions unless output is machine-readable.
func sweepProgress(quiet bool) func(domain.SweepEvent) {
	if quiet {
		return nil
	}
	return func(ev domain.SweepEvent) {
		switch ev.Phase {
		case domain.SweepBuilding:
			logger.Progress("Building %s", ev.Run)
		case domain.SweepScoring:
			logger.Progress("  k=%d accuracy=%.2f%%", ev.K, ev.Accuracy)
		case domain.SweepSkipped:
			logger.Progress("Skipped %s: %v", ev.Run, ev.Err)
		default:
		}
	}
}

func outputResults(cmd *cobra.Command, results []domain.EvaluationResult, top int) {
	if len(results) == 0 {
		cmd.Println("No configuration could be evaluated.")
		return
	}
	if top > 0 && top < len(results) {
		results = results[:top]
	}

	if isTerminal(cmd.OutOrStdout()) {
		s := styles.DefaultStyles()
		cmd.Println(s.Title.Render(fmt.Sprintf("Top %d configurations", len(results))))
		cmd.Println(s.ResultsTable(results))
		return
	}

	cmd.Printf("Top %d configurations:\n", len(results))
	for i, r := range results {
		cmd.Printf("  %2d. size=%d overlap=%d k=%d accuracy=%.2f%%\n",
			i+1, r.ChunkSize, r.ChunkOverlap, r.K, r.Accuracy)
	}
}
