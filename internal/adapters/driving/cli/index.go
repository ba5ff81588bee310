package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

var (
	indexSize    int
	indexOverlap int
	indexForce   bool
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage index directories",
	Long: `Build, list and remove the per-configuration index directories.

Each chunk size and overlap pair is stored under
<index root>/db_size_<size>_overlap_<overlap>.`,
}

var indexBuildCmd = needsServices(&cobra.Command{
	Use:   "build",
	Short: "Build or load the index for one configuration",
	Long: `Loads the index for the configured chunk size and overlap, building it
from the corpus when it does not exist yet. Use --force to delete and
rebuild it.`,
	Args: cobra.NoArgs,
	RunE: runIndexBuild,
})

var indexListCmd = needsServices(&cobra.Command{
	Use:   "list",
	Short: "List index directories",
	Args:  cobra.NoArgs,
	RunE:  runIndexList,
})

var indexPruneCmd = needsServices(&cobra.Command{
	Use:   "prune [dir-name...]",
	Short: "Remove index directories",
	Long: `Removes the named index directories, or every index directory when
no name is given. Names look like db_size_250_overlap_150.`,
	RunE: runIndexPrune,
})

func init() {
	indexBuildCmd.Flags().IntVar(&indexSize, "size", 0, "chunk size (default from config)")
	indexBuildCmd.Flags().IntVar(&indexOverlap, "overlap", 0, "chunk overlap (default from config)")
	indexBuildCmd.Flags().BoolVarP(&indexForce, "force", "f", false, "delete and rebuild an existing index")

	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexListCmd)
	indexCmd.AddCommand(indexPruneCmd)
	rootCmd.AddCommand(indexCmd)
}

// runFromFlags overrides the configured index run with any changed flags.
func runFromFlags(cmd *cobra.Command, size, overlap int) domain.IndexRun {
	run := services.Settings().Index.Run()
	if cmd.Flags().Changed("size") {
		run.ChunkSize = size
	}
	if cmd.Flags().Changed("overlap") {
		run.ChunkOverlap = overlap
	}
	return run
}

func runIndexBuild(cmd *cobra.Command, _ []string) error {
	run := runFromFlags(cmd, indexSize, indexOverlap)
	if err := run.Validate(); err != nil {
		return err
	}

	index, err := services.Indexer().Setup(cmd.Context(), run, driving.SetupOptions{ForceRecreate: indexForce})
	if err != nil {
		return fmt.Errorf("index build failed: %w", err)
	}
	defer index.Close() //nolint:errcheck

	count, err := index.Count(cmd.Context())
	if err != nil {
		return fmt.Errorf("counting chunks: %w", err)
	}

	cmd.Printf("Index %s ready with %d chunks.\n", run.DirName(), count)
	return nil
}

func runIndexList(cmd *cobra.Command, _ []string) error {
	runs, err := services.Indexer().List()
	if err != nil {
		return fmt.Errorf("listing indexes: %w", err)
	}

	if len(runs) == 0 {
		cmd.Println("No index directories found.")
		return nil
	}

	cmd.Printf("Index directories under %s:\n", services.Settings().Index.Root)
	for _, run := range runs {
		cmd.Printf("  %s\n", run.DirName())
	}
	return nil
}

func runIndexPrune(cmd *cobra.Command, args []string) error {
	indexer := services.Indexer()

	var runs []domain.IndexRun
	if len(args) == 0 {
		all, err := indexer.List()
		if err != nil {
			return fmt.Errorf("listing indexes: %w", err)
		}
		runs = all
	}
	for _, name := range args {
		run, ok := domain.ParseIndexDirName(name)
		if !ok {
			return fmt.Errorf("%w: %q is not an index directory name", domain.ErrInvalidParameter, name)
		}
		runs = append(runs, run)
	}

	var errs []error
	for _, run := range runs {
		if err := indexer.Remove(run); err != nil {
			errs = append(errs, err)
			continue
		}
		cmd.Printf("Removed %s\n", run.DirName())
	}
	if len(runs) == 0 {
		cmd.Println("Nothing to remove.")
	}
	return errors.Join(errs...)
}
