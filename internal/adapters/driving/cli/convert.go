package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var convertOutput string

var convertCmd = &cobra.Command{
	Use:   "convert [url|file]",
	Short: "Convert a web page or file into a corpus JSON document",
	Long: `Fetches a web page, or reads a local HTML, Markdown, PDF or text file,
and writes it in the content_sections JSON format read by the indexer.

Examples:
  # Convert a Wikipedia article into the corpus directory
  sercha-rag convert https://pt.wikipedia.org/wiki/Clarice_Lispector -o data/clarice.json

  # Convert a local file and print the result
  sercha-rag convert notes.md`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().StringVarP(&convertOutput, "output", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	if bootstrap == nil || bootstrap.NewConverter == nil {
		return errors.New("converter not configured")
	}
	converter := bootstrap.NewConverter()

	doc, err := converter.Convert(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("convert failed: %w", err)
	}

	data, err := converter.Encode(doc)
	if err != nil {
		return fmt.Errorf("encode failed: %w", err)
	}

	if convertOutput == "" {
		cmd.Println(string(data))
		return nil
	}

	if dir := filepath.Dir(convertOutput); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(convertOutput, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", convertOutput, err)
	}
	cmd.Printf("Wrote %s (%d sections)\n", convertOutput, len(doc.Sections))
	return nil
}
