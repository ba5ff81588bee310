package styles

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

const accuracyColumn = 4

// ResultsTable renders ranked sweep results. Rows tied with the best
// accuracy are bold and every accuracy cell is coloured by band.
func (s *Styles) ResultsTable(results []domain.EvaluationResult) string {
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(r.ChunkSize),
			strconv.Itoa(r.ChunkOverlap),
			strconv.Itoa(r.K),
			strconv.FormatFloat(r.Accuracy, 'f', 2, 64) + "%",
		}
	}

	var best float64
	if len(results) > 0 {
		best = results[0].Accuracy
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(s.theme.Border)).
		Headers("#", "Chunk size", "Overlap", "K", "Accuracy").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.Header
			}
			cell := s.Cell
			if row < 0 || row >= len(results) {
				return cell
			}
			if col == accuracyColumn {
				cell = cell.Foreground(s.Accuracy(results[row].Accuracy).GetForeground())
			}
			if results[row].Accuracy == best {
				cell = cell.Bold(true)
			}
			return cell
		}).
		String()
}
