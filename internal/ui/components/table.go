package components

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"meetcap/internal/ui/theme"
)

// Table renders rows under headers with the shared palette. stateCol, when
// non-negative, colours that column by session state.
func Table(headers []string, rows [][]string, stateCol int) string {
	header := lipgloss.NewStyle().Foreground(theme.Sapphire).Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Foreground(theme.Text).Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Surface1)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			if col == stateCol && row >= 0 && row < len(rows) {
				return theme.State(rows[row][col]).Padding(0, 1)
			}
			return cell
		})
	return t.Render()
}
