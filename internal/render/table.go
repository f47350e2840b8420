// Package render draws analysis tables for the terminal with lipgloss.
package render

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/pbaille/gemrank/internal/domain"
)

// Styles holds the lipgloss styles of a report
type Styles struct {
	Title       lipgloss.Style
	Header      lipgloss.Style
	Cell        lipgloss.Style
	Significant lipgloss.Style
	Notable     lipgloss.Style
	Muted       lipgloss.Style
}

// DefaultStyles highlights significant values in light blue and notable ones in light green
func DefaultStyles() Styles {
	cell := lipgloss.NewStyle().Padding(0, 1)
	return Styles{
		Title:       lipgloss.NewStyle().Bold(true).MarginBottom(1),
		Header:      cell.Bold(true),
		Cell:        cell,
		Significant: cell.Background(lipgloss.Color("#ADD8E6")).Foreground(lipgloss.Color("#000000")),
		Notable:     cell.Background(lipgloss.Color("#90EE90")).Foreground(lipgloss.Color("#000000")),
		Muted:       lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")),
	}
}

func (s Styles) forTier(t domain.Tier) lipgloss.Style {
	switch t {
	case domain.TierSignificant:
		return s.Significant
	case domain.TierNotable:
		return s.Notable
	}
	return s.Cell
}

// Cell is a table cell and the tier it is highlighted with
type Cell struct {
	Text string
	Tier domain.Tier
}

// Table is a static grid of cells
type Table struct {
	Title   string
	Headers []string
	Rows    [][]Cell
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells ...Cell) {
	t.Rows = append(t.Rows, cells)
}

// View renders the table. Rows may be ragged; missing cells render empty.
func (t *Table) View(styles Styles) string {
	if len(t.Rows) == 0 {
		return ""
	}

	cols := len(t.Headers)
	for _, row := range t.Rows {
		cols = max(cols, len(row))
	}

	// Column widths without padding
	widths := make([]int, cols)
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, c := range row {
			widths[i] = max(widths[i], lipgloss.Width(c.Text))
		}
	}
	for i := range widths {
		widths[i] += 2
	}

	sep := styles.Muted.Render("|")
	var sb strings.Builder

	if t.Title != "" {
		sb.WriteString(styles.Title.Render(t.Title))
		sb.WriteString("\n")
	}

	if len(t.Headers) > 0 {
		for i := 0; i < cols; i++ {
			h := ""
			if i < len(t.Headers) {
				h = t.Headers[i]
			}
			sb.WriteString(styles.Header.Width(widths[i]).Render(h))
			if i < cols-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")

		total := cols - 1
		for _, w := range widths {
			total += w
		}
		sb.WriteString(styles.Muted.Render(strings.Repeat("-", total)))
		sb.WriteString("\n")
	}

	for _, row := range t.Rows {
		for i := 0; i < cols; i++ {
			c := Cell{}
			if i < len(row) {
				c = row[i]
			}
			sb.WriteString(styles.forTier(c.Tier).Width(widths[i]).Render(c.Text))
			if i < cols-1 {
				sb.WriteString(sep)
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
