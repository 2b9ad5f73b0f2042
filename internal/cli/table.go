package cli

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	flowio "github.com/matzehuels/flowplan/pkg/io"
)

// headerRow is the row index lipgloss passes to StyleFunc for headers.
const headerRow = -1

var tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...)
}

// renderCountTable lists every node of counts, marking the ones in updates.
func renderCountTable(counts, updates map[string]float64) string {
	ids := sortedKeys(counts)
	rows := make([][]string, 0, len(ids))
	changed := make([]bool, 0, len(ids))
	for _, id := range ids {
		newCount, ok := updates[id]
		after := "—"
		if ok {
			after = formatCount(newCount)
		}
		rows = append(rows, []string{id, formatCount(counts[id]), after})
		changed = append(changed, ok)
	}

	return newTable("Node", "Count", "New").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return tableHeaderStyle
			}
			if row < len(changed) && changed[row] && col == 2 {
				return lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
			}
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorWhite)
			}
			return lipgloss.NewStyle().Foreground(colorGray)
		}).
		Render()
}

// renderHandleTable lists deficient or excess handles.
func renderHandleTable(hs []flowio.HandleStatus, color lipgloss.Color) string {
	rows := make([][]string, 0, len(hs))
	for _, h := range hs {
		rows = append(rows, []string{
			h.NodeID,
			strconv.Itoa(h.Index),
			h.ProductID,
			formatRate(h.Expected),
			formatRate(h.Connected),
			formatRate(h.Gap),
		})
	}
	return newTable("Node", "Slot", "Product", "Expected", "Connected", "Gap").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return tableHeaderStyle
			}
			if col == 5 {
				return lipgloss.NewStyle().Foreground(color)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		}).
		Render()
}

// formatCount prints a machine count without trailing zeros.
func formatCount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatRate prints a per-second rate with two decimals.
func formatRate(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
