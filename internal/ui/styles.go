package ui

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/dbdeck/dbdeck/internal/session"
)

const tableListWidth = 30

var (
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	focusedPaneStyle = paneStyle.
				BorderForeground(lipgloss.Color("62"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

func rowTableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	return s
}

// View renders the two panes side by side with a status line underneath.
func (b *Browser) View() string {
	left := paneStyle
	right := paneStyle
	if b.focus == focusTables {
		left = focusedPaneStyle
	} else {
		right = focusedPaneStyle
	}

	rowsView := "select a table and press enter"
	if b.current != "" {
		rowsView = b.rows.View()
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		left.Render(b.tables.View()),
		right.Render(rowsView),
	)
	status := statusStyle.Render(b.status) +
		helpStyle.Render("  enter: open  esc: back  r: refresh  q: quit")

	return lipgloss.JoinVertical(lipgloss.Left, body, status)
}

// cellValue renders one value for a table cell.
func cellValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case []byte:
		return hex.EncodeToString(x)
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}

// columnWidth sizes a column to its widest cell, clamped to keep wide text
// columns from swallowing the pane.
func columnWidth(col string, res *session.Result) int {
	w := len(col)
	for _, row := range res.Rows {
		if n := len(cellValue(row[col])); n > w {
			w = n
		}
	}
	if w < 4 {
		w = 4
	}
	if w > 32 {
		w = 32
	}
	return w
}
