package commands

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/core/notify"
	"github.com/donovanmckee29-prog/HypeFlowAIV4-sub000/internal/printer"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7aa2f7")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#565f89"))
)

// renderTable draws rows with a header. Borders and colors are dropped when
// output is not a terminal.
func renderTable(p *printer.Printer, headers []string, rows [][]string) string {
	t := table.New().
		Headers(headers...).
		Rows(rows...)

	if !p.Styled() {
		return t.Border(lipgloss.HiddenBorder()).
			StyleFunc(func(row, col int) lipgloss.Style { return cellStyle }).
			String()
	}

	return t.Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

// since formats the age of t relative to now.
func since(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}

func notificationRows(now time.Time, records []notify.Record) [][]string {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		status := " "
		if !r.Read {
			status = "●"
		}
		urgent := ""
		if r.Urgent {
			urgent = "!"
		}
		rows = append(rows, []string{
			status,
			fmt.Sprintf("%d", r.ID),
			string(r.Type),
			urgent,
			r.Title,
			r.Message,
			since(now, r.Timestamp),
		})
	}
	return rows
}

var notificationHeaders = []string{"", "ID", "TYPE", "", "TITLE", "MESSAGE", "AGE"}
