package main

import (
	"fmt"
	"io"
	"slowpoke/pkg/domain"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("51"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45")).
			Width(14)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().
			Padding(0, 1)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

// renderTable draws rows under headers. Short rows are padded.
func renderTable(headers []string, rows [][]string) string {
	padded := make([][]string, len(rows))
	for i, r := range rows {
		if len(r) < len(headers) {
			r = append(append([]string{}, r...), make([]string, len(headers)-len(r))...)
		}
		padded[i] = r
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("238"))).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(padded...).
		Render()
}

// renderGrid draws a plate-style grid with lettered rows and numbered
// columns.
func renderGrid(grid [][]string) string {
	width := 0
	for _, r := range grid {
		width = max(width, len(r))
	}
	headers := make([]string, width+1)
	for c := 1; c <= width; c++ {
		headers[c] = fmt.Sprint(c)
	}
	rows := make([][]string, len(grid))
	for i, r := range grid {
		rows[i] = append([]string{string(rune('A' + i))}, r...)
	}
	return renderTable(headers, rows)
}

func printTitle(w io.Writer, title string) {
	fmt.Fprintln(w, titleStyle.Render(title))
}

func printField(w io.Writer, label string, value any) {
	fmt.Fprintln(w, labelStyle.Render(label)+fmt.Sprint(value))
}

func printViolations(w io.Writer, violations []domain.Violation) {
	if len(violations) == 0 {
		return
	}
	rows := make([][]string, len(violations))
	for i, v := range violations {
		rows[i] = []string{string(v.Severity), v.Rule, v.Subject, v.Message}
	}
	fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d rule violation(s)", len(violations))))
	fmt.Fprintln(w, renderTable([]string{"severity", "rule", "subject", "message"}, rows))
}

// splitHeader separates a header row from the rows below it.
func splitHeader(rows [][]string) ([]string, [][]string) {
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], rows[1:]
}
