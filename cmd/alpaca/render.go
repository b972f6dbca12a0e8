package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/betbot/goalpaca/pkg/alpaca"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	borderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238"))

	upStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("2")) // 绿色

	downStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1")) // 红色

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("1"))

	emptyStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color("245"))
)

// renderTable 输出带标题的表格
func renderTable(out io.Writer, title string, headers []string, rows [][]string) {
	fmt.Fprintln(out, titleStyle.Render(title))
	if len(rows) == 0 {
		fmt.Fprintln(out, emptyStyle.Render("(empty)"))
		return
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(out, t.Render())
}

// renderKV 输出两列键值表
func renderKV(out io.Writer, title string, pairs [][2]string) {
	fmt.Fprintln(out, titleStyle.Render(title))
	rows := make([][]string, 0, len(pairs))
	for _, p := range pairs {
		rows = append(rows, []string{p[0], p[1]})
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return keyStyle
			}
			return cellStyle
		})
	fmt.Fprintln(out, t.Render())
}

func sideText(s alpaca.Side) string {
	if s == alpaca.SideBuy {
		return upStyle.Render(string(s))
	}
	return downStyle.Render(string(s))
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.String()
}

func nullFixed(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	return d.Decimal.StringFixed(2)
}

// signed 按正负着色
func signed(d decimal.NullDecimal) string {
	if !d.Valid {
		return "-"
	}
	s := d.Decimal.StringFixed(2)
	switch d.Decimal.Sign() {
	case 1:
		return upStyle.Render("+" + s)
	case -1:
		return downStyle.Render(s)
	default:
		return s
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
