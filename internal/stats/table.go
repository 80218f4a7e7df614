package stats

import (
	"strings"
	"unicode/utf8"
)

// FormatTable renders rows as aligned plain-text lines with a header row.
// When rightAlignCols is nil, columns whose cells are all numeric-looking
// are right-aligned automatically.
func FormatTable(headers []string, rows [][]string, rightAlignCols map[int]bool) []string {
	colCount := len(headers)
	for _, row := range rows {
		if len(row) > colCount {
			colCount = len(row)
		}
	}
	if colCount == 0 {
		return nil
	}
	if rightAlignCols == nil {
		rightAlignCols = numericColumns(rows, colCount)
	}

	widths := make([]int, colCount)
	for i, header := range headers {
		widths[i] = displayWidth(header)
	}
	for _, row := range rows {
		for i := 0; i < colCount; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if w := displayWidth(cell); w > widths[i] {
				widths[i] = w
			}
		}
	}

	lines := make([]string, 0, len(rows)+1)
	if len(headers) > 0 {
		lines = append(lines, formatRow(headers, widths, rightAlignCols))
	}
	for _, row := range rows {
		lines = append(lines, formatRow(row, widths, rightAlignCols))
	}
	return lines
}

func formatRow(row []string, widths []int, rightAlignCols map[int]bool) string {
	var b strings.Builder
	for i := 0; i < len(widths); i++ {
		cell := ""
		if i < len(row) {
			cell = row[i]
		}
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(padCell(cell, widths[i], rightAlignCols[i]))
	}
	return b.String()
}

func padCell(value string, width int, rightAlign bool) string {
	valueWidth := displayWidth(value)
	if valueWidth >= width {
		return value
	}
	padding := width - valueWidth
	if rightAlign {
		return strings.Repeat(" ", padding) + value
	}
	return value + strings.Repeat(" ", padding)
}

func displayWidth(value string) int {
	return utf8.RuneCountInString(value)
}

func numericColumns(rows [][]string, colCount int) map[int]bool {
	out := map[int]bool{}
	for i := 0; i < colCount; i++ {
		numeric := len(rows) > 0
		for _, row := range rows {
			if i >= len(row) || !looksNumeric(row[i]) {
				numeric = false
				break
			}
		}
		if numeric {
			out[i] = true
		}
	}
	return out
}

// looksNumeric accepts counts, percentages, second durations, and the "-"
// placeholder used for absent scores.
func looksNumeric(value string) bool {
	if value == "-" {
		return true
	}
	value = strings.TrimSuffix(value, "%")
	value = strings.TrimSuffix(value, "s")
	if value == "" {
		return false
	}
	dots := 0
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
		case r == '.':
			dots++
			if dots > 1 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
