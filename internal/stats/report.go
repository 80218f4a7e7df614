package stats

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"golang.org/x/term"

	"github.com/keydrill/keydrill/internal/model"
)

const fallbackWidth = 80

// TerminalWidth returns the current terminal width, or a default when the
// writer is not a terminal.
func TerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return fallbackWidth
	}
	return width
}

// RenderOverview prints one line per lesson: lock state, stars, best score,
// attempt count.
func RenderOverview(w io.Writer, lessons []model.Lesson, progress model.Progress, attempts model.AttemptsByLesson) error {
	headers := []string{"Lesson", "Title", "Stars", "Best WPM", "Best Acc", "Attempts", "State"}
	rows := make([][]string, 0, len(lessons))
	for _, lesson := range lessons {
		stars, bestWPM, bestAcc := "-", "-", "-"
		if best, ok := progress.Best[lesson.ID]; ok {
			stars = strings.Repeat("★", best.Stars)
			bestWPM = fmt.Sprintf("%d", best.WPM)
			bestAcc = fmt.Sprintf("%.1f%%", best.Acc*100)
		}
		state := "locked"
		if progress.IsUnlocked(lesson.ID) {
			state = "open"
		}
		rows = append(rows, []string{
			lesson.ID,
			lesson.Title,
			stars,
			bestWPM,
			bestAcc,
			fmt.Sprintf("%d", len(attempts[lesson.ID])),
			state,
		})
	}
	for _, line := range FormatTable(headers, rows, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderTrends prints WPM and accuracy sparklines over the attempt history
// of each practiced lesson, smoothed by a moving average.
func RenderTrends(w io.Writer, lessons []model.Lesson, attempts model.AttemptsByLesson, window, width int) error {
	if width <= 0 {
		width = fallbackWidth
	}
	for _, lesson := range lessons {
		history := attempts[lesson.ID]
		if len(history) < 2 {
			continue
		}
		wpms := make([]float64, len(history))
		accs := make([]float64, len(history))
		for i, attempt := range history {
			wpms[i] = float64(attempt.WPM)
			accs[i] = attempt.Acc * 100
		}
		wpms = clipSeries(MovingAverage(wpms, window), width-12)
		accs = clipSeries(MovingAverage(accs, window), width-12)
		if _, err := fmt.Fprintf(w, "%s %s\n", lesson.ID, lesson.Title); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "  WPM %5.1f %s\n", wpms[len(wpms)-1], Sparkline(wpms)); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "  Acc %5.1f %s\n", accs[len(accs)-1], Sparkline(accs)); err != nil {
			return err
		}
	}
	return nil
}

// RenderErrorChars prints aggregated miscounts across all attempts, worst
// first.
func RenderErrorChars(w io.Writer, attempts model.AttemptsByLesson) error {
	totals := AggregateErrors(attempts)
	if len(totals) == 0 {
		_, err := fmt.Fprintln(w, "No errors recorded.")
		return err
	}
	type row struct {
		char  string
		count int
	}
	rows := make([]row, 0, len(totals))
	for ch, count := range totals {
		rows = append(rows, row{char: ch, count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count == rows[j].count {
			return rows[i].char < rows[j].char
		}
		return rows[i].count > rows[j].count
	})
	tableRows := make([][]string, 0, len(rows))
	for _, r := range rows {
		tableRows = append(tableRows, []string{DisplayChar(r.char), fmt.Sprintf("%d", r.count)})
	}
	for _, line := range FormatTable([]string{"Char", "Misses"}, tableRows, nil) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// AggregateErrors merges the per-attempt error maps of every lesson.
func AggregateErrors(attempts model.AttemptsByLesson) model.ErrorMap {
	totals := model.ErrorMap{}
	for _, history := range attempts {
		for _, attempt := range history {
			for ch, count := range attempt.Errors {
				totals[ch] += count
			}
		}
	}
	return totals
}

// DisplayChar makes whitespace characters visible in tables.
func DisplayChar(ch string) string {
	switch ch {
	case " ":
		return "<space>"
	case "\n":
		return "<enter>"
	case "\t":
		return "<tab>"
	default:
		return ch
	}
}

func clipSeries(values []float64, max int) []float64 {
	if max < 8 {
		max = 8
	}
	if len(values) <= max {
		return values
	}
	return values[len(values)-max:]
}
