// Package stats contains metric calculations and reporting.
package stats

import (
	"math"
	"time"
)

// Accuracy is correct keystrokes over total keystrokes, clamped to [0,1].
// With no keystrokes yet the session is considered fully accurate.
func Accuracy(correct, totalKeystrokes int) float64 {
	if totalKeystrokes <= 0 {
		return 1
	}
	acc := float64(correct) / float64(totalKeystrokes)
	return math.Min(1, math.Max(0, acc))
}

// WPM uses the five-characters-per-word convention over correct characters
// only; errors are penalized through accuracy, not speed.
func WPM(correct int, elapsed time.Duration) int {
	if elapsed <= 0 {
		return 0
	}
	minutes := elapsed.Minutes()
	if minutes <= 0 {
		return 0
	}
	return int(math.Round(float64(correct) / 5.0 / minutes))
}

// ProgressRatio is typed positions over target length, clamped to [0,1].
func ProgressRatio(typed, targetLen int) float64 {
	if targetLen <= 0 {
		return 0
	}
	ratio := float64(typed) / float64(targetLen)
	return math.Min(1, math.Max(0, ratio))
}
