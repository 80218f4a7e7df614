package stats

import (
	"testing"
	"time"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name    string
		correct int
		total   int
		want    float64
	}{
		{"no keystrokes yet", 0, 0, 1},
		{"perfect", 10, 10, 1},
		{"half", 5, 10, 0.5},
		{"clamped low", -3, 10, 0},
		{"clamped high", 15, 10, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Accuracy(tt.correct, tt.total); got != tt.want {
				t.Errorf("Accuracy(%d, %d) = %v, want %v", tt.correct, tt.total, got, tt.want)
			}
		})
	}
}

func TestWPM(t *testing.T) {
	tests := []struct {
		name    string
		correct int
		elapsed time.Duration
		want    int
	}{
		{"zero elapsed", 100, 0, 0},
		{"negative elapsed", 100, -time.Second, 0},
		{"one minute", 250, time.Minute, 50},
		{"half minute", 35, 30 * time.Second, 14},
		{"rounds to nearest", 23, time.Minute, 5}, // 4.6 words
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WPM(tt.correct, tt.elapsed); got != tt.want {
				t.Errorf("WPM(%d, %v) = %d, want %d", tt.correct, tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestProgressRatio(t *testing.T) {
	if got := ProgressRatio(5, 10); got != 0.5 {
		t.Errorf("ProgressRatio(5, 10) = %v, want 0.5", got)
	}
	if got := ProgressRatio(3, 0); got != 0 {
		t.Errorf("ProgressRatio(3, 0) = %v, want 0", got)
	}
	if got := ProgressRatio(20, 10); got != 1 {
		t.Errorf("ProgressRatio(20, 10) = %v, want 1", got)
	}
}
