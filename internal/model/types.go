// Package model defines shared data structures.
package model

import "time"

// UnlockRule gates a lesson on attempts recorded for a prerequisite lesson.
// Zero-valued MinAcc/MinWpm mean the constraint is not specified and is
// trivially satisfied.
type UnlockRule struct {
	DependsOn string
	MinAcc    float64
	MinWpm    int
}

// Lesson is an immutable catalog entry.
type Lesson struct {
	ID             string
	Title          string
	Description    string
	TargetAccuracy float64
	TargetWpm      int
	UnlockRule     *UnlockRule
}

// Settings holds user-tunable practice defaults.
type Settings struct {
	TargetAccuracy   float64
	TargetWpm        int
	BackspacePenalty bool
}

// DefaultSettings returns the initial settings for a fresh profile.
func DefaultSettings() Settings {
	return Settings{
		TargetAccuracy:   0.9,
		TargetWpm:        20,
		BackspacePenalty: false,
	}
}

// Entry records one accepted keystroke against the target text.
type Entry struct {
	Char    rune
	Correct bool
}

// ErrorMap counts mistypes per expected character.
type ErrorMap map[string]int

// Clone returns a deep copy of the map.
func (m ErrorMap) Clone() ErrorMap {
	out := make(ErrorMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Total sums all miscounts.
func (m ErrorMap) Total() int {
	total := 0
	for _, v := range m {
		total += v
	}
	return total
}

// Snapshot is the live metrics view returned after each mutating call.
type Snapshot struct {
	Progress   float64
	WPM        int
	Accuracy   float64
	Combo      int
	Elapsed    time.Duration
	Keystrokes int
	Finished   bool
}

// Attempt is one finalized practice session. Never mutated after creation.
type Attempt struct {
	ID              string
	LessonID        string
	At              time.Time
	DurationMs      int64
	Correct         int
	TotalKeystrokes int
	TextLength      int
	WPM             int
	Acc             float64
	Stars           int
	Errors          ErrorMap
	RawInput        string
	MaxCombo        int
	Mistakes        int
}

// BestScore is the per-lesson personal record kept in Progress.
type BestScore struct {
	WPM   int
	Acc   float64
	Stars int
	At    time.Time
}

// LastAttempt points at the most recently recorded attempt.
type LastAttempt struct {
	LessonID  string
	AttemptID string
	At        time.Time
}

// Progress tracks unlock state and best scores across the catalog.
type Progress struct {
	Unlocked    []string
	Best        map[string]BestScore
	LastAttempt *LastAttempt
}

// IsUnlocked reports whether the lesson id is in the unlocked set.
func (p Progress) IsUnlocked(lessonID string) bool {
	for _, id := range p.Unlocked {
		if id == lessonID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate safely.
func (p Progress) Clone() Progress {
	out := Progress{
		Unlocked: append([]string(nil), p.Unlocked...),
		Best:     make(map[string]BestScore, len(p.Best)),
	}
	for k, v := range p.Best {
		out.Best[k] = v
	}
	if p.LastAttempt != nil {
		la := *p.LastAttempt
		out.LastAttempt = &la
	}
	return out
}

// AttemptsByLesson groups attempt history per lesson, insertion-ordered.
type AttemptsByLesson map[string][]Attempt

// State is the full persisted profile.
type State struct {
	Settings Settings
	Progress Progress
	Attempts AttemptsByLesson
}
