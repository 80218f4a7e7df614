// Package session scores a live keystroke stream against a target text.
package session

import (
	"errors"
	"strings"
	"time"

	"github.com/keydrill/keydrill/internal/model"
	"github.com/keydrill/keydrill/internal/stats"
)

var (
	// ErrNotStarted is returned when finishing a session with no keystrokes.
	ErrNotStarted = errors.New("session has not started")
	// ErrFinished is returned by mutating calls on a finished session.
	ErrFinished = errors.New("session already finished")
)

// Session holds the state of one practice run. It is exclusive to a single
// caller; all transitions are discrete, non-overlapping calls.
type Session struct {
	lessonID string
	target   []rune

	entries    []model.Entry
	errorCount model.ErrorMap

	totalKeystrokes int
	correct         int
	combo           int
	maxCombo        int
	backspaces      int

	started   bool
	startedAt time.Time
	finished  bool

	countdown time.Duration
}

// New creates a session for the given target text. A zero countdown means
// no time budget.
func New(lessonID, target string, countdown time.Duration) *Session {
	return &Session{
		lessonID:   lessonID,
		target:     []rune(target),
		errorCount: model.ErrorMap{},
		countdown:  countdown,
	}
}

// LessonID returns the lesson this session practices.
func (s *Session) LessonID() string { return s.lessonID }

// Target returns the target text.
func (s *Session) Target() string { return string(s.target) }

// Started reports whether the first keystroke has been accepted.
func (s *Session) Started() bool { return s.started }

// Finished reports whether the session has been finalized.
func (s *Session) Finished() bool { return s.finished }

// Complete reports whether every target position has been typed.
func (s *Session) Complete() bool { return len(s.entries) == len(s.target) }

// Backspaces returns how many backspace keystrokes were used.
func (s *Session) Backspaces() int { return s.backspaces }

// Errors returns a copy of the per-character miscount map.
func (s *Session) Errors() model.ErrorMap { return s.errorCount.Clone() }

// Input accepts one typed character. Characters beyond the target length
// are silently rejected; reaching the end via fast typing is normal, not an
// error. The session clock starts lazily on the first accepted keystroke.
func (s *Session) Input(r rune, now time.Time) {
	if s.finished {
		return
	}
	if len(s.entries) >= len(s.target) {
		return
	}
	if !s.started {
		s.started = true
		s.startedAt = now
	}
	expected := s.target[len(s.entries)]
	correct := r == expected
	s.entries = append(s.entries, model.Entry{Char: r, Correct: correct})
	s.totalKeystrokes++
	if correct {
		s.correct++
		s.combo++
		if s.combo > s.maxCombo {
			s.maxCombo = s.combo
		}
		return
	}
	s.errorCount[string(expected)]++
	s.combo = 0
}

// Backspace pops the last entry. It is a no-op on an empty stack but still
// counts as a keystroke otherwise.
func (s *Session) Backspace() {
	if s.finished || len(s.entries) == 0 {
		return
	}
	last := len(s.entries) - 1
	entry := s.entries[last]
	expected := string(s.target[last])
	s.entries = s.entries[:last]
	s.totalKeystrokes++
	s.backspaces++
	if entry.Correct {
		s.correct--
	} else {
		s.errorCount[expected]--
		if s.errorCount[expected] <= 0 {
			delete(s.errorCount, expected)
		}
	}
	// The combo streak does not survive an undo.
	s.combo = 0
}

// Snapshot returns the current metrics. It is a pure read.
func (s *Session) Snapshot(now time.Time) model.Snapshot {
	elapsed := s.elapsed(now)
	return model.Snapshot{
		Progress:   stats.ProgressRatio(len(s.entries), len(s.target)),
		WPM:        stats.WPM(s.correct, elapsed),
		Accuracy:   stats.Accuracy(s.correct, s.totalKeystrokes),
		Combo:      s.combo,
		Elapsed:    elapsed,
		Keystrokes: s.totalKeystrokes,
		Finished:   s.finished,
	}
}

// Remaining returns the countdown time left, or zero when no countdown is
// configured or the session has not started.
func (s *Session) Remaining(now time.Time) time.Duration {
	if s.countdown <= 0 || !s.started {
		return 0
	}
	left := s.countdown - s.elapsed(now)
	if left < 0 {
		return 0
	}
	return left
}

// Expired reports whether the countdown budget has run out.
func (s *Session) Expired(now time.Time) bool {
	return s.countdown > 0 && s.started && s.elapsed(now) >= s.countdown
}

// Result carries the raw outcome of a finished session.
type Result struct {
	DurationMs      int64
	Correct         int
	TotalKeystrokes int
	TextLength      int
	Errors          model.ErrorMap
	RawInput        string
	MaxCombo        int
	Mistakes        int
	Backspaces      int
}

// Finish finalizes the session exactly once. A session with no keystrokes
// cannot be finished; a second call reports ErrFinished so countdown expiry
// and manual finish cannot double-record.
func (s *Session) Finish(now time.Time) (Result, error) {
	if s.finished {
		return Result{}, ErrFinished
	}
	if !s.started {
		return Result{}, ErrNotStarted
	}
	s.finished = true
	var raw strings.Builder
	mistakes := 0
	for _, entry := range s.entries {
		raw.WriteRune(entry.Char)
		if !entry.Correct {
			mistakes++
		}
	}
	return Result{
		DurationMs:      s.elapsed(now).Milliseconds(),
		Correct:         s.correct,
		TotalKeystrokes: s.totalKeystrokes,
		TextLength:      len(s.target),
		Errors:          s.errorCount.Clone(),
		RawInput:        raw.String(),
		MaxCombo:        s.maxCombo,
		Mistakes:        mistakes,
		Backspaces:      s.backspaces,
	}, nil
}

func (s *Session) elapsed(now time.Time) time.Duration {
	if !s.started {
		return 0
	}
	return now.Sub(s.startedAt)
}
