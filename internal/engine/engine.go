// Package engine records attempts and advances lesson progression.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/keydrill/keydrill/internal/content"
	"github.com/keydrill/keydrill/internal/model"
	"github.com/keydrill/keydrill/internal/session"
	"github.com/keydrill/keydrill/internal/stats"
)

// MaxAttemptsPerLesson caps retained history; oldest attempts are evicted
// first.
const MaxAttemptsPerLesson = 50

var (
	// ErrNoLesson is returned for unknown lesson ids.
	ErrNoLesson = errors.New("no such lesson")
	// ErrLessonLocked is returned when starting a locked lesson.
	ErrLessonLocked = errors.New("lesson is locked")
)

// Persister saves profile state. Writes complete before the next read.
type Persister interface {
	SaveSettings(ctx context.Context, settings model.Settings) error
	SaveProgress(ctx context.Context, progress model.Progress) error
	InsertAttempt(ctx context.Context, attempt model.Attempt, keep int) error
}

// PenaltyPolicy maps the raw correct-character count to the count used for
// speed when the backspace penalty setting is on. The exact policy is a
// configuration point.
type PenaltyPolicy func(correct, backspaces int) int

// DefaultPenalty deducts one correct character per backspace, floored at
// zero. Accuracy needs no extra treatment: backspaces already count toward
// the keystroke denominator.
func DefaultPenalty(correct, backspaces int) int {
	effective := correct - backspaces
	if effective < 0 {
		return 0
	}
	return effective
}

// Engine owns the in-memory profile state and coordinates the scorer,
// recorder, and progression rules. It is not safe for concurrent use; all
// calls happen on one event loop.
type Engine struct {
	lessons []model.Lesson
	store   Persister
	gen     *content.Generator
	state   model.State
	penalty PenaltyPolicy
}

// New builds an engine over an ordered lesson list and loaded state. The
// first lesson is always unlocked.
func New(lessons []model.Lesson, store Persister, gen *content.Generator, state model.State) *Engine {
	if state.Attempts == nil {
		state.Attempts = model.AttemptsByLesson{}
	}
	if state.Progress.Best == nil {
		state.Progress.Best = map[string]model.BestScore{}
	}
	if len(lessons) > 0 && !state.Progress.IsUnlocked(lessons[0].ID) {
		state.Progress.Unlocked = append(state.Progress.Unlocked, lessons[0].ID)
	}
	return &Engine{
		lessons: lessons,
		store:   store,
		gen:     gen,
		state:   state,
		penalty: DefaultPenalty,
	}
}

// SetPenaltyPolicy overrides the backspace penalty policy.
func (e *Engine) SetPenaltyPolicy(policy PenaltyPolicy) {
	if policy != nil {
		e.penalty = policy
	}
}

// Lessons returns the catalog order the engine was built with.
func (e *Engine) Lessons() []model.Lesson { return e.lessons }

// Settings returns the current settings.
func (e *Engine) Settings() model.Settings { return e.state.Settings }

// UpdateSettings replaces and persists the settings.
func (e *Engine) UpdateSettings(ctx context.Context, settings model.Settings) error {
	e.state.Settings = settings
	if err := e.store.SaveSettings(ctx, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Progress returns a copy of the current progression state.
func (e *Engine) Progress() model.Progress {
	return e.state.Progress.Clone()
}

// Attempts returns the recorded history for a lesson, oldest first.
func (e *Engine) Attempts(lessonID string) []model.Attempt {
	return append([]model.Attempt(nil), e.state.Attempts[lessonID]...)
}

// AllAttempts returns the full history grouped by lesson.
func (e *Engine) AllAttempts() model.AttemptsByLesson {
	out := make(model.AttemptsByLesson, len(e.state.Attempts))
	for id, history := range e.state.Attempts {
		out[id] = append([]model.Attempt(nil), history...)
	}
	return out
}

// StartSession generates fresh practice text and opens a session for the
// lesson. Locked lessons are refused.
func (e *Engine) StartSession(lessonID string, countdown time.Duration) (*session.Session, error) {
	if _, ok := e.lessonByID(lessonID); !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoLesson, lessonID)
	}
	if !e.state.Progress.IsUnlocked(lessonID) {
		return nil, fmt.Errorf("%w: %s", ErrLessonLocked, lessonID)
	}
	return session.New(lessonID, e.gen.TargetText(lessonID), countdown), nil
}

// Finish finalizes the session into an immutable attempt, persists it, and
// updates progression. Sessions with no keystrokes are refused with the
// session state unchanged.
func (e *Engine) Finish(ctx context.Context, sess *session.Session, now time.Time) (model.Attempt, error) {
	lesson, ok := e.lessonByID(sess.LessonID())
	if !ok {
		return model.Attempt{}, fmt.Errorf("%w: %s", ErrNoLesson, sess.LessonID())
	}
	result, err := sess.Finish(now)
	if err != nil {
		return model.Attempt{}, err
	}

	duration := time.Duration(result.DurationMs) * time.Millisecond
	speedCorrect := result.Correct
	if e.state.Settings.BackspacePenalty {
		speedCorrect = e.penalty(result.Correct, result.Backspaces)
	}
	wpm := stats.WPM(speedCorrect, duration)
	acc := stats.Accuracy(result.Correct, result.TotalKeystrokes)

	attempt := model.Attempt{
		ID:              "att-" + uuid.NewString(),
		LessonID:        lesson.ID,
		At:              now,
		DurationMs:      result.DurationMs,
		Correct:         result.Correct,
		TotalKeystrokes: result.TotalKeystrokes,
		TextLength:      result.TextLength,
		WPM:             wpm,
		Acc:             acc,
		Stars:           calculateStars(acc, wpm, lesson, e.state.Settings),
		Errors:          result.Errors,
		RawInput:        result.RawInput,
		MaxCombo:        result.MaxCombo,
		Mistakes:        result.Mistakes,
	}

	history := append(e.state.Attempts[lesson.ID], attempt)
	if len(history) > MaxAttemptsPerLesson {
		history = history[len(history)-MaxAttemptsPerLesson:]
	}
	e.state.Attempts[lesson.ID] = history
	if err := e.store.InsertAttempt(ctx, attempt, MaxAttemptsPerLesson); err != nil {
		return model.Attempt{}, fmt.Errorf("failed to save attempt: %w", err)
	}

	e.applyProgression(lesson, attempt)
	if err := e.store.SaveProgress(ctx, e.state.Progress); err != nil {
		return model.Attempt{}, fmt.Errorf("failed to save progress: %w", err)
	}
	return attempt, nil
}

// applyProgression updates the best score, the last-attempt pointer, and the
// unlock state for the catalog successor.
func (e *Engine) applyProgression(lesson model.Lesson, attempt model.Attempt) {
	best, hasBest := e.state.Progress.Best[lesson.ID]
	// Stars first, then WPM. Accuracy never tie-breaks.
	better := !hasBest ||
		attempt.Stars > best.Stars ||
		(attempt.Stars == best.Stars && attempt.WPM > best.WPM)
	if better {
		e.state.Progress.Best[lesson.ID] = model.BestScore{
			WPM:   attempt.WPM,
			Acc:   attempt.Acc,
			Stars: attempt.Stars,
			At:    attempt.At,
		}
	}
	e.state.Progress.LastAttempt = &model.LastAttempt{
		LessonID:  lesson.ID,
		AttemptID: attempt.ID,
		At:        attempt.At,
	}

	next, ok := e.nextLesson(lesson.ID)
	if !ok || e.state.Progress.IsUnlocked(next.ID) {
		return
	}
	if checkUnlock(next, e.state.Attempts) {
		e.state.Progress.Unlocked = append(e.state.Progress.Unlocked, next.ID)
	}
}

// calculateStars grades a finished attempt. Targets resolve from the lesson
// first, falling back to settings defaults. The max() on the accuracy side
// of the two-star rule is deliberate.
func calculateStars(acc float64, wpm int, lesson model.Lesson, settings model.Settings) int {
	targetAcc := lesson.TargetAccuracy
	if targetAcc == 0 {
		targetAcc = settings.TargetAccuracy
	}
	targetWpm := lesson.TargetWpm
	if targetWpm == 0 {
		targetWpm = settings.TargetWpm
	}
	threeStarWpm := targetWpm + 5
	if threeStarWpm < 30 {
		threeStarWpm = 30
	}
	if acc >= 0.95 && wpm >= threeStarWpm {
		return 3
	}
	if acc >= math.Max(0.9, targetAcc) && wpm >= targetWpm {
		return 2
	}
	return 1
}

// checkUnlock evaluates a lesson's unlock rule against the full attempt
// history of its dependency. Any single satisfying attempt unlocks.
func checkUnlock(lesson model.Lesson, attempts model.AttemptsByLesson) bool {
	rule := lesson.UnlockRule
	if rule == nil || rule.DependsOn == "" {
		return true
	}
	history := attempts[rule.DependsOn]
	if len(history) == 0 {
		return false
	}
	for _, attempt := range history {
		meetAcc := rule.MinAcc == 0 || attempt.Acc >= rule.MinAcc
		meetWpm := rule.MinWpm == 0 || attempt.WPM >= rule.MinWpm
		if meetAcc && meetWpm {
			return true
		}
	}
	return false
}

func (e *Engine) lessonByID(id string) (model.Lesson, bool) {
	for _, lesson := range e.lessons {
		if lesson.ID == id {
			return lesson, true
		}
	}
	return model.Lesson{}, false
}

func (e *Engine) nextLesson(id string) (model.Lesson, bool) {
	for i, lesson := range e.lessons {
		if lesson.ID == id {
			if i+1 < len(e.lessons) {
				return e.lessons[i+1], true
			}
			return model.Lesson{}, false
		}
	}
	return model.Lesson{}, false
}
