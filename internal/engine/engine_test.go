package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/keydrill/keydrill/internal/catalog"
	"github.com/keydrill/keydrill/internal/content"
	"github.com/keydrill/keydrill/internal/model"
)

var base = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

type fakeStore struct {
	settings  []model.Settings
	progress  []model.Progress
	attempts  []model.Attempt
	insertErr error
}

func (f *fakeStore) SaveSettings(_ context.Context, settings model.Settings) error {
	f.settings = append(f.settings, settings)
	return nil
}

func (f *fakeStore) SaveProgress(_ context.Context, progress model.Progress) error {
	f.progress = append(f.progress, progress.Clone())
	return nil
}

func (f *fakeStore) InsertAttempt(_ context.Context, attempt model.Attempt, _ int) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.attempts = append(f.attempts, attempt)
	return nil
}

func newTestEngine(t *testing.T, lessons []model.Lesson, state model.State) (*Engine, *fakeStore) {
	t.Helper()
	store := &fakeStore{}
	gen := content.NewWithSource(rand.NewSource(1))
	return New(lessons, store, gen, state), store
}

// typeTarget feeds the full target text correctly and finishes after the
// given duration.
func typeTarget(t *testing.T, eng *Engine, lessonID string, duration time.Duration) model.Attempt {
	t.Helper()
	sess, err := eng.StartSession(lessonID, 0)
	if err != nil {
		t.Fatalf("StartSession(%s) error = %v", lessonID, err)
	}
	for _, r := range sess.Target() {
		sess.Input(r, base)
	}
	attempt, err := eng.Finish(context.Background(), sess, base.Add(duration))
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	return attempt
}

func TestNewUnlocksFirstLesson(t *testing.T) {
	eng, _ := newTestEngine(t, catalog.All(), model.State{})
	if !eng.Progress().IsUnlocked("l01") {
		t.Error("l01 not unlocked on a fresh profile")
	}
	if eng.Progress().IsUnlocked("l02") {
		t.Error("l02 unlocked on a fresh profile")
	}
}

func TestStartSessionRefusals(t *testing.T) {
	eng, _ := newTestEngine(t, catalog.All(), model.State{})
	if _, err := eng.StartSession("nope", 0); !errors.Is(err, ErrNoLesson) {
		t.Errorf("StartSession(nope) error = %v, want ErrNoLesson", err)
	}
	if _, err := eng.StartSession("l03", 0); !errors.Is(err, ErrLessonLocked) {
		t.Errorf("StartSession(l03) error = %v, want ErrLessonLocked", err)
	}
}

func TestFinishRecordsAttempt(t *testing.T) {
	eng, store := newTestEngine(t, catalog.All(), model.State{Settings: model.DefaultSettings()})

	attempt := typeTarget(t, eng, "l01", 30*time.Second)
	if attempt.Acc != 1.0 {
		t.Errorf("Acc = %v, want 1.0", attempt.Acc)
	}
	if !strings.HasPrefix(attempt.ID, "att-") {
		t.Errorf("ID = %q, want att- prefix", attempt.ID)
	}
	if len(store.attempts) != 1 {
		t.Fatalf("persisted %d attempts, want 1", len(store.attempts))
	}
	if len(store.progress) != 1 {
		t.Fatalf("persisted progress %d times, want 1", len(store.progress))
	}
	if got := eng.Attempts("l01"); len(got) != 1 {
		t.Errorf("Attempts(l01) = %d entries, want 1", len(got))
	}
	last := eng.Progress().LastAttempt
	if last == nil || last.LessonID != "l01" || last.AttemptID != attempt.ID {
		t.Errorf("LastAttempt = %+v, want pointer at the new attempt", last)
	}
}

func TestFinishUnlocksSuccessor(t *testing.T) {
	eng, _ := newTestEngine(t, catalog.All(), model.State{Settings: model.DefaultSettings()})

	// A perfect run satisfies l02's unlock rule (minAcc 0.9 on l01).
	typeTarget(t, eng, "l01", 30*time.Second)
	if !eng.Progress().IsUnlocked("l02") {
		t.Error("l02 still locked after a qualifying l01 attempt")
	}
	if eng.Progress().IsUnlocked("l03") {
		t.Error("l03 unlocked without any l02 attempt")
	}
}

func TestUnlockIsMonotonic(t *testing.T) {
	eng, _ := newTestEngine(t, catalog.All(), model.State{Settings: model.DefaultSettings()})
	typeTarget(t, eng, "l01", 30*time.Second)

	// A terrible follow-up run never re-locks anything.
	sess, err := eng.StartSession("l01", 0)
	if err != nil {
		t.Fatalf("StartSession error = %v", err)
	}
	sess.Input('x', base)
	if _, err := eng.Finish(context.Background(), sess, base.Add(time.Minute)); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if !eng.Progress().IsUnlocked("l02") {
		t.Error("l02 re-locked by a failing attempt")
	}
}

func TestStarGrading(t *testing.T) {
	lesson := model.Lesson{ID: "x", TargetAccuracy: 0.9, TargetWpm: 20}
	settings := model.DefaultSettings()
	tests := []struct {
		name string
		acc  float64
		wpm  int
		want int
	}{
		{"three stars", 0.96, 50, 3},
		{"fast but sloppy", 0.94, 50, 2},
		{"accurate but short of the 30 wpm floor", 0.96, 28, 2},
		{"two stars at the exact targets", 0.9, 20, 2},
		{"slow", 1.0, 10, 1},
		{"inaccurate", 0.5, 50, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := calculateStars(tt.acc, tt.wpm, lesson, settings); got != tt.want {
				t.Errorf("calculateStars(%v, %d) = %d, want %d", tt.acc, tt.wpm, got, tt.want)
			}
		})
	}
}

func TestStarGradingFallsBackToSettings(t *testing.T) {
	lesson := model.Lesson{ID: "x"} // no targets of its own
	settings := model.Settings{TargetAccuracy: 0.8, TargetWpm: 40}
	// Two-star accuracy floor is max(0.9, target); 0.85 is not enough even
	// though the configured target is 0.8.
	if got := calculateStars(0.85, 45, lesson, settings); got != 1 {
		t.Errorf("calculateStars = %d, want 1", got)
	}
	// 3 stars need targetWpm+5 = 45 here, above the 30 floor.
	if got := calculateStars(0.96, 44, lesson, settings); got != 2 {
		t.Errorf("calculateStars = %d, want 2", got)
	}
	if got := calculateStars(0.96, 45, lesson, settings); got != 3 {
		t.Errorf("calculateStars = %d, want 3", got)
	}
}

func TestBestScoreUpdateOrdering(t *testing.T) {
	eng, _ := newTestEngine(t, catalog.All(), model.State{Settings: model.DefaultSettings()})

	// Slow perfect run: 1 star.
	typeTarget(t, eng, "l01", 2*time.Minute)
	first := eng.Progress().Best["l01"]
	if first.Stars != 1 {
		t.Fatalf("first best stars = %d, want 1", first.Stars)
	}

	// Faster run with the same star count: WPM tie-break updates.
	typeTarget(t, eng, "l01", 90*time.Second)
	second := eng.Progress().Best["l01"]
	if second.WPM <= first.WPM {
		t.Errorf("best WPM = %d, want > %d after a faster run", second.WPM, first.WPM)
	}

	// Slower run never replaces the best.
	typeTarget(t, eng, "l01", 3*time.Minute)
	if got := eng.Progress().Best["l01"]; got != second {
		t.Errorf("best = %+v, want unchanged %+v", got, second)
	}
}

func TestHistoryCapEvictsOldest(t *testing.T) {
	eng, _ := newTestEngine(t, catalog.All(), model.State{Settings: model.DefaultSettings()})

	ids := make([]string, 0, MaxAttemptsPerLesson+5)
	for i := 0; i < MaxAttemptsPerLesson+5; i++ {
		sess, err := eng.StartSession("l01", 0)
		if err != nil {
			t.Fatalf("StartSession error = %v", err)
		}
		sess.Input('a', base)
		attempt, err := eng.Finish(context.Background(), sess, base.Add(time.Second))
		if err != nil {
			t.Fatalf("Finish() error = %v", err)
		}
		ids = append(ids, attempt.ID)
	}

	history := eng.Attempts("l01")
	if len(history) != MaxAttemptsPerLesson {
		t.Fatalf("history length = %d, want %d", len(history), MaxAttemptsPerLesson)
	}
	if history[0].ID != ids[5] {
		t.Errorf("oldest retained = %s, want %s (FIFO eviction)", history[0].ID, ids[5])
	}
	if history[len(history)-1].ID != ids[len(ids)-1] {
		t.Errorf("newest retained = %s, want %s", history[len(history)-1].ID, ids[len(ids)-1])
	}
}

func TestBackspacePenaltyAffectsSpeedOnly(t *testing.T) {
	settings := model.DefaultSettings()
	settings.BackspacePenalty = true
	eng, _ := newTestEngine(t, catalog.All(), model.State{Settings: settings})

	sess, err := eng.StartSession("l01", 0)
	if err != nil {
		t.Fatalf("StartSession error = %v", err)
	}
	target := []rune(sess.Target())
	sess.Input(target[0], base)
	sess.Input('x', base)
	sess.Backspace()
	sess.Input(target[1], base)

	attempt, err := eng.Finish(context.Background(), sess, base.Add(12*time.Second))
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	// 2 correct, 1 backspace: speed counts 1 char over 0.2 min = 1 WPM.
	if attempt.WPM != 1 {
		t.Errorf("WPM = %d, want 1 with penalty applied", attempt.WPM)
	}
	// Accuracy still uses raw counts: 2 correct / 4 keystrokes.
	if attempt.Acc != 0.5 {
		t.Errorf("Acc = %v, want 0.5", attempt.Acc)
	}
}

func TestUnlockRuleZeroConstraints(t *testing.T) {
	lessons := []model.Lesson{
		{ID: "a"},
		{ID: "b", UnlockRule: &model.UnlockRule{DependsOn: "a"}},
		{ID: "c", UnlockRule: &model.UnlockRule{DependsOn: "b", MinWpm: 100}},
	}
	eng, _ := newTestEngine(t, lessons, model.State{Settings: model.DefaultSettings()})

	// Any attempt on "a" satisfies b's rule since it has no thresholds.
	sess, err := eng.StartSession("a", 0)
	if err != nil {
		t.Fatalf("StartSession error = %v", err)
	}
	sess.Input('x', base)
	if _, err := eng.Finish(context.Background(), sess, base.Add(time.Minute)); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if !eng.Progress().IsUnlocked("b") {
		t.Error("b still locked after an attempt on a")
	}

	// A slow attempt on "b" does not reach c's 100 WPM bar.
	sess, err = eng.StartSession("b", 0)
	if err != nil {
		t.Fatalf("StartSession error = %v", err)
	}
	for _, r := range sess.Target() {
		sess.Input(r, base)
	}
	if _, err := eng.Finish(context.Background(), sess, base.Add(10*time.Minute)); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if eng.Progress().IsUnlocked("c") {
		t.Error("c unlocked below its WPM threshold")
	}
}

func TestUnlockChecksFullHistory(t *testing.T) {
	// A qualifying attempt recorded earlier keeps counting even after
	// later failing runs.
	lessons := []model.Lesson{
		{ID: "a"},
		{ID: "b", UnlockRule: &model.UnlockRule{DependsOn: "a", MinAcc: 0.9}},
	}
	state := model.State{
		Settings: model.DefaultSettings(),
		Attempts: model.AttemptsByLesson{
			"a": {{ID: "att-old", LessonID: "a", Acc: 0.95, WPM: 30}},
		},
	}
	eng, _ := newTestEngine(t, lessons, state)

	sess, err := eng.StartSession("a", 0)
	if err != nil {
		t.Fatalf("StartSession error = %v", err)
	}
	sess.Input('x', base) // miss
	if _, err := eng.Finish(context.Background(), sess, base.Add(time.Minute)); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if !eng.Progress().IsUnlocked("b") {
		t.Error("b locked despite a historical qualifying attempt")
	}
}

func TestFinishPropagatesStoreError(t *testing.T) {
	store := &fakeStore{insertErr: fmt.Errorf("disk full")}
	eng := New(catalog.All(), store, content.NewWithSource(rand.NewSource(1)), model.State{Settings: model.DefaultSettings()})

	sess, err := eng.StartSession("l01", 0)
	if err != nil {
		t.Fatalf("StartSession error = %v", err)
	}
	sess.Input('a', base)
	if _, err := eng.Finish(context.Background(), sess, base.Add(time.Second)); err == nil {
		t.Error("Finish() error = nil, want persistence failure")
	}
}

func TestUpdateSettingsPersists(t *testing.T) {
	eng, store := newTestEngine(t, catalog.All(), model.State{Settings: model.DefaultSettings()})
	want := model.Settings{TargetAccuracy: 0.95, TargetWpm: 35, BackspacePenalty: true}
	if err := eng.UpdateSettings(context.Background(), want); err != nil {
		t.Fatalf("UpdateSettings error = %v", err)
	}
	if eng.Settings() != want {
		t.Errorf("Settings() = %+v, want %+v", eng.Settings(), want)
	}
	if len(store.settings) != 1 || store.settings[0] != want {
		t.Errorf("persisted settings = %+v, want one save of %+v", store.settings, want)
	}
}

func TestDefaultPenalty(t *testing.T) {
	if got := DefaultPenalty(10, 3); got != 7 {
		t.Errorf("DefaultPenalty(10, 3) = %d, want 7", got)
	}
	if got := DefaultPenalty(2, 5); got != 0 {
		t.Errorf("DefaultPenalty(2, 5) = %d, want 0", got)
	}
}
