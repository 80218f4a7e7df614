// Package export serializes the full profile as versioned JSON.
package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/keydrill/keydrill/internal/model"
)

// Version identifies the dump format.
const Version = 1

type dump struct {
	Version  int                  `json:"version"`
	Settings *settingsJSON        `json:"settings"`
	Progress *progressJSON        `json:"progress"`
	Attempts map[string][]attempt `json:"attempts"`
}

type settingsJSON struct {
	TargetAccuracy   float64 `json:"targetAccuracy"`
	TargetWpm        int     `json:"targetWpm"`
	BackspacePenalty bool    `json:"backspacePenalty"`
}

type progressJSON struct {
	Unlocked    []string         `json:"unlocked"`
	Best        map[string]best  `json:"best"`
	LastAttempt *lastAttemptJSON `json:"lastAttempt,omitempty"`
}

type best struct {
	WPM   int       `json:"wpm"`
	Acc   float64   `json:"acc"`
	Stars int       `json:"stars"`
	At    time.Time `json:"at"`
}

type lastAttemptJSON struct {
	LessonID  string    `json:"lessonId"`
	AttemptID string    `json:"attemptId"`
	At        time.Time `json:"at"`
}

type attempt struct {
	ID              string         `json:"id"`
	LessonID        string         `json:"lessonId"`
	At              time.Time      `json:"at"`
	DurationMs      int64          `json:"durationMs"`
	Correct         int            `json:"correct"`
	TotalKeystrokes int            `json:"totalKeystrokes"`
	TextLength      int            `json:"textLength"`
	WPM             int            `json:"wpm"`
	Acc             float64        `json:"acc"`
	Stars           int            `json:"stars"`
	Errors          map[string]int `json:"errors"`
	RawInput        string         `json:"rawInput"`
	MaxCombo        int            `json:"maxCombo,omitempty"`
	Mistakes        int            `json:"mistakes,omitempty"`
}

// Marshal renders the profile as indented JSON.
func Marshal(state model.State) ([]byte, error) {
	out := dump{
		Version: Version,
		Settings: &settingsJSON{
			TargetAccuracy:   state.Settings.TargetAccuracy,
			TargetWpm:        state.Settings.TargetWpm,
			BackspacePenalty: state.Settings.BackspacePenalty,
		},
		Progress: &progressJSON{
			Unlocked: append([]string{}, state.Progress.Unlocked...),
			Best:     map[string]best{},
		},
		Attempts: map[string][]attempt{},
	}
	for id, score := range state.Progress.Best {
		out.Progress.Best[id] = best{WPM: score.WPM, Acc: score.Acc, Stars: score.Stars, At: score.At}
	}
	if la := state.Progress.LastAttempt; la != nil {
		out.Progress.LastAttempt = &lastAttemptJSON{LessonID: la.LessonID, AttemptID: la.AttemptID, At: la.At}
	}
	for id, history := range state.Attempts {
		list := make([]attempt, 0, len(history))
		for _, a := range history {
			list = append(list, attempt{
				ID:              a.ID,
				LessonID:        a.LessonID,
				At:              a.At,
				DurationMs:      a.DurationMs,
				Correct:         a.Correct,
				TotalKeystrokes: a.TotalKeystrokes,
				TextLength:      a.TextLength,
				WPM:             a.WPM,
				Acc:             a.Acc,
				Stars:           a.Stars,
				Errors:          a.Errors,
				RawInput:        a.RawInput,
				MaxCombo:        a.MaxCombo,
				Mistakes:        a.Mistakes,
			})
		}
		out.Attempts[id] = list
	}
	return json.MarshalIndent(out, "", "  ")
}

// Unmarshal parses a dump and validates required sections. Malformed input
// is an explicit import failure, never a partial apply.
func Unmarshal(data []byte) (model.State, error) {
	var in dump
	if err := json.Unmarshal(data, &in); err != nil {
		return model.State{}, fmt.Errorf("invalid import data: %w", err)
	}
	if in.Version != Version {
		return model.State{}, fmt.Errorf("unsupported export version %d", in.Version)
	}
	if in.Settings == nil || in.Progress == nil || in.Attempts == nil {
		return model.State{}, fmt.Errorf("import data is missing required sections")
	}

	state := model.State{
		Settings: model.Settings{
			TargetAccuracy:   in.Settings.TargetAccuracy,
			TargetWpm:        in.Settings.TargetWpm,
			BackspacePenalty: in.Settings.BackspacePenalty,
		},
		Progress: model.Progress{
			Unlocked: append([]string{}, in.Progress.Unlocked...),
			Best:     map[string]model.BestScore{},
		},
		Attempts: model.AttemptsByLesson{},
	}
	for id, score := range in.Progress.Best {
		state.Progress.Best[id] = model.BestScore{WPM: score.WPM, Acc: score.Acc, Stars: score.Stars, At: score.At}
	}
	if la := in.Progress.LastAttempt; la != nil {
		state.Progress.LastAttempt = &model.LastAttempt{LessonID: la.LessonID, AttemptID: la.AttemptID, At: la.At}
	}
	for id, history := range in.Attempts {
		list := make([]model.Attempt, 0, len(history))
		for _, a := range history {
			errs := model.ErrorMap{}
			for ch, count := range a.Errors {
				errs[ch] = count
			}
			list = append(list, model.Attempt{
				ID:              a.ID,
				LessonID:        a.LessonID,
				At:              a.At,
				DurationMs:      a.DurationMs,
				Correct:         a.Correct,
				TotalKeystrokes: a.TotalKeystrokes,
				TextLength:      a.TextLength,
				WPM:             a.WPM,
				Acc:             a.Acc,
				Stars:           a.Stars,
				Errors:          errs,
				RawInput:        a.RawInput,
				MaxCombo:        a.MaxCombo,
				Mistakes:        a.Mistakes,
			})
		}
		state.Attempts[id] = list
	}
	return state, nil
}
