// Package catalog holds the ordered, immutable lesson list.
package catalog

import "github.com/keydrill/keydrill/internal/model"

var lessons = []model.Lesson{
	{
		ID:             "l01",
		Title:          "Home row ASDF JKL;",
		Description:    "Learn the resting position for both hands.",
		TargetAccuracy: 0.9,
		TargetWpm:      20,
	},
	{
		ID:             "l02",
		Title:          "Top row QWER UIOP",
		Description:    "Reach up to the top row and return to home position.",
		TargetAccuracy: 0.9,
		TargetWpm:      22,
		UnlockRule:     &model.UnlockRule{DependsOn: "l01", MinAcc: 0.9},
	},
	{
		ID:             "l03",
		Title:          "Bottom row ZXCV M,./",
		Description:    "Cross rows with both hands on the bottom row.",
		TargetAccuracy: 0.9,
		TargetWpm:      23,
		UnlockRule:     &model.UnlockRule{DependsOn: "l02", MinAcc: 0.9},
	},
	{
		ID:             "l04",
		Title:          "Number row 1234567890",
		Description:    "Stretch for the number row without losing the home position.",
		TargetAccuracy: 0.92,
		TargetWpm:      24,
		UnlockRule:     &model.UnlockRule{DependsOn: "l03", MinAcc: 0.9},
	},
	{
		ID:             "l05",
		Title:          "Common words",
		Description:    "Combine all rows into everyday vocabulary.",
		TargetAccuracy: 0.93,
		TargetWpm:      26,
		UnlockRule:     &model.UnlockRule{DependsOn: "l04", MinAcc: 0.92, MinWpm: 24},
	},
	{
		ID:             "l06",
		Title:          "Classic sentences",
		Description:    "Full-keyboard practice on pangrams and proverbs.",
		TargetAccuracy: 0.95,
		TargetWpm:      28,
		UnlockRule:     &model.UnlockRule{DependsOn: "l05", MinAcc: 0.93, MinWpm: 26},
	},
}

// All returns the catalog in lesson order. Callers must not modify it.
func All() []model.Lesson {
	return lessons
}

// First returns the first lesson in the catalog.
func First() model.Lesson {
	return lessons[0]
}

// ByID looks up a lesson by id.
func ByID(id string) (model.Lesson, bool) {
	for _, lesson := range lessons {
		if lesson.ID == id {
			return lesson, true
		}
	}
	return model.Lesson{}, false
}

// Index returns the position of the lesson in catalog order, or -1.
func Index(id string) int {
	for i, lesson := range lessons {
		if lesson.ID == id {
			return i
		}
	}
	return -1
}

// Next returns the lesson immediately following the given id in catalog
// order, if any.
func Next(id string) (model.Lesson, bool) {
	idx := Index(id)
	if idx < 0 || idx+1 >= len(lessons) {
		return model.Lesson{}, false
	}
	return lessons[idx+1], true
}
