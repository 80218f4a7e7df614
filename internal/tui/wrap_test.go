package tui

import (
	"strings"
	"testing"
)

func plainRunes(text string) []styledRune {
	out := make([]styledRune, 0, len(text))
	for _, r := range text {
		s := string(r)
		if r == '\n' {
			s = "↵"
		}
		out = append(out, styledRune{
			s:       s,
			width:   1,
			isSpace: r == ' ',
			isBreak: r == '\n',
		})
	}
	return out
}

func TestWrapBreaksAtLastSpace(t *testing.T) {
	got := wrapStyledRunes(plainRunes("one two three"), 8)
	want := "one two\nthree"
	if got != want {
		t.Errorf("wrap = %q, want %q", got, want)
	}
}

func TestWrapHardBreaksOnLineBreak(t *testing.T) {
	got := wrapStyledRunes(plainRunes("ab\ncd"), 20)
	lines := strings.Split(got, "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2: %q", len(lines), got)
	}
	if lines[0] != "ab↵" || lines[1] != "cd" {
		t.Errorf("lines = %q, want [ab↵ cd]", lines)
	}
}

func TestWrapLongWordSplitsHard(t *testing.T) {
	got := wrapStyledRunes(plainRunes("abcdefgh"), 3)
	want := "abc\ndef\ngh"
	if got != want {
		t.Errorf("wrap = %q, want %q", got, want)
	}
}

func TestWrapZeroWidthPassesThrough(t *testing.T) {
	got := wrapStyledRunes(plainRunes("abc"), 0)
	if got != "abc" {
		t.Errorf("wrap = %q, want %q", got, "abc")
	}
}

func TestFindWords(t *testing.T) {
	words := findWords([]rune("ab cd\nef"))
	want := []wordRange{{0, 2}, {3, 5}, {6, 8}}
	if len(words) != len(want) {
		t.Fatalf("got %d words, want %d", len(words), len(want))
	}
	for i, w := range want {
		if words[i] != w {
			t.Errorf("word[%d] = %+v, want %+v", i, words[i], w)
		}
	}
}

func TestFindWordsEmpty(t *testing.T) {
	if words := findWords([]rune("  \n ")); len(words) != 0 {
		t.Errorf("findWords(separators only) = %v, want none", words)
	}
}

func TestWordForCursor(t *testing.T) {
	words := findWords([]rune("ab cd"))
	if w := wordForCursor(words, 0); w == nil || w.start != 0 {
		t.Errorf("cursor 0 word = %+v, want first word", w)
	}
	// Cursor on the separator belongs to the next word.
	if w := wordForCursor(words, 2); w == nil || w.start != 3 {
		t.Errorf("cursor 2 word = %+v, want second word", w)
	}
	if w := wordForCursor(words, 4); w == nil || w.start != 3 {
		t.Errorf("cursor 4 word = %+v, want second word", w)
	}
	// Cursor past the end sticks to the last word.
	if w := wordForCursor(words, 99); w == nil || w.start != 3 {
		t.Errorf("cursor 99 word = %+v, want last word", w)
	}
	if w := wordForCursor(nil, 0); w != nil {
		t.Errorf("no words = %+v, want nil", w)
	}
}

func TestBuildStyledRunesShape(t *testing.T) {
	target := []rune("a b\nc")
	input := []rune("a")
	got := buildStyledRunes(target, input, 1)
	if len(got) != len(target) {
		t.Fatalf("got %d styled runes, want %d", len(got), len(target))
	}
	if !got[1].isSpace {
		t.Error("space position not marked isSpace")
	}
	if !got[3].isBreak {
		t.Error("line break position not marked isBreak")
	}
	for i, item := range got {
		if item.width != 1 {
			t.Errorf("rune %d width = %d, want 1", i, item.width)
		}
	}
}
