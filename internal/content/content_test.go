package content

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"
)

func TestDrillLessonsAreFixed(t *testing.T) {
	g := New()
	want := []string{
		"a s d f j k l ;",
		"asdf jkl; asdf jkl;",
	}
	if got := g.Generate("l01"); !reflect.DeepEqual(got, want) {
		t.Errorf("Generate(l01) = %q, want %q", got, want)
	}
	// Generated slices are copies; mutating one must not leak.
	got := g.Generate("l01")
	got[0] = "mutated"
	if again := g.Generate("l01"); again[0] != want[0] {
		t.Errorf("Generate(l01) after mutation = %q, want %q", again[0], want[0])
	}
}

func TestUnknownLessonFallsBack(t *testing.T) {
	g := New()
	got := g.Generate("does-not-exist")
	if len(got) != 1 || got[0] != fallbackText {
		t.Errorf("Generate(unknown) = %q, want fallback text", got)
	}
}

func TestWordLessonIsDeterministicPerSeed(t *testing.T) {
	a := NewWithSource(rand.NewSource(42)).Generate("l05")
	b := NewWithSource(rand.NewSource(42)).Generate("l05")
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same seed produced different text: %q vs %q", a, b)
	}
}

func TestWordLessonShape(t *testing.T) {
	pool := map[string]bool{}
	for _, w := range mixedPool() {
		pool[w] = true
	}

	lines := NewWithSource(rand.NewSource(7)).Generate("l05")
	if len(lines) != wordLineCount {
		t.Fatalf("got %d lines, want %d", len(lines), wordLineCount)
	}
	for _, line := range lines {
		words := strings.Fields(line)
		if len(words) != wordsPerLine {
			t.Errorf("line %q has %d words, want %d", line, len(words), wordsPerLine)
		}
		seen := map[string]bool{}
		for _, w := range words {
			if !pool[w] {
				t.Errorf("word %q not in the easy/medium pool", w)
			}
			if seen[w] {
				t.Errorf("word %q repeated within one line", w)
			}
			seen[w] = true
		}
	}
}

func TestMixedPoolCoversEveryTier(t *testing.T) {
	pool := map[string]bool{}
	for _, w := range mixedPool() {
		pool[w] = true
	}
	for _, tier := range wordTiers {
		words := commonWords[tier]
		if len(words) == 0 {
			t.Fatalf("tier %q is empty", tier)
		}
		for _, w := range words {
			if !pool[w] {
				t.Errorf("tier %q word %q missing from the sampling pool", tier, w)
			}
		}
	}
}

func TestSentenceLessonDrawsFromPool(t *testing.T) {
	known := map[string]bool{}
	for _, s := range classicSentences {
		known[s] = true
	}
	lines := NewWithSource(rand.NewSource(3)).Generate("l06")
	if len(lines) != sentenceCount {
		t.Fatalf("got %d lines, want %d", len(lines), sentenceCount)
	}
	for _, line := range lines {
		if !known[line] {
			t.Errorf("sentence %q not in the pool", line)
		}
	}
}

func TestTargetTextJoinsWithLineBreaks(t *testing.T) {
	got := New().TargetText("l01")
	want := "a s d f j k l ;\nasdf jkl; asdf jkl;"
	if got != want {
		t.Errorf("TargetText(l01) = %q, want %q", got, want)
	}
}
