// Package content builds per-lesson practice text.
package content

import (
	"math/rand"
	"strings"
	"time"
)

// Drill lessons have fixed canonical lines; later tiers are randomized for
// replay variety.
var drillLines = map[string][]string{
	"l01": {
		"a s d f j k l ;",
		"asdf jkl; asdf jkl;",
	},
	"l02": {
		"q w e r u i o p",
		"qwer uiop qwer uiop",
	},
	"l03": {
		"z x c v m , . /",
		"zxcm ., zxcm .,",
	},
	"l04": {
		"1 2 3 4 5 6 7 8 9 0",
		"12345 67890 12345 67890",
	},
}

const fallbackText = "the quick brown fox jumps over the lazy dog"

const (
	wordLineCount = 2
	wordsPerLine  = 5
	sentenceCount = 2
)

var wordTiers = []string{"easy", "medium", "hard"}

// Generator produces practice text for a lesson.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewWithSource returns a Generator with a caller-provided random source,
// so tests can supply a fixed seed.
func NewWithSource(src rand.Source) *Generator {
	return &Generator{rnd: rand.New(src)}
}

// Generate returns the practice lines for a lesson. Unknown lesson ids fall
// back to a default text rather than failing, so a session always has
// typeable content.
func (g *Generator) Generate(lessonID string) []string {
	if lines, ok := drillLines[lessonID]; ok {
		return append([]string(nil), lines...)
	}
	switch lessonID {
	case "l05":
		return g.wordLines()
	case "l06":
		return g.sentenceLines()
	default:
		return []string{fallbackText}
	}
}

// TargetText joins generated lines into the single target string the scorer
// consumes. Line breaks are positional characters like any other.
func (g *Generator) TargetText(lessonID string) string {
	return strings.Join(g.Generate(lessonID), "\n")
}

func (g *Generator) wordLines() []string {
	pool := mixedPool()
	lines := make([]string, 0, wordLineCount)
	for i := 0; i < wordLineCount; i++ {
		lines = append(lines, strings.Join(g.sampleWords(pool, wordsPerLine), " "))
	}
	return lines
}

// mixedPool flattens every difficulty tier into one sampling pool.
func mixedPool() []string {
	size := 0
	for _, tier := range wordTiers {
		size += len(commonWords[tier])
	}
	pool := make([]string, 0, size)
	for _, tier := range wordTiers {
		pool = append(pool, commonWords[tier]...)
	}
	return pool
}

// sampleWords picks count distinct words via a partial Fisher-Yates shuffle.
func (g *Generator) sampleWords(pool []string, count int) []string {
	if count > len(pool) {
		count = len(pool)
	}
	shuffled := append([]string(nil), pool...)
	for i := 0; i < count; i++ {
		j := i + g.rnd.Intn(len(shuffled)-i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:count]
}

// sentenceLines selects uniformly with replacement, so repeats across
// sessions are possible and expected.
func (g *Generator) sentenceLines() []string {
	lines := make([]string, 0, sentenceCount)
	for i := 0; i < sentenceCount; i++ {
		lines = append(lines, classicSentences[g.rnd.Intn(len(classicSentences))])
	}
	return lines
}
