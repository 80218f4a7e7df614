package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/keydrill/keydrill/internal/engine"
	"github.com/keydrill/keydrill/internal/model"
	"github.com/keydrill/keydrill/internal/session"
	"github.com/keydrill/keydrill/internal/stats"
)

const tickInterval = 250 * time.Millisecond

type tickMsg time.Time

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	starStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	noticeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#7CB342"))
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	modalStyle       = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#C89A3A")).
				Padding(1, 2)
)

// Model implements the Bubble Tea practice UI.
type Model struct {
	eng       *engine.Engine
	lesson    model.Lesson
	countdown time.Duration

	sess        *session.Session
	targetRunes []rune
	inputRunes  []rune

	progressBar progress.Model

	width  int
	height int

	confirmExit bool
	errMsg      string

	attempt       *model.Attempt
	unlockedTitle string
}

// NewModel opens a session for the lesson and builds the practice UI.
func NewModel(eng *engine.Engine, lesson model.Lesson, countdown time.Duration) (*Model, error) {
	m := &Model{
		eng:         eng,
		lesson:      lesson,
		countdown:   countdown,
		progressBar: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	if err := m.resetSession(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Model) resetSession() error {
	sess, err := m.eng.StartSession(m.lesson.ID, m.countdown)
	if err != nil {
		return err
	}
	m.sess = sess
	m.targetRunes = []rune(sess.Target())
	m.inputRunes = nil
	m.attempt = nil
	m.unlockedTitle = ""
	m.errMsg = ""
	return nil
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = minInt(40, maxInt(10, m.width/3))
		return m, nil
	case tickMsg:
		// The countdown fires independently of keystrokes; both run on the
		// same event queue, so there is no race with input handling.
		if m.attempt == nil && m.sess.Expired(time.Time(msg)) {
			m.finish()
		}
		return m, tick()
	case tea.KeyMsg:
		return m.handleKey(msg)
	default:
		return m, nil
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.confirmExit {
		switch msg.String() {
		case "y", "Y":
			// Discard without persisting anything.
			return m, tea.Quit
		default:
			m.confirmExit = false
			return m, nil
		}
	}
	if m.attempt != nil {
		switch msg.String() {
		case "r":
			if err := m.resetSession(); err != nil {
				m.errMsg = err.Error()
			}
			return m, nil
		case "q", "enter", "esc":
			return m, tea.Quit
		default:
			return m, nil
		}
	}
	switch msg.Type {
	case tea.KeyEsc:
		m.confirmExit = true
		return m, nil
	case tea.KeyCtrlE:
		m.finish()
		return m, nil
	case tea.KeyBackspace, tea.KeyDelete:
		m.sess.Backspace()
		if len(m.inputRunes) > 0 {
			m.inputRunes = m.inputRunes[:len(m.inputRunes)-1]
		}
		return m, nil
	case tea.KeyEnter:
		m.handleRunes([]rune{'\n'})
		return m, nil
	case tea.KeySpace:
		m.handleRunes([]rune{' '})
		return m, nil
	case tea.KeyRunes:
		m.handleRunes(msg.Runes)
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleRunes(runes []rune) {
	now := time.Now()
	for _, r := range runes {
		if len(m.inputRunes) >= len(m.targetRunes) {
			break
		}
		m.sess.Input(r, now)
		m.inputRunes = append(m.inputRunes, r)
	}
	if m.sess.Complete() {
		m.finish()
	}
}

func (m *Model) finish() {
	if m.attempt != nil {
		return
	}
	before := m.eng.Progress().Unlocked
	attempt, err := m.eng.Finish(context.Background(), m.sess, time.Now())
	if err != nil {
		if err == session.ErrNotStarted {
			m.errMsg = "type at least one character before finishing"
			return
		}
		m.errMsg = err.Error()
		logErrf("failed to record attempt: %v\n", err)
		return
	}
	m.attempt = &attempt
	after := m.eng.Progress().Unlocked
	if len(after) > len(before) {
		if lesson, ok := findLesson(m.eng.Lessons(), after[len(after)-1]); ok {
			m.unlockedTitle = lesson.Title
		}
	}
}

func findLesson(lessons []model.Lesson, id string) (model.Lesson, bool) {
	for _, lesson := range lessons {
		if lesson.ID == id {
			return lesson, true
		}
	}
	return model.Lesson{}, false
}

// View implements tea.Model.
func (m *Model) View() string {
	if len(m.targetRunes) == 0 {
		return ""
	}
	if m.confirmExit {
		return m.centered(modalStyle.Render("Quit this practice run?\nUnsaved progress will be lost.\n\n[y] quit  [any key] keep typing"))
	}
	if m.attempt != nil {
		return m.centered(m.renderResult())
	}
	return m.renderTyping()
}

func (m *Model) renderTyping() string {
	cursorIndex := -1
	if len(m.inputRunes) < len(m.targetRunes) {
		cursorIndex = len(m.inputRunes)
	}
	styledRunes := buildStyledRunes(m.targetRunes, m.inputRunes, cursorIndex)
	if m.width == 0 || m.height == 0 {
		return renderStyledRunes(styledRunes)
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	wrapped := wrapStyledRunes(styledRunes, contentWidth)
	content := lipgloss.NewStyle().Width(contentWidth).Render(wrapped)

	header := m.renderHUD()
	footer := m.renderFooter()
	bodyHeight := m.height - lipgloss.Height(header) - 1
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return header + "\n" + body + "\n" + footerLine
}

func (m *Model) renderHUD() string {
	snap := m.sess.Snapshot(time.Now())
	segments := []string{
		titleStyle.Render(m.lesson.Title),
		m.progressBar.ViewAs(snap.Progress),
		fmt.Sprintf("%d%%", int(snap.Progress*100)),
		fmt.Sprintf("WPM %d", snap.WPM),
		fmt.Sprintf("Acc %.1f%%", snap.Accuracy*100),
		fmt.Sprintf("Combo %d", snap.Combo),
		fmt.Sprintf("Time %s", formatDuration(snap.Elapsed)),
	}
	if m.countdown > 0 {
		segments = append(segments, fmt.Sprintf("Left %s", formatDuration(m.sess.Remaining(time.Now()))))
	}
	line := strings.Join(segments, "  ")
	return lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, line)
}

func (m *Model) renderFooter() string {
	help := "esc quit · ctrl+e finish early · enter types a line break"
	if m.errMsg != "" {
		return errorStyle.Render(m.errMsg)
	}
	return footerStyle.Render(help)
}

func (m *Model) renderResult() string {
	a := m.attempt
	lines := []string{
		titleStyle.Render(m.lesson.Title),
		starStyle.Render(strings.Repeat("★", a.Stars) + strings.Repeat("☆", 3-a.Stars)),
		"",
		fmt.Sprintf("WPM       %d", a.WPM),
		fmt.Sprintf("Accuracy  %.1f%%", a.Acc*100),
		fmt.Sprintf("Duration  %s", formatDuration(time.Duration(a.DurationMs)*time.Millisecond)),
		fmt.Sprintf("Max combo %d", a.MaxCombo),
		fmt.Sprintf("Mistakes  %d", a.Mistakes),
	}
	if len(a.Errors) > 0 {
		parts := make([]string, 0, len(a.Errors))
		for ch, count := range a.Errors {
			parts = append(parts, fmt.Sprintf("%s×%d", stats.DisplayChar(ch), count))
		}
		lines = append(lines, "Missed    "+strings.Join(parts, " "))
	}
	if m.unlockedTitle != "" {
		lines = append(lines, "", noticeStyle.Render("Unlocked: "+m.unlockedTitle))
	}
	lines = append(lines, "", footerStyle.Render("[r] retry  [q] quit"))
	return modalStyle.Render(strings.Join(lines, "\n"))
}

func (m *Model) centered(content string) string {
	if m.width == 0 || m.height == 0 {
		return content
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	seconds := int(d.Round(time.Second).Seconds())
	mins := seconds / 60
	secs := seconds % 60
	if mins == 0 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%dm%02ds", mins, secs)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
