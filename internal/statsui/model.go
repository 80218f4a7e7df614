// Package statsui provides the Bubble Tea progress browser.
package statsui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/keydrill/keydrill/internal/model"
	"github.com/keydrill/keydrill/internal/stats"
)

const (
	tabLessons = iota
	tabHistory
	tabErrors
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea stats UI over a loaded profile.
type Model struct {
	lessons  []model.Lesson
	progress model.Progress
	attempts model.AttemptsByLesson

	tabs        []string
	activeTab   int
	lessonTable table.Model
	viewports   []viewport.Model

	curveWindow int

	width  int
	height int
}

// NewModel constructs a stats UI model.
func NewModel(lessons []model.Lesson, progress model.Progress, attempts model.AttemptsByLesson, curveWindow int) *Model {
	m := &Model{
		lessons:     lessons,
		progress:    progress,
		attempts:    attempts,
		tabs:        []string{"Lessons", "History", "Errors"},
		curveWindow: curveWindow,
	}
	m.initLessonTable()
	m.viewports = make([]viewport.Model, len(m.tabs))
	for i := range m.viewports {
		m.viewports[i] = viewport.New(0, 0)
	}
	m.renderTabContents()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		m.renderTabContents()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "enter":
			if m.activeTab == tabLessons {
				m.activeTab = tabHistory
				m.renderTabContents()
				return m, tea.ClearScreen
			}
			return m, nil
		default:
			if m.activeTab == tabLessons {
				var cmd tea.Cmd
				m.lessonTable, cmd = m.lessonTable.Update(msg)
				m.renderTabContents()
				return m, cmd
			}
			vp := m.viewports[m.activeTab]
			var cmd tea.Cmd
			vp, cmd = vp.Update(msg)
			m.viewports[m.activeTab] = vp
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	header := m.renderHeader()
	footer := headerStyle.Render("Nav: left/right  Select: up/down/enter  Quit: q")
	bodyHeight := m.height - lipgloss.Height(header) - 1
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	var body string
	if m.activeTab == tabLessons {
		body = tableMutedStyle.Render(m.lessonTable.View())
	} else {
		body = m.viewports[m.activeTab].View()
	}
	return strings.Join([]string{header, fitLines(body, m.width, bodyHeight), footer}, "\n")
}

func (m *Model) initLessonTable() {
	columns := []table.Column{
		{Title: "Lesson", Width: 8},
		{Title: "Title", Width: 28},
		{Title: "Stars", Width: 6},
		{Title: "Best WPM", Width: 9},
		{Title: "Best Acc", Width: 9},
		{Title: "Tries", Width: 6},
		{Title: "State", Width: 7},
	}
	rows := make([]table.Row, 0, len(m.lessons))
	for _, lesson := range m.lessons {
		starCell, wpmCell, accCell := "-", "-", "-"
		if best, ok := m.progress.Best[lesson.ID]; ok {
			starCell = strings.Repeat("★", best.Stars)
			wpmCell = fmt.Sprintf("%d", best.WPM)
			accCell = fmt.Sprintf("%.1f%%", best.Acc*100)
		}
		state := "locked"
		if m.progress.IsUnlocked(lesson.ID) {
			state = "open"
		}
		rows = append(rows, table.Row{
			lesson.ID,
			lesson.Title,
			starCell,
			wpmCell,
			accCell,
			fmt.Sprintf("%d", len(m.attempts[lesson.ID])),
			state,
		})
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
	)
	m.lessonTable = t
}

func (m *Model) selectedLesson() (model.Lesson, bool) {
	idx := m.lessonTable.Cursor()
	if idx < 0 || idx >= len(m.lessons) {
		return model.Lesson{}, false
	}
	return m.lessons[idx], true
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	header := m.renderHeader()
	bodyHeight := m.height - lipgloss.Height(header) - 1
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	for i := range m.viewports {
		m.viewports[i].Width = m.width
		m.viewports[i].Height = bodyHeight
	}
	m.lessonTable.SetHeight(bodyHeight - 1)
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.activeTab = next
	if m.activeTab == tabLessons {
		m.lessonTable.Focus()
	} else {
		m.lessonTable.Blur()
	}
	m.renderTabContents()
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderTabContents() {
	if len(m.viewports) == 0 {
		return
	}
	m.viewports[tabHistory].SetContent(m.renderHistory())
	m.viewports[tabErrors].SetContent(m.renderErrors())
}

func (m *Model) renderHistory() string {
	lesson, ok := m.selectedLesson()
	if !ok {
		return "No lesson selected."
	}
	history := m.attempts[lesson.ID]
	if len(history) == 0 {
		return fmt.Sprintf("No attempts for %s yet.", lesson.Title)
	}
	headers := []string{"When", "WPM", "Acc", "Stars", "Combo", "Mistakes", "Duration"}
	rows := make([][]string, 0, len(history))
	for i := len(history) - 1; i >= 0; i-- {
		a := history[i]
		rows = append(rows, []string{
			a.At.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d", a.WPM),
			fmt.Sprintf("%.1f%%", a.Acc*100),
			strings.Repeat("★", a.Stars),
			fmt.Sprintf("%d", a.MaxCombo),
			fmt.Sprintf("%d", a.Mistakes),
			fmt.Sprintf("%.1fs", float64(a.DurationMs)/1000),
		})
	}
	lines := []string{lesson.Title, ""}
	lines = append(lines, stats.FormatTable(headers, rows, nil)...)

	var buf bytes.Buffer
	only := model.AttemptsByLesson{lesson.ID: history}
	if err := stats.RenderTrends(&buf, []model.Lesson{lesson}, only, m.curveWindow, m.width); err == nil && buf.Len() > 0 {
		lines = append(lines, "", strings.TrimRight(buf.String(), "\n"))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderErrors() string {
	var buf bytes.Buffer
	if err := stats.RenderErrorChars(&buf, m.attempts); err != nil {
		return "Failed to render error stats."
	}
	return strings.TrimRight(buf.String(), "\n")
}

func fitLines(content string, width, height int) string {
	lines := strings.Split(content, "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	for i, line := range lines {
		if lipgloss.Width(line) > width {
			lines[i] = truncateLine(line, width)
		}
	}
	return strings.Join(lines, "\n")
}

func truncateLine(line string, width int) string {
	if width <= 0 {
		return ""
	}
	var b strings.Builder
	current := 0
	for _, r := range line {
		w := lipgloss.Width(string(r))
		if current+w > width {
			break
		}
		b.WriteRune(r)
		current += w
	}
	return b.String()
}
