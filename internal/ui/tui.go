// Package ui provides the interactive terminal view of the task list.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/nibzard/tasklist/internal/todo"
)

// EmptyInputMessage is shown when the user submits blank text.
const EmptyInputMessage = "Task text cannot be empty"

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

type tuiConfig struct {
	title     string
	altScreen bool
}

// WithTitle overrides the heading shown above the tabs.
func WithTitle(title string) TUIOption {
	return func(c *tuiConfig) {
		if title != "" {
			c.title = title
		}
	}
}

// WithAltScreen controls whether the TUI takes over the full terminal.
func WithAltScreen(enabled bool) TUIOption {
	return func(c *tuiConfig) {
		c.altScreen = enabled
	}
}

func newTUIConfig(opts ...TUIOption) *tuiConfig {
	c := &tuiConfig{
		title:     "todos",
		altScreen: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RunTUI starts the interactive view over store and blocks until the user quits.
func RunTUI(ctx context.Context, store *todo.Store, opts ...TUIOption) error {
	c := newTUIConfig(opts...)

	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	model := newTUIModel(store, c.title)
	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if c.altScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(model, programOpts...)
	_, err := program.Run()
	return err
}

type inputMode int

const (
	modeList inputMode = iota
	modeAdd
)

type tuiModel struct {
	store    *todo.Store
	title    string
	view     todo.View
	cursor   int
	mode     inputMode
	input    textinput.Model
	status   string
	showHelp bool
	width    int
	styles   styles
}

type styles struct {
	title     lipgloss.Style
	activeTab lipgloss.Style
	tab       lipgloss.Style
	cursor    lipgloss.Style
	done      lipgloss.Style
	footer    lipgloss.Style
	status    lipgloss.Style
	errStatus lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#AF2F2F")),
		activeTab: lipgloss.NewStyle().Bold(true).Underline(true),
		tab:       lipgloss.NewStyle().Faint(true),
		cursor:    lipgloss.NewStyle().Foreground(lipgloss.Color("212")),
		done:      lipgloss.NewStyle().Strikethrough(true).Faint(true),
		footer:    lipgloss.NewStyle().Faint(true),
		status:    lipgloss.NewStyle().Italic(true),
		errStatus: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	}
}

func newTUIModel(store *todo.Store, title string) *tuiModel {
	ti := textinput.New()
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = 512
	ti.Width = 48

	m := &tuiModel{
		store:  store,
		title:  title,
		mode:   modeList,
		input:  ti,
		styles: defaultStyles(),
	}
	m.refresh()
	return m
}

func (m *tuiModel) Init() tea.Cmd {
	return nil
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		if msg.Width > 12 {
			m.input.Width = msg.Width - 12
		}
		return m, nil
	case tea.KeyMsg:
		if m.mode == modeAdd {
			return m.updateAddMode(msg)
		}
		return m.updateListMode(msg.String())
	}
	return m, nil
}

func (m *tuiModel) updateAddMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.leaveAddMode()
		m.status = "Cancelled"
		return m, nil
	case "enter":
		task, err := m.store.Add(m.input.Value())
		if err != nil {
			if errors.Is(err, todo.ErrEmptyInput) {
				m.setError(EmptyInputMessage)
			} else {
				m.setError(fmt.Sprintf("add failed: %v", err))
			}
			return m, nil
		}
		m.input.SetValue("")
		m.refresh()
		m.selectTask(task.ID)
		m.status = "Added task"
		return m, nil
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
}

func (m *tuiModel) updateListMode(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "?":
		m.showHelp = !m.showHelp
	case "a", "enter":
		m.mode = modeAdd
		m.status = "Type a task and press enter, esc to cancel"
		return m, m.input.Focus()
	case "down", "j":
		m.cursor = clampCursor(m.cursor+1, len(m.view.Visible))
	case "up", "k":
		m.cursor = clampCursor(m.cursor-1, len(m.view.Visible))
	case " ", "space", "x":
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		if _, err := m.store.Toggle(task.ID); err != nil {
			m.setError(fmt.Sprintf("toggle failed: %v", err))
			return m, nil
		}
		m.refresh()
		m.status = "Toggled task"
	case "d", "delete":
		task, ok := m.selected()
		if !ok {
			return m, nil
		}
		if err := m.store.Remove(task.ID); err != nil {
			m.setError(fmt.Sprintf("delete failed: %v", err))
			return m, nil
		}
		m.refresh()
		m.status = "Deleted task"
	case "c":
		removed, err := m.store.ClearCompleted()
		if err != nil {
			m.setError(fmt.Sprintf("clear failed: %v", err))
			return m, nil
		}
		m.refresh()
		m.status = fmt.Sprintf("Cleared %d completed", removed)
	case "1":
		m.setFilter(todo.FilterAll)
	case "2":
		m.setFilter(todo.FilterActive)
	case "3":
		m.setFilter(todo.FilterCompleted)
	case "tab":
		m.setFilter(m.view.Filter.Next())
	}
	return m, nil
}

func (m *tuiModel) View() string {
	var b strings.Builder
	m.writeTitle(&b)
	m.writeTabs(&b)

	if m.showHelp {
		writeHelp(&b)
		m.writeFooter(&b)
		return b.String()
	}

	m.writeTasks(&b)
	if m.mode == modeAdd {
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
	}
	m.writeFooter(&b)
	return b.String()
}

// refresh re-reads the view from the store and keeps the cursor in range.
func (m *tuiModel) refresh() {
	m.view = m.store.Query()
	m.cursor = clampCursor(m.cursor, len(m.view.Visible))
}

func (m *tuiModel) setFilter(f todo.Filter) {
	m.store.SetFilter(f)
	m.refresh()
	m.status = ""
}

func (m *tuiModel) leaveAddMode() {
	m.mode = modeList
	m.input.SetValue("")
	m.input.Blur()
}

func (m *tuiModel) setError(msg string) {
	m.status = m.styles.errStatus.Render(msg)
}

func (m *tuiModel) selected() (todo.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.view.Visible) {
		return todo.Task{}, false
	}
	return m.view.Visible[m.cursor], true
}

func (m *tuiModel) selectTask(id int64) {
	for i, t := range m.view.Visible {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
}

func (m *tuiModel) writeTitle(b *strings.Builder) {
	b.WriteString(m.styles.title.Render(m.title))
	b.WriteString("\n\n")
}

func (m *tuiModel) writeTabs(b *strings.Builder) {
	tabs := make([]string, 0, len(todo.Filters()))
	for i, f := range todo.Filters() {
		label := fmt.Sprintf("%d %s", i+1, f.Title())
		if f == m.view.Filter {
			tabs = append(tabs, m.styles.activeTab.Render("["+label+"]"))
		} else {
			tabs = append(tabs, m.styles.tab.Render(" "+label+" "))
		}
	}
	b.WriteString(strings.Join(tabs, "  "))
	b.WriteString("\n\n")
}

func (m *tuiModel) writeTasks(b *strings.Builder) {
	if len(m.view.Visible) == 0 {
		b.WriteString("  No tasks\n\n")
		return
	}
	for i, t := range m.view.Visible {
		b.WriteString(m.formatTask(t, i == m.cursor && m.mode == modeList))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (m *tuiModel) formatTask(t todo.Task, selected bool) string {
	cursor := "  "
	if selected {
		cursor = m.styles.cursor.Render("> ")
	}
	checkbox := "[ ]"
	text := SanitizeText(t.Text)
	if m.width > 10 {
		text = ansi.Truncate(text, m.width-10, "…")
	}
	if t.Completed {
		checkbox = "[x]"
		text = m.styles.done.Render(text)
	}
	return cursor + checkbox + " " + text
}

func (m *tuiModel) writeFooter(b *strings.Builder) {
	b.WriteString(m.view.CountLabel())
	if m.status != "" {
		b.WriteString("  ")
		b.WriteString(m.styles.status.Render(m.status))
	}
	b.WriteString("\n")
	b.WriteString(m.styles.footer.Render("a add • space toggle • d delete • c clear completed • tab filter • ? help • q quit"))
	b.WriteString("\n")
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  a, enter       Add a task (enter submits, esc cancels)\n")
	b.WriteString("  space, x       Toggle selected task\n")
	b.WriteString("  d, delete      Delete selected task\n")
	b.WriteString("  c              Clear completed tasks\n")
	b.WriteString("  1 / 2 / 3      Show all / active / completed\n")
	b.WriteString("  tab            Next filter\n")
	b.WriteString("  up/down, j/k   Move selection\n")
	b.WriteString("  ?              Toggle this help screen\n")
	b.WriteString("  q, ctrl+c      Quit\n\n")
}

// SanitizeText makes task text safe to print on a terminal. Escape sequences
// are removed and remaining control characters become spaces.
func SanitizeText(s string) string {
	s = ansi.Strip(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
}

func clampCursor(cursor, n int) int {
	if n <= 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	return cursor
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
