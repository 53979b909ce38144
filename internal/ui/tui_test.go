package ui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nibzard/tasklist/internal/storage"
	"github.com/nibzard/tasklist/internal/todo"
)

func newTestModel(t *testing.T) *tuiModel {
	t.Helper()
	snap, err := storage.NewSnapshot(storage.NewMemory(), nil, "")
	if err != nil {
		t.Fatalf("NewSnapshot: %v", err)
	}
	base := time.UnixMilli(1_700_000_000_000)
	var tick int64
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Millisecond)
	}
	store, err := todo.Open(snap, todo.WithClock(clock))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return newTUIModel(store, "todos")
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m *tuiModel, msgs ...tea.Msg) {
	for _, msg := range msgs {
		m.Update(msg)
	}
}

// addTask enters add mode, types text and submits it.
func addTask(m *tuiModel, text string) {
	if m.mode != modeAdd {
		press(m, keyRunes("a"))
	}
	press(m, keyRunes(text), tea.KeyMsg{Type: tea.KeyEnter})
}

func TestTUI_EmptyView(t *testing.T) {
	m := newTestModel(t)
	out := m.View()

	for _, want := range []string{"todos", "No tasks", "0 tasks left", "All", "Active", "Completed"} {
		if !strings.Contains(out, want) {
			t.Errorf("View missing %q:\n%s", want, out)
		}
	}
}

func TestTUI_AddTasks(t *testing.T) {
	m := newTestModel(t)

	addTask(m, "buy milk")
	addTask(m, "walk dog")

	if m.mode != modeAdd {
		t.Fatalf("mode: got %v, want add mode to stay open after submit", m.mode)
	}
	if got := m.input.Value(); got != "" {
		t.Errorf("input should be cleared after submit, got %q", got)
	}
	if got := m.store.Len(); got != 2 {
		t.Fatalf("store Len: got %d, want 2", got)
	}

	out := m.View()
	for _, want := range []string{"[ ] buy milk", "[ ] walk dog", "2 tasks left"} {
		if !strings.Contains(out, want) {
			t.Errorf("View missing %q:\n%s", want, out)
		}
	}
}

func TestTUI_AddEmptyShowsMessage(t *testing.T) {
	m := newTestModel(t)

	press(m, keyRunes("a"), keyRunes("   "), tea.KeyMsg{Type: tea.KeyEnter})

	if m.store.Len() != 0 {
		t.Fatalf("blank input must not add a task")
	}
	if !strings.Contains(m.status, EmptyInputMessage) {
		t.Errorf("status: got %q, want %q", m.status, EmptyInputMessage)
	}
}

func TestTUI_EscCancelsAdd(t *testing.T) {
	m := newTestModel(t)

	press(m, keyRunes("a"), keyRunes("draft"), tea.KeyMsg{Type: tea.KeyEsc})

	if m.mode != modeList {
		t.Fatalf("mode: got %v, want list", m.mode)
	}
	if m.store.Len() != 0 {
		t.Errorf("cancelled input must not add a task")
	}
	if m.input.Value() != "" {
		t.Errorf("input should be cleared on cancel, got %q", m.input.Value())
	}
}

func TestTUI_ToggleAndCount(t *testing.T) {
	m := newTestModel(t)
	addTask(m, "a")
	addTask(m, "b")
	press(m, tea.KeyMsg{Type: tea.KeyEsc})

	press(m, keyRunes("k"), keyRunes("x"))

	view := m.store.Query()
	if !view.Visible[0].Completed {
		t.Fatalf("first task should be completed: %+v", view.Visible)
	}
	if view.ActiveCount != 1 {
		t.Errorf("ActiveCount: got %d, want 1", view.ActiveCount)
	}
	out := m.View()
	if !strings.Contains(out, "[x] a") || !strings.Contains(out, "1 task left") {
		t.Errorf("unexpected view:\n%s", out)
	}

	press(m, keyRunes("x"))
	if m.store.Query().ActiveCount != 2 {
		t.Errorf("second toggle should restore the task")
	}
}

func TestTUI_FilterKeys(t *testing.T) {
	m := newTestModel(t)
	addTask(m, "a")
	addTask(m, "b")
	press(m, tea.KeyMsg{Type: tea.KeyEsc}, keyRunes("k"), keyRunes("x"))

	tests := []struct {
		key     tea.KeyMsg
		filter  todo.Filter
		visible []string
	}{
		{keyRunes("2"), todo.FilterActive, []string{"b"}},
		{keyRunes("3"), todo.FilterCompleted, []string{"a"}},
		{keyRunes("1"), todo.FilterAll, []string{"a", "b"}},
		{tea.KeyMsg{Type: tea.KeyTab}, todo.FilterActive, []string{"b"}},
	}

	for _, tt := range tests {
		press(m, tt.key)
		if m.view.Filter != tt.filter {
			t.Fatalf("after %q: filter got %q, want %q", tt.key.String(), m.view.Filter, tt.filter)
		}
		var got []string
		for _, task := range m.view.Visible {
			got = append(got, task.Text)
		}
		if strings.Join(got, ",") != strings.Join(tt.visible, ",") {
			t.Errorf("after %q: visible got %v, want %v", tt.key.String(), got, tt.visible)
		}
		if m.view.ActiveCount != 1 {
			t.Errorf("after %q: ActiveCount got %d, want 1", tt.key.String(), m.view.ActiveCount)
		}
	}
}

func TestTUI_FilterWithNoMatchesShowsPlaceholder(t *testing.T) {
	m := newTestModel(t)
	addTask(m, "only active")
	press(m, tea.KeyMsg{Type: tea.KeyEsc}, keyRunes("3"))

	out := m.View()
	if !strings.Contains(out, "No tasks") {
		t.Errorf("expected placeholder:\n%s", out)
	}
	if !strings.Contains(out, "1 task left") {
		t.Errorf("count must ignore the filter:\n%s", out)
	}
}

func TestTUI_DeleteAndClear(t *testing.T) {
	m := newTestModel(t)
	addTask(m, "a")
	addTask(m, "b")
	addTask(m, "c")
	press(m, tea.KeyMsg{Type: tea.KeyEsc})

	// Cursor sits on "c" after the last add.
	press(m, keyRunes("d"))
	if m.store.Len() != 2 {
		t.Fatalf("delete: Len got %d, want 2", m.store.Len())
	}
	if m.cursor != 1 {
		t.Errorf("cursor should clamp to last row, got %d", m.cursor)
	}

	press(m, keyRunes("x"), keyRunes("c"))
	view := m.store.Query()
	if len(view.Visible) != 1 || view.Visible[0].Text != "a" {
		t.Fatalf("clear completed: got %+v", view.Visible)
	}
	if !strings.Contains(m.status, "Cleared 1") {
		t.Errorf("status: got %q", m.status)
	}
}

func TestTUI_KeysOnEmptyListAreNoops(t *testing.T) {
	m := newTestModel(t)
	for _, k := range []string{"x", "d", "j", "k"} {
		press(m, keyRunes(k))
	}
	if m.cursor != 0 || m.store.Len() != 0 {
		t.Errorf("unexpected state: cursor=%d len=%d", m.cursor, m.store.Len())
	}
}

func TestTUI_QuitAndHelp(t *testing.T) {
	m := newTestModel(t)

	press(m, keyRunes("?"))
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Errorf("help screen not shown")
	}
	press(m, keyRunes("?"))
	if strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Errorf("help screen should toggle off")
	}

	_, cmd := m.Update(keyRunes("q"))
	if cmd == nil {
		t.Fatal("q should return a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Errorf("q should quit")
	}
}

func TestTUI_QInAddModeIsText(t *testing.T) {
	m := newTestModel(t)
	addTask(m, "quiet")
	if got := m.store.Query().Visible[0].Text; got != "quiet" {
		t.Errorf("got %q, want quiet", got)
	}
}

func TestTUIOptions(t *testing.T) {
	tests := []struct {
		name      string
		opts      []TUIOption
		title     string
		altScreen bool
	}{
		{"defaults", nil, "todos", true},
		{"title", []TUIOption{WithTitle("Groceries")}, "Groceries", true},
		{"empty title keeps default", []TUIOption{WithTitle("")}, "todos", true},
		{"inline", []TUIOption{WithTitle("x"), WithAltScreen(false)}, "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTUIConfig(tt.opts...)
			if c.title != tt.title {
				t.Errorf("title: got %q, want %q", c.title, tt.title)
			}
			if c.altScreen != tt.altScreen {
				t.Errorf("altScreen: got %v, want %v", c.altScreen, tt.altScreen)
			}
		})
	}

	m := newTUIModel(newTestModel(t).store, newTUIConfig(WithTitle("Groceries")).title)
	if !strings.Contains(m.View(), "Groceries") {
		t.Errorf("View should show the custom title:\n%s", m.View())
	}
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"<b>hi</b>", "<b>hi</b>"},
		{"\x1b[31mred\x1b[0m", "red"},
		{"line\nbreak", "line break"},
	}

	for _, tt := range tests {
		if got := SanitizeText(tt.in); got != tt.want {
			t.Errorf("SanitizeText(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestClampCursor(t *testing.T) {
	tests := []struct {
		cursor, n, want int
	}{
		{0, 0, 0},
		{-1, 3, 0},
		{1, 3, 1},
		{5, 3, 2},
	}
	for _, tt := range tests {
		if got := clampCursor(tt.cursor, tt.n); got != tt.want {
			t.Errorf("clampCursor(%d, %d): got %d, want %d", tt.cursor, tt.n, got, tt.want)
		}
	}
}
