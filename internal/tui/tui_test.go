package tui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada/internal/kv"
	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
)

func newStore(t *testing.T, titles ...string) *store.Store {
	t.Helper()
	st := store.New(kv.NewMemory())
	t.Cleanup(func() { st.Close() })
	for _, title := range titles {
		if _, err := st.Add(title); err != nil {
			t.Fatalf("seed %q: %v", title, err)
		}
	}
	return st
}

func newModel(t *testing.T, st *store.Store, opts Options) Model {
	t.Helper()
	m := New(st, opts)
	t.Cleanup(m.Close)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press sends keys and delivers any snapshot the store published, the way
// the running program would.
func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(keyMsg(k))
		m = deliver(next.(Model))
	}
	return m
}

func deliver(m Model) Model {
	select {
	case snap := <-m.snapshots:
		next, _ := m.Update(snapshotMsg(snap))
		return next.(Model)
	default:
		return m
	}
}

func rowTitles(m Model) []string {
	var out []string
	for _, it := range m.list.Items() {
		out = append(out, it.(taskItem).row.Title)
	}
	return out
}

func TestAddTask(t *testing.T) {
	st := newStore(t)
	m := newModel(t, st, Options{})

	m = press(t, m, "a")
	if m.mode != modeAdd || !m.add.Focused() {
		t.Fatalf("a should focus the add field (mode %v)", m.mode)
	}
	m = press(t, m, "  Buy milk ", "enter")

	tasks := st.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" || tasks[0].Completed {
		t.Fatalf("store = %+v", tasks)
	}
	if got := rowTitles(m); len(got) != 1 || got[0] != "Buy milk" {
		t.Errorf("rows = %v", got)
	}
	if m.mode != modeList || m.add.Value() != "" {
		t.Errorf("after add: mode %v, field %q", m.mode, m.add.Value())
	}

	m = press(t, m, "a", "second", "enter")
	if m.list.Index() != 1 {
		t.Errorf("new task should be selected, index = %d", m.list.Index())
	}
}

func TestAddBlankShowsNotice(t *testing.T) {
	st := newStore(t)
	m := newModel(t, st, Options{})

	m = press(t, m, "a", "   ", "enter")
	if m.notice != "Task title cannot be empty." {
		t.Fatalf("notice = %q", m.notice)
	}
	if st.Len() != 0 {
		t.Errorf("blank add reached the store")
	}
	if m.add.Value() != "   " {
		t.Errorf("add field = %q, typed text should be kept", m.add.Value())
	}

	// the notice blocks other input
	m = press(t, m, "q")
	if m.notice == "" {
		t.Fatal("q should not dismiss the notice")
	}
	m = press(t, m, "enter")
	if m.notice != "" || m.mode != modeAdd {
		t.Errorf("after dismiss: notice %q, mode %v", m.notice, m.mode)
	}
}

func TestToggleAndDelete(t *testing.T) {
	st := newStore(t, "one", "two")
	m := newModel(t, st, Options{})

	m = press(t, m, " ")
	first, _ := st.At(0)
	if !first.Completed {
		t.Fatal("space should complete the selected task")
	}
	if it := m.list.Items()[0].(taskItem); !it.row.Completed {
		t.Error("row not re-derived after toggle")
	}
	m = press(t, m, "x")
	if first, _ = st.At(0); first.Completed {
		t.Fatal("x should toggle back")
	}

	m = press(t, m, "d")
	if got := rowTitles(m); len(got) != 1 || got[0] != "two" {
		t.Fatalf("rows after delete = %v", got)
	}
	m = press(t, m, "d")
	if st.Len() != 0 || len(m.list.Items()) != 0 {
		t.Fatalf("store %d, rows %d after deleting everything", st.Len(), len(m.list.Items()))
	}

	// nothing selected: keys are harmless
	m = press(t, m, " ", "d", "e")
	if m.mode != modeList {
		t.Errorf("mode = %v on empty list", m.mode)
	}
}

func TestEditTask(t *testing.T) {
	st := newStore(t, "Buy milk")
	m := newModel(t, st, Options{})
	m = press(t, m, " ")

	m = press(t, m, "e")
	if m.mode != modeEdit || m.edit.Value() != "Buy milk" {
		t.Fatalf("edit dialog: mode %v, draft %q", m.mode, m.edit.Value())
	}
	m.edit.SetValue("  Buy oat milk ")
	m = press(t, m, "enter")

	task, _ := st.At(0)
	if task.Title != "Buy oat milk" || !task.Completed {
		t.Errorf("after edit: %+v", task)
	}
	if m.mode != modeList {
		t.Errorf("dialog still open")
	}
	if got := rowTitles(m); got[0] != "Buy oat milk" {
		t.Errorf("rows = %v", got)
	}
}

func TestEditCancelDiscardsDraft(t *testing.T) {
	st := newStore(t, "keep")
	m := newModel(t, st, Options{})

	m = press(t, m, "e")
	m.edit.SetValue("changed")
	m = press(t, m, "esc")

	if task, _ := st.At(0); task.Title != "keep" {
		t.Errorf("cancel mutated the store: %+v", task)
	}
	if m.mode != modeList || m.edit.Value() != "" {
		t.Errorf("after cancel: mode %v, draft %q", m.mode, m.edit.Value())
	}
}

func TestEditBlankKeepsDialog(t *testing.T) {
	st := newStore(t, "keep")
	m := newModel(t, st, Options{})

	m = press(t, m, "e")
	m.edit.SetValue(" ")
	m = press(t, m, "enter")

	if m.notice != "Task title cannot be empty." {
		t.Fatalf("notice = %q", m.notice)
	}
	if task, _ := st.At(0); task.Title != "keep" {
		t.Errorf("blank edit reached the store: %+v", task)
	}
	m = press(t, m, "enter")
	if m.mode != modeEdit || m.edit.Value() != " " {
		t.Errorf("dialog should stay open with its draft: mode %v, draft %q", m.mode, m.edit.Value())
	}
}

func TestNotices(t *testing.T) {
	st := newStore(t)
	loadErr := &store.PersistenceError{Op: store.OpRead, Err: errors.New("corrupt")}
	m := newModel(t, st, Options{LoadErr: loadErr})
	if m.notice != "Failed to load tasks" {
		t.Fatalf("load notice = %q", m.notice)
	}
	if !strings.Contains(m.View(), "Failed to load tasks") {
		t.Error("notice not rendered")
	}
	m = press(t, m, "enter")

	errs := make(chan error, 1)
	m.errs = errs
	next, cmd := m.Update(errMsg{&store.PersistenceError{Op: store.OpWrite, Err: errors.New("disk full")}})
	m = next.(Model)
	if m.notice != "Failed to save tasks" {
		t.Errorf("write notice = %q", m.notice)
	}
	if cmd == nil {
		t.Fatal("errMsg should re-arm the error listener")
	}
	errs <- errors.New("again")
	if msg, ok := cmd().(errMsg); !ok || msg.err.Error() != "again" {
		t.Errorf("listener returned %#v", msg)
	}
}

func TestLatestOnlyKeepsNewest(t *testing.T) {
	ch := make(chan []model.Task, 1)
	obs := latestOnly(ch)
	obs([]model.Task{{ID: "1"}})
	obs([]model.Task{{ID: "1"}, {ID: "2"}})

	got := <-ch
	if len(got) != 2 {
		t.Errorf("got %d tasks, want newest snapshot", len(got))
	}
	select {
	case extra := <-ch:
		t.Errorf("stale snapshot left in channel: %v", extra)
	default:
	}
}

func TestViewRendersRows(t *testing.T) {
	st := newStore(t, "Buy milk", "Walk dog")
	m := newModel(t, st, Options{})
	m = press(t, m, " ")

	view := m.View()
	for _, want := range []string{"To-Do List", "Buy milk", "Walk dog", "to-do item."} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	m = press(t, m, "e")
	if !strings.Contains(m.View(), "Edit Task") {
		t.Error("edit dialog not rendered")
	}
}

func TestQuit(t *testing.T) {
	m := newModel(t, newStore(t), Options{})
	_, cmd := m.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not return tea.Quit")
	}
}
