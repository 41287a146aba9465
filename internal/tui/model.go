// Package tui is the interactive presentation layer: a Bubble Tea list of
// tasks with an add field, a modal edit dialog and blocking notices.
//
// The model holds no task state of its own. It forwards intents to the
// store and re-derives its rows from the snapshots the store publishes.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/idilsaglam/tada/internal/model"
	"github.com/idilsaglam/tada/internal/store"
	"github.com/idilsaglam/tada/internal/ui"
)

type mode int

const (
	modeList mode = iota
	modeAdd
	modeEdit
)

// snapshotMsg carries the latest collection from the store.
type snapshotMsg []model.Task

// errMsg carries an asynchronous persistence failure.
type errMsg struct{ err error }

type keyMap struct {
	add, edit, toggle, remove, quit key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		add:    key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add")),
		edit:   key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit")),
		toggle: key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
		remove: key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
		quit:   key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// Options wires the model to the outside world.
type Options struct {
	// Errors delivers asynchronous write failures reported by the store.
	Errors <-chan error
	// LoadErr is the result of the initial Store.Load, shown as a notice.
	LoadErr error
}

// Model is the Bubble Tea model.
type Model struct {
	store *store.Store
	keys  keyMap

	list list.Model
	add  textinput.Model // always-visible add field
	edit textinput.Model // draft title while the edit dialog is open

	mode     mode
	editID   string
	notice   string // blocking notification; empty when hidden
	selectID string // select this task once its snapshot arrives

	width, height int

	snapshots   chan []model.Task
	errs        <-chan error
	unsubscribe func()
}

// New builds the model and subscribes it to st.
func New(st *store.Store, opts Options) Model {
	keys := newKeyMap()

	l := list.New(nil, rowDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("task", "tasks")
	l.KeyMap.Quit.SetEnabled(false)
	extra := func() []key.Binding { return []key.Binding{keys.add, keys.toggle, keys.edit, keys.remove} }
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	add := textinput.New()
	add.Prompt = "+ "
	add.Placeholder = "Add a to-do item."
	add.CharLimit = 200

	edit := textinput.New()
	edit.Prompt = "> "
	edit.Placeholder = "Task title"
	edit.CharLimit = 200

	m := Model{
		store:     st,
		keys:      keys,
		list:      l,
		add:       add,
		edit:      edit,
		snapshots: make(chan []model.Task, 1),
		errs:      opts.Errors,
	}
	m.unsubscribe = st.Subscribe(latestOnly(m.snapshots))
	m.setRows(st.Tasks())
	if opts.LoadErr != nil {
		m.notice = store.Notice(opts.LoadErr)
	}
	return m
}

// latestOnly returns an observer that keeps only the newest snapshot in ch,
// so the store never blocks on the UI.
func latestOnly(ch chan []model.Task) store.Observer {
	return func(tasks []model.Task) {
		for {
			select {
			case ch <- tasks:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	}
}

func waitForSnapshot(ch <-chan []model.Task) tea.Cmd {
	return func() tea.Msg {
		tasks, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(tasks)
	}
}

func waitForError(ch <-chan error) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		err, ok := <-ch
		if !ok {
			return nil
		}
		return errMsg{err}
	}
}

// Close detaches the model from the store.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(waitForSnapshot(m.snapshots), waitForError(m.errs))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case snapshotMsg:
		cmd := m.setRows(msg)
		return m, tea.Batch(cmd, waitForSnapshot(m.snapshots))

	case errMsg:
		m.notice = store.Notice(msg.err)
		return m, waitForError(m.errs)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.notice != "" {
			return m.updateNotice(msg)
		}
		switch m.mode {
		case modeEdit:
			return m.updateEdit(msg)
		case modeAdd:
			return m.updateAdd(msg)
		}
		return m.updateList(msg)
	}

	return m.forward(msg)
}

// forward passes non-key messages (cursor blink, filter results) to the
// focused component.
func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.mode {
	case modeEdit:
		m.edit, cmd = m.edit.Update(msg)
	case modeAdd:
		m.add, cmd = m.add.Update(msg)
	default:
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

// updateNotice swallows input until the notice is dismissed.
func (m Model) updateNotice(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", " ":
		m.notice = ""
	}
	return m, nil
}

func (m Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if err := m.store.EditTitle(m.editID, m.edit.Value()); err != nil {
			// keep the dialog and its draft so the user can fix it
			m.notice = store.Notice(err)
			return m, nil
		}
		m.closeEdit()
		return m, nil
	case "esc":
		m.closeEdit()
		return m, nil
	}
	var cmd tea.Cmd
	m.edit, cmd = m.edit.Update(msg)
	return m, cmd
}

func (m Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		task, err := m.store.Add(m.add.Value())
		if err != nil {
			m.notice = store.Notice(err)
			return m, nil
		}
		m.selectID = task.ID
		m.add.Reset()
		m.add.Blur()
		m.mode = modeList
		return m, nil
	case "esc":
		m.add.Blur()
		m.mode = modeList
		return m, nil
	}
	var cmd tea.Cmd
	m.add, cmd = m.add.Update(msg)
	return m, cmd
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// while typing a filter every key belongs to the list
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		if msg.String() == "esc" && m.list.FilterState() == list.FilterApplied {
			break // esc clears the filter first
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.add):
		m.mode = modeAdd
		return m, m.add.Focus()
	case key.Matches(msg, m.keys.toggle):
		if it, ok := m.selected(); ok {
			m.store.ToggleComplete(it.row.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.remove):
		if it, ok := m.selected(); ok {
			m.store.Remove(it.row.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.edit):
		if it, ok := m.selected(); ok {
			m.mode = modeEdit
			m.editID = it.row.ID
			m.edit.SetValue(it.row.Title)
			m.edit.CursorEnd()
			return m, m.edit.Focus()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) closeEdit() {
	m.mode = modeList
	m.editID = ""
	m.edit.Reset()
	m.edit.Blur()
}

func (m Model) selected() (taskItem, bool) {
	it, ok := m.list.SelectedItem().(taskItem)
	return it, ok
}

// setRows re-derives the list from a snapshot. The returned command
// re-applies an active filter.
func (m *Model) setRows(tasks []model.Task) tea.Cmd {
	rows := ui.Rows(tasks)
	cmd := m.list.SetItems(toItems(rows))

	if m.selectID != "" {
		for i, r := range rows {
			if r.ID == m.selectID {
				m.list.Select(i)
				break
			}
		}
		m.selectID = ""
	}
	if n := len(m.list.Items()); n > 0 && m.list.Index() >= n {
		m.list.Select(n - 1)
	}

	// a task deleted while its edit dialog was open ends the session
	if m.mode == modeEdit {
		found := false
		for _, r := range rows {
			if r.ID == m.editID {
				found = true
				break
			}
		}
		if !found {
			m.closeEdit()
		}
	}

	done, pending := ui.Stats(rows)
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		"To-Do List",
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), pending,
		accentStyle.Render("Total"), len(rows),
	)
	return cmd
}

func (m *Model) resize() {
	w := max(m.width-4, 20)
	// frame border + add bar
	h := max(m.height-7, 3)
	m.list.SetSize(w, h)
	m.add.Width = w - 6
	m.edit.Width = 40
}
