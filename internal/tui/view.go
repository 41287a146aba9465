package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/tada/internal/store"
)

func (m Model) View() string {
	addBar := addBarStyle.Render(m.add.View())
	if m.mode != modeAdd {
		addBar = addBarStyle.BorderForeground(lipgloss.Color("8")).Render(m.add.View())
	}
	content := frameStyle.Render(m.list.View() + "\n" + addBar)

	switch {
	case m.notice != "":
		return m.overlay(content, m.noticeView())
	case m.mode == modeEdit:
		return m.overlay(content, m.editView())
	}
	return content
}

func (m Model) editView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Edit Task"))
	b.WriteString("\n\n")
	b.WriteString(m.edit.View())
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render("esc cancel · enter save"))
	return dialogStyle.Render(b.String())
}

func (m Model) noticeView() string {
	return noticeStyle.Render(errorStyle.Render("Error") + "\n\n" + m.notice + "\n\n" + helpStyle.Render("enter OK"))
}

// overlay centers dialog over the screen. The list underneath is hidden
// while a modal is open.
func (m Model) overlay(content, dialog string) string {
	if m.width == 0 || m.height == 0 {
		return content + "\n" + dialog
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, dialog)
}

// Run starts the interactive program over st and blocks until the user quits.
func Run(st *store.Store, opts Options) error {
	m := New(st, opts)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
