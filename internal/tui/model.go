// Package tui is the interactive terminal front end of the item list.
//
// The model never holds list state of its own: every key press is turned
// into a controller mutation and every controller notification into a
// redraw from a fresh snapshot.
package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Sternrassler/item-list-client/pkg/controller"
	"github.com/Sternrassler/item-list-client/pkg/view"
)

const searchPlaceholder = "Search items..."

// ListController is the part of the controller the model drives.
type ListController interface {
	SetSearch(text string)
	SetPageSize(n int) error
	PreviousPage()
	NextPage()
	Snapshot() controller.State
	Subscribe(fn func(controller.State))
}

// stateChangedMsg tells the model the controller has a newer snapshot.
type stateChangedMsg struct{}

// Model is the bubbletea model of the list view.
type Model struct {
	ctrl    ListController
	updates chan struct{}

	search textinput.Model
	help   help.Model
	keys   keyMap

	state controller.State
	err   error
	width int
}

// New creates the model and subscribes it to ctrl. Notifications are
// coalesced: a burst of changes results in a single redraw.
func New(ctrl ListController) *Model {
	si := textinput.New()
	si.Placeholder = searchPlaceholder
	si.Prompt = "› "
	si.Focus()

	m := &Model{
		ctrl:    ctrl,
		updates: make(chan struct{}, 1),
		search:  si,
		help:    help.New(),
		keys:    defaultKeyMap(),
	}

	m.state = ctrl.Snapshot()
	m.search.SetValue(m.state.Search)

	ctrl.Subscribe(func(controller.State) {
		select {
		case m.updates <- struct{}{}:
		default:
		}
	})
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForUpdate())
}

func (m *Model) waitForUpdate() tea.Cmd {
	return func() tea.Msg {
		<-m.updates
		return stateChangedMsg{}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		if w := msg.Width - 8; w > 20 {
			m.search.Width = w
		}
		return m, nil

	case stateChangedMsg:
		m.state = m.ctrl.Snapshot()
		return m, m.waitForUpdate()

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit

	case key.Matches(msg, m.keys.Previous):
		m.ctrl.PreviousPage()

	case key.Matches(msg, m.keys.Next):
		m.ctrl.NextPage()

	case key.Matches(msg, m.keys.PageSize):
		if err := m.ctrl.SetPageSize(int(m.state.PageSize.Next())); err != nil {
			m.err = err
		}

	case key.Matches(msg, m.keys.Clear):
		m.search.SetValue("")
		m.ctrl.SetSearch("")

	default:
		before := m.search.Value()
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		if after := m.search.Value(); after != before {
			m.ctrl.SetSearch(after)
		}
		m.state = m.ctrl.Snapshot()
		return cmd
	}

	m.state = m.ctrl.Snapshot()
	return nil
}

// View implements tea.Model.
func (m *Model) View() string {
	screen := view.Render(m.state)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Items"))
	b.WriteString("\n")
	b.WriteString(searchBoxStyle.Render(m.search.View()))
	b.WriteString("\n")
	b.WriteString(m.pageSizeSelector(screen))
	b.WriteString("\n")
	b.WriteString(bodyStyle.Render(m.body(screen)))
	b.WriteString("\n")
	b.WriteString(m.footer(screen))
	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) pageSizeSelector(screen view.Screen) string {
	parts := []string{pageSizeStyle.Render("Page size:")}
	for _, size := range screen.PageSizes {
		label := view.PageSizeLabel(size)
		if size == screen.PageSize {
			parts = append(parts, selectedPageSizeStyle.Render(label))
		} else {
			parts = append(parts, pageSizeStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, parts...)
}

func (m *Model) body(screen view.Screen) string {
	switch screen.Body {
	case view.BodyLoading:
		return loadingStyle.Render(screen.Message)
	case view.BodyError:
		return errorStyle.Render(screen.Message)
	case view.BodyEmpty:
		return emptyStyle.Render(screen.Message)
	}

	rows := make([]string, 0, len(screen.Rows))
	for _, r := range screen.Rows {
		row := itemTitleStyle.Render(r.Title)
		if r.Description != "" {
			row = lipgloss.JoinVertical(lipgloss.Left, row, itemDescriptionStyle.Render(r.Description))
		}
		rows = append(rows, row)
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m *Model) footer(screen view.Screen) string {
	prev := disabledButtonStyle.Render("‹ Previous")
	if screen.CanPrevious {
		prev = buttonStyle.Render("‹ Previous")
	}
	next := disabledButtonStyle.Render("Next ›")
	if screen.CanNext {
		next = buttonStyle.Render("Next ›")
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, prev, summaryStyle.Render(screen.Summary), next)
}
