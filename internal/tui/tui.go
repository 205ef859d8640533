// Package tui is the interactive frontend. It owns no task state: every
// mutation goes through the facade, and the list refreshes from container
// notifications like any other subscriber.
package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idilsaglam/taskdeck/internal/model"
	"github.com/idilsaglam/taskdeck/internal/state"
	"github.com/idilsaglam/taskdeck/internal/task"
)

// listItem adapts a task to bubbles/list.Item.
type listItem struct {
	ID       string
	Text     string
	Done     bool
	Priority model.Priority
}

func (i listItem) label() string {
	box := boxUnchecked
	if i.Done {
		box = boxChecked
	}
	return fmt.Sprintf("%s %s", box, i.Text)
}

// Implement list.Item interface
func (i listItem) Title() string       { return i.label() }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.Text }

// stateChangedMsg carries a container notification into the Bubble Tea loop.
type stateChangedMsg struct {
	st     model.AppState
	source string
}

type modelTUI struct {
	mgr    *task.Manager
	list   list.Model
	states <-chan stateChangedMsg
	width  int
	height int

	// Inline add
	adding bool            // true when inline add is active
	ti     textinput.Model // shared text input model (used for add & edit)
	addErr string          // last add validation error (shown briefly)

	// Inline edit
	editing bool // true when inline edit is active
	editID  string
	editErr string

	status string // transient status line, e.g. "nothing to undo"
}

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)

	boxStyled := mutedStyle.Render(boxUnchecked)
	textStyled := it.Text
	if it.Done {
		boxStyled = successStyle.Render(boxChecked)
		textStyled = doneStyle.Render(it.Text)
	}
	mark := " "
	switch it.Priority {
	case model.PriorityHigh:
		mark = errorStyle.Render("!")
	case model.PriorityLow:
		mark = mutedStyle.Render("·")
	}

	line := fmt.Sprintf("%s %s %s", boxStyled, mark, textStyled)
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+line)
}

// Run starts the Bubble Tea program. The manager's debounced writes keep
// persistence current while the program runs; a final flush happens on exit.
func Run(mgr *task.Manager) error {
	states := make(chan stateChangedMsg, 16)
	unsubscribe := mgr.Subscribe(state.SubscriberFunc(
		func(next, prev model.AppState, source string) {
			// Drop rather than block: the loop rereads full state anyway.
			select {
			case states <- stateChangedMsg{st: next, source: source}:
			default:
			}
		}))
	defer unsubscribe()
	defer mgr.Flush()

	st := mgr.State()
	l := list.New(toItems(st.Tasks), itemDelegate{}, 0, 0)
	l.Title = headerTitle(st)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("task", "tasks")

	// Extend help with Add / Edit / Undo / Clear bindings
	addBind := key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind := key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	undoBind := key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo"))
	clearBind := key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear done"))
	extra := func() []key.Binding { return []key.Binding{addBind, editBind, undoBind, clearBind} }
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	m := modelTUI{
		mgr:    mgr,
		list:   l,
		states: states,
	}
	m.ti = textinput.New()
	m.ti.Prompt = "> "
	m.ti.Placeholder = "New task title..."
	m.ti.CharLimit = model.MaxTitleLen

	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func toItems(tasks []model.Task) []list.Item {
	li := make([]list.Item, 0, len(tasks))
	for _, t := range tasks {
		li = append(li, listItem{ID: t.ID, Text: t.Title, Done: t.Completed, Priority: t.Priority})
	}
	return li
}

func headerTitle(st model.AppState) string {
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Tasks"),
		successStyle.Render("✔"), st.Stats.Completed,
		pendingStyle.Render("•"), st.Stats.Active,
		accentStyle.Render("Total"), st.Stats.Total,
	)
}

func (m modelTUI) Init() tea.Cmd { return m.waitForState() }

// waitForState turns the subscription channel into a Bubble Tea command.
func (m modelTUI) waitForState() tea.Cmd {
	return func() tea.Msg {
		return <-m.states
	}
}

func (m modelTUI) selectedID() string {
	i := m.list.Index()
	items := m.list.Items()
	if i < 0 || i >= len(items) {
		return ""
	}
	li, _ := items[i].(listItem)
	return li.ID
}

func (m modelTUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch x := msg.(type) {
	case stateChangedMsg:
		// Rebuild the list from the authoritative state copy.
		m.list.SetItems(toItems(x.st.Tasks))
		m.list.Title = headerTitle(x.st)
		return m, m.waitForState()

	case tea.WindowSizeMsg:
		m.width, m.height = x.Width, x.Height
	}

	// add mode
	if m.adding {
		var cmd tea.Cmd
		if x, ok := msg.(tea.KeyMsg); ok {
			switch x.String() {
			case "enter":
				_, err := m.mgr.Create(task.CreateInput{Title: m.ti.Value()})
				if err != nil {
					m.addErr = err.Error()
					return m, nil
				}
				m.addErr = ""
				m.ti.SetValue("")
				m.ti.Blur()
				m.adding = false
				return m, nil
			case "esc":
				m.adding = false
				m.addErr = ""
				m.ti.SetValue("")
				m.ti.Blur()
				return m, nil
			}
		}
		m.ti, cmd = m.ti.Update(msg)
		return m, cmd
	}

	// edit mode
	if m.editing {
		var cmd tea.Cmd
		if x, ok := msg.(tea.KeyMsg); ok {
			switch x.String() {
			case "enter":
				title := m.ti.Value()
				_, err := m.mgr.Update(m.editID, task.Patch{Title: &title})
				if err != nil {
					m.editErr = err.Error()
					return m, nil
				}
				m.editErr = ""
				m.ti.SetValue("")
				m.ti.Blur()
				m.editing = false
				return m, nil
			case "esc":
				m.editing = false
				m.editErr = ""
				m.ti.SetValue("")
				m.ti.Blur()
				return m, nil
			}
		}
		m.ti, cmd = m.ti.Update(msg)
		return m, cmd
	}

	if x, ok := msg.(tea.KeyMsg); ok {
		switch x.String() {
		case "q", "esc":
			return m, tea.Quit
		case " ":
			if id := m.selectedID(); id != "" {
				if _, err := m.mgr.Toggle(id); err != nil {
					m.status = err.Error()
				}
			}
			return m, nil
		case "d":
			if id := m.selectedID(); id != "" {
				if _, err := m.mgr.Delete(id); err != nil {
					m.status = err.Error()
				}
			}
			return m, nil
		case "a":
			m.adding = true
			m.ti.SetValue("")
			m.ti.Placeholder = "New task title..."
			m.ti.Focus()
			return m, nil
		case "e":
			i := m.list.Index()
			items := m.list.Items()
			if i >= 0 && i < len(items) {
				if li, ok := items[i].(listItem); ok {
					m.editing = true
					m.editID = li.ID
					m.ti.SetValue(li.Text)
					m.ti.CursorEnd()
					m.ti.Placeholder = "Edit task title..."
					m.ti.Focus()
				}
			}
			return m, nil
		case "u":
			if err := m.mgr.Undo(); err != nil {
				m.status = "nothing to undo"
			} else {
				m.status = ""
			}
			return m, nil
		case "c":
			removed, err := m.mgr.ClearCompleted()
			if err == nil {
				m.status = fmt.Sprintf("cleared %d completed", len(removed))
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m modelTUI) View() string {
	w, h := m.width, m.height
	if w == 0 {
		w, h = 80, 24
	}
	listHeight := h - 4
	if m.adding || m.editing {
		listHeight = h - 6
	}
	m.list.SetSize(w-2, listHeight)

	content := m.list.View()
	if m.adding || m.editing {
		bar := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("8")).Padding(0, 1)
		title := "Add new task"
		if m.editing {
			title = "Edit task"
		}
		if m.addErr != "" && m.adding {
			title += " — " + errorStyle.Render(m.addErr)
		}
		if m.editErr != "" && m.editing {
			title += " — " + errorStyle.Render(m.editErr)
		}
		inputLine := title + "\n" + m.ti.View()
		content = content + "\n" + bar.Render(inputLine)
	}
	if m.status != "" {
		content = content + "\n" + helpStyle.Render(m.status)
	}
	return panelString(content)
}

func panelString(inner string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("8")).
		Padding(0, 1)
	return border.Render(inner)
}
