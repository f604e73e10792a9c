package tasklist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/flowmind/internal/constants"
	"github.com/julianstephens/flowmind/internal/models"
)

type Item struct {
	Task    models.Task
	Current bool
}

func (i Item) Title() string {
	title := i.Task.Title
	if i.Task.IsImportant {
		title = "★ " + title
	}
	if i.Current {
		return "▶ " + title
	}
	return title
}

func (i Item) Description() string {
	return fmt.Sprintf("%s - %s | %s",
		i.Task.StartTime.Format(constants.TimeFormat),
		i.Task.EndTime.Format(constants.TimeFormat),
		i.Task.Status)
}

func (i Item) FilterValue() string { return i.Task.Title }

// Model is a read-only list of tasks with one optionally marked current.
type Model struct {
	list    list.Model
	current string
}

func New(tasks []models.Task, width, height int) Model {
	l := list.New(nil, list.NewDefaultDelegate(), width, height)
	l.Title = "Queue"
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)

	m := Model{list: l}
	m.SetTasks(tasks)
	return m
}

func (m *Model) SetTasks(tasks []models.Task) {
	items := make([]list.Item, len(tasks))
	for i, t := range tasks {
		items[i] = Item{Task: t, Current: t.ID == m.current}
	}
	m.list.SetItems(items)
}

// Select marks the task with id as current and moves the cursor to it.
func (m *Model) Select(id string) {
	m.current = id
	items := m.list.Items()
	for i, it := range items {
		item := it.(Item)
		item.Current = item.Task.ID == id
		m.list.SetItem(i, item)
		if item.Current {
			m.list.Select(i)
		}
	}
}

func (m Model) Len() int {
	return len(m.list.Items())
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 {
		return "\n  Queue is empty."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
