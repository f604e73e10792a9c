// Package tui renders an active focus session and forwards key presses to
// the engine.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/flowmind/internal/constants"
	"github.com/julianstephens/flowmind/internal/focus"
	"github.com/julianstephens/flowmind/internal/tui/components/tasklist"
)

type TickMsg time.Time

type eventMsg focus.Event

type eventsClosedMsg struct{}

type Model struct {
	engine      *focus.Engine
	events      <-chan focus.Event
	unsubscribe func()

	keys     KeyMap
	help     help.Model
	progress progress.Model
	queue    tasklist.Model

	session   focus.Session
	active    bool
	timeLeft  time.Duration
	lastEvent string

	width    int
	height   int
	quitting bool
}

// NewModel subscribes to engine. Call Close once the program exits.
func NewModel(engine *focus.Engine) Model {
	events, unsubscribe := engine.Subscribe()
	m := Model{
		engine:      engine,
		events:      events,
		unsubscribe: unsubscribe,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		progress:    progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		queue:       tasklist.New(nil, 0, 0),
	}
	m.refresh()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(), waitForEvent(m.events))
}

// Close releases the event subscription.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

func tick() tea.Cmd {
	return tea.Tick(constants.TickInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func waitForEvent(events <-chan focus.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *Model) refresh() {
	m.session, m.active = m.engine.Snapshot()
	m.timeLeft = m.engine.TimeLeft()
	if m.active && m.session.Sequential {
		m.queue.SetTasks(m.session.Queue)
		m.queue.Select(m.session.Task.ID)
	}
}
