package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/flowmind/internal/focus"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.Width = min(msg.Width-8, 60)
		m.queue.SetSize(msg.Width-4, max(msg.Height-18, 3))

	case TickMsg:
		m.engine.Tick()
		m.refresh()
		if !m.active {
			m.quitting = true
			return m, tea.Quit
		}
		return m, tick()

	case eventMsg:
		m.lastEvent = describe(focus.Event(msg))
		m.refresh()
		return m, waitForEvent(m.events)

	case eventsClosedMsg:
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.engine.Stop()
			m.quitting = true
			return m, tea.Quit
		case key.Matches(msg, m.keys.Stop):
			m.engine.Stop()
		case key.Matches(msg, m.keys.Pause):
			if !m.engine.Pause() {
				m.engine.Resume()
			}
		case key.Matches(msg, m.keys.Resume):
			m.engine.Resume()
		case key.Matches(msg, m.keys.Minimize):
			if m.session.Visibility == focus.VisibilityMinimized {
				m.engine.Maximize()
			} else {
				m.engine.Minimize()
			}
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		m.refresh()
		if !m.active {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

func describe(ev focus.Event) string {
	switch ev.Kind {
	case focus.EventPhaseStarted:
		return fmt.Sprintf("%s started", ev.Session.Phase.Label())
	case focus.EventPhaseEnded:
		return "Phase finished"
	case focus.EventPaused:
		return "Paused"
	case focus.EventResumed:
		return "Resumed"
	case focus.EventCompleted:
		return "Session complete"
	case focus.EventStopped:
		return "Session stopped"
	}
	return ""
}
