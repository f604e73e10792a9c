package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/flowmind/internal/focus"
	"github.com/julianstephens/flowmind/internal/utils"
)

func (m Model) View() string {
	if m.quitting || !m.active {
		return ""
	}
	if m.session.Visibility == focus.VisibilityMinimized {
		return m.viewMinimized()
	}
	return m.viewFull()
}

func (m Model) viewMinimized() string {
	phase := m.session.Phase
	if phase == focus.PhaseEnding {
		phase = m.session.EndedPhase
	}
	dot := lipgloss.NewStyle().Foreground(phaseColor(phase.IsBreak())).Render("●")
	line := fmt.Sprintf("%s %s %s  %s", dot, phase.Label(), utils.FormatDuration(m.timeLeft), m.session.Task.Title)
	if m.session.Paused {
		line += " " + pausedStyle.Render("(paused)")
	}
	return miniStyle.Render(line) + "\n" + mutedStyle.Render("m to expand")
}

func (m Model) viewFull() string {
	s := m.session
	header := phaseStyle.Foreground(phaseColor(s.Phase.IsBreak())).Render(s.Phase.Label())
	if !s.Sequential && s.Cycles > 0 {
		header += mutedStyle.Render(fmt.Sprintf("  cycle %d", s.Cycles+1))
	}

	clock := clockStyle.Render(utils.FormatDuration(m.timeLeft))
	if s.Paused {
		clock += " " + pausedStyle.Render("PAUSED")
	}

	sections := []string{
		header,
		taskNameStyle.Render(s.Task.Title),
		clock,
		m.progress.ViewAs(s.Progress(m.engine.Now())),
	}
	if m.lastEvent != "" {
		sections = append(sections, mutedStyle.Render(m.lastEvent))
	}
	if s.Sequential && len(s.Queue) > 1 {
		sections = append(sections, "", m.queue.View())
	}
	sections = append(sections, "", m.help.View(m.keys))

	ui := lipgloss.JoinVertical(lipgloss.Center, sections...)
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, ui)
	}
	return docStyle.Render(ui)
}
