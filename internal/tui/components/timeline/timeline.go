// Package timeline renders a list of tasks as one line per time block.
package timeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/flowmind/internal/constants"
	"github.com/julianstephens/flowmind/internal/models"
	"github.com/julianstephens/flowmind/internal/projector"
)

var (
	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(14)

	taskStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Bold(true)

	activeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Strikethrough(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

type Options struct {
	// ShowDate prefixes every line with the task's date.
	ShowDate bool
	// ShowIDs appends each task's ID.
	ShowIDs bool
}

// Render lays out tasks in the given order, highlighting the one active at now.
func Render(tasks []models.Task, now time.Time, opts Options) string {
	if len(tasks) == 0 {
		return statusStyle.Render("No tasks.")
	}

	var b strings.Builder
	for _, t := range tasks {
		span := fmt.Sprintf("%s - %s",
			t.StartTime.In(now.Location()).Format(constants.TimeFormat),
			t.EndTime.In(now.Location()).Format(constants.TimeFormat))
		if opts.ShowDate {
			span = t.StartTime.In(now.Location()).Format(constants.DateFormat) + " " + span
		}

		name := taskStyle.Render(t.Title)
		switch {
		case t.IsDone():
			name = doneStyle.Render(t.Title)
		case t.IsActiveAt(now):
			name = activeStyle.Render("▶ " + t.Title)
		}
		if t.IsImportant {
			name = "★ " + name
		}

		status := string(t.Status)
		if projector.IsProjected(t.ID) {
			status += ", projected"
		} else if t.Recurrence == models.RecurrenceDaily {
			status += ", daily"
		}

		ts := timeStyle
		if opts.ShowDate {
			ts = ts.Width(25)
		}
		line := fmt.Sprintf("%s %s %s", ts.Render(span), name, statusStyle.Render("("+status+")"))
		if opts.ShowIDs {
			line += " " + statusStyle.Render(t.ID)
		}
		b.WriteString(line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
