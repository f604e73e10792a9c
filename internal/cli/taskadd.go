package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/flowmind/internal/errors"
	"github.com/julianstephens/flowmind/internal/models"
	"github.com/julianstephens/flowmind/internal/projector"
	"github.com/julianstephens/flowmind/internal/resolver"
	"github.com/julianstephens/flowmind/internal/tui/choose"
)

type TaskAddCmd struct {
	Title     string   `arg:"" help:"Task title."`
	Start     string   `help:"Start time: HH:MM (today), 'YYYY-MM-DD HH:MM' or RFC 3339." required:""`
	End       string   `help:"End time in the same formats as --start."`
	Duration  int      `help:"Length in minutes when --end is omitted." default:"60"`
	Daily     bool     `help:"Repeat the task every day."`
	Important bool     `help:"Mark the task as important."`
	Tags      []string `help:"Comma-separated tags." sep:","`
	Checklist []string `help:"Comma-separated checklist items." sep:","`
	Notes     string   `help:"Free-form notes."`
	Force     bool     `help:"Save even if the time overlaps another task."`
}

func (c *TaskAddCmd) Run(ctx *Context) error {
	bg := context.Background()
	svc, settings, err := ctx.Tasks(bg)
	if err != nil {
		return err
	}
	loc := svc.Location()
	now := svc.Now()

	start, err := parseWhen(c.Start, now, loc)
	if err != nil {
		return err
	}
	end := start.Add(time.Duration(c.Duration) * time.Minute)
	if c.End != "" {
		if end, err = parseWhen(c.End, now, loc); err != nil {
			return err
		}
	}

	if !c.Force {
		all, err := svc.List(bg)
		if err != nil {
			return err
		}
		if resolver.Conflicts(start, end, projector.ProjectDay(start.In(loc), all), now) {
			slots := ctx.Scheduler(settings).Suggest(end.Sub(start), now, dayView(all))
			if len(slots) > 0 {
				ctx.println("That time is taken. Free slots:")
				for _, s := range slots {
					ctx.printf("  %s\n", choose.FormatSlot(s, loc))
				}
			}
			return fmt.Errorf("%q overlaps another task or has already ended (use --force to save anyway)", c.Title)
		}
	}

	task := models.Task{
		Title:       c.Title,
		StartTime:   start,
		EndTime:     end,
		IsImportant: c.Important,
		Recurrence:  models.RecurrenceNone,
		Tags:        c.Tags,
		Notes:       c.Notes,
	}
	if c.Daily {
		task.Recurrence = models.RecurrenceDaily
	}
	for _, text := range c.Checklist {
		if text = strings.TrimSpace(text); text != "" {
			task.Checklist = append(task.Checklist, models.ChecklistItem{ID: uuid.New().String(), Text: text})
		}
	}

	created, err := svc.Create(bg, task)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidTask) {
			return err
		}
		return fmt.Errorf("failed to add task: %w", err)
	}
	ctx.printf("Added task: %s (%s)\n", created.Title, formatSpan(created, loc))
	ctx.printf("ID: %s\n", created.ID)
	return nil
}
