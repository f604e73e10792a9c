package cli

import (
	"context"
	"fmt"

	"github.com/julianstephens/flowmind/internal/constants"
	"github.com/julianstephens/flowmind/internal/models"
	"github.com/julianstephens/flowmind/internal/tasks"
)

type TaskDoneCmd struct {
	ID string `arg:"" help:"Task ID."`
}

func (c *TaskDoneCmd) Run(ctx *Context) error {
	bg := context.Background()
	svc, _, err := ctx.Tasks(bg)
	if err != nil {
		return err
	}
	task, err := svc.Get(bg, c.ID)
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}
	task.Status = models.StatusDone
	spawned, err := svc.Update(bg, task)
	if err != nil {
		return err
	}
	ctx.printf("Completed: %s\n", task.Title)
	reportSpawned(ctx, svc, spawned)
	return nil
}

type TaskEditCmd struct {
	ID        string   `arg:"" help:"Task ID."`
	Title     string   `help:"New title."`
	Start     string   `help:"New start time; the duration is kept when --end is omitted."`
	End       string   `help:"New end time."`
	Status    string   `help:"New status: todo, in-progress or done."`
	Important *bool    `help:"Mark or unmark as important."`
	Daily     *bool    `help:"Turn daily repetition on or off."`
	Notes     *string  `help:"Replace the notes."`
	Tags      []string `help:"Replace the tags (comma-separated)." sep:","`
}

func (c *TaskEditCmd) Run(ctx *Context) error {
	bg := context.Background()
	svc, _, err := ctx.Tasks(bg)
	if err != nil {
		return err
	}
	task, err := svc.Get(bg, c.ID)
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}
	loc, now := svc.Location(), svc.Now()

	if c.Title != "" {
		task.Title = c.Title
	}
	if c.Start != "" {
		d := task.Duration()
		if task.StartTime, err = parseWhen(c.Start, now, loc); err != nil {
			return err
		}
		task.EndTime = task.StartTime.Add(d)
	}
	if c.End != "" {
		if task.EndTime, err = parseWhen(c.End, now, loc); err != nil {
			return err
		}
	}
	if c.Status != "" {
		if task.Status, err = parseStatus(c.Status); err != nil {
			return err
		}
	}
	if c.Important != nil {
		task.IsImportant = *c.Important
	}
	if c.Daily != nil {
		task.Recurrence = models.RecurrenceNone
		if *c.Daily {
			task.Recurrence = models.RecurrenceDaily
		}
	}
	if c.Notes != nil {
		task.Notes = *c.Notes
	}
	if c.Tags != nil {
		task.Tags = c.Tags
	}

	spawned, err := svc.Update(bg, task)
	if err != nil {
		return err
	}
	ctx.printf("Updated task: %s (%s)\n", task.Title, formatSpan(task, loc))
	reportSpawned(ctx, svc, spawned)
	return nil
}

func reportSpawned(ctx *Context, svc *tasks.Service, spawned *models.Task) {
	if spawned == nil {
		return
	}
	ctx.printf("Next occurrence scheduled for %s (ID: %s)\n",
		spawned.StartTime.In(svc.Location()).Format(constants.DateTimeFormat), spawned.ID)
}

type TaskDeleteCmd struct {
	ID string `arg:"" help:"Task ID."`
}

func (c *TaskDeleteCmd) Run(ctx *Context) error {
	bg := context.Background()
	svc, _, err := ctx.Tasks(bg)
	if err != nil {
		return err
	}
	if err := svc.Delete(bg, c.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	ctx.printf("Deleted task %s (restore with 'task restore %s')\n", c.ID, c.ID)
	return nil
}

type TaskRestoreCmd struct {
	ID string `arg:"" help:"Task ID."`
}

func (c *TaskRestoreCmd) Run(ctx *Context) error {
	bg := context.Background()
	svc, _, err := ctx.Tasks(bg)
	if err != nil {
		return err
	}
	if err := svc.Restore(bg, c.ID); err != nil {
		return fmt.Errorf("failed to restore task: %w", err)
	}
	ctx.printf("Restored task %s\n", c.ID)
	return nil
}

type TaskMoveCmd struct {
	IDs []string `arg:"" help:"IDs of the tasks to move."`
	To  string   `help:"Target day (YYYY-MM-DD, today or tomorrow)." default:"today"`
}

func (c *TaskMoveCmd) Run(ctx *Context) error {
	bg := context.Background()
	svc, _, err := ctx.Tasks(bg)
	if err != nil {
		return err
	}
	return moveTasks(ctx, svc, c.IDs, c.To)
}

func moveTasks(ctx *Context, svc *tasks.Service, ids []string, to string) error {
	bg := context.Background()
	day, err := parseDay(to, svc)
	if err != nil {
		return err
	}
	ctx.PerformAutomaticBackup()
	moved, err := svc.MoveToDay(bg, ids, day)
	if err != nil {
		return err
	}
	for _, t := range moved {
		ctx.printf("Moved %s to %s\n", t.Title, formatSpan(t, svc.Location()))
	}
	return nil
}

type TaskExtendCmd struct {
	ID      string `arg:"" help:"Task ID."`
	Minutes int    `arg:"" help:"Minutes from now the task should run for."`
}

func (c *TaskExtendCmd) Run(ctx *Context) error {
	bg := context.Background()
	svc, _, err := ctx.Tasks(bg)
	if err != nil {
		return err
	}
	updated, err := svc.Extend(bg, c.ID, c.Minutes)
	if err != nil {
		return err
	}
	ctx.printf("Extended %s until %s\n", updated[0].Title,
		updated[0].EndTime.In(svc.Location()).Format(constants.TimeFormat))
	if shifted := len(updated) - 1; shifted > 0 {
		ctx.printf("Shifted %d later task(s)\n", shifted)
	}
	return nil
}
