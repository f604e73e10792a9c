package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/flowmind/internal/constants"
	"github.com/julianstephens/flowmind/internal/tasks"
	"github.com/julianstephens/flowmind/internal/tui/components/timeline"
	"github.com/julianstephens/flowmind/internal/utils"
)

type DayCmd struct {
	Date string `arg:"" optional:"" help:"Day to show (YYYY-MM-DD, today or tomorrow)." default:"today"`
}

func (c *DayCmd) Run(ctx *Context) error {
	bg := context.Background()
	svc, _, err := ctx.Tasks(bg)
	if err != nil {
		return err
	}
	day, err := parseDay(c.Date, svc)
	if err != nil {
		return err
	}
	visible, err := svc.Day(bg, day)
	if err != nil {
		return fmt.Errorf("failed to load day: %w", err)
	}

	ctx.printf("%s\n\n", day.Format("Monday, "+constants.DateFormat))
	ctx.println(timeline.Render(visible, svc.Now(), timeline.Options{ShowIDs: true}))
	return nil
}

func parseDay(s string, svc *tasks.Service) (time.Time, error) {
	return utils.ParseDateOrToday(s, svc.Now(), svc.Location())
}

type OverdueCmd struct {
	MoveTo string `help:"Move every overdue task to this day (YYYY-MM-DD, today or tomorrow)."`
}

func (c *OverdueCmd) Run(ctx *Context) error {
	bg := context.Background()
	svc, _, err := ctx.Tasks(bg)
	if err != nil {
		return err
	}
	overdue, err := svc.Overdue(bg)
	if err != nil {
		return fmt.Errorf("failed to load overdue tasks: %w", err)
	}
	if len(overdue) == 0 {
		ctx.println("Nothing overdue.")
		return nil
	}

	if c.MoveTo == "" {
		ctx.println(timeline.Render(overdue, svc.Now(), timeline.Options{ShowDate: true, ShowIDs: true}))
		return nil
	}
	ids := make([]string, len(overdue))
	for i, t := range overdue {
		ids[i] = t.ID
	}
	return moveTasks(ctx, svc, ids, c.MoveTo)
}
