package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/flowmind/internal/models"
	"github.com/julianstephens/flowmind/internal/scheduler"
	"github.com/julianstephens/flowmind/internal/tui/choose"
)

type SlotsCmd struct {
	Duration int    `help:"Slot length in minutes." required:""`
	Date     string `help:"Search only this day (YYYY-MM-DD, today or tomorrow). Without it the search horizon is scanned."`
}

func (c *SlotsCmd) Run(ctx *Context) error {
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive")
	}
	bg := context.Background()
	svc, settings, err := ctx.Tasks(bg)
	if err != nil {
		return err
	}
	duration := time.Duration(c.Duration) * time.Minute
	now := svc.Now()

	var slots []models.TimeSlot
	if c.Date != "" {
		day, err := parseDay(c.Date, svc)
		if err != nil {
			return err
		}
		visible, err := svc.Day(bg, day)
		if err != nil {
			return err
		}
		slots = scheduler.FindAvailableSlots(duration, day, visible, now)
	} else {
		all, err := svc.List(bg)
		if err != nil {
			return err
		}
		slots = ctx.Scheduler(settings).Suggest(duration, now, dayView(all))
	}

	if len(slots) == 0 {
		ctx.println("No free slots found.")
		return nil
	}
	for _, s := range slots {
		ctx.println(choose.FormatSlot(s, svc.Location()))
	}
	return nil
}
