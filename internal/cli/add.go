package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/julianstephens/flowmind/internal/errors"
	"github.com/julianstephens/flowmind/internal/logger"
	"github.com/julianstephens/flowmind/internal/models"
	"github.com/julianstephens/flowmind/internal/resolver"
	"github.com/julianstephens/flowmind/internal/tasks"
	"github.com/julianstephens/flowmind/internal/tui/choose"
)

type AddCmd struct {
	Text []string `arg:"" help:"What to schedule, e.g. \"gym tomorrow at 7am and call mum at 6pm\"."`
}

func (c *AddCmd) Run(ctx *Context) error {
	text := strings.TrimSpace(strings.Join(c.Text, " "))
	if text == "" {
		return fmt.Errorf("nothing to add")
	}

	bg := context.Background()
	svc, settings, err := ctx.Tasks(bg)
	if err != nil {
		return err
	}
	loc := svc.Location()

	candidates, err := ctx.interpreter(settings, loc).Interpret(bg, text, svc.Now())
	if err != nil {
		return err
	}
	logger.Debug("Interpreted input", "candidates", len(candidates))

	r := resolver.New(svc, ctx.Scheduler(settings), resolver.WithClock(svc.Now), resolver.WithLocation(loc))
	outcomes, err := r.Resolve(bg, candidates)
	if err != nil {
		return err
	}

	failed := 0
	for _, o := range outcomes {
		if err := c.settle(ctx, svc, o); err != nil {
			ctx.println(errors.Format(err))
			failed++
		}
	}
	if failed == len(outcomes) {
		return fmt.Errorf("no tasks were added")
	}
	return nil
}

// settle reports a committed outcome or walks the user through a conflict
// until the outcome is resolved.
func (c *AddCmd) settle(ctx *Context, svc *tasks.Service, o *resolver.Outcome) error {
	loc := svc.Location()
	switch o.State {
	case resolver.StateCommitted:
		ctx.printf("Added: %s (%s)\n", o.Task.Title, formatSpan(*o.Task, loc))
		return nil
	case resolver.StateAwaitingUserChoice:
	default:
		if o.Err != nil {
			return o.Err
		}
		return fmt.Errorf("%q was not added", o.Candidate.Title)
	}

	bg := context.Background()
	for {
		choice, err := ctx.chooser()(o, loc)
		if err != nil {
			_ = o.Abandon()
			return err
		}
		switch choice.Action {
		case choose.ActionSlot:
			task, err := o.SelectSlot(bg, choice.Slot)
			if errors.Is(err, errors.ErrNoAvailability) {
				ctx.println(errors.Format(err))
				continue
			}
			if err != nil {
				return err
			}
			ctx.printf("Added: %s (%s)\n", task.Title, formatSpan(task, loc))
			return nil
		case choose.ActionManual:
			draft, err := o.RequestManual()
			if err != nil {
				return err
			}
			return c.addManual(ctx, svc, draft)
		default:
			if err := o.Abandon(); err != nil {
				return err
			}
			ctx.printf("Skipped: %s\n", o.Candidate.Title)
			return nil
		}
	}
}

func (c *AddCmd) addManual(ctx *Context, svc *tasks.Service, draft models.Candidate) error {
	loc := svc.Location()
	start, end, err := ctx.manualEditor()(draft, loc)
	if err != nil {
		return err
	}
	task, err := svc.Create(context.Background(), models.Task{
		Title:     draft.Title,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		return err
	}
	ctx.printf("Added: %s (%s)\n", task.Title, formatSpan(task, loc))
	return nil
}
