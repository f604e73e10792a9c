package cli

import (
	"context"
	"fmt"

	"github.com/julianstephens/flowmind/internal/tui/components/timeline"
)

type TaskListCmd struct {
	Deleted bool `help:"Include deleted tasks."`
}

func (c *TaskListCmd) Run(ctx *Context) error {
	bg := context.Background()
	svc, _, err := ctx.Tasks(bg)
	if err != nil {
		return err
	}

	all, err := svc.List(bg)
	if err != nil {
		return fmt.Errorf("failed to list tasks: %w", err)
	}
	ctx.println(timeline.Render(all, svc.Now(), timeline.Options{ShowDate: true, ShowIDs: true}))

	if !c.Deleted {
		return nil
	}
	everything, err := ctx.Store.GetAllTasksIncludingDeleted(bg)
	if err != nil {
		return fmt.Errorf("failed to list deleted tasks: %w", err)
	}
	ctx.println("\nDeleted:")
	for _, t := range everything {
		if t.DeletedAt != nil {
			ctx.printf("  %s  %s  %s\n", t.ID, formatSpan(t, svc.Location()), t.Title)
		}
	}
	return nil
}
