package cli

import (
	"context"
	"encoding/json"
	"fmt"
)

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *Context) error {
	return ctx.printJSON(map[string]string{"path": ctx.Store.GetConfigPath()})
}

type DebugDumpTaskCmd struct {
	ID string `arg:"" help:"ID of the task to dump. Projected IDs are resolved."`
}

func (cmd *DebugDumpTaskCmd) Run(ctx *Context) error {
	bg := context.Background()
	svc, _, err := ctx.Tasks(bg)
	if err != nil {
		return err
	}
	task, err := svc.Get(bg, cmd.ID)
	if err != nil {
		return fmt.Errorf("failed to get task: %w", err)
	}
	return ctx.printJSON(task)
}

type DebugDumpDayCmd struct {
	Date string `arg:"" optional:"" help:"Day to dump (YYYY-MM-DD, today or tomorrow)." default:"today"`
}

func (cmd *DebugDumpDayCmd) Run(ctx *Context) error {
	bg := context.Background()
	svc, _, err := ctx.Tasks(bg)
	if err != nil {
		return err
	}
	day, err := parseDay(cmd.Date, svc)
	if err != nil {
		return err
	}
	visible, err := svc.Day(bg, day)
	if err != nil {
		return err
	}
	if visible == nil {
		return ctx.printJSON([]any{})
	}
	return ctx.printJSON(visible)
}

func (c *Context) printJSON(v any) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	c.println(string(jsonBytes))
	return nil
}
