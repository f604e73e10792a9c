// Package mcp exposes the scheduling core as Model Context Protocol tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/julianstephens/flowmind/internal/constants"
	"github.com/julianstephens/flowmind/internal/models"
	"github.com/julianstephens/flowmind/internal/projector"
	"github.com/julianstephens/flowmind/internal/resolver"
	"github.com/julianstephens/flowmind/internal/scheduler"
	"github.com/julianstephens/flowmind/internal/tasks"
	"github.com/julianstephens/flowmind/internal/utils"
)

// NewServer creates a new MCP server backed by svc.
func NewServer(svc *tasks.Service, sched *scheduler.Scheduler) *server.MCPServer {
	s := server.NewMCPServer("Flowmind", constants.Version)

	s.AddTool(mcp.NewTool("project_day",
		mcp.WithDescription("List the tasks visible on a day, including projected occurrences of daily tasks."),
		mcp.WithString("date", mcp.Description("Day as YYYY-MM-DD, 'today' or 'tomorrow' (defaults to today).")),
	), projectDayHandler(svc))

	s.AddTool(mcp.NewTool("find_slots",
		mcp.WithDescription("Find free time slots of a given length."),
		mcp.WithNumber("duration_minutes", mcp.Description("Slot length in minutes"), mcp.Required()),
		mcp.WithString("date", mcp.Description("Search only this day (YYYY-MM-DD). Without it the next free slots over the search horizon are returned.")),
	), findSlotsHandler(svc, sched))

	s.AddTool(mcp.NewTool("add_task",
		mcp.WithDescription("Schedule a task. If the time conflicts, nothing is saved and free alternatives are returned."),
		mcp.WithString("title", mcp.Description("Task title"), mcp.Required()),
		mcp.WithString("start", mcp.Description("Start as RFC 3339 or 'YYYY-MM-DD HH:MM' local time"), mcp.Required()),
		mcp.WithString("end", mcp.Description("End as RFC 3339 or 'YYYY-MM-DD HH:MM' local time (defaults to one hour after start)")),
	), addTaskHandler(svc, sched))

	s.AddTool(mcp.NewTool("complete_task",
		mcp.WithDescription("Mark a task done. Completing a daily task schedules its next occurrence."),
		mcp.WithString("id", mcp.Description("Task ID"), mcp.Required()),
	), completeTaskHandler(svc))

	s.AddTool(mcp.NewTool("list_overdue",
		mcp.WithDescription("List unfinished tasks that started before today."),
	), listOverdueHandler(svc))

	return s
}

// Serve starts the MCP server on stdio.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func projectDayHandler(svc *tasks.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		day, err := utils.ParseDateOrToday(mcp.ParseString(request, "date", ""), svc.Now(), svc.Location())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		visible, err := svc.Day(ctx, day)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{
			"date":  day.Format(constants.DateFormat),
			"tasks": nonNil(visible),
		})
	}
}

func findSlotsHandler(svc *tasks.Service, sched *scheduler.Scheduler) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		minutes := mcp.ParseInt(request, "duration_minutes", 0)
		if minutes <= 0 {
			return mcp.NewToolResultError("duration_minutes must be positive"), nil
		}
		duration := time.Duration(minutes) * time.Minute
		now := svc.Now()

		all, err := svc.List(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var slots []models.TimeSlot
		if date := mcp.ParseString(request, "date", ""); date != "" {
			day, err := utils.ParseDateOrToday(date, now, svc.Location())
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			slots = scheduler.FindAvailableSlots(duration, day, projector.ProjectDay(day, all), now)
		} else {
			slots = sched.Suggest(duration, now, func(day time.Time) []models.Task {
				return projector.ProjectDay(day, all)
			})
		}
		return jsonResult(map[string]any{"slots": nonNil(slots)})
	}
}

type addTaskResult struct {
	Status      string            `json:"status"`
	Task        *models.Task      `json:"task,omitempty"`
	Suggestions []models.TimeSlot `json:"suggestions,omitempty"`
	Error       string            `json:"error,omitempty"`
}

func addTaskHandler(svc *tasks.Service, sched *scheduler.Scheduler) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		loc := svc.Location()
		start, err := utils.ParseInstant(mcp.ParseString(request, "start", ""), loc)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		var end time.Time
		if raw := mcp.ParseString(request, "end", ""); raw != "" {
			if end, err = utils.ParseInstant(raw, loc); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
		candidate := models.Candidate{
			Title:     mcp.ParseString(request, "title", ""),
			StartTime: start,
			EndTime:   end,
		}

		r := resolver.New(svc, sched, resolver.WithClock(svc.Now), resolver.WithLocation(loc))
		outcomes, err := r.Resolve(ctx, []models.Candidate{candidate})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		o := outcomes[0]

		res := addTaskResult{Status: string(o.State), Task: o.Task, Suggestions: o.Suggestions}
		if o.State == resolver.StateAwaitingUserChoice {
			// The caller picks a slot by calling add_task again.
			_ = o.Abandon()
			res.Status = "conflict"
		}
		if o.Err != nil {
			res.Error = o.Err.Error()
		}
		return jsonResult(res)
	}
}

func completeTaskHandler(svc *tasks.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		task, err := svc.Get(ctx, mcp.ParseString(request, "id", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		task.Status = models.StatusDone
		spawned, err := svc.Update(ctx, task)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if spawned != nil {
			return mcp.NewToolResultText(fmt.Sprintf("Task %s completed. Next occurrence %s scheduled for %s.",
				task.ID, spawned.ID, spawned.StartTime.In(svc.Location()).Format(constants.DateTimeFormat))), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Task %s completed.", task.ID)), nil
	}
}

func listOverdueHandler(svc *tasks.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		overdue, err := svc.Overdue(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(map[string]any{"tasks": nonNil(overdue)})
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
