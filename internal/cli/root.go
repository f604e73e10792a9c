package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/flowmind/internal/backup"
	"github.com/julianstephens/flowmind/internal/constants"
	"github.com/julianstephens/flowmind/internal/interpreter"
	"github.com/julianstephens/flowmind/internal/logger"
	"github.com/julianstephens/flowmind/internal/models"
	"github.com/julianstephens/flowmind/internal/projector"
	"github.com/julianstephens/flowmind/internal/resolver"
	"github.com/julianstephens/flowmind/internal/scheduler"
	"github.com/julianstephens/flowmind/internal/storage"
	"github.com/julianstephens/flowmind/internal/storage/sqlite"
	"github.com/julianstephens/flowmind/internal/tasks"
	"github.com/julianstephens/flowmind/internal/tui/choose"
	"github.com/julianstephens/flowmind/internal/utils"
)

// Interpreter turns free text into task candidates.
type Interpreter interface {
	Interpret(ctx context.Context, text string, now time.Time) ([]models.Candidate, error)
}

type Context struct {
	Store storage.Provider
	Clock utils.Clock
	Out   io.Writer

	// Hooks for the interactive parts of `add`. Nil means the real
	// implementation is used.
	Interpreter Interpreter
	Choose      func(o *resolver.Outcome, loc *time.Location) (choose.Choice, error)
	EditManual  func(draft models.Candidate, loc *time.Location) (time.Time, time.Time, error)
}

func (c *Context) now() time.Time {
	if c.Clock == nil {
		return time.Now()
	}
	return c.Clock()
}

func (c *Context) out() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

func (c *Context) printf(format string, args ...any) {
	fmt.Fprintf(c.out(), format, args...)
}

func (c *Context) println(args ...any) {
	fmt.Fprintln(c.out(), args...)
}

// Settings returns stored settings with defaults filled in.
func (c *Context) Settings(ctx context.Context) (models.Settings, error) {
	settings, err := c.Store.GetSettings(ctx)
	if err != nil {
		return models.Settings{}, fmt.Errorf("failed to get settings: %w", err)
	}
	models.ApplyDefaultSettings(&settings)
	return settings, nil
}

// Tasks builds the task service in the configured timezone.
func (c *Context) Tasks(ctx context.Context) (*tasks.Service, models.Settings, error) {
	settings, err := c.Settings(ctx)
	if err != nil {
		return nil, models.Settings{}, err
	}
	loc, err := utils.LoadLocation(settings.Timezone)
	if err != nil {
		return nil, models.Settings{}, fmt.Errorf("invalid timezone %q in settings: %w", settings.Timezone, err)
	}
	svc := tasks.New(c.Store, tasks.WithClock(c.now), tasks.WithLocation(loc))
	return svc, settings, nil
}

func (c *Context) Scheduler(settings models.Settings) *scheduler.Scheduler {
	return scheduler.New(settings)
}

// dayView projects all onto whichever day the scheduler asks for.
func dayView(all []models.Task) scheduler.DayTasksFunc {
	return func(day time.Time) []models.Task {
		return projector.ProjectDay(day, all)
	}
}

func (c *Context) interpreter(settings models.Settings, loc *time.Location) Interpreter {
	if c.Interpreter != nil {
		return c.Interpreter
	}
	return interpreter.New(interpreter.LoadKeys(),
		interpreter.WithModel(settings.InterpreterModel),
		interpreter.WithLocation(loc))
}

func (c *Context) chooser() func(*resolver.Outcome, *time.Location) (choose.Choice, error) {
	if c.Choose != nil {
		return c.Choose
	}
	return choose.Prompt
}

func (c *Context) manualEditor() func(models.Candidate, *time.Location) (time.Time, time.Time, error) {
	if c.EditManual != nil {
		return c.EditManual
	}
	return choose.Manual
}

// backupManager returns a manager for the SQLite database, or an error for
// other providers.
func (c *Context) backupManager() (*backup.Manager, error) {
	if _, ok := c.Store.(*sqlite.Store); !ok {
		return nil, fmt.Errorf("backups are only supported for SQLite storage")
	}
	return backup.NewManager(c.Store.GetConfigPath()), nil
}

// PerformAutomaticBackup snapshots the SQLite database before bulk changes.
// Failures are logged and never interrupt the command.
func (c *Context) PerformAutomaticBackup() {
	mgr, err := c.backupManager()
	if err != nil {
		return
	}
	if _, err := mgr.Create(); err != nil {
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// parseWhen accepts "HH:MM" for today, "YYYY-MM-DD HH:MM" or RFC 3339.
func parseWhen(s string, now time.Time, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) == len(constants.TimeFormat) && strings.Contains(s, ":") {
		return utils.CombineDateAndTime(now.In(loc).Format(constants.DateFormat), s, loc)
	}
	return utils.ParseInstant(s, loc)
}

func parseStatus(s string) (models.TaskStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "todo", "to-do", "to do":
		return models.StatusToDo, nil
	case "in-progress", "inprogress", "in progress", "doing":
		return models.StatusInProgress, nil
	case "done":
		return models.StatusDone, nil
	}
	return "", fmt.Errorf("invalid status %q (expected todo, in-progress or done)", s)
}

func formatSpan(t models.Task, loc *time.Location) string {
	return fmt.Sprintf("%s %s-%s",
		t.StartTime.In(loc).Format(constants.DateFormat),
		t.StartTime.In(loc).Format(constants.TimeFormat),
		t.EndTime.In(loc).Format(constants.TimeFormat))
}
