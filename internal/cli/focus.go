package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/flowmind/internal/constants"
	"github.com/julianstephens/flowmind/internal/focus"
	"github.com/julianstephens/flowmind/internal/logger"
	"github.com/julianstephens/flowmind/internal/notifier"
	"github.com/julianstephens/flowmind/internal/tasks"
	"github.com/julianstephens/flowmind/internal/tui"
)

type FocusTaskCmd struct {
	ID       string `arg:"" help:"Task to focus on until its scheduled end."`
	Headless bool   `help:"Run without the TUI, logging phase changes."`
}

func (c *FocusTaskCmd) Run(ctx *Context) error {
	return runFocus(ctx, c.Headless, func(bg context.Context, svc *tasks.Service, engine *focus.Engine) error {
		task, err := svc.Get(bg, c.ID)
		if err != nil {
			return err
		}
		return engine.StartSingle(task)
	})
}

type FocusQueueCmd struct {
	Date     string `arg:"" optional:"" help:"Day whose tasks are queued (YYYY-MM-DD, today or tomorrow)." default:"today"`
	Headless bool   `help:"Run without the TUI, logging phase changes."`
}

func (c *FocusQueueCmd) Run(ctx *Context) error {
	return runFocus(ctx, c.Headless, func(bg context.Context, svc *tasks.Service, engine *focus.Engine) error {
		day, err := parseDay(c.Date, svc)
		if err != nil {
			return err
		}
		visible, err := svc.Day(bg, day)
		if err != nil {
			return err
		}
		return engine.StartQueue(visible)
	})
}

type FocusPomodoroCmd struct {
	ID       string `arg:"" help:"Task to run focus and break cycles on."`
	Headless bool   `help:"Run without the TUI, logging phase changes."`
}

func (c *FocusPomodoroCmd) Run(ctx *Context) error {
	return runFocus(ctx, c.Headless, func(bg context.Context, svc *tasks.Service, engine *focus.Engine) error {
		task, err := svc.Get(bg, c.ID)
		if err != nil {
			return err
		}
		return engine.StartPomodoro(task)
	})
}

type startFunc func(context.Context, *tasks.Service, *focus.Engine) error

func runFocus(ctx *Context, headless bool, start startFunc) error {
	bg, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	svc, settings, err := ctx.Tasks(bg)
	if err != nil {
		return err
	}
	effects := notifier.NewDispatcher(notifier.New(), settings, notifier.WithContext(bg))
	defer effects.Wait()

	engine := focus.NewEngine(effects, focus.WithClock(ctx.now))
	defer engine.Stop()

	if headless {
		return runHeadless(ctx, bg, svc, engine, start)
	}
	if err := start(bg, svc, engine); err != nil {
		return err
	}

	model := tui.NewModel(engine)
	defer model.Close()
	_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(bg)).Run()
	return err
}

// runHeadless streams transitions to the log until the session ends or the
// process is interrupted.
func runHeadless(ctx *Context, bg context.Context, svc *tasks.Service, engine *focus.Engine, start startFunc) error {
	events, unsubscribe := engine.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			logEvent(ev)
			ctx.printf("%s  %s\n", ev.At.Format("15:04:05"), describeEvent(ev))
		}
	}()

	if err := start(bg, svc, engine); err != nil {
		return err
	}
	err := engine.Run(bg)
	unsubscribe()
	<-done
	if err == context.Canceled {
		return nil
	}
	return err
}

func logEvent(ev focus.Event) {
	log := logger.With("event", string(ev.Kind))
	switch ev.Kind {
	case focus.EventCompleted, focus.EventStopped:
		log.Info("Focus session ended")
	default:
		log.Info(ev.Session.Phase.Label(),
			"task", ev.Session.Task.Title,
			"ends", ev.Session.EndsAt.Format("15:04:05"),
			"paused", ev.Session.Paused)
	}
}

func describeEvent(ev focus.Event) string {
	s := ev.Session
	switch ev.Kind {
	case focus.EventStarted, focus.EventPhaseStarted:
		return fmt.Sprintf("%s: %s until %s", s.Phase.Label(), s.Task.Title, s.EndsAt.Format(constants.TimeFormat))
	case focus.EventPhaseEnded:
		return fmt.Sprintf("%s finished", s.EndedPhase.Label())
	case focus.EventPaused:
		return "Paused"
	case focus.EventResumed:
		return "Resumed"
	case focus.EventCompleted:
		return "Session complete"
	case focus.EventStopped:
		return "Session stopped"
	}
	return string(ev.Kind)
}
