// Package focus runs focus sessions: a countdown over one task at a time,
// optionally chained through a queue of scheduled tasks with breaks between
// them, or fixed-length Pomodoro cycles.
package focus

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/julianstephens/flowmind/internal/constants"
	"github.com/julianstephens/flowmind/internal/errors"
	"github.com/julianstephens/flowmind/internal/logger"
	"github.com/julianstephens/flowmind/internal/models"
	"github.com/julianstephens/flowmind/internal/utils"
)

// Durations are the phase lengths of generic Pomodoro mode. Sequential
// sessions only use ShortBreak; their focus phases last until the task ends.
type Durations struct {
	Focus             time.Duration
	ShortBreak        time.Duration
	LongBreak         time.Duration
	LongBreakInterval int
	Grace             time.Duration
}

func DefaultDurations() Durations {
	return Durations{
		Focus:             constants.FocusBlock,
		ShortBreak:        constants.ShortBreak,
		LongBreak:         constants.LongBreak,
		LongBreakInterval: constants.LongBreakInterval,
		Grace:             constants.EndingGracePeriod,
	}
}

type Option func(*Engine)

func WithClock(now utils.Clock) Option {
	return func(e *Engine) { e.now = now }
}

func WithDurations(d Durations) Option {
	return func(e *Engine) { e.durations = d }
}

// Engine owns at most one session. All methods are safe for concurrent use.
type Engine struct {
	mu        sync.Mutex
	cur       *Session
	badge     int
	now       utils.Clock
	effects   Effects
	durations Durations

	subMu   sync.Mutex
	subs    map[int]chan Event
	nextSub int
}

func NewEngine(effects Effects, opts ...Option) *Engine {
	if effects == nil {
		effects = noEffects{}
	}
	e := &Engine{
		badge:     -1,
		now:       utils.SystemClock,
		effects:   effects,
		durations: DefaultDurations(),
		subs:      make(map[int]chan Event),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// batch collects the side effects and events of one locked transition so
// they can run after the lock is released.
type batch struct {
	calls  []func(Effects)
	events []Event
}

func (b *batch) do(f func(Effects)) { b.calls = append(b.calls, f) }

func (b *batch) emit(kind EventKind, at time.Time, s *Session) {
	ev := Event{Kind: kind, At: at}
	if s != nil {
		ev.Session = s.clone()
	}
	b.events = append(b.events, ev)
}

func (e *Engine) flush(b *batch) {
	for _, call := range b.calls {
		call(e.effects)
	}
	e.publish(b.events)
}

// Snapshot returns a copy of the active session, or false when hidden.
func (e *Engine) Snapshot() (Session, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil {
		return Session{}, false
	}
	return e.cur.clone(), true
}

// TimeLeft is the remaining countdown of the active session, or zero.
func (e *Engine) TimeLeft() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur == nil {
		return 0
	}
	return e.cur.TimeLeft(e.now())
}

// Now reads the engine's clock.
func (e *Engine) Now() time.Time {
	return e.now()
}

func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cur != nil
}

// StartSingle focuses on task until its scheduled end.
func (e *Engine) StartSingle(task models.Task) error {
	var b batch
	defer e.flush(&b)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if !task.EndTime.After(now) {
		return fmt.Errorf("%q ended at %s: %w", task.Title, task.EndTime.Format(constants.TimeFormat), errors.ErrTaskElapsed)
	}

	e.stopLocked(&b, now)
	e.startLocked(&b, now, Session{
		Task:       task,
		Sequential: true,
	})
	return nil
}

// StartQueue focuses on the in-progress task among tasks, or else the
// earliest upcoming one, then walks the rest in start order.
func (e *Engine) StartQueue(tasks []models.Task) error {
	var b batch
	defer e.flush(&b)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	var eligible []models.Task
	for _, t := range tasks {
		if t.IsDone() || !t.EndTime.After(now) {
			continue
		}
		eligible = append(eligible, t)
	}
	if len(eligible) == 0 {
		return errors.ErrNoEligibleTasks
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].StartTime.Before(eligible[j].StartTime)
	})

	initial := 0
	for i, t := range eligible {
		if t.IsActiveAt(now) {
			initial = i
			break
		}
	}
	queue := make([]models.Task, 0, len(eligible)-1)
	queue = append(queue, eligible[:initial]...)
	queue = append(queue, eligible[initial+1:]...)

	e.stopLocked(&b, now)
	e.startLocked(&b, now, Session{
		Task:       eligible[initial],
		Queue:      queue,
		Sequential: true,
	})
	return nil
}

// StartPomodoro runs fixed-length focus and break cycles on task until
// stopped.
func (e *Engine) StartPomodoro(task models.Task) error {
	var b batch
	defer e.flush(&b)

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	e.stopLocked(&b, now)
	e.startLocked(&b, now, Session{Task: task})
	return nil
}

func (e *Engine) startLocked(b *batch, now time.Time, s Session) {
	s = s.clone()
	s.Visibility = VisibilityFull
	mark := len(b.events)
	e.enterPhaseLocked(b, now, s, PhaseFocus)

	started := Event{Kind: EventStarted, At: now, Session: e.cur.clone()}
	b.events = append(b.events[:mark], append([]Event{started}, b.events[mark:]...)...)
	logger.Info("focus session started", "task", s.Task.ID, "sequential", s.Sequential, "queued", len(s.Queue))
}

// enterPhaseLocked installs s in phase p. A sequential focus phase on a task
// that has already ended goes straight to the end-of-phase handling.
func (e *Engine) enterPhaseLocked(b *batch, now time.Time, s Session, p Phase) {
	s.Phase = p
	s.EndedPhase = ""
	s.EndingUntil = time.Time{}
	s.Paused = false
	s.Remaining = 0

	switch {
	case s.Sequential && p == PhaseFocus:
		s.EndsAt = s.Task.EndTime
	case p == PhaseFocus:
		s.EndsAt = now.Add(e.durations.Focus)
	case p == PhaseLongBreak:
		s.EndsAt = now.Add(e.durations.LongBreak)
	default:
		s.EndsAt = now.Add(e.durations.ShortBreak)
	}
	s.Length = s.EndsAt.Sub(now)
	e.cur = &s

	if s.Length <= 0 {
		e.onZeroLocked(b, now)
		return
	}

	title, body := phaseStartMessage(s)
	b.do(func(fx Effects) { fx.ShowNotification(title, body) })
	b.emit(EventPhaseStarted, now, &s)
	e.badgeLocked(b, s.Length)
	logger.Debug("focus phase started", "task", s.Task.ID, "phase", p, "ends_at", s.EndsAt)
}

// Tick recomputes the countdown from the phase's end instant and performs
// any transition that is due. Callers invoke it periodically; the countdown
// stays correct however irregular the calls are.
func (e *Engine) Tick() {
	var b batch
	defer e.flush(&b)

	e.mu.Lock()
	defer e.mu.Unlock()

	s := e.cur
	if s == nil || s.Paused {
		return
	}
	now := e.now()

	if s.Phase == PhaseEnding {
		if !now.Before(s.EndingUntil) {
			e.advanceLocked(&b, now)
		}
		return
	}

	left := s.TimeLeft(now)
	if left <= 0 {
		e.onZeroLocked(&b, now)
		return
	}
	e.badgeLocked(&b, left)
}

// onZeroLocked fires the end-of-phase notification and sound once and holds
// the session in PhaseEnding for the grace period.
func (e *Engine) onZeroLocked(b *batch, now time.Time) {
	next := e.cur.clone()
	ended := next.Phase
	next.Phase = PhaseEnding
	next.EndedPhase = ended
	next.EndingUntil = now.Add(e.durations.Grace)
	next.Paused = false
	next.Remaining = 0
	e.cur = &next

	prefs := e.effects.Preferences()
	title, body := phaseEndMessage(next)
	b.do(func(fx Effects) { fx.ShowNotification(title, body) })
	switch {
	case ended == PhaseFocus && prefs.PlayFocusEndSound:
		b.do(func(fx Effects) { fx.PlaySound(prefs.FocusEndSound) })
	case ended.IsBreak() && prefs.PlayBreakEndSound:
		b.do(func(fx Effects) { fx.PlaySound(prefs.BreakEndSound) })
	}
	e.badge = -1
	b.do(func(fx Effects) { fx.ClearBadge() })
	b.emit(EventPhaseEnded, now, &next)
	logger.Info("focus phase ended", "task", next.Task.ID, "phase", ended)
}

// advanceLocked leaves PhaseEnding for the next phase, or completes the
// session.
func (e *Engine) advanceLocked(b *batch, now time.Time) {
	s := e.cur.clone()
	ended := s.EndedPhase

	if !s.Sequential {
		if ended == PhaseFocus {
			s.Cycles++
			p := PhaseShortBreak
			if e.durations.LongBreakInterval > 0 && s.Cycles%e.durations.LongBreakInterval == 0 {
				p = PhaseLongBreak
			}
			e.enterPhaseLocked(b, now, s, p)
			return
		}
		e.enterPhaseLocked(b, now, s, PhaseFocus)
		return
	}

	if ended == PhaseFocus {
		if len(s.Queue) > 0 {
			s.Cycles++
			e.enterPhaseLocked(b, now, s, PhaseShortBreak)
			return
		}
		e.completeLocked(b, now, "Focus session complete",
			fmt.Sprintf("Nice work! You finished focusing on %q.", s.Task.Title))
		return
	}

	for len(s.Queue) > 0 {
		candidate := s.Queue[0]
		s.Queue = s.Queue[1:]
		if candidate.EndTime.After(now) {
			s.Task = candidate
			e.enterPhaseLocked(b, now, s, PhaseFocus)
			return
		}
		logger.Debug("skipping elapsed queued task", "task", candidate.ID)
	}
	e.completeLocked(b, now, "Sequential session complete", "Nice work! Every scheduled task is done.")
}

func (e *Engine) completeLocked(b *batch, now time.Time, title, body string) {
	task := e.cur.Task.ID
	b.do(func(fx Effects) { fx.ShowNotification(title, body) })
	e.teardownLocked(b)
	b.emit(EventCompleted, now, nil)
	logger.Info("focus session complete", "task", task)
}

// Pause freezes the countdown. It is a no-op unless a phase is counting down.
// A phase whose end already passed without a tick ends instead of pausing.
func (e *Engine) Pause() bool {
	var b batch
	defer e.flush(&b)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cur == nil || e.cur.Paused || e.cur.Phase == PhaseEnding {
		return false
	}
	now := e.now()
	if e.cur.TimeLeft(now) <= 0 {
		e.onZeroLocked(&b, now)
		return false
	}
	next := e.cur.clone()
	next.Remaining = next.TimeLeft(now)
	next.Paused = true
	e.cur = &next
	b.emit(EventPaused, now, &next)
	return true
}

// Resume restarts a paused countdown from its frozen remainder. It is a
// no-op unless paused with time left.
func (e *Engine) Resume() bool {
	var b batch
	defer e.flush(&b)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cur == nil || !e.cur.Paused || e.cur.Remaining <= 0 {
		return false
	}
	now := e.now()
	next := e.cur.clone()
	next.EndsAt = now.Add(next.Remaining)
	next.Remaining = 0
	next.Paused = false
	e.cur = &next
	b.emit(EventResumed, now, &next)
	e.badgeLocked(&b, next.EndsAt.Sub(now))
	return true
}

func (e *Engine) Minimize() { e.setVisibility(VisibilityMinimized) }

func (e *Engine) Maximize() { e.setVisibility(VisibilityFull) }

func (e *Engine) setVisibility(v Visibility) {
	var b batch
	defer e.flush(&b)

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.cur == nil || e.cur.Visibility == v {
		return
	}
	next := e.cur.clone()
	next.Visibility = v
	e.cur = &next
	b.emit(EventVisibility, e.now(), &next)
}

// Stop discards the session from any state and clears the minutes badge.
// Calling it with no active session is safe.
func (e *Engine) Stop() {
	var b batch
	defer e.flush(&b)

	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.stopLocked(&b, e.now()) {
		b.do(func(fx Effects) { fx.ClearBadge() })
	}
}

func (e *Engine) stopLocked(b *batch, now time.Time) bool {
	if e.cur == nil {
		return false
	}
	task := e.cur.Task.ID
	e.teardownLocked(b)
	b.emit(EventStopped, now, nil)
	logger.Info("focus session stopped", "task", task)
	return true
}

func (e *Engine) teardownLocked(b *batch) {
	e.cur = nil
	e.badge = -1
	b.do(func(fx Effects) { fx.ClearBadge() })
}

// badgeLocked updates the minutes indicator only when its value changes.
func (e *Engine) badgeLocked(b *batch, left time.Duration) {
	minutes := int(math.Ceil(left.Minutes()))
	if minutes == e.badge {
		return
	}
	e.badge = minutes
	b.do(func(fx Effects) { fx.SetBadge(minutes) })
}

// Run calls Tick every second until ctx is cancelled or no session remains.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(constants.TickInterval)
	defer ticker.Stop()

	for {
		if !e.Active() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			e.Tick()
		}
	}
}

func phaseStartMessage(s Session) (string, string) {
	minutes := int(math.Round(s.Length.Minutes()))
	switch s.Phase {
	case PhaseShortBreak:
		return "Break started", fmt.Sprintf("Take a short break for %d minutes.", minutes)
	case PhaseLongBreak:
		return "Long break started", fmt.Sprintf("Enjoy your break for %d minutes.", minutes)
	}
	return "Focus session started", fmt.Sprintf("Focus on %q for %d minutes.", s.Task.Title, minutes)
}

func phaseEndMessage(s Session) (string, string) {
	if s.EndedPhase == PhaseFocus {
		return "Focus session finished", fmt.Sprintf("Good job! Time to step away from %q.", s.Task.Title)
	}
	return "Break is over", "Let's get back to focusing!"
}
