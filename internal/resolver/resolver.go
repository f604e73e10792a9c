// Package resolver places interpreted task candidates on the calendar,
// committing them directly when their time is free and otherwise offering
// alternative slots for the user to choose from.
package resolver

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/julianstephens/flowmind/internal/constants"
	"github.com/julianstephens/flowmind/internal/errors"
	"github.com/julianstephens/flowmind/internal/logger"
	"github.com/julianstephens/flowmind/internal/models"
	"github.com/julianstephens/flowmind/internal/projector"
	"github.com/julianstephens/flowmind/internal/scheduler"
	"github.com/julianstephens/flowmind/internal/utils"
)

type State string

const (
	StateIdle               State = "idle"
	StateEvaluating         State = "evaluating"
	StateCommitted          State = "committed"
	StateAwaitingUserChoice State = "awaiting_user_choice"
)

// TaskStore is the persistence the resolver reads from and commits to.
type TaskStore interface {
	List(ctx context.Context) ([]models.Task, error)
	Create(ctx context.Context, task models.Task) (models.Task, error)
}

type Resolver struct {
	store    TaskStore
	sched    *scheduler.Scheduler
	now      utils.Clock
	location *time.Location
}

type Option func(*Resolver)

func WithClock(now utils.Clock) Option {
	return func(r *Resolver) { r.now = now }
}

// WithLocation sets the zone whose calendar days bound conflict checks.
func WithLocation(loc *time.Location) Option {
	return func(r *Resolver) { r.location = loc }
}

func New(store TaskStore, sched *scheduler.Scheduler, opts ...Option) *Resolver {
	r := &Resolver{
		store:    store,
		sched:    sched,
		now:      utils.SystemClock,
		location: time.Local,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sched == nil {
		r.sched = scheduler.New(models.Settings{})
	}
	return r
}

// Resolve evaluates every candidate independently, in order. Tasks committed
// for earlier candidates count as busy for later ones. The returned error is
// non-nil only when existing tasks cannot be loaded; per-candidate failures
// are reported on each Outcome.
func (r *Resolver) Resolve(ctx context.Context, candidates []models.Candidate) ([]*Outcome, error) {
	existing, err := r.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	working := append([]models.Task(nil), existing...)

	outcomes := make([]*Outcome, 0, len(candidates))
	for _, c := range candidates {
		o := r.evaluate(ctx, c, working)
		if o.State == StateCommitted {
			working = append(working, *o.Task)
		}
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

func (r *Resolver) evaluate(ctx context.Context, c models.Candidate, working []models.Task) *Outcome {
	o := &Outcome{resolver: r, State: StateEvaluating}
	log := logger.With("title", c.Title)

	if strings.TrimSpace(c.Title) == "" || c.StartTime.IsZero() {
		o.finish(StateIdle, fmt.Errorf("candidate %q: %w", c.Title, errors.ErrInvalidTask))
		return o
	}
	o.Candidate = Repair(c)
	now := r.now()

	if !r.conflicts(o.Candidate, working, now) {
		task, err := r.commit(ctx, o.Candidate.Title, o.Candidate.StartTime, o.Candidate.EndTime)
		if err != nil {
			o.finish(StateIdle, err)
			return o
		}
		o.Task = &task
		o.finish(StateCommitted, nil)
		log.Debug("candidate committed", "task", task.ID)
		return o
	}

	duration := o.Candidate.EndTime.Sub(o.Candidate.StartTime)
	o.Suggestions = r.sched.Suggest(duration, now.In(r.location), func(day time.Time) []models.Task {
		return projector.ProjectDay(day, working)
	})
	if len(o.Suggestions) == 0 {
		o.finish(StateIdle, fmt.Errorf("%q: %w", o.Candidate.Title, errors.ErrNoAvailability))
		log.Info("no availability for candidate", "duration", duration)
		return o
	}
	o.finish(StateAwaitingUserChoice, nil)
	log.Debug("candidate conflicts", "suggestions", len(o.Suggestions))
	return o
}

// Repair forces a 60 minute duration on inverted or sub-minute candidates,
// keeping the start.
func Repair(c models.Candidate) models.Candidate {
	if !c.EndTime.After(c.StartTime) || c.EndTime.Sub(c.StartTime) < constants.MinCandidateDuration {
		c.EndTime = c.StartTime.Add(constants.DefaultCandidateDuration)
	}
	return c
}

// Conflicts reports whether [start, end) intersects any of tasks or has
// already ended at now.
func Conflicts(start, end time.Time, tasks []models.Task, now time.Time) bool {
	if !end.After(now) {
		return true
	}
	for _, t := range tasks {
		if start.Before(t.EndTime) && t.StartTime.Before(end) {
			return true
		}
	}
	return false
}

func (r *Resolver) conflicts(c models.Candidate, working []models.Task, now time.Time) bool {
	day := projector.ProjectDay(c.StartTime.In(r.location), working)
	return Conflicts(c.StartTime, c.EndTime, day, now)
}

func (r *Resolver) commit(ctx context.Context, title string, start, end time.Time) (models.Task, error) {
	task := models.Task{
		Title:      title,
		StartTime:  start,
		EndTime:    end,
		Status:     models.StatusToDo,
		Recurrence: models.RecurrenceNone,
		CreatedAt:  r.now(),
	}
	created, err := r.store.Create(ctx, task)
	if err != nil {
		return models.Task{}, fmt.Errorf("committing %q: %w", title, err)
	}
	return created, nil
}

// Outcome is the result of evaluating one candidate. An outcome awaiting a
// user choice is resolved exactly once by SelectSlot, RequestManual or
// Abandon; later calls return ErrAlreadyResolved.
type Outcome struct {
	Candidate   models.Candidate
	State       State
	Task        *models.Task
	Suggestions []models.TimeSlot
	Err         error

	mu       sync.Mutex
	resolver *Resolver
}

func (o *Outcome) finish(state State, err error) {
	o.State = state
	o.Err = err
}

// SelectSlot commits the candidate at Suggestions[i]. If the slot was taken
// since suggestions were computed the outcome stays open for another choice.
func (o *Outcome) SelectSlot(ctx context.Context, i int) (models.Task, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.State != StateAwaitingUserChoice {
		return models.Task{}, errors.ErrAlreadyResolved
	}
	if i < 0 || i >= len(o.Suggestions) {
		return models.Task{}, fmt.Errorf("slot %d out of range [0,%d)", i, len(o.Suggestions))
	}

	r := o.resolver
	slot := o.Suggestions[i]
	current, err := r.store.List(ctx)
	if err != nil {
		return models.Task{}, fmt.Errorf("loading tasks: %w", err)
	}
	day := projector.ProjectDay(slot.Start.In(r.location), current)
	if Conflicts(slot.Start, slot.End, day, r.now()) {
		return models.Task{}, fmt.Errorf("slot %s is no longer free: %w",
			slot.Start.Format(constants.DateTimeFormat), errors.ErrNoAvailability)
	}

	task, err := r.commit(ctx, o.Candidate.Title, slot.Start, slot.End)
	if err != nil {
		return models.Task{}, err
	}
	o.Task = &task
	o.finish(StateCommitted, nil)
	logger.Debug("conflict resolved with suggested slot", "task", task.ID, "slot", i)
	return task, nil
}

// RequestManual closes the outcome without committing and returns the
// repaired candidate as a draft for manual editing.
func (o *Outcome) RequestManual() (models.Candidate, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.State != StateAwaitingUserChoice {
		return models.Candidate{}, errors.ErrAlreadyResolved
	}
	o.finish(StateIdle, nil)
	return o.Candidate, nil
}

// Abandon discards the candidate.
func (o *Outcome) Abandon() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.State != StateAwaitingUserChoice {
		return errors.ErrAlreadyResolved
	}
	o.finish(StateIdle, nil)
	logger.Debug("conflict abandoned", "title", o.Candidate.Title)
	return nil
}
