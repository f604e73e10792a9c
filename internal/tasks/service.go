// Package tasks is the task persistence collaborator. It owns ID assignment,
// validation and the daily-occurrence rule on top of a storage.Provider.
package tasks

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/flowmind/internal/constants"
	"github.com/julianstephens/flowmind/internal/errors"
	"github.com/julianstephens/flowmind/internal/logger"
	"github.com/julianstephens/flowmind/internal/models"
	"github.com/julianstephens/flowmind/internal/projector"
	"github.com/julianstephens/flowmind/internal/storage"
	"github.com/julianstephens/flowmind/internal/utils"
)

type Service struct {
	store storage.Provider
	now   utils.Clock
	loc   *time.Location
}

type Option func(*Service)

func WithClock(now utils.Clock) Option {
	return func(s *Service) { s.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func New(store storage.Provider, opts ...Option) *Service {
	s := &Service{store: store, now: utils.SystemClock, loc: time.Local}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Now() time.Time {
	return s.now().In(s.loc)
}

func (s *Service) Location() *time.Location {
	return s.loc
}

// Create assigns an ID and creation time, fills defaults and persists task.
func (s *Service) Create(ctx context.Context, task models.Task) (models.Task, error) {
	if task.ID != "" && projector.IsProjected(task.ID) {
		return models.Task{}, fmt.Errorf("create %s: %w", task.ID, errors.ErrProjectedInstance)
	}
	task.ID = uuid.New().String()
	task.Title = strings.TrimSpace(task.Title)
	if task.Status == "" {
		task.Status = models.StatusToDo
	}
	if task.Recurrence == "" {
		task.Recurrence = models.RecurrenceNone
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = s.Now()
	}
	task.DeletedAt = nil
	if err := task.Validate(); err != nil {
		return models.Task{}, fmt.Errorf("%w: %v", errors.ErrInvalidTask, err)
	}
	if err := s.store.AddTask(ctx, task); err != nil {
		return models.Task{}, fmt.Errorf("failed to save task: %w", err)
	}
	logger.Debug("Task created", "id", task.ID, "title", task.Title)
	return task, nil
}

// Update persists task. Marking a daily task Done spawns the next day's
// occurrence, returned as spawned, unless the series already has one.
func (s *Service) Update(ctx context.Context, task models.Task) (spawned *models.Task, err error) {
	if projector.IsProjected(task.ID) {
		return nil, fmt.Errorf("update %s: %w", task.ID, errors.ErrProjectedInstance)
	}
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", errors.ErrInvalidTask, err)
	}
	prev, err := s.store.GetTask(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	if prev.IsDone() || !task.IsDone() || task.Recurrence != models.RecurrenceDaily {
		return nil, nil
	}
	return s.spawnNext(ctx, task)
}

func (s *Service) spawnNext(ctx context.Context, done models.Task) (*models.Task, error) {
	nextStart := done.StartTime.In(s.loc).AddDate(0, 0, 1)
	all, err := s.store.GetAllTasks(ctx)
	if err != nil {
		return nil, err
	}
	series := done.SeriesID()
	for _, t := range all {
		if t.SeriesID() == series && utils.SameDay(nextStart, t.StartTime) {
			return nil, nil
		}
	}

	next := done.Clone()
	next.ID = uuid.New().String()
	next.StartTime = nextStart
	next.EndTime = done.EndTime.In(s.loc).AddDate(0, 0, 1)
	next.Status = models.StatusToDo
	next.Checklist = done.ResetChecklist()
	next.RecurringTemplateID = series
	next.CreatedAt = s.Now()
	next.DeletedAt = nil
	if err := s.store.AddTask(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to save next occurrence: %w", err)
	}
	logger.Info("Spawned next daily occurrence", "series", series, "id", next.ID, "start", next.StartTime)
	return &next, nil
}

// Delete soft-deletes a task.
func (s *Service) Delete(ctx context.Context, id string) error {
	if projector.IsProjected(id) {
		return fmt.Errorf("delete %s: %w", id, errors.ErrProjectedInstance)
	}
	return s.store.DeleteTask(ctx, id)
}

func (s *Service) Restore(ctx context.Context, id string) error {
	return s.store.RestoreTask(ctx, id)
}

// BulkUpdate writes every task atomically. No occurrences are spawned.
func (s *Service) BulkUpdate(ctx context.Context, tasks []models.Task) error {
	for _, t := range tasks {
		if projector.IsProjected(t.ID) {
			return fmt.Errorf("update %s: %w", t.ID, errors.ErrProjectedInstance)
		}
		if err := t.Validate(); err != nil {
			return fmt.Errorf("task %s: %w: %v", t.ID, errors.ErrInvalidTask, err)
		}
	}
	return s.store.UpdateTasks(ctx, tasks)
}

// List returns every live task ordered by start time.
func (s *Service) List(ctx context.Context) ([]models.Task, error) {
	all, err := s.store.GetAllTasks(ctx)
	if err != nil {
		return nil, err
	}
	sortByStart(all)
	return all, nil
}

// Get returns a stored task, or the projected instance for a projected ID.
func (s *Service) Get(ctx context.Context, id string) (models.Task, error) {
	if !projector.IsProjected(id) {
		return s.store.GetTask(ctx, id)
	}
	anchorID, _ := projector.AnchorID(id)
	day, err := time.ParseInLocation(constants.DateFormat, id[len(anchorID)+len(constants.ProjectedIDMarker):], s.loc)
	if err != nil {
		return models.Task{}, fmt.Errorf("task %s: %w", id, errors.ErrNotFound)
	}
	visible, err := s.Day(ctx, day)
	if err != nil {
		return models.Task{}, err
	}
	for _, t := range visible {
		if t.ID == id {
			return t, nil
		}
	}
	return models.Task{}, fmt.Errorf("task %s: %w", id, errors.ErrNotFound)
}

// ListRange returns live tasks starting in [from, to).
func (s *Service) ListRange(ctx context.Context, from, to time.Time) ([]models.Task, error) {
	tasks, err := s.store.GetTasksInRange(ctx, from, to)
	if err != nil {
		return nil, err
	}
	sortByStart(tasks)
	return tasks, nil
}

// Day returns the projected view of day in the service location.
func (s *Service) Day(ctx context.Context, day time.Time) ([]models.Task, error) {
	all, err := s.store.GetAllTasks(ctx)
	if err != nil {
		return nil, err
	}
	return projector.ProjectDay(day.In(s.loc), all), nil
}

// Overdue returns not-Done tasks that started before today.
func (s *Service) Overdue(ctx context.Context) ([]models.Task, error) {
	today := utils.StartOfDay(s.Now())
	all, err := s.store.GetAllTasks(ctx)
	if err != nil {
		return nil, err
	}
	var overdue []models.Task
	for _, t := range all {
		if !t.IsDone() && t.StartTime.Before(today) {
			overdue = append(overdue, t)
		}
	}
	sortByStart(overdue)
	return overdue, nil
}

// MoveToDay moves the given tasks onto day keeping each one's time of day
// and duration. All moves are written in one transaction.
func (s *Service) MoveToDay(ctx context.Context, ids []string, day time.Time) ([]models.Task, error) {
	day = day.In(s.loc)
	moved := make([]models.Task, 0, len(ids))
	for _, id := range ids {
		if projector.IsProjected(id) {
			return nil, fmt.Errorf("move %s: %w", id, errors.ErrProjectedInstance)
		}
		t, err := s.store.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}
		d := t.Duration()
		t.StartTime = utils.WithTimeOfDay(day, t.StartTime.In(s.loc))
		t.EndTime = t.StartTime.Add(d)
		moved = append(moved, t)
	}
	if len(moved) == 0 {
		return nil, nil
	}
	if err := s.store.UpdateTasks(ctx, moved); err != nil {
		return nil, fmt.Errorf("failed to move tasks: %w", err)
	}
	logger.Info("Moved tasks", "count", len(moved), "day", day.Format(constants.DateFormat))
	return moved, nil
}

// Extend restarts task id at now for minutes and pushes every later task
// on the same day back by the time the task gained. Nothing else moves when
// the new end is not later than the old one.
func (s *Service) Extend(ctx context.Context, id string, minutes int) ([]models.Task, error) {
	if minutes <= 0 {
		return nil, fmt.Errorf("%w: extension must be positive", errors.ErrInvalidTask)
	}
	if projector.IsProjected(id) {
		return nil, fmt.Errorf("extend %s: %w", id, errors.ErrProjectedInstance)
	}
	t, err := s.store.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.Now()
	newEnd := now.Add(time.Duration(minutes) * time.Minute)
	delta := newEnd.Sub(t.EndTime)

	updated := []models.Task{}
	// Later tasks only ever move back; a shorter task leaves them in place.
	if delta > 0 {
		all, err := s.store.GetAllTasks(ctx)
		if err != nil {
			return nil, err
		}
		for _, other := range all {
			if other.ID == t.ID || other.IsDone() {
				continue
			}
			if !utils.SameDay(other.StartTime.In(s.loc), t.StartTime.In(s.loc)) || other.StartTime.Before(t.EndTime) {
				continue
			}
			other.StartTime = other.StartTime.Add(delta)
			other.EndTime = other.EndTime.Add(delta)
			updated = append(updated, other)
		}
	}
	t.StartTime = now
	t.EndTime = newEnd
	t.Status = models.StatusInProgress
	updated = append([]models.Task{t}, updated...)
	if err := s.store.UpdateTasks(ctx, updated); err != nil {
		return nil, fmt.Errorf("failed to extend task: %w", err)
	}
	return updated, nil
}

func sortByStart(tasks []models.Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].StartTime.Before(tasks[j].StartTime)
	})
}
