package focus

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/flowmind/internal/errors"
	"github.com/julianstephens/flowmind/internal/models"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recorder struct {
	mu     sync.Mutex
	titles []string
	sounds []string
	badges []int
	clears int
	prefs  Preferences
}

func (r *recorder) ShowNotification(title, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.titles = append(r.titles, title)
}

func (r *recorder) PlaySound(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sounds = append(r.sounds, url)
}

func (r *recorder) SetBadge(m int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.badges = append(r.badges, m)
}

func (r *recorder) ClearBadge() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clears++
}

func (r *recorder) Preferences() Preferences { return r.prefs }

var epoch = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func newTestEngine(t *testing.T) (*Engine, *fakeClock, *recorder) {
	t.Helper()
	clock := &fakeClock{t: epoch}
	fx := &recorder{prefs: Preferences{
		PlayFocusEndSound: true,
		PlayBreakEndSound: true,
		FocusEndSound:     "focus.mp3",
		BreakEndSound:     "break.mp3",
	}}
	return NewEngine(fx, WithClock(clock.Now)), clock, fx
}

func mkTask(id string, start, end time.Duration) models.Task {
	return models.Task{
		ID:         id,
		Title:      "task " + id,
		StartTime:  epoch.Add(start),
		EndTime:    epoch.Add(end),
		Status:     models.StatusToDo,
		Recurrence: models.RecurrenceNone,
	}
}

// finishPhase advances to the end of the current countdown and through the
// grace period.
func finishPhase(t *testing.T, e *Engine, clock *fakeClock) {
	t.Helper()
	clock.Advance(e.TimeLeft())
	e.Tick()
	s, ok := e.Snapshot()
	require.True(t, ok)
	require.Equal(t, PhaseEnding, s.Phase)
	clock.Advance(DefaultDurations().Grace)
	e.Tick()
}

func TestStartSingleRejectsElapsedTask(t *testing.T) {
	e, _, _ := newTestEngine(t)

	err := e.StartSingle(mkTask("a", -time.Hour, 0))

	assert.ErrorIs(t, err, errors.ErrTaskElapsed)
	assert.False(t, e.Active())
}

func TestStartSingleCountsDownFromAbsoluteEnd(t *testing.T) {
	e, clock, _ := newTestEngine(t)

	require.NoError(t, e.StartSingle(mkTask("a", -time.Hour, 10*time.Minute)))
	assert.Equal(t, 10*time.Minute, e.TimeLeft())

	s, _ := e.Snapshot()
	assert.Equal(t, PhaseFocus, s.Phase)
	assert.True(t, s.Sequential)
	assert.Empty(t, s.Queue)
	assert.Equal(t, VisibilityFull, s.Visibility)

	clock.Advance(5 * time.Minute)
	assert.Equal(t, 5*time.Minute, e.TimeLeft(), "no ticks fired but time left follows the clock")

	e.Tick()
	e.Tick()
	e.Tick()
	assert.Equal(t, 5*time.Minute, e.TimeLeft(), "extra ticks do not consume time")
}

func TestSingleSessionCompletesAfterFocus(t *testing.T) {
	e, clock, fx := newTestEngine(t)
	require.NoError(t, e.StartSingle(mkTask("a", 0, 10*time.Minute)))

	clock.Advance(10 * time.Minute)
	e.Tick()
	e.Tick()

	s, ok := e.Snapshot()
	require.True(t, ok)
	assert.Equal(t, PhaseEnding, s.Phase)
	assert.Equal(t, PhaseFocus, s.EndedPhase)
	assert.Equal(t, time.Duration(0), e.TimeLeft())
	assert.Equal(t, []string{"focus.mp3"}, fx.sounds, "sound fires exactly once")

	clock.Advance(time.Second)
	e.Tick()
	assert.True(t, e.Active(), "still within the grace period")

	clock.Advance(time.Second)
	e.Tick()
	assert.False(t, e.Active())
	assert.Contains(t, fx.titles, "Focus session complete")
}

func TestSequentialQueueWalk(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	tasks := []models.Task{
		mkTask("c", 2*time.Hour, 3*time.Hour),
		mkTask("a", -5*time.Minute, 30*time.Minute),
		mkTask("b", time.Hour, 90*time.Minute),
	}
	require.NoError(t, e.StartQueue(tasks))

	s, _ := e.Snapshot()
	assert.Equal(t, "a", s.Task.ID)
	assert.Len(t, s.Queue, 2)

	finishPhase(t, e, clock)
	s, _ = e.Snapshot()
	assert.Equal(t, PhaseShortBreak, s.Phase)
	assert.Len(t, s.Queue, 2)
	assert.Equal(t, 5*time.Minute, e.TimeLeft())

	finishPhase(t, e, clock)
	s, _ = e.Snapshot()
	assert.Equal(t, PhaseFocus, s.Phase)
	assert.Equal(t, "b", s.Task.ID)
	assert.Len(t, s.Queue, 1)
	assert.Equal(t, epoch.Add(90*time.Minute), s.EndsAt)

	finishPhase(t, e, clock)
	finishPhase(t, e, clock)
	s, _ = e.Snapshot()
	assert.Equal(t, "c", s.Task.ID)
	assert.Empty(t, s.Queue)

	finishPhase(t, e, clock)
	assert.False(t, e.Active())
}

func TestSequentialSkipsElapsedQueuedTasks(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	tasks := []models.Task{
		mkTask("a", 0, 10*time.Minute),
		mkTask("short", 11*time.Minute, 13*time.Minute),
		mkTask("c", time.Hour, 2*time.Hour),
	}
	require.NoError(t, e.StartQueue(tasks))

	finishPhase(t, e, clock)
	finishPhase(t, e, clock)

	s, ok := e.Snapshot()
	require.True(t, ok)
	assert.Equal(t, "c", s.Task.ID, "task ending during the break is skipped")
	assert.Empty(t, s.Queue)
}

func TestSequentialCompletesWhenQueueFullyElapsed(t *testing.T) {
	e, clock, fx := newTestEngine(t)
	require.NoError(t, e.StartQueue([]models.Task{
		mkTask("a", 0, 10*time.Minute),
		mkTask("b", 11*time.Minute, 12*time.Minute),
	}))

	finishPhase(t, e, clock)
	finishPhase(t, e, clock)

	assert.False(t, e.Active())
	assert.Contains(t, fx.titles, "Sequential session complete")
	assert.Equal(t, []string{"focus.mp3", "break.mp3"}, fx.sounds)
}

func TestStartQueueFiltersIneligible(t *testing.T) {
	e, _, _ := newTestEngine(t)
	done := mkTask("done", time.Hour, 2*time.Hour)
	done.Status = models.StatusDone

	err := e.StartQueue([]models.Task{done, mkTask("past", -2*time.Hour, -time.Hour)})
	assert.ErrorIs(t, err, errors.ErrNoEligibleTasks)

	require.NoError(t, e.StartQueue([]models.Task{done, mkTask("later", 3*time.Hour, 4*time.Hour), mkTask("soon", time.Hour, 2*time.Hour)}))
	s, _ := e.Snapshot()
	assert.Equal(t, "soon", s.Task.ID, "earliest upcoming task when none is in progress")
	require.Len(t, s.Queue, 1)
	assert.Equal(t, "later", s.Queue[0].ID)
}

func TestPomodoroCycles(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	require.NoError(t, e.StartPomodoro(models.Task{ID: "p", Title: "Deep work"}))

	s, _ := e.Snapshot()
	assert.False(t, s.Sequential)
	assert.Equal(t, 25*time.Minute, e.TimeLeft())

	var breaks []Phase
	for i := 0; i < 4; i++ {
		finishPhase(t, e, clock)
		s, _ = e.Snapshot()
		breaks = append(breaks, s.Phase)
		finishPhase(t, e, clock)
		s, _ = e.Snapshot()
		require.Equal(t, PhaseFocus, s.Phase)
	}

	assert.Equal(t, []Phase{PhaseShortBreak, PhaseShortBreak, PhaseShortBreak, PhaseLongBreak}, breaks)
	assert.Equal(t, 4, s.Cycles)
}

func TestPauseFreezesAndResumeRestarts(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	require.NoError(t, e.StartSingle(mkTask("a", 0, 10*time.Minute)))

	clock.Advance(2 * time.Minute)
	require.True(t, e.Pause())
	assert.Equal(t, 8*time.Minute, e.TimeLeft())

	clock.Advance(3 * time.Minute)
	e.Tick()
	assert.Equal(t, 8*time.Minute, e.TimeLeft(), "countdown frozen while paused")

	require.True(t, e.Resume())
	assert.Equal(t, 8*time.Minute, e.TimeLeft())
	s, _ := e.Snapshot()
	assert.Equal(t, epoch.Add(13*time.Minute), s.EndsAt)

	clock.Advance(time.Minute)
	assert.Equal(t, 7*time.Minute, e.TimeLeft())
}

func TestPauseResumeWrongStateAreNoOps(t *testing.T) {
	e, clock, _ := newTestEngine(t)

	assert.False(t, e.Pause())
	assert.False(t, e.Resume())

	require.NoError(t, e.StartSingle(mkTask("a", 0, 10*time.Minute)))
	assert.False(t, e.Resume(), "not paused")
	assert.True(t, e.Pause())
	assert.False(t, e.Pause(), "already paused")

	require.True(t, e.Resume())
	clock.Advance(10 * time.Minute)
	e.Tick()
	assert.False(t, e.Pause(), "cannot pause while ending")
}

func TestPauseAfterMissedDeadlineEndsPhase(t *testing.T) {
	e, clock, fx := newTestEngine(t)
	require.NoError(t, e.StartSingle(mkTask("a", 0, time.Minute)))

	// No tick ran while the deadline passed.
	clock.Advance(2 * time.Minute)
	assert.False(t, e.Pause())

	s, ok := e.Snapshot()
	require.True(t, ok)
	assert.Equal(t, PhaseEnding, s.Phase)
	assert.False(t, s.Paused)
	assert.Equal(t, []string{"focus.mp3"}, fx.sounds)
	assert.False(t, e.Resume())

	clock.Advance(DefaultDurations().Grace)
	e.Tick()
	assert.False(t, e.Active(), "session completes instead of staying paused at zero")
}

func TestMinimizeMaximizeKeepCountdown(t *testing.T) {
	e, clock, _ := newTestEngine(t)
	require.NoError(t, e.StartSingle(mkTask("a", 0, 10*time.Minute)))

	e.Minimize()
	s, _ := e.Snapshot()
	assert.Equal(t, VisibilityMinimized, s.Visibility)

	clock.Advance(time.Minute)
	e.Maximize()
	s, _ = e.Snapshot()
	assert.Equal(t, VisibilityFull, s.Visibility)
	assert.Equal(t, 9*time.Minute, e.TimeLeft())
}

func TestStopIsIdempotent(t *testing.T) {
	e, _, fx := newTestEngine(t)
	require.NoError(t, e.StartSingle(mkTask("a", 0, 10*time.Minute)))

	e.Stop()
	assert.False(t, e.Active())
	e.Stop()
	assert.False(t, e.Active())

	assert.Equal(t, 2, fx.clears, "badge cleared on every stop")
	assert.Equal(t, time.Duration(0), e.TimeLeft())
}

func TestStartWhileActiveReplacesSession(t *testing.T) {
	e, _, _ := newTestEngine(t)
	events, unsubscribe := e.Subscribe()
	defer unsubscribe()

	require.NoError(t, e.StartSingle(mkTask("a", 0, 10*time.Minute)))
	require.NoError(t, e.StartSingle(mkTask("b", 0, 20*time.Minute)))

	var kinds []EventKind
	for len(events) > 0 {
		kinds = append(kinds, (<-events).Kind)
	}
	assert.Equal(t, []EventKind{
		EventStarted, EventPhaseStarted,
		EventStopped, EventStarted, EventPhaseStarted,
	}, kinds)

	s, _ := e.Snapshot()
	assert.Equal(t, "b", s.Task.ID)
}

func TestSoundPreferencesRespected(t *testing.T) {
	e, clock, fx := newTestEngine(t)
	fx.prefs.PlayFocusEndSound = false
	require.NoError(t, e.StartQueue([]models.Task{
		mkTask("a", 0, 10*time.Minute),
		mkTask("b", 0, time.Hour),
	}))

	finishPhase(t, e, clock)
	assert.Empty(t, fx.sounds)

	finishPhase(t, e, clock)
	assert.Equal(t, []string{"break.mp3"}, fx.sounds)
}

func TestBadgeUpdatesOnlyWhenMinuteChanges(t *testing.T) {
	e, clock, fx := newTestEngine(t)
	require.NoError(t, e.StartSingle(mkTask("a", 0, 10*time.Minute)))

	for i := 0; i < 10; i++ {
		clock.Advance(time.Second)
		e.Tick()
	}
	assert.Equal(t, []int{10}, fx.badges)

	clock.Advance(50 * time.Second)
	e.Tick()
	assert.Equal(t, []int{10, 9}, fx.badges)
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	e, _, _ := newTestEngine(t)
	events, unsubscribe := e.Subscribe()

	unsubscribe()
	unsubscribe()

	_, open := <-events
	assert.False(t, open)
	require.NoError(t, e.StartSingle(mkTask("a", 0, time.Minute)), "publishing after unsubscribe must not panic")
}

func TestRunReturnsWithoutSession(t *testing.T) {
	e, _, _ := newTestEngine(t)
	assert.NoError(t, e.Run(context.Background()))
}

func TestRunStopsOnCancel(t *testing.T) {
	e, _, _ := newTestEngine(t)
	require.NoError(t, e.StartSingle(mkTask("a", 0, time.Hour)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, e.Run(ctx), context.Canceled)
}

func TestSnapshotDoesNotShareTaskSlices(t *testing.T) {
	e, _, _ := newTestEngine(t)
	a := mkTask("a", -5*time.Minute, 30*time.Minute)
	a.Tags = []string{"deep"}
	b := mkTask("b", time.Hour, 2*time.Hour)
	b.Checklist = []models.ChecklistItem{{ID: "1", Text: "outline"}}
	require.NoError(t, e.StartQueue([]models.Task{a, b}))

	s, _ := e.Snapshot()
	s.Task.Tags[0] = "changed"
	s.Queue[0].Checklist[0].Completed = true

	again, _ := e.Snapshot()
	assert.Equal(t, "deep", again.Task.Tags[0])
	assert.False(t, again.Queue[0].Checklist[0].Completed)

	b.Checklist[0].Text = "edited by caller"
	again, _ = e.Snapshot()
	assert.Equal(t, "outline", again.Queue[0].Checklist[0].Text)
}

func TestSessionProgress(t *testing.T) {
	s := Session{Phase: PhaseFocus, EndsAt: epoch.Add(10 * time.Minute), Length: 20 * time.Minute}

	assert.InDelta(t, 0.5, s.Progress(epoch), 0.0001)
	assert.InDelta(t, 1.0, s.Progress(epoch.Add(time.Hour)), 0.0001)
	assert.Equal(t, 1.0, Session{Phase: PhaseEnding}.Progress(epoch))
}
