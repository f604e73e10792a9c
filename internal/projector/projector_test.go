package projector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianstephens/flowmind/internal/models"
)

func at(day, hour, min int) time.Time {
	return time.Date(2025, 3, day, hour, min, 0, 0, time.UTC)
}

func task(id, title string, start, end time.Time) models.Task {
	return models.Task{
		ID:         id,
		Title:      title,
		StartTime:  start,
		EndTime:    end,
		Status:     models.StatusToDo,
		Recurrence: models.RecurrenceNone,
	}
}

func daily(id, title string, start, end time.Time) models.Task {
	t := task(id, title, start, end)
	t.Recurrence = models.RecurrenceDaily
	return t
}

func TestProjectDaySelectsTasksOnDay(t *testing.T) {
	all := []models.Task{
		task("b", "late", at(10, 15, 0), at(10, 16, 0)),
		task("a", "early", at(10, 9, 0), at(10, 10, 0)),
		task("c", "tomorrow", at(11, 9, 0), at(11, 10, 0)),
		task("d", "edge", at(10, 23, 59), at(11, 0, 30)),
	}

	got := ProjectDay(at(10, 12, 0), all)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "d"}, ids(got))
}

func TestProjectDaySynthesizesNextDay(t *testing.T) {
	anchor := daily("gym", "Gym", at(10, 7, 30), at(10, 8, 15))
	anchor.Status = models.StatusDone
	anchor.Checklist = []models.ChecklistItem{{ID: "1", Text: "stretch", Completed: true}}

	got := ProjectDay(at(11, 0, 0), []models.Task{anchor})

	require.Len(t, got, 1)
	inst := got[0]
	assert.Equal(t, "gym-projected-2025-03-11", inst.ID)
	assert.True(t, IsProjected(inst.ID))
	assert.Equal(t, at(11, 7, 30), inst.StartTime)
	assert.Equal(t, at(11, 8, 15), inst.EndTime)
	assert.Equal(t, models.StatusToDo, inst.Status)
	assert.Equal(t, "gym", inst.RecurringTemplateID)
	assert.False(t, inst.Checklist[0].Completed)
	assert.True(t, anchor.Checklist[0].Completed, "anchor must not be mutated")
}

func TestProjectDayOnlyAfterAnchorDay(t *testing.T) {
	anchor := daily("gym", "Gym", at(10, 7, 0), at(10, 8, 0))

	assert.Equal(t, []string{"gym"}, ids(ProjectDay(at(10, 0, 0), []models.Task{anchor})))
	assert.Empty(t, ProjectDay(at(9, 0, 0), []models.Task{anchor}))
	assert.Len(t, ProjectDay(at(20, 0, 0), []models.Task{anchor}), 1)
}

func TestProjectDayUsesLatestMemberAsAnchor(t *testing.T) {
	first := daily("root", "Read", at(8, 21, 0), at(8, 21, 30))
	second := daily("child", "Read", at(10, 22, 0), at(10, 22, 30))
	second.RecurringTemplateID = "root"

	assert.Empty(t, filterProjected(ProjectDay(at(10, 0, 0), []models.Task{first, second})))

	got := ProjectDay(at(11, 0, 0), []models.Task{first, second})
	require.Len(t, got, 1)
	assert.Equal(t, "child-projected-2025-03-11", got[0].ID)
	assert.Equal(t, at(11, 22, 0), got[0].StartTime)
}

func TestProjectDayAnchorNotDailyYieldsNothing(t *testing.T) {
	root := daily("root", "Read", at(8, 21, 0), at(8, 21, 30))
	stopped := task("child", "Read", at(10, 21, 0), at(10, 21, 30))
	stopped.RecurringTemplateID = "root"

	got := ProjectDay(at(12, 0, 0), []models.Task{root, stopped})

	require.Len(t, got, 1, "root series still projects from its own daily member")
	assert.Equal(t, "root-projected-2025-03-12", got[0].ID)
}

func TestProjectDaySkipsMaterializedOccurrence(t *testing.T) {
	anchor := daily("gym", "Gym", at(10, 7, 0), at(10, 8, 0))
	spawned := task("gym-2", "Gym", at(11, 7, 0), at(11, 8, 0))

	got := ProjectDay(at(11, 0, 0), []models.Task{anchor, spawned})

	assert.Equal(t, []string{"gym-2"}, ids(got))
}

func TestProjectDayCrossMidnightTask(t *testing.T) {
	anchor := daily("night", "Night shift", at(10, 22, 0), at(11, 2, 0))

	got := ProjectDay(at(12, 0, 0), []models.Task{anchor})

	require.Len(t, got, 1)
	assert.Equal(t, at(12, 22, 0), got[0].StartTime)
	assert.Equal(t, at(13, 2, 0), got[0].EndTime)
}

func TestProjectDaySeriesWithSameTitleDoNotCollide(t *testing.T) {
	a := daily("a", "Walk", at(10, 8, 0), at(10, 9, 0))
	b := daily("b", "Walk", at(10, 18, 0), at(10, 19, 0))

	got := ProjectDay(at(11, 0, 0), []models.Task{b, a})

	assert.Equal(t, []string{"a-projected-2025-03-11", "b-projected-2025-03-11"}, ids(got))
}

func TestProjectDayDeduplicatesByID(t *testing.T) {
	one := task("x", "first", at(10, 9, 0), at(10, 10, 0))
	dup := task("x", "second", at(10, 11, 0), at(10, 12, 0))

	got := ProjectDay(at(10, 0, 0), []models.Task{one, dup})

	require.Len(t, got, 1)
	assert.Equal(t, "first", got[0].Title)
}

func TestProjectDayIsDeterministic(t *testing.T) {
	all := []models.Task{
		daily("a", "A", at(9, 8, 0), at(9, 9, 0)),
		daily("b", "B", at(9, 8, 0), at(9, 9, 0)),
		task("c", "C", at(10, 8, 0), at(10, 9, 0)),
	}
	first := ProjectDay(at(10, 0, 0), all)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ProjectDay(at(10, 0, 0), all))
	}
}

func TestAnchorID(t *testing.T) {
	id, ok := AnchorID("gym-projected-2025-03-11")
	assert.True(t, ok)
	assert.Equal(t, "gym", id)

	_, ok = AnchorID("gym")
	assert.False(t, ok)
}

func ids(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func filterProjected(tasks []models.Task) []models.Task {
	var out []models.Task
	for _, t := range tasks {
		if IsProjected(t.ID) {
			out = append(out, t)
		}
	}
	return out
}
