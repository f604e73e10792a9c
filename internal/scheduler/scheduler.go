package scheduler

import (
	"sort"
	"time"

	"github.com/julianstephens/flowmind/internal/constants"
	"github.com/julianstephens/flowmind/internal/models"
	"github.com/julianstephens/flowmind/internal/utils"
)

// DayTasksFunc returns the tasks occupying day, typically the projected view.
type DayTasksFunc func(day time.Time) []models.Task

type Scheduler struct {
	Limit       int
	HorizonDays int
}

func New(settings models.Settings) *Scheduler {
	s := &Scheduler{
		Limit:       settings.SuggestionCount,
		HorizonDays: settings.SearchHorizonDays,
	}
	if s.Limit <= 0 {
		s.Limit = constants.DefaultSuggestionCount
	}
	if s.HorizonDays <= 0 {
		s.HorizonDays = constants.DefaultSearchHorizonDays
	}
	return s
}

// Suggest searches the configured horizon starting on now's day.
func (s *Scheduler) Suggest(duration time.Duration, now time.Time, tasksForDay DayTasksFunc) []models.TimeSlot {
	return SuggestSlots(duration, now, s.HorizonDays, s.Limit, tasksForDay)
}

type busyPeriod struct {
	start time.Time
	end   time.Time
}

// FindAvailableSlots returns one slot of exactly duration at the start of
// every free gap on targetDate's calendar day that can hold it. Slots never
// start before now and never extend past the following local midnight.
func FindAvailableSlots(duration time.Duration, targetDate time.Time, tasksOnDate []models.Task, now time.Time) []models.TimeSlot {
	if duration <= 0 {
		return nil
	}

	dayStart := utils.StartOfDay(targetDate)
	dayEnd := utils.EndOfDay(targetDate)
	limit := dayEnd.Add(time.Millisecond)

	lower := dayStart
	if now.After(lower) {
		lower = now
	}
	if !lower.Before(limit) {
		return nil
	}

	busy := make([]busyPeriod, 0, len(tasksOnDate)+1)
	busy = append(busy, busyPeriod{start: dayStart, end: lower})
	for _, t := range tasksOnDate {
		if !t.EndTime.After(t.StartTime) {
			continue
		}
		if !t.StartTime.Before(limit) || !t.EndTime.After(dayStart) {
			continue
		}
		busy = append(busy, busyPeriod{start: t.StartTime, end: t.EndTime})
	}

	merged := mergeBusy(busy)
	merged = append(merged, busyPeriod{start: limit, end: limit})

	var slots []models.TimeSlot
	lastEnd := merged[0].end
	for _, p := range merged[1:] {
		if p.start.Sub(lastEnd) >= duration {
			slots = append(slots, models.TimeSlot{Start: lastEnd, End: lastEnd.Add(duration)})
		}
		if p.end.After(lastEnd) {
			lastEnd = p.end
		}
	}
	return slots
}

// SuggestSlots walks up to days consecutive days starting on from's day and
// returns at most limit slots in chronological order. from also serves as
// the current instant.
func SuggestSlots(duration time.Duration, from time.Time, days, limit int, tasksForDay DayTasksFunc) []models.TimeSlot {
	if limit <= 0 || days <= 0 {
		return nil
	}

	var out []models.TimeSlot
	first := utils.StartOfDay(from)
	for i := 0; i < days && len(out) < limit; i++ {
		day := first.AddDate(0, 0, i)
		var tasks []models.Task
		if tasksForDay != nil {
			tasks = tasksForDay(day)
		}
		for _, slot := range FindAvailableSlots(duration, day, tasks, from) {
			out = append(out, slot)
			if len(out) == limit {
				break
			}
		}
	}
	return out
}

// mergeBusy sorts periods by start and collapses overlapping or touching ones.
func mergeBusy(periods []busyPeriod) []busyPeriod {
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].start.Before(periods[j].start)
	})

	merged := make([]busyPeriod, 0, len(periods))
	for _, p := range periods {
		if n := len(merged); n > 0 && !p.start.After(merged[n-1].end) {
			if p.end.After(merged[n-1].end) {
				merged[n-1].end = p.end
			}
			continue
		}
		merged = append(merged, p)
	}
	return merged
}
