// Package projector computes the tasks visible on a calendar day, including
// synthesized occurrences of daily recurring series. Nothing it returns is
// persisted.
package projector

import (
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/flowmind/internal/constants"
	"github.com/julianstephens/flowmind/internal/models"
	"github.com/julianstephens/flowmind/internal/utils"
)

// ProjectDay returns the tasks whose start falls on date's calendar day plus
// at most one projected instance per daily series, ordered by start time.
// Day boundaries are taken in date.Location().
func ProjectDay(date time.Time, all []models.Task) []models.Task {
	dayStart := utils.StartOfDay(date)
	dayEnd := utils.EndOfDay(date)

	var existing []models.Task
	for _, t := range all {
		if onDay(t.StartTime, dayStart, dayEnd) {
			existing = append(existing, t)
		}
	}

	var projected []models.Task
	for _, anchor := range anchors(all) {
		if anchor.Recurrence != models.RecurrenceDaily {
			continue
		}
		if !utils.DayAfter(dayStart, anchor.StartTime) {
			continue
		}
		inst := project(anchor, dayStart)
		if materialized(existing, inst) {
			continue
		}
		projected = append(projected, inst)
	}

	combined := make([]models.Task, 0, len(existing)+len(projected))
	seen := make(map[string]bool, cap(combined))
	for _, t := range append(existing, projected...) {
		if seen[t.ID] {
			continue
		}
		seen[t.ID] = true
		combined = append(combined, t)
	}

	sort.SliceStable(combined, func(i, j int) bool {
		return combined[i].StartTime.Before(combined[j].StartTime)
	})
	return combined
}

// IsProjected reports whether id was synthesized by ProjectDay.
func IsProjected(id string) bool {
	return strings.Contains(id, constants.ProjectedIDMarker)
}

// AnchorID returns the ID of the real task a projected ID was derived from.
func AnchorID(id string) (string, bool) {
	i := strings.LastIndex(id, constants.ProjectedIDMarker)
	if i < 0 {
		return "", false
	}
	return id[:i], true
}

// ProjectedID builds the synthetic ID for anchorID on day.
func ProjectedID(anchorID string, day time.Time) string {
	return anchorID + constants.ProjectedIDMarker + day.Format(constants.DateFormat)
}

func onDay(ts, dayStart, dayEnd time.Time) bool {
	return !ts.Before(dayStart) && !ts.After(dayEnd)
}

// anchors returns the latest-starting member of every recurring series,
// ordered by series key.
func anchors(all []models.Task) []models.Task {
	latest := make(map[string]models.Task)
	for _, t := range all {
		if t.Recurrence == "" || t.Recurrence == models.RecurrenceNone {
			continue
		}
		key := t.SeriesID()
		if cur, ok := latest[key]; !ok || t.StartTime.After(cur.StartTime) {
			latest[key] = t
		}
	}

	keys := make([]string, 0, len(latest))
	for k := range latest {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]models.Task, 0, len(keys))
	for _, k := range keys {
		out = append(out, latest[k])
	}
	return out
}

func project(anchor models.Task, day time.Time) models.Task {
	start := utils.WithTimeOfDay(day, anchor.StartTime)
	end := utils.WithTimeOfDay(day, anchor.EndTime)
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}

	inst := anchor.Clone()
	inst.ID = ProjectedID(anchor.ID, day)
	inst.StartTime = start
	inst.EndTime = end
	inst.Status = models.StatusToDo
	inst.RecurringTemplateID = anchor.SeriesID()
	inst.Checklist = anchor.ResetChecklist()
	inst.DeletedAt = nil
	return inst
}

func materialized(existing []models.Task, inst models.Task) bool {
	for _, t := range existing {
		if t.Title == inst.Title && t.StartTime.Equal(inst.StartTime) {
			return true
		}
	}
	return false
}
