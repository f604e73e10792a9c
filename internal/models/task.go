package models

import (
	"fmt"
	"strings"
	"time"
)

type TaskStatus string

const (
	StatusToDo       TaskStatus = "To Do"
	StatusInProgress TaskStatus = "In Progress"
	StatusDone       TaskStatus = "Done"
)

type Recurrence string

const (
	RecurrenceNone  Recurrence = "none"
	RecurrenceDaily Recurrence = "daily"
)

type ChecklistItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type Task struct {
	ID                  string          `json:"id"`
	Title               string          `json:"title"`
	StartTime           time.Time       `json:"start_time"`
	EndTime             time.Time       `json:"end_time"`
	Status              TaskStatus      `json:"status"`
	IsImportant         bool            `json:"is_important"`
	Recurrence          Recurrence      `json:"recurrence"`
	RecurringTemplateID string          `json:"recurring_template_id,omitempty"`
	Checklist           []ChecklistItem `json:"checklist,omitempty"`
	Tags                []string        `json:"tags,omitempty"`
	Notes               string          `json:"notes,omitempty"`
	CreatedAt           time.Time       `json:"created_at"`
	DeletedAt           *time.Time      `json:"deleted_at,omitempty"`
}

// Validate checks the fields every persisted task must satisfy.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if t.StartTime.IsZero() || t.EndTime.IsZero() {
		return fmt.Errorf("start and end time are required")
	}
	if !t.EndTime.After(t.StartTime) {
		return fmt.Errorf("end time %s must be after start time %s",
			t.EndTime.Format(time.RFC3339), t.StartTime.Format(time.RFC3339))
	}
	switch t.Status {
	case StatusToDo, StatusInProgress, StatusDone:
	default:
		return fmt.Errorf("invalid status %q", t.Status)
	}
	switch t.Recurrence {
	case RecurrenceNone, RecurrenceDaily:
	default:
		return fmt.Errorf("invalid recurrence %q", t.Recurrence)
	}
	return nil
}

// SeriesID returns the key shared by every member of a recurring series.
func (t Task) SeriesID() string {
	if t.RecurringTemplateID != "" {
		return t.RecurringTemplateID
	}
	return t.ID
}

func (t Task) Duration() time.Duration {
	return t.EndTime.Sub(t.StartTime)
}

// IsActiveAt reports whether now falls in [StartTime, EndTime).
func (t Task) IsActiveAt(now time.Time) bool {
	return !now.Before(t.StartTime) && now.Before(t.EndTime)
}

func (t Task) IsDone() bool {
	return t.Status == StatusDone
}

// ResetChecklist returns a copy of the checklist with every item incomplete.
// The receiver's slice is never modified.
func (t Task) ResetChecklist() []ChecklistItem {
	if t.Checklist == nil {
		return nil
	}
	items := make([]ChecklistItem, len(t.Checklist))
	for i, item := range t.Checklist {
		item.Completed = false
		items[i] = item
	}
	return items
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	c := t
	if t.Checklist != nil {
		c.Checklist = append([]ChecklistItem(nil), t.Checklist...)
	}
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	if t.DeletedAt != nil {
		d := *t.DeletedAt
		c.DeletedAt = &d
	}
	return c
}
