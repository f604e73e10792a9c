package models

import "time"

// Candidate is a task proposal produced by the interpreter. Its fields are
// untrusted until repaired by the resolver.
type Candidate struct {
	Title     string    `json:"title"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

type TimeSlot struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (s TimeSlot) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Overlaps uses half-open interval semantics, so touching slots do not overlap.
func (s TimeSlot) Overlaps(start, end time.Time) bool {
	return s.Start.Before(end) && start.Before(s.End)
}
