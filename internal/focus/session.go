package focus

import (
	"time"

	"github.com/julianstephens/flowmind/internal/models"
)

type Phase string

const (
	PhaseFocus      Phase = "focus"
	PhaseShortBreak Phase = "short_break"
	PhaseLongBreak  Phase = "long_break"
	// PhaseEnding holds for a short grace period after a countdown reaches
	// zero, between firing end-of-phase effects and starting the next phase.
	PhaseEnding Phase = "ending"
)

func (p Phase) IsBreak() bool {
	return p == PhaseShortBreak || p == PhaseLongBreak
}

func (p Phase) Label() string {
	switch p {
	case PhaseFocus:
		return "Focus"
	case PhaseShortBreak:
		return "Short break"
	case PhaseLongBreak:
		return "Long break"
	case PhaseEnding:
		return "Wrapping up"
	}
	return string(p)
}

type Visibility string

const (
	VisibilityHidden    Visibility = "hidden"
	VisibilityFull      Visibility = "full"
	VisibilityMinimized Visibility = "minimized"
)

// Session is an immutable snapshot of the active focus session. The engine
// never mutates a Session in place; every transition installs a new value.
type Session struct {
	Task  models.Task
	Queue []models.Task

	Phase Phase
	// EndedPhase is the phase whose countdown just reached zero. Only set
	// while Phase is PhaseEnding.
	EndedPhase  Phase
	EndsAt      time.Time
	EndingUntil time.Time
	// Length is the full duration of the current phase as of its start.
	Length time.Duration

	Paused    bool
	Remaining time.Duration // frozen time left while paused

	Cycles     int
	Sequential bool
	Visibility Visibility
}

// TimeLeft derives the countdown from the fixed end instant. It is never
// negative.
func (s Session) TimeLeft(now time.Time) time.Duration {
	switch {
	case s.Paused:
		return s.Remaining
	case s.Phase == PhaseEnding:
		return 0
	}
	left := s.EndsAt.Sub(now)
	if left < 0 {
		return 0
	}
	return left
}

// Progress returns the elapsed fraction of the current phase in [0, 1].
func (s Session) Progress(now time.Time) float64 {
	if s.Phase == PhaseEnding {
		return 1
	}
	if s.Length <= 0 {
		return 0
	}
	p := 1 - float64(s.TimeLeft(now))/float64(s.Length)
	switch {
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}

// clone copies s deeply enough that no slice is shared with the original.
func (s Session) clone() Session {
	c := s
	c.Task = s.Task.Clone()
	if s.Queue != nil {
		c.Queue = make([]models.Task, len(s.Queue))
		for i, t := range s.Queue {
			c.Queue[i] = t.Clone()
		}
	}
	return c
}
