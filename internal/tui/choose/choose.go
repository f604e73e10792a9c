// Package choose prompts the user to settle a conflicting task candidate.
package choose

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/julianstephens/flowmind/internal/constants"
	"github.com/julianstephens/flowmind/internal/models"
	"github.com/julianstephens/flowmind/internal/resolver"
	"github.com/julianstephens/flowmind/internal/utils"
)

type Action int

const (
	ActionSlot Action = iota
	ActionManual
	ActionAbandon
)

type Choice struct {
	Action Action
	// Slot indexes Outcome.Suggestions when Action is ActionSlot.
	Slot int
}

const (
	manualValue  = "manual"
	abandonValue = "abandon"
)

// FormatSlot renders a slot as e.g. "Mon 10 Mar 13:00-14:00".
func FormatSlot(s models.TimeSlot, loc *time.Location) string {
	start := s.Start.In(loc)
	return fmt.Sprintf("%s %s-%s",
		start.Format("Mon 02 Jan"),
		start.Format(constants.TimeFormat),
		s.End.In(loc).Format(constants.TimeFormat))
}

// Options lists every suggestion followed by the manual and abandon entries.
func Options(o *resolver.Outcome, loc *time.Location) []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(o.Suggestions)+2)
	for i, s := range o.Suggestions {
		opts = append(opts, huh.NewOption(FormatSlot(s, loc), strconv.Itoa(i)))
	}
	return append(opts,
		huh.NewOption("Pick a time myself", manualValue),
		huh.NewOption("Don't add it", abandonValue),
	)
}

func parseChoice(value string, suggestions int) (Choice, error) {
	switch value {
	case manualValue:
		return Choice{Action: ActionManual}, nil
	case abandonValue:
		return Choice{Action: ActionAbandon}, nil
	}
	i, err := strconv.Atoi(value)
	if err != nil || i < 0 || i >= suggestions {
		return Choice{}, fmt.Errorf("invalid choice %q", value)
	}
	return Choice{Action: ActionSlot, Slot: i}, nil
}

// Prompt asks how to settle an outcome awaiting a user choice.
func Prompt(o *resolver.Outcome, loc *time.Location) (Choice, error) {
	var value string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("%q conflicts with your schedule", o.Candidate.Title)).
				Description("Choose a free slot").
				Options(Options(o, loc)...).
				Value(&value),
		),
	)
	if err := form.Run(); err != nil {
		return Choice{}, fmt.Errorf("interactive form error: %w", err)
	}
	return parseChoice(value, len(o.Suggestions))
}

// Manual asks for a date and times for draft, prefilled from its values.
func Manual(draft models.Candidate, loc *time.Location) (time.Time, time.Time, error) {
	date := draft.StartTime.In(loc).Format(constants.DateFormat)
	startStr := draft.StartTime.In(loc).Format(constants.TimeFormat)
	endStr := draft.EndTime.In(loc).Format(constants.TimeFormat)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Date").Value(&date).Validate(func(s string) error {
				_, err := utils.ParseDateInLocation(strings.TrimSpace(s), loc)
				return err
			}),
			huh.NewInput().Title("Start").Value(&startStr).Validate(validateClock),
			huh.NewInput().Title("End").Value(&endStr).Validate(validateClock),
		),
	)
	if err := form.Run(); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("interactive form error: %w", err)
	}
	return ParseManual(date, startStr, endStr, loc)
}

// ParseManual combines date with start and end clock times. An end at or
// before start rolls over to the next day.
func ParseManual(date, startStr, endStr string, loc *time.Location) (time.Time, time.Time, error) {
	start, err := utils.CombineDateAndTime(strings.TrimSpace(date), strings.TrimSpace(startStr), loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := utils.CombineDateAndTime(strings.TrimSpace(date), strings.TrimSpace(endStr), loc)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !end.After(start) {
		end = end.AddDate(0, 0, 1)
	}
	return start, end, nil
}

func validateClock(s string) error {
	_, err := time.Parse(constants.TimeFormat, strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("use HH:MM")
	}
	return nil
}
