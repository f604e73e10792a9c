package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/flowmind/internal/logger"
)

var (
	ErrNotFound          = stderrors.New("not found")
	ErrInvalidTask       = stderrors.New("invalid task")
	ErrProjectedInstance = stderrors.New("projected instances cannot be modified")
	ErrTaskElapsed       = stderrors.New("task has already ended")
	ErrNoEligibleTasks   = stderrors.New("no upcoming tasks to focus on")
	ErrNoAvailability    = stderrors.New("no available time slots found")
	ErrAlreadyResolved   = stderrors.New("conflict has already been resolved")
	ErrNoCandidates      = stderrors.New("no tasks could be interpreted from the input")
)

var hints = map[error]string{
	ErrTaskElapsed:     "pick a task that has not ended yet",
	ErrNoEligibleTasks: "add a task with a future end time first",
	ErrNoAvailability:  "try a shorter duration or schedule it manually",
	ErrNoCandidates:    "try rephrasing with a time, e.g. \"gym tomorrow at 7am\"",
}

// Format formats an error message with a consistent "Error: " prefix.
// Known domain errors get a hint appended.
func Format(err error) string {
	if err == nil {
		return ""
	}
	for sentinel, hint := range hints {
		if stderrors.Is(err, sentinel) {
			return fmt.Sprintf("Error: %v (%s)", err, hint)
		}
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}

// Is and As re-export the standard helpers so callers need a single import.
func Is(err, target error) bool { return stderrors.Is(err, target) }

func As(err error, target any) bool { return stderrors.As(err, target) }
