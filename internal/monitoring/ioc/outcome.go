package ioc

import (
	"errors"
	"io/fs"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
)

// Outcome classifies the result of inspecting one process during a poll.
type Outcome int

const (
	OutcomeSampled Outcome = iota
	// OutcomeGone means the process exited between enumeration and inspection.
	OutcomeGone
	// OutcomeDenied means the OS refused access to the process.
	OutcomeDenied
	// OutcomeFailed is any other per-process error.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSampled:
		return "sampled"
	case OutcomeGone:
		return "gone"
	case OutcomeDenied:
		return "denied"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Classify maps a per-process error to an Outcome. A nil error is OutcomeSampled.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeSampled
	case errors.Is(err, process.ErrorProcessNotRunning),
		errors.Is(err, fs.ErrNotExist),
		errors.Is(err, syscall.ESRCH):
		return OutcomeGone
	case errors.Is(err, fs.ErrPermission):
		return OutcomeDenied
	default:
		return OutcomeFailed
	}
}
