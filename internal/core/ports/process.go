package ports

import "context"

// ProcessSource enumerates OS processes and opens persistent measurement handles.
type ProcessSource interface {
	// Processes returns a snapshot of the live process table. Entries may become
	// invalid before they are inspected.
	Processes(ctx context.Context) ([]ProcessEntry, error)

	// Open binds a new measurement handle to pid.
	Open(ctx context.Context, pid int32) (ProcessHandle, error)
}

// ProcessEntry is one row of a process table snapshot.
type ProcessEntry interface {
	PID() int32
	Name(ctx context.Context) (string, error)
	Cmdline(ctx context.Context) ([]string, error)
	// CreateTime is the process start time in milliseconds since the epoch.
	CreateTime(ctx context.Context) (int64, error)
}

// ProcessHandle measures a single process across polls.
type ProcessHandle interface {
	PID() int32
	// CPUPercent returns CPU usage since the previous call on this handle, as a
	// percentage of one core. The first call returns 0.
	CPUPercent(ctx context.Context) (float64, error)
	// RSS returns resident memory in bytes.
	RSS(ctx context.Context) (uint64, error)
}
