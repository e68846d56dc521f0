package ioc

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
	"testing"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil", nil, OutcomeSampled},
		{"not running", process.ErrorProcessNotRunning, OutcomeGone},
		{"wrapped not running", fmt.Errorf("read cpu: %w", process.ErrorProcessNotRunning), OutcomeGone},
		{"proc entry vanished", &fs.PathError{Op: "open", Path: "/proc/1/stat", Err: syscall.ENOENT}, OutcomeGone},
		{"no such process", syscall.ESRCH, OutcomeGone},
		{"permission", &fs.PathError{Op: "open", Path: "/proc/1/exe", Err: syscall.EACCES}, OutcomeDenied},
		{"os permission", fmt.Errorf("read name: %w", os.ErrPermission), OutcomeDenied},
		{"other", errors.New("parse failure"), OutcomeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "sampled", OutcomeSampled.String())
	assert.Equal(t, "gone", OutcomeGone.String())
	assert.Equal(t, "denied", OutcomeDenied.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}
