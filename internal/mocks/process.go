package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/theblitlabs/ioc-monitor/internal/core/ports"
)

type MockProcessSource struct {
	mock.Mock
}

func (m *MockProcessSource) Processes(ctx context.Context) ([]ports.ProcessEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ports.ProcessEntry), args.Error(1)
}

func (m *MockProcessSource) Open(ctx context.Context, pid int32) (ports.ProcessHandle, error) {
	args := m.Called(ctx, pid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(ports.ProcessHandle), args.Error(1)
}

type MockProcessHandle struct {
	mock.Mock
	Pid int32
}

func (m *MockProcessHandle) PID() int32 {
	return m.Pid
}

func (m *MockProcessHandle) CPUPercent(ctx context.Context) (float64, error) {
	args := m.Called(ctx)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockProcessHandle) RSS(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

// StaticEntry is a process table row with fixed values.
type StaticEntry struct {
	Pid      int32
	Exe      string
	Args     []string
	Created  int64
	NameErr  error
	ArgsErr  error
	TimesErr error
}

func (e StaticEntry) PID() int32 {
	return e.Pid
}

func (e StaticEntry) Name(ctx context.Context) (string, error) {
	return e.Exe, e.NameErr
}

func (e StaticEntry) Cmdline(ctx context.Context) ([]string, error) {
	return e.Args, e.ArgsErr
}

func (e StaticEntry) CreateTime(ctx context.Context) (int64, error) {
	return e.Created, e.TimesErr
}

var (
	_ ports.ProcessSource = (*MockProcessSource)(nil)
	_ ports.ProcessHandle = (*MockProcessHandle)(nil)
	_ ports.ProcessEntry  = StaticEntry{}
)
