// Package ioc aggregates CPU and memory usage of IOC worker processes.
package ioc

import "strings"

const (
	DefaultInterpreter = "python"
	DefaultTarget      = "master_ioc.py"
	DefaultExclude     = "ioc_health"
)

// Matcher decides whether a process belongs to the IOC aggregate.
//
// All comparisons are substring matches. Only the interpreter name is compared
// case-insensitively. An empty Exclude disables the exclusion rule.
type Matcher struct {
	Interpreter string
	Target      string
	Exclude     string
}

// DefaultMatcher matches python processes running master_ioc.py, excluding the
// health monitor.
func DefaultMatcher() Matcher {
	return Matcher{
		Interpreter: DefaultInterpreter,
		Target:      DefaultTarget,
		Exclude:     DefaultExclude,
	}
}

// Matches reports whether the process identified by name and cmdline is an IOC.
func (m Matcher) Matches(name string, cmdline []string) bool {
	return m.MatchesName(name) && m.MatchesArgs(cmdline)
}

// MatchesName applies the interpreter rule alone. A process that fails it
// can never match, so its command line need not be read.
func (m Matcher) MatchesName(name string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(m.Interpreter))
}

// MatchesArgs applies the target and exclusion rules.
func (m Matcher) MatchesArgs(cmdline []string) bool {
	if !anyContains(cmdline, m.Target) {
		return false
	}
	if m.Exclude != "" && anyContains(cmdline, m.Exclude) {
		return false
	}
	return true
}

func anyContains(args []string, substr string) bool {
	for _, arg := range args {
		if strings.Contains(arg, substr) {
			return true
		}
	}
	return false
}
