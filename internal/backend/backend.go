// Package backend builds and runs static-content deploy invocations.
//
// Two interchangeable backends produce the same deployment outcome:
//
//   - Accelerated runs an external static-deploy binary. Fast-path groups get an extra
//     flag that skips the redundant full-framework dispatch.
//   - Native runs the framework's own setup:static-content:deploy command.
//
// A Runner executes the resulting Command with a wall-clock timeout.
package backend

import (
	"strings"
)

// Invocation is everything one deploy call needs, independent of backend.
type Invocation struct {
	Area    string
	Themes  []string
	Locales []string
	// Jobs is the worker-count hint.
	Jobs  int
	Force bool
	// FastPath selects the accelerated fast-path mode. Native ignores it.
	FastPath bool
	// Strategy is the native deploy strategy, e.g. "quick". Accelerated ignores it.
	Strategy string
}

// Command is a fully built process invocation.
type Command struct {
	Path string   `json:"path"`
	Args []string `json:"args"`
	Dir  string   `json:"dir"`
}

// String renders the command line for narration.
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Path)
	for _, a := range c.Args {
		if a == "" || strings.ContainsAny(a, " \t\"'") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, " ")
}

// Backend turns an Invocation into a Command.
type Backend interface {
	Name() string
	Command(inv Invocation) Command
}
