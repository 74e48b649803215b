package backend

import (
	"errors"
	"os"
	"os/exec"
	"path/filepath"
)

// ErrNotFound reports that no accelerated binary could be located.
var ErrNotFound = errors.New("accelerated deploy binary not found")

// Locator finds the accelerated binary.
type Locator struct {
	ProjectRoot string
	Names       []string
	// LookPath searches the executable search path; exec.LookPath when nil.
	LookPath func(file string) (string, error)
}

// Locate returns the first executable among: configured, each name inside the
// project root, each name on the search path. ok is false when none is found.
func (l Locator) Locate(configured string) (string, bool) {
	if configured != "" && isExecutable(configured) {
		return configured, true
	}

	names := l.Names
	if len(names) == 0 {
		names = DefaultBinaryNames
	}

	if l.ProjectRoot != "" {
		for _, name := range names {
			p := filepath.Join(l.ProjectRoot, name)
			if isExecutable(p) {
				return p, true
			}
		}
	}

	lookPath := l.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	for _, name := range names {
		p, err := lookPath(name)
		if err == nil && p != "" && isExecutable(p) {
			return p, true
		}
	}
	return "", false
}

// Find is Locate with an error result.
func (l Locator) Find(configured string) (string, error) {
	if p, ok := l.Locate(configured); ok {
		return p, nil
	}
	return "", ErrNotFound
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
