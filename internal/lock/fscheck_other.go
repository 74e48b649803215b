//go:build !darwin && !linux

package lock

import "errors"

// Without statfs type names the lock falls back to trusting flock.
func detectFilesystemType(string) (string, error) {
	return "", errors.New("filesystem type detection unsupported on this platform")
}
