//go:build linux

package lock

import "testing"

func TestDetectFilesystemTypeTempDir(t *testing.T) {
	t.Parallel()

	fsType, err := detectFilesystemType(t.TempDir())
	if err != nil {
		t.Fatalf("detectFilesystemType: %v", err)
	}
	if fsType == "" {
		t.Fatal("expected a filesystem type")
	}
}

func TestRemoteMagicNamesAreNetworkFilesystems(t *testing.T) {
	t.Parallel()

	for magic, name := range remoteMagic {
		if !isNetworkFilesystem(name) {
			t.Fatalf("magic 0x%x maps to %q which is not treated as a network filesystem", magic, name)
		}
	}
}
