package lock

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidateLocalFilesystemWithDetector_AllowsLocalFS(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "deploy.lock")
	err := validateLocalFilesystemWithDetector(lockPath, func(path string) (string, error) {
		return "apfs", nil
	})
	if err != nil {
		t.Fatalf("expected local filesystem to pass, got: %v", err)
	}
}

func TestValidateLocalFilesystemWithDetector_RejectsNetworkFS(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "deploy.lock")
	err := validateLocalFilesystemWithDetector(lockPath, func(path string) (string, error) {
		return "smbfs", nil
	})
	if err == nil {
		t.Fatal("expected network filesystem validation error")
	}

	msg := err.Error()
	for _, want := range []string{"smbfs", "requires a local filesystem", "lock.path"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected error to contain %q, got %q", want, msg)
		}
	}
	if strings.Contains(msg, "--lock") {
		t.Fatalf("error should only point at config keys that exist, got %q", msg)
	}
}

func TestValidateLocalFilesystemWithDetector_UsesNearestExistingPath(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	lockPath := filepath.Join(root, "nested", "dir", "deploy.lock")

	var inspectedPath string
	err := validateLocalFilesystemWithDetector(lockPath, func(path string) (string, error) {
		inspectedPath = path
		return "apfs", nil
	})
	if err != nil {
		t.Fatalf("expected local filesystem to pass, got: %v", err)
	}

	if inspectedPath != root {
		t.Fatalf("expected detector to inspect nearest existing path %q, got %q", root, inspectedPath)
	}
}

func TestValidateLocalFilesystemWithDetector_IgnoresDetectorFailure(t *testing.T) {
	t.Parallel()

	lockPath := filepath.Join(t.TempDir(), "deploy.lock")
	err := validateLocalFilesystemWithDetector(lockPath, func(path string) (string, error) {
		return "", errors.New("unsupported")
	})
	if err != nil {
		t.Fatalf("expected detector failure to be tolerated, got: %v", err)
	}
}

func TestIsNetworkFilesystem(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		fs   string
		want bool
	}{
		{name: "nfs", fs: "nfs", want: true},
		{name: "smbfs uppercase", fs: "SMBFS", want: true},
		{name: "local apfs", fs: "apfs", want: false},
		{name: "hex linux magic", fs: "0x6969", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := isNetworkFilesystem(tc.fs)
			if got != tc.want {
				t.Fatalf("isNetworkFilesystem(%q)=%v, want %v", tc.fs, got, tc.want)
			}
		})
	}
}
