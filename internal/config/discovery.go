package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// FileName is the config file name searched for in standard locations.
const FileName = "themedeploy.yaml"

// Discover finds the config file. Priority order: explicit path, $THEMEDEPLOY_CONFIG,
// <project_root>/app/etc/themedeploy.yaml, ./themedeploy.yaml. It returns "" when no
// file exists, which means defaults apply. An explicit path that does not exist is an error.
func Discover(explicit, projectRoot string) (string, error) {
	if explicit != "" {
		if !fileExists(explicit) {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	if path := os.Getenv("THEMEDEPLOY_CONFIG"); path != "" {
		if !fileExists(path) {
			return "", fmt.Errorf("THEMEDEPLOY_CONFIG points at a missing file: %s", path)
		}
		return path, nil
	}

	if projectRoot == "" {
		projectRoot = os.Getenv("THEMEDEPLOY_PROJECT_ROOT")
	}
	if projectRoot != "" {
		if path := filepath.Join(projectRoot, "app", "etc", FileName); fileExists(path) {
			return path, nil
		}
	}

	if fileExists(FileName) {
		return FileName, nil
	}
	return "", nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
