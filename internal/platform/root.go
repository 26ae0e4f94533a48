package platform

import (
	"errors"
	"os"
	"path/filepath"
)

// ConfigFileNames are the file names FindConfig recognizes, in order of
// preference.
var ConfigFileNames = []string{"notepad.yaml", ".notepad.yaml"}

// ErrConfigNotFound is returned by FindConfig when no directory up to the
// filesystem root holds a config file.
var ErrConfigNotFound = errors.New("config file not found")

// FindConfig looks upwards from startDir for a config file and returns its
// absolute path.
func FindConfig(startDir string) (string, error) {
	abs, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	dir := abs
	for {
		for _, name := range ConfigFileNames {
			if isFile(filepath.Join(dir, name)) {
				return filepath.Join(dir, name), nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return "", ErrConfigNotFound
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
