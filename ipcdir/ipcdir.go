// Package ipcdir locates the directories of a BAS installation relative to
// wherever the bridge binary runs. BAS lays itself out as
// <root>/apps/<version>/helperipc for the IPC files and <root>/logs/log for
// execution logs, and the bridge usually ships inside that tree (next to a
// Worker directory or in the version folder itself).
package ipcdir

import (
	"os"
	"path/filepath"

	"github.com/mkoval/basbridge/errors"
)

// EnvIPCDir names the environment variable that overrides all discovery.
const EnvIPCDir = "BAS_IPC_DIR"

// ExecutableDir returns the directory holding the running binary.
func ExecutableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", errors.Wrapf(err, "resolve executable path")
	}
	return filepath.Dir(exe), nil
}

// FindIPCDir locates the helperipc directory, creating it when the BAS
// version folder exists but BAS has not written there yet. Discovery order:
// the BAS_IPC_DIR environment variable, the BAS tree above startPath, then
// well-known installation roots. As a last resort startPath itself is used,
// so a manually arranged setup still works.
func FindIPCDir(startPath string) string {
	if env := os.Getenv(EnvIPCDir); env != "" {
		return env
	}

	// Inside a BAS tree the version folder is the one whose parent is
	// named "apps"; the binary may sit a few levels below it.
	current := startPath
	for range 5 {
		if filepath.Base(filepath.Dir(current)) == "apps" {
			helperipc := filepath.Join(current, "helperipc")
			os.MkdirAll(helperipc, 0o755)
			return helperipc
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	if dir := searchCommonRoots(); dir != "" {
		return dir
	}
	return startPath
}

func searchCommonRoots() string {
	roots := []string{
		`D:/BAS/BrowserAutomationStudio/apps`,
		`C:/BAS/BrowserAutomationStudio/apps`,
	}
	if home, err := os.UserHomeDir(); err == nil {
		roots = append(roots, filepath.Join(home, "BAS", "BrowserAutomationStudio", "apps"))
	}

	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}
		// Newest version first; version folders start with a digit.
		for i := len(entries) - 1; i >= 0; i-- {
			e := entries[i]
			name := e.Name()
			if !e.IsDir() || name == "" || name[0] < '0' || name[0] > '9' {
				continue
			}
			helperipc := filepath.Join(root, name, "helperipc")
			if info, err := os.Stat(helperipc); err == nil && info.IsDir() {
				return helperipc
			}
		}
	}
	return ""
}

// FindLogsDir locates the logs/log directory of the BAS root above
// startPath. It returns an empty string when no logs directory exists;
// unlike the IPC directory, logs are optional.
func FindLogsDir(startPath string) string {
	current := startPath
	for range 6 {
		logsDir := filepath.Join(current, "logs", "log")
		if info, err := os.Stat(logsDir); err == nil && info.IsDir() {
			return logsDir
		}
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}
	return ""
}
