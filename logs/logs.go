// Package logs reads BAS execution log files. BAS names them by timestamp
// (2026.01.11.04.20.11.txt), so lexical order is chronological order.
package logs

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/mkoval/basbridge/errors"
)

// DefaultPattern matches the log files BAS itself writes.
const DefaultPattern = "*.txt"

// LogFile describes one log file without its content.
type LogFile struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// LogContent is a log file with its (possibly tail-trimmed) content.
type LogContent struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Lines   int    `json:"lines_count"`
	Content string `json:"content"`
}

// List returns log files matching the glob pattern, newest first. An empty
// pattern means DefaultPattern; limit <= 0 means no limit.
func List(dir, pattern string, limit int) ([]LogFile, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "read logs directory %s", dir)
	}

	var files []LogFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ok, err := doublestar.Match(pattern, e.Name())
		if err != nil {
			return nil, errors.Wrapf(err, "bad log pattern %q", pattern)
		}
		if !ok {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, LogFile{
			Name:     e.Name(),
			Path:     filepath.Join(dir, e.Name()),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name > files[j].Name })
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

// Read returns a log file's content. An empty name selects the newest log;
// tailLines > 0 trims to the last N lines.
func Read(dir, name string, tailLines int) (*LogContent, error) {
	if name == "" {
		files, err := List(dir, DefaultPattern, 1)
		if err != nil {
			return nil, err
		}
		if len(files) == 0 {
			return nil, errors.New("no log files in %s", dir)
		}
		name = files[0].Name
	}

	path := filepath.Join(dir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read log %s", name)
	}

	content := string(raw)
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	if tailLines > 0 && len(lines) > tailLines {
		lines = lines[len(lines)-tailLines:]
		content = strings.Join(lines, "\n")
	}
	return &LogContent{
		Name:    name,
		Path:    path,
		Lines:   len(lines),
		Content: content,
	}, nil
}
