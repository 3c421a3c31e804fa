package logs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeLogs(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"2026.01.10.09.00.00.txt": "old run\n",
		"2026.01.11.04.20.11.txt": "line1\nline2\nline3\nline4\n",
		"2026.01.12.18.05.42.txt": "latest run\nsecond line\n",
		"notes.md":                "not a log\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestListNewestFirst(t *testing.T) {
	dir := writeLogs(t)

	files, err := List(dir, "", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 3 {
		t.Fatalf("expected 3 log files, got %d", len(files))
	}
	if files[0].Name != "2026.01.12.18.05.42.txt" {
		t.Errorf("newest not first: %s", files[0].Name)
	}
	if files[2].Name != "2026.01.10.09.00.00.txt" {
		t.Errorf("oldest not last: %s", files[2].Name)
	}
}

func TestListHonorsLimitAndPattern(t *testing.T) {
	dir := writeLogs(t)

	files, err := List(dir, "2026.01.1[01]*.txt", 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 1 || files[0].Name != "2026.01.11.04.20.11.txt" {
		t.Errorf("unexpected result: %+v", files)
	}
}

func TestReadLatestByDefault(t *testing.T) {
	dir := writeLogs(t)

	content, err := Read(dir, "", 0)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if content.Name != "2026.01.12.18.05.42.txt" {
		t.Errorf("did not pick the newest log: %s", content.Name)
	}
	if content.Lines != 2 {
		t.Errorf("line count: got %d", content.Lines)
	}
}

func TestReadTail(t *testing.T) {
	dir := writeLogs(t)

	content, err := Read(dir, "2026.01.11.04.20.11.txt", 2)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if content.Content != "line3\nline4" {
		t.Errorf("tail content: %q", content.Content)
	}
	if content.Lines != 2 {
		t.Errorf("tail line count: %d", content.Lines)
	}
}

func TestReadMissingFile(t *testing.T) {
	dir := writeLogs(t)
	if _, err := Read(dir, "2020.01.01.00.00.00.txt", 0); err == nil {
		t.Error("expected an error for a missing log")
	}
}
