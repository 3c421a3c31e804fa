package ipcdir

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindIPCDirPrefersEnv(t *testing.T) {
	t.Setenv(EnvIPCDir, "/opt/bas/ipc")
	if got := FindIPCDir(t.TempDir()); got != "/opt/bas/ipc" {
		t.Errorf("env override ignored: %q", got)
	}
}

func TestFindIPCDirWalksUpToVersionFolder(t *testing.T) {
	t.Setenv(EnvIPCDir, "")
	root := t.TempDir()
	workerDir := filepath.Join(root, "apps", "29.6.1", "Worker.31")
	if err := os.MkdirAll(workerDir, 0o755); err != nil {
		t.Fatal(err)
	}

	got := FindIPCDir(workerDir)
	want := filepath.Join(root, "apps", "29.6.1", "helperipc")
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if info, err := os.Stat(got); err != nil || !info.IsDir() {
		t.Error("helperipc directory was not created")
	}
}

func TestFindIPCDirFromVersionFolderItself(t *testing.T) {
	t.Setenv(EnvIPCDir, "")
	root := t.TempDir()
	versionDir := filepath.Join(root, "apps", "30.0.2")
	if err := os.MkdirAll(versionDir, 0o755); err != nil {
		t.Fatal(err)
	}

	got := FindIPCDir(versionDir)
	if got != filepath.Join(versionDir, "helperipc") {
		t.Errorf("got %q", got)
	}
}

func TestFindIPCDirFallsBackToStartPath(t *testing.T) {
	t.Setenv(EnvIPCDir, "")
	dir := t.TempDir()
	if got := FindIPCDir(dir); got != dir {
		t.Errorf("expected fallback to start path, got %q", got)
	}
}

func TestFindLogsDir(t *testing.T) {
	root := t.TempDir()
	logsDir := filepath.Join(root, "logs", "log")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		t.Fatal(err)
	}
	workerDir := filepath.Join(root, "apps", "29.6.1", "Worker.31")
	if err := os.MkdirAll(workerDir, 0o755); err != nil {
		t.Fatal(err)
	}

	if got := FindLogsDir(workerDir); got != logsDir {
		t.Errorf("got %q, want %q", got, logsDir)
	}
}

func TestFindLogsDirAbsent(t *testing.T) {
	if got := FindLogsDir(t.TempDir()); got != "" {
		t.Errorf("expected empty result, got %q", got)
	}
}
