package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/chess10kp/skoll/internal/apps"
	"github.com/chess10kp/skoll/internal/launcher"
)

func TestPrintEntries(t *testing.T) {
	app := apps.App{ID: "firefox.desktop", Name: "Firefox"}
	entries := []*launcher.Entry{
		{Name: "Mozilla Firefox", Display: true, CustomCommand: "niri msg action focus-window --id 3"},
		{Name: "Firefox", App: &app},
		{Name: "Files", App: &apps.App{ID: "files.desktop"}},
	}

	var buf bytes.Buffer
	if err := printEntries(&buf, entries, 2); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := "window\tMozilla Firefox\tniri msg action focus-window --id 3\napp\tFirefox\tfirefox.desktop\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}

func TestLoadConfig_FromEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[launcher]\ncommand_prefix = \"!\"\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv("SKOLL_CONFIG", path)
	t.Setenv("SKOLL_COMMAND_PREFIX", "")

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Launcher.CommandPrefix != "!" {
		t.Errorf("Expected prefix from $SKOLL_CONFIG file, got %q", cfg.Launcher.CommandPrefix)
	}
}

func TestEnsureSingleInstance(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "run", "skoll.pid")

	// a pid that is not running
	if err := os.MkdirAll(filepath.Dir(pidFile), 0755); err != nil {
		t.Fatal(err)
	}
	os.WriteFile(pidFile, []byte("999999999"), 0644)

	if err := ensureSingleInstance(pidFile); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	data, err := os.ReadFile(pidFile)
	if err != nil {
		t.Fatalf("Expected pid file: %v", err)
	}
	if string(data) != strconv.Itoa(os.Getpid()) {
		t.Errorf("Expected our pid in pid file, got %s", data)
	}
}

func TestEnsureSingleInstance_WaitsForPrevious(t *testing.T) {
	previous := exec.Command("sleep", "30")
	if err := previous.Start(); err != nil {
		t.Skipf("sleep not available: %v", err)
	}
	exited := make(chan struct{})
	go func() {
		previous.Wait()
		close(exited)
	}()

	pidFile := filepath.Join(t.TempDir(), "skoll.pid")
	os.WriteFile(pidFile, []byte(strconv.Itoa(previous.Process.Pid)), 0644)

	if err := ensureSingleInstance(pidFile); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	select {
	case <-exited:
	case <-time.After(time.Second):
		previous.Process.Kill()
		t.Fatal("Expected previous instance to have exited before we took over")
	}

	if pid, ok := readPid(pidFile); !ok || pid != os.Getpid() {
		t.Errorf("Expected our pid in pid file, got %d", pid)
	}
}

func TestReleaseInstance_LeavesNewOwnerAlone(t *testing.T) {
	pidFile := filepath.Join(t.TempDir(), "skoll.pid")

	// a newer instance took over while we were shutting down
	os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid()+1)), 0644)
	releaseInstance(pidFile)
	if _, err := os.Stat(pidFile); err != nil {
		t.Errorf("Expected the newer instance's pid file to remain: %v", err)
	}

	os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0644)
	releaseInstance(pidFile)
	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Errorf("Expected our pid file to be removed, got %v", err)
	}
}
