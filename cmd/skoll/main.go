// skoll is a keyboard-driven application launcher. It ranks installed
// applications and running windows against a fuzzy query and launches
// or focuses the selected one.
//
// With a terminal on stdout it runs an interactive picker; otherwise,
// or with --list, it prints the ranked entries for --query and exits.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/chess10kp/skoll/internal/apps"
	"github.com/chess10kp/skoll/internal/config"
	"github.com/chess10kp/skoll/internal/history"
	"github.com/chess10kp/skoll/internal/launcher"
	"github.com/chess10kp/skoll/internal/ui"
	"github.com/chess10kp/skoll/internal/windows"
)

const (
	windowsTimeout = 2 * time.Second
	watchDebounce  = 500 * time.Millisecond

	instanceStopTimeout = 2 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var listMode bool
	var query string

	flagSet := pflag.NewFlagSet("skoll", pflag.ContinueOnError)
	flagSet.StringVarP(&configPath, "config", "c", "", "config file (default $SKOLL_CONFIG or "+config.Default().ConfigPath()+")")
	flagSet.BoolVarP(&listMode, "list", "l", false, "print ranked entries instead of starting the picker")
	flagSet.StringVarP(&query, "query", "q", "", "query used with --list")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		listMode = true
	}

	closeLog := setupLogging(cfg)
	defer closeLog()

	if !listMode {
		pidFile := cfg.RuntimePath(".pid")
		if err := ensureSingleInstance(pidFile); err != nil {
			return fmt.Errorf("failed to ensure single instance: %w", err)
		}
		defer releaseInstance(pidFile)
	}

	store, err := history.Open(cfg.History.Backend, cfg.History.Path)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer store.Close()

	loader := apps.NewAppLoader(cfg)
	appList, err := loader.LoadApps(false)
	if err != nil {
		log.Printf("[MAIN] Failed to load apps: %v", err)
	}

	hist, err := history.LoadAndPrune(store, cfg.History.Prune, loader.Has)
	if err != nil {
		log.Printf("[MAIN] Failed to load history, starting empty: %v", err)
		hist = history.New()
	}

	source, err := windows.Detect(cfg.Windows)
	if err != nil {
		return err
	}
	wins, workspaces := queryWindows(source)

	coll := launcher.Build(appList, wins, workspaces, hist, source.FocusCommand)

	ctrl, err := newController(cfg, coll, hist, store)
	if err != nil {
		return err
	}

	if listMode {
		ctrl.OnQueryChanged(query)
		return printEntries(os.Stdout, ctrl.Visible(), cfg.Launcher.Search.MaxResults)
	}

	program := tea.NewProgram(ui.New(ctrl, cfg), tea.WithAltScreen())

	if cfg.Launcher.Behavior.WatchApps {
		watcher, err := apps.Watch(loader.Dirs(), watchDebounce, func() {
			appList, err := loader.LoadApps(true)
			if err != nil {
				log.Printf("[MAIN] Failed to reload apps: %v", err)
				return
			}
			wins, workspaces := queryWindows(source)
			// history is applied by the ranker when the collection is swapped in
			program.Send(ui.ReloadMsg{Collection: launcher.Build(appList, wins, workspaces, nil, source.FocusCommand)})
		})
		if err != nil {
			log.Printf("[MAIN] Failed to watch application dirs: %v", err)
		} else {
			defer watcher.Close()
		}
	}

	_, err = program.Run()
	return err
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		bootstrap := config.Default()
		if err := bootstrap.LoadEnv(); err != nil {
			return nil, err
		}
		path = bootstrap.Env.ConfigFile
		if path == "" {
			path = bootstrap.ConfigPath()
		}
	}
	return config.LoadAndValidateConfig(path)
}

func newController(cfg *config.Config, coll *launcher.Collection, hist *history.History, store history.Store) (*launcher.Controller, error) {
	matcher, err := launcher.NewMatcher(cfg.Launcher.Search.Matcher)
	if err != nil {
		return nil, err
	}
	priority, err := launcher.ParseDisplayPriority(cfg.Launcher.DisplayPriority)
	if err != nil {
		return nil, err
	}

	cacheSize := 0
	if cfg.Launcher.Performance.EnableCache {
		cacheSize = cfg.Launcher.Performance.SearchCacheSize
	}
	ranker, err := launcher.NewRanker(matcher, cfg.Launcher.CommandPrefix, priority, hist, cacheSize)
	if err != nil {
		return nil, err
	}

	orch := launcher.NewOrchestrator(cfg, hist, store)
	return launcher.NewController(coll, ranker, orch), nil
}

// queryWindows lists windows, degrading to none when the compositor
// cannot be reached.
func queryWindows(source windows.Source) ([]windows.Window, map[uint64]windows.Workspace) {
	ctx, cancel := context.WithTimeout(context.Background(), windowsTimeout)
	defer cancel()

	wins, workspaces, err := source.Windows(ctx)
	if err != nil {
		log.Printf("[MAIN] Window source %s failed, continuing without windows: %v", source.Name(), err)
		return nil, map[uint64]windows.Workspace{}
	}
	return wins, workspaces
}

func printEntries(w io.Writer, entries []*launcher.Entry, limit int) error {
	for i, e := range entries {
		if i >= limit {
			break
		}
		kind, target := "app", e.StableID()
		if e.Display {
			kind, target = "window", e.CustomCommand
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s\n", kind, e.Name, target); err != nil {
			return err
		}
	}
	return nil
}

func setupLogging(cfg *config.Config) func() {
	path := cfg.Env.LogFile
	if path == "" {
		path = cfg.RuntimePath(".log")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		log.SetOutput(io.Discard)
		return func() {}
	}

	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.SetOutput(io.Discard)
		return func() {}
	}
	log.SetOutput(logFile)
	return func() { logFile.Close() }
}

// ensureSingleInstance stops a running launcher and records our pid, so
// pressing the launcher key again replaces the open picker. The previous
// instance is waited for so its cleanup cannot remove our pid file.
func ensureSingleInstance(pidFile string) error {
	if pid, ok := readPid(pidFile); ok && pid != os.Getpid() && unix.Kill(pid, 0) == nil {
		log.Printf("[MAIN] Stopping previous instance %d", pid)
		unix.Kill(pid, unix.SIGTERM)
		if !waitExit(pid, instanceStopTimeout) {
			log.Printf("[MAIN] Previous instance %d ignored SIGTERM, killing", pid)
			unix.Kill(pid, unix.SIGKILL)
			waitExit(pid, instanceStopTimeout)
		}
	}

	if err := os.MkdirAll(filepath.Dir(pidFile), 0755); err != nil {
		return err
	}
	return os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0644)
}

// releaseInstance removes the pid file unless another instance has
// already taken it over.
func releaseInstance(pidFile string) {
	if pid, ok := readPid(pidFile); ok && pid == os.Getpid() {
		os.Remove(pidFile)
	}
}

func readPid(pidFile string) (int, bool) {
	data, err := os.ReadFile(pidFile)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

func waitExit(pid int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if unix.Kill(pid, 0) != nil {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return unix.Kill(pid, 0) != nil
}
