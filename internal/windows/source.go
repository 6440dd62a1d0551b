// Package windows queries the running compositor for open windows and
// the workspaces they live on.
package windows

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/chess10kp/skoll/internal/config"
)

// ErrSourceUnavailable is returned when the compositor cannot be queried.
var ErrSourceUnavailable = errors.New("window source unavailable")

type Window struct {
	ID          uint64
	Title       string
	AppID       string
	WorkspaceID uint64
	Focused     bool
}

type Workspace struct {
	ID             uint64
	Idx            uint32
	Name           string
	Output         string
	Active         bool
	Focused        bool
	ActiveWindowID *uint64
}

// Label is the name shown for the workspace: its name, else its index.
func (w Workspace) Label() string {
	if w.Name != "" {
		return w.Name
	}
	return strconv.FormatUint(uint64(w.Idx), 10)
}

// Source lists windows and builds the command that focuses one.
type Source interface {
	Name() string
	Windows(ctx context.Context) ([]Window, map[uint64]Workspace, error)
	FocusCommand(w Window) string
}

// runFunc runs an external command and returns its stdout.
type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// None is the source used when window listing is disabled.
type None struct{}

func (None) Name() string { return "none" }

func (None) Windows(context.Context) ([]Window, map[uint64]Workspace, error) {
	return nil, map[uint64]Workspace{}, nil
}

func (None) FocusCommand(Window) string { return "" }

// Detect picks the source named by cfg.Source; "auto" looks at the
// compositor environment variables.
func Detect(cfg config.WindowsConfig) (Source, error) {
	switch cfg.Source {
	case "niri":
		return NewNiriSource(cfg.NiriCommand), nil
	case "sway":
		return NewSwaySource(), nil
	case "none":
		return None{}, nil
	case "auto", "":
		switch {
		case os.Getenv("NIRI_SOCKET") != "":
			return NewNiriSource(cfg.NiriCommand), nil
		case os.Getenv("SWAYSOCK") != "":
			return NewSwaySource(), nil
		}
		desktop := strings.ToLower(os.Getenv("XDG_CURRENT_DESKTOP"))
		switch {
		case strings.Contains(desktop, "niri"):
			return NewNiriSource(cfg.NiriCommand), nil
		case strings.Contains(desktop, "sway"):
			return NewSwaySource(), nil
		}
		log.Printf("[WINDOWS] No supported compositor detected")
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown window source %q", cfg.Source)
	}
}
