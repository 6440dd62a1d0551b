package windows

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
)

type niriWindow struct {
	ID          uint64  `json:"id"`
	Title       *string `json:"title"`
	AppID       *string `json:"app_id"`
	WorkspaceID *uint64 `json:"workspace_id"`
	IsFocused   bool    `json:"is_focused"`
}

type niriWorkspace struct {
	ID             uint64  `json:"id"`
	Idx            uint32  `json:"idx"`
	Name           *string `json:"name"`
	Output         *string `json:"output"`
	IsActive       bool    `json:"is_active"`
	IsFocused      bool    `json:"is_focused"`
	ActiveWindowID *uint64 `json:"active_window_id"`
}

// NiriSource reads windows through `niri msg -j`.
type NiriSource struct {
	command string
	run     runFunc
}

func NewNiriSource(command string) *NiriSource {
	if command == "" {
		command = "niri"
	}
	return &NiriSource{command: command, run: runCommand}
}

func (s *NiriSource) Name() string { return "niri" }

func (s *NiriSource) Windows(ctx context.Context) ([]Window, map[uint64]Workspace, error) {
	out, err := s.run(ctx, s.command, "msg", "-j", "windows")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: niri windows: %v", ErrSourceUnavailable, err)
	}
	windows, err := DecodeNiriWindows(out)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	out, err = s.run(ctx, s.command, "msg", "-j", "workspaces")
	if err != nil {
		return nil, nil, fmt.Errorf("%w: niri workspaces: %v", ErrSourceUnavailable, err)
	}
	workspaces, err := DecodeNiriWorkspaces(out)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	log.Printf("[WINDOWS] niri reported %d windows on %d workspaces", len(windows), len(workspaces))
	return windows, workspaces, nil
}

func (s *NiriSource) FocusCommand(w Window) string {
	return s.command + " msg action focus-window --id " + strconv.FormatUint(w.ID, 10)
}

// DecodeNiriWindows decodes the output of `niri msg -j windows`.
func DecodeNiriWindows(data []byte) ([]Window, error) {
	var raw []niriWindow
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode niri windows: %w", err)
	}

	windows := make([]Window, 0, len(raw))
	for _, r := range raw {
		w := Window{ID: r.ID, Focused: r.IsFocused}
		if r.Title != nil {
			w.Title = *r.Title
		}
		if r.AppID != nil {
			w.AppID = *r.AppID
		}
		if r.WorkspaceID != nil {
			w.WorkspaceID = *r.WorkspaceID
		}
		windows = append(windows, w)
	}
	return windows, nil
}

// DecodeNiriWorkspaces decodes the output of `niri msg -j workspaces`
// into a map keyed by workspace id.
func DecodeNiriWorkspaces(data []byte) (map[uint64]Workspace, error) {
	var raw []niriWorkspace
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode niri workspaces: %w", err)
	}

	workspaces := make(map[uint64]Workspace, len(raw))
	for _, r := range raw {
		ws := Workspace{
			ID:             r.ID,
			Idx:            r.Idx,
			Active:         r.IsActive,
			Focused:        r.IsFocused,
			ActiveWindowID: r.ActiveWindowID,
		}
		if r.Name != nil {
			ws.Name = *r.Name
		}
		if r.Output != nil {
			ws.Output = *r.Output
		}
		workspaces[r.ID] = ws
	}
	return workspaces, nil
}
