package windows

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"

	"github.com/joshuarubin/go-sway"
)

// swayNode is the subset of the sway layout tree we read.
type swayNode struct {
	ID               int64         `json:"id"`
	Name             string        `json:"name"`
	Type             string        `json:"type"`
	Num              *int64        `json:"num"`
	Output           string        `json:"output"`
	Focused          bool          `json:"focused"`
	AppID            *string       `json:"app_id"`
	Window           *int64        `json:"window"`
	WindowProperties *swayWinProps `json:"window_properties"`
	Nodes            []swayNode    `json:"nodes"`
	FloatingNodes    []swayNode    `json:"floating_nodes"`
}

type swayWinProps struct {
	Class string `json:"class"`
}

// SwaySource reads windows over the sway IPC socket.
type SwaySource struct{}

func NewSwaySource() *SwaySource {
	return &SwaySource{}
}

func (s *SwaySource) Name() string { return "sway" }

func (s *SwaySource) Windows(ctx context.Context) ([]Window, map[uint64]Workspace, error) {
	client, err := sway.New(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: sway: %v", ErrSourceUnavailable, err)
	}

	tree, err := client.GetTree(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: sway tree: %v", ErrSourceUnavailable, err)
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: sway tree: %v", ErrSourceUnavailable, err)
	}

	swayWorkspaces, err := client.GetWorkspaces(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: sway workspaces: %v", ErrSourceUnavailable, err)
	}
	focused := make(map[string]bool, len(swayWorkspaces))
	visible := make(map[string]bool, len(swayWorkspaces))
	for _, ws := range swayWorkspaces {
		focused[ws.Name] = ws.Focused
		visible[ws.Name] = ws.Visible
	}

	windows, workspaces, err := DecodeSwayTree(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	for id, ws := range workspaces {
		ws.Focused = focused[ws.Name]
		ws.Active = visible[ws.Name]
		workspaces[id] = ws
	}

	log.Printf("[WINDOWS] sway reported %d windows on %d workspaces", len(windows), len(workspaces))
	return windows, workspaces, nil
}

func (s *SwaySource) FocusCommand(w Window) string {
	return "swaymsg [con_id=" + strconv.FormatUint(w.ID, 10) + "] focus"
}

// DecodeSwayTree walks a sway get_tree document and returns its
// application windows and workspaces. Workspaces are keyed by con id.
func DecodeSwayTree(data []byte) ([]Window, map[uint64]Workspace, error) {
	var root swayNode
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, nil, fmt.Errorf("failed to decode sway tree: %w", err)
	}

	var windows []Window
	workspaces := make(map[uint64]Workspace)

	var walk func(n *swayNode, output string, ws uint64)
	walk = func(n *swayNode, output string, ws uint64) {
		switch n.Type {
		case "output":
			output = n.Name
		case "workspace":
			if n.Name == "__i3_scratch" {
				return
			}
			ws = uint64(n.ID)
			w := Workspace{ID: ws, Name: n.Name, Output: output}
			if n.Num != nil && *n.Num > 0 {
				w.Idx = uint32(*n.Num)
			}
			workspaces[ws] = w
		case "con", "floating_con":
			if n.AppID != nil || n.Window != nil {
				w := Window{
					ID:          uint64(n.ID),
					Title:       n.Name,
					WorkspaceID: ws,
					Focused:     n.Focused,
				}
				if n.AppID != nil {
					w.AppID = *n.AppID
				} else if n.WindowProperties != nil {
					w.AppID = n.WindowProperties.Class
				}
				windows = append(windows, w)
				if n.Focused {
					if cur, ok := workspaces[ws]; ok {
						id := w.ID
						cur.ActiveWindowID = &id
						workspaces[ws] = cur
					}
				}
			}
		}
		for i := range n.Nodes {
			walk(&n.Nodes[i], output, ws)
		}
		for i := range n.FloatingNodes {
			walk(&n.FloatingNodes[i], output, ws)
		}
	}
	walk(&root, "", 0)

	return windows, workspaces, nil
}
