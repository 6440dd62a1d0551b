package launcher

import (
	"errors"
	"testing"

	"github.com/chess10kp/skoll/internal/apps"
	"github.com/chess10kp/skoll/internal/config"
	"github.com/chess10kp/skoll/internal/history"
	"github.com/chess10kp/skoll/internal/windows"
)

func niriFocus(w windows.Window) string {
	return windows.NewNiriSource("niri").FocusCommand(w)
}

func newTestController(t *testing.T, appList []apps.App, wins []windows.Window) (*Controller, *recordingSpawner, *history.History) {
	t.Helper()
	hist := history.New()
	cfg := config.Default()
	coll := Build(appList, wins, map[uint64]windows.Workspace{1: {ID: 1, Idx: 1, Name: "web"}}, hist, niriFocus)
	r := newRanker(t, DisplayFirst, hist, 32)
	o, sp := newOrchestrator(t, cfg, hist, nil)
	return NewController(coll, r, o), sp, hist
}

// Scenario D
func TestController_WindowAndAppAreSeparateRows(t *testing.T) {
	c, sp, hist := newTestController(t,
		[]apps.App{newApp("firefox.desktop", "Firefox", "firefox %u")},
		[]windows.Window{{ID: 12, Title: "Firefox", AppID: "firefox", WorkspaceID: 1}})

	c.OnQueryChanged("firefox")
	visible := c.Visible()
	if len(visible) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(visible))
	}
	if !visible[0].Display || visible[1].Display {
		t.Errorf("Expected window row first, got %v", names(visible))
	}
	if visible[0].Workspace != "web" {
		t.Errorf("Expected window to be attributed to workspace web, got %q", visible[0].Workspace)
	}

	if act := c.OnActivate(); !act.Launched || act.Err != nil {
		t.Fatalf("Expected window focus to launch, got %+v", act)
	}
	if sp.calls[0][0] != "niri" {
		t.Errorf("Expected focus command, got %v", sp.calls[0])
	}

	c.OnSelectNext()
	if act := c.OnActivate(); !act.Launched {
		t.Fatalf("Expected app launch, got %+v", act)
	}
	if sp.calls[1][0] != "firefox" {
		t.Errorf("Expected firefox to be spawned, got %v", sp.calls[1])
	}
	if hist.Count("firefox.desktop") != 1 {
		t.Errorf("Expected one recorded launch, got %d", hist.Count("firefox.desktop"))
	}
}

func TestController_Selection(t *testing.T) {
	c, _, _ := newTestController(t, []apps.App{
		newApp("a.desktop", "Alpha", "a"),
		newApp("b.desktop", "Beta", "b"),
		newApp("c.desktop", "Gamma", "g"),
	}, nil)

	if c.Selected().Name != "Alpha" {
		t.Errorf("Expected Alpha selected initially, got %s", c.Selected().Name)
	}

	c.OnSelectPrev()
	if c.SelectedIndex() != 0 {
		t.Errorf("Expected selection clamped at 0, got %d", c.SelectedIndex())
	}

	for i := 0; i < 5; i++ {
		c.OnSelectNext()
	}
	if c.SelectedIndex() != 2 {
		t.Errorf("Expected selection clamped at 2, got %d", c.SelectedIndex())
	}

	c.OnQueryChanged("beta")
	if c.SelectedIndex() != 0 || c.Selected().Name != "Beta" {
		t.Errorf("Expected selection reset to Beta, got %d", c.SelectedIndex())
	}

	c.OnQueryChanged("zzz")
	if c.Selected() != nil {
		t.Error("Expected no selection without visible rows")
	}
	if act := c.OnActivate(); act.Launched || act.Err != nil {
		t.Errorf("Expected nothing to happen, got %+v", act)
	}
}

func TestController_CommandMode(t *testing.T) {
	c, sp, hist := newTestController(t, []apps.App{newApp("ls.desktop", "ls", "ls")}, nil)

	c.OnQueryChanged(":ls -la")
	if !c.CommandMode() {
		t.Fatal("Expected command mode")
	}
	if len(c.Visible()) != 0 {
		t.Errorf("Expected all entries hidden, got %v", names(c.Visible()))
	}

	act := c.OnActivate()
	if !act.Launched || act.Err != nil {
		t.Fatalf("Expected command to launch, got %+v", act)
	}
	if argvString(sp.calls[0]) != argvString([]string{"ls", "-la"}) {
		t.Errorf("Expected ls -la, got %v", sp.calls[0])
	}
	if hist.Len() != 0 {
		t.Error("Expected command mode not to touch history")
	}

	c.OnQueryChanged(`:echo "broken`)
	act = c.OnActivate()
	if act.Launched || !errors.Is(act.Err, ErrParse) {
		t.Errorf("Expected parse failure to keep launcher open, got %+v", act)
	}
}

func TestController_ActivationFailures(t *testing.T) {
	c, sp, _ := newTestController(t, []apps.App{newApp("ghost.desktop", "Ghost", "ghost")}, nil)
	sp.err = errors.New("not found")

	act := c.OnActivate()
	if act.Launched || !errors.Is(act.Err, ErrSpawnFailed) {
		t.Errorf("Expected spawn failure to keep launcher open, got %+v", act)
	}

	sp.err = nil
	c.orch.store = failingStore{}
	act = c.OnActivate()
	if !act.Launched || !errors.Is(act.Err, ErrPersistenceFailed) {
		t.Errorf("Expected persistence failure to still close, got %+v", act)
	}
}

func TestController_HistoryReordersAfterLaunch(t *testing.T) {
	c, _, _ := newTestController(t, []apps.App{
		newApp("a.desktop", "Alpha", "a"),
		newApp("b.desktop", "Beta", "b"),
	}, nil)

	c.OnSelectNext()
	if act := c.OnActivate(); !act.Launched {
		t.Fatalf("Expected launch, got %+v", act)
	}

	c.OnQueryChanged("")
	if c.Visible()[0].Name != "Beta" {
		t.Errorf("Expected Beta first after launch, got %v", names(c.Visible()))
	}
}

func TestController_Replace(t *testing.T) {
	c, _, hist := newTestController(t, []apps.App{
		newApp("a.desktop", "Alpha", "a"),
		newApp("b.desktop", "Beta", "b"),
	}, nil)

	c.OnQueryChanged("a")
	c.OnSelectNext()
	selected := c.Selected().Name

	c.Replace(Build([]apps.App{
		newApp("a.desktop", "Alpha", "a"),
		newApp("b.desktop", "Beta", "b"),
		newApp("c.desktop", "Aardvark", "c"),
	}, nil, nil, hist, nil))

	if c.Query() != "a" {
		t.Errorf("Expected query to survive replace, got %q", c.Query())
	}
	if c.Collection().Len() != 3 {
		t.Errorf("Expected new collection, got %d entries", c.Collection().Len())
	}
	if c.Selected().Name != selected {
		t.Errorf("Expected %s to stay selected, got %s", selected, c.Selected().Name)
	}
	if !c.Collection().Known("c.desktop") {
		t.Error("Expected new application to be known")
	}
}
