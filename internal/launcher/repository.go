package launcher

import (
	"log"
	"strings"

	"github.com/chess10kp/skoll/internal/apps"
	"github.com/chess10kp/skoll/internal/history"
	"github.com/chess10kp/skoll/internal/windows"
)

// Collection owns every entry of one launcher session.
type Collection struct {
	entries []*Entry
	known   map[string]bool
}

// Build merges applications and running windows into one collection.
// Window entries are added next to application entries, never instead
// of them. focus builds the command that focuses a window; a window it
// returns "" for is skipped. History seeds the initial order keys.
func Build(appList []apps.App, wins []windows.Window, workspaces map[uint64]windows.Workspace,
	hist *history.History, focus func(windows.Window) string) *Collection {
	c := &Collection{
		entries: make([]*Entry, 0, len(appList)+len(wins)),
		known:   make(map[string]bool, len(appList)),
	}

	for i := range appList {
		app := appList[i]
		c.known[app.ID] = true
		c.add(&Entry{
			Name:     app.Name,
			Keywords: app.SearchText(),
			App:      &app,
			Key:      OrderKey{History: hist.Count(app.ID)},
		})
	}

	for _, w := range wins {
		cmd := ""
		if focus != nil {
			cmd = focus(w)
		}
		if cmd == "" {
			continue
		}

		name := w.Title
		if name == "" {
			name = w.AppID
		}
		var label string
		if ws, ok := workspaces[w.WorkspaceID]; ok {
			label = ws.Label()
		}

		keywords := make([]string, 0, 2)
		if w.AppID != "" {
			keywords = append(keywords, w.AppID)
		}
		if label != "" {
			keywords = append(keywords, label)
		}

		c.add(&Entry{
			Name:          name,
			Keywords:      strings.Join(keywords, " "),
			CustomCommand: cmd,
			Display:       true,
			Workspace:     label,
		})
	}

	log.Printf("[REPOSITORY] Built %d entries (%d applications, %d windows)", len(c.entries), len(appList), len(c.entries)-len(appList))
	return c
}

func (c *Collection) add(e *Entry) {
	e.ID = EntryID(len(c.entries))
	c.entries = append(c.entries, e)
}

func (c *Collection) Len() int {
	return len(c.entries)
}

// Get returns the entry with id, or nil.
func (c *Collection) Get(id EntryID) *Entry {
	if id < 0 || int(id) >= len(c.entries) {
		return nil
	}
	return c.entries[id]
}

func (c *Collection) Entries() []*Entry {
	return c.entries
}

// Known reports whether an application with the stable id is present.
func (c *Collection) Known(id string) bool {
	return c.known[id]
}
