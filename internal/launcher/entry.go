package launcher

import (
	"github.com/chess10kp/skoll/internal/apps"
)

// EntryID identifies an entry within its Collection. IDs are dense
// indexes assigned at build time and never reused inside a collection.
type EntryID int

// OrderKey is recomputed by the Ranker on every query.
type OrderKey struct {
	// Class groups running windows apart from applications; lower sorts first.
	Class int
	// Score is the fuzzy match score, higher is better.
	Score int
	// History is the launch count of the entry's application.
	History uint64
}

// Entry is one row of the launcher: an application to start or a
// running window to focus.
type Entry struct {
	ID       EntryID
	Name     string
	Keywords string

	// App is set for application entries.
	App *apps.App
	// CustomCommand is set for window entries and focuses the window.
	CustomCommand string
	// Display marks entries for windows already on screen.
	Display   bool
	Workspace string

	Hidden bool
	Key    OrderKey
}

// StableID is the history key of the entry, empty for window entries.
func (e *Entry) StableID() string {
	if e.App == nil {
		return ""
	}
	return e.App.ID
}

// MatchText is the text the fuzzy matcher runs against.
func (e *Entry) MatchText() string {
	if e.Keywords == "" {
		return e.Name
	}
	return e.Name + " " + e.Keywords
}
