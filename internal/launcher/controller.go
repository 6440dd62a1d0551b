package launcher

import (
	"errors"
	"log"
)

// Activation is the outcome of OnActivate. Launched tells the front end
// to close; Err is shown to the user either way.
type Activation struct {
	Launched bool
	Err      error
}

// Controller owns the entry collection and the current query, selection
// and visible rows. It is driven from a single goroutine.
type Controller struct {
	coll   *Collection
	ranker *Ranker
	orch   *Orchestrator

	query    string
	visible  []*Entry
	selected int
}

// NewController seeds the visible rows with an empty-query ranking pass.
func NewController(coll *Collection, ranker *Ranker, orch *Orchestrator) *Controller {
	c := &Controller{coll: coll, ranker: ranker, orch: orch}
	c.OnQueryChanged("")
	return c
}

// OnQueryChanged ranks every entry for q and resets the selection to
// the first visible row.
func (c *Controller) OnQueryChanged(q string) {
	c.query = q
	c.visible = c.ranker.Rank(c.coll, q)
	c.selected = 0
}

func (c *Controller) OnSelectNext() {
	if c.selected < len(c.visible)-1 {
		c.selected++
	}
}

func (c *Controller) OnSelectPrev() {
	if c.selected > 0 {
		c.selected--
	}
}

// OnActivate launches the command text in command mode, else the
// selected entry.
func (c *Controller) OnActivate() Activation {
	if c.CommandMode() {
		err := c.orch.LaunchCommand(c.query)
		return Activation{Launched: err == nil, Err: err}
	}

	e := c.Selected()
	if e == nil {
		return Activation{}
	}

	err := c.orch.Launch(e)
	switch {
	case err == nil:
		return Activation{Launched: true}
	case errors.Is(err, ErrPersistenceFailed):
		return Activation{Launched: true, Err: err}
	default:
		return Activation{Err: err}
	}
}

// Replace swaps in a rebuilt collection and re-ranks the current query.
func (c *Controller) Replace(coll *Collection) {
	var selectedName string
	if e := c.Selected(); e != nil {
		selectedName = e.Name
	}

	c.coll = coll
	c.ranker.Purge()
	c.OnQueryChanged(c.query)

	for i, e := range c.visible {
		if e.Name == selectedName {
			c.selected = i
			break
		}
	}
	log.Printf("[CONTROLLER] Replaced collection: %d entries, %d visible", coll.Len(), len(c.visible))
}

func (c *Controller) Query() string {
	return c.query
}

func (c *Controller) Prefix() string {
	return c.ranker.Prefix()
}

func (c *Controller) CommandMode() bool {
	return IsCommand(c.query, c.ranker.Prefix())
}

// Visible returns the visible entries in display order.
func (c *Controller) Visible() []*Entry {
	return c.visible
}

func (c *Controller) SelectedIndex() int {
	return c.selected
}

// Selected returns the selected entry, nil when nothing is visible.
func (c *Controller) Selected() *Entry {
	if c.selected < 0 || c.selected >= len(c.visible) {
		return nil
	}
	return c.visible[c.selected]
}

func (c *Controller) Collection() *Collection {
	return c.coll
}
