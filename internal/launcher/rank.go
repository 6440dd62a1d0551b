package launcher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chess10kp/skoll/internal/history"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DisplayPriority places running-window entries relative to
// applications of equal rank.
type DisplayPriority int

const (
	DisplayFirst DisplayPriority = iota
	DisplayLast
)

func ParseDisplayPriority(s string) (DisplayPriority, error) {
	switch s {
	case "", "first":
		return DisplayFirst, nil
	case "last":
		return DisplayLast, nil
	default:
		return DisplayFirst, fmt.Errorf("invalid display priority %q", s)
	}
}

type matchResult struct {
	score   int
	matched bool
}

// Ranker updates entry visibility and order keys for a query and
// defines the total order of visible rows.
type Ranker struct {
	matcher  Matcher
	prefix   string
	priority DisplayPriority
	history  *history.History
	// cache holds per-query match results indexed by EntryID.
	cache *lru.Cache[string, []matchResult]
}

func NewRanker(matcher Matcher, prefix string, priority DisplayPriority, hist *history.History, cacheSize int) (*Ranker, error) {
	r := &Ranker{
		matcher:  matcher,
		prefix:   prefix,
		priority: priority,
		history:  hist,
	}
	if cacheSize > 0 {
		cache, err := lru.New[string, []matchResult](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create score cache: %w", err)
		}
		r.cache = cache
	}
	return r, nil
}

func (r *Ranker) Prefix() string {
	return r.prefix
}

// UpdateMatch sets the visibility and order key of e for query.
func (r *Ranker) UpdateMatch(e *Entry, query string) {
	r.apply(e, query, r.match(e, query))
}

func (r *Ranker) match(e *Entry, query string) matchResult {
	if IsCommand(query, r.prefix) {
		return matchResult{}
	}
	if query == "" {
		return matchResult{matched: true}
	}
	score, ok := r.matcher.Match(query, e.MatchText())
	return matchResult{score: score, matched: ok}
}

func (r *Ranker) apply(e *Entry, query string, m matchResult) {
	e.Hidden = !m.matched
	e.Key = OrderKey{
		Class:   r.class(e),
		Score:   m.score,
		History: r.history.Count(e.StableID()),
	}
}

func (r *Ranker) class(e *Entry) int {
	if e.Display == (r.priority == DisplayFirst) {
		return 0
	}
	return 1
}

// Rank updates every entry of c for query and returns the visible
// entries in order.
func (r *Ranker) Rank(c *Collection, query string) []*Entry {
	entries := c.Entries()

	var results []matchResult
	if r.cache != nil && !IsCommand(query, r.prefix) {
		if cached, ok := r.cache.Get(query); ok && len(cached) == len(entries) {
			results = cached
		}
	}
	if results == nil {
		results = make([]matchResult, len(entries))
		for i, e := range entries {
			results[i] = r.match(e, query)
		}
		if r.cache != nil && !IsCommand(query, r.prefix) {
			r.cache.Add(query, results)
		}
	}

	visible := make([]*Entry, 0, len(entries))
	for i, e := range entries {
		r.apply(e, query, results[i])
		if !e.Hidden {
			visible = append(visible, e)
		}
	}

	sort.Slice(visible, func(i, j int) bool {
		return r.Compare(visible[i], visible[j]) < 0
	})
	return visible
}

// Purge drops cached match results. Call it when the collection changes.
func (r *Ranker) Purge() {
	if r.cache != nil {
		r.cache.Purge()
	}
}

// Compare orders entries by class, score (desc), history (desc), name
// (case-insensitive, then exact) and finally ID. Distinct entries never
// compare equal.
func (r *Ranker) Compare(a, b *Entry) int {
	if a.Key.Class != b.Key.Class {
		return cmpInt(a.Key.Class, b.Key.Class)
	}
	if a.Key.Score != b.Key.Score {
		return cmpInt(b.Key.Score, a.Key.Score)
	}
	if a.Key.History != b.Key.History {
		if a.Key.History > b.Key.History {
			return -1
		}
		return 1
	}
	if c := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); c != 0 {
		return c
	}
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return cmpInt(int(a.ID), int(b.ID))
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
