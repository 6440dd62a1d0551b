// Package history keeps per-application launch counts across runs.
//
// A History is owned by a single goroutine; the stores rewrite the whole
// record set on every Save and assume a single writer.
package history

import (
	"log"
	"sort"
)

// History maps a stable application id (desktop file id) to the number
// of successful launches.
type History struct {
	counts map[string]uint64
}

func New() *History {
	return &History{counts: make(map[string]uint64)}
}

// FromCounts builds a History from a plain map, dropping empty ids.
func FromCounts(counts map[string]uint64) *History {
	h := New()
	for id, n := range counts {
		if id == "" {
			continue
		}
		h.counts[id] = n
	}
	return h
}

// Count returns the launch count for id, 0 if unknown.
func (h *History) Count(id string) uint64 {
	if h == nil {
		return 0
	}
	return h.counts[id]
}

// Increment bumps the count for id by one and returns the new value.
func (h *History) Increment(id string) uint64 {
	if id == "" {
		return 0
	}
	h.counts[id]++
	return h.counts[id]
}

// Prune removes every record whose id is not known. It returns the
// number of removed records.
func (h *History) Prune(known func(id string) bool) int {
	removed := 0
	for id := range h.counts {
		if !known(id) {
			delete(h.counts, id)
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[HISTORY] Pruned %d stale records", removed)
	}
	return removed
}

// Len returns the number of records.
func (h *History) Len() int {
	return len(h.counts)
}

// Counts returns a copy of the records.
func (h *History) Counts() map[string]uint64 {
	out := make(map[string]uint64, len(h.counts))
	for id, n := range h.counts {
		out[id] = n
	}
	return out
}

// IDs returns the record ids in lexical order.
func (h *History) IDs() []string {
	ids := make([]string, 0, len(h.counts))
	for id := range h.counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
