package history

import (
	"fmt"
	"log"
)

// Store loads and persists a History.
type Store interface {
	Load() (*History, error)
	// Save rewrites the persisted records to match h exactly.
	Save(h *History) error
	Close() error
}

// Open returns the store for backend ("file" or "bolt") at path.
func Open(backend, path string) (Store, error) {
	switch backend {
	case "", "file":
		return NewFileStore(path), nil
	case "bolt":
		return NewBoltStore(path)
	default:
		return nil, fmt.Errorf("unknown history backend %q", backend)
	}
}

// LoadAndPrune loads the history from store and, when prune is set,
// drops records that known rejects and persists the result.
func LoadAndPrune(store Store, prune bool, known func(id string) bool) (*History, error) {
	h, err := store.Load()
	if err != nil {
		return nil, err
	}

	if !prune || known == nil {
		return h, nil
	}

	if h.Prune(known) > 0 {
		if err := store.Save(h); err != nil {
			log.Printf("[HISTORY] Failed to save pruned history: %v", err)
			return h, err
		}
	}
	return h, nil
}
