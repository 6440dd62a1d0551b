package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/chess10kp/skoll/internal/config"
)

// KeyMap holds the launcher's key bindings.
type KeyMap struct {
	Up       key.Binding
	Down     key.Binding
	Activate key.Binding
	Close    key.Binding
}

// keyNames maps config key names to bubbletea key strings.
var keyNames = map[string]string{
	"return":    "enter",
	"kp_enter":  "enter",
	"escape":    "esc",
	"page_up":   "pgup",
	"page_down": "pgdown",
	"space":     " ",
}

// normalizeKey turns a config key such as "Ctrl+P" or "Return" into the
// string bubbletea reports for it ("ctrl+p", "enter").
func normalizeKey(name string) string {
	k := strings.ToLower(strings.TrimSpace(name))
	if mapped, ok := keyNames[k]; ok {
		return mapped
	}
	return k
}

func binding(names []string, help string) key.Binding {
	keys := make([]string, 0, len(names))
	for _, n := range names {
		if k := normalizeKey(n); k != "" {
			keys = append(keys, k)
		}
	}
	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(strings.Join(names, "/"), help),
	)
}

// KeyMapFromConfig builds the bindings from the launcher.keys section.
func KeyMapFromConfig(k config.KeysConfig) KeyMap {
	return KeyMap{
		Up:       binding(k.Up, "up"),
		Down:     binding(k.Down, "down"),
		Activate: binding(k.Activate, "launch"),
		Close:    binding(k.Close, "close"),
	}
}
