package apps

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// App represents a desktop application
type App struct {
	// ID is the desktop file id, stable across runs and used as the
	// history key: the path below the applications dir with "/" as "-".
	ID          string `json:"id"`
	Name        string `json:"name"`
	GenericName string `json:"generic_name"`
	Exec        string `json:"exec"`
	Icon        string `json:"icon"`
	File        string `json:"file"`
	Keywords    string `json:"keywords"`
	Description string `json:"description"`
	Terminal    bool   `json:"terminal"`
	NoDisplay   bool   `json:"no_display"`
}

// SearchText is the extra text an app is matched by besides its name.
func (a *App) SearchText() string {
	parts := make([]string, 0, 4)
	for _, s := range []string{a.Keywords, a.GenericName, a.Description, a.execBase()} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

func (a *App) execBase() string {
	fields := strings.Fields(a.Exec)
	if len(fields) == 0 {
		return ""
	}
	return filepath.Base(strings.Trim(fields[0], "\"'"))
}

// DesktopID derives the desktop file id of path relative to the
// applications directory root.
func DesktopID(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		rel = filepath.Base(path)
	}
	return strings.ReplaceAll(filepath.ToSlash(rel), "/", "-")
}

// ParseDesktopFile reads the [Desktop Entry] group of a .desktop file.
// Entries that should not be offered (hidden, not an application, or
// without Name/Exec) come back with NoDisplay set.
func ParseDesktopFile(path string) (App, error) {
	file, err := os.Open(path)
	if err != nil {
		return App{}, err
	}
	defer file.Close()

	app := App{File: path}
	inDesktopEntry := false
	sawType := false

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inDesktopEntry = line == "[Desktop Entry]"
			continue
		}
		if !inDesktopEntry {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "Name":
			app.Name = value
		case "GenericName":
			app.GenericName = value
		case "Exec":
			app.Exec = value
		case "Icon":
			app.Icon = value
		case "Comment":
			app.Description = value
		case "Keywords":
			app.Keywords = strings.Join(splitList(value), " ")
		case "Terminal":
			app.Terminal = value == "1" || strings.EqualFold(value, "true")
		case "Type":
			sawType = true
			if value != "Application" {
				app.NoDisplay = true
			}
		case "NoDisplay", "Hidden":
			if strings.EqualFold(value, "true") {
				app.NoDisplay = true
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return App{}, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if !sawType {
		app.NoDisplay = true
	}
	if app.Name == "" || app.Exec == "" {
		return app, fmt.Errorf("invalid desktop file %s: missing Name or Exec", path)
	}
	return app, nil
}

// splitList splits a desktop-file string list (";" separated).
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ";") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
