package apps

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chess10kp/skoll/internal/config"
	"github.com/zeebo/blake3"
)

const cacheVersion = "2"

type desktopFile struct {
	id    string
	path  string
	mtime time.Time
}

type appsCache struct {
	Apps        []App  `json:"apps"`
	Timestamp   string `json:"timestamp"`
	Version     string `json:"version"`
	Fingerprint string `json:"fingerprint"`
}

// AppLoader loads and caches desktop applications
type AppLoader struct {
	apps      []App
	ids       map[string]bool
	dirs      []string
	cacheFile string
	mu        sync.RWMutex
	cfg       *config.Config
}

// SearchDirs lists the application directories in precedence order:
// user dir, then $XDG_DATA_DIRS, then configured extra dirs.
func SearchDirs(cfg *config.Config) []string {
	var dirs []string
	if cfg.Launcher.DesktopApps.ScanUserDir {
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome == "" {
			dataHome = filepath.Join(os.Getenv("HOME"), ".local", "share")
		}
		dirs = append(dirs, filepath.Join(dataHome, "applications"))
	}
	if cfg.Launcher.DesktopApps.ScanSystemDirs {
		dataDirs := os.Getenv("XDG_DATA_DIRS")
		if dataDirs == "" {
			dataDirs = "/usr/local/share:/usr/share"
		}
		for _, d := range strings.Split(dataDirs, ":") {
			if d != "" {
				dirs = append(dirs, filepath.Join(d, "applications"))
			}
		}
	}
	dirs = append(dirs, cfg.Launcher.DesktopApps.CustomDirs...)
	return dirs
}

func NewAppLoader(cfg *config.Config) *AppLoader {
	return &AppLoader{
		ids:       make(map[string]bool),
		dirs:      SearchDirs(cfg),
		cacheFile: cfg.AppsCachePath(),
		cfg:       cfg,
	}
}

// WithDirs replaces the scanned directories.
func (l *AppLoader) WithDirs(dirs []string) *AppLoader {
	l.dirs = dirs
	return l
}

// Dirs returns the scanned directories.
func (l *AppLoader) Dirs() []string {
	return append([]string(nil), l.dirs...)
}

// LoadApps loads applications from cache or system
func (l *AppLoader) LoadApps(forceReload bool) ([]App, error) {
	loadStart := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	files := l.collect()
	fingerprint := fingerprintFiles(files)

	if !forceReload && l.cfg.Launcher.Performance.EnableCache && l.loadFromCache(fingerprint) {
		log.Printf("[APPS-LOADER] Loaded %d apps from cache in %v", len(l.apps), time.Since(loadStart))
		return l.snapshot(), nil
	}

	l.setApps(l.parseAll(files))

	if l.cfg.Launcher.Performance.EnableCache {
		if err := l.saveToCache(fingerprint); err != nil {
			log.Printf("[APPS-CACHE] Warning: failed to save cache: %v", err)
		}
	}

	log.Printf("[APPS-LOADER] Loaded %d apps from %d desktop files in %v", len(l.apps), len(files), time.Since(loadStart))
	return l.snapshot(), nil
}

// collect walks the search dirs. The first file seen for a desktop id
// shadows later ones.
func (l *AppLoader) collect() []desktopFile {
	seen := make(map[string]bool)
	var files []desktopFile

	for _, root := range l.dirs {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if d != nil && d.IsDir() && path != root {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() || !strings.HasSuffix(path, ".desktop") {
				return nil
			}

			id := DesktopID(root, path)
			if seen[id] {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return nil
			}
			seen[id] = true
			files = append(files, desktopFile{id: id, path: path, mtime: info.ModTime()})
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			log.Printf("[APPS-LOADER] Failed to scan %s: %v", root, err)
		}
	}
	return files
}

// fingerprintFiles hashes ids, paths and mtimes so that any added,
// removed or edited desktop file invalidates the cache.
func fingerprintFiles(files []desktopFile) string {
	h := blake3.New()
	for _, f := range files {
		h.Write([]byte(f.id))
		h.Write([]byte{0})
		h.Write([]byte(f.path))
		h.Write([]byte{0})
		h.Write([]byte(strconv.FormatInt(f.mtime.UnixNano(), 10)))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (l *AppLoader) parseAll(files []desktopFile) []App {
	workers := l.cfg.Launcher.Performance.ParseWorkers
	if workers < 1 {
		workers = 1
	}

	results := make([]*App, len(files))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, workers)

	for i, f := range files {
		wg.Add(1)
		go func(i int, f desktopFile) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			app, err := ParseDesktopFile(f.path)
			if err != nil || app.NoDisplay {
				return
			}
			app.ID = f.id
			results[i] = &app
		}(i, f)
	}
	wg.Wait()

	apps := make([]App, 0, len(files))
	for _, app := range results {
		if app != nil {
			apps = append(apps, *app)
		}
	}

	sort.SliceStable(apps, func(i, j int) bool {
		return strings.ToLower(apps[i].Name) < strings.ToLower(apps[j].Name)
	})
	return apps
}

func (l *AppLoader) loadFromCache(fingerprint string) bool {
	data, err := os.ReadFile(l.cacheFile)
	if err != nil {
		log.Printf("[APPS-CACHE] Cache miss: file not found or unreadable")
		return false
	}

	var cache appsCache
	if err := json.Unmarshal(data, &cache); err != nil {
		log.Printf("[APPS-CACHE] Cache miss: failed to unmarshal cache file: %v", err)
		return false
	}

	if cache.Version != cacheVersion || cache.Fingerprint != fingerprint {
		log.Printf("[APPS-CACHE] Cache miss: desktop files changed")
		return false
	}

	cacheTime, err := time.Parse(time.RFC3339, cache.Timestamp)
	if err != nil {
		return false
	}
	age := time.Since(cacheTime)
	maxAge := time.Duration(l.cfg.Launcher.Performance.CacheMaxAgeHours) * time.Hour
	if age >= maxAge {
		log.Printf("[APPS-CACHE] Cache miss: cache expired (age: %v, max: %v)", age, maxAge)
		return false
	}

	l.setApps(cache.Apps)
	return true
}

func (l *AppLoader) saveToCache(fingerprint string) error {
	if err := os.MkdirAll(filepath.Dir(l.cacheFile), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.MarshalIndent(appsCache{
		Apps:        l.apps,
		Timestamp:   time.Now().Format(time.RFC3339),
		Version:     cacheVersion,
		Fingerprint: fingerprint,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache data: %w", err)
	}

	tempFile := l.cacheFile + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp cache file: %w", err)
	}
	if err := os.Rename(tempFile, l.cacheFile); err != nil {
		return fmt.Errorf("failed to rename temp cache file: %w", err)
	}
	return nil
}

func (l *AppLoader) setApps(apps []App) {
	l.apps = apps
	l.ids = make(map[string]bool, len(apps))
	for _, app := range apps {
		l.ids[app.ID] = true
	}
}

func (l *AppLoader) snapshot() []App {
	apps := make([]App, len(l.apps))
	copy(apps, l.apps)
	return apps
}

// GetApps returns all loaded applications
func (l *AppLoader) GetApps() []App {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot()
}

// Has reports whether id names a loaded application.
func (l *AppLoader) Has(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ids[id]
}
