package config

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

type Config struct {
	AppName   string          `toml:"app_name" yaml:"app_name"`
	CacheDir  string          `toml:"cache_dir" yaml:"cache_dir"`
	ConfigDir string          `toml:"config_dir" yaml:"config_dir"`
	Launcher  LauncherConfig  `toml:"launcher" yaml:"launcher"`
	History   HistoryConfig   `toml:"history" yaml:"history"`
	Windows   WindowsConfig   `toml:"windows" yaml:"windows"`
	Env       EnvConfig       `toml:"-" yaml:"-"`
}

type LauncherConfig struct {
	// CommandPrefix switches the query into command mode. Empty disables it.
	CommandPrefix string `toml:"command_prefix" yaml:"command_prefix"`
	// TermCommand wraps terminal apps; "{}" is replaced by the app command line.
	TermCommand string `toml:"term_command" yaml:"term_command"`
	Cgroups     bool   `toml:"cgroups" yaml:"cgroups"`
	UnitPrefix  string `toml:"unit_prefix" yaml:"unit_prefix"`
	// DisplayPriority is "first" or "last": where running windows sort
	// relative to equally scored applications.
	DisplayPriority string            `toml:"display_priority" yaml:"display_priority"`
	Search          SearchConfig      `toml:"search" yaml:"search"`
	Performance     PerformanceConfig `toml:"performance" yaml:"performance"`
	Behavior        BehaviorConfig    `toml:"behavior" yaml:"behavior"`
	Keys            KeysConfig        `toml:"keys" yaml:"keys"`
	DesktopApps     DesktopAppsConfig `toml:"desktop_apps" yaml:"desktop_apps"`
	Cache           CacheConfig       `toml:"cache" yaml:"cache"`
}

type SearchConfig struct {
	// Matcher selects the fuzzy matcher: "sahilm" or "fzf".
	Matcher    string `toml:"matcher" yaml:"matcher"`
	MaxResults int    `toml:"max_results" yaml:"max_results"`
}

type PerformanceConfig struct {
	EnableCache      bool `toml:"enable_cache" yaml:"enable_cache"`
	CacheMaxAgeHours int  `toml:"cache_max_age_hours" yaml:"cache_max_age_hours"`
	SearchCacheSize  int  `toml:"search_cache_size" yaml:"search_cache_size"`
	ParseWorkers     int  `toml:"parse_workers" yaml:"parse_workers"`
}

type BehaviorConfig struct {
	CloseOnActivate bool `toml:"close_on_activate" yaml:"close_on_activate"`
	WatchApps       bool `toml:"watch_apps" yaml:"watch_apps"`
}

type KeysConfig struct {
	Up       []string `toml:"up" yaml:"up"`
	Down     []string `toml:"down" yaml:"down"`
	Activate []string `toml:"activate" yaml:"activate"`
	Close    []string `toml:"close" yaml:"close"`
}

type DesktopAppsConfig struct {
	ScanUserDir    bool     `toml:"scan_user_dir" yaml:"scan_user_dir"`
	ScanSystemDirs bool     `toml:"scan_system_dirs" yaml:"scan_system_dirs"`
	CustomDirs     []string `toml:"custom_dirs" yaml:"custom_dirs"`
}

type CacheConfig struct {
	AppsCacheFile string `toml:"apps_cache_file" yaml:"apps_cache_file"`
}

type HistoryConfig struct {
	// Backend is "file" or "bolt".
	Backend string `toml:"backend" yaml:"backend"`
	// Path of the history file; the extension picks the file format.
	Path  string `toml:"path" yaml:"path"`
	Prune bool   `toml:"prune" yaml:"prune"`
}

type WindowsConfig struct {
	// Source is "auto", "niri", "sway" or "none".
	Source      string `toml:"source" yaml:"source"`
	NiriCommand string `toml:"niri_command" yaml:"niri_command"`
}

// EnvConfig holds settings that only come from the environment.
type EnvConfig struct {
	Terminal      string `envconfig:"TERMINAL"`
	ConfigFile    string `envconfig:"SKOLL_CONFIG"`
	LogFile       string `envconfig:"SKOLL_LOG"`
	CommandPrefix string `envconfig:"SKOLL_COMMAND_PREFIX"`
}

var DefaultConfig = Config{
	AppName:   "skoll",
	CacheDir:  "~/.cache/skoll",
	ConfigDir: "~/.config/skoll",
	Launcher: LauncherConfig{
		CommandPrefix:   ":",
		TermCommand:     "",
		Cgroups:         false,
		UnitPrefix:      "app-skoll",
		DisplayPriority: "first",
		Search: SearchConfig{
			Matcher:    "sahilm",
			MaxResults: 50,
		},
		Performance: PerformanceConfig{
			EnableCache:      true,
			CacheMaxAgeHours: 24,
			SearchCacheSize:  200,
			ParseWorkers:     10,
		},
		Behavior: BehaviorConfig{
			CloseOnActivate: true,
			WatchApps:       true,
		},
		Keys: KeysConfig{
			Up:       []string{"Up", "Ctrl+P", "Ctrl+K", "Shift+Tab"},
			Down:     []string{"Down", "Ctrl+N", "Ctrl+J", "Tab"},
			Activate: []string{"Return"},
			Close:    []string{"Escape", "Ctrl+C"},
		},
		DesktopApps: DesktopAppsConfig{
			ScanUserDir:    true,
			ScanSystemDirs: true,
			CustomDirs:     []string{},
		},
		Cache: CacheConfig{
			AppsCacheFile: "apps.json",
		},
	},
	History: HistoryConfig{
		Backend: "file",
		Path:    "~/.cache/skoll/history.toml",
		Prune:   false,
	},
	Windows: WindowsConfig{
		Source:      "auto",
		NiriCommand: "niri",
	},
}

// Default returns a deep copy of DefaultConfig.
func Default() *Config {
	cfg := DefaultConfig
	cfg.Launcher.Keys = KeysConfig{
		Up:       append([]string(nil), DefaultConfig.Launcher.Keys.Up...),
		Down:     append([]string(nil), DefaultConfig.Launcher.Keys.Down...),
		Activate: append([]string(nil), DefaultConfig.Launcher.Keys.Activate...),
		Close:    append([]string(nil), DefaultConfig.Launcher.Keys.Close...),
	}
	cfg.Launcher.DesktopApps.CustomDirs = append([]string{}, DefaultConfig.Launcher.DesktopApps.CustomDirs...)
	cfg.expandPaths()
	return &cfg
}

// LoadConfig reads a TOML or YAML config file on top of the defaults.
// A missing file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	expandedPath := expandPath(path)

	cfg := Default()
	if _, err := os.Stat(expandedPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(expandedPath)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(expandedPath)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", expandedPath, err)
		}
	default:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", expandedPath, err)
		}
	}

	cfg.expandPaths()
	return cfg, nil
}

// LoadEnv fills cfg.Env from the process environment and applies the
// overrides it carries.
func (c *Config) LoadEnv() error {
	if err := envconfig.Process("", &c.Env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	if c.Env.CommandPrefix != "" {
		c.Launcher.CommandPrefix = c.Env.CommandPrefix
	}
	c.Env.LogFile = expandPath(c.Env.LogFile)
	return nil
}

// LoadAndValidateConfig loads path, applies the environment overlay and
// validates the result.
func LoadAndValidateConfig(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.LoadEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) expandPaths() {
	c.CacheDir = expandPath(c.CacheDir)
	c.ConfigDir = expandPath(c.ConfigDir)
	c.History.Path = expandPath(c.History.Path)
	for i, dir := range c.Launcher.DesktopApps.CustomDirs {
		c.Launcher.DesktopApps.CustomDirs[i] = expandPath(dir)
	}
}

// ConfigPath is the config file looked up when none is given.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.ConfigDir, "config.toml")
}

// RuntimePath names a per-user state file such as the pid file or log.
func (c *Config) RuntimePath(ext string) string {
	return filepath.Join(c.CacheDir, c.AppName+ext)
}

// AppsCachePath is where the parsed desktop entries are cached.
func (c *Config) AppsCachePath() string {
	return filepath.Join(c.CacheDir, c.Launcher.Cache.AppsCacheFile)
}

func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		usr, err := user.Current()
		if err == nil {
			return filepath.Join(usr.HomeDir, path[1:])
		}
	}
	return path
}

func SaveConfig(cfg *Config, path string) error {
	expandedPath := expandPath(path)

	dir := filepath.Dir(expandedPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}

	return os.WriteFile(expandedPath, data, 0644)
}

func (c *Config) Validate() error {
	if err := c.validateLauncher(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validatePerformance(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	if err := c.validateWindows(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLauncher() error {
	l := c.Launcher
	if c.AppName == "" || strings.ContainsRune(c.AppName, filepath.Separator) {
		return fmt.Errorf("invalid app_name: %q", c.AppName)
	}
	if l.DisplayPriority != "first" && l.DisplayPriority != "last" {
		return fmt.Errorf("invalid display_priority: %q (must be first or last)", l.DisplayPriority)
	}
	if l.TermCommand != "" && !strings.Contains(l.TermCommand, "{}") {
		return fmt.Errorf("invalid term_command: %q (must contain {})", l.TermCommand)
	}
	if l.Cgroups && l.UnitPrefix == "" {
		return fmt.Errorf("cgroups enabled but unit_prefix is empty")
	}
	if strings.TrimSpace(l.CommandPrefix) != l.CommandPrefix {
		return fmt.Errorf("invalid command_prefix: %q (must not start or end with whitespace)", l.CommandPrefix)
	}
	return nil
}

func (c *Config) validateSearch() error {
	s := c.Launcher.Search
	if s.Matcher != "sahilm" && s.Matcher != "fzf" {
		return fmt.Errorf("invalid matcher: %q (must be sahilm or fzf)", s.Matcher)
	}
	if s.MaxResults < 1 || s.MaxResults > 1000 {
		return fmt.Errorf("invalid max_results: %d (must be 1-1000)", s.MaxResults)
	}
	return nil
}

func (c *Config) validatePerformance() error {
	p := c.Launcher.Performance
	if p.CacheMaxAgeHours < 1 || p.CacheMaxAgeHours > 168 {
		return fmt.Errorf("invalid cache_max_age_hours: %d (must be 1-168 hours)", p.CacheMaxAgeHours)
	}
	if p.SearchCacheSize < 10 || p.SearchCacheSize > 10000 {
		return fmt.Errorf("invalid search_cache_size: %d (must be 10-10000)", p.SearchCacheSize)
	}
	if p.ParseWorkers < 1 || p.ParseWorkers > 64 {
		return fmt.Errorf("invalid parse_workers: %d (must be 1-64)", p.ParseWorkers)
	}
	return nil
}

func (c *Config) validateHistory() error {
	h := c.History
	if h.Backend != "file" && h.Backend != "bolt" {
		return fmt.Errorf("invalid history backend: %q (must be file or bolt)", h.Backend)
	}
	if h.Path == "" {
		return fmt.Errorf("history path is empty")
	}
	return nil
}

func (c *Config) validateWindows() error {
	switch c.Windows.Source {
	case "auto", "niri", "sway", "none":
	default:
		return fmt.Errorf("invalid windows source: %q (must be auto, niri, sway or none)", c.Windows.Source)
	}
	if c.Windows.Source == "niri" && c.Windows.NiriCommand == "" {
		return fmt.Errorf("niri source selected but niri_command is empty")
	}
	return nil
}

func ValidateConfig(path string) error {
	cfg, err := LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
