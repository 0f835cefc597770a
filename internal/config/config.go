package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Default config file path.
const DefaultConfigPath = "~/.config/tabsnap/config.yaml"

// Tab source kinds.
const (
	TabSourceCDP  = "cdp"
	TabSourceFile = "file"
	TabSourceNone = "none"
)

// Config holds all tabsnap configuration.
type Config struct {
	Profile ProfileConfig `yaml:"profile"`
	Tabs    TabsConfig    `yaml:"tabs"`
	History HistoryConfig `yaml:"history"`
	Export  ExportConfig  `yaml:"export"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// ProfileConfig locates the browser profile files.
type ProfileConfig struct {
	Dir           string `yaml:"dir"`
	HistoryFile   string `yaml:"history_file"`
	BookmarksFile string `yaml:"bookmarks_file"`
	BookmarksHTML string `yaml:"bookmarks_html"`
	CopyHistory   bool   `yaml:"copy_history"`
}

type TabsConfig struct {
	Source      string `yaml:"source"`
	DebuggerURL string `yaml:"debugger_url"`
	SessionFile string `yaml:"session_file"`
}

type HistoryConfig struct {
	BatchSize          int      `yaml:"batch_size"`
	OverheadMS         int      `yaml:"overhead_ms"`
	LookupConcurrency  int      `yaml:"lookup_concurrency"`
	ExcludeDomains     []string `yaml:"exclude_domains"`
	UseDefaultDenylist bool     `yaml:"use_default_denylist"`
	DenylistCategories []string `yaml:"denylist_categories"`
}

type ExportConfig struct {
	OutputDir        string `yaml:"output_dir"`
	DefaultFormat    string `yaml:"default_format"`
	IncludeDownloads bool   `yaml:"include_downloads"`
}

type ServerConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read, contains invalid YAML, or
// holds values that fail validation.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks value ranges that the rest of the program relies on.
func (c *Config) Validate() error {
	if c.History.BatchSize <= 0 {
		return fmt.Errorf("history.batch_size must be positive, got %d", c.History.BatchSize)
	}
	if c.History.OverheadMS <= 0 {
		return fmt.Errorf("history.overhead_ms must be positive, got %d", c.History.OverheadMS)
	}
	if c.History.LookupConcurrency <= 0 {
		return fmt.Errorf("history.lookup_concurrency must be positive, got %d", c.History.LookupConcurrency)
	}
	if _, err := DenylistDomains(c.History.DenylistCategories); err != nil {
		return fmt.Errorf("history.denylist_categories: %w", err)
	}
	switch c.Tabs.Source {
	case TabSourceCDP, TabSourceFile, TabSourceNone:
	default:
		return fmt.Errorf("tabs.source must be one of cdp, file, none; got %q", c.Tabs.Source)
	}
	if c.Tabs.Source == TabSourceFile && c.Tabs.SessionFile == "" {
		return fmt.Errorf("tabs.session_file is required when tabs.source is file")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// ExcludedDomains returns the configured history exclusions, extended with
// the built-in sensitive domains when enabled. denylist_categories narrows
// the built-in list; Validate has already rejected unknown names.
func (c *Config) ExcludedDomains() []string {
	out := append([]string{}, c.History.ExcludeDomains...)
	if c.History.UseDefaultDenylist {
		builtin, err := DenylistDomains(c.History.DenylistCategories)
		if err != nil {
			builtin = DefaultDenylistDomains()
		}
		out = append(out, builtin...)
	}
	return out
}

// HistoryPath returns the expanded path of the profile's History database.
func (c *Config) HistoryPath() (string, error) {
	return c.profileFile(c.Profile.HistoryFile)
}

// BookmarksPath returns the expanded path of the profile's Bookmarks file.
func (c *Config) BookmarksPath() (string, error) {
	return c.profileFile(c.Profile.BookmarksFile)
}

// profileFile resolves name against the profile directory unless it is
// already absolute.
func (c *Config) profileFile(name string) (string, error) {
	name, err := ExpandPath(name)
	if err != nil {
		return "", err
	}
	if filepath.IsAbs(name) {
		return name, nil
	}
	dir, err := ExpandPath(c.Profile.Dir)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := ExpandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}
