package config

import "runtime"

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	return &Config{
		Profile: ProfileConfig{
			Dir:           defaultProfileDir(),
			HistoryFile:   "History",
			BookmarksFile: "Bookmarks",
			BookmarksHTML: "",
			CopyHistory:   true,
		},
		Tabs: TabsConfig{
			Source:      TabSourceCDP,
			DebuggerURL: "127.0.0.1:9222",
			SessionFile: "",
		},
		History: HistoryConfig{
			BatchSize:          100000,
			OverheadMS:         1000,
			LookupConcurrency:  16,
			ExcludeDomains:     []string{},
			UseDefaultDenylist: false,
		},
		Export: ExportConfig{
			OutputDir:        ".",
			DefaultFormat:    "markdown",
			IncludeDownloads: true,
		},
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           8765,
			AllowedOrigins: []string{"chrome-extension://*"},
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			File:       "",
			MaxSize:    10,
			MaxBackups: 3,
		},
	}
}

// defaultProfileDir is the Default profile of Google Chrome on this OS.
func defaultProfileDir() string {
	switch runtime.GOOS {
	case "darwin":
		return "~/Library/Application Support/Google/Chrome/Default"
	case "windows":
		return "~/AppData/Local/Google/Chrome/User Data/Default"
	default:
		return "~/.config/google-chrome/Default"
	}
}
