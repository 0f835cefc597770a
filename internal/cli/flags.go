package cli

import "io"

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	Config  string `long:"config" description:"Path to config file" default:""`
	JSON    bool   `long:"json" description:"Output in JSON format"`
	Verbose bool   `long:"verbose" description:"Enable verbose output"`
	Version bool   `long:"version" description:"Show version and exit"`
	Profile string `long:"profile" description:"Browser profile directory (overrides profile.dir)"`
}

// ExportCommand composes an export and writes it to disk.
type ExportCommand struct {
	Format    string `long:"format" short:"f" description:"markdown | windows-json | bundle-json | tabs-markdown | history-parquet (default: export.default_format)"`
	OutputDir string `long:"output-dir" short:"o" description:"Directory to write the export into (default: export.output_dir)"`
	Open      bool   `long:"open" description:"Open the exported file when done"`

	globals *GlobalFlags
	version string
}

// CountsCommand shows how many tabs, history records and bookmarks exist.
type CountsCommand struct {
	globals *GlobalFlags
	version string
}

// HistoryCommand searches browsing history by keyword.
type HistoryCommand struct {
	Query string `long:"query" short:"q" description:"Search text (or pass as positional args)"`
	Since string `long:"since" description:"Only visits newer than duration (e.g., 7d, 24h, 2w); empty for all" default:"30d"`
	Limit int    `long:"limit" description:"Maximum results" default:"20"`

	globals *GlobalFlags
	version string
}

// ServeCommand runs the local export popup.
type ServeCommand struct {
	Port int  `long:"port" description:"Override server port"`
	Open bool `long:"open" description:"Open the popup in the default browser"`

	globals *GlobalFlags
	version string
}

// PruneCommand deletes old export files from the output directory.
type PruneCommand struct {
	OlderThan string `long:"older-than" description:"Remove exports older than duration (e.g., 30d)" default:"30d"`
	OutputDir string `long:"output-dir" short:"o" description:"Directory to prune (default: export.output_dir)"`
	DryRun    bool   `long:"dry-run" description:"Show what would be removed without deleting"`
	Force     bool   `long:"force" description:"Skip confirmation prompt"`

	globals *GlobalFlags
	version string
	stdin   io.Reader // injectable for testing; nil means os.Stdin
}
