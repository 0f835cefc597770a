package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Export  *ExportCommand
	Counts  *CountsCommand
	History *HistoryCommand
	Serve   *ServeCommand
	Prune   *PruneCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "tabsnap"
	parser.LongDescription = "Export open tabs, browsing history and bookmarks from a local Chromium profile."

	cmds := &commands{
		Export:  &ExportCommand{globals: &globals, version: version},
		Counts:  &CountsCommand{globals: &globals, version: version},
		History: &HistoryCommand{globals: &globals, version: version},
		Serve:   &ServeCommand{globals: &globals, version: version},
		Prune:   &PruneCommand{globals: &globals, version: version},
	}

	parser.AddCommand("export", "Write an export file", "Compose tabs, history and bookmarks into one of the export formats and write it to disk.", cmds.Export)
	parser.AddCommand("counts", "Show tab, history and bookmark counts", "Show how many open tabs, history records and bookmarks an export would contain.", cmds.Counts)
	parser.AddCommand("history", "Search browsing history", "Search browsing history by keyword, newest visits first.", cmds.History)
	parser.AddCommand("serve", "Start the export popup server", "Serve the export popup and its JSON API on a local port.", cmds.Serve)
	parser.AddCommand("prune", "Remove old export files", "Remove export files older than a given age from the output directory.", cmds.Prune)

	return parser, &globals, cmds
}

// Run is the main entry point for the tabsnap CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	// Handle --version before parser (go-flags requires a subcommand, but
	// --version is valid without one).
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("tabsnap %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok {
			if flagsErr.Type == goflags.ErrHelp {
				return nil
			}
		}
		return err
	}

	return nil
}
