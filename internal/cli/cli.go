package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Serve  *ServeCommand
	List   *ListCommand
	Stats  *StatsCommand
	Import *ImportCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "dnslens"
	parser.LongDescription = "Store, list and summarize classified DNS events."

	cmds := &commands{
		Serve:  &ServeCommand{globals: &globals, version: version},
		List:   &ListCommand{globals: &globals, version: version},
		Stats:  &StatsCommand{globals: &globals, version: version},
		Import: &ImportCommand{globals: &globals, version: version},
	}

	parser.AddCommand("serve", "Start the dnslens daemon", "Start the dnslens HTTP daemon serving the listing, upload and stats endpoints.", cmds.Serve)
	parser.AddCommand("list", "List stored events", "List stored events with optional domain and verdict filters, sorting and paging.", cmds.List)
	parser.AddCommand("stats", "Summarize stored events", "Show totals, per-verdict and per-direction counts, feature averages and top domains.", cmds.Stats)
	parser.AddCommand("import", "Import a JSON batch of events", "Import a JSON array of events. The whole batch is rejected if any element is malformed.", cmds.Import)

	return parser, &globals, cmds
}

// Run is the main entry point for the dnslens CLI using os.Args.
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
			fmt.Printf("dnslens %s\n", version)
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
