// Package cli implements the vdk command surface.
package cli

import (
	"fmt"
)

// Run dispatches a command line to its handler.
func Run(args []string) error {
	if len(args) == 0 {
		return usage()
	}

	switch args[0] {
	case "version", "--version", "-v":
		return cmdVersion(args[1:])
	case "init":
		return cmdInit(args[1:])
	case "detect":
		return cmdDetect(args[1:])
	case "migrate":
		return cmdMigrate(args[1:])
	case "validate":
		return cmdValidate(args[1:])
	case "help", "-h", "--help":
		return usage()
	default:
		return fmt.Errorf("unknown command: %s\nRun 'vdk help' for usage", args[0])
	}
}

func usage() error {
	fmt.Print(`vdk - AI context artifact migration toolkit

COMMANDS
  init      Initialize a .vdk workspace in the project root
  detect    Discover AI context artifacts without converting them
  migrate   Convert discovered artifacts into canonical records
  validate  Validate a canonical record document
  help      Show this help
  version   Show version information

EXAMPLES
  vdk init                             # Set up .vdk/ in the current project
  vdk detect                           # List detected context artifacts
  vdk migrate                          # Run the full migration pipeline
  vdk migrate --workers 4 --force      # Parallel run, re-migrate canonical files
  vdk validate .vdk/records/mem-claude.md

Run 'vdk <command> --help' for command flags.
`)
	return nil
}
