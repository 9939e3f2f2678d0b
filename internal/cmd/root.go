package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for mapscan
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mapscan",
		Short: "Concurrent rule-based file scanner",
		Long: `mapscan compiles a directory of YARA-style rule files and scans every
regular file below a directory tree with them.

Files are memory-mapped and scanned by a pool of workers while a single
walker feeds the queue. Each rule match is printed as one line and a summary
with counters and throughput is printed at the end.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
		// main prints the error once and maps it to an exit code
		SilenceErrors: true,
	}

	cmd.AddCommand(NewScanCommand())
	cmd.AddCommand(NewValidateCommand())
	cmd.AddCommand(NewInitCommand())

	return cmd
}
