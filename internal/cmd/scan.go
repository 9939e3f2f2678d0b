package cmd

import (
	"errors"
	"fmt"

	"github.com/harrison/mapscan/internal/display"
	"github.com/harrison/mapscan/internal/logger"
	"github.com/harrison/mapscan/internal/rules"
	"github.com/harrison/mapscan/internal/scanner"
	"github.com/spf13/cobra"
)

// NewScanCommand creates the scan command
func NewScanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [rules-dir] <scan-dir>",
		Short: "Scan a directory tree with a directory of rules",
		Long: `Compile every rule file in rules-dir and scan all regular files below
scan-dir with the resulting rules.

Rule files that fail to compile are reported and skipped; the scan runs with
the remaining rules. If no rule is usable the command exits with status 2
before anything is scanned. Symbolic links are never followed.

Each match is printed to stdout as:
  FOUND: <path> -> Rule: <name>
Log lines and the final summary go to stderr.

Configuration is loaded from .mapscan/config.yaml (or $MAPSCAN_HOME/config.yaml)
if present. CLI flags override configuration file settings. When rules_dir is
set in the configuration the rules-dir argument may be omitted.

Examples:
  mapscan scan ./rules /srv/uploads
  mapscan scan --workers 16 ./rules /srv/uploads
  mapscan scan --quiet --log-dir ./logs ./rules /home
  mapscan scan --verbose ./rules .`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runScan,
	}

	cmd.Flags().String("config", "", "Path to config file (default: .mapscan/config.yaml)")
	cmd.Flags().Int("workers", 0, "Number of scan workers (0 = one per CPU)")
	cmd.Flags().String("log-level", "", "Log level: trace, debug, info, warn, error")
	cmd.Flags().String("log-dir", "", "Directory for per-run log files")
	cmd.Flags().String("color", "", "Color output: auto, always, never")
	cmd.Flags().BoolP("quiet", "q", false, "Do not print match lines, only the summary")
	cmd.Flags().BoolP("verbose", "v", false, "Log skipped files and directories (same as --log-level debug)")

	return cmd
}

// runScan implements the scan command logic
func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	workersFlag, _ := cmd.Flags().GetInt("workers")
	logLevelFlag, _ := cmd.Flags().GetString("log-level")
	logDirFlag, _ := cmd.Flags().GetString("log-dir")
	colorFlag, _ := cmd.Flags().GetString("color")
	quietFlag, _ := cmd.Flags().GetBool("quiet")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if verbose && cmd.Flags().Changed("log-level") {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("cannot use both --verbose and --log-level")}
	}

	// Build flag pointers for merge (only explicitly set values)
	var workersPtr *int
	if cmd.Flags().Changed("workers") {
		workersPtr = &workersFlag
	}
	var logLevelPtr *string
	if cmd.Flags().Changed("log-level") {
		logLevelPtr = &logLevelFlag
	} else if verbose {
		debug := "debug"
		logLevelPtr = &debug
	}
	var logDirPtr *string
	if cmd.Flags().Changed("log-dir") {
		logDirPtr = &logDirFlag
	}
	var colorPtr *string
	if cmd.Flags().Changed("color") {
		colorPtr = &colorFlag
	}
	var quietPtr *bool
	if cmd.Flags().Changed("quiet") {
		quietPtr = &quietFlag
	}

	cfg.MergeWithFlags(workersPtr, logLevelPtr, logDirPtr, colorPtr, quietPtr)

	if err := cfg.Validate(); err != nil {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("invalid configuration: %w", err)}
	}

	var rulesDir, scanDir string
	if len(args) == 2 {
		rulesDir, scanDir = args[0], args[1]
	} else {
		if cfg.RulesDir == "" {
			return &ExitError{Code: ExitFailure, Err: fmt.Errorf("no rules directory given and rules_dir is not configured")}
		}
		rulesDir, scanDir = cfg.RulesDir, args[0]
	}

	out := cmd.OutOrStdout()
	errOut := cmd.ErrOrStderr()
	useColor := resolveColor(cfg.Color, out)

	console := logger.NewConsoleLogger(errOut, cfg.LogLevel)
	console.SetColorOutput(resolveColor(cfg.Color, errOut))

	var log logger.Logger = console
	if cfg.LogDir != "" {
		fileLog, err := logger.NewFileLogger(cfg.LogDir, cfg.LogLevel)
		if err != nil {
			return &ExitError{Code: ExitFailure, Err: fmt.Errorf("failed to create file logger: %w", err)}
		}
		defer fileLog.Close()
		log = logger.NewMulti(console, fileLog)
	}

	ruleset, result, err := rules.LoadDir(rulesDir, cfg.RuleExtensions)
	if result != nil && len(result.Skipped) > 0 {
		display.WarnSkippedRules(rulesDir, result.Skipped).Display(errOut, useColor)
		for _, s := range result.Skipped {
			log.LogDebug(fmt.Sprintf("Skipped rule file %s: %v", s.Path, s.Err))
		}
	}
	if err != nil {
		if errors.Is(err, rules.ErrNoRules) {
			log.LogError(fmt.Sprintf("No usable rules in %s, nothing scanned", rulesDir))
			return &ExitError{Code: ExitNoRules, Err: err}
		}
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("failed to load rules: %w", err)}
	}
	log.LogInfo(fmt.Sprintf("Loaded %d rules from %d files", ruleset.Len(), len(result.Loaded)))

	_, err = scanner.Run(ruleset, scanDir, scanner.Options{
		Workers: cfg.Workers,
		Logger:  log,
		Out:     out,
		Quiet:   cfg.Quiet,
		Color:   useColor,
	})
	if err != nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	return nil
}
