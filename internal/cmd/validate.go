package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/harrison/mapscan/internal/display"
	"github.com/harrison/mapscan/internal/rules"
	"github.com/spf13/cobra"
)

// NewValidateCommand creates and returns the validate subcommand
func NewValidateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <rules-dir>",
		Short: "Compile the rule files in a directory and report errors",
		Long: `Compile every rule file in rules-dir the same way scan does and print
one line per file with the first error of each broken file.

Exit code: 0 if every file compiles, 1 if some files are broken,
2 if no usable rule remains`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return &ExitError{Code: ExitFailure, Err: err}
			}
			if err := cfg.Validate(); err != nil {
				return &ExitError{Code: ExitFailure, Err: fmt.Errorf("invalid configuration: %w", err)}
			}
			out := cmd.OutOrStdout()
			return validateRulesDir(args[0], cfg.RuleExtensions, out, resolveColor(cfg.Color, out))
		},
	}

	cmd.Flags().String("config", "", "Path to config file (default: .mapscan/config.yaml)")

	return cmd
}

// fileOutcome is one rule file and its compile error, if any.
type fileOutcome struct {
	path string
	err  error
}

// validateRulesDir compiles dir and writes the per-file report to output
func validateRulesDir(dir string, exts []string, output io.Writer, useColor bool) error {
	ruleset, result, err := rules.LoadDir(dir, exts)
	if result == nil {
		return &ExitError{Code: ExitFailure, Err: err}
	}

	var outcomes []fileOutcome
	var dirErrors []string
	for _, path := range result.Loaded {
		outcomes = append(outcomes, fileOutcome{path: path})
	}
	for _, s := range result.Skipped {
		if s.Path == "" {
			dirErrors = append(dirErrors, s.Err.Error())
			continue
		}
		outcomes = append(outcomes, fileOutcome{path: s.Path, err: s.Err})
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].path < outcomes[j].path })

	progress := display.NewProgressIndicator(output, len(outcomes), useColor)
	progress.Start(dir)
	for _, o := range outcomes {
		progress.Step(o.path, o.err)
	}
	progress.Complete(ruleset.Len())

	if len(dirErrors) > 0 {
		display.Warning{
			Title: "Some directories could not be read",
			Files: dirErrors,
		}.Display(output, useColor)
	}

	if err != nil {
		if errors.Is(err, rules.ErrNoRules) {
			return &ExitError{Code: ExitNoRules, Err: err}
		}
		return &ExitError{Code: ExitFailure, Err: err}
	}
	if progress.Failed() > 0 {
		return &ExitError{Code: ExitFailure, Err: fmt.Errorf("%d of %d rule files failed to compile", progress.Failed(), len(outcomes))}
	}
	return nil
}
