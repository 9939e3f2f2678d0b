// Package display provides terminal output helpers for the mapscan CLI.
//
// # Warning Messages
//
// Display warnings with optional components:
//
//	warning := display.Warning{
//	    Title:      "Configuration Issue",
//	    Message:    "workers is negative",
//	    Files:      []string{".mapscan/config.yaml"},
//	    Suggestion: "Set workers to 0 to use one per CPU",
//	}
//	warning.Display(os.Stderr, useColor)
//
// Rule files that LoadDir skipped have a ready-made warning:
//
//	display.WarnSkippedRules(rulesDir, result.Skipped).Display(os.Stderr, useColor)
//
// # Progress Indicators
//
// ProgressIndicator reports per-file outcomes for `mapscan validate`:
//
//	progress := display.NewProgressIndicator(os.Stdout, len(files), useColor)
//	progress.Start(dir)
//	for _, f := range files {
//	    progress.Step(f.Path, f.Err)
//	}
//	progress.Complete(ruleCount)
//
// # ANSI Colors
//
// Colors are plain ANSI escape codes, emitted only when the caller asks:
//   - Cyan for progress lines
//   - Green for valid files
//   - Red for failed files
//   - Yellow for warnings
//
// All functions accept io.Writer interfaces for testability.
package display
