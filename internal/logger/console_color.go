package logger

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/harrison/mapscan/internal/models"
)

// colorScheme defines consistent colors for summary metrics.
// Green: clean results
// Red: errors and detections
// Yellow: skipped input
// Cyan: labels
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	warn    *color.Color
	label   *color.Color
	header  *color.Color
}

// newColorScheme creates the standard color scheme for metrics.
func newColorScheme() *colorScheme {
	return &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		label:   color.New(color.FgCyan),
		header:  color.New(color.Bold),
	}
}

// metric formats "label: value". With a nil scheme the text is plain;
// otherwise the label is cyan and the value uses valueColor when non-nil.
func metric(scheme *colorScheme, label, value string, valueColor *color.Color) string {
	if scheme == nil {
		return fmt.Sprintf("%s: %s", label, value)
	}
	if valueColor != nil {
		value = valueColor.Sprint(value)
	}
	return fmt.Sprintf("%s: %s", scheme.label.Sprint(label), value)
}

// countColor picks red for non-zero bad counts and green for zero.
func countColor(scheme *colorScheme, n uint64, bad *color.Color) *color.Color {
	if scheme == nil {
		return nil
	}
	if n > 0 {
		return bad
	}
	return scheme.success
}

// summaryLines renders the scan summary. scheme may be nil for plain text.
func summaryLines(stats models.ScanStats, scheme *colorScheme) []string {
	header := "=== Scan Summary ==="
	if scheme != nil {
		header = scheme.header.Sprint(header)
	}

	var failColor, warnColor *color.Color
	if scheme != nil {
		failColor, warnColor = scheme.fail, scheme.warn
	}

	lines := []string{
		header,
		metric(scheme, "Files queued", humanize.Comma(int64(stats.FilesQueued)), nil),
		metric(scheme, "Files scanned", humanize.Comma(int64(stats.FilesScanned)), nil),
		metric(scheme, "Empty files", humanize.Comma(int64(stats.EmptyFiles)), nil),
		metric(scheme, "Errors", humanize.Comma(int64(stats.Errors)), countColor(scheme, stats.Errors, failColor)),
		metric(scheme, "Matches", humanize.Comma(int64(stats.MatchesFound)), countColor(scheme, stats.MatchesFound, failColor)),
	}
	if stats.DirsSkipped > 0 {
		lines = append(lines, metric(scheme, "Directories skipped", humanize.Comma(int64(stats.DirsSkipped)), warnColor))
	}
	lines = append(lines,
		metric(scheme, "Data scanned", humanize.IBytes(stats.BytesScanned), nil),
		metric(scheme, "Duration", formatDuration(stats.Duration), nil),
		metric(scheme, "Throughput", fmt.Sprintf("%s files/s, %s/s",
			humanize.CommafWithDigits(stats.FilesPerSecond(), 1),
			humanize.IBytes(uint64(stats.BytesPerSecond()))), nil),
	)
	return lines
}
