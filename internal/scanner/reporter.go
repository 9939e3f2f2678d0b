package scanner

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/harrison/mapscan/internal/rules"
)

// Reporter counts rule matches and prints one line per match. Workers call
// OnMatch concurrently; the counter and the output each have their own lock
// and the two are never held together.
type Reporter struct {
	stats *Stats

	mu       sync.Mutex
	out      io.Writer
	quiet    bool
	useColor bool
}

// NewReporter returns a reporter counting into stats and writing to out.
// A nil out or quiet suppresses the match lines but not the counting.
func NewReporter(stats *Stats, out io.Writer, quiet, useColor bool) *Reporter {
	return &Reporter{stats: stats, out: out, quiet: quiet, useColor: useColor}
}

// OnMatch records a match of rule in the file at path.
// Format: "FOUND: <path> -> Rule: <name>"
func (r *Reporter) OnMatch(rule rules.Rule, path string) {
	r.stats.addMatch()

	if r.quiet || r.out == nil {
		return
	}

	var line string
	if r.useColor {
		found := color.New(color.FgRed, color.Bold).Sprint("FOUND:")
		name := color.New(color.FgYellow).Sprint(rule.Name)
		line = fmt.Sprintf("%s %s -> Rule: %s\n", found, path, name)
	} else {
		line = fmt.Sprintf("FOUND: %s -> Rule: %s\n", path, rule.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Output failures must not affect the scan.
	_, _ = io.WriteString(r.out, line)
}
