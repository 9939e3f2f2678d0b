package display

import (
	"fmt"
	"io"
	"path/filepath"
)

const (
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
	ansiReset  = "\x1b[0m"
)

// ProgressIndicator reports per-file results while rule files are checked
type ProgressIndicator struct {
	writer     io.Writer
	totalFiles int
	current    int
	failed     int
	useColor   bool
}

// NewProgressIndicator creates a new progress indicator
func NewProgressIndicator(w io.Writer, total int, useColor bool) *ProgressIndicator {
	return &ProgressIndicator{
		writer:     w,
		totalFiles: total,
		useColor:   useColor,
	}
}

func (p *ProgressIndicator) paint(code, s string) string {
	if !p.useColor {
		return s
	}
	return code + s + ansiReset
}

// Start displays the header message
func (p *ProgressIndicator) Start(dir string) {
	fmt.Fprintf(p.writer, "Checking rule files in %s:\n", dir)
}

// Step displays the result for one file: [N/Total] filename ok|FAILED
func (p *ProgressIndicator) Step(filename string, err error) {
	p.current++
	prefix := p.paint(ansiCyan, fmt.Sprintf("  [%d/%d] %s", p.current, p.totalFiles, filepath.Base(filename)))
	if err == nil {
		fmt.Fprintf(p.writer, "%s %s\n", prefix, p.paint(ansiGreen, "ok"))
		return
	}
	p.failed++
	fmt.Fprintf(p.writer, "%s %s\n", prefix, p.paint(ansiRed, "FAILED"))
	fmt.Fprintf(p.writer, "        %s\n", errorLine(err))
}

// Complete displays the totals
func (p *ProgressIndicator) Complete(rulesCompiled int) {
	valid := p.current - p.failed
	if p.failed == 0 {
		fmt.Fprintf(p.writer, "%s %d rule files valid, %d rules\n", p.paint(ansiGreen, "✓"), valid, rulesCompiled)
		return
	}
	fmt.Fprintf(p.writer, "%s %d of %d rule files valid, %d rules\n", p.paint(ansiYellow, "!"), valid, p.current, rulesCompiled)
}

// Failed returns the number of files reported with an error
func (p *ProgressIndicator) Failed() int {
	return p.failed
}
