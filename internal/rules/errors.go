package rules

import (
	"errors"
	"fmt"
)

// Sentinel errors. Use errors.Is to check for them.
var (
	// ErrNoRules is returned when a rules directory yields no usable rule.
	ErrNoRules = errors.New("no usable rules compiled")

	// ErrSyntax is wrapped by every CompileError.
	ErrSyntax = errors.New("syntax error")

	// ErrTooManyMatches is returned by Scan when a single string produces
	// more hits than the ruleset's match limit.
	ErrTooManyMatches = errors.New("too many matches")

	// ErrNilRuleset is returned when Scan is called on a nil ruleset.
	ErrNilRuleset = errors.New("ruleset is nil")
)

// CompileError describes a problem in a rule source at a given line.
type CompileError struct {
	File string // Source name, usually the rule file path
	Line int    // 1-based line number, 0 when unknown
	Msg  string // Human-readable description
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Msg)
}

// Unwrap lets errors.Is(err, ErrSyntax) match compile errors.
func (e *CompileError) Unwrap() error {
	return ErrSyntax
}
