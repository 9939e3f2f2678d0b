package rules

import "fmt"

// Quantifiers for "any of" and "all of"; positive values mean "N of".
const (
	quantAny = -1
	quantAll = -2
)

type boolExpr interface {
	eval(s *scanState) (bool, error)
}

type intExpr interface {
	value(s *scanState) (int64, error)
}

type constExpr bool

func (c constExpr) eval(*scanState) (bool, error) { return bool(c), nil }

type andExpr struct{ left, right boolExpr }

func (e *andExpr) eval(s *scanState) (bool, error) {
	ok, err := e.left.eval(s)
	if err != nil || !ok {
		return false, err
	}
	return e.right.eval(s)
}

type orExpr struct{ left, right boolExpr }

func (e *orExpr) eval(s *scanState) (bool, error) {
	ok, err := e.left.eval(s)
	if err != nil || ok {
		return ok, err
	}
	return e.right.eval(s)
}

type notExpr struct{ inner boolExpr }

func (e *notExpr) eval(s *scanState) (bool, error) {
	ok, err := e.inner.eval(s)
	return !ok, err
}

// stringExpr is true when the string at index idx of the current rule occurs.
type stringExpr struct{ idx int }

func (e *stringExpr) eval(s *scanState) (bool, error) {
	return s.matched(s.rule.patterns[e.idx]), nil
}

// ruleExpr evaluates to the result of an earlier rule.
type ruleExpr struct{ idx int }

func (e *ruleExpr) eval(s *scanState) (bool, error) {
	return s.results[e.idx], nil
}

type ofExpr struct {
	quant int
	set   []int
}

func (e *ofExpr) eval(s *scanState) (bool, error) {
	need := e.quant
	switch e.quant {
	case quantAny:
		need = 1
	case quantAll:
		need = len(e.set)
	}
	if need <= 0 {
		return true, nil
	}

	found := 0
	for i, idx := range e.set {
		if s.matched(s.rule.patterns[idx]) {
			found++
			if found >= need {
				return true, nil
			}
		}
		if found+len(e.set)-i-1 < need {
			return false, nil
		}
	}
	return false, nil
}

type compareExpr struct {
	op          string
	left, right intExpr
}

func (e *compareExpr) eval(s *scanState) (bool, error) {
	l, err := e.left.value(s)
	if err != nil {
		return false, err
	}
	r, err := e.right.value(s)
	if err != nil {
		return false, err
	}
	switch e.op {
	case "<":
		return l < r, nil
	case "<=":
		return l <= r, nil
	case ">":
		return l > r, nil
	case ">=":
		return l >= r, nil
	case "==":
		return l == r, nil
	case "!=":
		return l != r, nil
	}
	return false, fmt.Errorf("unknown operator %q", e.op)
}

type intConst int64

func (c intConst) value(*scanState) (int64, error) { return int64(c), nil }

type filesizeExpr struct{}

func (filesizeExpr) value(s *scanState) (int64, error) { return int64(len(s.data)), nil }

// countExpr is the number of occurrences (#id) of a string of the current rule.
type countExpr struct{ idx int }

func (e *countExpr) value(s *scanState) (int64, error) {
	n, err := s.count(s.rule.patterns[e.idx])
	return int64(n), err
}

// scanState holds the per-buffer results of one Scan call. Pattern results
// are computed lazily and memoized, so a string shared by several condition
// terms is searched at most once per mode.
type scanState struct {
	data    []byte
	limit   int
	rule    *compiledRule
	results []bool

	// acHits is indexed by automaton dictionary slot; nil when the ruleset
	// has no case-sensitive literals.
	acHits []bool

	found  []int8 // by pattern gid: 0 unknown, 1 found, -1 absent
	counts []int  // by pattern gid: -1 unknown
}

func (s *scanState) candidate(p *pattern) bool {
	if !p.usesAutomaton() || s.acHits == nil {
		return true
	}
	for _, slot := range p.acIndex {
		if s.acHits[slot] {
			return true
		}
	}
	return false
}

func (s *scanState) matched(p *pattern) bool {
	switch s.found[p.gid] {
	case 1:
		return true
	case -1:
		return false
	}

	ok := false
	switch {
	case !s.candidate(p):
	case p.usesAutomaton() && s.acHits != nil && !p.mods.fullword:
		ok = true
	default:
		p.search(s.data, func(int, int) bool {
			ok = true
			return false
		})
	}

	if ok {
		s.found[p.gid] = 1
	} else {
		s.found[p.gid] = -1
	}
	return ok
}

func (s *scanState) count(p *pattern) (int, error) {
	if n := s.counts[p.gid]; n >= 0 {
		return n, nil
	}
	if !s.candidate(p) {
		s.counts[p.gid] = 0
		return 0, nil
	}

	n := 0
	var err error
	p.search(s.data, func(int, int) bool {
		n++
		if s.limit > 0 && n > s.limit {
			err = fmt.Errorf("string %s in rule %s: %w", p.id, s.rule.Name, ErrTooManyMatches)
			return false
		}
		return true
	})
	if err != nil {
		return 0, err
	}

	s.counts[p.gid] = n
	if n > 0 {
		s.found[p.gid] = 1
	} else {
		s.found[p.gid] = -1
	}
	return n, nil
}
