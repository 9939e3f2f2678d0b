// Package rules compiles and evaluates a YARA-style rule language subset.
//
// A Ruleset is immutable once compiled and Scan may be called from any
// number of goroutines at once.
package rules

import "github.com/cloudflare/ahocorasick"

// DefaultMatchLimit caps the occurrences counted for a single string in one
// buffer.
const DefaultMatchLimit = 1000000

// Rule describes a compiled rule.
type Rule struct {
	Name    string
	Tags    []string
	Meta    map[string]string
	Private bool
	Global  bool
	File    string // source the rule was compiled from
}

// MatchFunc receives each satisfied rule. ctx is passed through from Scan
// unchanged, typically the path of the scanned file.
type MatchFunc func(rule Rule, ctx string)

// Source is one named rule text.
type Source struct {
	Name string
	Data []byte
}

// Ruleset is a set of compiled rules.
type Ruleset struct {
	rules      []*compiledRule
	patterns   []*pattern
	matchLimit int

	// automaton holds every case-sensitive literal; nil when there are none.
	automaton  *ahocorasick.Matcher
	dictionary [][]byte
}

// Compile parses every source into one ruleset. Any error aborts the whole
// compilation; use a Compiler to skip broken sources instead.
func Compile(sources ...Source) (*Ruleset, error) {
	c := NewCompiler()
	for _, src := range sources {
		if err := c.Add(src); err != nil {
			return nil, err
		}
	}
	return c.Ruleset()
}

// Compiler accumulates sources one at a time. A source that fails to parse
// leaves the compiler unchanged, so later sources can still be added.
type Compiler struct {
	rules []*compiledRule
	names map[string]int
}

// NewCompiler returns an empty compiler.
func NewCompiler() *Compiler {
	return &Compiler{names: make(map[string]int)}
}

// Add parses src. Rules may reference rules added earlier.
func (c *Compiler) Add(src Source) error {
	parsed, err := parseSource(src.Name, src.Data, c.names, len(c.rules))
	if err != nil {
		return err
	}
	for _, r := range parsed {
		c.names[r.Name] = len(c.rules)
		c.rules = append(c.rules, r)
	}
	return nil
}

// Len returns the number of rules accepted so far.
func (c *Compiler) Len() int {
	return len(c.rules)
}

// Ruleset builds the ruleset from every accepted source. It returns
// ErrNoRules when nothing was accepted.
func (c *Compiler) Ruleset() (*Ruleset, error) {
	if len(c.rules) == 0 {
		return nil, ErrNoRules
	}

	rs := &Ruleset{rules: c.rules, matchLimit: DefaultMatchLimit}
	slots := make(map[string]int)
	for _, r := range rs.rules {
		for _, p := range r.patterns {
			p.gid = len(rs.patterns)
			rs.patterns = append(rs.patterns, p)
			if !p.usesAutomaton() {
				continue
			}
			p.acIndex = p.acIndex[:0]
			for _, needle := range p.needles {
				slot, ok := slots[string(needle)]
				if !ok {
					slot = len(rs.dictionary)
					slots[string(needle)] = slot
					rs.dictionary = append(rs.dictionary, needle)
				}
				p.acIndex = append(p.acIndex, slot)
			}
		}
	}

	if len(rs.dictionary) > 0 {
		rs.automaton = ahocorasick.NewMatcher(rs.dictionary)
	}

	// The patterns now belong to rs; start the compiler over.
	c.rules = nil
	c.names = make(map[string]int)
	return rs, nil
}

// SetMatchLimit changes the per-string occurrence limit; n <= 0 disables it.
// It must not be called concurrently with Scan.
func (rs *Ruleset) SetMatchLimit(n int) {
	rs.matchLimit = n
}

// Len returns the number of rules, private ones included.
func (rs *Ruleset) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}

// Rules returns the compiled rules in declaration order.
func (rs *Ruleset) Rules() []Rule {
	if rs == nil {
		return nil
	}
	out := make([]Rule, len(rs.rules))
	for i, r := range rs.rules {
		out[i] = r.Rule
	}
	return out
}

// Scan evaluates every rule against data and calls onMatch for each
// satisfied non-private rule, in declaration order. If any global rule is not
// satisfied nothing is reported.
func (rs *Ruleset) Scan(data []byte, ctx string, onMatch MatchFunc) error {
	if rs == nil {
		return ErrNilRuleset
	}

	s := &scanState{
		data:    data,
		limit:   rs.matchLimit,
		results: make([]bool, len(rs.rules)),
		found:   make([]int8, len(rs.patterns)),
		counts:  make([]int, len(rs.patterns)),
	}
	for i := range s.counts {
		s.counts[i] = -1
	}

	if rs.automaton != nil {
		// Match keeps per-call state in the matcher; only the thread-safe
		// variant may be shared between workers.
		hits := rs.automaton.MatchThreadSafe(data)
		s.acHits = make([]bool, len(rs.dictionary))
		for _, slot := range hits {
			s.acHits[slot] = true
		}
	}

	globalsOK := true
	for i, r := range rs.rules {
		s.rule = r
		ok, err := r.cond.eval(s)
		if err != nil {
			return err
		}
		s.results[i] = ok
		if r.Global && !ok {
			globalsOK = false
		}
	}
	if !globalsOK || onMatch == nil {
		return nil
	}

	for i, r := range rs.rules {
		if s.results[i] && !r.Private {
			onMatch(r.Rule, ctx)
		}
	}
	return nil
}
