package rules

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type patternKind int

const (
	kindText patternKind = iota
	kindHex
	kindRegex
)

// modifiers that may follow a string definition
type modifiers struct {
	nocase   bool
	wide     bool
	ascii    bool
	fullword bool
	private  bool
}

// pattern is one compiled string definition of a rule.
type pattern struct {
	id   string
	gid  int // index across the whole ruleset
	kind patternKind
	mods modifiers

	// needles are the exact byte sequences of a text string (ascii and/or
	// wide forms). Case-sensitive needles are also registered in the
	// ruleset's Aho-Corasick automaton; acIndex holds their dictionary slots.
	needles [][]byte
	acIndex []int

	hex *hexPattern
	re  *regexp.Regexp
}

func compilePattern(id string, v patternValue, mods modifiers) (*pattern, error) {
	p := &pattern{id: id, kind: v.kind, mods: mods}

	switch v.kind {
	case kindText:
		if v.text == "" {
			return nil, fmt.Errorf("string %s is empty", id)
		}
		ascii := mods.ascii || !mods.wide
		if ascii {
			p.needles = append(p.needles, []byte(v.text))
		}
		if mods.wide {
			p.needles = append(p.needles, toWide([]byte(v.text)))
		}

	case kindHex:
		if mods.nocase || mods.wide || mods.ascii || mods.fullword {
			return nil, fmt.Errorf("string %s: modifiers are not allowed on hex strings", id)
		}
		hp, err := parseHex(v.text)
		if err != nil {
			return nil, fmt.Errorf("string %s: %w", id, err)
		}
		p.hex = hp

	case kindRegex:
		if mods.wide {
			return nil, fmt.Errorf("string %s: wide is not supported on regular expressions", id)
		}
		expr := v.text
		var flags string
		if mods.nocase || strings.Contains(v.flags, "i") {
			flags += "i"
		}
		if strings.Contains(v.flags, "s") {
			flags += "s"
		}
		if flags != "" {
			expr = "(?" + flags + ")" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("string %s: invalid regular expression: %w", id, err)
		}
		p.re = re
	}

	return p, nil
}

// toWide interleaves zero bytes, turning ASCII text into UTF-16LE.
func toWide(b []byte) []byte {
	out := make([]byte, 0, len(b)*2)
	for _, c := range b {
		out = append(out, c, 0)
	}
	return out
}

// usesAutomaton reports whether the pattern's presence can be decided
// exactly from the Aho-Corasick result.
func (p *pattern) usesAutomaton() bool {
	return p.kind == kindText && !p.mods.nocase
}

// search calls hit for every match start/end offset in data, stopping early
// when hit returns false. Offsets overlap the way YARA reports them for
// text and hex strings; regular expressions report non-overlapping matches.
func (p *pattern) search(data []byte, hit func(start, end int) bool) {
	switch p.kind {
	case kindText:
		for _, needle := range p.needles {
			if !searchLiteral(data, needle, p.mods.nocase, func(s, e int) bool {
				if p.mods.fullword && !isFullword(data, s, e) {
					return true
				}
				return hit(s, e)
			}) {
				return
			}
		}

	case kindHex:
		p.hex.search(data, hit)

	case kindRegex:
		searchRegex(p.re, data, func(s, e int) bool {
			if p.mods.fullword && !isFullword(data, s, e) {
				return true
			}
			return hit(s, e)
		})
	}
}

// searchRegex reports the non-overlapping matches of re in data. Matches are
// requested in doubling batches so a caller that stops early never pays for
// the full match list.
func searchRegex(re *regexp.Regexp, data []byte, hit func(start, end int) bool) {
	seen := 0
	for batch := 1; ; batch *= 2 {
		locs := re.FindAllIndex(data, batch)
		for _, loc := range locs[seen:] {
			if !hit(loc[0], loc[1]) {
				return
			}
		}
		if len(locs) < batch {
			return
		}
		seen = len(locs)
	}
}

// searchLiteral reports every overlapping occurrence of needle. It returns
// false if hit asked to stop.
func searchLiteral(data, needle []byte, nocase bool, hit func(start, end int) bool) bool {
	if !nocase {
		off := 0
		for off <= len(data)-len(needle) {
			i := bytes.Index(data[off:], needle)
			if i < 0 {
				return true
			}
			start := off + i
			if !hit(start, start+len(needle)) {
				return false
			}
			off = start + 1
		}
		return true
	}

	first := needle[0]
	lo, up := toLower(first), toUpper(first)
	for i := 0; i <= len(data)-len(needle); i++ {
		c := data[i]
		if c != lo && c != up {
			continue
		}
		if equalFold(data[i:i+len(needle)], needle) {
			if !hit(i, i+len(needle)) {
				return false
			}
		}
	}
	return true
}

func toLower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func toUpper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}

// equalFold compares two equal-length byte slices with ASCII case folding.
func equalFold(a, b []byte) bool {
	for i := range a {
		if toLower(a[i]) != toLower(b[i]) {
			return false
		}
	}
	return true
}

func isAlnum(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// isFullword reports whether data[start:end] is delimited by non-alphanumeric
// bytes (or the buffer boundaries).
func isFullword(data []byte, start, end int) bool {
	if start > 0 && isAlnum(data[start-1]) {
		return false
	}
	if end < len(data) && isAlnum(data[end]) {
		return false
	}
	return true
}

// hexElem is one element of a hex string: a masked byte, a jump or a group
// of alternatives.
type hexElem struct {
	value, mask byte

	jump         bool
	jumpMin      int
	jumpMax      int // -1 means unbounded
	alternatives [][]hexElem
}

type hexPattern struct {
	elems []hexElem
}

// parseHex parses the body of a hex string such as "4D 5A ?? [2-4] (90|CC)".
func parseHex(body string) (*hexPattern, error) {
	hp := &hexPattern{}
	fields := tokenizeHex(body)
	elems, rest, err := parseHexSeq(fields, false)
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("unexpected %q in hex string", rest[0])
	}
	if len(elems) == 0 {
		return nil, fmt.Errorf("empty hex string")
	}
	if elems[0].jump || elems[len(elems)-1].jump {
		return nil, fmt.Errorf("hex string cannot start or end with a jump")
	}
	hp.elems = elems
	return hp, nil
}

// tokenizeHex splits a hex body into byte tokens, jumps and group delimiters.
func tokenizeHex(body string) []string {
	var out []string
	i := 0
	for i < len(body) {
		c := body[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(' || c == ')' || c == '|':
			out = append(out, string(c))
			i++
		case c == '[':
			j := strings.IndexByte(body[i:], ']')
			if j < 0 {
				out = append(out, body[i:])
				return out
			}
			out = append(out, body[i:i+j+1])
			i += j + 1
		default:
			if i+2 <= len(body) {
				out = append(out, body[i:i+2])
				i += 2
			} else {
				out = append(out, body[i:])
				i = len(body)
			}
		}
	}
	return out
}

func parseHexSeq(fields []string, inGroup bool) ([]hexElem, []string, error) {
	var elems []hexElem
	for len(fields) > 0 {
		f := fields[0]
		switch {
		case f == ")" || f == "|":
			if !inGroup {
				return nil, nil, fmt.Errorf("unexpected %q in hex string", f)
			}
			return elems, fields, nil

		case f == "(":
			fields = fields[1:]
			var alts [][]hexElem
			for {
				alt, rest, err := parseHexSeq(fields, true)
				if err != nil {
					return nil, nil, err
				}
				if len(alt) == 0 {
					return nil, nil, fmt.Errorf("empty alternative in hex string")
				}
				alts = append(alts, alt)
				if len(rest) == 0 {
					return nil, nil, fmt.Errorf("unterminated group in hex string")
				}
				fields = rest[1:]
				if rest[0] == ")" {
					break
				}
			}
			elems = append(elems, hexElem{alternatives: alts})

		case strings.HasPrefix(f, "["):
			j, err := parseJump(f)
			if err != nil {
				return nil, nil, err
			}
			if inGroup && j.jumpMax < 0 {
				return nil, nil, fmt.Errorf("unbounded jump not allowed inside alternatives")
			}
			elems = append(elems, j)
			fields = fields[1:]

		default:
			e, err := parseHexByte(f)
			if err != nil {
				return nil, nil, err
			}
			elems = append(elems, e)
			fields = fields[1:]
		}
	}
	return elems, nil, nil
}

func parseJump(f string) (hexElem, error) {
	if !strings.HasSuffix(f, "]") {
		return hexElem{}, fmt.Errorf("unterminated jump %q", f)
	}
	inner := strings.TrimSpace(f[1 : len(f)-1])
	e := hexElem{jump: true}

	loText, hiText, isRange := strings.Cut(inner, "-")
	loText, hiText = strings.TrimSpace(loText), strings.TrimSpace(hiText)

	if loText != "" || !isRange {
		lo, err := strconv.Atoi(loText)
		if err != nil || lo < 0 {
			return hexElem{}, fmt.Errorf("invalid jump %q", f)
		}
		e.jumpMin = lo
	}

	switch {
	case !isRange:
		e.jumpMax = e.jumpMin
	case hiText == "":
		e.jumpMax = -1
	default:
		hi, err := strconv.Atoi(hiText)
		if err != nil || hi < e.jumpMin {
			return hexElem{}, fmt.Errorf("invalid jump %q", f)
		}
		e.jumpMax = hi
	}
	return e, nil
}

func parseHexByte(f string) (hexElem, error) {
	if len(f) != 2 {
		return hexElem{}, fmt.Errorf("invalid hex byte %q", f)
	}
	var e hexElem
	for i := 0; i < 2; i++ {
		shift := uint(4 * (1 - i))
		c := f[i]
		if c == '?' {
			continue
		}
		v, ok := hexDigit(c)
		if !ok {
			return hexElem{}, fmt.Errorf("invalid hex byte %q", f)
		}
		e.value |= v << shift
		e.mask |= 0xF << shift
	}
	return e, nil
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// search reports one hit per start offset at which the pattern matches,
// using the shortest match from that offset.
func (hp *hexPattern) search(data []byte, hit func(start, end int) bool) {
	first := hp.elems[0]
	exactFirst := first.alternatives == nil && first.mask == 0xFF
	m := newHexMatcher(hp, data)

	for i := 0; i < len(data); i++ {
		if exactFirst {
			j := bytes.IndexByte(data[i:], first.value)
			if j < 0 {
				return
			}
			i += j
		}
		if end, ok := m.match(0, i); ok {
			if !hit(i, end) {
				return
			}
		}
	}
}

// hexMatcher matches one hex pattern against one buffer. Whether the suffix
// elems[k:] matches at an offset does not depend on where the match started,
// so failures are remembered per (element, offset) and every offset is
// tried at most once per element.
type hexMatcher struct {
	elems []hexElem
	data  []byte

	// failed holds one bitset of offsets per element that backtracking can
	// reach more than once; rows are allocated on first use.
	failed [][]uint64

	// failFrom and reach serve unbounded jumps: every candidate offset at
	// or past failFrom[k] is known to fail, and reach[k] caches the nearest
	// candidate that succeeds.
	failFrom []int
	reach    []jumpReach
}

// jumpReach records that the nearest matching candidate for any offset in
// [from, at] is at, with the match ending at end.
type jumpReach struct {
	from, at, end int
	ok            bool
}

func newHexMatcher(hp *hexPattern, data []byte) *hexMatcher {
	m := &hexMatcher{
		elems:    hp.elems,
		data:     data,
		failed:   make([][]uint64, len(hp.elems)),
		failFrom: make([]int, len(hp.elems)),
		reach:    make([]jumpReach, len(hp.elems)),
	}
	for k := range m.failFrom {
		m.failFrom[k] = len(data) + 1
	}
	return m
}

// revisited reports whether elems[k] can be entered at the same offset by
// more than one path, which only happens right after a jump or a group.
func (m *hexMatcher) revisited(k int) bool {
	if k == 0 {
		return false
	}
	prev := m.elems[k-1]
	return prev.jump || prev.alternatives != nil
}

func (m *hexMatcher) knownFailure(k, pos int) bool {
	row := m.failed[k]
	return row != nil && row[pos/64]&(1<<(uint(pos)%64)) != 0
}

func (m *hexMatcher) markFailure(k, pos int) {
	if m.failed[k] == nil {
		m.failed[k] = make([]uint64, len(m.data)/64+1)
	}
	m.failed[k][pos/64] |= 1 << (uint(pos) % 64)
}

// match tries elems[k:] at data[pos:] and returns the end offset.
func (m *hexMatcher) match(k, pos int) (int, bool) {
	if k == len(m.elems) {
		return pos, true
	}
	if pos > len(m.data) {
		return 0, false
	}
	memo := m.revisited(k)
	if memo && m.knownFailure(k, pos) {
		return 0, false
	}
	end, ok := m.step(k, pos)
	if !ok && memo {
		m.markFailure(k, pos)
	}
	return end, ok
}

func (m *hexMatcher) step(k, pos int) (int, bool) {
	e := m.elems[k]

	switch {
	case e.jump && e.jumpMax < 0:
		return m.unbounded(k, pos+e.jumpMin)

	case e.jump:
		limit := pos + e.jumpMax
		if limit > len(m.data) {
			limit = len(m.data)
		}
		for p := pos + e.jumpMin; p <= limit; p++ {
			if end, ok := m.match(k+1, p); ok {
				return end, true
			}
		}
		return 0, false

	case e.alternatives != nil:
		next := func(p int) (int, bool) { return m.match(k+1, p) }
		for _, alt := range e.alternatives {
			if end, ok := matchGroup(alt, m.data, pos, next); ok {
				return end, true
			}
		}
		return 0, false

	default:
		if pos >= len(m.data) || m.data[pos]&e.mask != e.value {
			return 0, false
		}
		return m.match(k+1, pos+1)
	}
}

// unbounded finds the nearest candidate offset at or past q where
// elems[k+1:] matches. Candidates for a larger q are a subset of those for
// a smaller one, so a failed search bounds all later ones.
func (m *hexMatcher) unbounded(k, q int) (int, bool) {
	r := &m.reach[k]
	if r.ok && q >= r.from && q <= r.at {
		return r.end, true
	}

	stop := m.failFrom[k]
	viaReach := r.ok && q < r.from
	if viaReach {
		stop = r.from
	}
	for p := q; p < stop; p++ {
		if end, ok := m.match(k+1, p); ok {
			*r = jumpReach{from: q, at: p, end: end, ok: true}
			return end, true
		}
	}

	if viaReach {
		r.from = q
		return r.end, true
	}
	if q < m.failFrom[k] {
		m.failFrom[k] = q
	}
	return 0, false
}

// matchGroup matches one alternative of a group at data[pos:] and then
// hands over to next for the elements that follow the group. Jumps inside
// groups are bounded, so the backtracking here is bounded by the rule.
func matchGroup(elems []hexElem, data []byte, pos int, next func(int) (int, bool)) (int, bool) {
	if len(elems) == 0 {
		return next(pos)
	}
	e := elems[0]
	rest := elems[1:]

	switch {
	case e.jump:
		limit := pos + e.jumpMax
		if limit > len(data) {
			limit = len(data)
		}
		for p := pos + e.jumpMin; p <= limit; p++ {
			if end, ok := matchGroup(rest, data, p, next); ok {
				return end, true
			}
		}
		return 0, false

	case e.alternatives != nil:
		after := func(p int) (int, bool) { return matchGroup(rest, data, p, next) }
		for _, alt := range e.alternatives {
			if end, ok := matchGroup(alt, data, pos, after); ok {
				return end, true
			}
		}
		return 0, false

	default:
		if pos >= len(data) || data[pos]&e.mask != e.value {
			return 0, false
		}
		return matchGroup(rest, data, pos+1, next)
	}
}
