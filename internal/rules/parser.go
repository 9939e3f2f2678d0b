package rules

import (
	"strconv"
	"strings"
)

var keywords = map[string]bool{
	"all": true, "and": true, "any": true, "ascii": true, "condition": true,
	"false": true, "filesize": true, "fullword": true, "global": true,
	"import": true, "include": true, "meta": true, "nocase": true, "not": true,
	"of": true, "or": true, "private": true, "rule": true, "strings": true,
	"them": true, "true": true, "wide": true,
}

// compiledRule is a parsed rule ready for evaluation.
type compiledRule struct {
	Rule
	patterns []*pattern
	cond     boolExpr
}

// parser turns one rule source into compiled rules. Rule references resolve
// against known (rules accepted from earlier sources) and the rules already
// parsed from this source.
type parser struct {
	lex    *lexer
	known  map[string]int
	offset int
	rules  []*compiledRule
	local  map[string]int

	// per-rule state
	patterns   []*pattern
	patternIdx map[string]int
	referenced map[int]bool
}

func parseSource(name string, src []byte, known map[string]int, offset int) ([]*compiledRule, error) {
	p := &parser{
		lex:    newLexer(name, src),
		known:  known,
		offset: offset,
		local:  make(map[string]int),
	}
	for {
		tok, err := p.lex.peek(0)
		if err != nil {
			return nil, err
		}
		if tok.kind == tokEOF {
			break
		}
		r, err := p.parseRule()
		if err != nil {
			return nil, err
		}
		p.local[r.Name] = p.offset + len(p.rules)
		p.rules = append(p.rules, r)
	}
	if len(p.rules) == 0 {
		return nil, &CompileError{File: name, Msg: "no rules defined"}
	}
	return p.rules, nil
}

func (p *parser) expectPunct(text string) (token, error) {
	tok, err := p.lex.next()
	if err != nil {
		return tok, err
	}
	if tok.kind != tokPunct || tok.text != text {
		return tok, p.lex.errorf(tok.line, "expected %q, found %s", text, tok)
	}
	return tok, nil
}

func (p *parser) expectIdent() (token, error) {
	tok, err := p.lex.next()
	if err != nil {
		return tok, err
	}
	if tok.kind != tokIdent {
		return tok, p.lex.errorf(tok.line, "expected identifier, found %s", tok)
	}
	return tok, nil
}

// peekIs reports whether the n-th upcoming token has the given kind and text.
func (p *parser) peekIs(n int, kind tokenKind, text string) bool {
	tok, err := p.lex.peek(n)
	return err == nil && tok.kind == kind && tok.text == text
}

func (p *parser) parseRule() (*compiledRule, error) {
	r := &compiledRule{Rule: Rule{File: p.lex.file}}

	tok, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	for tok.text == "private" || tok.text == "global" {
		if tok.text == "private" {
			r.Private = true
		} else {
			r.Global = true
		}
		if tok, err = p.expectIdent(); err != nil {
			return nil, err
		}
	}
	switch tok.text {
	case "rule":
	case "import", "include":
		return nil, p.lex.errorf(tok.line, "%s is not supported", tok.text)
	default:
		return nil, p.lex.errorf(tok.line, "expected \"rule\", found %s", tok)
	}

	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if keywords[name.text] {
		return nil, p.lex.errorf(name.line, "%q is a reserved word", name.text)
	}
	if _, dup := p.local[name.text]; dup {
		return nil, p.lex.errorf(name.line, "duplicate rule %q", name.text)
	}
	if _, dup := p.known[name.text]; dup {
		return nil, p.lex.errorf(name.line, "duplicate rule %q (already defined in another file)", name.text)
	}
	r.Name = name.text

	if p.peekIs(0, tokPunct, ":") {
		p.lex.next()
		for {
			tok, err := p.lex.peek(0)
			if err != nil {
				return nil, err
			}
			if tok.kind != tokIdent {
				break
			}
			p.lex.next()
			r.Tags = append(r.Tags, tok.text)
		}
		if len(r.Tags) == 0 {
			return nil, p.lex.errorf(name.line, "expected tags after ':'")
		}
	}

	if _, err := p.expectPunct("{"); err != nil {
		return nil, err
	}

	p.patterns = nil
	p.patternIdx = make(map[string]int)
	p.referenced = make(map[int]bool)

	sawStrings := false
	for {
		tok, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		if tok.kind != tokIdent {
			return nil, p.lex.errorf(tok.line, "expected meta, strings or condition section, found %s", tok)
		}
		if _, err := p.expectPunct(":"); err != nil {
			return nil, err
		}

		switch tok.text {
		case "meta":
			if r.Meta != nil || sawStrings {
				return nil, p.lex.errorf(tok.line, "unexpected meta section")
			}
			if r.Meta, err = p.parseMeta(); err != nil {
				return nil, err
			}
			continue
		case "strings":
			if sawStrings {
				return nil, p.lex.errorf(tok.line, "duplicate strings section")
			}
			sawStrings = true
			if err := p.parseStrings(); err != nil {
				return nil, err
			}
			continue
		case "condition":
		default:
			return nil, p.lex.errorf(tok.line, "unknown section %q", tok.text)
		}

		if r.cond, err = p.parseOr(); err != nil {
			return nil, err
		}
		break
	}

	if _, err := p.expectPunct("}"); err != nil {
		return nil, err
	}

	for i, pat := range p.patterns {
		if !p.referenced[i] {
			return nil, &CompileError{File: p.lex.file, Line: name.line,
				Msg: "unreferenced string " + pat.id + " in rule " + r.Name}
		}
	}
	r.patterns = p.patterns
	return r, nil
}

func (p *parser) parseMeta() (map[string]string, error) {
	meta := make(map[string]string)
	for {
		key, err := p.lex.peek(0)
		if err != nil {
			return nil, err
		}
		if key.kind != tokIdent || !p.peekIs(1, tokPunct, "=") {
			return meta, nil
		}
		p.lex.next()
		p.lex.next()

		val, err := p.lex.next()
		if err != nil {
			return nil, err
		}
		switch {
		case val.kind == tokString:
			meta[key.text] = val.text
		case val.kind == tokInt:
			meta[key.text] = strconv.FormatInt(val.num, 10)
		case val.kind == tokIdent && (val.text == "true" || val.text == "false"):
			meta[key.text] = val.text
		default:
			return nil, p.lex.errorf(val.line, "invalid meta value %s", val)
		}
	}
}

func (p *parser) parseStrings() error {
	anon := 0
	for {
		tok, err := p.lex.peek(0)
		if err != nil {
			return err
		}
		if tok.kind != tokStringID {
			if len(p.patterns) == 0 {
				return p.lex.errorf(tok.line, "empty strings section")
			}
			return nil
		}
		p.lex.next()

		id := tok.text
		if strings.HasSuffix(id, "*") {
			return p.lex.errorf(tok.line, "invalid string identifier %s", id)
		}
		if id == "$" {
			anon++
			id = "$" + strconv.Itoa(anon) + "#anonymous"
		} else if _, dup := p.patternIdx[id]; dup {
			return p.lex.errorf(tok.line, "duplicate string identifier %s", id)
		}

		if _, err := p.expectPunct("="); err != nil {
			return err
		}
		val, err := p.lex.readPatternValue()
		if err != nil {
			return err
		}

		var mods modifiers
		for {
			m, err := p.lex.peek(0)
			if err != nil {
				return err
			}
			if m.kind != tokIdent {
				break
			}
			switch m.text {
			case "nocase":
				mods.nocase = true
			case "wide":
				mods.wide = true
			case "ascii":
				mods.ascii = true
			case "fullword":
				mods.fullword = true
			case "private":
				mods.private = true
			case "xor", "base64", "base64wide":
				return p.lex.errorf(m.line, "modifier %q is not supported", m.text)
			}
			if !isModifier(m.text) {
				break
			}
			p.lex.next()
		}

		pat, err := compilePattern(id, val, mods)
		if err != nil {
			return p.lex.errorf(val.line, "%v", err)
		}
		p.patternIdx[id] = len(p.patterns)
		p.patterns = append(p.patterns, pat)
	}
}

func isModifier(s string) bool {
	switch s {
	case "nocase", "wide", "ascii", "fullword", "private":
		return true
	}
	return false
}

func (p *parser) parseOr() (boolExpr, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peekIs(0, tokIdent, "or") {
		p.lex.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &orExpr{left, right}
	}
	return left, nil
}

func (p *parser) parseAnd() (boolExpr, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.peekIs(0, tokIdent, "and") {
		p.lex.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &andExpr{left, right}
	}
	return left, nil
}

func (p *parser) parseNot() (boolExpr, error) {
	if p.peekIs(0, tokIdent, "not") {
		p.lex.next()
		inner, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &notExpr{inner}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (boolExpr, error) {
	tok, err := p.lex.peek(0)
	if err != nil {
		return nil, err
	}

	switch tok.kind {
	case tokPunct:
		if tok.text != "(" {
			break
		}
		p.lex.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectPunct(")"); err != nil {
			return nil, err
		}
		return inner, nil

	case tokStringID:
		p.lex.next()
		idx, ok := p.patternIdx[tok.text]
		if !ok {
			return nil, p.lex.errorf(tok.line, "undefined string identifier %s", tok.text)
		}
		p.referenced[idx] = true
		return &stringExpr{idx}, nil

	case tokInt:
		if p.peekIs(1, tokIdent, "of") {
			p.lex.next()
			return p.parseOf(int(tok.num), tok.line)
		}
		return p.parseComparison()

	case tokCountID:
		return p.parseComparison()

	case tokIdent:
		switch tok.text {
		case "true", "false":
			p.lex.next()
			return constExpr(tok.text == "true"), nil
		case "any":
			p.lex.next()
			return p.parseOf(quantAny, tok.line)
		case "all":
			p.lex.next()
			return p.parseOf(quantAll, tok.line)
		case "filesize":
			return p.parseComparison()
		}
		if keywords[tok.text] {
			break
		}
		p.lex.next()
		if idx, ok := p.local[tok.text]; ok {
			return &ruleExpr{idx}, nil
		}
		if idx, ok := p.known[tok.text]; ok {
			return &ruleExpr{idx}, nil
		}
		return nil, p.lex.errorf(tok.line, "undefined identifier %q", tok.text)
	}

	return nil, p.lex.errorf(tok.line, "unexpected %s in condition", tok)
}

func (p *parser) parseOf(quant, line int) (boolExpr, error) {
	of, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if of.text != "of" {
		return nil, p.lex.errorf(of.line, "expected \"of\", found %s", of)
	}

	var set []int
	if p.peekIs(0, tokIdent, "them") {
		p.lex.next()
		if len(p.patterns) == 0 {
			return nil, p.lex.errorf(line, "\"them\" used in a rule without strings")
		}
		for i := range p.patterns {
			set = append(set, i)
		}
	} else {
		if _, err := p.expectPunct("("); err != nil {
			return nil, err
		}
		seen := make(map[int]bool)
		for {
			tok, err := p.lex.next()
			if err != nil {
				return nil, err
			}
			if tok.kind != tokStringID {
				return nil, p.lex.errorf(tok.line, "expected string identifier, found %s", tok)
			}
			matched := p.resolveSet(tok.text)
			if len(matched) == 0 {
				return nil, p.lex.errorf(tok.line, "undefined string identifier %s", tok.text)
			}
			for _, i := range matched {
				if !seen[i] {
					seen[i] = true
					set = append(set, i)
				}
			}
			if p.peekIs(0, tokPunct, ",") {
				p.lex.next()
				continue
			}
			if _, err := p.expectPunct(")"); err != nil {
				return nil, err
			}
			break
		}
	}

	for _, i := range set {
		p.referenced[i] = true
	}
	if quant > len(set) {
		return nil, p.lex.errorf(line, "%d of a set of %d strings can never be satisfied", quant, len(set))
	}
	return &ofExpr{quant: quant, set: set}, nil
}

// resolveSet expands a string identifier, possibly ending in a wildcard,
// into pattern indices in declaration order.
func (p *parser) resolveSet(id string) []int {
	var out []int
	if prefix, ok := strings.CutSuffix(id, "*"); ok {
		for i, pat := range p.patterns {
			if strings.HasPrefix(pat.id, prefix) {
				out = append(out, i)
			}
		}
		return out
	}
	if i, ok := p.patternIdx[id]; ok {
		out = append(out, i)
	}
	return out
}

func (p *parser) parseComparison() (boolExpr, error) {
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	op, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	switch op.text {
	case "<", "<=", ">", ">=", "==", "!=":
	default:
		return nil, p.lex.errorf(op.line, "expected comparison operator, found %s", op)
	}
	if op.kind != tokPunct {
		return nil, p.lex.errorf(op.line, "expected comparison operator, found %s", op)
	}
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	return &compareExpr{op: op.text, left: left, right: right}, nil
}

func (p *parser) parseOperand() (intExpr, error) {
	tok, err := p.lex.next()
	if err != nil {
		return nil, err
	}
	switch {
	case tok.kind == tokInt:
		return intConst(tok.num), nil
	case tok.kind == tokIdent && tok.text == "filesize":
		return filesizeExpr{}, nil
	case tok.kind == tokCountID:
		idx, ok := p.patternIdx[tok.text]
		if !ok {
			return nil, p.lex.errorf(tok.line, "undefined string identifier %s", tok.text)
		}
		p.referenced[idx] = true
		return &countExpr{idx}, nil
	}
	return nil, p.lex.errorf(tok.line, "expected integer, filesize or string count, found %s", tok)
}
