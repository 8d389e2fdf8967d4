package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ParseError describes a structurally malformed template: an unmatched
// block, a bad directive header. It is found before any output is produced.
type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("template: line %d: %s", e.Line, e.Msg)
}

// RenderError aborts a single render pass: an out-of-range index, indexing
// a non-list, or unresolvable loop bounds.
type RenderError struct {
	Raw string
	Msg string
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("template: %s: %s", e.Msg, e.Raw)
}

// Template is a parsed artifact template, ready to render any number of
// times against fresh scopes.
type Template struct {
	nodes []node
}

// node is one parsed template element. The concrete types below are
// dispatched explicitly during rendering.
type node any

type textNode string

// refIndex is the optional `[i]` suffix of a reference: a literal index or
// the loop variable.
type refIndex struct {
	lit     int
	loopVar bool
}

type refNode struct {
	name    string
	loopVar bool
	index   *refIndex
	raw     string
}

type defineNode struct {
	name  string
	value any
}

type undefNode struct {
	name string
}

// bound is a loop limit: a literal integer or a name resolved at loop entry.
type bound struct {
	lit  int
	name string
}

type ifNode struct {
	cond   string
	negate bool
	then   []node
	els    []node
}

type forNode struct {
	start bound
	end   bound
	body  []node
	raw   string
}

// markerRe recognizes a directive marker embedded in literal text.
var markerRe = regexp.MustCompile(`\.\.([A-Za-z_][A-Za-z0-9_]*)::`)

// identRe matches a bare name in a directive header.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type tokenKind int

const (
	tokText tokenKind = iota
	tokDefine
	tokUndef
	tokIf
	tokIfnot
	tokElse
	tokEnd
	tokFor
	tokRef
)

var headerArity = map[tokenKind]int{
	tokDefine: 2,
	tokUndef:  1,
	tokIf:     1,
	tokIfnot:  1,
	tokFor:    2,
}

type token struct {
	kind    tokenKind
	text    string
	name    string
	args    []string
	index   *refIndex
	loopVar bool
	raw     string
	line    int
}

// Parse translates template text into an executable Template. Literal text
// round-trips unchanged; structural problems are reported as a ParseError.
func Parse(text string) (*Template, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	nodes, term, err := p.parseNodes()
	if err != nil {
		return nil, err
	}
	if term != nil {
		return nil, &ParseError{Line: term.line, Msg: fmt.Sprintf("unmatched ..%s::", term.name)}
	}
	return &Template{nodes: nodes}, nil
}

// lex splits template text into literal chunks and directive tokens.
//
// Header directives (define, undef, if, ifnot, for) read their arguments
// from the rest of their line and consume the line's newline, so a block
// written one directive per line emits clean line-oriented output. An
// else or end alone on its line does the same; inline it consumes only its
// marker. References are always inline.
func lex(input string) ([]token, error) {
	var toks []token
	pos := 0

	emitText := func(s string) {
		if s != "" {
			toks = append(toks, token{kind: tokText, text: s})
		}
	}
	lineAt := func(offset int) int {
		return 1 + strings.Count(input[:offset], "\n")
	}

	for pos < len(input) {
		loc := markerRe.FindStringSubmatchIndex(input[pos:])
		if loc == nil {
			emitText(input[pos:])
			break
		}
		mStart, mEnd := pos+loc[0], pos+loc[1]
		name := input[pos+loc[2] : pos+loc[3]]
		pre := input[pos:mStart]
		kind := keywordKind(name)
		line := lineAt(mStart)

		switch kind {
		case tokDefine, tokUndef, tokIf, tokIfnot, tokFor:
			argEnd := len(input)
			next := mEnd
			if nl := strings.IndexByte(input[mEnd:], '\n'); nl >= 0 {
				argEnd = mEnd + nl
				next = argEnd + 1
			} else {
				next = argEnd
			}
			args := strings.Fields(input[mEnd:argEnd])
			if len(args) != headerArity[kind] {
				return nil, &ParseError{Line: line, Msg: fmt.Sprintf("..%s:: takes %d argument(s), got %d", name, headerArity[kind], len(args))}
			}
			emitText(trimTrailingIndent(pre))
			toks = append(toks, token{
				kind: kind,
				name: name,
				args: args,
				raw:  strings.TrimRight(input[mStart:argEnd], "\r"),
				line: line,
			})
			pos = next

		case tokElse, tokEnd:
			if wholeLine, next := standaloneSpan(input, pre, mEnd); wholeLine {
				emitText(trimTrailingIndent(pre))
				pos = next
			} else {
				emitText(pre)
				pos = mEnd
			}
			toks = append(toks, token{kind: kind, name: name, raw: input[mStart:mEnd], line: line})

		default:
			emitText(pre)
			tok := token{kind: tokRef, name: name, loopVar: name == "it", raw: input[mStart:mEnd], line: line}
			pos = mEnd
			if idx, width, ok := indexSuffix(input[mEnd:]); ok {
				tok.index = idx
				tok.raw = input[mStart : mEnd+width]
				pos = mEnd + width
			}
			toks = append(toks, tok)
		}
	}
	return toks, nil
}

func keywordKind(name string) tokenKind {
	switch name {
	case "define":
		return tokDefine
	case "undef":
		return tokUndef
	case "if":
		return tokIf
	case "ifnot":
		return tokIfnot
	case "else":
		return tokElse
	case "end":
		return tokEnd
	case "for":
		return tokFor
	default:
		return tokRef
	}
}

// trimTrailingIndent drops spaces and tabs between the last newline and a
// directive that owns its whole line.
func trimTrailingIndent(pre string) string {
	idx := strings.LastIndexByte(pre, '\n')
	tail := pre[idx+1:]
	if strings.Trim(tail, " \t") == "" {
		return pre[:idx+1]
	}
	return pre
}

// standaloneSpan reports whether a marker ending at mEnd sits alone on its
// line and, if so, the position just past the line's newline.
func standaloneSpan(input, pre string, mEnd int) (bool, int) {
	idx := strings.LastIndexByte(pre, '\n')
	if strings.Trim(pre[idx+1:], " \t") != "" {
		return false, 0
	}
	j := mEnd
	for j < len(input) && (input[j] == ' ' || input[j] == '\t') {
		j++
	}
	switch {
	case j == len(input):
		return true, j
	case input[j] == '\n':
		return true, j + 1
	case input[j] == '\r' && j+1 < len(input) && input[j+1] == '\n':
		return true, j + 2
	default:
		return false, 0
	}
}

// indexSuffix parses an optional `[i]` immediately following a reference
// marker. Only a literal integer or the loop variable counts as an index;
// anything else is literal text.
func indexSuffix(rest string) (*refIndex, int, bool) {
	if rest == "" || rest[0] != '[' {
		return nil, 0, false
	}
	rb := strings.IndexByte(rest, ']')
	if rb < 0 || strings.ContainsRune(rest[:rb], '\n') {
		return nil, 0, false
	}
	content := strings.TrimSpace(rest[1:rb])
	if content == "..it::" {
		return &refIndex{loopVar: true}, rb + 1, true
	}
	if n, err := strconv.Atoi(content); err == nil {
		return &refIndex{lit: n}, rb + 1, true
	}
	return nil, 0, false
}

type parser struct {
	toks []token
	pos  int
}

// parseNodes consumes tokens until an else, an end or the end of input. The
// terminating token, if any, is returned unconsumed.
func (p *parser) parseNodes() ([]node, *token, error) {
	var nodes []node
	for p.pos < len(p.toks) {
		tok := &p.toks[p.pos]
		switch tok.kind {
		case tokElse, tokEnd:
			return nodes, tok, nil

		case tokText:
			nodes = append(nodes, textNode(tok.text))
			p.pos++

		case tokRef:
			nodes = append(nodes, &refNode{name: tok.name, loopVar: tok.loopVar, index: tok.index, raw: tok.raw})
			p.pos++

		case tokDefine:
			nodes = append(nodes, &defineNode{name: tok.args[0], value: parseScalar(tok.args[1])})
			p.pos++

		case tokUndef:
			nodes = append(nodes, &undefNode{name: tok.args[0]})
			p.pos++

		case tokIf, tokIfnot:
			n, err := p.parseIf(tok)
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, n)

		case tokFor:
			n, err := p.parseFor(tok)
			if err != nil {
				return nil, nil, err
			}
			nodes = append(nodes, n)
		}
	}
	return nodes, nil, nil
}

func (p *parser) parseIf(opener *token) (node, error) {
	p.pos++
	cond := headerName(opener.args[0])
	if cond == "" {
		return nil, &ParseError{Line: opener.line, Msg: fmt.Sprintf("invalid condition %q", opener.args[0])}
	}
	n := &ifNode{cond: cond, negate: opener.kind == tokIfnot}

	then, term, err := p.parseNodes()
	if err != nil {
		return nil, err
	}
	if term == nil {
		return nil, &ParseError{Line: opener.line, Msg: fmt.Sprintf("..%s:: without matching ..end::", opener.name)}
	}
	n.then = then

	if term.kind == tokElse {
		p.pos++
		els, term2, err := p.parseNodes()
		if err != nil {
			return nil, err
		}
		if term2 == nil {
			return nil, &ParseError{Line: opener.line, Msg: fmt.Sprintf("..%s:: without matching ..end::", opener.name)}
		}
		if term2.kind == tokElse {
			return nil, &ParseError{Line: term2.line, Msg: "duplicate ..else::"}
		}
		n.els = els
		term = term2
	}
	p.pos++ // consume the end
	return n, nil
}

func (p *parser) parseFor(opener *token) (node, error) {
	p.pos++
	start, err := parseBound(opener, opener.args[0])
	if err != nil {
		return nil, err
	}
	end, err := parseBound(opener, opener.args[1])
	if err != nil {
		return nil, err
	}

	body, term, err := p.parseNodes()
	if err != nil {
		return nil, err
	}
	if term == nil {
		return nil, &ParseError{Line: opener.line, Msg: "..for:: without matching ..end::"}
	}
	if term.kind == tokElse {
		return nil, &ParseError{Line: term.line, Msg: "..else:: inside ..for::"}
	}
	p.pos++ // consume the end
	return &forNode{start: start, end: end, body: body, raw: opener.raw}, nil
}

// parseBound reads a loop limit: a literal integer or a name (bare or in
// marker form) looked up when the loop runs.
func parseBound(opener *token, arg string) (bound, error) {
	if n, err := strconv.Atoi(arg); err == nil {
		return bound{lit: n}, nil
	}
	if name := headerName(arg); name != "" {
		return bound{name: name}, nil
	}
	return bound{}, &ParseError{Line: opener.line, Msg: fmt.Sprintf("invalid ..for:: bound %q", arg)}
}

// headerName normalizes a header argument that names a variable: either a
// bare identifier or its `..name::` marker form.
func headerName(arg string) string {
	if m := markerRe.FindStringSubmatch(arg); m != nil && m[0] == arg {
		return m[1]
	}
	if identRe.MatchString(arg) {
		return arg
	}
	return ""
}

// parseScalar types a define value: an integer, a boolean, or the raw text.
func parseScalar(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if strings.EqualFold(s, "true") {
		return true
	}
	if strings.EqualFold(s, "false") {
		return false
	}
	return s
}
