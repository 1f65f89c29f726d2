// internal/parser/css.go
package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax is wrapped by every error the parser reports.
var ErrSyntax = errors.New("parser: syntax error")

// SyntaxError locates a problem in the source text.
type SyntaxError struct {
	Line int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

// Declaration is a raw property/value pair (e.g. width: 50%).
type Declaration struct {
	Property string
	Value    string
	Line     int
}

// Selector is a compound of class tokens with an optional pseudo-state.
// No classes means the universal selector.
type Selector struct {
	Classes []string
	State   string
}

func (s Selector) String() string {
	var b strings.Builder
	if len(s.Classes) == 0 {
		b.WriteByte('*')
	}
	for _, c := range s.Classes {
		b.WriteByte('.')
		b.WriteString(c)
	}
	if s.State != "" {
		b.WriteByte(':')
		b.WriteString(s.State)
	}
	return b.String()
}

// RuleSet applies its declarations to every one of its selectors.
type RuleSet struct {
	Selectors    []Selector
	Declarations []Declaration
	Line         int
}

// StyleSheet is the parsed rule list, in source order.
type StyleSheet struct {
	Rules []RuleSet
}

// Parser holds the state of the style sheet parser.
type Parser struct {
	input  string
	pos    int
	errors []error
}

func NewParser(input string) *Parser {
	return &Parser{input: input}
}

// Errors returns the problems found by the last Parse call.
func (p *Parser) Errors() []error { return p.errors }

// Parse builds a StyleSheet. Rules with invalid selectors are dropped and
// recorded in Errors; the rest of the sheet is still returned.
func (p *Parser) Parse() StyleSheet {
	var rules []RuleSet
	for {
		p.consumeWhitespace()
		if p.eof() {
			break
		}
		if p.startsWith("/*") {
			p.skipComment()
			continue
		}
		if p.currentChar() == '@' {
			p.skipAtRule()
			continue
		}

		line := p.line()
		selectors, err := p.parseSelectorList()
		if err != nil {
			p.errors = append(p.errors, err)
			p.skipTo('{')
			if !p.eof() {
				p.consumeChar()
				p.skipBlock('{', '}')
			}
			continue
		}

		declarations, err := p.parseDeclarations()
		if err != nil {
			p.errors = append(p.errors, err)
			continue
		}
		if len(declarations) > 0 {
			rules = append(rules, RuleSet{Selectors: selectors, Declarations: declarations, Line: line})
		}
	}
	return StyleSheet{Rules: rules}
}

// Parse is a convenience wrapper returning the sheet and all collected errors.
func Parse(input string) (StyleSheet, []error) {
	p := NewParser(input)
	sheet := p.Parse()
	return sheet, p.Errors()
}

// ParseInline parses the body of a style attribute ("width: 10; flex: 1").
func ParseInline(input string) ([]Declaration, []error) {
	p := NewParser(input)
	var out []Declaration
	for {
		p.consumeWhitespace()
		if p.eof() {
			break
		}
		if p.startsWith("/*") {
			p.skipComment()
			continue
		}
		if d, ok := p.parseDeclaration(); ok {
			out = append(out, d)
		}
		// A stray '}' would otherwise stall the loop.
		if !p.eof() && p.currentChar() == '}' {
			p.errorf("unexpected '}'")
			p.consumeChar()
		}
	}
	return out, p.errors
}

// parseSelectorList parses a comma-separated list of selectors up to '{'.
func (p *Parser) parseSelectorList() ([]Selector, error) {
	var list []Selector
	for {
		p.consumeWhitespace()
		sel, err := p.parseSelector()
		if err != nil {
			return nil, err
		}
		list = append(list, sel)

		p.consumeWhitespace()
		switch {
		case p.eof():
			return nil, p.errorAt("unexpected end of input in selector")
		case p.currentChar() == ',':
			p.consumeChar()
		case p.currentChar() == '{':
			return list, nil
		default:
			return nil, p.errorAt(fmt.Sprintf("combinators are not supported (near %q)", p.snippet()))
		}
	}
}

// parseSelector parses one compound: optional '*', '.class' tokens, optional ':state'.
func (p *Parser) parseSelector() (Selector, error) {
	var sel Selector
	universal := false
	if p.currentChar() == '*' {
		p.consumeChar()
		universal = true
	}

	for !p.eof() {
		switch ch := p.currentChar(); {
		case ch == '.':
			p.consumeChar()
			name := p.parseIdentifier()
			if name == "" {
				return sel, p.errorAt("expected class name after '.'")
			}
			sel.Classes = append(sel.Classes, name)
		case ch == ':':
			p.consumeChar()
			if sel.State != "" {
				return sel, p.errorAt("only one pseudo-state is allowed per selector")
			}
			name := p.parseIdentifier()
			if name == "" {
				return sel, p.errorAt("expected state name after ':'")
			}
			sel.State = strings.ToLower(name)
		case ch == '#':
			return sel, p.errorAt("id selectors are not supported")
		case ch == '[':
			return sel, p.errorAt("attribute selectors are not supported")
		case isValidIdentifierStart(ch):
			return sel, p.errorAt(fmt.Sprintf("type selector %q is not supported", p.parseIdentifier()))
		default:
			goto done
		}
	}

done:
	if len(sel.Classes) == 0 && sel.State == "" && !universal {
		return sel, p.errorAt(fmt.Sprintf("expected selector (near %q)", p.snippet()))
	}
	return sel, nil
}

// parseDeclarations parses the content within { ... }.
func (p *Parser) parseDeclarations() ([]Declaration, error) {
	p.consumeWhitespace()
	if p.eof() || p.currentChar() != '{' {
		return nil, p.errorAt("expected '{' at start of declarations")
	}
	p.consumeChar()

	var declarations []Declaration
	for {
		p.consumeWhitespace()
		if p.eof() {
			return declarations, p.errorAt("unterminated declaration block")
		}
		if p.currentChar() == '}' {
			p.consumeChar()
			return declarations, nil
		}
		if p.startsWith("/*") {
			p.skipComment()
			continue
		}
		if d, ok := p.parseDeclaration(); ok {
			declarations = append(declarations, d)
		}
	}
}

// parseDeclaration parses a single 'property: value;' pair.
func (p *Parser) parseDeclaration() (Declaration, bool) {
	line := p.line()
	if !isValidIdentifierStart(p.currentChar()) {
		p.errorf("expected property name (near %q)", p.snippet())
		p.skipDeclaration()
		return Declaration{}, false
	}
	prop := p.parseIdentifier()
	p.consumeWhitespace()

	if p.eof() || p.currentChar() != ':' {
		p.errorf("expected ':' after %q", prop)
		p.skipDeclaration()
		return Declaration{}, false
	}
	p.consumeChar()
	p.consumeWhitespace()

	val := p.parseValue()

	p.consumeWhitespace()
	if !p.eof() && p.currentChar() == ';' {
		p.consumeChar()
	}
	if val == "" {
		p.errors = append(p.errors, &SyntaxError{Line: line, Msg: fmt.Sprintf("empty value for %q", prop)})
		return Declaration{}, false
	}
	return Declaration{Property: strings.ToLower(prop), Value: val, Line: line}, true
}

// parseValue reads a value until a delimiter.
func (p *Parser) parseValue() string {
	start := p.pos
	for !p.eof() {
		ch := p.currentChar()
		if ch == ';' || ch == '}' {
			break
		}
		if ch == '"' || ch == '\'' {
			p.skipQuotedString(ch)
			continue
		}
		if ch == '(' {
			p.consumeChar()
			p.skipBlock('(', ')')
			continue
		}
		p.pos++
	}
	return strings.TrimSpace(p.input[start:p.pos])
}

func (p *Parser) skipDeclaration() {
	p.skipTo(';', '}')
	if !p.eof() && p.currentChar() == ';' {
		p.consumeChar()
	}
}

// --- Lexer-like Helpers ---

func (p *Parser) errorAt(msg string) error {
	return &SyntaxError{Line: p.line(), Msg: msg}
}

func (p *Parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, p.errorAt(fmt.Sprintf(format, args...)))
}

// line returns the 1-based line of the current position.
func (p *Parser) line() int {
	end := p.pos
	if end > len(p.input) {
		end = len(p.input)
	}
	return strings.Count(p.input[:end], "\n") + 1
}

func (p *Parser) snippet() string {
	end := p.pos + 16
	if end > len(p.input) {
		end = len(p.input)
	}
	return p.input[p.pos:end]
}

func (p *Parser) eof() bool {
	return p.pos >= len(p.input)
}

func (p *Parser) currentChar() byte {
	if p.eof() {
		return 0
	}
	return p.input[p.pos]
}

func (p *Parser) consumeChar() byte {
	ch := p.currentChar()
	if !p.eof() {
		p.pos++
	}
	return ch
}

func (p *Parser) consumeWhitespace() {
	for !p.eof() && isWhitespace(p.currentChar()) {
		p.pos++
	}
}

func (p *Parser) startsWith(s string) bool {
	return strings.HasPrefix(p.input[p.pos:], s)
}

func (p *Parser) skipComment() {
	p.pos += 2
	endIndex := strings.Index(p.input[p.pos:], "*/")
	if endIndex == -1 {
		p.pos = len(p.input)
	} else {
		p.pos += endIndex + 2
	}
}

func (p *Parser) skipTo(targets ...byte) {
	for !p.eof() {
		ch := p.currentChar()
		for _, target := range targets {
			if ch == target {
				return
			}
		}
		p.pos++
	}
}

// skipBlock assumes the opening delimiter has been consumed.
func (p *Parser) skipBlock(open, close byte) {
	depth := 1
	for !p.eof() {
		c := p.consumeChar()
		if c == open {
			depth++
		} else if c == close {
			depth--
			if depth == 0 {
				return
			}
		}
	}
}

func (p *Parser) skipQuotedString(quote byte) {
	p.consumeChar()
	for !p.eof() {
		ch := p.consumeChar()
		if ch == '\\' {
			p.consumeChar()
		} else if ch == quote {
			return
		}
	}
}

func (p *Parser) skipAtRule() {
	p.consumeChar() // '@'
	_ = p.parseIdentifier()
	for !p.eof() {
		ch := p.currentChar()
		if ch == '{' {
			p.consumeChar()
			p.skipBlock('{', '}')
			return
		}
		if ch == ';' {
			p.consumeChar()
			return
		}
		p.pos++
	}
}

func (p *Parser) parseIdentifier() string {
	start := p.pos
	for !p.eof() && isValidIdentifierChar(p.currentChar()) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func isWhitespace(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f'
}

func isValidIdentifierStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_' || ch == '-'
}

func isValidIdentifierChar(ch byte) bool {
	return isValidIdentifierStart(ch) || (ch >= '0' && ch <= '9')
}
