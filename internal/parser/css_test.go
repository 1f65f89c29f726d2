// internal/parser/css_test.go
package parser

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(prop, val string, line int) Declaration {
	return Declaration{Property: prop, Value: val, Line: line}
}

func sel(state string, classes ...string) Selector {
	return Selector{Classes: classes, State: state}
}

func TestParseSelectors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Selector
	}{
		{"Class", ".button", []Selector{sel("", "button")}},
		{"Multiple Classes", ".btn.primary", []Selector{sel("", "btn", "primary")}},
		{"State", ".btn:hover", []Selector{sel("hover", "btn")}},
		{"State Case Folded", ".btn:ACTIVE", []Selector{sel("active", "btn")}},
		{"Universal", "*", []Selector{sel("")}},
		{"Universal With State", "*:active", []Selector{sel("active")}},
		{"Bare State", ":hover", []Selector{sel("hover")}},
		{"Group", ".a, .b.c:hover", []Selector{sel("", "a"), sel("hover", "b", "c")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewParser(tt.input + " { }")
			got, err := p.parseSelectorList()
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseRejectsUnsupportedSelectors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"Type", "div { width: 1 }"},
		{"ID", "#main { width: 1 }"},
		{"Attribute", "[disabled] { width: 1 }"},
		{"Descendant", ".a .b { width: 1 }"},
		{"Child", ".a > .b { width: 1 }"},
		{"Double State", ".a:hover:active { width: 1 }"},
		{"Empty Class", ". { width: 1 }"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, errs := Parse(tt.input)
			assert.Empty(t, sheet.Rules)
			require.Len(t, errs, 1)
			assert.True(t, errors.Is(errs[0], ErrSyntax))
		})
	}
}

func TestParseKeepsValidRulesAroundErrors(t *testing.T) {
	input := `
.ok { width: 10 }
div.bad { width: 20 }
.also-ok:hover { height: 50%; }
`
	sheet, errs := Parse(input)
	require.Len(t, sheet.Rules, 2)
	assert.Equal(t, []Selector{sel("", "ok")}, sheet.Rules[0].Selectors)
	assert.Equal(t, 2, sheet.Rules[0].Line)
	assert.Equal(t, []Selector{sel("hover", "also-ok")}, sheet.Rules[1].Selectors)
	assert.Equal(t, []Declaration{d("height", "50%", 4)}, sheet.Rules[1].Declarations)

	require.Len(t, errs, 1)
	var synErr *SyntaxError
	require.True(t, errors.As(errs[0], &synErr))
	assert.Equal(t, 3, synErr.Line)
}

func TestParseDeclarations(t *testing.T) {
	input := `.row {
  flex-direction: row;
  /* inline comment */
  Justify-Content: space-between;
  background: rgb(10, 20, 30);
  margin: 1 2 3 4
}`
	sheet, errs := Parse(input)
	require.Empty(t, errs)
	require.Len(t, sheet.Rules, 1)
	assert.Equal(t, []Declaration{
		d("flex-direction", "row", 2),
		d("justify-content", "space-between", 4),
		d("background", "rgb(10, 20, 30)", 5),
		d("margin", "1 2 3 4", 6),
	}, sheet.Rules[0].Declarations)
}

func TestParseSkipsCommentsAndAtRules(t *testing.T) {
	input := `
/* header */
@import "theme.css";
@media (max-width: 100px) { .a { width: 1 } }
.b { width: 2 }
`
	sheet, errs := Parse(input)
	require.Empty(t, errs)
	require.Len(t, sheet.Rules, 1)
	assert.Equal(t, []Selector{sel("", "b")}, sheet.Rules[0].Selectors)
}

func TestParseMalformedDeclarations(t *testing.T) {
	sheet, errs := Parse(`.a { width 10; height: 20; : 5; color: ; }`)
	require.Len(t, sheet.Rules, 1)
	assert.Equal(t, []Declaration{d("height", "20", 1)}, sheet.Rules[0].Declarations)
	assert.Len(t, errs, 3)
}

func TestParseUnterminatedBlock(t *testing.T) {
	_, errs := Parse(`.a { width: 10;`)
	require.NotEmpty(t, errs)
	assert.ErrorIs(t, errs[len(errs)-1], ErrSyntax)
}

func TestParseInline(t *testing.T) {
	decls, errs := ParseInline("width: 50%; flex: 1 1 auto;height:10")
	require.Empty(t, errs)
	assert.Equal(t, []Declaration{
		d("width", "50%", 1),
		d("flex", "1 1 auto", 1),
		d("height", "10", 1),
	}, decls)

	decls, errs = ParseInline("width: 1 } height: 2")
	assert.Equal(t, []Declaration{d("width", "1", 1), d("height", "2", 1)}, decls)
	assert.NotEmpty(t, errs)
}

func TestSelectorString(t *testing.T) {
	assert.Equal(t, "*", sel("").String())
	assert.Equal(t, ".a.b:hover", sel("hover", "a", "b").String())
}

func FuzzParse(f *testing.F) {
	f.Add(".a { width: 1 }")
	f.Add("@media x { .a { } } .b:hover, * { flex: 1 1 0 }")
	f.Add("/* unterminated")
	f.Fuzz(func(t *testing.T, input string) {
		sheet, _ := Parse(input)
		for _, r := range sheet.Rules {
			assert.NotEmpty(t, r.Selectors)
			assert.NotEmpty(t, r.Declarations)
		}
		_, _ = ParseInline(input)
	})
}
