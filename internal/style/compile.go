// internal/style/compile.go
package style

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/xkilldash9x/boxflow/internal/parser"
)

// CompileDeclarations turns raw declarations into a property map. Later
// declarations override earlier ones. Invalid entries are skipped and
// reported together in the returned error.
func CompileDeclarations(decls []parser.Declaration) (PropertyMap, error) {
	out := PropertyMap{}
	var errs error
	for _, d := range decls {
		m, err := ParseDeclaration(d.Property, d.Value)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("line %d: %w", d.Line, err))
			continue
		}
		out.Merge(m)
	}
	return out, errs
}

// CompileSelector validates a parsed selector.
func CompileSelector(ps parser.Selector) (Selector, error) {
	sel := Selector{Classes: NewClassSet(ps.Classes...)}
	if ps.State == "" {
		return sel, nil
	}
	st, err := ParseState(ps.State)
	if err != nil {
		return Selector{}, err
	}
	sel.State = st
	return sel, nil
}

// AddParsed appends every rule of a parsed sheet, one rule per selector.
// Rules whose selectors are unsupported are skipped. All problems are
// returned as a single combined error.
func (s *Sheet) AddParsed(ps parser.StyleSheet) error {
	var errs error
	for _, rs := range ps.Rules {
		props, err := CompileDeclarations(rs.Declarations)
		errs = multierr.Append(errs, err)
		if len(props) == 0 {
			continue
		}
		for _, psel := range rs.Selectors {
			sel, err := CompileSelector(psel)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("line %d: %s: %w", rs.Line, psel, err))
				continue
			}
			s.AddRule(sel, props)
		}
	}
	if errs != nil {
		s.logger.Warn("Style sheet compiled with errors",
			zap.Int("problems", len(multierr.Errors(errs))))
	}
	return errs
}

// AddSource parses src and appends its rules.
func (s *Sheet) AddSource(src string) error {
	ps, parseErrs := parser.Parse(src)
	err := s.AddParsed(ps)
	return multierr.Combine(append(parseErrs, err)...)
}

// ParseInline compiles a style attribute body.
func ParseInline(src string) (PropertyMap, error) {
	decls, parseErrs := parser.ParseInline(src)
	props, err := CompileDeclarations(decls)
	return props, multierr.Combine(append(parseErrs, err)...)
}
