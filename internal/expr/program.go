package expr

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Program is a parsed formula ready for evaluation. It is immutable and
// safe for concurrent use.
type Program struct {
	src  string
	root Node
	vars []string
}

// truncate cuts s to at most n bytes on a rune boundary and marks the cut.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}

// Parse compiles src into a Program.
func Parse(src string) (*Program, error) {
	if len(src) > MaxLength {
		return nil, &Error{Input: truncate(src, 32), Pos: -1, Msg: fmt.Sprintf("longer than %d bytes", MaxLength)}
	}
	if strings.TrimSpace(src) == "" {
		return nil, &Error{Input: src, Pos: 0, Msg: "empty expression"}
	}

	p := &parser{lex: lexer{src: src}, vars: make(map[string]bool)}
	if err := p.advance(); err != nil {
		return nil, err
	}
	root, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, p.errorf(p.tok.pos, "unexpected %s", p.tok)
	}

	vars := make([]string, 0, len(p.vars))
	for name := range p.vars {
		vars = append(vars, name)
	}
	sort.Strings(vars)

	return &Program{src: src, root: root, vars: vars}, nil
}

// MustParse is Parse for formulas known to be valid, such as presets.
func MustParse(src string) *Program {
	p, err := Parse(src)
	if err != nil {
		panic(err)
	}
	return p
}

// Source returns the formula as written.
func (p *Program) Source() string { return p.src }

// String returns the fully parenthesized parse tree.
func (p *Program) String() string { return p.root.String() }

// Vars lists the coordinates the formula reads, sorted.
func (p *Program) Vars() []string { return append([]string(nil), p.vars...) }

// Root exposes the parse tree.
func (p *Program) Root() Node { return p.root }

// Eval evaluates the formula at every index of the bound slices. All bound
// slices must have the same length; a formula without variables yields a
// slice of that length (or a single value when nothing is bound).
func (p *Program) Eval(vars map[string][]float64) ([]float64, error) {
	n := -1
	for name, values := range vars {
		if n >= 0 && len(values) != n {
			return nil, &Error{Input: p.src, Pos: -1, Msg: fmt.Sprintf("variable %s has %d values, want %d", name, len(values), n)}
		}
		n = len(values)
	}
	for _, name := range p.vars {
		if _, ok := vars[name]; !ok {
			return nil, &Error{Input: p.src, Pos: -1, Msg: fmt.Sprintf("variable %s is not bound", name)}
		}
	}
	if n < 0 {
		n = 1
	}
	return p.root.eval(&env{n: n, vars: vars}), nil
}

// At evaluates the formula at a single point.
func (p *Program) At(x, y float64) float64 {
	out := p.root.eval(&env{n: 1, vars: map[string][]float64{"x": {x}, "y": {y}}})
	return out[0]
}
