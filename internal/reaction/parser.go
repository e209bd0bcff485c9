// Package reaction implements the default reaction-string parser.
//
// Grammar, by example:
//
//	1 S_O2 -> -1 S_O2
//	-2.5 S_NH4 - S_O2 -> X_B
//	-1 X_B -> (1-Y_H) S_NO3 + Y_H S_ND
//
// Coefficients carry their signs as written: negative means consumed,
// positive means produced, exactly as the coefficients appear in a
// Petersen-matrix row. The -> arrow groups consumed and produced terms
// for readability and contributes no sign of its own; a species
// appearing on both sides accumulates the sum of its terms. A term is an
// optional coefficient followed by a species name; a missing coefficient
// means 1. Coefficients may be numbers, parameter names, or
// parenthesized expressions over parameters. A reaction with any
// parametrized coefficient yields a symbolic vector (numeric entries
// lifted to constants); otherwise the vector is fully numeric.
package reaction

import (
	"fmt"
	"strings"

	"github.com/hydrolab/stoich/internal/components"
	"github.com/hydrolab/stoich/internal/expr"
	"github.com/hydrolab/stoich/internal/stoich"
)

// ParseError reports a malformed reaction string.
type ParseError struct {
	Reaction string
	Message  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed reaction %q: %s", e.Reaction, e.Message)
}

// Parser is the default process.Parser implementation.
type Parser struct{}

// Parse builds a dense coefficient vector in catalog order. The
// conserved set is accepted for interface compatibility; this parser
// does not solve unknowns via conservation, it only records them
// symbolically.
func (Parser) Parse(reaction, refComponent string, catalog *components.Catalog, conserved []string, params map[string]expr.Expr) (stoich.Vector, error) {
	lhs, rhs, err := splitArrow(reaction)
	if err != nil {
		return nil, &ParseError{Reaction: reaction, Message: err.Error()}
	}

	coeffs := make([]expr.Expr, catalog.Len())
	symbolic := false
	for _, side := range []string{lhs, rhs} {
		terms, err := splitTerms(side)
		if err != nil {
			return nil, &ParseError{Reaction: reaction, Message: err.Error()}
		}
		for _, tm := range terms {
			idx, coeff, isSym, err := parseTerm(tm.text, catalog, params)
			if err != nil {
				return nil, &ParseError{Reaction: reaction, Message: err.Error()}
			}
			symbolic = symbolic || isSym
			signed := expr.Scale(coeff, tm.sign)
			if coeffs[idx] == nil {
				coeffs[idx] = signed
			} else {
				coeffs[idx] = &expr.Binary{Op: expr.OpAdd, X: coeffs[idx], Y: signed}
			}
		}
	}

	if symbolic {
		vec := make(stoich.Symbolic, len(coeffs))
		for i, c := range coeffs {
			if c == nil {
				c = expr.Num(0)
			}
			vec[i] = c
		}
		return vec, nil
	}

	vec := make(stoich.Numeric, len(coeffs))
	for i, c := range coeffs {
		if c == nil {
			continue
		}
		v, err := expr.Eval(c, nil)
		if err != nil {
			return nil, &ParseError{Reaction: reaction, Message: err.Error()}
		}
		vec[i] = v
	}
	return vec, nil
}

func splitArrow(reaction string) (lhs, rhs string, err error) {
	parts := strings.Split(reaction, "->")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("expected exactly one -> separator")
	}
	return parts[0], parts[1], nil
}

type term struct {
	text string
	sign float64
}

// splitTerms splits one reaction side on top-level + and - separators.
// A separator's sign applies to the term that follows it; a sign at the
// start of the side applies to the first term. Signs inside parentheses
// and in scientific-notation exponents do not split.
func splitTerms(side string) ([]term, error) {
	side = strings.TrimSpace(side)
	if side == "" {
		return nil, fmt.Errorf("empty reaction side")
	}

	var terms []term
	depth := 0
	sign := 1.0
	start := 0
	flush := func(end int, nextSign float64) {
		text := strings.TrimSpace(side[start:end])
		if text == "" {
			// Leading sign, or a sign directly after a separator:
			// it binds to the upcoming term.
			sign *= nextSign
		} else {
			terms = append(terms, term{text: text, sign: sign})
			sign = nextSign
		}
		start = end + 1
	}
	for i := 0; i < len(side); i++ {
		switch side[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced parentheses")
			}
		case '+', '-':
			if depth > 0 || isExponentSign(side, i) {
				continue
			}
			if side[i] == '+' {
				flush(i, 1)
			} else {
				flush(i, -1)
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced parentheses")
	}
	text := strings.TrimSpace(side[start:])
	if text == "" {
		return nil, fmt.Errorf("trailing separator")
	}
	terms = append(terms, term{text: text, sign: sign})
	return terms, nil
}

// isExponentSign reports whether the sign at position i belongs to a
// scientific-notation exponent, as in 2.5e-3.
func isExponentSign(s string, i int) bool {
	if i < 2 || (s[i-1] != 'e' && s[i-1] != 'E') {
		return false
	}
	if s[i-2] < '0' || s[i-2] > '9' {
		return false
	}
	return i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9'
}

// parseTerm splits a term into coefficient and species. The species is
// the last whitespace-separated field; everything before it is the
// coefficient expression, defaulting to 1.
func parseTerm(text string, catalog *components.Catalog, params map[string]expr.Expr) (idx int, coeff expr.Expr, symbolic bool, err error) {
	i := strings.LastIndexAny(text, " \t")
	coeffText, species := "", text
	if i >= 0 {
		coeffText, species = strings.TrimSpace(text[:i]), strings.TrimSpace(text[i+1:])
	}

	idx, ok := catalog.IndexOf(species)
	if !ok {
		return 0, nil, false, fmt.Errorf("unknown species %q", species)
	}

	if coeffText == "" {
		return idx, expr.Num(1), false, nil
	}

	scope := make(expr.Scope, len(params))
	for name, sym := range params {
		scope[name] = sym
	}
	coeff, err = expr.Parse(coeffText, scope)
	if err != nil {
		return 0, nil, false, fmt.Errorf("coefficient of %s: %v", species, err)
	}
	// Constant compound coefficients such as 1/2 stay numeric; only
	// unresolved symbols make the vector symbolic.
	return idx, coeff, len(expr.Symbols(coeff)) > 0, nil
}
