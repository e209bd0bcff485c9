// Package process implements the stoichiometric process model: one
// reaction's coefficient vector plus an optional parametrized rate law,
// validated against conservation of quantities such as COD, N, P, and
// charge.
//
// A Process is built once against an immutable species catalog; the
// reaction text is parsed exactly once at construction. Later mutation
// is explicit: Reverse flips signs, SetRefComponent re-normalizes, and
// AppendParameters registers new free parameters. Newly appended
// parameters are inert until a collaborator re-parses the reaction or
// rate law; binding numeric parameter values and re-evaluating
// coefficients is intentionally not implemented.
//
// A Process is owned by exactly one simulation context at a time;
// concurrent mutation is not guarded.
package process

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/hydrolab/stoich/internal/components"
	"github.com/hydrolab/stoich/internal/expr"
	"github.com/hydrolab/stoich/internal/stoich"
)

// DefaultConserved is the conserved-quantity set used when a definition
// does not name its own.
var DefaultConserved = []string{"COD", "N", "P", "charge"}

// DefaultTolerance is the absolute tolerance for conservation checks.
// Absolute rather than relative: coefficients near zero are common.
const DefaultTolerance = 1e-8

// Parser turns a reaction string into a dense coefficient vector with
// exactly one entry per catalog species, in catalog order, homogeneous
// in numeric-vs-symbolic type. reaction.Parser is the default
// implementation; simulation frontends may substitute their own.
type Parser interface {
	Parse(reaction, refComponent string, catalog *components.Catalog, conserved []string, params map[string]expr.Expr) (stoich.Vector, error)
}

// Definition describes one process to construct.
type Definition struct {
	// Reaction is the textual reaction equation, consumed once.
	Reaction string

	// RefComponent names the species the stoichiometry is normalized
	// against. Its coefficient must be non-zero after parsing.
	RefComponent string

	// RateEquation is the textual rate law over species concentration
	// symbols and parameter symbols. Empty leaves the process rate-less.
	RateEquation string

	// Conserved lists the quantities the process must balance.
	// nil means DefaultConserved; an empty non-nil slice disables
	// conservation checking.
	Conserved []string

	// Parameters names the free parameters of the reaction and rate law.
	Parameters []string
}

// Process owns one reaction's stoichiometry and rate expression.
type Process struct {
	catalog      *components.Catalog
	refComponent string
	vector       stoich.Vector
	conserved    []string
	parameters   map[string]expr.Expr
	rate         expr.Expr // nil when unset
}

// New constructs a Process: builds parameter symbols, delegates reaction
// parsing to the parser, validates that the returned vector's length
// matches the catalog and that the reference component exists, and
// parses the rate equation. Construction either completes fully or fails
// without observable partial state. The reference coefficient's zero
// check happens on reassignment, so a self-canceling reaction remains
// constructible.
func New(def Definition, catalog *components.Catalog, parser Parser) (*Process, error) {
	if catalog == nil || catalog.Len() == 0 {
		return nil, errors.New("process: catalog must be non-empty")
	}
	if parser == nil {
		return nil, errors.New("process: parser must not be nil")
	}

	params := make(map[string]expr.Expr, len(def.Parameters))
	for _, name := range def.Parameters {
		sym := expr.NewSym(name)
		if _, dup := params[string(sym)]; dup || catalog.Has(name) {
			return nil, &DuplicateParameterError{Name: name}
		}
		params[string(sym)] = sym
	}

	conserved := def.Conserved
	if conserved == nil {
		conserved = DefaultConserved
	}
	conserved = append([]string(nil), conserved...)

	refIdx, ok := catalog.IndexOf(def.RefComponent)
	if !ok {
		return nil, &UnknownReferenceComponentError{Name: def.RefComponent}
	}

	vec, err := parser.Parse(def.Reaction, def.RefComponent, catalog, conserved, params)
	if err != nil {
		return nil, fmt.Errorf("parse reaction: %w", err)
	}
	if vec.Len() != catalog.Len() {
		return nil, &MalformedStoichiometryError{Got: vec.Len(), Want: catalog.Len()}
	}

	var rate expr.Expr
	if strings.TrimSpace(def.RateEquation) != "" {
		rate, err = parseRate(def.RateEquation, catalog, params)
		if err != nil {
			return nil, err
		}
	}

	ids := catalog.IDs()
	return &Process{
		catalog:      catalog,
		refComponent: ids[refIdx],
		vector:       vec,
		conserved:    conserved,
		parameters:   params,
		rate:         rate,
	}, nil
}

func parseRate(src string, catalog *components.Catalog, params map[string]expr.Expr) (expr.Expr, error) {
	scope := make(expr.Scope, catalog.Len()+len(params))
	for _, id := range catalog.IDs() {
		scope.Add(id)
	}
	for name, sym := range params {
		scope[name] = sym
	}
	rate, err := expr.Parse(src, scope)
	if err != nil {
		var unknown *expr.UnknownNameError
		if errors.As(err, &unknown) {
			return nil, &UndefinedSymbolError{Name: unknown.Name}
		}
		return nil, fmt.Errorf("parse rate equation: %w", err)
	}
	return rate, nil
}

// Catalog returns the catalog the process was built against.
func (p *Process) Catalog() *components.Catalog { return p.catalog }

// RefComponent returns the current reference component name.
func (p *Process) RefComponent() string { return p.refComponent }

// Conserved returns the conserved-quantity names in order.
func (p *Process) Conserved() []string {
	return append([]string(nil), p.conserved...)
}

// SetConserved reassigns the conserved-quantity set wholesale.
func (p *Process) SetConserved(quantities []string) {
	p.conserved = append([]string(nil), quantities...)
}

// Parameters returns the parameter names, sorted.
func (p *Process) Parameters() []string {
	names := make([]string, 0, len(p.parameters))
	for n := range p.parameters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ParameterSymbols returns a copy of the name-to-symbol mapping, for
// collaborators that re-parse against the same parameter set.
func (p *Process) ParameterSymbols() map[string]expr.Expr {
	out := make(map[string]expr.Expr, len(p.parameters))
	for n, s := range p.parameters {
		out[n] = s
	}
	return out
}

// AppendParameters registers additional free parameters. All names are
// validated before any is added. The new symbols are inert until a
// collaborator triggers a re-parse; existing stoichiometry and rate
// equation are not re-parsed.
func (p *Process) AppendParameters(names ...string) error {
	syms := make([]expr.Sym, len(names))
	for i, name := range names {
		sym := expr.NewSym(name)
		if _, dup := p.parameters[string(sym)]; dup || p.catalog.Has(name) {
			return &DuplicateParameterError{Name: name}
		}
		for _, prior := range syms[:i] {
			if prior == sym {
				return &DuplicateParameterError{Name: name}
			}
		}
		syms[i] = sym
	}
	for _, sym := range syms {
		p.parameters[string(sym)] = sym
	}
	return nil
}

// RateEquation returns the rate expression, or nil for a purely
// stoichiometric process.
func (p *Process) RateEquation() expr.Expr { return p.rate }

// Dense returns a copy of the dense coefficient vector, in catalog
// order. This is the representation simulation engines consume per step.
func (p *Process) Dense() stoich.Vector {
	switch v := p.vector.(type) {
	case stoich.Numeric:
		out := make(stoich.Numeric, len(v))
		copy(out, v)
		return out
	case stoich.Symbolic:
		out := make(stoich.Symbolic, len(v))
		copy(out, v)
		return out
	default:
		return v
	}
}

// Stoichiometry returns the sparse view: non-zero coefficients keyed by
// species name. Numeric coefficients are reported as constant
// expressions so the view is uniform across both vector variants.
func (p *Process) Stoichiometry() map[string]expr.Expr {
	ids := p.catalog.IDs()
	out := make(map[string]expr.Expr)
	switch v := p.vector.(type) {
	case stoich.Numeric:
		for i, c := range v {
			if c != 0 {
				out[ids[i]] = expr.Num(c)
			}
		}
	case stoich.Symbolic:
		for i, e := range v {
			if n, isConst := e.(expr.Num); isConst && n == 0 {
				continue
			}
			out[ids[i]] = e
		}
	}
	return out
}

// NumericStoichiometry returns the sparse view as floats. Fails with
// NonNumericStoichiometryError while the vector is symbolic.
func (p *Process) NumericStoichiometry() (map[string]float64, error) {
	v, ok := p.vector.(stoich.Numeric)
	if !ok {
		return nil, &NonNumericStoichiometryError{Op: "numeric stoichiometry view"}
	}
	ids := p.catalog.IDs()
	out := make(map[string]float64)
	for i, c := range v {
		if c != 0 {
			out[ids[i]] = c
		}
	}
	return out, nil
}

// ConversionFactors stacks the catalog's conversion-factor rows, one row
// per conserved quantity, one column per species. Returns nil when the
// conserved set is empty.
func (p *Process) ConversionFactors() *mat.Dense {
	if len(p.conserved) == 0 {
		return nil
	}
	n := p.catalog.Len()
	data := make([]float64, 0, len(p.conserved)*n)
	for _, q := range p.conserved {
		data = append(data, p.catalog.Row(q)...)
	}
	return mat.NewDense(len(p.conserved), n, data)
}

// SymbolicConversionFactors returns the same data as an expression
// matrix, for symbolic solving of unknown coefficients. Returns nil when
// the conserved set is empty.
func (p *Process) SymbolicConversionFactors() *expr.Matrix {
	if len(p.conserved) == 0 {
		return nil
	}
	rows := make([][]float64, len(p.conserved))
	for i, q := range p.conserved {
		rows[i] = p.catalog.Row(q)
	}
	m, err := expr.NewNumericMatrix(rows)
	if err != nil {
		// Catalog rows always have equal length.
		panic(err)
	}
	return m
}

// CheckConservation verifies that factors · stoichiometry is within tol
// of zero for every conserved quantity. tol <= 0 selects
// DefaultTolerance. Pure check: state is never mutated. Fails with
// NonNumericStoichiometryError while coefficients are symbolic, and with
// ConservationViolationError listing every violating quantity and its
// signed residual.
func (p *Process) CheckConservation(tol float64) error {
	num, ok := p.vector.(stoich.Numeric)
	if !ok {
		return &NonNumericStoichiometryError{Op: "conservation check"}
	}
	if tol <= 0 {
		tol = DefaultTolerance
	}
	factors := p.ConversionFactors()
	if factors == nil {
		return nil
	}

	var product mat.VecDense
	product.MulVec(factors, mat.NewVecDense(len(num), []float64(num)))

	var violations []Violation
	for i, q := range p.conserved {
		residual := product.AtVec(i)
		if math.Abs(residual) > tol {
			violations = append(violations, Violation{Quantity: q, Residual: residual})
		}
	}
	if len(violations) > 0 {
		return &ConservationViolationError{Violations: violations}
	}
	return nil
}

// Reverse flips the sign of every stoichiometric coefficient and of the
// rate expression. A rate-less process only flips its stoichiometry.
// Two reversals restore the original state.
func (p *Process) Reverse() {
	p.vector = p.vector.Negate()
	if p.rate != nil {
		p.rate = expr.Neg(p.rate)
	}
}

// SetRefComponent reassigns the reference component and re-normalizes.
// The stoichiometry is divided by the magnitude of the new reference's
// coefficient, then the rate equation is multiplied by the signed
// coefficient captured before division; that order keeps the rate's sign
// relationship to the original stoichiometry. True division rather than
// multiplication by a reciprocal: the reference coefficient lands on
// exactly +1 or -1. State is unchanged on failure.
func (p *Process) SetRefComponent(name string) error {
	idx, ok := p.catalog.IndexOf(name)
	if !ok {
		return &UnknownReferenceComponentError{Name: name}
	}

	var coeff float64
	switch v := p.vector.(type) {
	case stoich.Numeric:
		coeff = v.At(idx)
	case stoich.Symbolic:
		c, isConst := v.Constant(idx)
		if !isConst {
			return &NonNumericStoichiometryError{Op: "reference reassignment"}
		}
		coeff = c
	}
	if coeff == 0 {
		return &ZeroReferenceCoefficientError{Name: name}
	}

	p.vector = p.vector.Div(math.Abs(coeff))
	if p.rate != nil {
		p.rate = expr.Scale(p.rate, coeff)
	}
	p.refComponent = p.catalog.IDs()[idx]
	return nil
}
