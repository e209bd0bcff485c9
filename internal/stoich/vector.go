// Package stoich defines the stoichiometric coefficient vector as a
// tagged variant: a vector is either fully numeric or fully symbolic,
// never mixed. Conservation arithmetic requires numeric dot products, so
// operations that need numbers are defined on the Numeric variant only;
// Symbolic vectors carry unresolved coefficients until a collaborator
// solves for them.
package stoich

import (
	"fmt"

	"github.com/hydrolab/stoich/internal/expr"
)

// Vector is a sealed interface over coefficient vectors.
// Only Numeric and Symbolic implement it.
type Vector interface {
	vector() // Sealed - only these types implement it

	// Len returns the number of coefficients.
	Len() int

	// Negate returns the element-wise negation, preserving the variant.
	Negate() Vector

	// Scale returns the vector with every entry multiplied by f,
	// preserving the variant.
	Scale(f float64) Vector

	// Div returns the vector with every entry divided by f, preserving
	// the variant. Division, not multiplication by a reciprocal: an
	// entry equal to f divides to exactly 1.
	Div(f float64) Vector
}

// Numeric is a fully numeric coefficient vector.
type Numeric []float64

func (Numeric) vector() {}

// Len returns the number of coefficients.
func (v Numeric) Len() int { return len(v) }

// At returns the coefficient at position i.
func (v Numeric) At(i int) float64 { return v[i] }

// Negate returns the element-wise negation.
func (v Numeric) Negate() Vector {
	out := make(Numeric, len(v))
	for i, c := range v {
		out[i] = -c
	}
	return out
}

// Scale returns the vector multiplied by f.
func (v Numeric) Scale(f float64) Vector {
	out := make(Numeric, len(v))
	for i, c := range v {
		out[i] = c * f
	}
	return out
}

// Div returns the vector divided by f.
func (v Numeric) Div(f float64) Vector {
	out := make(Numeric, len(v))
	for i, c := range v {
		out[i] = c / f
	}
	return out
}

// Symbolic is a coefficient vector with algebraic entries. Entries that
// happen to be constants are expr.Num nodes; the vector as a whole stays
// symbolic until rebuilt as Numeric.
type Symbolic []expr.Expr

func (Symbolic) vector() {}

// Len returns the number of coefficients.
func (v Symbolic) Len() int { return len(v) }

// At returns the coefficient expression at position i.
func (v Symbolic) At(i int) expr.Expr { return v[i] }

// Negate returns the element-wise negation.
func (v Symbolic) Negate() Vector {
	out := make(Symbolic, len(v))
	for i, e := range v {
		out[i] = expr.Neg(e)
	}
	return out
}

// Scale returns the vector with every entry multiplied by f.
func (v Symbolic) Scale(f float64) Vector {
	out := make(Symbolic, len(v))
	for i, e := range v {
		out[i] = expr.Scale(e, f)
	}
	return out
}

// Div returns the vector with every entry divided by f.
func (v Symbolic) Div(f float64) Vector {
	out := make(Symbolic, len(v))
	for i, e := range v {
		out[i] = expr.Div(e, f)
	}
	return out
}

// Constant extracts the numeric value of entry i when it is a constant.
func (v Symbolic) Constant(i int) (float64, bool) {
	n, ok := v[i].(expr.Num)
	return float64(n), ok
}

// Lift converts a numeric vector to the symbolic variant.
func Lift(v Numeric) Symbolic {
	out := make(Symbolic, len(v))
	for i, c := range v {
		out[i] = expr.Num(c)
	}
	return out
}

// Equal reports whether two vectors have the same variant, length, and
// entries. Numeric entries compare exactly; symbolic entries compare
// structurally.
func Equal(a, b Vector) bool {
	switch x := a.(type) {
	case Numeric:
		y, ok := b.(Numeric)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if x[i] != y[i] {
				return false
			}
		}
		return true
	case Symbolic:
		y, ok := b.(Symbolic)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !expr.Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders a vector for diagnostics.
func String(v Vector) string {
	switch x := v.(type) {
	case Numeric:
		return fmt.Sprintf("Numeric%v", []float64(x))
	case Symbolic:
		parts := make([]string, len(x))
		for i, e := range x {
			parts[i] = e.String()
		}
		return fmt.Sprintf("Symbolic%v", parts)
	default:
		return fmt.Sprintf("%T", v)
	}
}
