package expr

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// Expr is a sealed interface over the expression node types.
// Only Num, Sym, Unary, and Binary implement it.
type Expr interface {
	exprNode() // Sealed - only these types implement it

	// String renders the expression deterministically. Parentheses are
	// emitted wherever precedence requires them, never elsewhere.
	String() string
}

// Num is a numeric constant.
type Num float64

func (Num) exprNode() {}

func (n Num) String() string {
	v := float64(n)
	if v < 0 {
		return "-" + strconv.FormatFloat(-v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Sym is a named symbol: a species concentration or a free parameter.
// Names are NFC normalized at construction so that two spellings of the
// same name always compare equal.
type Sym string

func (Sym) exprNode() {}

func (s Sym) String() string { return string(s) }

// NewSym creates a symbol with an NFC-normalized name.
func NewSym(name string) Sym {
	return Sym(norm.NFC.String(name))
}

// Op identifies an arithmetic operator.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpPow
	OpNeg
)

func (op Op) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpPow:
		return "^"
	case OpNeg:
		return "-"
	default:
		return fmt.Sprintf("Op(%d)", int(op))
	}
}

// precedence returns binding strength for printing. Higher binds tighter.
func (op Op) precedence() int {
	switch op {
	case OpAdd, OpSub:
		return 1
	case OpMul, OpDiv:
		return 2
	case OpNeg:
		return 3
	case OpPow:
		return 4
	default:
		return 0
	}
}

// Unary is a unary operation. OpNeg is the only unary operator.
type Unary struct {
	Op Op
	X  Expr
}

func (*Unary) exprNode() {}

func (u *Unary) String() string {
	inner := u.X.String()
	if needsParens(u.X, u.Op.precedence(), false) {
		inner = "(" + inner + ")"
	}
	return u.Op.String() + inner
}

// Binary is a binary operation.
type Binary struct {
	Op   Op
	X, Y Expr
}

func (*Binary) exprNode() {}

func (b *Binary) String() string {
	// Pow associates to the right, everything else to the left. The
	// operand on the non-associating side needs parentheses at equal
	// precedence.
	strictLeft := b.Op == OpPow
	strictRight := b.Op == OpSub || b.Op == OpDiv

	left := b.X.String()
	if needsParens(b.X, b.Op.precedence(), strictLeft) {
		left = "(" + left + ")"
	}
	right := b.Y.String()
	if needsParens(b.Y, b.Op.precedence(), strictRight) {
		right = "(" + right + ")"
	}
	return left + b.Op.String() + right
}

func needsParens(e Expr, parent int, strict bool) bool {
	var prec int
	switch v := e.(type) {
	case *Binary:
		prec = v.Op.precedence()
	case *Unary:
		prec = v.Op.precedence()
	case Num:
		// Negative constants print with a leading minus.
		if v < 0 {
			prec = OpNeg.precedence()
		} else {
			return false
		}
	default:
		return false
	}
	if strict {
		return prec <= parent
	}
	return prec < parent
}

// Neg negates an expression. Negating a negation or a constant folds,
// so Neg(Neg(e)) is structurally identical to e.
func Neg(e Expr) Expr {
	switch v := e.(type) {
	case Num:
		return Num(-v)
	case *Unary:
		if v.Op == OpNeg {
			return v.X
		}
	}
	return &Unary{Op: OpNeg, X: e}
}

// Scale multiplies an expression by a numeric factor. Scaling by 1
// returns the expression unchanged and scaling by -1 negates it, so
// normalizing against a coefficient of magnitude 1 is a no-op.
func Scale(e Expr, f float64) Expr {
	switch f {
	case 1:
		return e
	case -1:
		return Neg(e)
	}
	if n, ok := e.(Num); ok {
		return Num(float64(n) * f)
	}
	return &Binary{Op: OpMul, X: Num(f), Y: e}
}

// Div divides an expression by a numeric factor. Constants divide
// directly, so Div(Num(x), x) is exactly 1. Dividing by 1 returns the
// expression unchanged and dividing by -1 negates it.
func Div(e Expr, f float64) Expr {
	switch f {
	case 1:
		return e
	case -1:
		return Neg(e)
	}
	if n, ok := e.(Num); ok {
		return Num(float64(n) / f)
	}
	return &Binary{Op: OpDiv, X: e, Y: Num(f)}
}

// Equal reports structural equality of two expressions.
func Equal(a, b Expr) bool {
	switch x := a.(type) {
	case Num:
		y, ok := b.(Num)
		return ok && x == y
	case Sym:
		y, ok := b.(Sym)
		return ok && x == y
	case *Unary:
		y, ok := b.(*Unary)
		return ok && x.Op == y.Op && Equal(x.X, y.X)
	case *Binary:
		y, ok := b.(*Binary)
		return ok && x.Op == y.Op && Equal(x.X, y.X) && Equal(x.Y, y.Y)
	default:
		return false
	}
}

// Symbols returns the sorted set of symbol names appearing in e.
func Symbols(e Expr) []string {
	seen := map[string]bool{}
	collectSymbols(e, seen)
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func collectSymbols(e Expr, seen map[string]bool) {
	switch v := e.(type) {
	case Sym:
		seen[string(v)] = true
	case *Unary:
		collectSymbols(v.X, seen)
	case *Binary:
		collectSymbols(v.X, seen)
		collectSymbols(v.Y, seen)
	}
}

// UnboundSymbolError reports evaluation against an environment that is
// missing a symbol binding.
type UnboundSymbolError struct {
	Name string
}

func (e *UnboundSymbolError) Error() string {
	return fmt.Sprintf("symbol %q has no bound value", e.Name)
}

// Eval evaluates e against bound symbol values.
// Returns an UnboundSymbolError if a symbol has no binding.
func Eval(e Expr, env map[string]float64) (float64, error) {
	switch v := e.(type) {
	case Num:
		return float64(v), nil
	case Sym:
		val, ok := env[string(v)]
		if !ok {
			return 0, &UnboundSymbolError{Name: string(v)}
		}
		return val, nil
	case *Unary:
		x, err := Eval(v.X, env)
		if err != nil {
			return 0, err
		}
		return -x, nil
	case *Binary:
		x, err := Eval(v.X, env)
		if err != nil {
			return 0, err
		}
		y, err := Eval(v.Y, env)
		if err != nil {
			return 0, err
		}
		switch v.Op {
		case OpAdd:
			return x + y, nil
		case OpSub:
			return x - y, nil
		case OpMul:
			return x * y, nil
		case OpDiv:
			if y == 0 {
				return 0, fmt.Errorf("division by zero in %s", e)
			}
			return x / y, nil
		case OpPow:
			return math.Pow(x, y), nil
		}
	}
	return 0, fmt.Errorf("unknown expression node %T", e)
}
