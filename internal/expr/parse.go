package expr

import (
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// UnknownNameError reports an identifier that is not in the parse scope.
type UnknownNameError struct {
	Name string
	Pos  int
}

func (e *UnknownNameError) Error() string {
	return fmt.Sprintf("unknown name %q at offset %d", e.Name, e.Pos)
}

// Scope maps identifier names to the symbols they resolve to during
// parsing. Names are matched after NFC normalization.
type Scope map[string]Expr

// NewScope builds a scope from symbol names, each resolving to itself.
func NewScope(names ...string) Scope {
	s := make(Scope, len(names))
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add registers a name resolving to its own symbol.
func (s Scope) Add(name string) {
	sym := NewSym(name)
	s[string(sym)] = sym
}

// Has reports whether name resolves in the scope.
func (s Scope) Has(name string) bool {
	_, ok := s[norm.NFC.String(name)]
	return ok
}

// Parse parses an arithmetic expression. Every identifier in src must
// resolve through the scope; an identifier that does not yields an
// UnknownNameError. Grammar: + - * / unary-minus, ^ (or **) for
// exponentiation, parentheses.
func Parse(src string, scope Scope) (Expr, error) {
	p := &parser{sc: scanner{src: src}, scope: scope}
	if err := p.advance(); err != nil {
		return nil, err
	}
	e, err := p.parseExpr(0)
	if err != nil {
		return nil, err
	}
	if p.tok.kind != tokEOF {
		return nil, &ParseError{Pos: p.tok.pos, Message: fmt.Sprintf("unexpected %q", p.tok.text)}
	}
	return e, nil
}

type parser struct {
	sc    scanner
	tok   token
	scope Scope
}

func (p *parser) advance() error {
	t, err := p.sc.next()
	if err != nil {
		return err
	}
	p.tok = t
	return nil
}

// binding powers for precedence climbing
func infixPower(k tokenKind) (int, bool) {
	switch k {
	case tokPlus, tokMinus:
		return 1, false
	case tokStar, tokSlash:
		return 2, false
	case tokCaret:
		return 4, true // right associative
	default:
		return 0, false
	}
}

func infixOp(k tokenKind) Op {
	switch k {
	case tokPlus:
		return OpAdd
	case tokMinus:
		return OpSub
	case tokStar:
		return OpMul
	case tokSlash:
		return OpDiv
	default:
		return OpPow
	}
}

func (p *parser) parseExpr(minPower int) (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for {
		power, rightAssoc := infixPower(p.tok.kind)
		if power == 0 || power < minPower {
			return left, nil
		}
		op := infixOp(p.tok.kind)
		if err := p.advance(); err != nil {
			return nil, err
		}
		next := power + 1
		if rightAssoc {
			next = power
		}
		right, err := p.parseExpr(next)
		if err != nil {
			return nil, err
		}
		left = &Binary{Op: op, X: left, Y: right}
	}
}

func (p *parser) parseUnary() (Expr, error) {
	switch p.tok.kind {
	case tokMinus:
		if err := p.advance(); err != nil {
			return nil, err
		}
		// Unary minus binds looser than ^: -x^2 is -(x^2).
		x, err := p.parseExpr(OpNeg.precedence() + 1)
		if err != nil {
			return nil, err
		}
		return Neg(x), nil
	case tokPlus:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return p.parseUnary()
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Expr, error) {
	switch p.tok.kind {
	case tokNumber:
		e := Num(p.tok.num)
		if err := p.advance(); err != nil {
			return nil, err
		}
		return e, nil
	case tokIdent:
		name := norm.NFC.String(p.tok.text)
		sym, ok := p.scope[name]
		if !ok {
			return nil, &UnknownNameError{Name: p.tok.text, Pos: p.tok.pos}
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return sym, nil
	case tokLParen:
		if err := p.advance(); err != nil {
			return nil, err
		}
		e, err := p.parseExpr(0)
		if err != nil {
			return nil, err
		}
		if p.tok.kind != tokRParen {
			return nil, &ParseError{Pos: p.tok.pos, Message: "expected )"}
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return e, nil
	case tokEOF:
		return nil, &ParseError{Pos: p.tok.pos, Message: "unexpected end of expression"}
	default:
		return nil, &ParseError{Pos: p.tok.pos, Message: fmt.Sprintf("unexpected %q", p.tok.text)}
	}
}
