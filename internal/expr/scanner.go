package expr

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	pos  int // byte offset in source
	text string
	num  float64 // valid when kind == tokNumber
}

// ParseError reports a syntax error in an expression source string.
type ParseError struct {
	Pos     int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("expression syntax error at offset %d: %s", e.Pos, e.Message)
}

type scanner struct {
	src string
	off int
}

func (s *scanner) next() (token, error) {
	for s.off < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.off:])
		if !unicode.IsSpace(r) {
			break
		}
		s.off += size
	}
	if s.off >= len(s.src) {
		return token{kind: tokEOF, pos: s.off}, nil
	}

	start := s.off
	r, size := utf8.DecodeRuneInString(s.src[s.off:])

	switch r {
	case '+':
		s.off += size
		return token{kind: tokPlus, pos: start, text: "+"}, nil
	case '-':
		s.off += size
		return token{kind: tokMinus, pos: start, text: "-"}, nil
	case '*':
		s.off += size
		// Accept ** as an exponent operator alongside ^.
		if s.off < len(s.src) && s.src[s.off] == '*' {
			s.off++
			return token{kind: tokCaret, pos: start, text: "**"}, nil
		}
		return token{kind: tokStar, pos: start, text: "*"}, nil
	case '/':
		s.off += size
		return token{kind: tokSlash, pos: start, text: "/"}, nil
	case '^':
		s.off += size
		return token{kind: tokCaret, pos: start, text: "^"}, nil
	case '(':
		s.off += size
		return token{kind: tokLParen, pos: start, text: "("}, nil
	case ')':
		s.off += size
		return token{kind: tokRParen, pos: start, text: ")"}, nil
	case ',':
		s.off += size
		return token{kind: tokComma, pos: start, text: ","}, nil
	}

	if unicode.IsDigit(r) || r == '.' {
		return s.scanNumber(start)
	}
	if isIdentStart(r) {
		return s.scanIdent(start)
	}
	return token{}, &ParseError{Pos: start, Message: fmt.Sprintf("unexpected character %q", r)}
}

func (s *scanner) scanNumber(start int) (token, error) {
	seenDot, seenExp := false, false
	for s.off < len(s.src) {
		c := s.src[s.off]
		switch {
		case c >= '0' && c <= '9':
			s.off++
		case c == '.' && !seenDot && !seenExp:
			seenDot = true
			s.off++
		case (c == 'e' || c == 'E') && !seenExp && s.off+1 < len(s.src) && isExpTail(s.src[s.off+1]):
			seenExp = true
			s.off++
			if s.src[s.off] == '+' || s.src[s.off] == '-' {
				s.off++
			}
		default:
			goto done
		}
	}
done:
	text := s.src[start:s.off]
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token{}, &ParseError{Pos: start, Message: fmt.Sprintf("malformed number %q", text)}
	}
	return token{kind: tokNumber, pos: start, text: text, num: v}, nil
}

func isExpTail(c byte) bool {
	return (c >= '0' && c <= '9') || c == '+' || c == '-'
}

func (s *scanner) scanIdent(start int) (token, error) {
	for s.off < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.off:])
		if !isIdentPart(r) {
			break
		}
		s.off += size
	}
	return token{kind: tokIdent, pos: start, text: s.src[start:s.off]}, nil
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentPart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
