package formula

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenType int

const (
	tokEOF tokenType = iota
	tokNumber
	tokString
	tokName
	tokKeyword
	tokOp
)

type token struct {
	typ tokenType
	val string
	pos int
}

var keywords = map[string]bool{
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"if": true, "else": true, "lambda": true, "for": true,
	"True": true, "False": true, "None": true,
}

// Operators and delimiters, longest first so the scanner is greedy.
var operators = []string{
	"**", "//", "<<", ">>", "<=", ">=", "==", "!=", ":=",
	"+", "-", "*", "/", "%", "@", "&", "|", "^", "~",
	"<", ">", "=", "(", ")", "[", "]", "{", "}", ",", ".", ":",
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		r, size := utf8.DecodeRuneInString(src[i:])
		switch {
		case r == utf8.RuneError && size == 1:
			return nil, syntaxError(i, "invalid UTF-8")

		case unicode.IsSpace(r):
			i += size

		case isDigit(src[i]) || (src[i] == '.' && i+1 < len(src) && isDigit(src[i+1])):
			end, err := scanNumber(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{typ: tokNumber, val: strings.ReplaceAll(src[i:end], "_", ""), pos: i})
			i = end

		case r == '_' || unicode.IsLetter(r):
			end := i
			for end < len(src) {
				c, n := utf8.DecodeRuneInString(src[end:])
				if c != '_' && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
					break
				}
				end += n
			}
			word := src[i:end]
			typ := tokName
			if keywords[word] {
				typ = tokKeyword
			}
			toks = append(toks, token{typ: typ, val: word, pos: i})
			i = end

		case r == '"' || r == '\'':
			s, end, err := scanString(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{typ: tokString, val: s, pos: i})
			i = end

		default:
			op := matchOperator(src[i:])
			if op == "" {
				return nil, syntaxError(i, "unexpected character %q", r)
			}
			toks = append(toks, token{typ: tokOp, val: op, pos: i})
			i += len(op)
		}
	}
	return append(toks, token{typ: tokEOF, pos: len(src)}), nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func matchOperator(s string) string {
	for _, op := range operators {
		if strings.HasPrefix(s, op) {
			return op
		}
	}
	return ""
}

// scanNumber accepts digits with single underscores between them, an
// optional fraction and an optional exponent.
func scanNumber(src string, start int) (int, error) {
	i := start
	digits := func() bool {
		begin := i
		for i < len(src) && (isDigit(src[i]) || src[i] == '_') {
			if src[i] == '_' && (i == begin || i+1 >= len(src) || !isDigit(src[i+1])) {
				return false
			}
			i++
		}
		return true
	}

	if !digits() {
		return 0, syntaxError(start, "invalid number literal")
	}
	if i < len(src) && src[i] == '.' {
		i++
		if !digits() {
			return 0, syntaxError(start, "invalid number literal")
		}
	}
	if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
		i++
		if i < len(src) && (src[i] == '+' || src[i] == '-') {
			i++
		}
		if i >= len(src) || !isDigit(src[i]) {
			return 0, syntaxError(start, "invalid number literal")
		}
		if !digits() {
			return 0, syntaxError(start, "invalid number literal")
		}
	}
	if i < len(src) {
		if r, _ := utf8.DecodeRuneInString(src[i:]); r == '_' || unicode.IsLetter(r) {
			return 0, syntaxError(start, "invalid number literal")
		}
	}
	return i, nil
}

func scanString(src string, start int) (string, int, error) {
	quote := src[start]
	var b strings.Builder
	i := start + 1
	for i < len(src) {
		c := src[i]
		switch {
		case c == quote:
			return b.String(), i + 1, nil
		case c == '\n':
			return "", 0, syntaxError(start, "unterminated string literal")
		case c == '\\' && i+1 < len(src):
			i++
			switch src[i] {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case '\\', '\'', '"':
				b.WriteByte(src[i])
			default:
				b.WriteByte('\\')
				b.WriteByte(src[i])
			}
			i++
		default:
			b.WriteByte(c)
			i++
		}
	}
	return "", 0, syntaxError(start, "unterminated string literal")
}
