package fea

import (
	"strings"
)

type tokKind int

const (
	tokEOF    tokKind = iota
	tokName           // glyph name, keyword or tag
	tokNumber         // integer, possibly negative
	tokFloat          // number with a decimal point
	tokClass          // @name
	tokString         // "double quoted"
	tokPath           // argument of include(…)
	tokCID            // \123
	tokSymbol         // one of { } [ ] ( ) < > ; , = ' -
)

type token struct {
	kind    tokKind
	text    string
	escaped bool // name was written with a leading backslash
	pos     Pos
}

// is reports whether t is the keyword or symbol s. Escaped names are never
// keywords.
func (t token) is(s string) bool {
	return (t.kind == tokName && !t.escaped || t.kind == tokSymbol) && t.text == s
}

func isNameStart(c byte) bool {
	return c >= 'A' && c <= 'Z' || c >= 'a' && c <= 'z' || strings.IndexByte("_+*:.^~!", c) >= 0
}

func isNameChar(c byte) bool {
	return isNameStart(c) || c >= '0' && c <= '9' || c == '/' || c == '-'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// lex splits feature file text into tokens. The last token is always of
// kind tokEOF.
func lex(src, file string) ([]token, error) {
	var toks []token
	line, lineStart := 1, 0
	i := 0
	at := func(p int) Pos {
		return Pos{File: file, Line: line, Column: p - lineStart + 1}
	}
	for i < len(src) {
		c := src[i]
		switch {
		case c == '\n':
			i++
			line, lineStart = line+1, i
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '#':
			for i < len(src) && src[i] != '\n' {
				i++
			}
		case c == '"':
			start := i
			j := strings.IndexByte(src[i+1:], '"')
			if j < 0 {
				return nil, errorAt(at(start), "unterminated string")
			}
			s := src[i+1 : i+1+j]
			toks = append(toks, token{kind: tokString, text: s, pos: at(start)})
			for k := i; k < i+j+2; k++ {
				if src[k] == '\n' {
					line, lineStart = line+1, k+1
				}
			}
			i += j + 2
		case c == '@':
			j := i + 1
			for j < len(src) && isNameChar(src[j]) {
				j++
			}
			if j == i+1 {
				return nil, errorAt(at(i), "missing class name after '@'")
			}
			toks = append(toks, token{kind: tokClass, text: src[i+1 : j], pos: at(i)})
			i = j
		case c == '\\':
			j := i + 1
			if j < len(src) && isDigit(src[j]) {
				for j < len(src) && isDigit(src[j]) {
					j++
				}
				toks = append(toks, token{kind: tokCID, text: src[i+1 : j], pos: at(i)})
				i = j
				continue
			}
			for j < len(src) && isNameChar(src[j]) {
				j++
			}
			if j == i+1 {
				return nil, errorAt(at(i), "missing glyph name after '\\'")
			}
			toks = append(toks, token{kind: tokName, text: src[i+1 : j], escaped: true, pos: at(i)})
			i = j
		case isDigit(c) || c == '-' && i+1 < len(src) && isDigit(src[i+1]):
			j := i + 1
			kind := tokNumber
			for j < len(src) && (isDigit(src[j]) || src[j] == '.') {
				if src[j] == '.' {
					kind = tokFloat
				}
				j++
			}
			toks = append(toks, token{kind: kind, text: src[i:j], pos: at(i)})
			i = j
		case isNameStart(c):
			j := i + 1
			for j < len(src) && isNameChar(src[j]) {
				j++
			}
			tok := token{kind: tokName, text: src[i:j], pos: at(i)}
			toks = append(toks, tok)
			i = j
			if tok.text != "include" {
				continue
			}
			// the argument of include is a raw path
			for i < len(src) && (src[i] == ' ' || src[i] == '\t') {
				i++
			}
			if i >= len(src) || src[i] != '(' {
				return nil, errorAt(at(i), "expected '(' after include")
			}
			k := strings.IndexAny(src[i+1:], ")\n")
			if k < 0 || src[i+1+k] != ')' {
				return nil, errorAt(at(i), "unterminated include path")
			}
			path := strings.TrimSpace(src[i+1 : i+1+k])
			toks = append(toks, token{kind: tokPath, text: path, pos: at(i + 1)})
			i += k + 2
		case strings.IndexByte("{}[]()<>;,='-", c) >= 0:
			toks = append(toks, token{kind: tokSymbol, text: string(c), pos: at(i)})
			i++
		default:
			return nil, errorAt(at(i), "unexpected character %q", c)
		}
	}
	toks = append(toks, token{kind: tokEOF, pos: at(i)})
	return toks, nil
}
