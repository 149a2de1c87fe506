package sfd

import (
	"strconv"
	"strings"
)

type tokKind int

const (
	tokWord   tokKind = iota // bare word or number
	tokString                // "double quoted"
	tokTag                   // 'single quoted' OpenType tag
	tokPunct                 // one of { } [ ] ( ) < >
)

type token struct {
	kind tokKind
	text string
}

func (t token) is(kind tokKind, text string) bool {
	return t.kind == kind && t.text == text
}

// tokenize splits the value part of an SFD line. Strings keep backslash
// escapes resolved; tags keep their inner blanks ('ROM ').
func tokenize(s string) []token {
	var toks []token
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '"':
			var sb strings.Builder
			i++
			for i < len(s) && s[i] != '"' {
				if s[i] == '\\' && i+1 < len(s) {
					i++
					switch s[i] {
					case 'n':
						sb.WriteByte('\n')
					default:
						sb.WriteByte(s[i])
					}
				} else {
					sb.WriteByte(s[i])
				}
				i++
			}
			i++ // closing quote
			toks = append(toks, token{tokString, sb.String()})
		case c == '\'':
			j := strings.IndexByte(s[i+1:], '\'')
			if j < 0 {
				toks = append(toks, token{tokWord, s[i:]})
				return toks
			}
			toks = append(toks, token{tokTag, s[i+1 : i+1+j]})
			i += j + 2
		case strings.IndexByte("{}[]()<>", c) >= 0:
			toks = append(toks, token{tokPunct, string(c)})
			i++
		default:
			j := i
			for j < len(s) && strings.IndexByte(" \t\r\"'{}[]()<>", s[j]) < 0 {
				j++
			}
			toks = append(toks, token{tokWord, s[i:j]})
			i = j
		}
	}
	return toks
}

// splitKey splits "Key: value" into key and trimmed value. Lines without a
// colon-terminated keyword are returned as key with an empty value.
func splitKey(line string) (string, string) {
	t := strings.TrimSpace(line)
	i := strings.IndexByte(t, ':')
	if i < 0 || strings.ContainsAny(t[:i], " \t\"") {
		return t, ""
	}
	return t[:i], strings.TrimSpace(t[i+1:])
}

func atof(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}

func atoi(s string) (int, error) {
	return strconv.Atoi(s)
}

// unescape resolves the backslash escapes FontForge writes into single-line
// string values (Copyright, Comment).
func unescape(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
			if s[i] == 'n' {
				sb.WriteByte('\n')
				continue
			}
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
