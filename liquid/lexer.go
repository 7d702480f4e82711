// Package liquid is a minimal interpreter for the Liquid template
// subset bbcarchdev/quilt's libliquify implements: plain text,
// `{{ expression | filter | ... }}` output, `{% if/elsif/else/endif %}`,
// `{% for x in y %}...{% endfor %}`, and `{% include "name" %}`.
//
// Grounded on original_source/libliquify/{token,parse,expression,apply,
// blocks,block-if,block-for,tag-include,filters}.c: tokens are produced
// by a hand-rolled scanner (not text/template's lexer, which doesn't
// speak Liquid's `{{ }}`/`{% %}` delimiters), the parsed tree is held in
// a flat, arena-indexed slice rather than pointer-linked nodes (mirroring
// libliquify's Part/Expr arenas), and execution walks that slice with an
// explicit frame stack rather than direct recursion. There is no capture
// stack: an `if` pushes a frame for the one branch that is taken, and a
// `for` pushes one frame per item; `include` renders through a nested
// interpreter.
package liquid

import "strings"

// tokenKind classifies one lexer token.
type tokenKind int

const (
	tokenText tokenKind = iota
	tokenOutputStart    // {{
	tokenOutputEnd      // }}
	tokenTagStart       // {%
	tokenTagEnd         // %}
	tokenIdent
	tokenString
	tokenNumber
	tokenPipe   // |
	tokenDot    // .
	tokenColon  // :
	tokenComma  // ,
	tokenOp     // == != < > <= >= and or not contains
	tokenEOF
)

type lexToken struct {
	kind tokenKind
	text string
}

// lex scans src into a flat token stream. Text outside {{ }}/{% %}
// delimiters is emitted verbatim as tokenText; everything inside is
// tokenized into idents/strings/numbers/operators.
func lex(src string) []lexToken {
	var toks []lexToken
	i := 0
	for i < len(src) {
		start := -1
		for j := i; j < len(src); j++ {
			if src[j] == '{' && isDelimStart(src, j) {
				start = j - i
				break
			}
		}
		if start < 0 {
			toks = append(toks, lexToken{tokenText, src[i:]})
			break
		}
		if start > 0 {
			toks = append(toks, lexToken{tokenText, src[i : i+start]})
		}
		i += start
		if strings.HasPrefix(src[i:], "{{") {
			toks = append(toks, lexToken{tokenOutputStart, "{{"})
			i += 2
			end := strings.Index(src[i:], "}}")
			if end < 0 {
				toks = append(toks, lexExpr(src[i:])...)
				i = len(src)
				break
			}
			toks = append(toks, lexExpr(src[i:i+end])...)
			i += end
			toks = append(toks, lexToken{tokenOutputEnd, "}}"})
			i += 2
		} else {
			toks = append(toks, lexToken{tokenTagStart, "{%"})
			i += 2
			end := strings.Index(src[i:], "%}")
			if end < 0 {
				toks = append(toks, lexExpr(src[i:])...)
				i = len(src)
				break
			}
			toks = append(toks, lexExpr(src[i:i+end])...)
			i += end
			toks = append(toks, lexToken{tokenTagEnd, "%}"})
			i += 2
		}
	}
	toks = append(toks, lexToken{tokenEOF, ""})
	return toks
}

func isDelimStart(src string, i int) bool {
	if i+1 >= len(src) {
		return false
	}
	return src[i+1] == '{' || src[i+1] == '%'
}

// lexExpr tokenizes the interior of a {{ }} or {% %} block.
func lexExpr(s string) []lexToken {
	var toks []lexToken
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '|':
			toks = append(toks, lexToken{tokenPipe, "|"})
			i++
		case c == '.':
			toks = append(toks, lexToken{tokenDot, "."})
			i++
		case c == ':':
			toks = append(toks, lexToken{tokenColon, ":"})
			i++
		case c == ',':
			toks = append(toks, lexToken{tokenComma, ","})
			i++
		case c == '"' || c == '\'':
			j := i + 1
			for j < len(s) && s[j] != c {
				j++
			}
			toks = append(toks, lexToken{tokenString, s[i+1 : j]})
			i = j + 1
		case isOpStart(s, i):
			op, n := readOp(s[i:])
			toks = append(toks, lexToken{tokenOp, op})
			i += n
		case isDigit(c):
			j := i
			for j < len(s) && (isDigit(s[j]) || s[j] == '.') {
				j++
			}
			toks = append(toks, lexToken{tokenNumber, s[i:j]})
			i = j
		case isIdentStart(c):
			j := i
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			word := s[i:j]
			switch word {
			case "and", "or", "not", "contains":
				toks = append(toks, lexToken{tokenOp, word})
			default:
				toks = append(toks, lexToken{tokenIdent, word})
			}
			i = j
		default:
			i++
		}
	}
	return toks
}

func isOpStart(s string, i int) bool {
	c := s[i]
	if c == '=' || c == '!' || c == '<' || c == '>' {
		return true
	}
	return false
}

func readOp(s string) (string, int) {
	if len(s) >= 2 {
		two := s[:2]
		switch two {
		case "==", "!=", "<=", ">=":
			return two, 2
		}
	}
	return s[:1], 1
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || isDigit(c) || c == '?' || c == '!'
}
