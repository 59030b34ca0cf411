package pysettings

import "strings"

type tokenKind int

const (
	tokenCode tokenKind = iota
	tokenString
	tokenComment
)

// scanTokens walks s from index from, reporting every non-whitespace code byte,
// every string literal and every comment. fn returns false to stop.
func scanTokens(s string, from int, fn func(start, end int, kind tokenKind) bool) {
	for i := from; i < len(s); {
		c := s[i]
		switch {
		case c == '#':
			end := strings.IndexByte(s[i:], '\n')
			if end < 0 {
				end = len(s)
			} else {
				end += i
			}
			if !fn(i, end, tokenComment) {
				return
			}
			i = end
		case c == '\'' || c == '"':
			end := stringEnd(s, i)
			if !fn(i, end, tokenString) {
				return
			}
			i = end
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			i++
		default:
			if !fn(i, i+1, tokenCode) {
				return
			}
			i++
		}
	}
}

// scanCode reports code bytes only, skipping strings and comments.
func scanCode(s string, from int, fn func(i int, c byte) bool) {
	scanTokens(s, from, func(start, _ int, kind tokenKind) bool {
		if kind != tokenCode {
			return true
		}
		return fn(start, s[start])
	})
}

// stringEnd returns the index just past the literal starting at s[i].
func stringEnd(s string, i int) int {
	q := s[i : i+1]
	if strings.HasPrefix(s[i:], strings.Repeat(q, 3)) {
		q = strings.Repeat(q, 3)
	}
	j := i + len(q)
	for j < len(s) {
		switch {
		case s[j] == '\\':
			j += 2
			continue
		case strings.HasPrefix(s[j:], q):
			return j + len(q)
		case len(q) == 1 && s[j] == '\n':
			// unterminated single-line literal
			return j
		}
		j++
	}
	return len(s)
}
