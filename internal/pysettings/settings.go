// Package pysettings edits Django settings modules by declaration name rather
// than by raw string offsets.
package pysettings

import (
	"fmt"
	"regexp"
	"strings"

	generr "shireesh.com/stackgen/internal/errors"
)

// ErrAnchorNotFound is returned when a named top-level list is absent or unterminated.
var ErrAnchorNotFound = generr.New(generr.EAnchorNotFound, "list declaration not found")

// listSpan is the byte range of a top-level `NAME = [ ... ]` declaration.
type listSpan struct {
	open  int // index of '['
	close int // index of the matching ']'
}

func anchorError(name, reason string) error {
	return generr.Wrap(generr.EAnchorNotFound, fmt.Sprintf("%s %s", name, reason), ErrAnchorNotFound)
}

func declaration(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)^` + regexp.QuoteMeta(name) + `[ \t]*=[ \t]*`)
}

// HasAssignment reports whether src assigns name at the top level.
func HasAssignment(src, name string) bool {
	return declaration(name).MatchString(src)
}

func findList(src, name string) (listSpan, error) {
	loc := declaration(name).FindStringIndex(src)
	if loc == nil {
		return listSpan{}, anchorError(name, "is not declared at the top level")
	}
	open := loc[1]
	if open >= len(src) || src[open] != '[' {
		return listSpan{}, anchorError(name, "is not a list literal")
	}

	depth := 0
	closeAt := -1
	scanCode(src, open, func(i int, c byte) bool {
		switch c {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			depth--
			if depth == 0 {
				closeAt = i
				return false
			}
		}
		return true
	})
	if closeAt < 0 {
		return listSpan{}, anchorError(name, "has no closing bracket")
	}
	return listSpan{open: open, close: closeAt}, nil
}

// InsertAfterList inserts block immediately after the closing bracket of the
// top-level list assigned to name.
func InsertAfterList(src, name, block string) (string, error) {
	span, err := findList(src, name)
	if err != nil {
		return "", err
	}
	at := span.close + 1
	return src[:at] + block + src[at:], nil
}

// ListItems returns the string literal entries of the named list.
func ListItems(src, name string) ([]string, error) {
	span, err := findList(src, name)
	if err != nil {
		return nil, err
	}
	return stringLiterals(src[span.open+1 : span.close]), nil
}

// AppendToList adds the items missing from the named list of strings at its end.
func AppendToList(src, name string, items ...string) (string, error) {
	return addToList(src, name, false, items)
}

// PrependToList adds the items missing from the named list of strings at its start.
func PrependToList(src, name string, items ...string) (string, error) {
	return addToList(src, name, true, items)
}

func addToList(src, name string, front bool, items []string) (string, error) {
	span, err := findList(src, name)
	if err != nil {
		return "", err
	}
	inner := src[span.open+1 : span.close]

	present := map[string]bool{}
	for _, s := range stringLiterals(inner) {
		present[s] = true
	}
	var missing []string
	for _, item := range items {
		if !present[item] {
			missing = append(missing, item)
			present[item] = true
		}
	}
	if len(missing) == 0 {
		return src, nil
	}

	indent := listIndent(inner)
	var add strings.Builder
	for _, item := range missing {
		add.WriteString("\n" + indent + quote(item) + ",")
	}

	if front {
		return src[:span.open+1] + add.String() + src[span.open+1:], nil
	}

	body := strings.TrimRight(inner, " \t\r\n")
	if last := lastCodeByte(body); last >= 0 && body[last] != ',' {
		body = body[:last+1] + "," + body[last+1:]
	}
	return src[:span.open+1] + body + add.String() + "\n" + src[span.close:], nil
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}

var indentRe = regexp.MustCompile(`(?m)^([ \t]+)\S`)

func listIndent(inner string) string {
	if m := indentRe.FindStringSubmatch(inner); m != nil {
		return m[1]
	}
	return "    "
}

// lastCodeByte is the index of the last byte of s outside comments and
// whitespace, or -1.
func lastCodeByte(s string) int {
	last := -1
	scanTokens(s, 0, func(start, end int, kind tokenKind) bool {
		if kind != tokenComment {
			last = end - 1
		}
		return true
	})
	return last
}

func stringLiterals(s string) []string {
	var out []string
	scanTokens(s, 0, func(start, end int, kind tokenKind) bool {
		if kind == tokenString {
			out = append(out, unquote(s[start:end]))
		}
		return true
	})
	return out
}

func unquote(lit string) string {
	lit = strings.TrimLeft(lit, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(lit, q) && strings.HasSuffix(lit, q) && len(lit) >= 2*len(q) {
			return lit[len(q) : len(lit)-len(q)]
		}
	}
	return lit
}
