package graph

import (
	"fmt"
	"strings"
	"unicode"
)

// Extract pulls the first digraph block out of free-form model output and
// validates it. The block runs from the "digraph" keyword to the brace that
// balances its opening one.
func Extract(text string) (string, error) {
	start := strings.Index(text, "digraph")
	if start < 0 {
		return "", ErrNoDigraph
	}
	content := text[start:]

	depth := 0
	end := -1
	for i, r := range content {
		if r == '{' {
			depth++
		} else if r == '}' {
			depth--
			if depth == 0 {
				end = i + 1
				break
			}
		}
	}
	if end < 0 {
		return "", ErrUnbalanced
	}

	return Validate(strings.TrimSpace(content[:end]))
}

// Explanation returns the prose that precedes the digraph block.
func Explanation(text string) string {
	if i := strings.Index(text, "digraph"); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

// Validate repairs the usual model mistakes and returns the code when it
// parses. Control characters other than newlines and tabs are dropped, a
// missing digraph header is added, and stray pipes, doubled quotes and
// doubled closers are fixed up.
func Validate(code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", ErrEmpty
	}

	code = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' || unicode.IsPrint(r) {
			return r
		}
		return -1
	}, code)

	if !strings.Contains(code, "digraph") {
		code = fmt.Sprintf("digraph G {\n%s\n}", code)
	}

	code = strings.ReplaceAll(code, "|", `"`)
	code = strings.ReplaceAll(code, `""`, `"`)
	code = strings.ReplaceAll(code, "};};", "};")

	if _, err := Parse(code); err != nil {
		return "", err
	}
	return code, nil
}
