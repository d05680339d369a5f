// Package template implements Lumesh's string interpolation: `$name`
// substitutes a bare variable, and `${expr}` substitutes the rendered
// result of an arbitrary expression. This mirrors mvdan-sh's own
// parameter-expansion pass (_examples/mvdan-sh/expand/param.go), which
// walks a string for `$name`/`${...}` forms and calls back into the
// expander for each — here the callback is any function the caller
// supplies, so package interp can use the same renderer for Command
// arguments as for bare string literals, without this package importing
// the evaluator.
package template

import "strings"

// Eval resolves one interpolated span's text (the part after '$' or
// inside '${...}') to its substituted string, or returns an error,
// which Render treats as an interpolation failure.
type Eval func(expr string) (string, error)

// Render scans s for `$name` and `${expr}` spans and replaces each with
// the result of calling eval on its inner text. A literal `$$` collapses
// to a single `$`. Any error from eval is non-fatal per the spec: the
// caller is expected to log it and fall back to substituting an empty
// string, matching Lumesh's "never abort the whole line over one bad
// interpolation" behavior; Render itself returns the first error
// encountered so the caller can decide how to report it.
func Render(s string, eval Eval) (string, error) {
	var out strings.Builder
	var firstErr error
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '$' {
			out.WriteRune(r)
			continue
		}
		if i+1 < len(runes) && runes[i+1] == '$' {
			out.WriteByte('$')
			i++
			continue
		}
		if i+1 < len(runes) && runes[i+1] == '{' {
			end := matchBrace(runes, i+1)
			if end < 0 {
				out.WriteRune(r)
				continue
			}
			expr := string(runes[i+2 : end])
			result, err := eval(expr)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				i = end
				continue
			}
			out.WriteString(result)
			i = end
			continue
		}
		if i+1 < len(runes) && isNameStart(runes[i+1]) {
			j := i + 1
			for j < len(runes) && isNameCont(runes[j]) {
				j++
			}
			name := string(runes[i+1 : j])
			result, err := eval(name)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				i = j - 1
				continue
			}
			out.WriteString(result)
			i = j - 1
			continue
		}
		out.WriteRune(r)
	}
	return out.String(), firstErr
}

func matchBrace(runes []rune, openIdx int) int {
	depth := 0
	for i := openIdx; i < len(runes); i++ {
		switch runes[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isNameStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isNameCont(r rune) bool {
	return isNameStart(r) || (r >= '0' && r <= '9')
}
