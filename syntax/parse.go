package syntax

import "lumesh.sh/lumesh/value"

// Parse compiles Lumesh source text into a single Expression tree. name
// is used only for diagnostics (e.g. a script path or "<stdin>"). A
// non-nil error is always an *errs.SyntaxError, matching the contract
// the interactive REPL and script runner rely on to decide whether a
// ParseError means "incomplete input, read another line" versus a hard
// failure (see cmd/lumesh).
func Parse(src []byte, name string) (value.Expression, error) {
	p, err := newParser(src, name)
	if err != nil {
		return nil, err
	}
	expr, err := p.parseProgram()
	if err != nil {
		return nil, err
	}
	return expr, nil
}

// ParseExpr compiles a single expression, without the statement-level
// command-mode heuristics that apply in parseProgram for already-parsed
// leading symbols. Used by the template renderer for `${expr}`
// interpolation, where bare-word command syntax never makes sense.
func ParseExpr(src []byte, name string) (value.Expression, error) {
	p, err := newParser(src, name)
	if err != nil {
		return nil, err
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.tok.Kind != TokEOF {
		return nil, p.errorf("unexpected trailing input %q", p.tok.Val)
	}
	return expr, nil
}
