package interp

import (
	"lumesh.sh/lumesh/syntax"
	"lumesh.sh/lumesh/value"
)

// parseTemplateExpr compiles the text inside a `${...}` span, or a bare
// `$name` span, as a standalone expression. A bare name that happens to
// look like a keyword or number still round-trips through the full
// expression grammar, since `${1 + 1}` and `$x` both need to resolve
// through the same path.
func parseTemplateExpr(text string) (value.Expression, error) {
	return syntax.ParseExpr([]byte(text), "<template>")
}
