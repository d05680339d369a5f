package value

// Display renders an Expression as script-facing text: strings render
// unquoted (their raw contents), everything else uses String(). This
// mirrors how the spec's template renderer stringifies `${expr}`
// results and how command arguments are flattened.
func Display(e Expression) string {
	if e == nil {
		return ""
	}
	if s, ok := e.(String); ok {
		return string(s)
	}
	return e.String()
}
