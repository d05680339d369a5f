package value

import "regexp"

// Regex is a first-class compiled regular expression value.
type Regex struct {
	Source   string
	Compiled *regexp.Regexp
}

func (Regex) Kind() Kind       { return KindRegex }
func (r Regex) String() string { return r.Source }

// Quote holds an Expression that evaluating Quote returns unchanged;
// it defers evaluation exactly one level, per the spec.
type Quote struct {
	Body Expression
}

func (Quote) Kind() Kind       { return KindQuote }
func (q Quote) String() string { return "'" + Display(q.Body) }
