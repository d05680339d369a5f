package builtin

import (
	"encoding/csv"
	"strings"

	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/value"
)

// buildFrom registers the From library: structured-text -> List/Map
// decoders that aren't a bijective "parse format" (see Parse/Into)
// but instead interpret delimited text, honoring IFS the way spec §6.4
// describes. No example repo in the pack carries a CSV library and
// the teacher has no CSV dependency to inherit, so this is stdlib
// encoding/csv — the same reasoning that already justifies stdlib
// encoding/json for Parse/Into.
func buildFrom() map[string]value.Builtin {
	return builder("From",
		fn("csv", "From.csv(text) - parse delimited text into a List of List of String, using IFS as the field separator if set", biFromCSV),
		fn("lines", "From.lines(text) - split text into a List of String by newline", biFromLines),
	)
}

func ifsOrDefault(env Env, def rune) rune {
	v, ok := env.Env().Lookup("IFS")
	if !ok {
		return def
	}
	s, ok := v.(value.String)
	if !ok || len(string(s)) == 0 {
		return def
	}
	return []rune(string(s))[0]
}

func biFromCSV(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("From.csv", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	text, err := asString("From.csv", v)
	if err != nil {
		return nil, err
	}
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = ifsOrDefault(env, ',')
	r.FieldsPerRecord = -1
	records, rerr := r.ReadAll()
	if rerr != nil {
		return nil, errs.New(errs.KindInvalidArgument, "From.csv: %s", rerr)
	}
	rows := make([]value.Expression, len(records))
	for i, rec := range records {
		fields := make([]value.Expression, len(rec))
		for j, f := range rec {
			fields[j] = value.String(f)
		}
		rows[i] = value.NewList(fields)
	}
	return value.NewList(rows), nil
}

func biFromLines(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("From.lines", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	text, err := asString("From.lines", v)
	if err != nil {
		return nil, err
	}
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return value.NewList(nil), nil
	}
	parts := strings.Split(text, "\n")
	out := make([]value.Expression, len(parts))
	for i, p := range parts {
		out[i] = value.String(strings.TrimSuffix(p, "\r"))
	}
	return value.NewList(out), nil
}
