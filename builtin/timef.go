package builtin

import (
	"time"

	"lumesh.sh/lumesh/value"
)

// buildTime registers the Time library: wall-clock queries and
// formatting, backed by the standard library's time package the way
// none of the teacher pack needs a heavier date library for a shell's
// "what time is it" builtins.
func buildTime() map[string]value.Builtin {
	return builder("Time",
		fn("now", "Time.now() - Unix seconds as a Float", func(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
			return value.Float(float64(time.Now().UnixNano()) / 1e9), nil
		}),
		fn("now_ms", "Time.now_ms() - Unix milliseconds as an Integer", func(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
			return value.Integer(time.Now().UnixMilli()), nil
		}),
		fn("format", "Time.format(unix_seconds, layout) - Go reference-time layout", biTimeFormat),
		fn("sleep", "Time.sleep(seconds)", biTimeSleep),
	)
}

func biTimeFormat(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Time.format", args, 2); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	secs, err := asFloat("Time.format", vals[0])
	if err != nil {
		return nil, err
	}
	layout, err := asString("Time.format", vals[1])
	if err != nil {
		return nil, err
	}
	t := time.Unix(int64(secs), 0).UTC()
	return value.String(t.Format(layout)), nil
}

func biTimeSleep(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Time.sleep", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	secs, err := asFloat("Time.sleep", v)
	if err != nil {
		return nil, err
	}
	select {
	case <-time.After(time.Duration(secs * float64(time.Second))):
	case <-env.Context().Done():
	}
	return value.None{}, nil
}
