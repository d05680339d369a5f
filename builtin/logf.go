package builtin

import (
	"log/slog"
	"strconv"

	"lumesh.sh/lumesh/value"
)

// buildLog registers the Log library on top of log/slog, per
// SPEC_FULL.md §10's ambient-stack decision: none of the teacher pack
// pulls in a heavier structured logger, and slog is the modern stdlib
// default a Go author would reach for here.
func buildLog() map[string]value.Builtin {
	return builder("Log",
		fn("info", "Log.info(msg, ...) - structured info-level log line", logAt(slog.LevelInfo)),
		fn("warn", "Log.warn(msg, ...)", logAt(slog.LevelWarn)),
		fn("error", "Log.error(msg, ...)", logAt(slog.LevelError)),
		fn("debug", "Log.debug(msg, ...)", logAt(slog.LevelDebug)),
	)
}

func logAt(level slog.Level) Func {
	return func(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
		if err := arityAtLeast("Log function", args, 1); err != nil {
			return nil, err
		}
		vals, err := env.EvalArgs(args)
		if err != nil {
			return nil, err
		}
		msg := value.Display(vals[0])
		attrs := make([]any, 0, (len(vals)-1)*2)
		for i, v := range vals[1:] {
			attrs = append(attrs, "arg"+strconv.Itoa(i), value.Display(v))
		}
		logger := slog.New(slog.NewTextHandler(env.Stderr(), nil))
		logger.Log(env.Context(), level, msg, attrs...)
		return value.None{}, nil
	}
}
