// Command lumesh is the process entry point: it parses the flag
// surface from spec.md §6.1, builds a root environment with the
// script-visible state mirrors from §6.5, and either evaluates a
// single `-c` command, runs a script file, or falls back to a minimal
// line-at-a-time interactive loop (the real line-editing/history REPL
// front end is an external collaborator per spec.md §1 and is not
// implemented here).
//
// Grounded on _examples/mvdan-sh/cmd/gosh/main.go's runAll/run/
// runInteractive shape (parse -> r.Run -> report ExitStatus), adapted
// from mvdan-sh's single `-c` flag to Lumesh's fuller flag set using
// github.com/spf13/pflag for GNU-style mutually exclusive short flags
// (-s/-S, -m/-M), and from flag.Parse+os/signal.Notify to
// signal.NotifyContext the same way gosh wires SIGINT/SIGTERM into a
// cancellable context.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"lumesh.sh/lumesh/builtin"
	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/interp"
	"lumesh.sh/lumesh/lmenv"
	"lumesh.sh/lumesh/syntax"
	"lumesh.sh/lumesh/value"
)

type options struct {
	profile     string
	strict      bool
	strictSet   bool
	interactive bool
	cfm         bool
	cfmSet      bool
	noAI        bool
	noHistory   bool
	command     string
}

func main() {
	os.Exit(run(os.Args))
}

func run(argv []string) int {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	opts, scriptArgs, err := parseFlags(argv[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "lumesh:", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := lmenv.NewRoot()
	if wd, err := os.Getwd(); err == nil {
		env.SetCwd(wd)
	}
	isLogin := len(argv) > 0 && strings.HasPrefix(filepath.Base(argv[0]), "-")
	populateRootMirrors(env, opts, isLogin, scriptArgs)

	registry := builtin.New()
	r, err := interp.New(
		interp.WithEnviron(env),
		interp.WithStdio(os.Stdin, os.Stdout, os.Stderr),
		interp.WithBuiltins(registry.Lookup),
		interp.WithTraceExec(os.Stderr),
	)
	if err != nil {
		logger.Error("failed to initialize runtime", "error", err)
		return 1
	}

	if opts.profile != "" {
		if err := runProfile(ctx, r, opts.profile, logger); err != nil {
			logger.Error("profile load failed", "path", opts.profile, "error", err)
		}
	}

	switch {
	case opts.command != "":
		code := evalAndReport(ctx, r, []byte(opts.command), "<command-line>")
		if opts.interactive {
			return runREPL(ctx, r)
		}
		return code
	case len(scriptArgs) > 0:
		return runScriptFile(ctx, r, scriptArgs[0])
	case opts.interactive:
		return runREPL(ctx, r)
	default:
		return runREPL(ctx, r)
	}
}

// parseFlags implements spec.md §6.1's flag surface with pflag, since
// the mutually exclusive short-flag pairs (-s/-S, -m/-M) plus a `--`
// passthrough boundary for script arguments is exactly pflag's niche
// (see SPEC_FULL.md §6).
func parseFlags(args []string) (options, []string, error) {
	fs := pflag.NewFlagSet("lumesh", pflag.ContinueOnError)
	fs.Usage = func() {}

	var opts options
	fs.StringVarP(&opts.profile, "profile", "p", "", "custom config file path")
	strictOn := fs.BoolP("strict-on", "s", false, "enable strict mode")
	strictOff := fs.BoolP("strict-off", "S", false, "disable strict mode")
	fs.BoolVarP(&opts.interactive, "interactive", "i", false, "force interactive REPL even after -c")
	cfmOn := fs.BoolP("cfm-on", "m", false, "enable command-first mode")
	cfmOff := fs.BoolP("cfm-off", "M", false, "disable command-first mode")
	fs.BoolVarP(&opts.noAI, "no-ai", "A", false, "disable AI integration")
	fs.BoolVarP(&opts.noHistory, "no-history", "H", false, "private session, no history persisted")
	fs.StringVarP(&opts.command, "command", "c", "", "evaluate <cmd> and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, nil, err
	}
	if *strictOn && *strictOff {
		return options{}, nil, errors.New("-s and -S are mutually exclusive")
	}
	if *cfmOn && *cfmOff {
		return options{}, nil, errors.New("-m and -M are mutually exclusive")
	}
	opts.strict, opts.strictSet = *strictOn, *strictOn || *strictOff
	opts.cfm, opts.cfmSet = *cfmOn, *cfmOn || *cfmOff

	// pflag.Args() already includes everything after a "--" separator in
	// order, so script positional args and any extra args after "--" both
	// land in rest without further handling, per spec.md §6.1.
	return opts, fs.Args(), nil
}

// populateRootMirrors seeds the root environment's builtin-visible
// state (spec.md §6.5) and, unless this is a login invocation, imports
// the process environment into the root scope the way a real shell
// makes $PATH/$HOME etc. visible as script variables.
func populateRootMirrors(env *lmenv.Environ, opts options, isLogin bool, scriptArgs []string) {
	env.DefineLocal("IS_LOGIN", value.Boolean(isLogin))
	env.DefineLocal("IS_INTERACTIVE", value.Boolean(opts.interactive))
	env.DefineLocal("IS_STRICT", value.Boolean(opts.strictSet && opts.strict))
	env.DefineLocal("IS_CFM", value.Boolean(opts.cfmSet && opts.cfm))
	env.DefineLocal("IS_TRACE", value.Boolean(false))

	script := value.Expression(value.None{})
	argv := make([]value.Expression, 0, len(scriptArgs))
	if len(scriptArgs) > 0 {
		script = value.String(scriptArgs[0])
		for _, a := range scriptArgs[1:] {
			argv = append(argv, value.String(a))
		}
	}
	env.DefineLocal("SCRIPT", script)
	env.DefineLocal("argv", value.NewList(argv))

	if wd, err := os.Getwd(); err == nil {
		env.DefineLocal("PWD", value.String(wd))
		env.DefineLocal("LWD", value.String(wd))
	}

	if isLogin {
		return
	}
	for _, kv := range os.Environ() {
		name, val, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env.DefineLocal(name, value.String(val))
	}
}

func runProfile(ctx context.Context, r *interp.Runner, path string, logger *slog.Logger) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	prog, err := syntax.Parse(src, path)
	if err != nil {
		return err
	}
	_, err = r.Run(ctx, prog)
	return err
}

func runScriptFile(ctx context.Context, r *interp.Runner, path string) int {
	src, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "lumesh: %s\n", err)
		return 1
	}
	return evalAndReport(ctx, r, src, path)
}

// evalAndReport parses and runs src, printing a diagnostic formatted
// per spec.md §7's "error code, kind name, message, context snippet"
// contract and returning the process exit code per spec.md §6.2.
func evalAndReport(ctx context.Context, r *interp.Runner, src []byte, name string) int {
	prog, err := syntax.Parse(src, name)
	if err != nil {
		reportSyntaxError(name, err)
		return 1
	}
	v, err := r.Run(ctx, prog)
	if err != nil {
		reportRuntimeError(name, err)
		return 1
	}
	_ = v
	return 0
}

func reportSyntaxError(name string, err error) {
	var se *errs.SyntaxError
	if errors.As(err, &se) {
		fmt.Fprintf(os.Stderr, "lumesh: %s:%s: syntax error: %s\n", name, se.Start, se.Message)
		return
	}
	fmt.Fprintf(os.Stderr, "lumesh: %s: %s\n", name, err)
}

func reportRuntimeError(name string, err error) {
	var re *errs.RuntimeError
	if errors.As(err, &re) {
		snippet := ""
		if re.Context != nil {
			snippet = value.Display(re.Context)
		}
		fmt.Fprintf(os.Stderr, "lumesh: [%d] %s: %s", re.Code(), re.Kind, re.Message)
		if snippet != "" {
			fmt.Fprintf(os.Stderr, " (in %s)", snippet)
		}
		fmt.Fprintln(os.Stderr)
		return
	}
	fmt.Fprintf(os.Stderr, "lumesh: %s\n", err)
}

// runREPL is a minimal, line-buffered fallback loop: it exists so the
// binary is runnable standalone, but the real interactive experience
// (history, completion, syntax highlighting, multi-line editing) is the
// REPL front end's job per spec.md §1 and is intentionally not
// reimplemented here. Each top-level statement's non-None result is
// echoed, matching the glossary's "print-direct mode".
func runREPL(ctx context.Context, r *interp.Runner) int {
	reader := bufio.NewReader(os.Stdin)
	fmt.Fprint(os.Stdout, "lumesh> ")
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return 0
			}
			fmt.Fprintln(os.Stderr, "lumesh:", err)
			return 1
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			fmt.Fprint(os.Stdout, "lumesh> ")
			continue
		}
		prog, perr := syntax.Parse([]byte(trimmed), "<stdin>")
		if perr != nil {
			reportSyntaxError("<stdin>", perr)
			fmt.Fprint(os.Stdout, "lumesh> ")
			continue
		}
		v, rerr := r.Run(ctx, prog)
		if rerr != nil {
			reportRuntimeError("<stdin>", rerr)
		} else if _, isNone := v.(value.None); !isNone {
			fmt.Fprintln(os.Stdout, value.Display(v))
		}
		if ctx.Err() != nil {
			return 130
		}
		fmt.Fprint(os.Stdout, "lumesh> ")
	}
}
