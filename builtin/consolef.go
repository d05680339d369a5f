package builtin

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"lumesh.sh/lumesh/value"
)

// buildConsole registers the Console library: terminal chrome built on
// lipgloss (already an ambient dependency for diagnostic styling) and
// golang.org/x/term (already an ambient dependency for the PTY raw-mode
// executor), rather than hand-rolled ANSI escape sequences.
func buildConsole() map[string]value.Builtin {
	return builder("Console",
		fn("clear", "Console.clear() - clear the terminal screen", biConsoleClear),
		fn("width", "Console.width() - the terminal's column count, or 80 if not a terminal", biConsoleWidth),
		fn("height", "Console.height() - the terminal's row count, or 24 if not a terminal", biConsoleHeight),
		fn("style", "Console.style(text, color) - text rendered in the named foreground color", biConsoleStyle),
		fn("bold", "Console.bold(text) - text rendered bold", biConsoleBold),
	)
}

func biConsoleClear(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	fmt.Fprint(env.Stdout(), "\x1b[H\x1b[2J")
	return value.None{}, nil
}

func terminalSize() (width, height int) {
	w, h, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80, 24
	}
	return w, h
}

func biConsoleWidth(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	w, _ := terminalSize()
	return value.Integer(w), nil
}

func biConsoleHeight(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	_, h := terminalSize()
	return value.Integer(h), nil
}

func biConsoleStyle(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Console.style", args, 2); err != nil {
		return nil, err
	}
	vals, err := env.EvalArgs(args)
	if err != nil {
		return nil, err
	}
	text, err := asString("Console.style", vals[0])
	if err != nil {
		return nil, err
	}
	color, err := asString("Console.style", vals[1])
	if err != nil {
		return nil, err
	}
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
	return value.String(style.Render(text)), nil
}

func biConsoleBold(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arity("Console.bold", args, 1); err != nil {
		return nil, err
	}
	v, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	text, err := asString("Console.bold", v)
	if err != nil {
		return nil, err
	}
	return value.String(lipgloss.NewStyle().Bold(true).Render(text)), nil
}
