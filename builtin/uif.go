package builtin

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"lumesh.sh/lumesh/errs"
	"lumesh.sh/lumesh/value"
)

// buildUi registers the Ui library: interactive selection prompts built
// on Bubble Tea, the same Model/Update/View TUI framework
// _examples/ardnew-aenv's REPL (cli/cmd/repl/repl.go) uses, styled with
// the lipgloss the rest of the ambient stack already depends on.
func buildUi() map[string]value.Builtin {
	return builder("Ui",
		fn("pick", "Ui.pick(items, [prompt]) - interactively choose one item, returning it", biUiPick),
		fn("multi_pick", "Ui.multi_pick(items, [prompt]) - interactively choose any number of items, returning a List", biUiMultiPick),
	)
}

var (
	uiCursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	uiSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	uiPromptStyle   = lipgloss.NewStyle().Bold(true)
)

// uiItems converts the first argument of Ui.pick/Ui.multi_pick into a
// list of display strings. A bare String argument is split on IFS, per
// spec §6.4 ("IFS overrides default field separator for ... ui.pick /
// ui.multi_pick when a single string is given as items").
func uiItems(env Env, v value.Expression) ([]string, error) {
	switch x := v.(type) {
	case value.List:
		items := x.Items()
		out := make([]string, len(items))
		for i, it := range items {
			out[i] = value.Display(it)
		}
		return out, nil
	case value.String:
		sep := ifsOrDefault(env, ' ')
		var out []string
		cur := ""
		for _, r := range string(x) {
			if r == sep {
				if cur != "" {
					out = append(out, cur)
					cur = ""
				}
				continue
			}
			cur += string(r)
		}
		if cur != "" {
			out = append(out, cur)
		}
		return out, nil
	default:
		return nil, errs.New(errs.KindTypeError, "Ui function expects a List or String of items, found %s", v.Kind())
	}
}

func uiPrompt(args []value.Expression, env Env, n int, def string) (string, error) {
	if len(args) <= n {
		return def, nil
	}
	v, err := env.EvalArg(args[n])
	if err != nil {
		return "", err
	}
	return value.Display(v), nil
}

type pickModel struct {
	prompt   string
	items    []string
	cursor   int
	selected map[int]bool
	multi    bool
	done     bool
	aborted  bool
}

func (m pickModel) Init() tea.Cmd { return nil }

func (m pickModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch keyMsg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case " ":
		if m.multi {
			m.selected[m.cursor] = !m.selected[m.cursor]
		}
	case "enter":
		if m.multi && len(m.selected) == 0 {
			m.selected[m.cursor] = true
		}
		m.done = true
		return m, tea.Quit
	case "ctrl+c", "esc":
		m.aborted = true
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m pickModel) View() string {
	s := uiPromptStyle.Render(m.prompt) + "\n"
	for i, item := range m.items {
		cursor := "  "
		if i == m.cursor {
			cursor = uiCursorStyle.Render("> ")
		}
		box := ""
		if m.multi {
			box = "[ ] "
			if m.selected[i] {
				box = "[x] "
			}
		}
		line := cursor + box + item
		if i == m.cursor {
			line = uiSelectedStyle.Render(line)
		}
		s += line + "\n"
	}
	return s
}

func runPick(prompt string, items []string, multi bool) (pickModel, error) {
	m := pickModel{prompt: prompt, items: items, selected: map[int]bool{}, multi: multi}
	if len(items) == 0 {
		return m, errs.New(errs.KindInvalidArgument, "Ui function requires a non-empty list of items")
	}
	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return m, errs.New(errs.KindIO, "Ui function: %s", err)
	}
	final, _ := result.(pickModel)
	return final, nil
}

func biUiPick(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arityAtLeast("Ui.pick", args, 1); err != nil {
		return nil, err
	}
	itemsVal, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	items, err := uiItems(env, itemsVal)
	if err != nil {
		return nil, err
	}
	prompt, err := uiPrompt(args, env, 1, "Pick one:")
	if err != nil {
		return nil, err
	}
	m, err := runPick(prompt, items, false)
	if err != nil {
		return nil, err
	}
	if m.aborted {
		return nil, errs.New(errs.KindInterrupted, "Ui.pick was cancelled")
	}
	return value.String(items[m.cursor]), nil
}

func biUiMultiPick(args []value.Expression, env Env, ctx value.Expression) (value.Expression, error) {
	if err := arityAtLeast("Ui.multi_pick", args, 1); err != nil {
		return nil, err
	}
	itemsVal, err := env.EvalArg(args[0])
	if err != nil {
		return nil, err
	}
	items, err := uiItems(env, itemsVal)
	if err != nil {
		return nil, err
	}
	prompt, err := uiPrompt(args, env, 1, fmt.Sprintf("Pick any of %d:", len(items)))
	if err != nil {
		return nil, err
	}
	m, err := runPick(prompt, items, true)
	if err != nil {
		return nil, err
	}
	if m.aborted {
		return nil, errs.New(errs.KindInterrupted, "Ui.multi_pick was cancelled")
	}
	chosen := make([]value.Expression, 0, len(m.selected))
	for i, it := range items {
		if m.selected[i] {
			chosen = append(chosen, value.String(it))
		}
	}
	return value.NewList(chosen), nil
}
