package main

import (
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/applied-systems-biology/jipipe-expr/jexpr"
	tea "github.com/charmbracelet/bubbletea"
)

func newTestREPL(t *testing.T) replModel {
	t.Helper()
	engine, err := jexpr.NewEngine(jexpr.Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return newREPLModel(engine)
}

func submit(t *testing.T, m replModel, input string) (replModel, tea.Cmd) {
	t.Helper()
	m.textInput.SetValue(input)
	model, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	rm, ok := model.(replModel)
	if !ok {
		t.Fatalf("unexpected model type %T", model)
	}
	return rm, cmd
}

func lastEntry(t *testing.T, m replModel) historyEntry {
	t.Helper()
	if len(m.history) == 0 {
		t.Fatalf("history is empty")
	}
	return m.history[len(m.history)-1]
}

func TestUpdateQuitCommandReturnsQuit(t *testing.T) {
	rm, cmd := submit(t, newTestREPL(t), ":quit")

	if !rm.quitting {
		t.Fatalf("quitting flag not set")
	}
	if rm.textInput.Value() != "" {
		t.Fatalf("input not cleared after quit command")
	}
	if cmd == nil {
		t.Fatalf("expected tea.Quit command")
	}
	if msg := cmd(); msg != nil {
		if _, ok := msg.(tea.QuitMsg); !ok {
			t.Fatalf("expected QuitMsg, got %T", msg)
		}
	}
}

func TestUpdateNonQuitCommandDoesNotReturnCmd(t *testing.T) {
	rm, cmd := submit(t, newTestREPL(t), ":help")

	if cmd != nil {
		t.Fatalf("expected no command for non-quit input")
	}
	if rm.quitting {
		t.Fatalf("quitting should remain false")
	}
	if !rm.showHelp {
		t.Fatalf("help toggle should be enabled")
	}
	if rm.textInput.Value() != "" {
		t.Fatalf("input not cleared after command")
	}
}

func TestEvaluateAssignmentStoresVariable(t *testing.T) {
	m := newTestREPL(t)

	output, isErr := m.evaluate("score = 40 + 2")
	if isErr {
		t.Fatalf("unexpected eval error: %s", output)
	}
	if output != "42" {
		t.Fatalf("unexpected output %q", output)
	}
	score, ok := m.env["score"]
	if !ok || !score.Equal(jexpr.NewNumber(42)) {
		t.Fatalf("expected score to be stored, got %v", score)
	}
	if last := m.env[lastResult]; !last.Equal(jexpr.NewNumber(42)) {
		t.Fatalf("expected _ to hold the last result, got %v", last)
	}
}

func TestEvaluateEqualityDoesNotOverwriteVariable(t *testing.T) {
	m := newTestREPL(t)
	m.env["a"] = jexpr.NewNumber(5)

	output, isErr := m.evaluate("a == 5")
	if isErr {
		t.Fatalf("unexpected eval error: %s", output)
	}
	if output != "true" {
		t.Fatalf("unexpected output %q", output)
	}
	if a := m.env["a"]; !a.Equal(jexpr.NewNumber(5)) {
		t.Fatalf("variable a was clobbered by equality expression: %v", a)
	}
}

func TestEvaluateSetVariablePersists(t *testing.T) {
	m := newTestREPL(t)
	if output, isErr := m.evaluate(`SET_VARIABLE("n", 3)`); isErr {
		t.Fatalf("unexpected eval error: %s", output)
	}
	output, isErr := m.evaluate("n * 2")
	if isErr || output != "6" {
		t.Fatalf("expected 6, got %q (error %v)", output, isErr)
	}
}

func TestEvaluateErrorIsReported(t *testing.T) {
	m := newTestREPL(t)
	rm, _ := submit(t, m, "missing + 1")
	entry := lastEntry(t, rm)
	if !entry.isErr || !strings.Contains(entry.output, `unknown variable "missing"`) {
		t.Fatalf("unexpected entry %+v", entry)
	}
	if len(rm.cmdHistory) != 1 {
		t.Fatalf("expected failed input in command history")
	}
}

func TestResetAndFuncsCommands(t *testing.T) {
	m := newTestREPL(t)
	m, _ = submit(t, m, "x = 1")
	m, _ = submit(t, m, ":reset")
	if len(m.env) != 0 {
		t.Fatalf("expected empty env after reset, got %v", m.env.Keys())
	}

	m, _ = submit(t, m, ":funcs TO_")
	entry := lastEntry(t, m)
	if !strings.Contains(entry.output, "TO_NUMBER") || strings.Contains(entry.output, "IF_ELSE") {
		t.Fatalf("unexpected function listing %q", entry.output)
	}

	m, _ = submit(t, m, ":bogus")
	if entry := lastEntry(t, m); !entry.isErr {
		t.Fatalf("expected unknown command error")
	}
}

func TestHistoryNavigation(t *testing.T) {
	m := newTestREPL(t)
	m, _ = submit(t, m, "1 + 1")
	m, _ = submit(t, m, "2 + 2")

	model, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = model.(replModel)
	if m.textInput.Value() != "2 + 2" {
		t.Fatalf("expected most recent input, got %q", m.textInput.Value())
	}
	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = model.(replModel)
	if m.textInput.Value() != "1 + 1" {
		t.Fatalf("expected older input, got %q", m.textInput.Value())
	}
	model, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	model, _ = model.(replModel).Update(tea.KeyMsg{Type: tea.KeyDown})
	m = model.(replModel)
	if m.textInput.Value() != "" || m.historyIdx != -1 {
		t.Fatalf("expected history reset, got %q at %d", m.textInput.Value(), m.historyIdx)
	}
}

func TestAutocomplete(t *testing.T) {
	m := newTestREPL(t)
	m.env["cell_area"] = jexpr.NewNumber(1)

	m.textInput.SetValue("1 + IF_EL")
	m = m.handleAutocomplete()
	if m.textInput.Value() != "1 + IF_ELSE(" {
		t.Fatalf("unexpected completion %q", m.textInput.Value())
	}

	m.textInput.SetValue("MAX(cell_")
	m = m.handleAutocomplete()
	if m.textInput.Value() != "MAX(cell_area" {
		t.Fatalf("unexpected completion %q", m.textInput.Value())
	}

	m.textInput.SetValue("TO_")
	m = m.handleAutocomplete()
	if m.textInput.Value() != "TO_" {
		t.Fatalf("ambiguous prefix should not complete, got %q", m.textInput.Value())
	}
	if entry := lastEntry(t, m); !strings.HasPrefix(entry.output, "Completions: ") {
		t.Fatalf("expected completions listing, got %q", entry.output)
	}
}

func TestReloadMessage(t *testing.T) {
	m := newTestREPL(t)
	model, _ := m.Update(reloadMsg{functions: 12})
	m = model.(replModel)
	if entry := lastEntry(t, m); entry.isErr || entry.output != "extensions reloaded (12 functions)" {
		t.Fatalf("unexpected entry %+v", entry)
	}

	model, _ = m.Update(reloadMsg{err: errors.New("boom")})
	m = model.(replModel)
	if entry := lastEntry(t, m); !entry.isErr || !strings.Contains(entry.output, "boom") {
		t.Fatalf("unexpected entry %+v", entry)
	}
}

func TestViewRendersHistoryAndPanels(t *testing.T) {
	m := newTestREPL(t)
	model, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 60})
	m = model.(replModel)
	m, _ = submit(t, m, "answer = 6 * 7")
	m, _ = submit(t, m, ":vars")
	m, _ = submit(t, m, ":help")

	view := m.View()
	for _, want := range []string{"JIPipe Expression REPL", "answer = 6 * 7", "42", "Variables", ":funcs"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}
