package eval

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kir-gadjello/zish/internal/ast"
	"github.com/kir-gadjello/zish/internal/expand"
	"github.com/kir-gadjello/zish/internal/parser"
)

type fakeHistory struct {
	added []string
}

func (h *fakeHistory) Add(cmd string, exitCode int, successful bool) error {
	h.added = append(h.added, cmd)
	return nil
}

func (h *fakeHistory) Entries() []HistoryItem {
	out := make([]HistoryItem, len(h.added))
	for i, c := range h.added {
		out[i] = HistoryItem{Index: i, Command: c}
	}
	return out
}

func newTestEnv(stdout *bytes.Buffer) *Environment {
	env := NewEnvironment()
	env.Stdout = stdout
	env.Stderr = stdout
	env.History = &fakeHistory{}
	env.Expander = &expand.Expander{
		Vars:         func(name string) (string, bool) { v, ok := env.GetVar(name); return v, ok },
		Getenv:       func(string) string { return "" },
		LastExitCode: func() int { return env.ExitCode },
		Home:         "/home/zish",
		Run:          func(cmd string) (string, error) { return "", nil },
	}
	env.Execute = func(e *Environment, source string) (int, error) {
		return runSource(e, source)
	}
	return env
}

func runSource(env *Environment, src string) (int, error) {
	arena := ast.NewArena()
	node, err := parser.Parse(src, arena)
	if err != nil {
		return 1, err
	}
	return Eval(node, env)
}

func TestEchoBuiltin(t *testing.T) {
	var out bytes.Buffer
	env := newTestEnv(&out)
	code, err := runSource(env, "echo hello world")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
	if out.String() != "hello world\n" {
		t.Errorf("expected 'hello world\\n', got %q", out.String())
	}
}

func TestAssignmentAndDoubleQuoteExpansion(t *testing.T) {
	var out bytes.Buffer
	env := newTestEnv(&out)
	code, err := runSource(env, `x=hello; y=world; echo "$x $y"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 0 {
		t.Errorf("expected exit 0, got %d", code)
	}
	if out.String() != "hello world\n" {
		t.Errorf("expected 'hello world\\n', got %q", out.String())
	}
}

func TestLogicalAndShortCircuit(t *testing.T) {
	var out bytes.Buffer
	env := newTestEnv(&out)
	code, err := runSource(env, "false && echo skipped; echo done")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 0 {
		t.Errorf("expected exit 0, got %d", code)
	}
	if out.String() != "done\n" {
		t.Errorf("expected 'done\\n', got %q", out.String())
	}
}

func TestIfThenElse(t *testing.T) {
	var out bytes.Buffer
	env := newTestEnv(&out)
	code, err := runSource(env, "if true then echo yes else echo no fi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 0 || out.String() != "yes\n" {
		t.Errorf("expected 'yes\\n'/0, got %q/%d", out.String(), code)
	}
}

func TestWhileLoopCounter(t *testing.T) {
	var out bytes.Buffer
	env := newTestEnv(&out)
	src := `i=0; while [[ $i != 3 ]] do echo $i; i=$((i + 1)) done`
	code, err := runSource(env, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 0 {
		t.Errorf("expected exit 0, got %d", code)
	}
	want := "0\n1\n2\n"
	if out.String() != want {
		t.Errorf("expected %q, got %q", want, out.String())
	}
}

func TestForLoopOverWords(t *testing.T) {
	var out bytes.Buffer
	env := newTestEnv(&out)
	code, err := runSource(env, "for x in a b c do echo $x done")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 0 {
		t.Errorf("expected exit 0, got %d", code)
	}
	want := "a\nb\nc\n"
	if out.String() != want {
		t.Errorf("expected %q, got %q", want, out.String())
	}
}

func TestTestExpressionStringEquality(t *testing.T) {
	var out bytes.Buffer
	env := newTestEnv(&out)
	code, _ := runSource(env, "[[ abc == abc ]]")
	if code != 0 {
		t.Errorf("expected true (0), got %d", code)
	}
	code, _ = runSource(env, "[[ abc == xyz ]]")
	if code != 1 {
		t.Errorf("expected false (1), got %d", code)
	}
	code, _ = runSource(env, "[[ ! abc == xyz ]]")
	if code != 0 {
		t.Errorf("expected negation to flip to true (0), got %d", code)
	}
}

func TestFunctionDefinitionAndCall(t *testing.T) {
	var out bytes.Buffer
	env := newTestEnv(&out)
	_, err := runSource(env, "greet() { echo hi }")
	if err != nil {
		t.Fatalf("unexpected error defining function: %v", err)
	}
	if _, ok := env.Functions["greet"]; !ok {
		t.Fatalf("expected function 'greet' to be registered")
	}
	code, err := runSource(env, "greet")
	if err != nil {
		t.Fatalf("unexpected error calling function: %v", err)
	}
	if code != 0 || out.String() != "hi\n" {
		t.Errorf("expected 'hi\\n'/0, got %q/%d", out.String(), code)
	}
}

func TestFunctionArgumentsBindPositionalVars(t *testing.T) {
	var out bytes.Buffer
	env := newTestEnv(&out)
	runSource(env, `greet() { echo $1 }`)
	runSource(env, "greet world")
	if out.String() != "world\n" {
		t.Errorf("expected 'world\\n', got %q", out.String())
	}
}

func TestExternalCommandNotFound(t *testing.T) {
	var out bytes.Buffer
	env := newTestEnv(&out)
	code, err := runSource(env, "this-command-does-not-exist-zish-test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 127 {
		t.Errorf("expected exit code 127, got %d", code)
	}
	if !strings.Contains(out.String(), "command not found") {
		t.Errorf("expected a 'command not found' message, got %q", out.String())
	}
}

func TestExternalCommandEcho(t *testing.T) {
	var out bytes.Buffer
	env := newTestEnv(&out)
	code, err := runSource(env, "/bin/echo hi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 0 {
		t.Errorf("expected exit 0, got %d", code)
	}
	if out.String() != "hi\n" {
		t.Errorf("expected 'hi\\n', got %q", out.String())
	}
}

func TestPipelineExitIsLastStage(t *testing.T) {
	var out bytes.Buffer
	env := newTestEnv(&out)
	code, err := runSource(env, "false | true")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 0 {
		t.Errorf("expected the pipeline's exit code to be the last stage's (0), got %d", code)
	}

	code, err = runSource(env, "true | false")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 1 {
		t.Errorf("expected the pipeline's exit code to be the last stage's (1), got %d", code)
	}
}

func TestRedirectToFile(t *testing.T) {
	var out bytes.Buffer
	env := newTestEnv(&out)
	dir := t.TempDir()
	env.Vars["OUTFILE"] = dir + "/out.txt"
	code, err := runSource(env, "echo hi > $OUTFILE")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 0 {
		t.Errorf("expected exit 0, got %d", code)
	}
}

func TestArithmeticExpansionInAssignment(t *testing.T) {
	var out bytes.Buffer
	env := newTestEnv(&out)
	runSource(env, "x=$((2 + 3 * 4))")
	v, _ := env.GetVar("x")
	if v != "14" {
		t.Errorf("expected '14', got %q", v)
	}
}

func TestIterationLimitOnRunawayLoop(t *testing.T) {
	var out bytes.Buffer
	env := newTestEnv(&out)
	_, err := runSource(env, "while true do true done")
	if err != ErrIterationLimit {
		t.Errorf("expected ErrIterationLimit, got %v", err)
	}
}

func TestExportSetsShellVariable(t *testing.T) {
	var out bytes.Buffer
	env := newTestEnv(&out)
	runSource(env, "export FOO=bar")
	v, ok := env.GetVar("FOO")
	if !ok || v != "bar" {
		t.Errorf("expected FOO=bar, got %q (ok=%v)", v, ok)
	}
}

func TestUnsetRemovesVariable(t *testing.T) {
	var out bytes.Buffer
	env := newTestEnv(&out)
	runSource(env, "x=hello")
	runSource(env, "unset x")
	if _, ok := env.GetVar("x"); ok {
		t.Errorf("expected x to be unset")
	}
}

func TestDottedIPv4RegressionThroughFullPipeline(t *testing.T) {
	var out bytes.Buffer
	env := newTestEnv(&out)
	code, err := runSource(env, "echo 1.1.1.1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 0 || out.String() != "1.1.1.1\n" {
		t.Errorf("expected '1.1.1.1\\n'/0, got %q/%d", out.String(), code)
	}
}
