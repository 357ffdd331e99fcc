package parser

import (
	"testing"

	"github.com/kir-gadjello/zish/internal/ast"
)

func mustParse(t *testing.T, src string) *ast.Node {
	t.Helper()
	arena := ast.NewArena()
	node, err := Parse(src, arena)
	if err != nil {
		t.Fatalf("%q: unexpected parse error: %v", src, err)
	}
	return node
}

func wordValues(n *ast.Node) []string {
	var out []string
	for _, c := range n.Children {
		out = append(out, c.Value)
	}
	return out
}

func TestParseSimpleCommand(t *testing.T) {
	node := mustParse(t, "echo hello world")
	if node.Kind != ast.Command {
		t.Fatalf("expected Command, got %s", node.Kind)
	}
	got := wordValues(node)
	want := []string{"echo", "hello", "world"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("word %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

func TestParsePipeline(t *testing.T) {
	node := mustParse(t, "printf '%s\\n' a b c | head -2")
	if node.Kind != ast.Pipeline {
		t.Fatalf("expected Pipeline, got %s", node.Kind)
	}
	if len(node.Children) != 2 {
		t.Fatalf("expected 2 pipeline stages, got %d", len(node.Children))
	}
	if node.Children[0].Kind != ast.Command || node.Children[1].Kind != ast.Command {
		t.Errorf("expected both pipeline stages to be Command nodes")
	}
}

func TestParseLogicalAndShortCircuitShape(t *testing.T) {
	node := mustParse(t, "false && echo skipped")
	if node.Kind != ast.LogicalAnd {
		t.Fatalf("expected LogicalAnd, got %s", node.Kind)
	}
	if node.Children[0].Children[0].Value != "false" {
		t.Errorf("expected left side to be 'false'")
	}
}

func TestParseListOfStatements(t *testing.T) {
	node := mustParse(t, "false && echo skipped; echo done")
	if node.Kind != ast.List {
		t.Fatalf("expected List, got %s", node.Kind)
	}
	if len(node.Children) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(node.Children))
	}
	if node.Children[1].Kind != ast.Command || node.Children[1].Children[0].Value != "echo" {
		t.Errorf("expected second statement to be 'echo done'")
	}
}

func TestParseAssignment(t *testing.T) {
	node := mustParse(t, "x=hello")
	if node.Kind != ast.Assignment {
		t.Fatalf("expected Assignment, got %s", node.Kind)
	}
	if node.Value != "x" {
		t.Errorf("expected variable name 'x', got %q", node.Value)
	}
	if node.Children[0].Value != "hello" {
		t.Errorf("expected value 'hello', got %q", node.Children[0].Value)
	}
}

func TestParseAssignmentList(t *testing.T) {
	node := mustParse(t, `x=hello; y=world; echo "$x $y"`)
	if node.Kind != ast.List {
		t.Fatalf("expected List, got %s", node.Kind)
	}
	if len(node.Children) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(node.Children))
	}
	if node.Children[0].Kind != ast.Assignment || node.Children[1].Kind != ast.Assignment {
		t.Errorf("expected first two statements to be assignments")
	}
	if node.Children[2].Kind != ast.Command {
		t.Errorf("expected third statement to be a command")
	}
}

func TestParseRedirect(t *testing.T) {
	node := mustParse(t, "echo hi > out.txt")
	if node.Kind != ast.Redirect {
		t.Fatalf("expected Redirect, got %s", node.Kind)
	}
	if node.Value != ">" {
		t.Errorf("expected operator '>', got %q", node.Value)
	}
	if node.Children[0].Kind != ast.Command {
		t.Errorf("expected subcommand child")
	}
	if node.Children[len(node.Children)-1].Value != "out.txt" {
		t.Errorf("expected redirected word 'out.txt'")
	}
}

func TestParseIfThenElseFi(t *testing.T) {
	node := mustParse(t, "if true then echo yes else echo no fi")
	if node.Kind != ast.If {
		t.Fatalf("expected If, got %s", node.Kind)
	}
	if len(node.Children) != 3 {
		t.Fatalf("expected cond+then+else, got %d children", len(node.Children))
	}
}

func TestParseIfElifElseFi(t *testing.T) {
	node := mustParse(t, "if false then echo a elif true then echo b else echo c fi")
	if node.Kind != ast.If {
		t.Fatalf("expected If, got %s", node.Kind)
	}
	if len(node.Children) != 5 { // cond,then, elifCond,elifThen, else
		t.Fatalf("expected 5 children, got %d", len(node.Children))
	}
}

func TestParseWhileLoop(t *testing.T) {
	node := mustParse(t, "while true do echo loop done")
	if node.Kind != ast.While {
		t.Fatalf("expected While, got %s", node.Kind)
	}
	if len(node.Children) != 2 {
		t.Fatalf("expected cond+body, got %d", len(node.Children))
	}
}

func TestParseUntilLoop(t *testing.T) {
	node := mustParse(t, "until false do echo loop done")
	if node.Kind != ast.Until {
		t.Fatalf("expected Until, got %s", node.Kind)
	}
}

func TestParseForLoop(t *testing.T) {
	node := mustParse(t, "for x in a b c do echo $x done")
	if node.Kind != ast.For {
		t.Fatalf("expected For, got %s", node.Kind)
	}
	if node.Value != "x" {
		t.Errorf("expected loop var 'x', got %q", node.Value)
	}
	if len(node.Children) != 4 { // a, b, c, body
		t.Fatalf("expected 3 items + body, got %d children", len(node.Children))
	}
}

func TestParseSubshell(t *testing.T) {
	node := mustParse(t, "(echo hi)")
	if node.Kind != ast.Subshell {
		t.Fatalf("expected Subshell, got %s", node.Kind)
	}
	if node.Children[0].Kind != ast.Command {
		t.Errorf("expected contained command")
	}
}

func TestParseBraceGroupUnwrapsToBody(t *testing.T) {
	node := mustParse(t, "{ echo hi }")
	if node.Kind != ast.Command {
		t.Fatalf("expected the group's body Command to surface directly, got %s", node.Kind)
	}
}

func TestParseTestExpression(t *testing.T) {
	node := mustParse(t, "[[ -f foo.txt ]]")
	if node.Kind != ast.Test {
		t.Fatalf("expected Test, got %s", node.Kind)
	}
	got := wordValues(node)
	want := []string{"-f", "foo.txt"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestParseFunctionDef(t *testing.T) {
	node := mustParse(t, "greet() { echo hi }")
	if node.Kind != ast.FunctionDef {
		t.Fatalf("expected FunctionDef, got %s", node.Kind)
	}
	if node.Value != "greet" {
		t.Errorf("expected function name 'greet', got %q", node.Value)
	}
	if node.Children[0].Kind != ast.Command {
		t.Errorf("expected function body to be the echo command")
	}
}

func TestParseErrorUnterminatedIf(t *testing.T) {
	arena := ast.NewArena()
	_, err := Parse("if true then echo yes", arena)
	if err == nil {
		t.Fatalf("expected a parse error for a missing 'fi'")
	}
	if _, ok := err.(*ParseError); !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
}

func TestParseErrorEmptyCommand(t *testing.T) {
	arena := ast.NewArena()
	_, err := Parse("", arena)
	if err == nil {
		t.Fatalf("expected an error for an empty command")
	}
}

func TestParseErrorUnmatchedParen(t *testing.T) {
	arena := ast.NewArena()
	_, err := Parse("(echo hi", arena)
	if err == nil {
		t.Fatalf("expected a parse error for an unmatched '('")
	}
}
