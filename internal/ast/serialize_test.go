package ast

import "testing"

func TestSerializeCommand(t *testing.T) {
	a := NewArena()
	cmd := a.New(Command, "", a.New(Word, "echo"), a.New(Word, "hi"))
	if got := Serialize(cmd); got != "echo hi" {
		t.Errorf("expected 'echo hi', got %q", got)
	}
}

func TestSerializeFunctionDef(t *testing.T) {
	a := NewArena()
	body := a.New(Command, "", a.New(Word, "echo"), a.New(Word, "hi"))
	fn := a.New(FunctionDef, "greet", body)
	got := Serialize(fn)
	want := "greet() { echo hi }"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSerializeIfElif(t *testing.T) {
	a := NewArena()
	cond1 := a.New(Command, "", a.New(Word, "false"))
	then1 := a.New(Command, "", a.New(Word, "echo"), a.New(Word, "a"))
	cond2 := a.New(Command, "", a.New(Word, "true"))
	then2 := a.New(Command, "", a.New(Word, "echo"), a.New(Word, "b"))
	els := a.New(Command, "", a.New(Word, "echo"), a.New(Word, "c"))
	ifNode := &Node{Kind: If, Children: []*Node{cond1, then1, cond2, then2, els}}

	got := Serialize(ifNode)
	want := "if false then echo a elif true then echo b else echo c fi"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
