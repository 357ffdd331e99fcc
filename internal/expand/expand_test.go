package expand

import "testing"

func newExpander(vars map[string]string) *Expander {
	return &Expander{
		Vars: func(name string) (string, bool) {
			v, ok := vars[name]
			return v, ok
		},
		Getenv:       func(string) string { return "" },
		LastExitCode: func() int { return 0 },
		Home:         "/home/zish",
	}
}

func expandOne(t *testing.T, e *Expander, raw string, quoted bool) string {
	t.Helper()
	out, err := e.Word(raw, quoted)
	if err != nil {
		t.Fatalf("%q: unexpected error: %v", raw, err)
	}
	if len(out) != 1 {
		t.Fatalf("%q: expected exactly one result, got %v", raw, out)
	}
	return out[0]
}

func TestTildeExpansion(t *testing.T) {
	e := newExpander(nil)
	if got := expandOne(t, e, "~", false); got != "/home/zish" {
		t.Errorf("expected home dir, got %q", got)
	}
	if got := expandOne(t, e, "~/proj", false); got != "/home/zish/proj" {
		t.Errorf("expected /home/zish/proj, got %q", got)
	}
}

func TestTildeNotExpandedWhenQuoted(t *testing.T) {
	e := newExpander(nil)
	if got := expandOne(t, e, "~/proj", true); got != "~/proj" {
		t.Errorf("expected literal ~/proj, got %q", got)
	}
}

func TestLastExitCodeExpansion(t *testing.T) {
	e := newExpander(nil)
	e.LastExitCode = func() int { return 7 }
	if got := expandOne(t, e, "$?", false); got != "7" {
		t.Errorf("expected '7', got %q", got)
	}
}

func TestArithmeticExpansion(t *testing.T) {
	e := newExpander(nil)
	if got := expandOne(t, e, "$((2 + 3 * 4))", false); got != "14" {
		t.Errorf("expected '14', got %q", got)
	}
}

func TestBareVariableExpansion(t *testing.T) {
	e := newExpander(map[string]string{"x": "hello"})
	if got := expandOne(t, e, "$x", false); got != "hello" {
		t.Errorf("expected 'hello', got %q", got)
	}
}

func TestBareVariableMissingIsEmpty(t *testing.T) {
	e := newExpander(nil)
	if got := expandOne(t, e, "$missing", false); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}

func TestDoubleQuotedWordWithTwoVariables(t *testing.T) {
	e := newExpander(map[string]string{"x": "hello", "y": "world"})
	if got := expandOne(t, e, "$x $y", true); got != "hello world" {
		t.Errorf("expected 'hello world', got %q", got)
	}
}

func TestBraceParamDefault(t *testing.T) {
	e := newExpander(nil)
	if got := expandOne(t, e, "${FOO:-default}", false); got != "default" {
		t.Errorf("expected 'default', got %q", got)
	}
}

func TestBraceParamDefaultOnlyWhenUnsetNotEmpty(t *testing.T) {
	e := newExpander(map[string]string{"FOO": ""})
	// `-` (no colon) only triggers on unset, not on empty.
	if got := expandOne(t, e, "${FOO-default}", false); got != "" {
		t.Errorf("expected empty string for set-but-empty var with '-', got %q", got)
	}
	// `:-` triggers on unset OR empty.
	if got := expandOne(t, e, "${FOO:-default}", false); got != "default" {
		t.Errorf("expected 'default' for ':-' on empty var, got %q", got)
	}
}

func TestBraceParamAlternate(t *testing.T) {
	e := newExpander(map[string]string{"FOO": "set"})
	if got := expandOne(t, e, "${FOO:+alt}", false); got != "alt" {
		t.Errorf("expected 'alt', got %q", got)
	}
}

func TestBraceParamErrorWhenUnset(t *testing.T) {
	e := newExpander(nil)
	_, err := e.Word("${FOO:?missing value}", false)
	if err == nil {
		t.Fatalf("expected an error")
	}
	if _, ok := err.(*ParameterNotSetError); !ok {
		t.Fatalf("expected *ParameterNotSetError, got %T", err)
	}
}

func TestCommandSubstitution(t *testing.T) {
	e := newExpander(nil)
	e.Run = func(cmd string) (string, error) {
		if cmd == "echo hi" {
			return "hi\n", nil
		}
		return "", nil
	}
	if got := expandOne(t, e, "$(echo hi)", false); got != "hi" {
		t.Errorf("expected 'hi', got %q", got)
	}
}

func TestBacktickSubstitution(t *testing.T) {
	e := newExpander(nil)
	e.Run = func(cmd string) (string, error) { return "hi\n", nil }
	if got := expandOne(t, e, "`echo hi`", false); got != "hi" {
		t.Errorf("expected 'hi', got %q", got)
	}
}

func TestGlobExpansionNoMatchKeepsLiteral(t *testing.T) {
	e := newExpander(nil)
	out, err := e.Word("/no/such/path/*.nonexistent", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0] != "/no/such/path/*.nonexistent" {
		t.Errorf("expected literal pattern kept, got %v", out)
	}
}
