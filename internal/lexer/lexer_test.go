package lexer

import "testing"

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func TestDottedWordsAreNotSplitOnFdLookahead(t *testing.T) {
	for _, cmd := range []string{"echo 1.1.1.1", "echo 3.14", "cat test.tar.gz"} {
		toks, err := TokenizeAll(cmd)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", cmd, err)
		}
		if len(toks) != 3 { // word, word, EOF
			t.Fatalf("%q: expected 3 tokens, got %d (%v)", cmd, len(toks), kinds(toks))
		}
		if toks[1].Kind != Word {
			t.Errorf("%q: expected second token to be a Word, got %s", cmd, toks[1].Kind)
		}
	}
}

func TestFdRedirectTokens(t *testing.T) {
	cases := []struct {
		src  string
		want []Kind
	}{
		{"cmd 2>&1", []Kind{Word, RedirErrToOut, EOF}},
		{"cmd 2>err.log", []Kind{Word, RedirErr, Word, EOF}},
		{"cmd 1>out.log", []Kind{Word, Integer, RedirOut, Word, EOF}},
		{"cmd >out.log", []Kind{Word, RedirOut, Word, EOF}},
		{"cmd >>out.log", []Kind{Word, RedirAppend, Word, EOF}},
		{"cmd <in.txt", []Kind{Word, RedirIn, Word, EOF}},
		{"cmd <<<str", []Kind{Word, RedirHereStr, Word, EOF}},
	}
	for _, c := range cases {
		toks, err := TokenizeAll(c.src)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", c.src, err)
		}
		got := kinds(toks)
		if len(got) != len(c.want) {
			t.Fatalf("%q: expected kinds %v, got %v", c.src, c.want, got)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("%q: token %d: expected %s, got %s", c.src, i, c.want[i], got[i])
			}
		}
	}
}

func TestPipesAndLogicalOperators(t *testing.T) {
	toks, err := TokenizeAll("a | b && c || d")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []Kind{Word, Pipe, Word, And, Word, Or, Word, EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestKeywordsRecognized(t *testing.T) {
	toks, err := TokenizeAll("if true then echo hi fi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != If {
		t.Errorf("expected If, got %s", toks[0].Kind)
	}
	if toks[2].Kind != Then {
		t.Errorf("expected Then, got %s", toks[2].Kind)
	}
	if toks[len(toks)-2].Kind != Fi {
		t.Errorf("expected Fi, got %s", toks[len(toks)-2].Kind)
	}
}

func TestCommentsAndShebangAreSkipped(t *testing.T) {
	toks, err := TokenizeAll("#!/usr/bin/env zish\necho hi # trailing comment\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// shebang line consumed entirely, then a NewLine, then "echo hi", a
	// NewLine (the trailing comment eaten), then EOF.
	want := []Kind{NewLine, Word, Word, NewLine, EOF}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestSingleQuotedStringNoEscapes(t *testing.T) {
	toks, err := TokenizeAll(`'a\nb'`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Kind != String || toks[0].Value != `a\nb` {
		t.Errorf("expected literal %q, got %q", `a\nb`, toks[0].Value)
	}
}

func TestDoubleQuotedStringEscapes(t *testing.T) {
	toks, err := TokenizeAll(`"a\nb\t\"c\\d"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "a\nb\t\"c\\d"
	if toks[0].Kind != DoubleQuotedString || toks[0].Value != want {
		t.Errorf("expected %q, got %q", want, toks[0].Value)
	}
}

func TestWordWithEmbeddedExpansions(t *testing.T) {
	for _, src := range []string{"$HOME/bin", "${HOME}/bin", "$(echo hi)/bin", "prefix${FOO:-bar}suffix"} {
		toks, err := TokenizeAll(src)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", src, err)
		}
		if len(toks) != 2 || toks[0].Kind != Word {
			t.Fatalf("%q: expected a single Word token, got %v", src, kinds(toks))
		}
		if toks[0].Value != src {
			t.Errorf("%q: round-trip mismatch, got %q", src, toks[0].Value)
		}
	}
}

func TestRoundTripConcatenationPreservesText(t *testing.T) {
	src := "echo hello world | grep hello"
	toks, err := TokenizeAll(src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rebuilt string
	for _, tok := range toks {
		if tok.Kind == EOF || tok.Kind == NewLine {
			continue
		}
		if rebuilt != "" {
			rebuilt += " "
		}
		rebuilt += tok.Value
	}
	want := "echo hello world | grep hello"
	if rebuilt != want {
		t.Errorf("expected %q, got %q", want, rebuilt)
	}
}

func TestUnterminatedSingleQuotedString(t *testing.T) {
	_, err := TokenizeAll("echo 'unterminated")
	lexErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %v", err)
	}
	if lexErr.Kind != UnterminatedString {
		t.Errorf("expected UnterminatedString, got %s", lexErr.Kind)
	}
}

func TestUnterminatedDoubleQuotedString(t *testing.T) {
	_, err := TokenizeAll(`echo "unterminated`)
	lexErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %v", err)
	}
	if lexErr.Kind != UnterminatedDoubleQuotedString {
		t.Errorf("expected UnterminatedDoubleQuotedString, got %s", lexErr.Kind)
	}
}

func TestUnterminatedCommandSubstitution(t *testing.T) {
	_, err := TokenizeAll("echo $(echo hi")
	lexErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %v", err)
	}
	if lexErr.Kind != UnterminatedCommandSubstitution {
		t.Errorf("expected UnterminatedCommandSubstitution, got %s", lexErr.Kind)
	}
}

func TestUnterminatedParameterExpansion(t *testing.T) {
	_, err := TokenizeAll("echo ${FOO")
	lexErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %v", err)
	}
	if lexErr.Kind != UnterminatedParameterExpansion {
		t.Errorf("expected UnterminatedParameterExpansion, got %s", lexErr.Kind)
	}
}

func TestTokenTooLong(t *testing.T) {
	long := make([]byte, MaxTokenLength+10)
	for i := range long {
		long[i] = 'a'
	}
	_, err := TokenizeAll(string(long))
	lexErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %v", err)
	}
	if lexErr.Kind != TokenTooLong {
		t.Errorf("expected TokenTooLong, got %s", lexErr.Kind)
	}
}

func TestRecursionLimitExceeded(t *testing.T) {
	src := "echo "
	for i := 0; i < MaxExpansionRecursion+2; i++ {
		src += "$("
	}
	_, err := TokenizeAll(src)
	lexErr, ok := err.(*Error)
	if !ok {
		t.Fatalf("expected *Error, got %v", err)
	}
	if lexErr.Kind != RecursionLimitExceeded && lexErr.Kind != UnterminatedCommandSubstitution {
		t.Errorf("expected RecursionLimitExceeded or UnterminatedCommandSubstitution, got %s", lexErr.Kind)
	}
}
