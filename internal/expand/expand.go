// Package expand implements word expansion — tilde, parameter, arithmetic,
// command, and glob.
package expand

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CommandRunner executes a command string and returns its captured
// stdout, for `$(cmd)` and backtick substitution. The Evaluator wires a
// pty-backed implementation bounded to 4 KiB of output.
type CommandRunner func(cmd string) (string, error)

// ParameterNotSetError is raised by `${VAR:?msg}` / `${VAR?msg}` when the
// variable is unset (or empty, for the `:?` form).
type ParameterNotSetError struct {
	Message string
}

func (e *ParameterNotSetError) Error() string { return e.Message }

// Expander holds the lookups needed to expand a single word.
type Expander struct {
	// Vars are shell variables; they take priority over the environment.
	Vars func(name string) (string, bool)
	// Getenv exposes the process environment as a fallback lookup.
	Getenv func(name string) string
	// LastExitCode backs `$?`.
	LastExitCode func() int
	// Home backs leading-`~` expansion.
	Home string
	// Run backs `$(cmd)` and backtick substitution.
	Run CommandRunner
}

// lookup resolves a bare variable name: shell variables win over the
// environment; missing resolves to empty.
func (e *Expander) lookup(name string) string {
	if e.Vars != nil {
		if v, ok := e.Vars(name); ok {
			return v
		}
	}
	if e.Getenv != nil {
		return e.Getenv(name)
	}
	return os.Getenv(name)
}

// Word expands a single token's raw text. quoted indicates the token came
// from a double-quoted string (parameter/command/arithmetic expansion
// still happens, but no tilde expansion and no subsequent glob/word
// splitting). Single-quoted tokens (ast.String) must never be passed
// here; the caller uses their literal Value directly.
func (e *Expander) Word(raw string, quoted bool) ([]string, error) {
	text := raw
	if !quoted {
		text = e.expandTilde(text)
	}
	expanded, err := e.expandSubstitutions(text)
	if err != nil {
		return nil, err
	}
	if quoted {
		return []string{expanded}, nil
	}
	return e.globExpand(expanded), nil
}

func (e *Expander) expandTilde(s string) string {
	if s == "~" {
		return e.Home
	}
	if strings.HasPrefix(s, "~/") {
		return e.Home + s[1:]
	}
	return s
}

func (e *Expander) globExpand(pattern string) []string {
	if !strings.ContainsAny(pattern, "*?[") {
		return []string{pattern}
	}
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return []string{pattern}
	}
	return matches
}

// expandSubstitutions scans text left to right, replacing `$?`,
// `$((...))`, `$(...)`, `` `...` ``, `${...}`, and bare `$VAR` references.
func (e *Expander) expandSubstitutions(text string) (string, error) {
	var sb strings.Builder
	i := 0
	for i < len(text) {
		c := text[i]
		switch {
		case c == '`':
			end := strings.IndexByte(text[i+1:], '`')
			if end < 0 {
				sb.WriteString(text[i:])
				i = len(text)
				continue
			}
			cmd := text[i+1 : i+1+end]
			out, err := e.runCommand(cmd)
			if err != nil {
				return "", err
			}
			sb.WriteString(out)
			i = i + 1 + end + 1
		case c == '$' && i+1 < len(text):
			consumed, replacement, err := e.expandDollar(text[i:])
			if err != nil {
				return "", err
			}
			sb.WriteString(replacement)
			i += consumed
		default:
			sb.WriteByte(c)
			i++
		}
	}
	return sb.String(), nil
}

// expandDollar expands the `$`-form at the start of s, returning how many
// bytes of s it consumed and the replacement text.
func (e *Expander) expandDollar(s string) (consumed int, replacement string, err error) {
	if len(s) < 2 || s[0] != '$' {
		return 1, s[:1], nil
	}

	if s[1] == '?' {
		code := 0
		if e.LastExitCode != nil {
			code = e.LastExitCode()
		}
		return 2, fmt.Sprintf("%d", code), nil
	}

	if s[1] == '(' && len(s) > 2 && s[2] == '(' {
		end := matchClosing(s, 3, '(', ')')
		if end < 0 || end+1 >= len(s) || s[end+1] != ')' {
			return len(s), s, nil
		}
		inner := s[3:end]
		val, err := EvalArith(inner, e.lookup)
		if err != nil {
			return 0, "", err
		}
		return end + 2, fmt.Sprintf("%d", val), nil
	}

	if s[1] == '(' {
		end := matchClosing(s, 2, '(', ')')
		if end < 0 {
			return len(s), s, nil
		}
		cmd := s[2:end]
		out, err := e.runCommand(cmd)
		if err != nil {
			return 0, "", err
		}
		return end + 1, out, nil
	}

	if s[1] == '{' {
		end := matchClosing(s, 2, '{', '}')
		if end < 0 {
			return len(s), s, nil
		}
		inner := s[2:end]
		val, err := e.expandBraceParam(inner)
		if err != nil {
			return 0, "", err
		}
		return end + 1, val, nil
	}

	if isDigit(s[1]) {
		return 2, e.lookup(s[1:2]), nil
	}

	if isIdentStart(s[1]) {
		j := 1
		for j < len(s) && isIdentChar(s[j]) {
			j++
		}
		name := s[1:j]
		return j, e.lookup(name), nil
	}

	return 1, s[:1], nil
}

func (e *Expander) runCommand(cmd string) (string, error) {
	if e.Run == nil {
		return "", nil
	}
	out, err := e.Run(cmd)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}

// matchClosing finds the index (within s) of the close byte matching the
// open byte already consumed at start-1, honoring nesting.
func matchClosing(s string, start int, open, close byte) int {
	depth := 1
	for i := start; i < len(s); i++ {
		switch s[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// expandBraceParam implements `${VAR}`, `${VAR:-w}`, `${VAR-w}`,
// `${VAR:+w}`, `${VAR+w}`, `${VAR:?msg}`, `${VAR?msg}`.
func (e *Expander) expandBraceParam(inner string) (string, error) {
	name, op, word, ok := splitParamOp(inner)
	if !ok {
		// Bare `${VAR}`.
		return e.lookup(inner), nil
	}

	val, isSet := "", false
	if e.Vars != nil {
		val, isSet = e.Vars(name)
	}
	if !isSet {
		if v := e.Getenv; v != nil {
			if ev := v(name); ev != "" {
				val, isSet = ev, true
			}
		}
	}

	unsetOrEmpty := !isSet
	if strings.HasPrefix(op, ":") {
		unsetOrEmpty = !isSet || val == ""
	}

	expandWord := func(w string) (string, error) {
		return e.expandSubstitutions(w)
	}

	switch strings.TrimPrefix(op, ":") {
	case "-":
		if unsetOrEmpty {
			return expandWord(word)
		}
		return val, nil
	case "+":
		if unsetOrEmpty {
			return "", nil
		}
		return expandWord(word)
	case "?":
		if unsetOrEmpty {
			msg, err := expandWord(word)
			if err != nil {
				return "", err
			}
			if msg == "" {
				msg = name + ": parameter not set"
			}
			return "", &ParameterNotSetError{Message: msg}
		}
		return val, nil
	default:
		return val, nil
	}
}

// splitParamOp splits `NAME[:]op word` into its parts. ok is false for a
// bare `NAME` with no operator.
func splitParamOp(inner string) (name, op, word string, ok bool) {
	i := 0
	for i < len(inner) && isIdentChar(inner[i]) {
		i++
	}
	name = inner[:i]
	if i >= len(inner) {
		return name, "", "", false
	}
	rest := inner[i:]
	hasColon := strings.HasPrefix(rest, ":")
	opRest := rest
	if hasColon {
		opRest = rest[1:]
	}
	if opRest == "" {
		return name, "", "", false
	}
	opChar := opRest[0]
	if opChar != '-' && opChar != '+' && opChar != '?' {
		return name, "", "", false
	}
	prefix := ""
	if hasColon {
		prefix = ":"
	}
	return name, prefix + string(opChar), opRest[1:], true
}
