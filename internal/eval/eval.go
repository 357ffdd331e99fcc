// Package eval walks the AST produced by the parser, dispatching
// builtins, spawning and waiting on child processes, and managing
// pipes/redirects.
package eval

import (
	"errors"
	"io"
	"os"

	"github.com/kir-gadjello/zish/internal/ast"
	"github.com/kir-gadjello/zish/internal/expand"
)

// MaxLoopIterations bounds while/until loops.
const MaxLoopIterations = 10_000

// MaxCallDepth bounds recursive function invocation.
const MaxCallDepth = 64

var (
	// ErrIterationLimit is returned when a while/until loop body runs
	// MaxLoopIterations times without the condition flipping.
	ErrIterationLimit = errors.New("iteration limit reached")
	// ErrRecursionLimit is returned when function call depth exceeds
	// MaxCallDepth.
	ErrRecursionLimit = errors.New("recursion limit exceeded")
	// ErrCommandNotFound names the case where argv[0] resolves to no
	// builtin, function, or executable on PATH. The evaluator does not
	// return it: spawnExternal reports that case on stderr with exit
	// status 127 and a nil error.
	ErrCommandNotFound = errors.New("command not found")
)

// HistoryRecorder is the narrow interface the Evaluator uses to offer a
// finished command to the history store, keeping the in-memory/on-disk
// split behind calls rather than inheritance.
type HistoryRecorder interface {
	Add(cmd string, exitCode int, successful bool) error
	Entries() []HistoryItem
}

// HistoryItem is the minimal view of a history entry the `history`
// builtin lists.
type HistoryItem struct {
	Index   int
	Command string
}

// TerminalController exposes the raw-mode lifecycle the Evaluator needs
// around child process execution.
type TerminalController interface {
	EnterRaw() error
	LeaveRaw() error
	IsTTY() bool
}

// Executor re-parses and evaluates a function body's stored source text,
// supplied by the shell driver (which owns the parser).
type Executor func(env *Environment, source string) (int, error)

// Environment is the mutable state the Evaluator threads through a walk.
// It is the narrow slice of shell state the evaluator needs; the shell
// package owns the rest (line editor, completion, etc.) and constructs
// one Environment per top-level command.
type Environment struct {
	Vars      map[string]string
	Aliases   map[string]string
	Functions map[string]string
	Options   map[string]bool

	ExitCode int
	CallDepth int

	Cwd, OldCwd string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Expander *expand.Expander
	History  HistoryRecorder
	Term     TerminalController
	Execute  Executor

	// Chpw implements the `chpw` builtin's password lifecycle (prompt,
	// re-encrypt the log, toggle password mode); wired by the shell
	// driver, which owns the crypto vault and history log handles.
	Chpw func(args []string) (int, error)

	// Exit requests the shell driver stop its main loop after the current
	// command finishes, with the given code.
	Exit func(code int)

	// locals holds `local` bindings pushed per function call frame; looked
	// up before Vars, popped when the frame returns.
	locals []map[string]string
}

// NewEnvironment returns an Environment wired to the process's real
// stdio and environment, suitable as the shell driver's top-level frame.
func NewEnvironment() *Environment {
	return &Environment{
		Vars:      map[string]string{},
		Aliases:   map[string]string{},
		Functions: map[string]string{},
		Options:   map[string]bool{},
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
	}
}

// clone returns a shallow copy of env with its own Stdin/Stdout/Stderr,
// used to give each pipeline stage its own redirect frame while sharing
// the underlying variable/function maps.
func (env *Environment) clone() *Environment {
	cp := *env
	return &cp
}

// GetVar resolves a variable through the local-frame stack, then Vars.
func (env *Environment) GetVar(name string) (string, bool) {
	for i := len(env.locals) - 1; i >= 0; i-- {
		if v, ok := env.locals[i][name]; ok {
			return v, true
		}
	}
	v, ok := env.Vars[name]
	return v, ok
}

// SetVar assigns into the innermost local frame if one is active,
// otherwise into the global Vars map.
func (env *Environment) SetVar(name, value string) {
	if len(env.locals) > 0 {
		env.locals[len(env.locals)-1][name] = value
		return
	}
	env.Vars[name] = value
}

// PushLocals installs a new local-variable frame (used for function
// calls).
func (env *Environment) PushLocals() {
	env.locals = append(env.locals, map[string]string{})
}

// PopLocals removes the innermost local-variable frame.
func (env *Environment) PopLocals() {
	if len(env.locals) > 0 {
		env.locals = env.locals[:len(env.locals)-1]
	}
}

// Eval walks node, returning its exit code.
func Eval(node *ast.Node, env *Environment) (int, error) {
	if node == nil {
		return 0, nil
	}
	switch node.Kind {
	case ast.Command:
		return evalCommand(node, env)
	case ast.Pipeline:
		return evalPipeline(node, env)
	case ast.LogicalAnd:
		left, err := Eval(node.Children[0], env)
		if err != nil {
			return left, err
		}
		if left != 0 {
			return left, nil
		}
		return Eval(node.Children[1], env)
	case ast.LogicalOr:
		left, err := Eval(node.Children[0], env)
		if err != nil {
			return left, err
		}
		if left == 0 {
			return left, nil
		}
		return Eval(node.Children[1], env)
	case ast.Redirect:
		return evalRedirect(node, env)
	case ast.List:
		var code int
		var err error
		for _, child := range node.Children {
			code, err = Eval(child, env)
			if err != nil {
				return code, err
			}
		}
		return code, nil
	case ast.Assignment:
		return evalAssignment(node, env)
	case ast.If:
		return evalIf(node, env)
	case ast.While:
		return evalLoop(node, env, false)
	case ast.Until:
		return evalLoop(node, env, true)
	case ast.For:
		return evalFor(node, env)
	case ast.Subshell:
		// Deliberate simplification: no fork, so assignments inside leak
		// to env.
		return Eval(node.Children[0], env)
	case ast.Test:
		return evalTest(node, env)
	case ast.FunctionDef:
		env.Functions[node.Value] = ast.Serialize(node.Children[0])
		return 0, nil
	case ast.String, ast.Word:
		return 0, nil
	default:
		return 1, nil
	}
}

func evalAssignment(node *ast.Node, env *Environment) (int, error) {
	val, err := env.expandWordSingle(node.Children[0])
	if err != nil {
		return 1, err
	}
	env.SetVar(node.Value, val)
	return 0, nil
}

func evalIf(node *ast.Node, env *Environment) (int, error) {
	i := 0
	for i+1 < len(node.Children) {
		cond, err := Eval(node.Children[i], env)
		if err != nil {
			return cond, err
		}
		if cond == 0 {
			return Eval(node.Children[i+1], env)
		}
		i += 2
	}
	if i < len(node.Children) {
		return Eval(node.Children[i], env)
	}
	return 0, nil
}

func evalLoop(node *ast.Node, env *Environment, until bool) (int, error) {
	cond, body := node.Children[0], node.Children[1]
	code := 0
	for n := 0; n < MaxLoopIterations; n++ {
		c, err := Eval(cond, env)
		if err != nil {
			return c, err
		}
		keepGoing := c == 0
		if until {
			keepGoing = c != 0
		}
		if !keepGoing {
			return code, nil
		}
		code, err = Eval(body, env)
		if err != nil {
			return code, err
		}
	}
	return 1, ErrIterationLimit
}

func evalFor(node *ast.Node, env *Environment) (int, error) {
	nChildren := len(node.Children)
	items := node.Children[:nChildren-1]
	body := node.Children[nChildren-1]

	var values []string
	for _, item := range items {
		expanded, err := env.expandWordNode(item)
		if err != nil {
			return 1, err
		}
		values = append(values, expanded...)
	}

	code := 0
	var err error
	for _, v := range values {
		env.SetVar(node.Value, v)
		code, err = Eval(body, env)
		if err != nil {
			return code, err
		}
	}
	return code, nil
}

// expandWordNode expands a Word/String leaf into its (possibly
// glob-multiplied) values.
func (env *Environment) expandWordNode(n *ast.Node) ([]string, error) {
	if n.Kind == ast.String {
		return []string{n.Value}, nil
	}
	return env.Expander.Word(n.Value, n.DoubleQuoted)
}

// expandWordSingle expands a node to exactly one string (assignment RHS,
// redirect targets): if glob expansion produced more than one match, only
// the first is used; no values yield "".
func (env *Environment) expandWordSingle(n *ast.Node) (string, error) {
	vals, err := env.expandWordNode(n)
	if err != nil {
		return "", err
	}
	if len(vals) == 0 {
		return "", nil
	}
	return vals[0], nil
}
