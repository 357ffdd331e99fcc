package eval

import (
	"fmt"
	"strings"

	"github.com/kir-gadjello/zish/internal/ast"
	"github.com/kir-gadjello/zish/internal/expand"
)

// evalCommand expands each argument word, then dispatches to a builtin, a
// defined function, or an external process.
func evalCommand(node *ast.Node, env *Environment) (int, error) {
	var argv []string
	for _, w := range node.Children {
		expanded, err := env.expandWordNode(w)
		if err != nil {
			if pnse, ok := err.(*expand.ParameterNotSetError); ok {
				fmt.Fprintln(env.Stderr, "zish:", pnse.Message)
				return 1, nil
			}
			fmt.Fprintln(env.Stderr, "zish:", err)
			return 1, nil
		}
		argv = append(argv, expanded...)
	}
	if len(argv) == 0 {
		return 0, nil
	}

	if alias, ok := env.Aliases[argv[0]]; ok {
		aliasArgv := strings.Fields(alias)
		argv = append(aliasArgv, argv[1:]...)
	}

	if fn, ok := builtins[argv[0]]; ok {
		return fn(env, argv)
	}

	if body, ok := env.Functions[argv[0]]; ok {
		return callFunction(env, argv, body)
	}

	return spawnExternal(env, argv)
}

func callFunction(env *Environment, argv []string, body string) (int, error) {
	if env.CallDepth >= MaxCallDepth {
		return 1, ErrRecursionLimit
	}
	if env.Execute == nil {
		return 1, fmt.Errorf("zish: no executor wired for function calls")
	}

	env.CallDepth++
	env.PushLocals()
	for i, arg := range argv[1:] {
		env.SetVar(fmt.Sprintf("%d", i+1), arg)
	}
	code, err := env.Execute(env, body)
	env.PopLocals()
	env.CallDepth--
	return code, err
}
