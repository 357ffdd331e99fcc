package eval

import (
	"os"
	"strings"

	"github.com/kir-gadjello/zish/internal/ast"
)

// evalRedirect saves the current Stdin/Stdout/Stderr, applies the
// indicated redirection, evaluates the subcommand, and restores them.
// Go's os/exec accepts any io.Reader/io.Writer for a child's stdio, so
// "save via dup; apply; restore" is modeled here by swapping the
// Environment's own Stdin/Stdout/Stderr fields rather than duplicating
// real file descriptors.
func evalRedirect(node *ast.Node, env *Environment) (int, error) {
	subject := node.Children[0]

	var word string
	if node.Value != "2>&1" {
		target := node.Children[len(node.Children)-1]
		w, err := env.expandWordSingle(target)
		if err != nil {
			return 1, err
		}
		word = w
	}

	oldStdin, oldStdout, oldStderr := env.Stdin, env.Stdout, env.Stderr
	var opened *os.File
	defer func() {
		env.Stdin, env.Stdout, env.Stderr = oldStdin, oldStdout, oldStderr
		if opened != nil {
			opened.Close()
		}
	}()

	switch node.Value {
	case "<":
		f, err := os.Open(word)
		if err != nil {
			return 1, err
		}
		opened = f
		env.Stdin = f
	case ">":
		f, err := os.Create(word)
		if err != nil {
			return 1, err
		}
		opened = f
		env.Stdout = f
	case ">>":
		f, err := os.OpenFile(word, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return 1, err
		}
		opened = f
		env.Stdout = f
	case "2>":
		f, err := os.Create(word)
		if err != nil {
			return 1, err
		}
		opened = f
		env.Stderr = f
	case "2>&1":
		env.Stderr = env.Stdout
	case "<<<", "<<":
		// The grammar admits no heredoc terminator word, only a single
		// word per redirect; both forms feed the (expanded) word's text
		// directly as the subcommand's stdin.
		env.Stdin = strings.NewReader(word)
	}

	return Eval(subject, env)
}
