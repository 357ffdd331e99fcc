package eval

import (
	"os"
	"strconv"

	"github.com/kir-gadjello/zish/internal/ast"
)

// evalTest evaluates a `[[ ]]` predicate list: unary file tests, binary
// string/integer operators, optional leading `!` negation. Exit code is
// 0 for true, 1 for false.
func evalTest(node *ast.Node, env *Environment) (int, error) {
	var words []string
	for _, c := range node.Children {
		v, err := env.expandWordSingle(c)
		if err != nil {
			return 1, err
		}
		words = append(words, v)
	}

	negate := false
	if len(words) > 0 && words[0] == "!" {
		negate = true
		words = words[1:]
	}

	result := evaluateTestWords(words)
	if negate {
		result = !result
	}
	if result {
		return 0, nil
	}
	return 1, nil
}

func evaluateTestWords(words []string) bool {
	switch len(words) {
	case 0:
		return false
	case 2:
		return evalUnary(words[0], words[1])
	case 3:
		return evalBinary(words[0], words[1], words[2])
	default:
		return false
	}
}

func evalUnary(op, operand string) bool {
	switch op {
	case "-e":
		_, err := os.Stat(operand)
		return err == nil
	case "-f":
		info, err := os.Stat(operand)
		return err == nil && info.Mode().IsRegular()
	case "-d":
		info, err := os.Stat(operand)
		return err == nil && info.IsDir()
	case "-r":
		f, err := os.Open(operand)
		if err == nil {
			f.Close()
		}
		return err == nil
	case "-w":
		f, err := os.OpenFile(operand, os.O_WRONLY, 0)
		if err == nil {
			f.Close()
		}
		return err == nil
	case "-x":
		info, err := os.Stat(operand)
		return err == nil && info.Mode()&0111 != 0
	case "-s":
		info, err := os.Stat(operand)
		return err == nil && info.Size() > 0
	case "-z":
		return len(operand) == 0
	case "-n":
		return len(operand) != 0
	default:
		return false
	}
}

func evalBinary(lhs, op, rhs string) bool {
	switch op {
	case "=", "==":
		return lhs == rhs
	case "!=":
		return lhs != rhs
	case "-eq", "-ne", "-lt", "-gt", "-le", "-ge":
		l, lerr := strconv.ParseInt(lhs, 10, 64)
		r, rerr := strconv.ParseInt(rhs, 10, 64)
		if lerr != nil || rerr != nil {
			return false
		}
		switch op {
		case "-eq":
			return l == r
		case "-ne":
			return l != r
		case "-lt":
			return l < r
		case "-gt":
			return l > r
		case "-le":
			return l <= r
		case "-ge":
			return l >= r
		}
	}
	return false
}
