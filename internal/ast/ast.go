// Package ast defines the tagged-variant AST node produced by the parser
// and walked by the evaluator.
package ast

import "fmt"

// Kind identifies which of the fixed set of node variants a Node is.
type Kind int

const (
	Command Kind = iota
	Pipeline
	LogicalAnd
	LogicalOr
	Redirect
	List
	Assignment
	If
	While
	Until
	For
	Subshell
	Test
	FunctionDef
	String
	Word
)

func (k Kind) String() string {
	switch k {
	case Command:
		return "Command"
	case Pipeline:
		return "Pipeline"
	case LogicalAnd:
		return "LogicalAnd"
	case LogicalOr:
		return "LogicalOr"
	case Redirect:
		return "Redirect"
	case List:
		return "List"
	case Assignment:
		return "Assignment"
	case If:
		return "If"
	case While:
		return "While"
	case Until:
		return "Until"
	case For:
		return "For"
	case Subshell:
		return "Subshell"
	case Test:
		return "Test"
	case FunctionDef:
		return "FunctionDef"
	case String:
		return "String"
	case Word:
		return "Word"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Node is one AST node: a tagged variant with an owned string payload and
// an ordered sequence of children. Redirect nodes additionally carry the
// operator text in Value and the redirected word as Children[len-1]; the
// subcommand being redirected is Children[0].
type Node struct {
	Kind     Kind
	Value    string
	Children []*Node

	// DoubleQuoted distinguishes a String (single-quoted, literal) node from a
	// double-quoted Word that still requires expansion; both use Kind
	// String/Word per the node list, so this flag records which quoting
	// style produced the payload for the expander.
	DoubleQuoted bool
}

// Arena owns all Nodes allocated during one parse+evaluate cycle. The
// parser allocates from it; its lifetime ends with the command.
type Arena struct {
	nodes []*Node
}

// NewArena returns an empty Arena.
func NewArena() *Arena {
	return &Arena{}
}

// New allocates a Node from the arena.
func (a *Arena) New(kind Kind, value string, children ...*Node) *Node {
	n := &Node{Kind: kind, Value: value, Children: children}
	a.nodes = append(a.nodes, n)
	return n
}

// Adopt registers a Node built by the caller (e.g. with a Children slice
// assembled incrementally) as belonging to this arena.
func (a *Arena) Adopt(n *Node) *Node {
	a.nodes = append(a.nodes, n)
	return n
}

// Len reports how many nodes the arena has allocated, mostly useful for
// tests asserting on tree shape/size.
func (a *Arena) Len() int {
	return len(a.nodes)
}
