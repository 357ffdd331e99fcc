// Package parser turns a lexer's token stream into an AST.
package parser

import (
	"github.com/kir-gadjello/zish/internal/ast"
	"github.com/kir-gadjello/zish/internal/lexer"
)

// ErrorKind enumerates parse-failure kinds. These are distinct from lexer
// error kinds; a ParseError always carries a position.
type ErrorKind int

const (
	UnexpectedToken ErrorKind = iota
	UnexpectedEOF
	ExpectedKeyword
	EmptyCommand
)

func (k ErrorKind) String() string {
	switch k {
	case UnexpectedToken:
		return "unexpected token"
	case UnexpectedEOF:
		return "unexpected end of input"
	case ExpectedKeyword:
		return "expected keyword"
	case EmptyCommand:
		return "empty command"
	default:
		return "parse error"
	}
}

// ParseError is the parser's error type.
type ParseError struct {
	Line int
	Col  int
	Kind ErrorKind
	Msg  string
}

func (e *ParseError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind.String()
}

// Parser is a recursive-descent parser over a lexer's token stream,
// allocating AST nodes into an arena it owns.
type Parser struct {
	lex   *lexer.Lexer
	arena *ast.Arena

	cur  lexer.Token
	peek lexer.Token

	loadedPeek bool
}

// New returns a Parser reading from src, allocating into arena.
func New(src string, arena *ast.Arena) (*Parser, error) {
	p := &Parser{lex: lexer.New(src), arena: arena}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Parser) advance() error {
	if p.loadedPeek {
		p.cur = p.peek
		p.loadedPeek = false
		return nil
	}
	tok, err := p.lex.Next()
	if err != nil {
		return err
	}
	p.cur = tok
	return nil
}

func (p *Parser) peekToken() (lexer.Token, error) {
	if !p.loadedPeek {
		tok, err := p.lex.Next()
		if err != nil {
			return lexer.Token{}, err
		}
		p.peek = tok
		p.loadedPeek = true
	}
	return p.peek, nil
}

func (p *Parser) errHere(kind ErrorKind, msg string) error {
	return &ParseError{Line: p.cur.Line, Col: p.cur.Col, Kind: kind, Msg: msg}
}

func (p *Parser) skipTerminators() error {
	for p.cur.Kind == lexer.NewLine || p.cur.Kind == lexer.Semicolon {
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

// Parse parses the whole token stream as a `program := list` and returns
// its root node.
func Parse(src string, arena *ast.Arena) (*ast.Node, error) {
	p, err := New(src, arena)
	if err != nil {
		return nil, err
	}
	if err := p.skipTerminators(); err != nil {
		return nil, err
	}
	if p.cur.Kind == lexer.EOF {
		return nil, p.errHere(EmptyCommand, "empty command")
	}
	node, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if err := p.skipTerminators(); err != nil {
		return nil, err
	}
	if p.cur.Kind != lexer.EOF {
		return nil, p.errHere(UnexpectedToken, "trailing input after command")
	}
	return node, nil
}

// list := and_or (( ';' | '&' | NL ) and_or)*
func (p *Parser) parseList() (*ast.Node, error) {
	first, err := p.parseAndOr()
	if err != nil {
		return nil, err
	}
	children := []*ast.Node{first}

	for p.cur.Kind == lexer.Semicolon || p.cur.Kind == lexer.Background || p.cur.Kind == lexer.NewLine {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.skipTerminators(); err != nil {
			return nil, err
		}
		if isListEnd(p.cur.Kind) {
			break
		}
		next, err := p.parseAndOr()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}

	if len(children) == 1 {
		return children[0], nil
	}
	node := &ast.Node{Kind: ast.List, Children: children}
	p.arena.Adopt(node)
	return node, nil
}

func isListEnd(k lexer.Kind) bool {
	switch k {
	case lexer.EOF, lexer.Fi, lexer.Then, lexer.Elif, lexer.Else, lexer.Done, lexer.RParen, lexer.RBrace, lexer.TestEnd:
		return true
	}
	return false
}

// and_or := pipeline (('&&'|'||') pipeline)*
func (p *Parser) parseAndOr() (*ast.Node, error) {
	left, err := p.parsePipeline()
	if err != nil {
		return nil, err
	}
	for p.cur.Kind == lexer.And || p.cur.Kind == lexer.Or {
		kind := ast.LogicalAnd
		if p.cur.Kind == lexer.Or {
			kind = ast.LogicalOr
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.skipNewlines(); err != nil {
			return nil, err
		}
		right, err := p.parsePipeline()
		if err != nil {
			return nil, err
		}
		left = p.arena.New(kind, "", left, right)
	}
	return left, nil
}

func (p *Parser) skipNewlines() error {
	for p.cur.Kind == lexer.NewLine {
		if err := p.advance(); err != nil {
			return err
		}
	}
	return nil
}

// pipeline := command ('|' command)*
func (p *Parser) parsePipeline() (*ast.Node, error) {
	first, err := p.parseCommand()
	if err != nil {
		return nil, err
	}
	if p.cur.Kind != lexer.Pipe {
		return first, nil
	}
	children := []*ast.Node{first}
	for p.cur.Kind == lexer.Pipe {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if err := p.skipNewlines(); err != nil {
			return nil, err
		}
		next, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		children = append(children, next)
	}
	node := &ast.Node{Kind: ast.Pipeline, Children: children}
	p.arena.Adopt(node)
	return node, nil
}

// command := simple | control | group | subshell | function_def | assignment
func (p *Parser) parseCommand() (*ast.Node, error) {
	switch p.cur.Kind {
	case lexer.If:
		return p.parseIf()
	case lexer.While:
		return p.parseWhileUntil(ast.While)
	case lexer.Until:
		return p.parseWhileUntil(ast.Until)
	case lexer.For:
		return p.parseFor()
	case lexer.TestStart:
		return p.parseTest()
	case lexer.LParen:
		return p.parseSubshell()
	case lexer.LBrace:
		return p.parseGroup()
	case lexer.Word:
		if isFunctionDef, node, err := p.tryParseFunctionDef(); isFunctionDef || err != nil {
			return node, err
		}
		if isAssign, node, err := p.tryParseAssignment(); isAssign {
			return node, err
		}
		return p.parseSimple()
	case lexer.String, lexer.DoubleQuotedString, lexer.Integer:
		return p.parseSimple()
	default:
		return nil, p.errHere(UnexpectedToken, "unexpected token "+p.cur.Kind.String())
	}
}

// simple := word+ (redirect)*
func (p *Parser) parseSimple() (*ast.Node, error) {
	var words []*ast.Node
	for isWordLike(p.cur.Kind) {
		words = append(words, p.wordNode())
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if len(words) == 0 {
		return nil, p.errHere(EmptyCommand, "expected a command word")
	}
	var result *ast.Node = &ast.Node{Kind: ast.Command, Children: words}
	p.arena.Adopt(result)

	for isRedirOp(p.cur.Kind) {
		redir, err := p.parseRedirect(result)
		if err != nil {
			return nil, err
		}
		result = redir
	}
	return result, nil
}

func isWordLike(k lexer.Kind) bool {
	switch k {
	case lexer.Word, lexer.String, lexer.DoubleQuotedString, lexer.Integer:
		return true
	}
	return false
}

func isRedirOp(k lexer.Kind) bool {
	switch k {
	case lexer.RedirIn, lexer.RedirOut, lexer.RedirAppend, lexer.RedirHeredoc,
		lexer.RedirHereStr, lexer.RedirErr, lexer.RedirErrToOut:
		return true
	}
	return false
}

func (p *Parser) parseRedirect(subject *ast.Node) (*ast.Node, error) {
	op := p.cur.Value
	opKind := p.cur.Kind
	if err := p.advance(); err != nil {
		return nil, err
	}
	// "2>&1" is itself a complete redirect (duplicate an fd onto another);
	// it takes no following word, unlike the other redirect operators.
	if opKind == lexer.RedirErrToOut {
		return p.arena.New(ast.Redirect, op, subject), nil
	}
	if !isWordLike(p.cur.Kind) {
		return nil, p.errHere(UnexpectedToken, "expected a word after redirection operator")
	}
	target := p.wordNode()
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.arena.New(ast.Redirect, op, subject, target), nil
}

// wordNode builds a String/Word leaf from the current token without
// advancing the cursor.
func (p *Parser) wordNode() *ast.Node {
	switch p.cur.Kind {
	case lexer.String:
		return p.arena.New(ast.String, p.cur.Value)
	case lexer.DoubleQuotedString:
		n := p.arena.New(ast.Word, p.cur.Value)
		n.DoubleQuoted = true
		return n
	default:
		return p.arena.New(ast.Word, p.cur.Value)
	}
}

// tryParseAssignment recognizes `NAME=value` as the current word, with no
// intervening whitespace captured by the lexer (the token itself contains
// the '='). Only fires for a single bare Word token shaped like an
// identifier followed by '='.
func (p *Parser) tryParseAssignment() (bool, *ast.Node, error) {
	name, value, ok := splitAssignment(p.cur.Value)
	if !ok {
		return false, nil, nil
	}
	peek, err := p.peekToken()
	if err != nil {
		return false, nil, err
	}
	// Only treat as a standalone assignment when not immediately followed
	// by another word (which would make this `NAME=value cmd...`, a
	// prefix-assignment form that is not supported: the word is parsed as
	// a plain simple command word).
	if isWordLike(peek.Kind) {
		return false, nil, nil
	}
	if err := p.advance(); err != nil {
		return false, nil, err
	}
	valNode := p.arena.New(ast.Word, value)
	node := p.arena.New(ast.Assignment, name, valNode)
	return true, node, nil
}

func splitAssignment(word string) (name, value string, ok bool) {
	for i := 0; i < len(word); i++ {
		c := word[i]
		if c == '=' {
			if i == 0 {
				return "", "", false
			}
			return word[:i], word[i+1:], true
		}
		if !(isIdentChar(c) && (i > 0 || !isDigitByte(c))) {
			return "", "", false
		}
	}
	return "", "", false
}

func isIdentChar(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || isDigitByte(c)
}

func isDigitByte(c byte) bool { return c >= '0' && c <= '9' }

// tryParseFunctionDef recognizes `name() { body }`. Once a Word token is
// immediately followed by '(', the grammar admits no other production at
// command-start position, so the parser commits: a malformed tail past
// this point is reported as a ParseError rather than falling back to
// parsing the word as a plain command.
func (p *Parser) tryParseFunctionDef() (bool, *ast.Node, error) {
	name := p.cur.Value
	peek, err := p.peekToken()
	if err != nil {
		return false, nil, err
	}
	if peek.Kind != lexer.LParen {
		return false, nil, nil
	}

	if err := p.advance(); err != nil { // consume NAME, cur = '('
		return false, nil, err
	}
	if err := p.advance(); err != nil { // consume '(', cur = expected ')'
		return false, nil, err
	}
	if p.cur.Kind != lexer.RParen {
		return false, nil, p.errHere(UnexpectedToken, "expected ')' in function definition")
	}
	if err := p.advance(); err != nil { // consume ')'
		return false, nil, err
	}
	if err := p.skipNewlines(); err != nil {
		return false, nil, err
	}
	if p.cur.Kind != lexer.LBrace {
		return false, nil, p.errHere(UnexpectedToken, "expected '{' opening function body")
	}
	if err := p.advance(); err != nil { // consume '{'
		return false, nil, err
	}
	if err := p.skipTerminators(); err != nil {
		return false, nil, err
	}
	body, err := p.parseList()
	if err != nil {
		return false, nil, err
	}
	if err := p.skipTerminators(); err != nil {
		return false, nil, err
	}
	if p.cur.Kind != lexer.RBrace {
		return false, nil, p.errHere(UnexpectedToken, "expected '}' closing function body")
	}
	if err := p.advance(); err != nil {
		return false, nil, err
	}
	node := p.arena.New(ast.FunctionDef, name, body)
	return true, node, nil
}

// if_stmt := 'if' list 'then' list ('elif' list 'then' list)* ('else' list)? 'fi'
func (p *Parser) parseIf() (*ast.Node, error) {
	if err := p.advance(); err != nil { // consume 'if'
		return nil, err
	}
	cond, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.Then); err != nil {
		return nil, err
	}
	thenBody, err := p.parseList()
	if err != nil {
		return nil, err
	}
	children := []*ast.Node{cond, thenBody}

	for p.cur.Kind == lexer.Elif {
		if err := p.advance(); err != nil {
			return nil, err
		}
		elifCond, err := p.parseList()
		if err != nil {
			return nil, err
		}
		if err := p.expect(lexer.Then); err != nil {
			return nil, err
		}
		elifBody, err := p.parseList()
		if err != nil {
			return nil, err
		}
		children = append(children, elifCond, elifBody)
	}

	if p.cur.Kind == lexer.Else {
		if err := p.advance(); err != nil {
			return nil, err
		}
		elseBody, err := p.parseList()
		if err != nil {
			return nil, err
		}
		children = append(children, elseBody)
	}

	if err := p.expect(lexer.Fi); err != nil {
		return nil, err
	}
	node := &ast.Node{Kind: ast.If, Children: children}
	p.arena.Adopt(node)
	return node, nil
}

// while_stmt/until_stmt := ('while'|'until') list 'do' list 'done'
func (p *Parser) parseWhileUntil(kind ast.Kind) (*ast.Node, error) {
	if err := p.advance(); err != nil {
		return nil, err
	}
	cond, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.Do); err != nil {
		return nil, err
	}
	body, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.Done); err != nil {
		return nil, err
	}
	node := p.arena.New(kind, "", cond, body)
	return node, nil
}

// for_stmt := 'for' WORD 'in' word* (';'|NL) 'do' list 'done'
func (p *Parser) parseFor() (*ast.Node, error) {
	if err := p.advance(); err != nil { // consume 'for'
		return nil, err
	}
	if p.cur.Kind != lexer.Word {
		return nil, p.errHere(UnexpectedToken, "expected loop variable after 'for'")
	}
	varName := p.cur.Value
	if err := p.advance(); err != nil {
		return nil, err
	}
	if p.cur.Kind != lexer.Word || p.cur.Value != "in" {
		return nil, p.errHere(UnexpectedToken, "expected 'in' after for-loop variable")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	var items []*ast.Node
	for isWordLike(p.cur.Kind) {
		items = append(items, p.wordNode())
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if err := p.skipTerminators(); err != nil {
		return nil, err
	}
	if err := p.expect(lexer.Do); err != nil {
		return nil, err
	}
	body, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if err := p.expect(lexer.Done); err != nil {
		return nil, err
	}
	children := append(items, body)
	node := &ast.Node{Kind: ast.For, Value: varName, Children: children}
	p.arena.Adopt(node)
	return node, nil
}

// subshell := '(' list ')'
func (p *Parser) parseSubshell() (*ast.Node, error) {
	if err := p.advance(); err != nil { // consume '('
		return nil, err
	}
	if err := p.skipTerminators(); err != nil {
		return nil, err
	}
	body, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if err := p.skipTerminators(); err != nil {
		return nil, err
	}
	if p.cur.Kind != lexer.RParen {
		return nil, p.errHere(UnexpectedToken, "expected ')' closing subshell")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return p.arena.New(ast.Subshell, "", body), nil
}

// group := '{' list '}' — a brace group runs its body in the current
// shell (unlike a subshell); represented with the same List node the
// body would have had, there being no separate grouping semantics to
// track once parsed.
func (p *Parser) parseGroup() (*ast.Node, error) {
	if err := p.advance(); err != nil { // consume '{'
		return nil, err
	}
	if err := p.skipTerminators(); err != nil {
		return nil, err
	}
	body, err := p.parseList()
	if err != nil {
		return nil, err
	}
	if err := p.skipTerminators(); err != nil {
		return nil, err
	}
	if p.cur.Kind != lexer.RBrace {
		return nil, p.errHere(UnexpectedToken, "expected '}' closing group")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	return body, nil
}

// test_expr := '[[' word+ ']]'
func (p *Parser) parseTest() (*ast.Node, error) {
	if err := p.advance(); err != nil { // consume '[['
		return nil, err
	}
	var words []*ast.Node
	for isWordLike(p.cur.Kind) {
		words = append(words, p.wordNode())
		if err := p.advance(); err != nil {
			return nil, err
		}
	}
	if p.cur.Kind != lexer.TestEnd {
		return nil, p.errHere(UnexpectedToken, "expected ']]' closing test expression")
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	node := &ast.Node{Kind: ast.Test, Children: words}
	p.arena.Adopt(node)
	return node, nil
}

func (p *Parser) expect(kind lexer.Kind) error {
	if err := p.skipTerminators(); err != nil {
		return err
	}
	if p.cur.Kind != kind {
		return p.errHere(ExpectedKeyword, "expected "+kind.String())
	}
	return p.advance()
}
