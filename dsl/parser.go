package dsl

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
)

// ErrUnexpectedEOF is wrapped by a ParseError raised at end of input.
var ErrUnexpectedEOF = errors.New("unexpected end of input")

// ParseError reports the token a parse stopped at.
type ParseError struct {
	Line    int
	Column  int
	Token   string
	Message string
	EOF     bool
}

func (e *ParseError) Error() string {
	if e.EOF {
		return fmt.Sprintf("line %d:%d: unexpected end of input: %s", e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("line %d:%d: unexpected %s: %s", e.Line, e.Column, e.Token, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.EOF {
		return ErrUnexpectedEOF
	}
	return nil
}

// Parser parses conversation scripts.
type Parser struct {
	// OnLexError receives recoverable lex errors. When nil they are logged.
	OnLexError func(*LexError)
}

// NewParser creates a new parser.
func NewParser() *Parser {
	return &Parser{}
}

// Parse parses src with a default parser.
func Parse(src string) (*Script, error) {
	return NewParser().Parse([]byte(src))
}

// ParseFile parses a script file.
func (p *Parser) ParseFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return p.Parse(data)
}

// Parse parses script source. Lex errors are reported and skipped; the
// first syntax error aborts the parse.
func (p *Parser) Parse(data []byte) (*Script, error) {
	tokens, lexErrs := NewLexer(string(data)).Tokenize()
	for _, le := range lexErrs {
		if p.OnLexError != nil {
			p.OnLexError(le)
			continue
		}
		slog.Warn("lex error", "line", le.Line, "column", le.Column, "error", le.Message)
	}

	ps := &parseState{tokens: tokens}
	return ps.parseScript()
}

type parseState struct {
	tokens []Token
	pos    int
}

func (p *parseState) current() Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos]
}

func (p *parseState) check(t TokenType) bool {
	return p.current().Type == t
}

func (p *parseState) advance() Token {
	tok := p.current()
	if tok.Type != EOF {
		p.pos++
	}
	return tok
}

func (p *parseState) errorAt(tok Token, msg string) *ParseError {
	return &ParseError{
		Line:    tok.Line,
		Column:  tok.Column,
		Token:   tok.String(),
		Message: msg,
		EOF:     tok.Type == EOF,
	}
}

func (p *parseState) expect(t TokenType, msg string) (Token, error) {
	if !p.check(t) {
		return Token{}, p.errorAt(p.current(), msg)
	}
	return p.advance(), nil
}

// endStatement requires a line break or end of input after a statement.
func (p *parseState) endStatement() error {
	switch p.current().Type {
	case NEWLINE:
		p.advance()
		return nil
	case EOF:
		return nil
	}
	return p.errorAt(p.current(), "expected end of line")
}

func (p *parseState) skipNewlines() {
	for p.check(NEWLINE) {
		p.advance()
	}
}

func (p *parseState) parseScript() (*Script, error) {
	p.skipNewlines()

	if _, err := p.expect(MODULE, "expected module declaration"); err != nil {
		return nil, err
	}
	name, err := p.expect(STRING, "expected module name in quotes")
	if err != nil {
		return nil, err
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}

	script := &Script{
		Module: name.Literal,
		Steps:  make(map[string]*Step),
	}

	if p.check(EOF) {
		return nil, p.errorAt(p.current(), "expected at least one Step")
	}

	for !p.check(EOF) {
		step, err := p.parseStep()
		if err != nil {
			return nil, err
		}
		if _, dup := script.Steps[step.Name]; dup {
			script.Redefined = append(script.Redefined, step.Name)
		} else {
			script.Order = append(script.Order, step.Name)
		}
		script.Steps[step.Name] = step
	}

	return script, nil
}

func (p *parseState) parseStep() (*Step, error) {
	if _, err := p.expect(STEP, "expected Step"); err != nil {
		return nil, err
	}
	name, err := p.expect(IDENT, "expected step name")
	if err != nil {
		return nil, err
	}
	if err := p.endStatement(); err != nil {
		return nil, err
	}

	step := &Step{Name: name.Literal, Line: name.Line}
	for !p.check(STEP) && !p.check(EOF) {
		action, err := p.parseAction()
		if err != nil {
			return nil, err
		}
		step.Actions = append(step.Actions, action)
	}
	if len(step.Actions) == 0 {
		return nil, p.errorAt(p.current(), fmt.Sprintf("step %s has no actions", step.Name))
	}
	return step, nil
}

func (p *parseState) parseAction() (Action, error) {
	tok := p.current()

	var (
		action Action
		err    error
	)
	switch tok.Type {
	case SPEAK:
		p.advance()
		var s Token
		if s, err = p.expect(STRING, "Speak needs quoted text"); err == nil {
			action = &Speak{Text: s.Literal}
		}
	case LISTEN:
		p.advance()
		if p.check(ASSIGN) {
			p.advance()
			var v Token
			if v, err = p.expect(IDENT, "expected variable name after assign"); err == nil {
				action = &ListenAssign{Var: v.Literal}
			}
		} else {
			action = &Listen{}
		}
	case CASE:
		p.advance()
		var pattern Token
		if pattern, err = p.expect(STRING, "Case needs a quoted pattern"); err != nil {
			break
		}
		var target string
		if target, err = p.parseGotoTarget(); err == nil {
			action = &Case{Pattern: pattern.Literal, Target: target}
		}
	case DEFAULT:
		p.advance()
		var target string
		if target, err = p.parseGotoTarget(); err == nil {
			action = &Default{Target: target}
		}
	case GOTO:
		p.advance()
		var target Token
		if target, err = p.expect(IDENT, "expected step name after goto"); err == nil {
			action = &Goto{Target: target.Literal}
		}
	case AIREPLY:
		p.advance()
		action = &AIReply{}
	case EXIT:
		p.advance()
		action = &Exit{}
	case LOCK, UNLOCK:
		p.advance()
		var res Token
		if res, err = p.expect(STRING, tok.Literal+" needs a quoted resource name"); err != nil {
			break
		}
		if tok.Type == LOCK {
			action = &Lock{Resource: res.Literal}
		} else {
			action = &Unlock{Resource: res.Literal}
		}
	case DBQUERY:
		action, err = p.parseDBQuery()
	case DBEXEC:
		p.advance()
		var sql Token
		if sql, err = p.expect(STRING, "DBExec needs a quoted statement"); err == nil {
			action = &DBExec{SQL: sql.Literal}
		}
	case IF:
		action, err = p.parseIf()
	default:
		return nil, p.errorAt(tok, "expected an action")
	}
	if err != nil {
		return nil, err
	}

	if err := p.endStatement(); err != nil {
		return nil, err
	}
	return action, nil
}

// parseGotoTarget parses "-> goto ID".
func (p *parseState) parseGotoTarget() (string, error) {
	if _, err := p.expect(ARROW, "expected ->"); err != nil {
		return "", err
	}
	if _, err := p.expect(GOTO, "expected goto"); err != nil {
		return "", err
	}
	target, err := p.expect(IDENT, "expected step name after goto")
	if err != nil {
		return "", err
	}
	return target.Literal, nil
}

// parseDBQuery parses: DBQuery "sql" -> goto target var
func (p *parseState) parseDBQuery() (Action, error) {
	p.advance()
	sql, err := p.expect(STRING, "DBQuery needs a quoted query")
	if err != nil {
		return nil, err
	}
	target, err := p.parseGotoTarget()
	if err != nil {
		return nil, err
	}
	v, err := p.expect(IDENT, "expected variable name to bind the result to")
	if err != nil {
		return nil, err
	}
	return &DBQuery{SQL: sql.Literal, Var: v.Literal, Target: target}, nil
}

// parseIf parses: If operand OP operand -> goto target
func (p *parseState) parseIf() (Action, error) {
	p.advance()
	left, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	op, err := p.expect(COMPARE, "expected comparison operator")
	if err != nil {
		return nil, err
	}
	right, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	target, err := p.parseGotoTarget()
	if err != nil {
		return nil, err
	}
	return &If{
		Cond:   Condition{Left: left, Op: Operator(op.Literal), Right: right},
		Target: target,
	}, nil
}

func (p *parseState) parseOperand() (Operand, error) {
	tok := p.current()
	switch tok.Type {
	case IDENT:
		p.advance()
		return Operand{Kind: OperandIdent, Text: tok.Literal}, nil
	case STRING:
		p.advance()
		return Operand{Kind: OperandString, Text: tok.Literal}, nil
	case NUMBER:
		n, err := strconv.ParseInt(tok.Literal, 10, 64)
		if err != nil {
			return Operand{}, p.errorAt(tok, "number out of range")
		}
		p.advance()
		return Operand{Kind: OperandNumber, Text: tok.Literal, Number: n}, nil
	}
	return Operand{}, p.errorAt(tok, "expected variable, string or number")
}
