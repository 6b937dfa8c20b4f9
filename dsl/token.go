package dsl

import "fmt"

// TokenType identifies a lexical token.
type TokenType int

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL
	NEWLINE // one or more line breaks

	// Literals
	IDENT  // welcome, stock
	STRING // "text"
	NUMBER // 42

	// Operators
	ARROW   // ->
	COMPARE // == != < <= > >=

	// Keywords
	MODULE  // module
	STEP    // Step
	SPEAK   // Speak
	LISTEN  // Listen
	ASSIGN  // assign
	CASE    // Case
	DEFAULT // Default
	GOTO    // goto
	AIREPLY // AIReply
	EXIT    // Exit
	LOCK    // Lock
	UNLOCK  // Unlock
	DBQUERY // DBQuery
	DBEXEC  // DBExec
	IF      // If
)

var tokenNames = [...]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",
	NEWLINE: "NEWLINE",
	IDENT:   "IDENT",
	STRING:  "STRING",
	NUMBER:  "NUMBER",
	ARROW:   "->",
	COMPARE: "COMPARE",
	MODULE:  "module",
	STEP:    "Step",
	SPEAK:   "Speak",
	LISTEN:  "Listen",
	ASSIGN:  "assign",
	CASE:    "Case",
	DEFAULT: "Default",
	GOTO:    "goto",
	AIREPLY: "AIReply",
	EXIT:    "Exit",
	LOCK:    "Lock",
	UNLOCK:  "Unlock",
	DBQUERY: "DBQuery",
	DBEXEC:  "DBExec",
	IF:      "If",
}

func (t TokenType) String() string {
	if int(t) >= 0 && int(t) < len(tokenNames) && tokenNames[t] != "" {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// keywords maps reserved words to their token type. Matching is case-sensitive.
var keywords = map[string]TokenType{
	"module":  MODULE,
	"Step":    STEP,
	"Speak":   SPEAK,
	"Listen":  LISTEN,
	"assign":  ASSIGN,
	"Case":    CASE,
	"Default": DEFAULT,
	"goto":    GOTO,
	"AIReply": AIREPLY,
	"Exit":    EXIT,
	"Lock":    LOCK,
	"Unlock":  UNLOCK,
	"DBQuery": DBQUERY,
	"DBExec":  DBEXEC,
	"If":      IF,
}

// LookupIdent returns the keyword token type for ident, or IDENT.
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Token is a single lexical token with its 1-based source position.
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

func (t Token) String() string {
	switch t.Type {
	case EOF:
		return "end of input"
	case NEWLINE:
		return "newline"
	case STRING:
		return fmt.Sprintf("%q", t.Literal)
	default:
		return fmt.Sprintf("%q", t.Literal)
	}
}
