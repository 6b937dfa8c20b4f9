package dsl

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const eof rune = -1

// LexError reports a character the lexer could not use. Lexing continues
// after the offending character is skipped.
type LexError struct {
	Line    int
	Column  int
	Char    rune
	Message string
}

func (e *LexError) Error() string {
	return fmt.Sprintf("line %d:%d: %s", e.Line, e.Column, e.Message)
}

// Lexer turns script source into tokens.
type Lexer struct {
	input   string
	pos     int // offset of ch
	readPos int // offset after ch
	ch      rune
	line    int
	column  int
	errors  []*LexError
}

// NewLexer creates a lexer over src.
func NewLexer(src string) *Lexer {
	l := &Lexer{input: src}
	l.Reset()
	return l
}

// Reset rewinds the lexer to the start of its input and clears collected errors.
func (l *Lexer) Reset() {
	l.pos = 0
	l.readPos = 0
	l.line = 1
	l.column = 0
	l.errors = nil
	l.ch = 0
	l.readChar()
}

// Errors returns the lex errors collected so far.
func (l *Lexer) Errors() []*LexError {
	return l.errors
}

// Tokenize scans the whole input from the start. The returned slice always
// ends with an EOF token.
func (l *Lexer) Tokenize() ([]Token, []*LexError) {
	l.Reset()
	var tokens []Token
	for {
		tok := l.Next()
		tokens = append(tokens, tok)
		if tok.Type == EOF {
			break
		}
	}
	return tokens, l.errors
}

// readChar advances to the next rune, tracking line and column.
func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}
	l.pos = l.readPos
	if l.readPos >= len(l.input) {
		l.ch = eof
		l.column++
		return
	}
	r, size := utf8.DecodeRuneInString(l.input[l.readPos:])
	l.ch = r
	l.readPos += size
	l.column++
}

func (l *Lexer) peekChar() rune {
	if l.readPos >= len(l.input) {
		return eof
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPos:])
	return r
}

// Next returns the next token. Once the input is exhausted it keeps returning EOF.
func (l *Lexer) Next() Token {
	for {
		l.skipSpaces()

		line, col := l.line, l.column
		tok := Token{Line: line, Column: col}

		switch l.ch {
		case eof:
			tok.Type = EOF
			return tok
		case '#':
			l.skipComment()
			continue
		case '\n':
			tok.Type = NEWLINE
			tok.Literal = "\n"
			l.skipBlankLines()
			return tok
		case '"':
			if s, ok := l.readString(); ok {
				tok.Type = STRING
				tok.Literal = s
				return tok
			}
			continue
		case '-':
			if l.peekChar() == '>' {
				l.readChar()
				l.readChar()
				tok.Type = ARROW
				tok.Literal = "->"
				return tok
			}
		case '=', '!':
			if l.peekChar() == '=' {
				op := string(l.ch) + "="
				l.readChar()
				l.readChar()
				tok.Type = COMPARE
				tok.Literal = op
				return tok
			}
		case '<', '>':
			op := string(l.ch)
			if l.peekChar() == '=' {
				l.readChar()
				op += "="
			}
			l.readChar()
			tok.Type = COMPARE
			tok.Literal = op
			return tok
		default:
			if isLetter(l.ch) {
				ident := l.readWhile(isIdentChar)
				tok.Type = LookupIdent(ident)
				tok.Literal = ident
				return tok
			}
			if isDigit(l.ch) {
				tok.Type = NUMBER
				tok.Literal = l.readWhile(isDigit)
				return tok
			}
		}

		l.illegal(line, col, fmt.Sprintf("illegal character %q", l.ch))
		l.readChar()
	}
}

func (l *Lexer) illegal(line, col int, msg string) {
	l.errors = append(l.errors, &LexError{Line: line, Column: col, Char: l.ch, Message: msg})
}

func (l *Lexer) skipSpaces() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) skipComment() {
	for l.ch != '\n' && l.ch != eof {
		l.readChar()
	}
}

// skipBlankLines consumes a run of newlines, blank lines and comment lines.
func (l *Lexer) skipBlankLines() {
	for {
		switch l.ch {
		case '\n', ' ', '\t', '\r':
			l.readChar()
		case '#':
			l.skipComment()
		default:
			return
		}
	}
}

func (l *Lexer) readWhile(pred func(rune) bool) string {
	start := l.pos
	for l.ch != eof && pred(l.ch) {
		l.readChar()
	}
	return l.input[start:l.pos]
}

// readString reads a double-quoted literal on a single line. On an
// unterminated literal it records an error, rewinds to just past the
// opening quote and reports false.
func (l *Lexer) readString() (string, bool) {
	line, col := l.line, l.column
	l.readChar()
	saved := *l

	var sb strings.Builder
	for {
		switch l.ch {
		case '"':
			l.readChar()
			return sb.String(), true
		case '\n', eof:
			*l = saved
			l.errors = append(l.errors, &LexError{Line: line, Column: col, Char: '"', Message: "unterminated string"})
			return "", false
		case '\\':
			next := l.peekChar()
			switch next {
			case '"':
				sb.WriteRune('"')
			case '\\':
				sb.WriteRune('\\')
			case 'n':
				sb.WriteRune('\n')
			case 't':
				sb.WriteRune('\t')
			case '\n', eof:
				// Literals are single-line; a trailing backslash does not continue one.
				l.readChar()
				continue
			default:
				sb.WriteRune('\\')
				sb.WriteRune(next)
			}
			l.readChar()
			l.readChar()
		default:
			sb.WriteRune(l.ch)
			l.readChar()
		}
	}
}

func isLetter(ch rune) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isIdentChar(ch rune) bool {
	return isLetter(ch) || isDigit(ch)
}
