package ini

import (
	"bufio"
	"io"
	"strings"
)

// Tokenizer splits configuration text into the dialect's five reserved
// symbols, identifier runs, and line boundaries. Whitespace is identifier
// material until trimming, so the tokenizer never skips it.
type Tokenizer struct {
	reader *bufio.Reader
	line   int
	// Current character
	ch rune
	// EOF flag
	eof bool
	// First read failure other than EOF
	err error
}

// NewTokenizer creates a new tokenizer from an io.Reader
func NewTokenizer(r io.Reader) *Tokenizer {
	t := &Tokenizer{
		reader: bufio.NewReader(r),
		line:   1,
	}
	t.readChar()
	return t
}

// NextToken returns the next token from the input. After the input is
// exhausted it returns TokenEOF forever; after a read failure it returns
// TokenError carrying the failure message.
func (t *Tokenizer) NextToken() Token {
	if t.err != nil {
		return Token{Type: TokenError, Value: t.err.Error(), Line: t.line}
	}
	if t.eof {
		return Token{Type: TokenEOF, Line: t.line}
	}

	switch t.ch {
	case '[':
		return t.symbol(TokenLBracket, "[")
	case ']':
		return t.symbol(TokenRBracket, "]")
	case '=':
		return t.symbol(TokenEquals, "=")
	case ';':
		return t.symbol(TokenSemicolon, ";")
	case '\n':
		token := Token{Type: TokenEOL, Value: "\n", Line: t.line}
		t.line++
		t.readChar()
		return token
	default:
		return t.readIdent()
	}
}

// symbol emits a one-character reserved token and advances
func (t *Tokenizer) symbol(typ TokenType, value string) Token {
	token := Token{Type: typ, Value: value, Line: t.line}
	t.readChar()
	return token
}

// readChar reads the next character from the input
func (t *Tokenizer) readChar() {
	ch, _, err := t.reader.ReadRune()
	if err != nil {
		t.eof = true
		t.ch = 0
		if err != io.EOF {
			t.err = err
		}
		return
	}
	t.ch = ch
}

// readIdent accumulates characters up to the next reserved symbol or end
// of input, then trims surrounding whitespace. A whitespace-only run
// still yields a token whose value is the empty string.
func (t *Tokenizer) readIdent() Token {
	token := Token{Type: TokenIdent, Line: t.line}
	var sb strings.Builder

	for !t.eof && !isReserved(t.ch) {
		sb.WriteRune(t.ch)
		t.readChar()
	}

	if t.err != nil {
		return Token{Type: TokenError, Value: t.err.Error(), Line: t.line}
	}

	token.Value = strings.Trim(sb.String(), " \t\n\r")
	return token
}

// isReserved returns true if the character terminates an identifier run
func isReserved(ch rune) bool {
	switch ch {
	case '[', ']', '=', ';', '\n':
		return true
	}
	return false
}
