package ini

import (
	"fmt"
	"io"
	"strings"

	"github.com/akam1o/arca-conf/pkg/errors"
)

// parseState identifies where in a statement the parser stands
type parseState int

const (
	// stateIdle is the between-statements state and the only state the
	// input may end in
	stateIdle parseState = iota
	// stateSectionOpen follows '['
	stateSectionOpen
	// stateSectionName follows the section identifier, awaiting ']'
	stateSectionName
	// stateKey follows a key identifier, awaiting '='
	stateKey
	// stateEquals follows '=', awaiting the value or end of line
	stateEquals
	// stateComment follows ';', awaiting the comment body
	stateComment
)

// Parser runs the line grammar over the token stream. Instead of reaching
// back into a token buffer, the machine carries its partial statement
// explicitly: the committed section cursor and the one pending identifier
// (a section name awaiting ']' or a key awaiting '=').
type Parser struct {
	tokenizer *Tokenizer
	source    string

	// Token window around the cursor, kept for error context
	prev2   Token
	prev    Token
	current Token
	peek    Token

	state   parseState
	section string
	pending string
}

// SyntaxError describes a grammar violation and the tokens surrounding it
type SyntaxError struct {
	// Source is the file path or stream name being parsed
	Source string
	// Line is the 1-based line of the offending token
	Line int
	// Prev, Token and Next form the rendered context window. Prev and
	// Next are empty when no such token exists; newline tokens render
	// as "LF".
	Prev  string
	Token string
	Next  string
	// UnexpectedEOF marks input that ended mid-statement
	UnexpectedEOF bool
}

// Error implements the error interface
func (e *SyntaxError) Error() string {
	var sb strings.Builder
	if e.UnexpectedEOF {
		fmt.Fprintf(&sb, "unexpected end of file in %q at line %d: ", e.Source, e.Line)
	} else {
		fmt.Fprintf(&sb, "syntax error in %q at line %d: ", e.Source, e.Line)
	}
	sb.WriteString("...")
	if e.Prev != "" {
		sb.WriteString(e.Prev)
	}
	sb.WriteString(" ->")
	sb.WriteString(e.Token)
	sb.WriteString("<- ")
	sb.WriteString(e.Next)
	if !e.UnexpectedEOF {
		sb.WriteString("...")
	}
	return sb.String()
}

// NewParser creates a new parser from an io.Reader. The source name is
// used in error messages only.
func NewParser(r io.Reader, source string) *Parser {
	p := &Parser{
		tokenizer: NewTokenizer(r),
		source:    source,
	}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses the entire input and returns a populated store
func (p *Parser) Parse() (*Store, error) {
	store := NewStore()
	if err := p.ParseInto(store); err != nil {
		return nil, err
	}
	return store, nil
}

// ParseInto parses the entire input into an existing store. On error the
// store keeps whatever was committed before the fault; callers that care
// must discard it or Clear it.
func (p *Parser) ParseInto(store *Store) error {
	p.state = stateIdle
	p.section = ""
	p.pending = ""

	for p.current.Type != TokenEOF {
		if p.current.Type == TokenError {
			return p.readError(p.current.Value)
		}
		if err := p.step(store); err != nil {
			return err
		}
		p.nextToken()
	}

	if p.state != stateIdle {
		return p.eofError()
	}
	return nil
}

// nextToken advances the token window
func (p *Parser) nextToken() {
	p.prev2 = p.prev
	p.prev = p.current
	p.current = p.peek
	p.peek = p.tokenizer.NextToken()
}

// step feeds the current token to the state machine
func (p *Parser) step(store *Store) error {
	token := p.current

	switch p.state {
	case stateIdle:
		switch token.Type {
		case TokenLBracket:
			p.state = stateSectionOpen
		case TokenIdent:
			p.pending = token.Value
			p.state = stateKey
		case TokenSemicolon:
			p.state = stateComment
		case TokenEOL:
			// Blank line
		default:
			return p.syntaxError()
		}

	case stateSectionOpen:
		if token.Type != TokenIdent {
			return p.syntaxError()
		}
		p.pending = token.Value
		p.state = stateSectionName

	case stateSectionName:
		if token.Type != TokenRBracket {
			return p.syntaxError()
		}
		// The section cursor moves; the store entry appears only once
		// an assignment commits under it
		p.section = p.pending
		p.state = stateIdle

	case stateKey:
		if token.Type != TokenEquals {
			return p.syntaxError()
		}
		p.state = stateEquals

	case stateEquals:
		switch token.Type {
		case TokenIdent:
			store.Set(p.section, p.pending, token.Value)
			p.state = stateIdle
		case TokenEOL:
			// Assignment with no value
			store.Set(p.section, p.pending, "")
			p.state = stateIdle
		default:
			return p.syntaxError()
		}

	case stateComment:
		if token.Type != TokenIdent {
			return p.syntaxError()
		}
		p.state = stateIdle
	}

	return nil
}

// syntaxError builds the error for the current token
func (p *Parser) syntaxError() *SyntaxError {
	return &SyntaxError{
		Source: p.source,
		Line:   p.current.Line,
		Prev:   renderToken(p.prev),
		Token:  renderToken(p.current),
		Next:   renderToken(p.peek),
	}
}

// eofError builds the error for input ending mid-statement. The last two
// consumed tokens provide the context.
func (p *Parser) eofError() *SyntaxError {
	return &SyntaxError{
		Source:        p.source,
		Line:          p.prev.Line,
		Prev:          renderToken(p.prev2),
		Token:         renderToken(p.prev),
		Next:          "EOF",
		UnexpectedEOF: true,
	}
}

// readError creates an error from a tokenizer read failure
func (p *Parser) readError(msg string) error {
	return errors.New(
		errors.ErrCodeConfigRead,
		fmt.Sprintf("Read error in %s at line %d: %s", p.source, p.current.Line, msg),
		"The input stream failed while tokens were being read",
		"Check that the file is readable and not being truncated",
	)
}

// renderToken formats a token for an error context window
func renderToken(token Token) string {
	switch token.Type {
	case TokenEOF, TokenError:
		return ""
	case TokenEOL:
		return "LF"
	default:
		return token.Value
	}
}
