package ini

// TokenType represents the type of a token
type TokenType int

const (
	// TokenEOF indicates end of input
	TokenEOF TokenType = iota
	// TokenEOL indicates a newline (line boundary)
	TokenEOL
	// TokenIdent is an identifier run, trimmed of surrounding whitespace.
	// The empty string is a valid identifier.
	TokenIdent
	// TokenLBracket is the '[' symbol opening a section header
	TokenLBracket
	// TokenRBracket is the ']' symbol closing a section header
	TokenRBracket
	// TokenEquals is the '=' symbol separating key and value
	TokenEquals
	// TokenSemicolon is the ';' symbol starting a comment
	TokenSemicolon
	// TokenError indicates the underlying reader failed
	TokenError
)

// Token represents a single token from the tokenizer
type Token struct {
	Type  TokenType
	Value string
	Line  int
}

// String returns a string representation of the token type
func (t TokenType) String() string {
	switch t {
	case TokenEOF:
		return "EOF"
	case TokenEOL:
		return "EOL"
	case TokenIdent:
		return "IDENT"
	case TokenLBracket:
		return "LBRACKET"
	case TokenRBracket:
		return "RBRACKET"
	case TokenEquals:
		return "EQUALS"
	case TokenSemicolon:
		return "SEMICOLON"
	case TokenError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}
