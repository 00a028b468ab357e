package cli

import (
	"fmt"
	"strings"
)

// TokenizeCommand splits a command line into tokens, respecting quotes
// Example: `open "my settings.ini"` -> ["open", "my settings.ini"], nil
// Returns error if quotes are unmatched
// Treats both spaces and tabs as whitespace delimiters
func TokenizeCommand(line string) ([]string, error) {
	var tokens []string
	var current strings.Builder
	inQuote := false

	for i := 0; i < len(line); i++ {
		char := line[i]

		switch char {
		case '"':
			inQuote = !inQuote
		case ' ', '\t': // Treat both space and tab as whitespace
			if inQuote {
				current.WriteByte(char)
			} else if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteByte(char)
		}
	}

	if inQuote {
		return nil, fmt.Errorf("unmatched quote in command")
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens, nil
}
