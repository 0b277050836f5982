package config

import (
	"fmt"
	"strings"
	"unicode"
)

// parseArgv splits a share_cmd value into an argv slice using shell-like
// quoting rules: whitespace separates arguments, single and double quotes
// group them, backslash escapes the next rune. A line starting with "#"
// disables the command entirely.
func parseArgv(input string) ([]string, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.HasPrefix(input, "#") {
		return nil, nil
	}

	runes := []rune(input)
	var argv []string
	var token strings.Builder

	emit := func() {
		if token.Len() > 0 {
			argv = append(argv, token.String())
			token.Reset()
		}
	}

	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; {
		case r == '\\':
			if i == len(runes)-1 {
				return nil, fmt.Errorf("share command ends mid-escape: %q", input)
			}
			i++
			token.WriteRune(runes[i])
		case r == '\'' || r == '"':
			closed := false
			for i++; i < len(runes); i++ {
				c := runes[i]
				if c == '\\' {
					if i == len(runes)-1 {
						return nil, fmt.Errorf("share command ends mid-escape: %q", input)
					}
					i++
					token.WriteRune(runes[i])
					continue
				}
				if c == r {
					closed = true
					break
				}
				token.WriteRune(c)
			}
			if !closed {
				return nil, fmt.Errorf("share command has an unclosed %c quote: %q", r, input)
			}
		case unicode.IsSpace(r):
			emit()
		default:
			token.WriteRune(r)
		}
	}

	emit()
	return argv, nil
}

// mustParseArgv is for compiled-in command lines, where a parse failure is
// a programming error.
func mustParseArgv(input string) []string {
	argv, err := parseArgv(input)
	if err != nil {
		panic(fmt.Sprintf("built-in command line: %v", err))
	}
	return argv
}
