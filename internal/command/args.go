package command

import (
	"strings"
	"unicode"
)

// Args is the tokenised form of a command's trailing parameters.
type Args struct {
	// All is the raw parameter text.
	All string `json:"all"`

	// Unnamed holds positional tokens in the order they appeared.
	Unnamed []string `json:"unnamed"`

	// Named holds key=value tokens. A later key overrides an earlier one.
	Named map[string]string `json:"named"`
}

// ParseArgs splits params on whitespace. Double quotes group a value that
// contains spaces; the quotes themselves are dropped.
func ParseArgs(params string) Args {
	args := Args{
		All:     params,
		Unnamed: []string{},
		Named:   map[string]string{},
	}

	for _, tok := range tokenize(params) {
		if key, value, ok := strings.Cut(tok, "="); ok && key != "" {
			args.Named[key] = value
			continue
		}
		args.Unnamed = append(args.Unnamed, tok)
	}

	return args
}

func tokenize(s string) []string {
	var (
		tokens  []string
		current strings.Builder
		quoted  bool
		started bool
	)

	flush := func() {
		if started {
			tokens = append(tokens, current.String())
		}
		current.Reset()
		started = false
	}

	for _, r := range s {
		switch {
		case r == '"':
			quoted = !quoted
			started = true
		case unicode.IsSpace(r) && !quoted:
			flush()
		default:
			current.WriteRune(r)
			started = true
		}
	}
	flush()

	return tokens
}
