package command

import "fmt"

// Command is a slash command keyword, without the leading slash.
type Command string

const (
	CommandPlatformTests Command = "platform_tests"
	CommandBenchmark     Command = "benchmark"
)

// ParsedCommand is a validated slash command extracted from a comment body.
type ParsedCommand struct {
	// Command is the matched keyword.
	Command Command `json:"command"`

	// SHA is the 40-character lowercase hex commit the command targets.
	SHA string `json:"sha"`

	// Params is the raw text after the SHA, trimmed. Empty if none.
	Params string `json:"params,omitempty"`

	// Args is Params split into positional and key=value arguments.
	Args Args `json:"args"`
}

// ParseError is returned when a comment body matches no rule in the grammar.
type ParseError struct {
	Usage string
}

func (e *ParseError) Error() string {
	return e.Usage
}

// InvalidRuleError reports a grammar rule that cannot be compiled.
type InvalidRuleError struct {
	Keyword string
	Reason  string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid command %q: %s", e.Keyword, e.Reason)
}
