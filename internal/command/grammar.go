package command

import (
	"regexp"
	"strings"
)

// shaPattern is the commit identifier every rule captures.
const shaPattern = `([0-9a-f]{40})`

var keywordPattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// Rule is one entry in a Grammar.
type Rule struct {
	// Keyword is the command word that follows the slash.
	Keyword Command

	// Usage is the user-facing form shown when nothing matches.
	Usage string

	pattern *regexp.Regexp
}

// DefaultRules returns the built-in command rules in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{Keyword: CommandPlatformTests, Usage: "/platform_tests <commit-sha>"},
		{Keyword: CommandBenchmark, Usage: "/benchmark <commit-sha> [parameters]"},
	}
}

// Grammar is an ordered table of rules. The first rule to match wins.
type Grammar struct {
	rules []Rule
	usage string
}

// NewGrammar compiles rules into a Grammar, keeping their order.
func NewGrammar(rules ...Rule) (*Grammar, error) {
	g := &Grammar{rules: make([]Rule, 0, len(rules))}
	seen := make(map[Command]bool, len(rules))

	for _, r := range rules {
		if !keywordPattern.MatchString(string(r.Keyword)) {
			return nil, &InvalidRuleError{Keyword: string(r.Keyword), Reason: "keyword must match [a-z0-9_-]+"}
		}
		if seen[r.Keyword] {
			return nil, &InvalidRuleError{Keyword: string(r.Keyword), Reason: "duplicate keyword"}
		}
		seen[r.Keyword] = true

		if r.Usage == "" {
			r.Usage = "/" + string(r.Keyword) + " <commit-sha>"
		}
		// The SHA must be followed by whitespace or the end of the body, so a
		// 41st hex digit or any other glued character is a mismatch. Params
		// run to the end of the body, across lines.
		r.pattern = regexp.MustCompile(`^/` + regexp.QuoteMeta(string(r.Keyword)) + `\s+` + shaPattern + `(?:\s+([\s\S]*))?$`)
		g.rules = append(g.rules, r)
	}

	g.usage = buildUsage(g.rules)
	return g, nil
}

// DefaultGrammar returns the grammar for the built-in commands.
func DefaultGrammar() *Grammar {
	g, err := NewGrammar(DefaultRules()...)
	if err != nil {
		panic(err)
	}
	return g
}

// Usage returns the fixed usage message listing every accepted form.
func (g *Grammar) Usage() string {
	return g.usage
}

// Parse matches the trimmed body against each rule in order.
// It has no side effects; equal inputs give equal results.
func (g *Grammar) Parse(body string) (*ParsedCommand, error) {
	text := strings.TrimSpace(body)

	for _, r := range g.rules {
		m := r.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}

		params := strings.TrimSpace(m[2])
		return &ParsedCommand{
			Command: r.Keyword,
			SHA:     m[1],
			Params:  params,
			Args:    ParseArgs(params),
		}, nil
	}

	return nil, &ParseError{Usage: g.usage}
}

func buildUsage(rules []Rule) string {
	forms := make([]string, len(rules))
	for i, r := range rules {
		forms[i] = "`" + r.Usage + "`"
	}

	var list string
	switch len(forms) {
	case 0:
		list = "(no commands configured)"
	case 1:
		list = forms[0]
	default:
		list = strings.Join(forms[:len(forms)-1], ", ") + " or " + forms[len(forms)-1]
	}

	return "Unrecognized command. Use " + list + ", where <commit-sha> is a full 40-character lowercase commit SHA."
}
