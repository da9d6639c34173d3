// Package prompts contains MCP prompt implementations for flowlens.
package prompts

// Config holds configuration needed by prompts.
type Config struct {
	// CustomRules is set when a rule file is loaded on top of, or instead
	// of, the built-in app rules.
	CustomRules bool
	RulesMode   string
}
