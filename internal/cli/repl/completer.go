package repl

import (
	"sort"
	"strings"
)

// Builtins are the words the shell handles itself.
var Builtins = []string{"help", "history", "exit", "quit"}

// Completer suggests input for the current screen.
type Completer struct {
	actions func() []string
}

// NewCompleter creates a completer. actions returns the action names of
// the current screen.
func NewCompleter(actions func() []string) *Completer {
	return &Completer{actions: actions}
}

// Complete returns the sorted words starting with prefix.
func (c *Completer) Complete(prefix string) []string {
	prefix = strings.TrimLeft(prefix, " ")
	var words []string
	if c.actions != nil {
		words = append(words, c.actions()...)
	}
	words = append(words, Builtins...)

	seen := make(map[string]struct{}, len(words))
	var suggestions []string
	for _, w := range words {
		if _, dup := seen[w]; dup || !strings.HasPrefix(w, prefix) {
			continue
		}
		seen[w] = struct{}{}
		suggestions = append(suggestions, w)
	}
	sort.Strings(suggestions)
	return suggestions
}
