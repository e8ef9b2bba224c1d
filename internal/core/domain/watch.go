package domain

import (
	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/zerr"
)

// WatchRule pairs a set of glob patterns with the task stages to run when a
// matching file changes.
type WatchRule struct {
	Name     string
	Category Category
	// Patterns are slash-separated globs relative to the project root; "**" matches across directories.
	Patterns []InternedString
	Reaction [][]InternedString
}

// Matches reports whether a root-relative, slash-separated path matches any pattern of the rule.
func (r *WatchRule) Matches(rel string) bool {
	for _, p := range r.Patterns {
		if ok, err := doublestar.Match(p.String(), rel); err == nil && ok {
			return true
		}
	}
	return false
}

// ValidateWatchRules checks that every reaction references a registered task
// and that every pattern is a valid glob.
func ValidateWatchRules(g *Graph, rules []WatchRule) error {
	for _, rule := range rules {
		for _, p := range rule.Patterns {
			if !doublestar.ValidatePattern(p.String()) {
				return zerr.With(zerr.With(zerr.New("invalid watch pattern"), "pattern", p.String()), "rule", rule.Name)
			}
		}
		for _, stage := range rule.Reaction {
			for _, name := range stage {
				if _, ok := g.GetTask(name); !ok {
					return zerr.With(zerr.With(ErrUnknownReaction, "task", name.String()), "rule", rule.Name)
				}
			}
		}
	}
	return nil
}
