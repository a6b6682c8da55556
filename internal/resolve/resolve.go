// Package resolve maps a free-text entity reference onto a concrete stored
// entity. Matching is deliberately simple and documented: case-insensitive
// substring containment in both directions. A stored title matches when it
// contains the reference, or when the reference contains the title (the
// spoken phrase may embed the whole title).
//
// Unlike a first-match-wins policy, all matches are collected: exactly one
// match resolves, several matches are reported as ambiguous so the caller
// can ask for disambiguation instead of silently mutating the wrong entity.
package resolve

import (
	"strings"

	"dayflow/internal/logging"
)

// Outcome classifies a resolution attempt.
type Outcome int

const (
	// OutcomeNone means no stored entity matched the reference.
	OutcomeNone Outcome = iota
	// OutcomeResolved means exactly one entity matched.
	OutcomeResolved
	// OutcomeAmbiguous means two or more entities matched; no mutation
	// should proceed until the user disambiguates.
	OutcomeAmbiguous
)

// Resolution is the result of resolving a reference against a collection.
type Resolution[E any] struct {
	Outcome Outcome

	// Entity and Index are set when Outcome is OutcomeResolved.
	Entity E
	Index  int

	// Candidates holds the matching titles when Outcome is
	// OutcomeAmbiguous, in collection order.
	Candidates []string
}

// ContainsEitherWay reports whether title matches reference under the
// bidirectional containment test.
func ContainsEitherWay(reference, title string) bool {
	ref := strings.ToLower(strings.TrimSpace(reference))
	t := strings.ToLower(strings.TrimSpace(title))
	if ref == "" || t == "" {
		return false
	}
	return strings.Contains(t, ref) || strings.Contains(ref, t)
}

// Resolve finds the entity a reference denotes. The title function extracts
// the match key from an element; collection order decides candidate order
// but never winner selection.
func Resolve[E any](reference string, items []E, title func(E) string) Resolution[E] {
	var matched []int
	for i, item := range items {
		if ContainsEitherWay(reference, title(item)) {
			matched = append(matched, i)
		}
	}

	switch len(matched) {
	case 0:
		logging.Resolution("no entity matched reference %q (%d candidates)", reference, len(items))
		return Resolution[E]{Outcome: OutcomeNone}
	case 1:
		i := matched[0]
		logging.ResolutionDebug("reference %q resolved to %q", reference, title(items[i]))
		return Resolution[E]{Outcome: OutcomeResolved, Entity: items[i], Index: i}
	default:
		candidates := make([]string, 0, len(matched))
		for _, i := range matched {
			candidates = append(candidates, title(items[i]))
		}
		logging.Resolution("reference %q is ambiguous across %d entities", reference, len(matched))
		return Resolution[E]{Outcome: OutcomeAmbiguous, Candidates: candidates}
	}
}
