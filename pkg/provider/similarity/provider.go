// Package similarity defines the Scorer interface for semantic closeness
// backends.
//
// A scorer maps two text strings to a closeness value in [0, 1]. The
// evaluation engine uses it as the primary grading signal for free-text
// answers. Two properties are required of every implementation (and covered
// by shared conformance tests):
//
//   - Symmetry: Score(a, b) == Score(b, a).
//   - Identity: strings that are equal after case folding and whitespace
//     normalisation score 1.0.
//
// Implementations must be safe for concurrent use.
package similarity

import "context"

// Scorer is the abstraction over any text similarity backend.
type Scorer interface {
	// Score returns the semantic closeness of a and b in [0, 1].
	// Returns an error when the backend is unreachable or ctx expires;
	// callers degrade to non-semantic grading rather than failing the turn.
	Score(ctx context.Context, a, b string) (float64, error)
}
