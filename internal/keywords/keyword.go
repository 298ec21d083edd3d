// Package keywords implements keyword research: normalization, n-gram
// extraction, scoring, similarity clustering and tier classification.
package keywords

import "errors"

// Source constants describe where a keyword came from.
const (
	SourceCompetitor = "competitor"
	SourceSeed       = "seed"
	SourceExtracted  = "extracted"
)

// Class constants for score-percentile tiers.
const (
	ClassPrimary   = "primary"
	ClassSecondary = "secondary"
	ClassTertiary  = "tertiary"
)

// ErrNoInput is returned when a keyword request carries no ASINs, seeds or text.
var ErrNoInput = errors.New("at least one asin, seed keyword or text is required")

// Keyword is a scored research keyword. Only ClusterID and Class change
// after scoring.
type Keyword struct {
	Term         string  `json:"term"`
	Score        float64 `json:"score"`
	ClusterID    string  `json:"cluster_id"`
	Class        string  `json:"class"`
	Source       string  `json:"source"`
	SearchVolume int     `json:"search_volume"`
	Frequency    int     `json:"frequency"`
	Position     float64 `json:"position"`
}

// Cluster groups similar keywords around the highest-scoring seed term.
type Cluster struct {
	ID          string   `json:"id"`
	Keywords    []string `json:"keywords"`
	PrimaryTerm string   `json:"primary_term"`
	AvgScore    float64  `json:"avg_score"`
}

// RawKeyword is an unscored frequency/position tuple from one of the sources.
type RawKeyword struct {
	Term         string  `json:"term"`
	Frequency    int     `json:"frequency"`
	Position     float64 `json:"position"`
	SearchVolume int     `json:"search_volume"`
	Source       string  `json:"source"`
}

var sourcePriority = map[string]int{
	SourceCompetitor: 0,
	SourceSeed:       1,
	SourceExtracted:  2,
}

// MergeRaw combines tuples that share a term. Frequencies add up, the best
// (lowest) position and the largest search volume win, and the source with
// the highest priority is kept. Order follows first appearance.
func MergeRaw(raw []RawKeyword) []RawKeyword {
	index := make(map[string]int, len(raw))
	out := make([]RawKeyword, 0, len(raw))
	for _, r := range raw {
		if r.Term == "" {
			continue
		}
		i, ok := index[r.Term]
		if !ok {
			index[r.Term] = len(out)
			out = append(out, r)
			continue
		}
		m := &out[i]
		m.Frequency += r.Frequency
		if r.Position < m.Position {
			m.Position = r.Position
		}
		if r.SearchVolume > m.SearchVolume {
			m.SearchVolume = r.SearchVolume
		}
		if rank(r.Source) < rank(m.Source) {
			m.Source = r.Source
		}
	}
	return out
}

func rank(source string) int {
	if p, ok := sourcePriority[source]; ok {
		return p
	}
	return len(sourcePriority)
}
