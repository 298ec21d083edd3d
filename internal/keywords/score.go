package keywords

import (
	"math"
	"strings"
)

// Scoring weights. The last term is a fixed bias, not a computed signal.
const (
	weightFrequency = 0.35
	weightPosition  = 0.25
	weightLength    = 0.20
	weightBias      = 0.20
	biasValue       = 0.8
)

// ScoreInput holds the signals that feed CalculateScore.
type ScoreInput struct {
	Term      string
	Frequency float64
	Position  float64
	Source    string
}

// CalculateScore returns the weighted relevance score of a keyword in [0,1].
func CalculateScore(in ScoreInput) float64 {
	freqScore := math.Min(in.Frequency/10, 1.0)
	posScore := 1.0 - math.Min(in.Position/100, 1.0)

	lengthScore := 0.7
	if words := len(strings.Fields(in.Term)); words == 2 || words == 3 {
		lengthScore = 1.0
	}

	score := weightFrequency*freqScore +
		weightPosition*posScore +
		weightLength*lengthScore +
		weightBias*biasValue

	return math.Max(0, math.Min(1, score))
}

// ScoreRaw converts merged raw tuples into scored keywords.
func ScoreRaw(raw []RawKeyword) []Keyword {
	out := make([]Keyword, 0, len(raw))
	for _, r := range raw {
		out = append(out, Keyword{
			Term: r.Term,
			Score: CalculateScore(ScoreInput{
				Term:      r.Term,
				Frequency: float64(r.Frequency),
				Position:  r.Position,
				Source:    r.Source,
			}),
			Source:       r.Source,
			SearchVolume: r.SearchVolume,
			Frequency:    r.Frequency,
			Position:     r.Position,
		})
	}
	return out
}
