package keywords

import "sort"

// Percentile boundaries over the score-sorted index.
const (
	primaryCutoff   = 0.2
	secondaryCutoff = 0.5
)

// ClassifyKeywords sorts keywords by score and assigns each a tier by its
// index percentile: top 20% primary, next 30% secondary, the rest tertiary.
// Ties keep their input order.
func ClassifyKeywords(kws []Keyword) []Keyword {
	out := make([]Keyword, len(kws))
	copy(out, kws)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	total := float64(len(out))
	for i := range out {
		p := float64(i) / total
		switch {
		case p < primaryCutoff:
			out[i].Class = ClassPrimary
		case p < secondaryCutoff:
			out[i].Class = ClassSecondary
		default:
			out[i].Class = ClassTertiary
		}
	}
	return out
}

// Tiers splits classified keywords into their terms per class.
func Tiers(kws []Keyword) (primary, secondary, tertiary []string) {
	for _, kw := range kws {
		switch kw.Class {
		case ClassPrimary:
			primary = append(primary, kw.Term)
		case ClassSecondary:
			secondary = append(secondary, kw.Term)
		default:
			tertiary = append(tertiary, kw.Term)
		}
	}
	return primary, secondary, tertiary
}
