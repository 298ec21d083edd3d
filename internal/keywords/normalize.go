package keywords

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxExtractTokens caps how many tokens ExtractNGrams reads from its input.
const MaxExtractTokens = 1000

var (
	disallowedCharsRe = regexp.MustCompile(`[^\w\s-]`)
	whitespaceRe      = regexp.MustCompile(`\s+`)
)

// NormalizeTerm lowercases a single term, strips everything except word
// characters, hyphens and whitespace, and collapses whitespace.
func NormalizeTerm(term string) string {
	t := strings.TrimSpace(strings.ToLower(term))
	t = disallowedCharsRe.ReplaceAllString(t, "")
	t = whitespaceRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

// Normalize normalizes and deduplicates terms, dropping anything of two
// characters or fewer. First occurrence order is kept.
func Normalize(terms []string) []string {
	out := make([]string, 0, len(terms))
	seen := make(map[string]struct{}, len(terms))
	for _, term := range terms {
		t := NormalizeTerm(term)
		if utf8.RuneCountInString(t) <= 2 {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ExtractNGrams emits every 1, 2 and 3 token phrase of text, normalized.
func ExtractNGrams(text string) []string {
	tokens := strings.Fields(text)
	if len(tokens) > MaxExtractTokens {
		tokens = tokens[:MaxExtractTokens]
	}
	candidates := make([]string, 0, len(tokens)*3)
	for i := range tokens {
		for n := 1; n <= 3 && i+n <= len(tokens); n++ {
			candidates = append(candidates, strings.Join(tokens[i:i+n], " "))
		}
	}
	return Normalize(candidates)
}

// CountNGrams returns extracted n-grams as raw tuples whose frequency is the
// number of times each phrase occurs in text.
func CountNGrams(text string, position float64) []RawKeyword {
	tokens := strings.Fields(text)
	if len(tokens) > MaxExtractTokens {
		tokens = tokens[:MaxExtractTokens]
	}
	counts := map[string]int{}
	order := make([]string, 0, len(tokens)*3)
	for i := range tokens {
		for n := 1; n <= 3 && i+n <= len(tokens); n++ {
			t := NormalizeTerm(strings.Join(tokens[i:i+n], " "))
			if utf8.RuneCountInString(t) <= 2 {
				continue
			}
			if counts[t] == 0 {
				order = append(order, t)
			}
			counts[t]++
		}
	}
	out := make([]RawKeyword, 0, len(order))
	for _, t := range order {
		out = append(out, RawKeyword{
			Term:      t,
			Frequency: counts[t],
			Position:  position,
			Source:    SourceExtracted,
		})
	}
	return out
}
