package keywords

import (
	"fmt"
	"testing"
)

func countClasses(kws []Keyword) map[string]int {
	counts := map[string]int{}
	for _, kw := range kws {
		counts[kw.Class]++
	}
	return counts
}

func TestClassifyKeywordsBoundaries(t *testing.T) {
	tests := []struct {
		n         int
		primary   int
		secondary int
		tertiary  int
	}{
		// index/5: 0.0 | 0.2 0.4 | 0.6 0.8
		{5, 1, 2, 2},
		{100, 20, 30, 50},
		{1, 1, 0, 0},
		{3, 1, 1, 1},
		{10, 2, 3, 5},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d", tt.n), func(t *testing.T) {
			kws := make([]Keyword, tt.n)
			for i := range kws {
				kws[i] = Keyword{Term: fmt.Sprintf("kw %d", i), Score: float64(tt.n-i) / float64(tt.n)}
			}
			counts := countClasses(ClassifyKeywords(kws))
			if counts[ClassPrimary] != tt.primary || counts[ClassSecondary] != tt.secondary || counts[ClassTertiary] != tt.tertiary {
				t.Errorf("classes = %v, want %d/%d/%d", counts, tt.primary, tt.secondary, tt.tertiary)
			}
		})
	}
}

func TestClassifyKeywordsIsTotalAndSorted(t *testing.T) {
	kws := []Keyword{
		{Term: "low", Score: 0.1},
		{Term: "high", Score: 0.9},
		{Term: "tie a", Score: 0.5},
		{Term: "tie b", Score: 0.5},
		{Term: "mid", Score: 0.6},
	}
	out := ClassifyKeywords(kws)
	if len(out) != len(kws) {
		t.Fatalf("expected %d keywords, got %d", len(kws), len(out))
	}
	if out[0].Term != "high" || out[0].Class != ClassPrimary {
		t.Errorf("expected high to be first and primary, got %+v", out[0])
	}
	if out[2].Term != "tie a" || out[3].Term != "tie b" {
		t.Errorf("ties should keep input order, got %q then %q", out[2].Term, out[3].Term)
	}
	for _, kw := range out {
		switch kw.Class {
		case ClassPrimary, ClassSecondary, ClassTertiary:
		default:
			t.Errorf("keyword %q has no class", kw.Term)
		}
	}
	if kws[0].Class != "" {
		t.Error("ClassifyKeywords must not modify its input")
	}
}
