package keywords

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestNormalizeTerm(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase and trim", "  Yoga MAT  ", "yoga mat"},
		{"strip punctuation", "yoga mat!!! (thick)", "yoga mat thick"},
		{"keep hyphens", "non-slip mat", "non-slip mat"},
		{"collapse whitespace", "yoga \t\n  mat", "yoga mat"},
		{"keep underscore", "eco_friendly", "eco_friendly"},
		{"only symbols", "@#$%", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTerm(tt.in); got != tt.want {
				t.Errorf("NormalizeTerm(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize([]string{"Yoga Mat", "yoga mat", "YOGA  MAT!", "ab", " a ", "", "cork mat", "yoga mat"})
	want := []string{"yoga mat", "cork mat"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("Normalize = %v, want %v", got, want)
	}
}

func TestNormalizeInvariants(t *testing.T) {
	inputs := [][]string{
		nil,
		{},
		{"a", "bb", "ccc", "CCC", "c c", "d-d"},
		{"  !! ", "Wireless Earbuds", "wireless  earbuds", "wireless-earbuds", "日本"},
	}
	for _, in := range inputs {
		out := Normalize(in)
		seen := map[string]bool{}
		for _, term := range out {
			if seen[term] {
				t.Errorf("Normalize(%v) returned duplicate %q", in, term)
			}
			seen[term] = true
			if utf8.RuneCountInString(term) <= 2 {
				t.Errorf("Normalize(%v) returned short term %q", in, term)
			}
		}
	}
}

func TestExtractNGrams(t *testing.T) {
	got := ExtractNGrams("Thick Yoga Mat")
	want := map[string]bool{
		"thick": true, "yoga": true, "mat": true,
		"thick yoga": true, "yoga mat": true, "thick yoga mat": true,
	}
	if len(got) != len(want) {
		t.Fatalf("ExtractNGrams = %v, want %d phrases", got, len(want))
	}
	for _, g := range got {
		if !want[g] {
			t.Errorf("unexpected n-gram %q", g)
		}
	}

	if got := ExtractNGrams(""); len(got) != 0 {
		t.Errorf("expected no n-grams for empty text, got %v", got)
	}
}

func TestExtractNGramsCapsInput(t *testing.T) {
	text := strings.Repeat("word ", MaxExtractTokens) + "overflow"
	for _, g := range ExtractNGrams(text) {
		if strings.Contains(g, "overflow") {
			t.Fatalf("tokens beyond the cap should be ignored, got %q", g)
		}
	}
}

func TestCountNGrams(t *testing.T) {
	raw := CountNGrams("yoga mat and yoga mat bag", 50)
	counts := map[string]int{}
	for _, r := range raw {
		if r.Source != SourceExtracted || r.Position != 50 {
			t.Errorf("unexpected tuple %+v", r)
		}
		counts[r.Term] = r.Frequency
	}
	if counts["yoga mat"] != 2 {
		t.Errorf("expected yoga mat twice, got %d", counts["yoga mat"])
	}
	if counts["yoga mat bag"] != 1 {
		t.Errorf("expected yoga mat bag once, got %d", counts["yoga mat bag"])
	}
	if _, ok := counts["and"]; !ok {
		t.Errorf("expected three-letter token to be kept")
	}
}

func TestMergeRaw(t *testing.T) {
	merged := MergeRaw([]RawKeyword{
		{Term: "yoga mat", Frequency: 1, Position: 12, SearchVolume: 100, Source: SourceSeed},
		{Term: "cork mat", Frequency: 1, Position: 5, Source: SourceExtracted},
		{Term: "yoga mat", Frequency: 2, Position: 3, SearchVolume: 50, Source: SourceCompetitor},
		{Term: "yoga mat", Frequency: 1, Position: 40, SearchVolume: 900, Source: SourceExtracted},
		{Term: "", Frequency: 9},
	})
	if len(merged) != 2 {
		t.Fatalf("expected 2 merged tuples, got %+v", merged)
	}
	m := merged[0]
	if m.Term != "yoga mat" || m.Frequency != 4 || m.Position != 3 || m.SearchVolume != 900 || m.Source != SourceCompetitor {
		t.Errorf("unexpected merge result %+v", m)
	}
	if merged[1].Term != "cork mat" {
		t.Errorf("expected first-appearance order, got %+v", merged)
	}
}
