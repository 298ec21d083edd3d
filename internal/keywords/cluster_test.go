package keywords

import (
	"fmt"
	"math"
	"testing"
)

func TestTrigramSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"yoga mat", "yoga mat", 1},
		{"abc", "xyz", 0},
		{"", "", 0},
		{"ab", "ab", 1},
		{"abcd", "abce", 1.0 / 3.0},
	}
	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			if got := TrigramSimilarity(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TrigramSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestClusterKeywordsGroupsSimilarTerms(t *testing.T) {
	kws := []Keyword{
		{Term: "yoga mat", Score: 0.9},
		{Term: "garden hose", Score: 0.8},
		{Term: "yoga mats", Score: 0.7},
		{Term: "garden hoses", Score: 0.5},
	}
	clusters, out := ClusterKeywords(kws, DefaultClusterThreshold)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %+v", clusters)
	}
	c0 := clusters[0]
	if c0.ID != "cluster_0" || c0.PrimaryTerm != "yoga mat" || len(c0.Keywords) != 2 {
		t.Errorf("unexpected first cluster %+v", c0)
	}
	if math.Abs(c0.AvgScore-0.8) > 1e-9 {
		t.Errorf("expected avg 0.8, got %v", c0.AvgScore)
	}
	if clusters[1].PrimaryTerm != "garden hose" {
		t.Errorf("unexpected second cluster %+v", clusters[1])
	}
	for _, kw := range out {
		if kw.ClusterID == "" {
			t.Errorf("keyword %q has no cluster", kw.Term)
		}
	}
}

func TestClusterKeywordsRunningMean(t *testing.T) {
	kws := []Keyword{
		{Term: "yoga mat", Score: 0.9},
		{Term: "yoga mats", Score: 0.6},
		{Term: "yoga mat x", Score: 0.3},
	}
	clusters, _ := ClusterKeywords(kws, 0.3)
	if len(clusters) != 1 {
		t.Fatalf("expected a single cluster, got %+v", clusters)
	}
	// (0.9) -> (0.9+0.6)/2 = 0.75 -> (0.75*2+0.3)/3 = 0.6
	if math.Abs(clusters[0].AvgScore-0.6) > 1e-9 {
		t.Errorf("running mean = %v, want 0.6", clusters[0].AvgScore)
	}
}

func TestClusterKeywordsPartition(t *testing.T) {
	var kws []Keyword
	for i := 0; i < 60; i++ {
		kws = append(kws, Keyword{
			Term:  fmt.Sprintf("term %c%d", 'a'+i%7, i%13),
			Score: float64(i%10) / 10,
		})
	}
	clusters, out := ClusterKeywords(kws, DefaultClusterThreshold)
	if len(out) != len(kws) {
		t.Fatalf("expected %d keywords back, got %d", len(kws), len(out))
	}

	seen := map[string]int{}
	for _, c := range clusters {
		for _, term := range c.Keywords {
			seen[term]++
		}
	}
	inputCount := map[string]int{}
	for _, kw := range kws {
		inputCount[kw.Term]++
	}
	for term, n := range inputCount {
		if seen[term] != n {
			t.Errorf("term %q appears %d times across clusters, want %d", term, seen[term], n)
		}
	}
	for term := range seen {
		if inputCount[term] == 0 {
			t.Errorf("cluster contains unknown term %q", term)
		}
	}
}

func TestClusterKeywordsEmpty(t *testing.T) {
	clusters, out := ClusterKeywords(nil, DefaultClusterThreshold)
	if len(clusters) != 0 || len(out) != 0 {
		t.Fatalf("expected empty output, got %v %v", clusters, out)
	}
}
