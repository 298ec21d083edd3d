package keywords

import (
	"sort"
	"strconv"
)

// DefaultClusterThreshold is the minimum trigram similarity (exclusive) for a
// keyword to join a cluster.
const DefaultClusterThreshold = 0.5

// ClusterKeywords greedily groups keywords by character-trigram Jaccard
// similarity to each cluster's seed, highest score first. It returns the
// clusters and the keywords (sorted by score) with ClusterID assigned.
// Comparison cost is O(n^2); intended for lists in the hundreds.
func ClusterKeywords(kws []Keyword, threshold float64) ([]Cluster, []Keyword) {
	sorted := make([]Keyword, len(kws))
	copy(sorted, kws)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})

	grams := make([]map[string]struct{}, len(sorted))
	for i, kw := range sorted {
		grams[i] = trigrams(kw.Term)
	}

	assigned := make([]bool, len(sorted))
	clusters := make([]Cluster, 0)
	for i := range sorted {
		if assigned[i] {
			continue
		}
		id := "cluster_" + strconv.Itoa(len(clusters))
		c := Cluster{
			ID:          id,
			Keywords:    []string{sorted[i].Term},
			PrimaryTerm: sorted[i].Term,
			AvgScore:    sorted[i].Score,
		}
		assigned[i] = true
		sorted[i].ClusterID = id

		for j := i + 1; j < len(sorted); j++ {
			if assigned[j] {
				continue
			}
			if jaccard(grams[i], grams[j]) <= threshold {
				continue
			}
			assigned[j] = true
			sorted[j].ClusterID = id
			c.Keywords = append(c.Keywords, sorted[j].Term)
			n := float64(len(c.Keywords))
			c.AvgScore = (c.AvgScore*(n-1) + sorted[j].Score) / n
		}
		clusters = append(clusters, c)
	}
	return clusters, sorted
}

// TrigramSimilarity returns the Jaccard similarity of the character trigram
// sets of a and b.
func TrigramSimilarity(a, b string) float64 {
	return jaccard(trigrams(a), trigrams(b))
}

func trigrams(s string) map[string]struct{} {
	r := []rune(s)
	out := make(map[string]struct{}, len(r))
	if len(r) < 3 {
		if len(r) > 0 {
			out[s] = struct{}{}
		}
		return out
	}
	for i := 0; i+3 <= len(r); i++ {
		out[string(r[i:i+3])] = struct{}{}
	}
	return out
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for g := range a {
		if _, ok := b[g]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
