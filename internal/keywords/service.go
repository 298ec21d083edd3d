package keywords

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"sellerdesk/internal/cache"
	"sellerdesk/internal/llm"
	"sellerdesk/internal/metrics"
	"sellerdesk/internal/rankdata"
)

const (
	// MaxExpandedKeywords caps how many phrases seed expansion returns.
	MaxExpandedKeywords = 30

	// neutralPosition is used for keywords with no SERP position.
	neutralPosition = 50

	competitorFetchLimit = 100
	asinConcurrency      = 4
)

var listMarkerRe = regexp.MustCompile(`^\s*(?:[-*•]+|\d+[.)]|#+)\s*`)

// Request describes one keyword research run.
type Request struct {
	ASINs       []string `json:"asins"`
	Seeds       []string `json:"seeds"`
	Category    string   `json:"category"`
	Marketplace string   `json:"marketplace"`
	Text        string   `json:"text"`
	Expand      bool     `json:"expand"`
	Refresh     bool     `json:"refresh"`
}

// Stats summarizes a Result.
type Stats struct {
	Total        int `json:"total"`
	Primary      int `json:"primary"`
	Secondary    int `json:"secondary"`
	Tertiary     int `json:"tertiary"`
	Clusters     int `json:"clusters"`
	Competitor   int `json:"competitor"`
	Seed         int `json:"seed"`
	Extracted    int `json:"extracted"`
	FailedASINs  int `json:"failed_asins"`
	ExpandedSeed int `json:"expanded_seed"`
}

// Result is the output of GenerateKeywords.
type Result struct {
	Keywords []Keyword `json:"keywords"`
	Clusters []Cluster `json:"clusters"`
	Stats    Stats     `json:"stats"`
}

// ServiceOptions tunes the pipeline.
type ServiceOptions struct {
	ClusterThreshold float64
	ExpansionCount   int
	Model            string
}

// Service runs the keyword research pipeline against its collaborators.
type Service struct {
	cache   *cache.Cache
	fetcher rankdata.Fetcher
	llm     llm.Completer
	logger  *slog.Logger
	opts    ServiceOptions
}

// NewService creates a keyword service. fetcher and completer may be nil, in
// which case competitor analysis yields nothing and expansion returns seeds.
func NewService(c *cache.Cache, fetcher rankdata.Fetcher, completer llm.Completer, logger *slog.Logger, opts ServiceOptions) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.ClusterThreshold <= 0 {
		opts.ClusterThreshold = DefaultClusterThreshold
	}
	if opts.ExpansionCount <= 0 || opts.ExpansionCount > MaxExpandedKeywords {
		opts.ExpansionCount = MaxExpandedKeywords
	}
	return &Service{cache: c, fetcher: fetcher, llm: completer, logger: logger, opts: opts}
}

// AnalyzeCompetitors fetches the keywords each ASIN ranks for. A failed ASIN
// contributes nothing; the second return value counts failures.
func (s *Service) AnalyzeCompetitors(ctx context.Context, asins []string, marketplace string) ([]RawKeyword, int) {
	if s.fetcher == nil || len(asins) == 0 {
		return nil, 0
	}
	mp := rankdata.MarketplaceFor(marketplace).Code

	perASIN := make([][]RawKeyword, len(asins))
	failed := make([]bool, len(asins))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(asinConcurrency)
	for i, asin := range asins {
		g.Go(func() error {
			items, err := s.rankedKeywords(gctx, asin, mp)
			if err != nil {
				s.logger.Warn("competitor keyword fetch failed", "asin", asin, "marketplace", mp, "error", err)
				failed[i] = true
				return nil
			}
			raw := make([]RawKeyword, 0, len(items))
			for _, item := range items {
				term := NormalizeTerm(item.Keyword)
				if len([]rune(term)) <= 2 {
					continue
				}
				raw = append(raw, RawKeyword{
					Term:         term,
					Frequency:    1,
					Position:     float64(item.RankAbsolute),
					SearchVolume: item.SearchVolume,
					Source:       SourceCompetitor,
				})
			}
			perASIN[i] = raw
			return nil
		})
	}
	_ = g.Wait()

	var out []RawKeyword
	nFailed := 0
	for i := range asins {
		if failed[i] {
			nFailed++
		}
		out = append(out, perASIN[i]...)
	}
	return out, nFailed
}

func asinCacheKey(asin, marketplace string) string {
	return fmt.Sprintf("keywords:asin:%s:%s", marketplace, strings.ToUpper(strings.TrimSpace(asin)))
}

// ForgetCompetitors drops the cached rankings of asins so the next analysis
// fetches them again.
func (s *Service) ForgetCompetitors(ctx context.Context, asins []string, marketplace string) {
	mp := rankdata.MarketplaceFor(marketplace).Code
	for _, asin := range asins {
		s.cache.Del(ctx, asinCacheKey(asin, mp))
	}
}

func (s *Service) rankedKeywords(ctx context.Context, asin, marketplace string) ([]rankdata.RankedItem, error) {
	key := asinCacheKey(asin, marketplace)

	var items []rankdata.RankedItem
	if s.cache.Get(ctx, key, &items) == cache.Hit {
		return items, nil
	}
	items, err := s.fetcher.FetchRankedKeywords(ctx, asin, marketplace, competitorFetchLimit)
	if err != nil {
		return nil, err
	}
	s.cache.Set(ctx, key, items, cache.TTLCompetitorKeywords)
	return items, nil
}

// ExpandSeedKeywords asks the LLM for related phrases. The result is
// normalized and capped; on any LLM failure the seeds are returned unchanged.
func (s *Service) ExpandSeedKeywords(ctx context.Context, seeds []string, category string) []string {
	if len(seeds) == 0 {
		return seeds
	}
	if s.llm == nil {
		return seeds
	}
	key := fmt.Sprintf("keywords:expand:%s:%s", strings.ToLower(strings.TrimSpace(category)), strings.Join(Normalize(seeds), ","))

	var cached []string
	if s.cache.Get(ctx, key, &cached) == cache.Hit {
		return cached
	}

	resp, err := s.llm.Complete(ctx, llm.ChatRequest{
		Purpose: "seed_expansion",
		Model:   s.opts.Model,
		Messages: []llm.Message{
			{Role: "system", Content: "You are an Amazon keyword research assistant. Reply with plain text only, one search phrase per line, no numbering, no commentary."},
			{Role: "user", Content: expansionPrompt(seeds, category, s.opts.ExpansionCount)},
		},
		Temperature: 0.7,
		MaxTokens:   800,
	})
	if err != nil {
		s.logger.Warn("seed expansion failed, using seeds", "category", category, "error", err)
		return seeds
	}

	lines := strings.Split(resp.Text, "\n")
	phrases := make([]string, 0, len(lines))
	for _, line := range lines {
		phrases = append(phrases, listMarkerRe.ReplaceAllString(line, ""))
	}
	expanded := Normalize(phrases)
	if len(expanded) > s.opts.ExpansionCount {
		expanded = expanded[:s.opts.ExpansionCount]
	}
	if len(expanded) == 0 {
		return seeds
	}
	s.cache.Set(ctx, key, expanded, cache.TTLSeedExpansion)
	return expanded
}

func expansionPrompt(seeds []string, category string, n int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d Amazon search phrases related to these seed keywords: %s.\n", n, strings.Join(seeds, ", "))
	if strings.TrimSpace(category) != "" {
		fmt.Fprintf(&b, "Product category: %s.\n", category)
	}
	b.WriteString("Include long-tail variants and buyer-intent phrases. One phrase per line.")
	return b.String()
}

// GenerateKeywords merges competitor, seed and extracted keywords, then
// scores, clusters and classifies them.
func (s *Service) GenerateKeywords(ctx context.Context, req Request) (Result, error) {
	if len(req.ASINs) == 0 && len(req.Seeds) == 0 && strings.TrimSpace(req.Text) == "" {
		return Result{}, ErrNoInput
	}

	var stats Stats
	if req.Refresh {
		s.ForgetCompetitors(ctx, req.ASINs, req.Marketplace)
	}
	competitor, failed := s.AnalyzeCompetitors(ctx, req.ASINs, req.Marketplace)
	stats.FailedASINs = failed

	raw := append([]RawKeyword{}, competitor...)

	seeds := Normalize(req.Seeds)
	for _, term := range seeds {
		raw = append(raw, RawKeyword{Term: term, Frequency: 1, Position: neutralPosition, Source: SourceSeed})
	}
	if req.Expand && len(seeds) > 0 {
		given := make(map[string]struct{}, len(seeds))
		for _, term := range seeds {
			given[term] = struct{}{}
		}
		for _, term := range s.ExpandSeedKeywords(ctx, seeds, req.Category) {
			if _, ok := given[term]; ok {
				continue
			}
			raw = append(raw, RawKeyword{Term: term, Frequency: 1, Position: neutralPosition, Source: SourceSeed})
			stats.ExpandedSeed++
		}
	}
	if strings.TrimSpace(req.Text) != "" {
		raw = append(raw, CountNGrams(req.Text, neutralPosition)...)
	}

	merged := MergeRaw(raw)
	scored := ScoreRaw(merged)
	clusters, clustered := ClusterKeywords(scored, s.opts.ClusterThreshold)
	classified := ClassifyKeywords(clustered)

	for _, kw := range classified {
		switch kw.Class {
		case ClassPrimary:
			stats.Primary++
		case ClassSecondary:
			stats.Secondary++
		default:
			stats.Tertiary++
		}
		switch kw.Source {
		case SourceCompetitor:
			stats.Competitor++
		case SourceSeed:
			stats.Seed++
		default:
			stats.Extracted++
		}
	}
	stats.Total = len(classified)
	stats.Clusters = len(clusters)
	metrics.ObserveKeywordsGenerated(stats.Total)

	s.logger.Info("keyword research complete",
		"keywords", stats.Total,
		"clusters", stats.Clusters,
		"failed_asins", stats.FailedASINs,
	)
	return Result{Keywords: classified, Clusters: clusters, Stats: stats}, nil
}
