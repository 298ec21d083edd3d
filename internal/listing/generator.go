package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"sellerdesk/internal/llm"
)

// Generation settings for full listings.
const (
	generationTemperature = 0.7
	generationMaxTokens   = 2000

	primaryTierSize   = 3
	secondaryTierSize = 5
)

var (
	// ErrGeneration is returned when the model call fails or its output
	// cannot be used.
	ErrGeneration = errors.New("listing generation failed")

	// ErrInvalidParams is returned for unusable generation parameters.
	ErrInvalidParams = errors.New("invalid listing parameters")
)

// KeywordInput is a research keyword offered to the generator.
type KeywordInput struct {
	Term         string `json:"term"`
	SearchVolume int    `json:"search_volume"`
	Selected     bool   `json:"selected"`
}

// GenerateParams describes one generation request.
type GenerateParams struct {
	ProductName string         `json:"product_name"`
	Brand       string         `json:"brand"`
	Category    string         `json:"category"`
	Marketplace string         `json:"marketplace"`
	TemplateID  string         `json:"template_id"`
	Keywords    []KeywordInput `json:"keywords"`
	Features    []string       `json:"features"`
	Benefits    []string       `json:"benefits"`
	USPs        []string       `json:"usps"`
	Disallowed  []string       `json:"disallowed"`
	AutoFix     bool           `json:"auto_fix"`
}

// Result is a generated draft plus its analysis.
type Result struct {
	Draft        Draft               `json:"draft"`
	TemplateID   string              `json:"template_id"`
	Issues       []ValidationIssue   `json:"issues"`
	BannedHits   map[string][]string `json:"banned_hits"`
	KeywordUsage map[string]int      `json:"keyword_usage"`
	Keywords     []string            `json:"keywords"`
	Fixed        bool                `json:"fixed"`
	LatencyMS    int64               `json:"latency_ms"`
}

// Generator produces listings with an LLM.
type Generator struct {
	llm      llm.Completer
	registry *Registry
	banned   []string
	model    string
	logger   *slog.Logger
}

// NewGenerator creates a generator. banned words apply to every request in
// addition to the per-request disallowed list.
func NewGenerator(completer llm.Completer, registry *Registry, banned []string, model string, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{llm: completer, registry: registry, banned: banned, model: model, logger: logger}
}

// Registry returns the template registry.
func (g *Generator) Registry() *Registry {
	return g.registry
}

// Disallowed merges the global banned words with extra, deduplicated
// case-insensitively.
func (g *Generator) Disallowed(extra []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(g.banned)+len(extra))
	for _, list := range [][]string{g.banned, extra} {
		for _, w := range list {
			w = strings.TrimSpace(w)
			k := strings.ToLower(w)
			if w == "" {
				continue
			}
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, w)
		}
	}
	return out
}

// SplitTiers orders the selected keywords by search volume and splits them
// into the top 3, the next 5 and the rest. When nothing is selected every
// keyword is used.
func SplitTiers(kws []KeywordInput) (primary, secondary, tertiary []string) {
	selected := make([]KeywordInput, 0, len(kws))
	for _, kw := range kws {
		if kw.Selected && strings.TrimSpace(kw.Term) != "" {
			selected = append(selected, kw)
		}
	}
	if len(selected) == 0 {
		for _, kw := range kws {
			if strings.TrimSpace(kw.Term) != "" {
				selected = append(selected, kw)
			}
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].SearchVolume > selected[j].SearchVolume
	})
	for i, kw := range selected {
		term := strings.TrimSpace(kw.Term)
		switch {
		case i < primaryTierSize:
			primary = append(primary, term)
		case i < primaryTierSize+secondaryTierSize:
			secondary = append(secondary, term)
		default:
			tertiary = append(tertiary, term)
		}
	}
	return primary, secondary, tertiary
}

func (g *Generator) promptInput(p GenerateParams, t Template, current *Draft) PromptInput {
	primary, secondary, tertiary := SplitTiers(p.Keywords)
	return PromptInput{
		Template:    t,
		ProductName: p.ProductName,
		Brand:       p.Brand,
		Category:    p.Category,
		Marketplace: p.Marketplace,
		Features:    p.Features,
		Benefits:    p.Benefits,
		USPs:        p.USPs,
		Primary:     primary,
		Secondary:   secondary,
		Tertiary:    tertiary,
		Banned:      g.Disallowed(p.Disallowed),
		Current:     current,
	}
}

type generatedListing struct {
	Title         string   `json:"title"`
	Bullets       []string `json:"bullets"`
	Description   string   `json:"description"`
	BackendTerms  string   `json:"backendTerms"`
	BackendTerms2 string   `json:"backend_terms"`
}

// ParseListingJSON decodes a model response into a Draft. Code fences are
// stripped, bullets are trimmed and capped at BulletCount.
func ParseListingJSON(text string) (Draft, error) {
	var gen generatedListing
	if err := json.Unmarshal([]byte(llm.StripCodeFences(text)), &gen); err != nil {
		return Draft{}, fmt.Errorf("%w: model response is not valid listing JSON: %v", ErrGeneration, err)
	}
	d := Draft{
		Title:        strings.TrimSpace(gen.Title),
		Description:  strings.TrimSpace(gen.Description),
		BackendTerms: strings.TrimSpace(gen.BackendTerms),
		Bullets:      cleanBullets(gen.Bullets),
	}
	if d.BackendTerms == "" {
		d.BackendTerms = strings.TrimSpace(gen.BackendTerms2)
	}
	if d.Title == "" {
		return Draft{}, fmt.Errorf("%w: model response has no title", ErrGeneration)
	}
	if len(d.Bullets) == 0 {
		return Draft{}, fmt.Errorf("%w: model response has no bullet points", ErrGeneration)
	}
	return d, nil
}

func cleanBullets(in []string) []string {
	out := make([]string, 0, BulletCount)
	for _, b := range in {
		if b = strings.TrimSpace(b); b == "" {
			continue
		}
		out = append(out, b)
		if len(out) == BulletCount {
			break
		}
	}
	return out
}

// BannedHits returns, per field, the banned terms it contains.
func BannedHits(d Draft, banned []string) map[string][]string {
	hits := map[string][]string{}
	for _, f := range append(fields(d), field{name: "backend_terms", text: d.BackendTerms}) {
		lower := strings.ToLower(f.text)
		for _, w := range banned {
			w = strings.TrimSpace(w)
			if w != "" && strings.Contains(lower, strings.ToLower(w)) {
				hits[f.name] = append(hits[f.name], w)
			}
		}
	}
	return hits
}

// KeywordUsage counts case-insensitive occurrences of each keyword across
// title, bullets and description.
func KeywordUsage(d Draft, keywords []string) map[string]int {
	text := strings.ToLower(d.Title + "\n" + strings.Join(d.Bullets, "\n") + "\n" + d.Description)
	usage := make(map[string]int, len(keywords))
	for _, kw := range keywords {
		k := strings.ToLower(strings.TrimSpace(kw))
		if k == "" {
			continue
		}
		usage[kw] = strings.Count(text, k)
	}
	return usage
}

// Analyze validates d against t and, when fix is set, auto-fixes and
// re-validates it.
func (g *Generator) Analyze(d Draft, t Template, keywords, disallowed []string, fix bool) Result {
	limits := t.Limits()
	res := Result{Draft: d, TemplateID: t.ID, Keywords: keywords}
	res.Issues = ValidateListing(d, limits, keywords, disallowed)
	if fix {
		fixed := AutoFixListing(d, limits, disallowed)
		res.Fixed = true
		res.Draft = fixed
		res.Issues = ValidateListing(fixed, limits, keywords, disallowed)
	}
	res.BannedHits = BannedHits(res.Draft, disallowed)
	res.KeywordUsage = KeywordUsage(res.Draft, keywords)
	return res
}

func allTerms(primary, secondary, tertiary []string) []string {
	out := make([]string, 0, len(primary)+len(secondary)+len(tertiary))
	out = append(out, primary...)
	out = append(out, secondary...)
	return append(out, tertiary...)
}

// Generate produces a full listing draft.
func (g *Generator) Generate(ctx context.Context, p GenerateParams) (Result, error) {
	if strings.TrimSpace(p.ProductName) == "" {
		return Result{}, fmt.Errorf("%w: product name is required", ErrInvalidParams)
	}
	t := g.registry.Get(p.TemplateID)
	in := g.promptInput(p, t, nil)

	resp, err := g.llm.Complete(ctx, llm.ChatRequest{
		Purpose: "listing_generation",
		Model:   g.model,
		Messages: []llm.Message{
			{Role: "system", Content: BuildSystemPrompt(t, in.Banned)},
			{Role: "user", Content: BuildUserPrompt(in)},
		},
		Temperature: generationTemperature,
		MaxTokens:   generationMaxTokens,
		JSONMode:    true,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	d, err := ParseListingJSON(resp.Text)
	if err != nil {
		g.logger.Warn("listing response could not be parsed", "template", t.ID, "error", err)
		return Result{}, err
	}

	res := g.Analyze(d, t, allTerms(in.Primary, in.Secondary, in.Tertiary), in.Banned, p.AutoFix)
	res.LatencyMS = resp.LatencyMS
	g.logger.Info("listing generated",
		"template", t.ID,
		"issues", len(res.Issues),
		"fixed", res.Fixed,
		"latency_ms", resp.LatencyMS,
	)
	return res, nil
}

// RegenerateSection rewrites one section of current and returns the updated
// draft with fresh analysis.
func (g *Generator) RegenerateSection(ctx context.Context, p GenerateParams, section Section, current Draft) (Result, error) {
	t := g.registry.Get(p.TemplateID)
	cur := current.Clone()
	in := g.promptInput(p, t, &cur)

	resp, err := g.llm.Complete(ctx, llm.ChatRequest{
		Purpose: "section_regeneration",
		Model:   g.model,
		Messages: []llm.Message{
			{Role: "user", Content: BuildSectionPrompt(section, in)},
		},
		Temperature: generationTemperature,
		MaxTokens:   generationMaxTokens,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	text := llm.StripCodeFences(resp.Text)
	switch section {
	case SectionBullets:
		var bullets []string
		if err := json.Unmarshal([]byte(text), &bullets); err != nil {
			return Result{}, fmt.Errorf("%w: bullets response is not a JSON array: %v", ErrGeneration, err)
		}
		bullets = cleanBullets(bullets)
		if len(bullets) == 0 {
			return Result{}, fmt.Errorf("%w: bullets response is empty", ErrGeneration)
		}
		cur.Bullets = bullets
	case SectionTitle, SectionDescription:
		s := unquote(text)
		if s == "" {
			return Result{}, fmt.Errorf("%w: %s response is empty", ErrGeneration, section)
		}
		if section == SectionTitle {
			cur.Title = s
		} else {
			cur.Description = s
		}
	default:
		return Result{}, fmt.Errorf("%w: unknown section %q", ErrInvalidParams, section)
	}

	res := g.Analyze(cur, t, allTerms(in.Primary, in.Secondary, in.Tertiary), in.Banned, p.AutoFix)
	res.LatencyMS = resp.LatencyMS
	return res, nil
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `"`) {
		var out string
		if err := json.Unmarshal([]byte(s), &out); err == nil {
			return strings.TrimSpace(out)
		}
	}
	return s
}
