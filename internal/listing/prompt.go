package listing

import (
	"fmt"
	"strings"
)

// Section names a regenerable part of a listing.
type Section string

const (
	SectionTitle       Section = "title"
	SectionBullets     Section = "bullets"
	SectionDescription Section = "description"
)

// ParseSection validates a section name.
func ParseSection(s string) (Section, error) {
	switch Section(strings.ToLower(strings.TrimSpace(s))) {
	case SectionTitle:
		return SectionTitle, nil
	case SectionBullets:
		return SectionBullets, nil
	case SectionDescription:
		return SectionDescription, nil
	}
	return "", fmt.Errorf("unknown section %q: must be title, bullets or description", s)
}

// PromptInput carries everything the prompt builders need.
type PromptInput struct {
	Template    Template
	ProductName string
	Brand       string
	Category    string
	Marketplace string
	Features    []string
	Benefits    []string
	USPs        []string
	Primary     []string
	Secondary   []string
	Tertiary    []string
	Banned      []string
	Current     *Draft
}

var densityGuidance = map[string]string{
	DensityLow:    "Use each keyword at most once. Readability comes first.",
	DensityMedium: "Use every primary keyword once and work secondary keywords in where they read naturally. Never repeat a keyword more than twice.",
	DensityHigh:   "Cover as many keywords as possible while keeping sentences grammatical. Never repeat a keyword more than twice.",
}

func writeBanned(b *strings.Builder, banned []string) {
	clean := make([]string, 0, len(banned))
	for _, w := range banned {
		if w = strings.TrimSpace(w); w != "" {
			clean = append(clean, w)
		}
	}
	b.WriteString("\nBanned words (never use any of these, in any case or form):\n")
	if len(clean) == 0 {
		b.WriteString("- (none)\n")
		return
	}
	for _, w := range clean {
		b.WriteString("- ")
		b.WriteString(w)
		b.WriteString("\n")
	}
}

// BuildSystemPrompt returns the system message for a full listing generation.
func BuildSystemPrompt(t Template, banned []string) string {
	var b strings.Builder
	b.WriteString("You are an expert Amazon listing copywriter. You write accurate, compliant, conversion-focused product copy.\n")
	fmt.Fprintf(&b, "\nTemplate: %s", t.Name)
	if t.Description != "" {
		fmt.Fprintf(&b, " (%s)", t.Description)
	}
	b.WriteString("\n")
	density := t.KeywordDensity
	if _, ok := densityGuidance[density]; !ok {
		density = DensityMedium
	}
	fmt.Fprintf(&b, "Keyword density: %s. %s\n", density, densityGuidance[density])

	b.WriteString("\nHard rules:\n")
	b.WriteString("1) Do not make medical, health or treatment claims and do not reference the FDA.\n")
	b.WriteString("2) Do not write words in all capital letters.\n")
	b.WriteString("3) Do not mention competitors, prices, shipping, or time-limited offers.\n")
	b.WriteString("4) Respect every character limit exactly.\n")
	writeBanned(&b, banned)

	b.WriteString("\nOutput format: return only a raw JSON object, no markdown, no code fences, no commentary:\n")
	b.WriteString(`{"title": string, "bullets": [5 strings], "description": string, "backendTerms": string}`)
	b.WriteString("\n")
	return b.String()
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(label)
	b.WriteString(":\n")
	for _, it := range items {
		if it = strings.TrimSpace(it); it == "" {
			continue
		}
		b.WriteString("- ")
		b.WriteString(it)
		b.WriteString("\n")
	}
}

func writeProduct(b *strings.Builder, in PromptInput) {
	b.WriteString("Product:\n")
	fmt.Fprintf(b, "name: %s\n", strings.TrimSpace(in.ProductName))
	if in.Brand != "" {
		fmt.Fprintf(b, "brand: %s\n", in.Brand)
	}
	if in.Category != "" {
		fmt.Fprintf(b, "category: %s\n", in.Category)
	}
	if in.Marketplace != "" {
		fmt.Fprintf(b, "marketplace: %s\n", in.Marketplace)
	}
	writeList(b, "features", in.Features)
	writeList(b, "benefits", in.Benefits)
	writeList(b, "unique selling points", in.USPs)

	b.WriteString("\nKeywords:\n")
	fmt.Fprintf(b, "primary (must appear in the title): %s\n", joinOrNone(in.Primary))
	fmt.Fprintf(b, "secondary (use in bullets): %s\n", joinOrNone(in.Secondary))
	fmt.Fprintf(b, "tertiary (use in description and backend terms): %s\n", joinOrNone(in.Tertiary))
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "(none)"
	}
	return strings.Join(items, ", ")
}

func sectionBlock(section Section, t Template) string {
	switch section {
	case SectionTitle:
		tt := t.TitleTarget()
		return fmt.Sprintf("TITLE\n- Between %d and %d characters.\n- Format: %s\n- Lead with the most important primary keyword.\n", tt.Min, tt.Max, t.TitleFormat)
	case SectionBullets:
		bt := t.BulletTarget()
		return fmt.Sprintf("BULLETS\n- Exactly %d bullet points.\n- Each between %d and %d characters.\n- Format: %s\n- No numbering or symbol prefixes.\n", BulletCount, bt.Min, bt.Max, t.BulletFormat)
	case SectionDescription:
		dt := t.DescriptionTarget()
		return fmt.Sprintf("DESCRIPTION\n- Between %d and %d characters.\n- Structure: %s\n- Keep sentences under 40 words.\n", dt.Min, dt.Max, t.DescriptionFormat)
	}
	return ""
}

// BuildUserPrompt returns the user message for a full listing generation.
func BuildUserPrompt(in PromptInput) string {
	var b strings.Builder
	writeProduct(&b, in)
	b.WriteString("\nWrite the listing sections:\n\n")
	for _, s := range []Section{SectionTitle, SectionBullets, SectionDescription} {
		b.WriteString(sectionBlock(s, in.Template))
		b.WriteString("\n")
	}
	b.WriteString("BACKEND TERMS\n- Up to 249 bytes of space-separated search terms not already used above.\n")
	writeBanned(&b, in.Banned)
	b.WriteString("\nReturn only the raw JSON object described in the system message. No markdown.\n")
	return b.String()
}

// BuildSectionPrompt returns a standalone prompt that regenerates one section.
func BuildSectionPrompt(section Section, in PromptInput) string {
	var b strings.Builder
	b.WriteString("You are an expert Amazon listing copywriter. Rewrite one section of an existing listing.\n\n")
	writeProduct(&b, in)
	if in.Current != nil {
		b.WriteString("\nCurrent listing:\n")
		fmt.Fprintf(&b, "title: %s\n", in.Current.Title)
		for i, bl := range in.Current.Bullets {
			fmt.Fprintf(&b, "bullet %d: %s\n", i+1, bl)
		}
		if in.Current.Description != "" {
			fmt.Fprintf(&b, "description: %s\n", in.Current.Description)
		}
	}
	b.WriteString("\n")
	b.WriteString(sectionBlock(section, in.Template))
	writeBanned(&b, in.Banned)

	b.WriteString("\nOutput format: ")
	if section == SectionBullets {
		fmt.Fprintf(&b, "return only a raw JSON array of exactly %d strings. No markdown, no code fences, no commentary.\n", BulletCount)
	} else {
		fmt.Fprintf(&b, "return only the new %s as a plain string. No markdown, no quotes, no labels, no commentary.\n", section)
	}
	return b.String()
}
