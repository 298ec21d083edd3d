// Package listing builds, validates and repairs AI-generated Amazon product
// listings.
package listing

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// DefaultTemplateID is used when a requested template does not exist.
const DefaultTemplateID = "standard"

// Keyword density levels.
const (
	DensityLow    = "low"
	DensityMedium = "medium"
	DensityHigh   = "high"
)

// Fallback character targets for templates that leave them unset.
const (
	DefaultTitleMin       = 80
	DefaultTitleMax       = 200
	DefaultBulletMin      = 150
	DefaultBulletMax      = 250
	DefaultDescriptionMin = 1000
	DefaultDescriptionMax = 2000

	// BulletCount is the number of bullet points in a listing.
	BulletCount = 5
)

// Limits are the maximum character counts enforced by the validator.
type Limits struct {
	Title       int `json:"title"`
	Bullet      int `json:"bullet"`
	Description int `json:"description"`
}

// DefaultLimits returns the fallback maximums.
func DefaultLimits() Limits {
	return Limits{Title: DefaultTitleMax, Bullet: DefaultBulletMax, Description: DefaultDescriptionMax}
}

// Template is a static listing style selected by id.
type Template struct {
	ID                string `json:"id" yaml:"id"`
	Name              string `json:"name" yaml:"name"`
	Description       string `json:"description" yaml:"description"`
	TitleFormat       string `json:"title_format" yaml:"title_format"`
	BulletFormat      string `json:"bullet_format" yaml:"bullet_format"`
	DescriptionFormat string `json:"description_format" yaml:"description_format"`
	KeywordDensity    string `json:"keyword_density" yaml:"keyword_density"`
	TitleMin          int    `json:"title_min" yaml:"title_min"`
	TitleMax          int    `json:"title_max" yaml:"title_max"`
	BulletMin         int    `json:"bullet_min" yaml:"bullet_min"`
	BulletMax         int    `json:"bullet_max" yaml:"bullet_max"`
	DescriptionMin    int    `json:"description_min" yaml:"description_min"`
	DescriptionMax    int    `json:"description_max" yaml:"description_max"`
	BuiltIn           bool   `json:"built_in" yaml:"-"`
}

// Target is a min/max character range.
type Target struct {
	Min int
	Max int
}

func target(min, max, defMin, defMax int) Target {
	if min <= 0 {
		min = defMin
	}
	if max <= 0 {
		max = defMax
	}
	if min > max {
		min = max
	}
	return Target{Min: min, Max: max}
}

// TitleTarget returns the title range with fallbacks applied.
func (t Template) TitleTarget() Target {
	return target(t.TitleMin, t.TitleMax, DefaultTitleMin, DefaultTitleMax)
}

// BulletTarget returns the per-bullet range with fallbacks applied.
func (t Template) BulletTarget() Target {
	return target(t.BulletMin, t.BulletMax, DefaultBulletMin, DefaultBulletMax)
}

// DescriptionTarget returns the description range with fallbacks applied.
func (t Template) DescriptionTarget() Target {
	return target(t.DescriptionMin, t.DescriptionMax, DefaultDescriptionMin, DefaultDescriptionMax)
}

// Limits returns the maximums the validator enforces for this template.
func (t Template) Limits() Limits {
	return Limits{
		Title:       t.TitleTarget().Max,
		Bullet:      t.BulletTarget().Max,
		Description: t.DescriptionTarget().Max,
	}
}

var templateIDRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,49}$`)

// Validate checks that a custom template is usable.
func (t Template) Validate() error {
	if !templateIDRe.MatchString(t.ID) {
		return fmt.Errorf("template id must be 1-50 lowercase letters, digits, hyphens or underscores")
	}
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("template name is required")
	}
	switch t.KeywordDensity {
	case "", DensityLow, DensityMedium, DensityHigh:
	default:
		return fmt.Errorf("keyword density must be low, medium or high")
	}
	for _, pair := range [][2]int{{t.TitleMin, t.TitleMax}, {t.BulletMin, t.BulletMax}, {t.DescriptionMin, t.DescriptionMax}} {
		if pair[0] < 0 || pair[1] < 0 {
			return fmt.Errorf("character targets must not be negative")
		}
		if pair[0] > 0 && pair[1] > 0 && pair[0] > pair[1] {
			return fmt.Errorf("minimum character target exceeds maximum")
		}
	}
	return nil
}

func builtInTemplates() []Template {
	return []Template{
		{
			ID:                "standard",
			Name:              "Standard",
			Description:       "Balanced listing for most categories",
			TitleFormat:       "{Brand} {Product Name} - {Key Feature} - {Size/Color/Quantity}",
			BulletFormat:      "Benefit headline: supporting detail that explains the feature and why it matters",
			DescriptionFormat: "Opening hook, product story, feature walkthrough, closing call to action",
			KeywordDensity:    DensityMedium,
			TitleMin:          80,
			TitleMax:          200,
			BulletMin:         150,
			BulletMax:         250,
			DescriptionMin:    1000,
			DescriptionMax:    2000,
			BuiltIn:           true,
		},
		{
			ID:                "premium",
			Name:              "Premium",
			Description:       "Story-driven copy for premium and gift products",
			TitleFormat:       "{Brand} {Product Name} | {Signature Benefit} | {Material or Craft} | {Variant}",
			BulletFormat:      "Evocative headline followed by a concrete, sensory detail",
			DescriptionFormat: "Brand story, craftsmanship, use scenarios, guarantee",
			KeywordDensity:    DensityLow,
			TitleMin:          100,
			TitleMax:          200,
			BulletMin:         180,
			BulletMax:         250,
			DescriptionMin:    1500,
			DescriptionMax:    2000,
			BuiltIn:           true,
		},
		{
			ID:                "minimal",
			Name:              "Minimal",
			Description:       "Short, scannable copy for commodity products",
			TitleFormat:       "{Brand} {Product Name} {Key Spec}",
			BulletFormat:      "Single plain sentence per feature",
			DescriptionFormat: "Two short paragraphs: what it is, what is included",
			KeywordDensity:    DensityHigh,
			TitleMin:          60,
			TitleMax:          150,
			BulletMin:         100,
			BulletMax:         200,
			DescriptionMin:    500,
			DescriptionMax:    1000,
			BuiltIn:           true,
		},
	}
}

// Registry holds the built-in templates plus any custom ones. It is safe
// for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// NewRegistry returns a registry seeded with the built-in templates and the
// given extras. Extras cannot replace built-ins.
func NewRegistry(extra ...Template) (*Registry, error) {
	r := &Registry{templates: map[string]Template{}}
	for _, t := range builtInTemplates() {
		r.templates[t.ID] = t
	}
	for _, t := range extra {
		if err := r.Add(t); err != nil {
			return nil, fmt.Errorf("template %q: %w", t.ID, err)
		}
	}
	return r, nil
}

// ErrBuiltInTemplate is returned when a custom template reuses a built-in id.
var ErrBuiltInTemplate = errors.New("template id is reserved by a built-in template")

// Add registers or replaces a custom template.
func (r *Registry) Add(t Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.templates[t.ID]; ok && existing.BuiltIn {
		return ErrBuiltInTemplate
	}
	if t.KeywordDensity == "" {
		t.KeywordDensity = DensityMedium
	}
	t.BuiltIn = false
	r.templates[t.ID] = t
	return nil
}

// Lookup returns the template with id, if registered.
func (r *Registry) Lookup(id string) (Template, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[strings.TrimSpace(id)]
	return t, ok
}

// Get returns the template with id, falling back to the default template.
func (r *Registry) Get(id string) Template {
	if t, ok := r.Lookup(id); ok {
		return t
	}
	t, _ := r.Lookup(DefaultTemplateID)
	return t
}

// List returns built-in templates first, then custom ones, each sorted by id.
func (r *Registry) List() []Template {
	r.mu.RLock()
	out := make([]Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].BuiltIn != out[j].BuiltIn {
			return out[i].BuiltIn
		}
		return out[i].ID < out[j].ID
	})
	return out
}
