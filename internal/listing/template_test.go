package listing

import (
	"errors"
	"testing"
)

func TestRegistryGetFallsBackToDefault(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	if got := r.Get("premium"); got.ID != "premium" {
		t.Errorf("expected premium, got %q", got.ID)
	}
	if got := r.Get("does-not-exist"); got.ID != DefaultTemplateID {
		t.Errorf("expected fallback to %q, got %q", DefaultTemplateID, got.ID)
	}
	if got := r.Get(""); got.ID != DefaultTemplateID {
		t.Errorf("expected fallback for empty id, got %q", got.ID)
	}
}

func TestRegistryAdd(t *testing.T) {
	r, err := NewRegistry(Template{ID: "gift", Name: "Gift", TitleMax: 150})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	gift, ok := r.Lookup("gift")
	if !ok || gift.BuiltIn || gift.KeywordDensity != DensityMedium {
		t.Fatalf("unexpected custom template %+v", gift)
	}
	if lim := gift.Limits(); lim.Title != 150 || lim.Bullet != DefaultBulletMax || lim.Description != DefaultDescriptionMax {
		t.Errorf("unexpected limits %+v", lim)
	}

	if err := r.Add(Template{ID: "standard", Name: "Mine"}); !errors.Is(err, ErrBuiltInTemplate) {
		t.Errorf("expected ErrBuiltInTemplate, got %v", err)
	}

	list := r.List()
	if len(list) != 4 {
		t.Fatalf("expected 4 templates, got %d", len(list))
	}
	if !list[0].BuiltIn || list[3].ID != "gift" {
		t.Errorf("expected built-ins first, got %v", []string{list[0].ID, list[1].ID, list[2].ID, list[3].ID})
	}
}

func TestTemplateValidate(t *testing.T) {
	tests := []struct {
		name    string
		tmpl    Template
		wantErr bool
	}{
		{"valid", Template{ID: "my_tpl-1", Name: "Mine"}, false},
		{"bad id", Template{ID: "My Template", Name: "Mine"}, true},
		{"empty id", Template{Name: "Mine"}, true},
		{"missing name", Template{ID: "x"}, true},
		{"bad density", Template{ID: "x", Name: "X", KeywordDensity: "extreme"}, true},
		{"min over max", Template{ID: "x", Name: "X", TitleMin: 300, TitleMax: 200}, true},
		{"negative", Template{ID: "x", Name: "X", BulletMax: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.tmpl.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTemplateTargetsFallback(t *testing.T) {
	var tmpl Template
	if got := tmpl.TitleTarget(); got.Min != DefaultTitleMin || got.Max != DefaultTitleMax {
		t.Errorf("unexpected title target %+v", got)
	}
	if got := tmpl.DescriptionTarget(); got.Min != DefaultDescriptionMin || got.Max != DefaultDescriptionMax {
		t.Errorf("unexpected description target %+v", got)
	}
	tmpl.BulletMax = 100
	if got := tmpl.BulletTarget(); got.Min != 100 || got.Max != 100 {
		t.Errorf("min should be clamped to max, got %+v", got)
	}
}

func TestBuiltInFormatsPassPolicyChecks(t *testing.T) {
	for _, tmpl := range builtInTemplates() {
		d := Draft{Title: tmpl.TitleFormat, Bullets: []string{tmpl.BulletFormat}, Description: tmpl.DescriptionFormat}
		for _, is := range ValidateListing(d, DefaultLimits(), nil, nil) {
			if is.Type == IssuePolicy {
				t.Errorf("template %s format trips policy check: %s", tmpl.ID, is.Message)
			}
		}
	}
}
