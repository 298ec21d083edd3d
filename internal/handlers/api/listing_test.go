package api

import (
	"errors"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v3"

	"sellerdesk/internal/cache"
	"sellerdesk/internal/listing"
	"sellerdesk/internal/middleware"
	"sellerdesk/internal/models"
)

const generatedListing = `{
  "title": "Acme Cork Yoga Mat, Non-Slip Exercise Mat for Home Workouts",
  "bullets": ["Grippy cork surface", "Cures sore knees", "Light", "Easy to clean", "Rolls up small"],
  "description": "A yoga mat made from natural cork.",
  "backendTerms": "pilates mat"
}`

type listingFixture struct {
	app   *fiber.App
	store *fakeStore
	mem   *memStore
	llm   *fakeCompleter
}

func newListingFixture(t *testing.T) *listingFixture {
	t.Helper()
	registry, err := listing.NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	fc := &fakeCompleter{text: generatedListing}
	gen := listing.NewGenerator(fc, registry, []string{"cure"}, "test-model", nil)
	store := newFakeStore()
	mem := newMemStore()
	h := NewListingHandler(gen, store, store, cache.New(mem, nil), nil)

	app := fiber.New()
	auth := middleware.NewAuthMiddleware(nil)
	g := app.Group("/api/listing", auth.RequireAuth)
	g.Post("/generate", h.Generate)
	g.Post("/regenerate", h.Regenerate)
	g.Post("/validate", h.Validate)
	g.Post("/finalize", h.Finalize)
	g.Get("/draft", h.ListDrafts)
	g.Get("/draft/:id", h.GetDraft)
	g.Post("/draft", h.CreateDraft)
	g.Patch("/draft/:id", h.UpdateDraft)
	g.Get("/templates", h.ListTemplates)
	g.Post("/templates", h.CreateTemplate)

	return &listingFixture{app: app, store: store, mem: mem, llm: fc}
}

func TestGenerateStoresAndCaches(t *testing.T) {
	f := newListingFixture(t)
	body := map[string]any{
		"product_name": "Cork Yoga Mat",
		"keywords":     []map[string]any{{"term": "yoga mat", "search_volume": 100, "selected": true}},
	}

	status, env := doJSON(t, f.app, "POST", "/api/listing/generate", body)
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d %+v", status, env)
	}
	resp := decode[generateResponse](t, env.Data)
	if resp.Draft == nil || resp.Draft.Title == "" || resp.Cached {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Draft.Keywords[0] != "yoga mat" || resp.Draft.Marketplace != "US" {
		t.Errorf("unexpected stored draft %+v", resp.Draft)
	}
	if len(resp.Result.BannedHits["bullets[1]"]) != 1 {
		t.Errorf("expected banned hit on bullets[1], got %v", resp.Result.BannedHits)
	}
	if len(f.store.drafts) != 1 || f.mem.len() != 1 {
		t.Errorf("expected one draft and one cache entry, got %d and %d", len(f.store.drafts), f.mem.len())
	}

	_, env = doJSON(t, f.app, "POST", "/api/listing/generate", body)
	again := decode[generateResponse](t, env.Data)
	if !again.Cached || f.llm.calls != 1 {
		t.Errorf("expected cached response without a second LLM call, cached=%v calls=%d", again.Cached, f.llm.calls)
	}
}

func TestDraftEditsDropCachedGeneration(t *testing.T) {
	f := newListingFixture(t)
	body := map[string]any{"product_name": "Cork Yoga Mat"}

	_, env := doJSON(t, f.app, "POST", "/api/listing/generate", body)
	first := decode[generateResponse](t, env.Data)
	if f.mem.len() != 1 {
		t.Fatalf("expected one cache entry, got %d", f.mem.len())
	}

	status, _ := doJSON(t, f.app, "PATCH", "/api/listing/draft/"+first.Draft.ID.String(), map[string]any{"title": "Edited title"})
	if status != fiber.StatusOK {
		t.Fatalf("expected 200 from update, got %d", status)
	}
	if f.mem.len() != 0 {
		t.Fatalf("update should drop cached generations, %d left", f.mem.len())
	}

	_, env = doJSON(t, f.app, "POST", "/api/listing/generate", body)
	again := decode[generateResponse](t, env.Data)
	if again.Cached || again.Draft.ID == first.Draft.ID || f.llm.calls != 2 {
		t.Errorf("expected a fresh generation, cached=%v same id=%v calls=%d", again.Cached, again.Draft.ID == first.Draft.ID, f.llm.calls)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   map[string]any
		llmErr error
		text   string
		want   int
	}{
		{"missing product", map[string]any{}, nil, generatedListing, fiber.StatusBadRequest},
		{"bad marketplace", map[string]any{"product_name": "Mat", "marketplace": "XX"}, nil, generatedListing, fiber.StatusBadRequest},
		{"llm failure", map[string]any{"product_name": "Mat"}, errors.New("timeout"), "", fiber.StatusBadGateway},
		{"unparseable output", map[string]any{"product_name": "Mat"}, nil, "sorry, I cannot help", fiber.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newListingFixture(t)
			f.llm.err = tt.llmErr
			f.llm.text = tt.text
			status, env := doJSON(t, f.app, "POST", "/api/listing/generate", tt.body)
			if status != tt.want || env.Status != "error" {
				t.Errorf("expected %d, got %d %+v", tt.want, status, env)
			}
		})
	}
}

func TestValidateEndpoint(t *testing.T) {
	f := newListingFixture(t)
	body := map[string]any{
		"draft": map[string]any{
			"title":   strings.Repeat("word ", 50),
			"bullets": []string{"This will cure everything"},
		},
		"auto_fix": false,
	}
	_, env := doJSON(t, f.app, "POST", "/api/listing/validate", body)
	out := decode[struct {
		Result    listing.Result `json:"result"`
		HasErrors bool           `json:"has_errors"`
	}](t, env.Data)
	if !out.HasErrors {
		t.Errorf("expected errors, got %+v", out.Result.Issues)
	}

	body["auto_fix"] = true
	_, env = doJSON(t, f.app, "POST", "/api/listing/validate", body)
	fixed := decode[struct {
		Result    listing.Result `json:"result"`
		HasErrors bool           `json:"has_errors"`
	}](t, env.Data)
	if fixed.HasErrors || !fixed.Result.Fixed || len([]rune(fixed.Result.Draft.Title)) > 200 {
		t.Errorf("expected auto-fix to clear errors, got %+v", fixed.Result)
	}
}

func TestDraftCRUD(t *testing.T) {
	f := newListingFixture(t)

	status, _ := doJSON(t, f.app, "POST", "/api/listing/draft", map[string]any{"title": "No product"})
	if status != fiber.StatusBadRequest {
		t.Errorf("expected 400 without product name, got %d", status)
	}

	status, env := doJSON(t, f.app, "POST", "/api/listing/draft", map[string]any{
		"product_name": "Cork Mat",
		"title":        "Cork Mat",
		"bullets":      []string{"Cures back pain"},
		"template_id":  "does-not-exist",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d %+v", status, env)
	}
	created := decode[models.ListingDraft](t, env.Data)
	if created.TemplateID != listing.DefaultTemplateID || !listing.HasErrors(created.Issues) {
		t.Errorf("unexpected created draft %+v", created)
	}

	status, env = doJSON(t, f.app, "PATCH", "/api/listing/draft/"+created.ID.String(), map[string]any{
		"bullets": []string{"Soft on the knees"},
	})
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d %+v", status, env)
	}
	updated := decode[models.ListingDraft](t, env.Data)
	if updated.Title != "Cork Mat" || listing.HasErrors(updated.Issues) {
		t.Errorf("unexpected updated draft %+v", updated)
	}

	status, env = doJSON(t, f.app, "GET", "/api/listing/draft/"+created.ID.String(), nil)
	if status != fiber.StatusOK || decode[models.ListingDraft](t, env.Data).Bullets[0] != "Soft on the knees" {
		t.Errorf("unexpected get %d %+v", status, env)
	}

	status, env = doJSON(t, f.app, "GET", "/api/listing/draft?status=draft", nil)
	if status != fiber.StatusOK || len(decode[[]models.ListingDraft](t, env.Data)) != 1 {
		t.Errorf("unexpected list %d %+v", status, env)
	}

	if status, _ := doJSON(t, f.app, "GET", "/api/listing/draft?status=bogus", nil); status != fiber.StatusBadRequest {
		t.Errorf("expected 400 for bad status, got %d", status)
	}
	if status, _ := doJSON(t, f.app, "GET", "/api/listing/draft/not-a-uuid", nil); status != fiber.StatusBadRequest {
		t.Errorf("expected 400 for bad id, got %d", status)
	}
	if status, _ := doJSON(t, f.app, "GET", "/api/listing/draft/00000000-0000-0000-0000-000000000001", nil); status != fiber.StatusNotFound {
		t.Errorf("expected 404, got %d", status)
	}
}

func TestFinalize(t *testing.T) {
	f := newListingFixture(t)
	_, env := doJSON(t, f.app, "POST", "/api/listing/generate", map[string]any{"product_name": "Cork Yoga Mat"})
	draft := decode[generateResponse](t, env.Data).Draft
	if f.mem.len() != 1 {
		t.Fatalf("expected generated listing to be cached")
	}

	status, env := doJSON(t, f.app, "POST", "/api/listing/finalize", map[string]any{"draft_id": draft.ID.String()})
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d %+v", status, env)
	}
	final := decode[models.ListingDraft](t, env.Data)
	if !final.IsFinal() || strings.Contains(strings.ToLower(final.Bullets[1]), "cure") {
		t.Errorf("expected final auto-fixed draft, got %+v", final)
	}
	if f.mem.len() != 0 {
		t.Errorf("finalize should invalidate cached drafts, %d left", f.mem.len())
	}

	status, _ = doJSON(t, f.app, "POST", "/api/listing/finalize", map[string]any{"draft_id": draft.ID.String()})
	if status != fiber.StatusConflict {
		t.Errorf("expected 409 for a final draft, got %d", status)
	}
	status, _ = doJSON(t, f.app, "PATCH", "/api/listing/draft/"+draft.ID.String(), map[string]any{"title": "x"})
	if status != fiber.StatusConflict {
		t.Errorf("expected 409 when editing a final draft, got %d", status)
	}
}

func TestFinalizeBlocked(t *testing.T) {
	f := newListingFixture(t)
	_, env := doJSON(t, f.app, "POST", "/api/listing/draft", map[string]any{
		"product_name": "Cork Mat",
		"title":        "Cork Mat",
	})
	draft := decode[models.ListingDraft](t, env.Data)

	status, env := doJSON(t, f.app, "POST", "/api/listing/finalize", map[string]any{"draft_id": draft.ID.String()})
	if status != fiber.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d %+v", status, env)
	}
	res := decode[listing.Result](t, env.Data)
	if !listing.HasErrors(res.Issues) {
		t.Errorf("expected blocking issues in response, got %+v", res.Issues)
	}
	if f.store.drafts[draft.ID].IsFinal() {
		t.Error("blocked draft must not be finalized")
	}
}

func TestRegenerate(t *testing.T) {
	f := newListingFixture(t)
	_, env := doJSON(t, f.app, "POST", "/api/listing/generate", map[string]any{"product_name": "Cork Yoga Mat"})
	draft := decode[generateResponse](t, env.Data).Draft

	f.llm.text = `"Acme Cork Yoga Mat, Extra Grip"`
	status, env := doJSON(t, f.app, "POST", "/api/listing/regenerate", map[string]any{
		"draft_id": draft.ID.String(),
		"section":  "title",
	})
	if status != fiber.StatusOK {
		t.Fatalf("expected 200, got %d %+v", status, env)
	}
	if got := f.store.drafts[draft.ID].Title; got != "Acme Cork Yoga Mat, Extra Grip" {
		t.Errorf("title not updated, got %q", got)
	}

	status, _ = doJSON(t, f.app, "POST", "/api/listing/regenerate", map[string]any{
		"draft_id": draft.ID.String(),
		"section":  "footer",
	})
	if status != fiber.StatusBadRequest {
		t.Errorf("expected 400 for unknown section, got %d", status)
	}
}

func TestTemplatesEndpoints(t *testing.T) {
	f := newListingFixture(t)

	status, env := doJSON(t, f.app, "POST", "/api/listing/templates", map[string]any{
		"id":              "gift",
		"name":            "Gift",
		"keyword_density": "low",
		"title_max":       150,
	})
	if status != fiber.StatusCreated {
		t.Fatalf("expected 201, got %d %+v", status, env)
	}

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"duplicate", map[string]any{"id": "gift", "name": "Gift"}, fiber.StatusConflict},
		{"built-in id", map[string]any{"id": "standard", "name": "Mine"}, fiber.StatusConflict},
		{"invalid id", map[string]any{"id": "Bad Id", "name": "Bad"}, fiber.StatusBadRequest},
		{"bad density", map[string]any{"id": "dense", "name": "Dense", "keyword_density": "extreme"}, fiber.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if status, env := doJSON(t, f.app, "POST", "/api/listing/templates", tt.body); status != tt.want {
				t.Errorf("expected %d, got %d %+v", tt.want, status, env)
			}
		})
	}

	_, env = doJSON(t, f.app, "GET", "/api/listing/templates", nil)
	list := decode[[]listing.Template](t, env.Data)
	if len(list) != 4 || list[3].ID != "gift" || !list[0].BuiltIn {
		t.Errorf("unexpected templates %+v", list)
	}
	if len(f.store.templates) != 1 {
		t.Errorf("expected template to be persisted, got %d", len(f.store.templates))
	}
}
