package api

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"sellerdesk/internal/cache"
	"sellerdesk/internal/db"
	"sellerdesk/internal/listing"
	"sellerdesk/internal/middleware"
	"sellerdesk/internal/models"
	"sellerdesk/internal/validation"
)

const (
	listingCacheTTL     = time.Hour
	listingCachePattern = "listing:draft:*"
)

// DraftStore persists listing drafts.
type DraftStore interface {
	CreateDraft(ctx context.Context, d *models.ListingDraft) error
	GetDraft(ctx context.Context, owner string, id uuid.UUID) (*models.ListingDraft, error)
	ListDrafts(ctx context.Context, owner, status string, limit int) ([]models.ListingDraft, error)
	UpdateDraft(ctx context.Context, d *models.ListingDraft) error
	FinalizeDraft(ctx context.Context, d *models.ListingDraft) error
}

// TemplateStore persists custom listing templates.
type TemplateStore interface {
	CreateTemplate(ctx context.Context, t listing.Template, createdBy string) error
}

// ListingHandler handles listing generation, validation and drafts via JSON API.
type ListingHandler struct {
	gen       *listing.Generator
	drafts    DraftStore
	templates TemplateStore
	cache     *cache.Cache
	logger    *slog.Logger
}

// NewListingHandler creates a new listing handler.
func NewListingHandler(gen *listing.Generator, drafts DraftStore, templates TemplateStore, c *cache.Cache, logger *slog.Logger) *ListingHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListingHandler{gen: gen, drafts: drafts, templates: templates, cache: c, logger: logger}
}

type generateResponse struct {
	Draft  *models.ListingDraft `json:"draft"`
	Result listing.Result       `json:"result"`
	Cached bool                 `json:"cached"`
}

func listingCacheKey(owner string, p listing.GenerateParams) string {
	raw, _ := json.Marshal(p)
	sum := sha256.Sum256(append([]byte(owner+"\x00"), raw...))
	return "listing:draft:" + hex.EncodeToString(sum[:])
}

// invalidateGenerated drops cached generate responses. They embed the stored
// draft, so any write to a draft makes them stale.
func (h *ListingHandler) invalidateGenerated(ctx context.Context) int {
	return h.cache.InvalidatePattern(ctx, listingCachePattern)
}

// draftError maps store errors to HTTP responses.
func draftError(c fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, db.ErrDraftNotFound):
		return jsonError(c, fiber.StatusNotFound, "draft not found")
	case errors.Is(err, db.ErrDraftFinalized):
		return jsonError(c, fiber.StatusConflict, "draft is already finalized")
	default:
		return jsonError(c, fiber.StatusInternalServerError, fallback)
	}
}

func generationError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, listing.ErrInvalidParams):
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, listing.ErrGeneration):
		return jsonError(c, fiber.StatusBadGateway, err.Error())
	default:
		return jsonError(c, fiber.StatusInternalServerError, "failed to generate listing")
	}
}

func termsOf(kws []listing.KeywordInput) []string {
	out := make([]string, 0, len(kws))
	for _, kw := range kws {
		if t := strings.TrimSpace(kw.Term); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Generate produces a listing with the LLM and stores it as a draft.
func (h *ListingHandler) Generate(c fiber.Ctx) error {
	var p listing.GenerateParams
	if err := json.Unmarshal(c.Body(), &p); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	mp, ok := validation.NormalizeMarketplace(p.Marketplace)
	if !ok {
		return jsonError(c, fiber.StatusBadRequest, "unsupported marketplace")
	}
	p.Marketplace = mp

	owner := middleware.Owner(c)
	key := listingCacheKey(owner, p)
	var cached generateResponse
	if h.cache.Get(c.Context(), key, &cached) == cache.Hit {
		cached.Cached = true
		return jsonSuccess(c, cached)
	}

	res, err := h.gen.Generate(c.Context(), p)
	if err != nil {
		h.logger.Warn("listing generation failed", "owner", owner, "error", err)
		return generationError(c, err)
	}

	resp := generateResponse{Result: res}
	if h.drafts != nil {
		draft := &models.ListingDraft{
			Owner:       owner,
			ProductName: strings.TrimSpace(p.ProductName),
			Category:    p.Category,
			Marketplace: p.Marketplace,
			TemplateID:  res.TemplateID,
			Keywords:    termsOf(p.Keywords),
			Issues:      res.Issues,
		}
		draft.SetDraft(res.Draft)
		if err := h.drafts.CreateDraft(c.Context(), draft); err != nil {
			h.logger.Error("failed to store draft", "owner", owner, "error", err)
			return jsonError(c, fiber.StatusInternalServerError, "failed to store draft")
		}
		resp.Draft = draft
	}

	h.cache.Set(c.Context(), key, resp, listingCacheTTL)
	return jsonSuccess(c, resp)
}

// Regenerate rewrites one section of a stored draft.
func (h *ListingHandler) Regenerate(c fiber.Ctx) error {
	var body struct {
		DraftID string                 `json:"draft_id"`
		Section string                 `json:"section"`
		Params  listing.GenerateParams `json:"params"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	section, err := listing.ParseSection(body.Section)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}
	id, err := uuid.Parse(body.DraftID)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid draft id")
	}
	if h.drafts == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "draft storage is not configured")
	}

	draft, err := h.drafts.GetDraft(c.Context(), middleware.Owner(c), id)
	if err != nil {
		return draftError(c, err, "failed to fetch draft")
	}
	if draft.IsFinal() {
		return jsonError(c, fiber.StatusConflict, "draft is already finalized")
	}

	p := body.Params
	if p.ProductName == "" {
		p.ProductName = draft.ProductName
	}
	if p.Category == "" {
		p.Category = draft.Category
	}
	if p.Marketplace == "" {
		p.Marketplace = draft.Marketplace
	}
	if p.TemplateID == "" {
		p.TemplateID = draft.TemplateID
	}
	if len(p.Keywords) == 0 {
		for _, kw := range draft.Keywords {
			p.Keywords = append(p.Keywords, listing.KeywordInput{Term: kw, Selected: true})
		}
	}

	res, err := h.gen.RegenerateSection(c.Context(), p, section, draft.Draft())
	if err != nil {
		return generationError(c, err)
	}

	draft.SetDraft(res.Draft)
	draft.Issues = res.Issues
	if err := h.drafts.UpdateDraft(c.Context(), draft); err != nil {
		return draftError(c, err, "failed to update draft")
	}
	h.invalidateGenerated(c.Context())
	return jsonSuccess(c, generateResponse{Draft: draft, Result: res})
}

// Validate checks a posted draft and optionally auto-fixes it.
func (h *ListingHandler) Validate(c fiber.Ctx) error {
	var body struct {
		Draft      listing.Draft `json:"draft"`
		TemplateID string        `json:"template_id"`
		Keywords   []string      `json:"keywords"`
		Disallowed []string      `json:"disallowed"`
		AutoFix    bool          `json:"auto_fix"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	t := h.gen.Registry().Get(body.TemplateID)
	res := h.gen.Analyze(body.Draft, t, body.Keywords, h.gen.Disallowed(body.Disallowed), body.AutoFix)
	return jsonSuccess(c, fiber.Map{
		"result":     res,
		"has_errors": listing.HasErrors(res.Issues),
	})
}

// ListDrafts lists the caller's drafts, optionally filtered by status.
func (h *ListingHandler) ListDrafts(c fiber.Ctx) error {
	if h.drafts == nil {
		return jsonSuccess(c, []models.ListingDraft{})
	}
	status := c.Query("status")
	if status != "" && status != models.DraftStatusDraft && status != models.DraftStatusFinal {
		return jsonError(c, fiber.StatusBadRequest, "invalid status")
	}
	drafts, err := h.drafts.ListDrafts(c.Context(), middleware.Owner(c), status, queryInt(c, "limit", 50))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch drafts")
	}
	return jsonSuccess(c, drafts)
}

// GetDraft returns one of the caller's drafts.
func (h *ListingHandler) GetDraft(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid draft id")
	}
	if h.drafts == nil {
		return jsonError(c, fiber.StatusNotFound, "draft not found")
	}
	draft, err := h.drafts.GetDraft(c.Context(), middleware.Owner(c), id)
	if err != nil {
		return draftError(c, err, "failed to fetch draft")
	}
	return jsonSuccess(c, draft)
}

type draftBody struct {
	ProductName  *string  `json:"product_name"`
	Category     *string  `json:"category"`
	Marketplace  *string  `json:"marketplace"`
	TemplateID   *string  `json:"template_id"`
	Title        *string  `json:"title"`
	Bullets      []string `json:"bullets"`
	Description  *string  `json:"description"`
	BackendTerms *string  `json:"backend_terms"`
	Keywords     []string `json:"keywords"`
	Disallowed   []string `json:"disallowed"`
}

// apply copies the fields present in b onto d.
func (b draftBody) apply(d *models.ListingDraft) (bool, string) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&d.ProductName, b.ProductName)
	set(&d.Category, b.Category)
	set(&d.TemplateID, b.TemplateID)
	set(&d.Title, b.Title)
	set(&d.Description, b.Description)
	set(&d.BackendTerms, b.BackendTerms)
	if b.Marketplace != nil {
		mp, ok := validation.NormalizeMarketplace(*b.Marketplace)
		if !ok {
			return false, "unsupported marketplace"
		}
		d.Marketplace = mp
	}
	if b.Bullets != nil {
		d.Bullets = b.Bullets
	}
	if b.Keywords != nil {
		d.Keywords = b.Keywords
	}
	if d.ProductName == "" {
		return false, "product name is required"
	}
	return true, ""
}

func (h *ListingHandler) revalidate(d *models.ListingDraft, disallowed []string) {
	t := h.gen.Registry().Get(d.TemplateID)
	d.TemplateID = t.ID
	d.Issues = listing.ValidateListing(d.Draft(), t.Limits(), d.Keywords, h.gen.Disallowed(disallowed))
}

// CreateDraft saves a manually written draft.
func (h *ListingHandler) CreateDraft(c fiber.Ctx) error {
	if h.drafts == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "draft storage is not configured")
	}
	var body draftBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	draft := &models.ListingDraft{Owner: middleware.Owner(c), Marketplace: "US"}
	if ok, msg := body.apply(draft); !ok {
		return jsonError(c, fiber.StatusBadRequest, msg)
	}
	h.revalidate(draft, body.Disallowed)

	if err := h.drafts.CreateDraft(c.Context(), draft); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to create draft")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "ok", "data": draft})
}

// UpdateDraft updates the fields present in the body and re-validates.
func (h *ListingHandler) UpdateDraft(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid draft id")
	}
	if h.drafts == nil {
		return jsonError(c, fiber.StatusNotFound, "draft not found")
	}
	var body draftBody
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}

	draft, err := h.drafts.GetDraft(c.Context(), middleware.Owner(c), id)
	if err != nil {
		return draftError(c, err, "failed to fetch draft")
	}
	if draft.IsFinal() {
		return jsonError(c, fiber.StatusConflict, "draft is already finalized")
	}
	if ok, msg := body.apply(draft); !ok {
		return jsonError(c, fiber.StatusBadRequest, msg)
	}
	h.revalidate(draft, body.Disallowed)

	if err := h.drafts.UpdateDraft(c.Context(), draft); err != nil {
		return draftError(c, err, "failed to update draft")
	}
	h.invalidateGenerated(c.Context())
	return jsonSuccess(c, draft)
}

// Finalize auto-fixes a draft and marks it final when no errors remain.
func (h *ListingHandler) Finalize(c fiber.Ctx) error {
	var body struct {
		DraftID    string   `json:"draft_id"`
		Disallowed []string `json:"disallowed"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	id, err := uuid.Parse(body.DraftID)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid draft id")
	}
	if h.drafts == nil {
		return jsonError(c, fiber.StatusNotFound, "draft not found")
	}

	owner := middleware.Owner(c)
	draft, err := h.drafts.GetDraft(c.Context(), owner, id)
	if err != nil {
		return draftError(c, err, "failed to fetch draft")
	}
	if draft.IsFinal() {
		return jsonError(c, fiber.StatusConflict, "draft is already finalized")
	}

	t := h.gen.Registry().Get(draft.TemplateID)
	res := h.gen.Analyze(draft.Draft(), t, draft.Keywords, h.gen.Disallowed(body.Disallowed), true)
	res.Issues = append(res.Issues, listing.RequiredFieldIssues(res.Draft)...)
	if listing.HasErrors(res.Issues) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"status": "error",
			"error":  "listing still has blocking issues after auto-fix",
			"data":   res,
		})
	}

	draft.SetDraft(res.Draft)
	draft.Issues = res.Issues
	if err := h.drafts.FinalizeDraft(c.Context(), draft); err != nil {
		return draftError(c, err, "failed to finalize draft")
	}

	n := h.invalidateGenerated(c.Context())
	h.logger.Info("draft finalized", "owner", owner, "draft_id", draft.ID, "cache_keys_invalidated", n)
	return jsonSuccess(c, draft)
}

// ListTemplates returns built-in and custom templates.
func (h *ListingHandler) ListTemplates(c fiber.Ctx) error {
	return jsonSuccess(c, h.gen.Registry().List())
}

// CreateTemplate registers a custom template.
func (h *ListingHandler) CreateTemplate(c fiber.Ctx) error {
	var t listing.Template
	if err := json.Unmarshal(c.Body(), &t); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	t.ID = strings.TrimSpace(t.ID)
	t.BuiltIn = false
	if err := t.Validate(); err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}

	registry := h.gen.Registry()
	if existing, ok := registry.Lookup(t.ID); ok {
		if existing.BuiltIn {
			return jsonError(c, fiber.StatusConflict, listing.ErrBuiltInTemplate.Error())
		}
		return jsonError(c, fiber.StatusConflict, db.ErrDuplicateTemplate.Error())
	}

	if h.templates != nil {
		if err := h.templates.CreateTemplate(c.Context(), t, middleware.Owner(c)); err != nil {
			if errors.Is(err, db.ErrDuplicateTemplate) {
				return jsonError(c, fiber.StatusConflict, err.Error())
			}
			return jsonError(c, fiber.StatusInternalServerError, "failed to create template")
		}
	}
	if err := registry.Add(t); err != nil {
		return jsonError(c, fiber.StatusBadRequest, err.Error())
	}

	created, _ := registry.Lookup(t.ID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "ok", "data": created})
}
