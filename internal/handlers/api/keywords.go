package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v3"

	"sellerdesk/internal/keywords"
	"sellerdesk/internal/middleware"
	"sellerdesk/internal/models"
	"sellerdesk/internal/validation"
)

// KeywordGenerator runs the keyword research pipeline.
type KeywordGenerator interface {
	GenerateKeywords(ctx context.Context, req keywords.Request) (keywords.Result, error)
}

// KeywordHistoryStore persists keyword research runs.
type KeywordHistoryStore interface {
	CreateKeywordSearch(ctx context.Context, s *models.KeywordSearch) error
	ListKeywordSearches(ctx context.Context, owner string, limit int) ([]models.KeywordSearch, error)
}

// KeywordHandler handles keyword research via JSON API.
type KeywordHandler struct {
	svc    KeywordGenerator
	store  KeywordHistoryStore
	logger *slog.Logger
}

// NewKeywordHandler creates a new keyword handler. store may be nil, in which
// case runs are not recorded.
func NewKeywordHandler(svc KeywordGenerator, store KeywordHistoryStore, logger *slog.Logger) *KeywordHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &KeywordHandler{svc: svc, store: store, logger: logger}
}

// normalizeRequest validates ASINs, seeds and marketplace in place.
func normalizeRequest(req *keywords.Request) (bool, string) {
	asins, ok, msg := validation.NormalizeASINs(req.ASINs)
	if !ok {
		return false, msg
	}
	req.ASINs = asins

	if ok, msg := validation.ValidateSeeds(req.Seeds); !ok {
		return false, msg
	}

	mp, ok := validation.NormalizeMarketplace(req.Marketplace)
	if !ok {
		return false, "unsupported marketplace"
	}
	req.Marketplace = mp
	req.Category = strings.TrimSpace(req.Category)
	return true, ""
}

// Cerebro runs reverse-ASIN and seed keyword research.
func (h *KeywordHandler) Cerebro(c fiber.Ctx) error {
	var req keywords.Request
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if ok, msg := normalizeRequest(&req); !ok {
		return jsonError(c, fiber.StatusBadRequest, msg)
	}

	res, err := h.svc.GenerateKeywords(c.Context(), req)
	if err != nil {
		if errors.Is(err, keywords.ErrNoInput) {
			return jsonError(c, fiber.StatusBadRequest, "at least one ASIN, seed keyword or text is required")
		}
		h.logger.Error("keyword generation failed", "error", err)
		return jsonError(c, fiber.StatusInternalServerError, "failed to generate keywords")
	}

	h.record(c.Context(), middleware.Owner(c), req, res)
	return jsonSuccess(c, res)
}

// record stores a run; failures are logged and never fail the request.
func (h *KeywordHandler) record(ctx context.Context, owner string, req keywords.Request, res keywords.Result) {
	if h.store == nil {
		return
	}
	payload, err := json.Marshal(res)
	if err != nil {
		h.logger.Warn("failed to encode keyword result", "error", err)
		return
	}
	search := &models.KeywordSearch{
		Owner:        owner,
		Marketplace:  req.Marketplace,
		ASINs:        req.ASINs,
		Seeds:        req.Seeds,
		Category:     req.Category,
		KeywordCount: len(res.Keywords),
		Result:       payload,
	}
	if err := h.store.CreateKeywordSearch(ctx, search); err != nil {
		h.logger.Warn("failed to record keyword search", "owner", owner, "error", err)
	}
}

// History lists the caller's keyword research runs.
func (h *KeywordHandler) History(c fiber.Ctx) error {
	if h.store == nil {
		return jsonSuccess(c, []models.KeywordSearch{})
	}
	searches, err := h.store.ListKeywordSearches(c.Context(), middleware.Owner(c), queryInt(c, "limit", 50))
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to fetch keyword history")
	}
	return jsonSuccess(c, searches)
}

// SaveHistory stores a keyword set curated by the caller.
func (h *KeywordHandler) SaveHistory(c fiber.Ctx) error {
	if h.store == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "history storage is not configured")
	}

	var body struct {
		keywords.Request
		Keywords []keywords.Keyword `json:"keywords"`
		Clusters []keywords.Cluster `json:"clusters"`
	}
	if err := json.Unmarshal(c.Body(), &body); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if len(body.Keywords) == 0 {
		return jsonError(c, fiber.StatusBadRequest, "keywords are required")
	}
	if ok, msg := normalizeRequest(&body.Request); !ok {
		return jsonError(c, fiber.StatusBadRequest, msg)
	}

	res := keywords.Result{Keywords: body.Keywords, Clusters: body.Clusters}
	payload, err := json.Marshal(res)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid keywords")
	}
	search := &models.KeywordSearch{
		Owner:        middleware.Owner(c),
		Marketplace:  body.Marketplace,
		ASINs:        body.ASINs,
		Seeds:        body.Seeds,
		Category:     body.Category,
		KeywordCount: len(body.Keywords),
		Result:       payload,
	}
	if err := h.store.CreateKeywordSearch(c.Context(), search); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "failed to save keywords")
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"status": "ok", "data": search})
}
