package handlers

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"sellerdesk/internal/db"
	"sellerdesk/internal/listing"
	"sellerdesk/internal/middleware"
	"sellerdesk/internal/models"
)

// DraftReader loads a draft owned by a user.
type DraftReader interface {
	GetDraft(ctx context.Context, owner string, id uuid.UUID) (*models.ListingDraft, error)
}

// PreviewHandler renders drafts as HTML.
type PreviewHandler struct {
	drafts   DraftReader
	registry *listing.Registry
}

// NewPreviewHandler creates a new preview handler.
func NewPreviewHandler(drafts DraftReader, registry *listing.Registry) *PreviewHandler {
	return &PreviewHandler{drafts: drafts, registry: registry}
}

type fieldStat struct {
	Name  string
	Chars int
	Limit int
	Over  bool
}

func stat(name, text string, limit int) fieldStat {
	n := utf8.RuneCountInString(text)
	return fieldStat{Name: name, Chars: n, Limit: limit, Over: limit > 0 && n > limit}
}

// Preview renders a draft the way it would read on a product page.
func (h *PreviewHandler) Preview(c fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid draft id")
	}

	draft, err := h.drafts.GetDraft(c.Context(), middleware.Owner(c), id)
	if err != nil {
		if errors.Is(err, db.ErrDraftNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "Draft not found")
		}
		return fiber.NewError(fiber.StatusInternalServerError, "Failed to load draft")
	}

	t := h.registry.Get(draft.TemplateID)
	limits := t.Limits()
	stats := []fieldStat{stat("Title", draft.Title, limits.Title)}
	for _, b := range draft.Bullets {
		stats = append(stats, stat("Bullet", b, limits.Bullet))
	}
	stats = append(stats, stat("Description", draft.Description, limits.Description))

	return c.Render("preview", fiber.Map{
		"Title":    draft.ProductName,
		"Draft":    draft,
		"Template": t,
		"Stats":    stats,
		"Issues":   draft.Issues,
	})
}
