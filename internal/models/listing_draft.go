package models

import (
	"time"

	"github.com/google/uuid"

	"sellerdesk/internal/listing"
)

// Draft status constants
const (
	DraftStatusDraft = "draft"
	DraftStatusFinal = "final"
)

// ListingDraft is a stored listing with its last validation result.
type ListingDraft struct {
	ID           uuid.UUID                 `json:"id"`
	Owner        string                    `json:"owner"`
	ProductName  string                    `json:"product_name"`
	Category     string                    `json:"category"`
	Marketplace  string                    `json:"marketplace"`
	TemplateID   string                    `json:"template_id"`
	Title        string                    `json:"title"`
	Bullets      []string                  `json:"bullets"`
	Description  string                    `json:"description"`
	BackendTerms string                    `json:"backend_terms"`
	Keywords     []string                  `json:"keywords"`
	Issues       []listing.ValidationIssue `json:"issues"`
	Status       string                    `json:"status"`
	CreatedAt    time.Time                 `json:"created_at"`
	UpdatedAt    time.Time                 `json:"updated_at"`
	FinalizedAt  *time.Time                `json:"finalized_at,omitempty"`
}

// Draft returns the editable listing content.
func (d *ListingDraft) Draft() listing.Draft {
	return listing.Draft{
		Title:        d.Title,
		Bullets:      append([]string(nil), d.Bullets...),
		Description:  d.Description,
		BackendTerms: d.BackendTerms,
	}
}

// SetDraft copies listing content into the stored draft.
func (d *ListingDraft) SetDraft(l listing.Draft) {
	d.Title = l.Title
	d.Bullets = append([]string(nil), l.Bullets...)
	d.Description = l.Description
	d.BackendTerms = l.BackendTerms
}

// IsFinal reports whether the draft has been finalized.
func (d *ListingDraft) IsFinal() bool {
	return d.Status == DraftStatusFinal
}
