package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// KeywordSearch is a saved keyword research run.
type KeywordSearch struct {
	ID           uuid.UUID       `json:"id"`
	Owner        string          `json:"owner"`
	Marketplace  string          `json:"marketplace"`
	ASINs        []string        `json:"asins"`
	Seeds        []string        `json:"seeds"`
	Category     string          `json:"category"`
	KeywordCount int             `json:"keyword_count"`
	Result       json.RawMessage `json:"result,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}
