package db

import "errors"

// Domain-level database error sentinels.
var (
	// Draft errors
	ErrDraftNotFound  = errors.New("listing draft not found")
	ErrDraftFinalized = errors.New("listing draft is already finalized")

	// Keyword search errors
	ErrSearchNotFound = errors.New("keyword search not found")

	// Template errors
	ErrTemplateNotFound  = errors.New("listing template not found")
	ErrDuplicateTemplate = errors.New("template id already exists")
)
