package ingest

import (
	"errors"
	"fmt"

	"github.com/bansang/pricebook_backend/models"
)

// Batch-fatal errors: the whole upload rolls back.
var (
	ErrSheetUnreadable   = errors.New("sheet unreadable")
	ErrHeaderNotFound    = errors.New("header row not found")
	ErrMappingIncomplete = errors.New("column mapping incomplete")
	ErrSupplierUnknown   = errors.New("supplier unknown")
)

// RowError is a recoverable per-row failure: counted, reported, never fatal.
type RowError struct {
	Index  int
	Reason models.RowFailReason
	Detail string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %d: %s: %s", e.Index, e.Reason, e.Detail)
}
