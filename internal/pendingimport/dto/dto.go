package dto

import (
	"encoding/json"
	"time"

	"github.com/avelore/consignpos-import-service/internal/model"
	"github.com/shopspring/decimal"
)

// ListFilters scopes a page of staged items.
type ListFilters struct {
	MerchantID      string
	SourceReference string
	Search          string
	ConsignorID     string
	PriceMin        *decimal.Decimal
	PriceMax        *decimal.Decimal
	Statuses        []model.ImportStatus
	Page            int
	PageSize        int
}

// PatchInput carries inline-edit fields. Nil means "leave unchanged".
type PatchInput struct {
	Price     *decimal.Decimal
	Category  *string
	Condition *string
	Notes     *string
}

// SessionScope identifies one reconciliation session: one operator working
// one staged batch of one merchant.
type SessionScope struct {
	MerchantID      string
	SourceReference string
}

func (s SessionScope) Key() string {
	return s.MerchantID + "|" + s.SourceReference
}

type BulkAssignInput struct {
	Scope         SessionScope
	IDs           []string
	ConsignorID   string
	AutoVerify    bool
	AssignAnother bool
}

type BulkAssignFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BulkAssignOutcome reports one bulk assignment. KeepOpen echoes the caller's
// assign-another request: the assignment flow stays open for a further batch.
type BulkAssignOutcome struct {
	Assigned  int                 `json:"assigned"`
	Failed    []BulkAssignFailure `json:"failed"`
	Selection []string            `json:"selection"`
	KeepOpen  bool                `json:"keep_open"`
}

// VerifyAllResult reports which visible items were verified and which were
// skipped for lacking a consignor.
type VerifyAllResult struct {
	Verified []string `json:"verified"`
	Skipped  []string `json:"skipped"`
}

// ImportedRecord pairs a staged item with the catalog item it became.
type ImportedRecord struct {
	PendingImportID string    `json:"pending_import_id"`
	ItemID          string    `json:"item_id"`
	ImportedAt      time.Time `json:"imported_at"`
}

// CatalogSearchResult is a page of committed items from the search index.
type CatalogSearchResult struct {
	Total int               `json:"total"`
	Items []json.RawMessage `json:"items"`
}

// SubmitResult is the partial-success summary of one batch commit.
// Successful + Failed always equals Total.
type SubmitResult struct {
	Total      int              `json:"total"`
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Imported   []ImportedRecord `json:"imported"`
	FailedIDs  []string         `json:"failed_ids"`
}
