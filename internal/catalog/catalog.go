package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Outcome classifies a bulk import result.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailure Outcome = "failure"
)

// CreateItemInput is the per-item commit payload promoting a verified staged
// record into the live catalog.
type CreateItemInput struct {
	MerchantID  string           `json:"merchant_id"`
	Name        string           `json:"name"`
	Description *string          `json:"description,omitempty"`
	Price       decimal.Decimal  `json:"price"`
	MinPrice    *decimal.Decimal `json:"min_price,omitempty"`
	SKU         *string          `json:"sku,omitempty"`
	Category    *string          `json:"category,omitempty"`
	Brand       *string          `json:"brand,omitempty"`
	Condition   string           `json:"condition"`
	ImageURL    *string          `json:"image_url,omitempty"`
	ConsignorID string           `json:"consignor_id"`
	Notes       *string          `json:"notes,omitempty"`
}

type BulkAssignFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

type BulkAssignResult struct {
	Assigned int                 `json:"assigned"`
	Failed   []BulkAssignFailure `json:"failed"`
}

// ImportedRecord pairs a staged record with the live catalog item it became.
type ImportedRecord struct {
	PendingImportID string `json:"pending_import_id"`
	ItemID          string `json:"item_id"`
}

type ImportVerifiedResult struct {
	Outcome   Outcome          `json:"outcome"`
	Imported  []ImportedRecord `json:"imported"`
	FailedIDs []string         `json:"failed_ids"`
}

// ManifestItem is a staged-item draft produced by converting a drop-off
// manifest line on the catalog side.
type ManifestItem struct {
	Name            string           `json:"name"`
	Description     *string          `json:"description"`
	Price           decimal.Decimal  `json:"price"`
	MinPrice        *decimal.Decimal `json:"min_price"`
	SKU             *string          `json:"sku"`
	Category        *string          `json:"category"`
	Brand           *string          `json:"brand"`
	Condition       *string          `json:"condition"`
	ImageURL        *string          `json:"image_url"`
	ConsignorID     *string          `json:"consignor_id"`
	ConsignorName   *string          `json:"consignor_name"`
	ConsignorNumber *string          `json:"consignor_number"`
	Notes           *string          `json:"notes"`
}

// Service is the catalog/inventory boundary. The staging pipeline only ever
// promotes through it; it never reads the live catalog.
type Service interface {
	CreateItem(ctx context.Context, input *CreateItemInput) (string, error)
	BulkAssignConsignor(ctx context.Context, merchantID string, ids []string, consignorID string) (*BulkAssignResult, error)
	ImportVerified(ctx context.Context, merchantID string, ids []string) (*ImportVerifiedResult, error)
	CreateFromManifest(ctx context.Context, merchantID, manifestID string, autoAssign bool) ([]ManifestItem, error)
}
