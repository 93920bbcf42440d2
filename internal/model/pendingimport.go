package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ImportStatus is the lifecycle state of a staged item.
type ImportStatus string

const (
	StatusPending  ImportStatus = "pending"
	StatusAssigned ImportStatus = "assigned"
	StatusVerified ImportStatus = "verified"
	StatusImported ImportStatus = "imported"
	StatusRejected ImportStatus = "rejected"
	StatusDeleted  ImportStatus = "deleted"
)

// IsTerminal reports whether the status excludes the item from any further
// selection, assignment or editing.
func (s ImportStatus) IsTerminal() bool {
	return s == StatusImported || s == StatusRejected || s == StatusDeleted
}

// ImportSource identifies where a staged record came from.
type ImportSource string

const (
	SourceManual   ImportSource = "manual"
	SourceCSV      ImportSource = "csv"
	SourceSquare   ImportSource = "square"
	SourceManifest ImportSource = "manifest"
)

// ItemCondition is the fixed condition enumeration for staged items.
type ItemCondition string

const (
	ConditionNew     ItemCondition = "New"
	ConditionLikeNew ItemCondition = "LikeNew"
	ConditionGood    ItemCondition = "Good"
	ConditionFair    ItemCondition = "Fair"
	ConditionPoor    ItemCondition = "Poor"
)

// ValidConditions lists the accepted condition values in display order.
var ValidConditions = []ItemCondition{
	ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor,
}

// IsValidCondition matches a raw value against the enumeration,
// case-insensitively on the canonical spelling.
func IsValidCondition(raw string) (ItemCondition, bool) {
	for _, c := range ValidConditions {
		if strings.EqualFold(string(c), raw) {
			return c, true
		}
	}
	return "", false
}

// PendingImportItem is a staged inventory record awaiting reconciliation.
type PendingImportItem struct {
	BaseModel
	MerchantID  string           `db:"merchant_id" json:"merchant_id"`
	Name        string           `db:"name" json:"name"`
	Description *string          `db:"description" json:"description"`
	Price       decimal.Decimal  `db:"price" json:"price"`
	MinPrice    *decimal.Decimal `db:"min_price" json:"min_price"`
	SKU         *string          `db:"sku" json:"sku"`
	Category    *string          `db:"category" json:"category"`
	Brand       *string          `db:"brand" json:"brand"`
	Condition   ItemCondition    `db:"condition" json:"condition"`
	ImageURL    *string          `db:"image_url" json:"image_url"`

	Source          ImportSource `db:"source" json:"source"`
	SourceReference *string      `db:"source_reference" json:"source_reference"`

	ConsignorID     *string `db:"consignor_id" json:"consignor_id"`
	ConsignorName   *string `db:"consignor_name" json:"consignor_name"`
	ConsignorNumber *string `db:"consignor_number" json:"consignor_number"`

	Status         ImportStatus `db:"status" json:"status"`
	ImportedAt     *time.Time   `db:"imported_at" json:"imported_at"`
	ImportedItemID *string      `db:"imported_item_id" json:"imported_item_id"`

	Notes        *string `db:"notes" json:"notes"`
	ReceivedDate *string `db:"received_date" json:"received_date"`
	Location     *string `db:"location" json:"location"`
}

// HasConsignor reports whether the item is linked to a directory identity.
// Verification and promotion both require it.
func (p *PendingImportItem) HasConsignor() bool {
	return p.ConsignorID != nil && *p.ConsignorID != ""
}

// CanVerify is the precondition for the Assigned -> Verified transition.
func (p *PendingImportItem) CanVerify() bool {
	return p.HasConsignor() && !p.Status.IsTerminal()
}
