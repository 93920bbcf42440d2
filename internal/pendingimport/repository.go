package pendingimport

import (
	"context"

	"github.com/avelore/consignpos-import-service/internal/model"
	"github.com/avelore/consignpos-import-service/internal/pendingimport/dto"
)

// Repository is the staging collection. It never calls the catalog or the
// consignor directory; promotion side effects live in the usecase layer.
type Repository interface {
	Stage(ctx context.Context, items []model.PendingImportItem) error
	FindAll(ctx context.Context, filters *dto.ListFilters) ([]model.PendingImportItem, int, error)
	FindByIDs(ctx context.Context, merchantID string, ids []string) ([]model.PendingImportItem, error)

	// Patch applies inline-edit fields without touching status. Absent ids
	// report NotFound, terminal items report Conflict.
	Patch(ctx context.Context, merchantID, id string, input *dto.PatchInput) (*model.PendingImportItem, error)

	// SoftDelete marks an item Deleted. Imported items report Conflict.
	SoftDelete(ctx context.Context, merchantID, id string) error

	// AssignConsignor links every given item to the consignor and moves it to
	// Assigned (or straight to Verified when verify is set). Terminal items
	// are left untouched.
	AssignConsignor(ctx context.Context, merchantID string, ids []string, c model.Consignor, verify bool) error

	// SetVerified toggles Assigned <-> Verified. The Verified transition is
	// guarded by consignor presence at the SQL level.
	SetVerified(ctx context.Context, merchantID, id string, verified bool) error

	// MarkImported promotes Verified items only, recording the catalog item
	// id and import time.
	MarkImported(ctx context.Context, merchantID string, records []dto.ImportedRecord) error
}
