package pendingimport

import (
	"context"

	"github.com/avelore/consignpos-import-service/internal/model"
	"github.com/avelore/consignpos-import-service/internal/pendingimport/dto"
)

// UseCase drives the reconciliation workflow: listing and editing staged
// items, selection, bulk assignment, verification and the final commit.
type UseCase interface {
	List(ctx context.Context, filters *dto.ListFilters) ([]model.PendingImportItem, int, error)
	Patch(ctx context.Context, merchantID, id string, input *dto.PatchInput) (*model.PendingImportItem, error)
	Delete(ctx context.Context, merchantID, id string) error

	Select(scope dto.SessionScope, ids []string) []string
	Deselect(scope dto.SessionScope, ids []string) []string
	SelectAll(ctx context.Context, scope dto.SessionScope, filters *dto.ListFilters) ([]string, error)
	ClearSelection(scope dto.SessionScope)
	Selection(scope dto.SessionScope) []string

	// EndSession discards all transient state for the scope: the operator
	// switched views or finished the batch.
	EndSession(scope dto.SessionScope)

	Edit(scope dto.SessionScope, itemID, field, value string) error
	DiscardEdits(scope dto.SessionScope, itemID string)
	SaveEdits(ctx context.Context, scope dto.SessionScope, itemID string) (*model.PendingImportItem, error)
	DisplayValue(scope dto.SessionScope, item *model.PendingImportItem, field string) string

	BulkAssign(ctx context.Context, input *dto.BulkAssignInput) (*dto.BulkAssignOutcome, error)
	ToggleVerify(ctx context.Context, scope dto.SessionScope, itemID string, verified bool) error
	VerifyAll(ctx context.Context, scope dto.SessionScope, filters *dto.ListFilters) (*dto.VerifyAllResult, error)
	SubmitVerified(ctx context.Context, scope dto.SessionScope) (*dto.SubmitResult, error)

	// SearchImported queries the index of committed items.
	SearchImported(ctx context.Context, merchantID, query string, size int) (*dto.CatalogSearchResult, error)
}
