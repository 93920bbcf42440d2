package consignor

import (
	"context"

	"github.com/avelore/consignpos-import-service/internal/model"
)

// Directory reads consignor identities from the directory service. The import
// pipeline never mutates the directory.
type Directory interface {
	ListConsignors(ctx context.Context, merchantID string) ([]model.Consignor, error)
}
