package importer

import (
	"context"

	"github.com/avelore/consignpos-import-service/internal/importer/dto"
	"github.com/avelore/consignpos-import-service/internal/model"
)

// UseCase is the ingestion entry point feeding the staging store, from CSV
// uploads and from POS drop-off manifests alike.
type UseCase interface {
	IngestCSV(ctx context.Context, merchantID, content string) (*dto.IngestResult, error)
	IngestManifest(ctx context.Context, merchantID, manifestID string, autoAssign bool) ([]model.PendingImportItem, error)

	// ErrorReport returns the rejected-rows CSV for an earlier upload, while
	// it is still retained.
	ErrorReport(ctx context.Context, merchantID, token string) (string, error)

	// Template returns the upload template CSV.
	Template() string
}
