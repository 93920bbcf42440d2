package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/avelore/consignpos-import-service/internal/catalog"
	"github.com/avelore/consignpos-import-service/internal/model"
	"github.com/avelore/consignpos-import-service/internal/pendingimport/dto"
	"github.com/avelore/consignpos-import-service/pkg/logger"
	"go.uber.org/zap"
)

// commitExecutor promotes verified items into the catalog and aggregates the
// per-item outcome. It prefers the catalog's bulk endpoint and falls back to
// per-item creates when the bulk call cannot be completed.
type commitExecutor struct {
	catalog catalog.Service
	logger  logger.ZapLogger
}

func newCommitExecutor(cat catalog.Service, log logger.ZapLogger) *commitExecutor {
	return &commitExecutor{catalog: cat, logger: log}
}

func (e *commitExecutor) commit(ctx context.Context, merchantID string, items []model.PendingImportItem) *dto.SubmitResult {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	bulk, err := e.catalog.ImportVerified(ctx, merchantID, ids)
	if err == nil {
		return e.fromBulkResult(items, bulk)
	}

	e.logger.Warn("bulk import unavailable, falling back to per-item commit",
		zap.Int("items", len(items)), zap.Error(err))
	return e.commitPerItem(ctx, items)
}

func (e *commitExecutor) fromBulkResult(items []model.PendingImportItem, bulk *catalog.ImportVerifiedResult) *dto.SubmitResult {
	imported := make([]dto.ImportedRecord, len(bulk.Imported))
	importedSet := map[string]struct{}{}
	for i, rec := range bulk.Imported {
		imported[i] = dto.ImportedRecord{
			PendingImportID: rec.PendingImportID,
			ItemID:          rec.ItemID,
			ImportedAt:      time.Now(),
		}
		importedSet[rec.PendingImportID] = struct{}{}
	}

	var failedIDs []string
	for _, item := range items {
		if _, ok := importedSet[item.ID]; !ok {
			failedIDs = append(failedIDs, item.ID)
		}
	}

	return &dto.SubmitResult{
		Total:      len(items),
		Successful: len(imported),
		Failed:     len(items) - len(imported),
		Imported:   imported,
		FailedIDs:  failedIDs,
	}
}

// commitPerItem issues one create per item, fully in parallel. An individual
// failure becomes a nil slot rather than aborting its siblings, so every
// staged item ends up either imported or untouched and retryable.
func (e *commitExecutor) commitPerItem(ctx context.Context, items []model.PendingImportItem) *dto.SubmitResult {
	results := make([]*dto.ImportedRecord, len(items))

	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			item := &items[i]

			itemID, err := e.catalog.CreateItem(ctx, toCreateInput(item))
			if err != nil {
				e.logger.Error("per-item commit failed",
					zap.String("pending_import_id", item.ID), zap.Error(err))
				return
			}
			results[i] = &dto.ImportedRecord{
				PendingImportID: item.ID,
				ItemID:          itemID,
				ImportedAt:      time.Now(),
			}
		}(i)
	}
	wg.Wait()

	result := &dto.SubmitResult{Total: len(items)}
	for i, rec := range results {
		if rec == nil {
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, items[i].ID)
			continue
		}
		result.Successful++
		result.Imported = append(result.Imported, *rec)
	}
	return result
}

func toCreateInput(item *model.PendingImportItem) *catalog.CreateItemInput {
	consignorID := ""
	if item.ConsignorID != nil {
		consignorID = *item.ConsignorID
	}
	return &catalog.CreateItemInput{
		MerchantID:  item.MerchantID,
		Name:        item.Name,
		Description: item.Description,
		Price:       item.Price,
		MinPrice:    item.MinPrice,
		SKU:         item.SKU,
		Category:    item.Category,
		Brand:       item.Brand,
		Condition:   string(item.Condition),
		ImageURL:    item.ImageURL,
		ConsignorID: consignorID,
		Notes:       item.Notes,
	}
}
