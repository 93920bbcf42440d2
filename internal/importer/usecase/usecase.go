package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avelore/consignpos-import-service/internal/catalog"
	"github.com/avelore/consignpos-import-service/internal/consignor"
	"github.com/avelore/consignpos-import-service/internal/httputil"
	"github.com/avelore/consignpos-import-service/internal/importer"
	"github.com/avelore/consignpos-import-service/internal/importer/dto"
	"github.com/avelore/consignpos-import-service/internal/model"
	"github.com/avelore/consignpos-import-service/internal/pendingimport"
	"github.com/avelore/consignpos-import-service/pkg/cache"
	"github.com/avelore/consignpos-import-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const errorReportTTL = 24 * time.Hour

type importerUseCase struct {
	store     pendingimport.Repository
	directory consignor.Directory
	catalog   catalog.Service
	cache     *cache.RedisClient
	logger    logger.ZapLogger
}

func NewImporterUseCase(
	store pendingimport.Repository,
	directory consignor.Directory,
	cat catalog.Service,
	cache *cache.RedisClient,
	log logger.ZapLogger,
) importer.UseCase {
	return &importerUseCase{
		store:     store,
		directory: directory,
		catalog:   cat,
		cache:     cache,
		logger:    log,
	}
}

func (uc *importerUseCase) IngestCSV(ctx context.Context, merchantID, content string) (*dto.IngestResult, error) {
	parsed, err := importer.ParseCSV(content)
	if err != nil {
		return nil, err
	}

	// Fresh directory snapshot per ingestion; the lookup is never mutated.
	snapshot, err := uc.directory.ListConsignors(ctx, merchantID)
	if err != nil {
		return nil, errors.Wrap(err, "consignor directory")
	}
	lookup := importer.BuildConsignorLookup(snapshot)

	token := uuid.New().String()
	now := time.Now()

	result := &dto.IngestResult{
		UploadToken: token,
		TotalRows:   len(parsed.Rows),
	}

	var staged []model.PendingImportItem
	for i := range parsed.Rows {
		row := &parsed.Rows[i]
		if len(row.Errors) == 0 {
			importer.ValidateRow(row)
		}
		if !row.IsValid {
			result.InvalidCount++
			result.RowErrors = append(result.RowErrors, dto.RowError{
				Row:    row.RowNumber,
				Errors: row.Errors,
			})
			continue
		}

		item := rowToItem(row, merchantID, token, now)
		if c, ok := lookup.Resolve(row.Fields.ConsignorNumber); ok {
			item.ConsignorID = &c.ID
			item.ConsignorName = &c.Name
			item.Status = model.StatusAssigned
			result.AssignedCount++
		} else {
			// Unresolved codes are not errors: the row is staged and flagged
			// for manual assignment.
			result.UnmatchedCount++
		}
		staged = append(staged, item)
	}

	if err := uc.store.Stage(ctx, staged); err != nil {
		return nil, errors.Wrap(err, "stage imported rows")
	}
	result.StagedCount = len(staged)

	if result.InvalidCount > 0 {
		uc.storeErrorReport(ctx, merchantID, token, importer.ErrorReportCSV(parsed.Rows))
	}

	uc.logger.Info("csv ingestion finished",
		zap.String("merchant_id", merchantID),
		zap.String("upload_token", token),
		zap.Int("total_rows", result.TotalRows),
		zap.Int("staged", result.StagedCount),
		zap.Int("invalid", result.InvalidCount),
		zap.Int("unmatched", result.UnmatchedCount),
	)
	return result, nil
}

func (uc *importerUseCase) IngestManifest(ctx context.Context, merchantID, manifestID string, autoAssign bool) ([]model.PendingImportItem, error) {
	drafts, err := uc.catalog.CreateFromManifest(ctx, merchantID, manifestID, autoAssign)
	if err != nil {
		return nil, errors.Wrapf(err, "convert manifest %s", manifestID)
	}

	now := time.Now()
	items := make([]model.PendingImportItem, 0, len(drafts))
	for i := range drafts {
		items = append(items, manifestToItem(&drafts[i], merchantID, manifestID, now))
	}

	if err := uc.store.Stage(ctx, items); err != nil {
		return nil, errors.Wrap(err, "stage manifest items")
	}

	uc.logger.Info("manifest converted to pending imports",
		zap.String("merchant_id", merchantID),
		zap.String("manifest_id", manifestID),
		zap.Bool("auto_assign", autoAssign),
		zap.Int("staged", len(items)),
	)
	return items, nil
}

func (uc *importerUseCase) ErrorReport(ctx context.Context, merchantID, token string) (string, error) {
	if uc.cache == nil {
		return "", errors.Wrap(httputil.ErrNotFound, "error report storage unavailable")
	}
	report, err := uc.cache.Client.Get(ctx, errorReportKey(merchantID, token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", errors.Wrapf(httputil.ErrNotFound, "error report %s expired or unknown", token)
		}
		return "", err
	}
	return report, nil
}

func (uc *importerUseCase) Template() string {
	return importer.TemplateCSV()
}

func (uc *importerUseCase) storeErrorReport(ctx context.Context, merchantID, token, report string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Client.Set(ctx, errorReportKey(merchantID, token), report, errorReportTTL).Err(); err != nil {
		uc.logger.Warn("failed to store error report", zap.String("upload_token", token), zap.Error(err))
	}
}

func errorReportKey(merchantID, token string) string {
	return fmt.Sprintf("import:errors:%s:%s", merchantID, token)
}

func rowToItem(row *importer.ImportRow, merchantID, token string, now time.Time) model.PendingImportItem {
	// Validation guarantees the price parses.
	price, _ := decimal.NewFromString(strings.TrimSpace(row.Fields.Price))

	condition := model.ConditionGood
	if c, ok := model.IsValidCondition(strings.TrimSpace(row.Fields.Condition)); ok {
		condition = c
	}

	number := importer.NormalizedConsignorNumber(row)

	item := model.PendingImportItem{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		MerchantID:      merchantID,
		Name:            strings.TrimSpace(row.Fields.Name),
		Description:     optional(row.Fields.Description),
		Price:           price,
		SKU:             optional(row.Fields.SKU),
		Category:        optional(row.Fields.Category),
		Condition:       condition,
		Source:          model.SourceCSV,
		SourceReference: &token,
		ConsignorNumber: &number,
		Status:          model.StatusPending,
		Notes:           optional(row.Fields.Notes),
		ReceivedDate:    optional(row.Fields.ReceivedDate),
		Location:        optional(row.Fields.Location),
	}
	return item
}

func manifestToItem(draft *catalog.ManifestItem, merchantID, manifestID string, now time.Time) model.PendingImportItem {
	condition := model.ConditionGood
	if draft.Condition != nil {
		if c, ok := model.IsValidCondition(*draft.Condition); ok {
			condition = c
		}
	}

	status := model.StatusPending
	if draft.ConsignorID != nil && *draft.ConsignorID != "" {
		status = model.StatusAssigned
	}

	return model.PendingImportItem{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		MerchantID:      merchantID,
		Name:            draft.Name,
		Description:     draft.Description,
		Price:           draft.Price,
		MinPrice:        draft.MinPrice,
		SKU:             draft.SKU,
		Category:        draft.Category,
		Brand:           draft.Brand,
		Condition:       condition,
		ImageURL:        draft.ImageURL,
		Source:          model.SourceManifest,
		SourceReference: &manifestID,
		ConsignorID:     draft.ConsignorID,
		ConsignorName:   draft.ConsignorName,
		ConsignorNumber: draft.ConsignorNumber,
		Status:          status,
		Notes:           draft.Notes,
	}
}

func optional(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
