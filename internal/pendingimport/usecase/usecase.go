package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avelore/consignpos-import-service/internal/catalog"
	"github.com/avelore/consignpos-import-service/internal/consignor"
	"github.com/avelore/consignpos-import-service/internal/httputil"
	"github.com/avelore/consignpos-import-service/internal/model"
	"github.com/avelore/consignpos-import-service/internal/pendingimport"
	"github.com/avelore/consignpos-import-service/internal/pendingimport/dto"
	"github.com/avelore/consignpos-import-service/pkg/cache"
	"github.com/avelore/consignpos-import-service/pkg/logger"
	"github.com/avelore/consignpos-import-service/pkg/search"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const catalogIndex = "catalog_items"

type pendingImportUseCase struct {
	repo      pendingimport.Repository
	directory consignor.Directory
	catalog   catalog.Service
	cache     *cache.RedisClient
	es        *search.Client
	logger    logger.ZapLogger

	sessions *sessionStore
	executor *commitExecutor
}

func NewPendingImportUseCase(
	repo pendingimport.Repository,
	directory consignor.Directory,
	cat catalog.Service,
	cache *cache.RedisClient,
	es *search.Client,
	log logger.ZapLogger,
) pendingimport.UseCase {
	return &pendingImportUseCase{
		repo:      repo,
		directory: directory,
		catalog:   cat,
		cache:     cache,
		es:        es,
		logger:    log,
		sessions:  newSessionStore(),
		executor:  newCommitExecutor(cat, log),
	}
}

func (uc *pendingImportUseCase) List(ctx context.Context, filters *dto.ListFilters) ([]model.PendingImportItem, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *pendingImportUseCase) Patch(ctx context.Context, merchantID, id string, input *dto.PatchInput) (*model.PendingImportItem, error) {
	if input.Condition != nil {
		if _, ok := model.IsValidCondition(*input.Condition); !ok {
			return nil, errors.Wrapf(httputil.ErrInvalidArgument, "unknown condition %q", *input.Condition)
		}
	}
	if input.Price != nil && !input.Price.IsPositive() {
		return nil, errors.Wrap(httputil.ErrInvalidArgument, "price must be a positive number")
	}
	return uc.repo.Patch(ctx, merchantID, id, input)
}

func (uc *pendingImportUseCase) Delete(ctx context.Context, merchantID, id string) error {
	if err := uc.repo.SoftDelete(ctx, merchantID, id); err != nil {
		return err
	}
	uc.sessions.purgeID(merchantID, id)
	return nil
}

// --- Selection engine ---

func (uc *pendingImportUseCase) Select(scope dto.SessionScope, ids []string) []string {
	return uc.sessions.with(scope, func(s *session) {
		for _, id := range ids {
			s.selected[id] = struct{}{}
		}
	})
}

func (uc *pendingImportUseCase) Deselect(scope dto.SessionScope, ids []string) []string {
	return uc.sessions.with(scope, func(s *session) {
		for _, id := range ids {
			delete(s.selected, id)
		}
	})
}

// SelectAll selects the currently filtered page of Pending/Assigned items.
// Items already carrying a consignor are excluded: their assignment is
// immutable through the bulk path.
func (uc *pendingImportUseCase) SelectAll(ctx context.Context, scope dto.SessionScope, filters *dto.ListFilters) ([]string, error) {
	filters.MerchantID = scope.MerchantID
	if filters.SourceReference == "" {
		filters.SourceReference = scope.SourceReference
	}
	filters.Statuses = []model.ImportStatus{model.StatusPending, model.StatusAssigned}

	items, _, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, err
	}

	return uc.sessions.with(scope, func(s *session) {
		for i := range items {
			if items[i].HasConsignor() {
				continue
			}
			s.selected[items[i].ID] = struct{}{}
		}
	}), nil
}

func (uc *pendingImportUseCase) ClearSelection(scope dto.SessionScope) {
	uc.sessions.with(scope, func(s *session) {
		s.selected = map[string]struct{}{}
	})
}

func (uc *pendingImportUseCase) Selection(scope dto.SessionScope) []string {
	return uc.sessions.with(scope, func(*session) {})
}

func (uc *pendingImportUseCase) EndSession(scope dto.SessionScope) {
	uc.sessions.drop(scope)
}

// --- Inline edit tracker ---

var editableFields = map[string]struct{}{
	"price": {}, "category": {}, "condition": {}, "notes": {},
}

func (uc *pendingImportUseCase) Edit(scope dto.SessionScope, itemID, field, value string) error {
	if _, ok := editableFields[field]; !ok {
		return errors.Wrapf(httputil.ErrInvalidArgument, "field %q is not editable", field)
	}
	uc.sessions.with(scope, func(s *session) {
		overlay, ok := s.edits[itemID]
		if !ok {
			overlay = &editOverlay{fields: map[string]string{}}
			s.edits[itemID] = overlay
		}
		overlay.fields[field] = value
		overlay.dirty = true
	})
	return nil
}

func (uc *pendingImportUseCase) DiscardEdits(scope dto.SessionScope, itemID string) {
	uc.sessions.with(scope, func(s *session) {
		delete(s.edits, itemID)
	})
}

// DisplayValue resolves a field through the overlay so in-progress edits are
// what bulk computations see, not the stale stored value.
func (uc *pendingImportUseCase) DisplayValue(scope dto.SessionScope, item *model.PendingImportItem, field string) string {
	var overlaid string
	var dirty bool
	uc.sessions.with(scope, func(s *session) {
		if overlay, ok := s.edits[item.ID]; ok && overlay.dirty {
			if v, present := overlay.fields[field]; present {
				overlaid, dirty = v, true
			}
		}
	})
	if dirty {
		return overlaid
	}

	switch field {
	case "price":
		return item.Price.String()
	case "category":
		if item.Category != nil {
			return *item.Category
		}
	case "condition":
		return string(item.Condition)
	case "notes":
		if item.Notes != nil {
			return *item.Notes
		}
	}
	return ""
}

// SaveEdits persists only the fields present in the overlay, then clears the
// overlay entry. A dirty overlay is never silently discarded: verification
// flushes through here first.
func (uc *pendingImportUseCase) SaveEdits(ctx context.Context, scope dto.SessionScope, itemID string) (*model.PendingImportItem, error) {
	var fields map[string]string
	uc.sessions.with(scope, func(s *session) {
		if overlay, ok := s.edits[itemID]; ok && overlay.dirty {
			fields = overlay.fields
		}
	})
	if len(fields) == 0 {
		return nil, nil
	}

	input := &dto.PatchInput{}
	if v, ok := fields["price"]; ok {
		price, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil || !price.IsPositive() {
			return nil, errors.Wrapf(httputil.ErrInvalidArgument, "price %q must be a positive number", v)
		}
		input.Price = &price
	}
	if v, ok := fields["category"]; ok {
		input.Category = &v
	}
	if v, ok := fields["condition"]; ok {
		if _, valid := model.IsValidCondition(v); !valid {
			return nil, errors.Wrapf(httputil.ErrInvalidArgument, "unknown condition %q", v)
		}
		input.Condition = &v
	}
	if v, ok := fields["notes"]; ok {
		input.Notes = &v
	}

	item, err := uc.repo.Patch(ctx, scope.MerchantID, itemID, input)
	if err != nil {
		return nil, err
	}

	uc.sessions.with(scope, func(s *session) {
		delete(s.edits, itemID)
	})
	return item, nil
}

// flushEdits saves any dirty overlay for each id before a status transition
// that depends on the stored values.
func (uc *pendingImportUseCase) flushEdits(ctx context.Context, scope dto.SessionScope, ids []string) error {
	for _, id := range ids {
		if _, err := uc.SaveEdits(ctx, scope, id); err != nil {
			return errors.Wrapf(err, "flush edits for %s", id)
		}
	}
	return nil
}

// --- Bulk assignment ---

func (uc *pendingImportUseCase) BulkAssign(ctx context.Context, input *dto.BulkAssignInput) (*dto.BulkAssignOutcome, error) {
	if len(input.IDs) == 0 {
		return nil, errors.Wrap(httputil.ErrInvalidArgument, "no items selected")
	}
	if input.ConsignorID == "" {
		return nil, errors.Wrap(httputil.ErrInvalidArgument, "consignor is required")
	}

	identity, err := uc.resolveConsignor(ctx, input.Scope.MerchantID, input.ConsignorID)
	if err != nil {
		return nil, err
	}

	// Verification trusts the stored values, so dirty overlays are flushed
	// before auto-verify can promote anything. A bad overlay rejects the whole
	// call before any assignment happens.
	if input.AutoVerify {
		if err := uc.flushEdits(ctx, input.Scope, input.IDs); err != nil {
			return nil, err
		}
	}

	// One boundary call for the whole id list. A rejected call leaves every
	// item unchanged; there is no partial assignment from a failed request.
	result, err := uc.catalog.BulkAssignConsignor(ctx, input.Scope.MerchantID, input.IDs, input.ConsignorID)
	if err != nil {
		return nil, errors.Wrap(err, "bulk assign rejected")
	}

	failedSet := map[string]string{}
	for _, f := range result.Failed {
		failedSet[f.ID] = f.Reason
	}
	var assignedIDs []string
	for _, id := range input.IDs {
		if _, failed := failedSet[id]; !failed {
			assignedIDs = append(assignedIDs, id)
		}
	}

	if err := uc.repo.AssignConsignor(ctx, input.Scope.MerchantID, assignedIDs, identity, input.AutoVerify); err != nil {
		return nil, err
	}

	// AssignAnother keeps the assignment flow open for a further batch; the
	// next consignor choice itself lives with the caller.
	outcome := &dto.BulkAssignOutcome{Assigned: len(assignedIDs), KeepOpen: input.AssignAnother}
	for _, f := range result.Failed {
		outcome.Failed = append(outcome.Failed, dto.BulkAssignFailure{ID: f.ID, Reason: f.Reason})
	}

	outcome.Selection = uc.sessions.with(input.Scope, func(s *session) {
		if input.AutoVerify {
			for _, id := range assignedIDs {
				s.verified[id] = struct{}{}
			}
		}
		s.selected = map[string]struct{}{}
	})

	return outcome, nil
}

func (uc *pendingImportUseCase) resolveConsignor(ctx context.Context, merchantID, consignorID string) (model.Consignor, error) {
	consignors, err := uc.directory.ListConsignors(ctx, merchantID)
	if err != nil {
		return model.Consignor{}, errors.Wrap(err, "consignor directory")
	}
	for _, c := range consignors {
		if c.ID == consignorID {
			return c, nil
		}
	}
	return model.Consignor{}, errors.Wrapf(httputil.ErrNotFound, "consignor %s", consignorID)
}

// --- Verification & commit ---

func (uc *pendingImportUseCase) ToggleVerify(ctx context.Context, scope dto.SessionScope, itemID string, verified bool) error {
	if verified {
		// Flush pending edits before trusting the verification.
		if _, err := uc.SaveEdits(ctx, scope, itemID); err != nil {
			return err
		}
	}

	if err := uc.repo.SetVerified(ctx, scope.MerchantID, itemID, verified); err != nil {
		return err
	}

	uc.sessions.with(scope, func(s *session) {
		if verified {
			s.verified[itemID] = struct{}{}
		} else {
			delete(s.verified, itemID)
		}
	})
	return nil
}

// VerifyAll verifies every currently visible item that can be verified and
// reports the ids it had to skip for lacking a consignor.
func (uc *pendingImportUseCase) VerifyAll(ctx context.Context, scope dto.SessionScope, filters *dto.ListFilters) (*dto.VerifyAllResult, error) {
	filters.MerchantID = scope.MerchantID
	if filters.SourceReference == "" {
		filters.SourceReference = scope.SourceReference
	}
	filters.Statuses = []model.ImportStatus{model.StatusPending, model.StatusAssigned, model.StatusVerified}

	items, _, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, err
	}

	result := &dto.VerifyAllResult{}
	for i := range items {
		item := &items[i]

		if item.Status == model.StatusVerified {
			result.Verified = append(result.Verified, item.ID)
			uc.sessions.with(scope, func(s *session) { s.verified[item.ID] = struct{}{} })
			continue
		}
		if item.Status != model.StatusAssigned || !item.CanVerify() {
			result.Skipped = append(result.Skipped, item.ID)
			continue
		}
		if err := uc.ToggleVerify(ctx, scope, item.ID, true); err != nil {
			result.Skipped = append(result.Skipped, item.ID)
			continue
		}
		result.Verified = append(result.Verified, item.ID)
	}
	return result, nil
}

func (uc *pendingImportUseCase) SubmitVerified(ctx context.Context, scope dto.SessionScope) (*dto.SubmitResult, error) {
	var verifiedIDs []string
	uc.sessions.with(scope, func(s *session) {
		verifiedIDs = sortedKeys(s.verified)
	})
	if len(verifiedIDs) == 0 {
		return nil, errors.Wrap(httputil.ErrInvalidArgument, "no verified items to submit")
	}

	unlock, err := uc.lockSubmit(ctx, scope)
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Edits made after an item was verified would otherwise be stranded once
	// the item goes terminal. Flush them so the commit payload carries the
	// operator's values, not the stale stored ones.
	if err := uc.flushEdits(ctx, scope, verifiedIDs); err != nil {
		return nil, err
	}

	items, err := uc.repo.FindByIDs(ctx, scope.MerchantID, verifiedIDs)
	if err != nil {
		return nil, err
	}

	// Guard against external drift: every verified id must still exist, still
	// be Verified and still carry a consignor. One offender rejects the whole
	// submission with nothing committed.
	byID := map[string]*model.PendingImportItem{}
	for i := range items {
		byID[items[i].ID] = &items[i]
	}
	var offending []string
	for _, id := range verifiedIDs {
		item, ok := byID[id]
		if !ok || item.Status != model.StatusVerified || !item.HasConsignor() {
			offending = append(offending, id)
		}
	}
	if len(offending) > 0 {
		return nil, errors.Wrapf(httputil.ErrPreconditionFailed,
			"items no longer eligible for import: %s", strings.Join(offending, ", "))
	}

	batch := make([]model.PendingImportItem, 0, len(verifiedIDs))
	for _, id := range verifiedIDs {
		batch = append(batch, *byID[id])
	}

	result := uc.executor.commit(ctx, scope.MerchantID, batch)

	if result.Successful > 0 {
		if err := uc.repo.MarkImported(ctx, scope.MerchantID, result.Imported); err != nil {
			return nil, errors.Wrap(err, "mark imported")
		}

		importedSet := map[string]struct{}{}
		for _, rec := range result.Imported {
			importedSet[rec.PendingImportID] = struct{}{}
		}
		uc.sessions.with(scope, func(s *session) {
			for id := range importedSet {
				delete(s.verified, id)
			}
			s.selected = map[string]struct{}{}
		})

		go uc.syncImportedToElastic(context.Background(), batch, result.Imported)
	}

	uc.logger.Info("batch commit finished",
		zap.String("merchant_id", scope.MerchantID),
		zap.String("source_reference", scope.SourceReference),
		zap.Int("total", result.Total),
		zap.Int("successful", result.Successful),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

// SearchImported queries the committed-items index. The index is populated
// asynchronously after each commit, so results may trail the latest batch.
func (uc *pendingImportUseCase) SearchImported(ctx context.Context, merchantID, query string, size int) (*dto.CatalogSearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.Wrap(httputil.ErrInvalidArgument, "search query is required")
	}
	if uc.es == nil {
		return nil, errors.Wrap(httputil.ErrPreconditionFailed, "search index is not available")
	}
	if size <= 0 || size > 100 {
		size = 20
	}

	esQuery := map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must": map[string]interface{}{
					"multi_match": map[string]interface{}{
						"query":  query,
						"fields": []string{"name", "sku", "category"},
					},
				},
				"filter": map[string]interface{}{
					"term": map[string]interface{}{"merchant_id": merchantID},
				},
			},
		},
	}

	res, err := uc.es.Search(ctx, catalogIndex, esQuery)
	if err != nil {
		return nil, errors.Wrap(err, "search catalog index")
	}

	result := &dto.CatalogSearchResult{Total: res.Hits.Total.Value}
	for _, hit := range res.Hits.Hits {
		result.Items = append(result.Items, hit.Source)
	}
	return result, nil
}

func (uc *pendingImportUseCase) lockSubmit(ctx context.Context, scope dto.SessionScope) (func(), error) {
	if uc.cache == nil {
		return func() {}, nil
	}

	lockKey := fmt.Sprintf("lock:import:submit:%s", scope.Key())
	lockValue := uuid.New().String()

	acquired := false
	for i := 0; i < 3; i++ {
		ok, err := uc.cache.AcquireLock(ctx, lockKey, lockValue, 30*time.Second)
		if err != nil {
			uc.logger.Error("failed to acquire submit lock", zap.Error(err))
		}
		if ok {
			acquired = true
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if !acquired {
		return nil, errors.Wrap(httputil.ErrConflict, "another submission is in progress")
	}

	return func() {
		if err := uc.cache.ReleaseLock(ctx, lockKey, lockValue); err != nil {
			uc.logger.Warn("failed to release submit lock", zap.Error(err))
		}
	}, nil
}

func (uc *pendingImportUseCase) syncImportedToElastic(ctx context.Context, batch []model.PendingImportItem, imported []dto.ImportedRecord) {
	if uc.es == nil {
		return
	}

	mapping := `{
		"mappings": {
			"properties": {
				"merchant_id": { "type": "keyword" },
				"name": { "type": "text" },
				"sku": { "type": "keyword" },
				"category": { "type": "keyword" },
				"consignor_id": { "type": "keyword" },
				"price": { "type": "double" },
				"imported_at": { "type": "date" }
			}
		}
	}`
	_ = uc.es.CreateIndex(ctx, catalogIndex, mapping)

	byID := map[string]*model.PendingImportItem{}
	for i := range batch {
		byID[batch[i].ID] = &batch[i]
	}

	for _, rec := range imported {
		item, ok := byID[rec.PendingImportID]
		if !ok {
			continue
		}
		doc := map[string]interface{}{
			"merchant_id":  item.MerchantID,
			"name":         item.Name,
			"sku":          item.SKU,
			"category":     item.Category,
			"consignor_id": item.ConsignorID,
			"price":        item.Price,
			"imported_at":  rec.ImportedAt,
		}
		if err := uc.es.Index(ctx, catalogIndex, rec.ItemID, doc); err != nil {
			uc.logger.Error("failed to index imported item",
				zap.String("item_id", rec.ItemID), zap.Error(err))
		}
	}
}
