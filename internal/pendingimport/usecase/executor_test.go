package usecase

import (
	"context"
	"testing"

	"github.com/avelore/consignpos-import-service/internal/catalog"
	"github.com/avelore/consignpos-import-service/internal/model"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executorBatch(ids ...string) []model.PendingImportItem {
	items := make([]model.PendingImportItem, 0, len(ids))
	for _, id := range ids {
		items = append(items, *stagedItem(id, "m-1", model.StatusVerified, "c-1"))
	}
	return items
}

func TestCommit_PrefersBulkEndpoint(t *testing.T) {
	cat := &fakeCatalog{bulkResult: &catalog.ImportVerifiedResult{
		Outcome: catalog.OutcomeSuccess,
		Imported: []catalog.ImportedRecord{
			{PendingImportID: "p-1", ItemID: "item-1"},
			{PendingImportID: "p-2", ItemID: "item-2"},
		},
	}}
	exec := newCommitExecutor(cat, nopLogger{})

	result := exec.commit(context.Background(), "m-1", executorBatch("p-1", "p-2"))

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Successful)
	assert.Empty(t, cat.createdInputs) // never fell back to per-item creates

	require.Len(t, result.Imported, 2)
	assert.Equal(t, "p-1", result.Imported[0].PendingImportID)
	assert.Equal(t, "item-1", result.Imported[0].ItemID)
	assert.False(t, result.Imported[0].ImportedAt.IsZero())
}

func TestCommit_BulkPartialResult(t *testing.T) {
	cat := &fakeCatalog{bulkResult: &catalog.ImportVerifiedResult{
		Outcome: catalog.OutcomePartial,
		Imported: []catalog.ImportedRecord{
			{PendingImportID: "p-1", ItemID: "item-1"},
		},
	}}
	exec := newCommitExecutor(cat, nopLogger{})

	result := exec.commit(context.Background(), "m-1", executorBatch("p-1", "p-2"))

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []string{"p-2"}, result.FailedIDs)
}

func TestCommit_FallsBackToPerItem(t *testing.T) {
	cat := &fakeCatalog{bulkErr: errors.New("bulk endpoint unavailable")}
	exec := newCommitExecutor(cat, nopLogger{})

	result := exec.commit(context.Background(), "m-1", executorBatch("p-1", "p-2", "p-3"))

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 3, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Len(t, cat.createdInputs, 3)
	assert.Equal(t, result.Total, result.Successful+result.Failed)
}

// One failing create never aborts its siblings.
func TestCommitPerItem_IsolatesFailures(t *testing.T) {
	cat := &fakeCatalog{failCreate: map[string]error{
		"Item p-2": errors.New("duplicate SKU"),
		"Item p-4": errors.New("duplicate SKU"),
	}}
	exec := newCommitExecutor(cat, nopLogger{})

	result := exec.commitPerItem(context.Background(), executorBatch("p-1", "p-2", "p-3", "p-4", "p-5"))

	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 3, result.Successful)
	assert.Equal(t, 2, result.Failed)
	assert.ElementsMatch(t, []string{"p-2", "p-4"}, result.FailedIDs)

	imported := make([]string, 0, len(result.Imported))
	for _, rec := range result.Imported {
		imported = append(imported, rec.PendingImportID)
	}
	assert.ElementsMatch(t, []string{"p-1", "p-3", "p-5"}, imported)
}

func TestToCreateInput(t *testing.T) {
	item := stagedItem("p-1", "m-1", model.StatusVerified, "c-1")
	item.SKU = strPtr("BDJ-001")
	item.Category = strPtr("Outerwear")

	input := toCreateInput(item)

	assert.Equal(t, "m-1", input.MerchantID)
	assert.Equal(t, "Item p-1", input.Name)
	assert.Equal(t, "c-1", input.ConsignorID)
	assert.Equal(t, "Good", input.Condition)
	require.NotNil(t, input.SKU)
	assert.Equal(t, "BDJ-001", *input.SKU)
	assert.True(t, input.Price.Equal(item.Price))
}
