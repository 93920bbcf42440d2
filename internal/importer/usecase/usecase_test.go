package usecase

import (
	"context"
	"testing"

	"github.com/avelore/consignpos-import-service/internal/catalog"
	importdto "github.com/avelore/consignpos-import-service/internal/importer/dto"
	"github.com/avelore/consignpos-import-service/internal/model"
	"github.com/avelore/consignpos-import-service/internal/pendingimport/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...zap.Field) {}
func (nopLogger) Info(string, ...zap.Field)  {}
func (nopLogger) Warn(string, ...zap.Field)  {}
func (nopLogger) Error(string, ...zap.Field) {}
func (nopLogger) Fatal(string, ...zap.Field) {}
func (nopLogger) Sync() error                { return nil }

type fakeRepo struct {
	staged []model.PendingImportItem
}

func (f *fakeRepo) Stage(_ context.Context, items []model.PendingImportItem) error {
	f.staged = append(f.staged, items...)
	return nil
}

func (f *fakeRepo) FindAll(context.Context, *dto.ListFilters) ([]model.PendingImportItem, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) FindByIDs(context.Context, string, []string) ([]model.PendingImportItem, error) {
	return nil, nil
}

func (f *fakeRepo) Patch(context.Context, string, string, *dto.PatchInput) (*model.PendingImportItem, error) {
	return nil, nil
}

func (f *fakeRepo) SoftDelete(context.Context, string, string) error { return nil }

func (f *fakeRepo) AssignConsignor(context.Context, string, []string, model.Consignor, bool) error {
	return nil
}

func (f *fakeRepo) SetVerified(context.Context, string, string, bool) error { return nil }

func (f *fakeRepo) MarkImported(context.Context, string, []dto.ImportedRecord) error { return nil }

type fakeDirectory struct {
	consignors []model.Consignor
}

func (f *fakeDirectory) ListConsignors(context.Context, string) ([]model.Consignor, error) {
	return f.consignors, nil
}

type fakeCatalog struct {
	drafts []catalog.ManifestItem
}

func (f *fakeCatalog) CreateItem(context.Context, *catalog.CreateItemInput) (string, error) {
	return "", nil
}

func (f *fakeCatalog) BulkAssignConsignor(context.Context, string, []string, string) (*catalog.BulkAssignResult, error) {
	return &catalog.BulkAssignResult{}, nil
}

func (f *fakeCatalog) ImportVerified(context.Context, string, []string) (*catalog.ImportVerifiedResult, error) {
	return &catalog.ImportVerifiedResult{}, nil
}

func (f *fakeCatalog) CreateFromManifest(context.Context, string, string, bool) ([]catalog.ManifestItem, error) {
	return f.drafts, nil
}

func newTestUseCase(repo *fakeRepo, dir *fakeDirectory, cat *fakeCatalog) *importerUseCase {
	return &importerUseCase{
		store:     repo,
		directory: dir,
		catalog:   cat,
		logger:    nopLogger{},
	}
}

func TestIngestCSV_MatchedRowStagedAssigned(t *testing.T) {
	repo := &fakeRepo{}
	dir := &fakeDirectory{consignors: []model.Consignor{
		{ID: "c-1", Name: "Harriet Kim", Code: "472HK3"},
	}}
	uc := newTestUseCase(repo, dir, &fakeCatalog{})

	content := "Name,Price,ConsignorNumber\nBlue Jacket,45.00,472HK3\n"
	result, err := uc.IngestCSV(context.Background(), "m-1", content)
	require.NoError(t, err)

	assert.Equal(t, 1, result.TotalRows)
	assert.Equal(t, 1, result.StagedCount)
	assert.Equal(t, 1, result.AssignedCount)
	assert.Equal(t, 0, result.UnmatchedCount)
	assert.Equal(t, 0, result.InvalidCount)
	assert.NotEmpty(t, result.UploadToken)

	require.Len(t, repo.staged, 1)
	item := repo.staged[0]
	assert.Equal(t, "Blue Jacket", item.Name)
	assert.True(t, item.Price.Equal(decimal.RequireFromString("45.00")))
	assert.Equal(t, model.StatusAssigned, item.Status)
	require.NotNil(t, item.ConsignorID)
	assert.Equal(t, "c-1", *item.ConsignorID)
	require.NotNil(t, item.ConsignorName)
	assert.Equal(t, "Harriet Kim", *item.ConsignorName)
	assert.Equal(t, model.SourceCSV, item.Source)
	require.NotNil(t, item.SourceReference)
	assert.Equal(t, result.UploadToken, *item.SourceReference)
}

func TestIngestCSV_UnmatchedRowStagedPending(t *testing.T) {
	repo := &fakeRepo{}
	uc := newTestUseCase(repo, &fakeDirectory{}, &fakeCatalog{})

	content := "Name,Price,ConsignorNumber\nBlue Jacket,45.00,472HK3\n"
	result, err := uc.IngestCSV(context.Background(), "m-1", content)
	require.NoError(t, err)

	assert.Equal(t, 1, result.StagedCount)
	assert.Equal(t, 1, result.UnmatchedCount)
	assert.Equal(t, 0, result.AssignedCount)

	require.Len(t, repo.staged, 1)
	item := repo.staged[0]
	assert.Equal(t, model.StatusPending, item.Status)
	assert.Nil(t, item.ConsignorID)
	require.NotNil(t, item.ConsignorNumber)
	assert.Equal(t, "472HK3", *item.ConsignorNumber)
}

func TestIngestCSV_InvalidRowsReportedNotStaged(t *testing.T) {
	repo := &fakeRepo{}
	dir := &fakeDirectory{consignors: []model.Consignor{
		{ID: "c-1", Name: "Harriet Kim", Code: "472HK3"},
	}}
	uc := newTestUseCase(repo, dir, &fakeCatalog{})

	content := "Name,Price,ConsignorNumber\n" +
		"Blue Jacket,45.00,472HK3\n" +
		",45.00,472HK3\n" +
		"Red Scarf,-5,XYZ\n"
	result, err := uc.IngestCSV(context.Background(), "m-1", content)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 1, result.StagedCount)
	assert.Equal(t, 2, result.InvalidCount)
	require.Len(t, result.RowErrors, 2)
	assert.Equal(t, importdto.RowError{Row: 3, Errors: []string{"Name is required"}}, result.RowErrors[0])
	assert.Equal(t, 4, result.RowErrors[1].Row)
	assert.Contains(t, result.RowErrors[1].Errors, "Price must be a positive number")

	require.Len(t, repo.staged, 1)
	assert.Equal(t, "Blue Jacket", repo.staged[0].Name)
}

func TestIngestCSV_DefaultsConditionToGood(t *testing.T) {
	repo := &fakeRepo{}
	uc := newTestUseCase(repo, &fakeDirectory{}, &fakeCatalog{})

	content := "Name,Price,ConsignorNumber,Condition\n" +
		"Blue Jacket,45.00,472HK3,\n" +
		"Red Scarf,12.50,983QW1,LikeNew\n"
	_, err := uc.IngestCSV(context.Background(), "m-1", content)
	require.NoError(t, err)

	require.Len(t, repo.staged, 2)
	assert.Equal(t, model.ConditionGood, repo.staged[0].Condition)
	assert.Equal(t, model.ConditionLikeNew, repo.staged[1].Condition)
}

func TestIngestManifest(t *testing.T) {
	consignorID := "c-1"
	cat := &fakeCatalog{drafts: []catalog.ManifestItem{
		{Name: "Leather Bag", Price: decimal.RequireFromString("80.00"), ConsignorID: &consignorID},
		{Name: "Silk Tie", Price: decimal.RequireFromString("15.00")},
	}}
	repo := &fakeRepo{}
	uc := newTestUseCase(repo, &fakeDirectory{}, cat)

	items, err := uc.IngestManifest(context.Background(), "m-1", "man-7", true)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Len(t, repo.staged, 2)

	assert.Equal(t, model.StatusAssigned, items[0].Status)
	assert.Equal(t, model.StatusPending, items[1].Status)
	for _, item := range items {
		assert.Equal(t, model.SourceManifest, item.Source)
		require.NotNil(t, item.SourceReference)
		assert.Equal(t, "man-7", *item.SourceReference)
	}
}

func TestTemplate(t *testing.T) {
	uc := newTestUseCase(&fakeRepo{}, &fakeDirectory{}, &fakeCatalog{})
	assert.Contains(t, uc.Template(), "Name,Description,SKU,Price,ConsignorNumber")
}
