package warehouse

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"pharmawarehouse/m/domain"
	"pharmawarehouse/m/internal/migrations"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	db, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	migrations.Run(db)
	return New(db)
}

func createTestDrug(t *testing.T, svc *Service) domain.Drug {
	t.Helper()
	ctx := context.Background()
	category, err := svc.CreateCategory(ctx, "Test Category")
	require.NoError(t, err)

	drug, err := svc.CreateDrug(ctx, CreateDrugInput{
		Name:       "Test Drug",
		Code:       "TEST001",
		Price:      10.99,
		Stock:      100,
		CategoryID: category.ID,
	})
	require.NoError(t, err)
	return drug
}

func serviceError(t *testing.T, err error) *Error {
	t.Helper()
	require.Error(t, err)
	svcErr, ok := err.(*Error)
	require.True(t, ok, "expected *warehouse.Error, got %T: %v", err, err)
	return svcErr
}

func TestCreateCategory(t *testing.T) {
	svc := newTestService(t)

	category, err := svc.CreateCategory(context.Background(), "Analgesics")
	require.NoError(t, err)
	assert.NotZero(t, category.ID)
	assert.Equal(t, "Analgesics", category.Name)
	assert.False(t, category.CreatedAt.IsZero())
	assert.Nil(t, category.UpdatedAt)
	assert.Zero(t, category.Version)

	_, err = svc.CreateCategory(context.Background(), "A")
	svcErr := serviceError(t, err)
	assert.Equal(t, KindValidation, svcErr.Kind)
	require.Len(t, svcErr.Violations, 1)
	assert.Equal(t, "name", svcErr.Violations[0].Path)
}

func TestCreateDrug(t *testing.T) {
	svc := newTestService(t)
	drug := createTestDrug(t, svc)

	assert.NotZero(t, drug.ID)
	assert.Equal(t, "Test Drug", drug.Name)
	assert.Equal(t, "TEST001", drug.Code)
	assert.Equal(t, 10.99, drug.Price)
	assert.Equal(t, int64(100), drug.Stock)
	assert.Zero(t, drug.Version)
	assert.False(t, drug.CreatedAt.IsZero())
	assert.Nil(t, drug.UpdatedAt)

	// persisted state round-trips, including microsecond timestamps
	loaded, err := svc.GetDrug(context.Background(), drug.ID)
	require.NoError(t, err)
	assert.Equal(t, drug.ID, loaded.ID)
	assert.Equal(t, drug.Code, loaded.Code)
	assert.Equal(t, drug.Stock, loaded.Stock)
	assert.True(t, loaded.CreatedAt.Equal(drug.CreatedAt.Time))
}

func TestCreateDrugValidation(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateDrug(context.Background(), CreateDrugInput{
		Name:       "",
		Code:       "X",
		Price:      -1,
		Stock:      -5,
		CategoryID: 0,
	})
	svcErr := serviceError(t, err)
	assert.Equal(t, KindValidation, svcErr.Kind)
	assert.Len(t, svcErr.Violations, 5)
}

func TestCreateDrugCategoryNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateDrug(context.Background(), CreateDrugInput{
		Name:       "Test Drug",
		Code:       "TEST001",
		Price:      10.99,
		Stock:      100,
		CategoryID: 999,
	})
	svcErr := serviceError(t, err)
	assert.Equal(t, KindNotFound, svcErr.Kind)
	assert.Equal(t, "Category not found", svcErr.Message)
}

func TestCreateDrugDuplicateCode(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	first := createTestDrug(t, svc)

	_, err := svc.CreateDrug(ctx, CreateDrugInput{
		Name:       "Other Drug",
		Code:       "TEST001",
		Price:      5,
		Stock:      10,
		CategoryID: first.CategoryID,
	})
	svcErr := serviceError(t, err)
	assert.Equal(t, KindDuplicate, svcErr.Kind)

	// the first drug is unaffected and no second row exists
	all, err := svc.ListAllDrugs(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, first.ID, all[0].ID)
}

func TestListAllDrugs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	all, err := svc.ListAllDrugs(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	createTestDrug(t, svc)

	all, err = svc.ListAllDrugs(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestListDrugsPagination(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	result, err := svc.ListDrugs(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 10, result.Limit)
	assert.Zero(t, result.TotalItems)
	assert.Zero(t, result.TotalPages)
	assert.Empty(t, result.Items)

	category, err := svc.CreateCategory(ctx, "Test Category")
	require.NoError(t, err)
	for i := 1; i <= 15; i++ {
		_, err := svc.CreateDrug(ctx, CreateDrugInput{
			Name:       fmt.Sprintf("Drug %02d", i),
			Code:       fmt.Sprintf("DRUG%02d", i),
			Price:      1,
			Stock:      0,
			CategoryID: category.ID,
		})
		require.NoError(t, err)
	}

	result, err = svc.ListDrugs(ctx, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(15), result.TotalItems)
	assert.Equal(t, 2, result.TotalPages)
	require.Len(t, result.Items, 10)
	// newest first
	assert.Equal(t, "DRUG15", result.Items[0].Code)

	result, err = svc.ListDrugs(ctx, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Page)
	require.Len(t, result.Items, 5)
	assert.Equal(t, "DRUG01", result.Items[4].Code)
}

func TestListDrugsClamping(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	result, err := svc.ListDrugs(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 1, result.Limit)

	result, err = svc.ListDrugs(ctx, -3, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 50, result.Limit)
}

func TestCreateTransfer(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	drug := createTestDrug(t, svc)

	transfer, err := svc.CreateTransfer(ctx, domain.TransferIn, drug.ID, 10)
	require.NoError(t, err)
	assert.NotZero(t, transfer.ID)
	assert.Equal(t, domain.TransferIn, transfer.Type)
	assert.Equal(t, drug.ID, transfer.DrugID)
	assert.Equal(t, int64(10), transfer.Quantity)
	assert.False(t, transfer.TransferDate.IsZero())

	loaded, err := svc.GetDrug(ctx, drug.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(110), loaded.Stock)
	assert.Equal(t, int64(1), loaded.Version)
	require.NotNil(t, loaded.UpdatedAt)
	assert.True(t, loaded.UpdatedAt.After(loaded.CreatedAt.Time) || loaded.UpdatedAt.Equal(loaded.CreatedAt.Time))

	transfer, err = svc.CreateTransfer(ctx, domain.TransferOut, drug.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferOut, transfer.Type)
	assert.Equal(t, int64(100), transfer.Quantity)

	loaded, err = svc.GetDrug(ctx, drug.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), loaded.Stock)
	assert.Equal(t, int64(2), loaded.Version)
}

func TestCreateTransferDrugNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateTransfer(context.Background(), domain.TransferIn, 999, 10)
	svcErr := serviceError(t, err)
	assert.Equal(t, KindNotFound, svcErr.Kind)
	assert.Equal(t, "Drug not found", svcErr.Message)
}

func TestCreateTransferInsufficientStock(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	drug := createTestDrug(t, svc)

	_, err := svc.CreateTransfer(ctx, domain.TransferOut, drug.ID, 1000)
	svcErr := serviceError(t, err)
	assert.Equal(t, KindDomainRule, svcErr.Kind)
	assert.Equal(t, "Insufficient stock", svcErr.Message)

	// no partial deduction and no ledger entry
	loaded, err := svc.GetDrug(ctx, drug.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), loaded.Stock)
	assert.Equal(t, drug.Version, loaded.Version)

	result, err := svc.GetTransfers(ctx, 1, 10, nil, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, result.TotalItems)
}

func TestCreateTransferValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	drug := createTestDrug(t, svc)

	tests := []struct {
		name     string
		typ      domain.TransferType
		drugID   int64
		quantity int64
		path     string
		message  string
	}{
		{"missing type", "", drug.ID, 10, "type", "must not be null"},
		{"unknown type", "SIDEWAYS", drug.ID, 10, "type", "must be IN or OUT"},
		{"negative drug id", domain.TransferIn, -1, 10, "drugId", "must be greater than 0"},
		{"negative quantity", domain.TransferIn, drug.ID, -10, "quantity", "must be greater than 0"},
		{"zero quantity", domain.TransferIn, drug.ID, 0, "quantity", "must be greater than 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateTransfer(ctx, tt.typ, tt.drugID, tt.quantity)
			svcErr := serviceError(t, err)
			assert.Equal(t, KindValidation, svcErr.Kind)
			require.Len(t, svcErr.Violations, 1)
			assert.Equal(t, tt.path, svcErr.Violations[0].Path)
			assert.Equal(t, tt.message, svcErr.Violations[0].Message)
		})
	}

	// validation runs before any persistence attempt
	loaded, err := svc.GetDrug(ctx, drug.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), loaded.Stock)
}

func TestStockConservation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	drug := createTestDrug(t, svc)

	expected := drug.Stock
	moves := []struct {
		typ      domain.TransferType
		quantity int64
	}{
		{domain.TransferIn, 25},
		{domain.TransferOut, 40},
		{domain.TransferIn, 5},
		{domain.TransferOut, 90},
		{domain.TransferIn, 100},
	}

	for _, move := range moves {
		_, err := svc.CreateTransfer(ctx, move.typ, drug.ID, move.quantity)
		require.NoError(t, err)
		expected += move.typ.Delta(move.quantity)

		loaded, err := svc.GetDrug(ctx, drug.ID)
		require.NoError(t, err)
		assert.Equal(t, expected, loaded.Stock)
	}

	result, err := svc.GetTransfers(ctx, 1, 50, []int64{drug.ID}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(len(moves)), result.TotalItems)
}

func TestUpdateDrugStockConflict(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	drug := createTestDrug(t, svc)

	// a writer holding a stale version must not win
	err := updateDrugStock(ctx, svc.db, drug.ID, drug.Version+5, 42, time.Now())
	svcErr := serviceError(t, err)
	assert.Equal(t, KindConflict, svcErr.Kind)

	loaded, err := svc.GetDrug(ctx, drug.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), loaded.Stock)

	// the current version wins
	require.NoError(t, updateDrugStock(ctx, svc.db, drug.ID, drug.Version, 42, time.Now()))
	loaded, err = svc.GetDrug(ctx, drug.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), loaded.Stock)
	assert.Equal(t, drug.Version+1, loaded.Version)
}

func TestGetTransfersFilters(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	drug := createTestDrug(t, svc)

	from := time.Now().Add(-24 * time.Hour)
	to := time.Now().Add(24 * time.Hour)

	result, err := svc.GetTransfers(ctx, 1, 10, nil, &from, &to)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 10, result.Limit)
	assert.Zero(t, result.TotalItems)
	assert.Zero(t, result.TotalPages)
	assert.Empty(t, result.Items)

	transfer, err := svc.CreateTransfer(ctx, domain.TransferIn, drug.ID, 10)
	require.NoError(t, err)

	assertSingle := func(result domain.PagedResult[domain.Transfer]) {
		t.Helper()
		assert.Equal(t, int64(1), result.TotalItems)
		assert.Equal(t, 1, result.TotalPages)
		require.Len(t, result.Items, 1)
		assert.Equal(t, transfer.ID, result.Items[0].ID)
	}

	result, err = svc.GetTransfers(ctx, 1, 10, []int64{drug.ID}, &from, &to)
	require.NoError(t, err)
	assertSingle(result)

	result, err = svc.GetTransfers(ctx, 1, 10, []int64{drug.ID}, &from, nil)
	require.NoError(t, err)
	assertSingle(result)

	result, err = svc.GetTransfers(ctx, 1, 10, []int64{drug.ID}, nil, &to)
	require.NoError(t, err)
	assertSingle(result)

	result, err = svc.GetTransfers(ctx, 1, 10, []int64{drug.ID}, nil, nil)
	require.NoError(t, err)
	assertSingle(result)

	// window entirely before the movement
	before := from.Add(-48 * time.Hour)
	beforeEnd := from.Add(-24 * time.Hour)
	result, err = svc.GetTransfers(ctx, 1, 10, []int64{drug.ID}, &before, &beforeEnd)
	require.NoError(t, err)
	assert.Zero(t, result.TotalItems)
	assert.Zero(t, result.TotalPages)

	// window entirely after the movement
	after := to.Add(24 * time.Hour)
	afterEnd := to.Add(48 * time.Hour)
	result, err = svc.GetTransfers(ctx, 1, 10, []int64{drug.ID}, &after, &afterEnd)
	require.NoError(t, err)
	assert.Zero(t, result.TotalItems)

	// unknown drug id
	result, err = svc.GetTransfers(ctx, 1, 10, []int64{999}, nil, nil)
	require.NoError(t, err)
	assert.Zero(t, result.TotalItems)
}

func TestGetTransfersFiltersByDrug(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	first := createTestDrug(t, svc)

	second, err := svc.CreateDrug(ctx, CreateDrugInput{
		Name:       "Other Drug",
		Code:       "TEST002",
		Price:      3.5,
		Stock:      50,
		CategoryID: first.CategoryID,
	})
	require.NoError(t, err)

	_, err = svc.CreateTransfer(ctx, domain.TransferIn, first.ID, 5)
	require.NoError(t, err)
	_, err = svc.CreateTransfer(ctx, domain.TransferIn, second.ID, 7)
	require.NoError(t, err)
	_, err = svc.CreateTransfer(ctx, domain.TransferOut, second.ID, 2)
	require.NoError(t, err)

	result, err := svc.GetTransfers(ctx, 1, 10, []int64{second.ID}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.TotalItems)
	for _, item := range result.Items {
		assert.Equal(t, second.ID, item.DrugID)
	}

	result, err = svc.GetTransfers(ctx, 1, 10, []int64{first.ID, second.ID}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.TotalItems)
}

func TestGetTransfersPagination(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	drug := createTestDrug(t, svc)

	for i := 0; i < 5; i++ {
		_, err := svc.CreateTransfer(ctx, domain.TransferIn, drug.ID, 1)
		require.NoError(t, err)
	}

	result, err := svc.GetTransfers(ctx, 1, 2, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(5), result.TotalItems)
	assert.Equal(t, 3, result.TotalPages)
	assert.Len(t, result.Items, 2)

	result, err = svc.GetTransfers(ctx, 3, 2, nil, nil, nil)
	require.NoError(t, err)
	assert.Len(t, result.Items, 1)

	// newest first
	result, err = svc.GetTransfers(ctx, 1, 50, nil, nil, nil)
	require.NoError(t, err)
	require.Len(t, result.Items, 5)
	for i := 1; i < len(result.Items); i++ {
		assert.True(t, result.Items[i-1].ID > result.Items[i].ID)
	}

	// clamped inputs
	result, err = svc.GetTransfers(ctx, 0, 1000, nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 50, result.Limit)
}
