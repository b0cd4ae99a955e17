// internal/domain/inventory/ledger_test.go
package inventory

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/your-org/checkout-engine/internal/domain/catalog"
	"github.com/your-org/checkout-engine/internal/pkg/errs"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&catalog.Product{}))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, quantity, threshold int, tracked bool) catalog.Product {
	t.Helper()
	p := catalog.Product{
		SKU:               uuid.New().String(),
		Name:              "Widget",
		Slug:              uuid.New().String(),
		Price:             1000,
		TrackInventory:    tracked,
		Quantity:          quantity,
		LowStockThreshold: threshold,
		StockStatus:       catalog.StockStatusInStock,
		IsActive:          true,
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

func TestGormLedgerReserveAndRelease(t *testing.T) {
	db := setupDB(t)
	ledger := NewGormLedger()
	p := seedProduct(t, db, 10, 3, true)

	require.NoError(t, ledger.Reserve(db, p.ID, 4))

	available, err := ledger.Available(db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, available)

	require.NoError(t, ledger.Release(db, p.ID, 4))
	available, err = ledger.Available(db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, available)
}

func TestGormLedgerInsufficientStock(t *testing.T) {
	db := setupDB(t)
	ledger := NewGormLedger()
	p := seedProduct(t, db, 2, 1, true)

	err := ledger.Reserve(db, p.ID, 3)
	var stockErr *errs.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, p.ID, stockErr.ProductID)
	assert.Equal(t, "Widget", stockErr.ProductName)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 3, stockErr.Requested)

	// Nothing was decremented by the failed attempt.
	available, err := ledger.Available(db, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, available)
}

func TestGormLedgerStockStatusTransitions(t *testing.T) {
	db := setupDB(t)
	ledger := NewGormLedger()
	p := seedProduct(t, db, 10, 3, true)

	loadStatus := func() string {
		var reloaded catalog.Product
		require.NoError(t, db.First(&reloaded, p.ID).Error)
		return reloaded.StockStatus
	}

	require.NoError(t, ledger.Reserve(db, p.ID, 7))
	assert.Equal(t, catalog.StockStatusLowStock, loadStatus())

	require.NoError(t, ledger.Reserve(db, p.ID, 3))
	assert.Equal(t, catalog.StockStatusOutOfStock, loadStatus())

	require.NoError(t, ledger.Release(db, p.ID, 2))
	assert.Equal(t, catalog.StockStatusLowStock, loadStatus())

	require.NoError(t, ledger.Release(db, p.ID, 8))
	assert.Equal(t, catalog.StockStatusInStock, loadStatus())
}

func TestGormLedgerUntrackedProduct(t *testing.T) {
	db := setupDB(t)
	ledger := NewGormLedger()
	p := seedProduct(t, db, 0, 0, false)

	assert.NoError(t, ledger.Reserve(db, p.ID, 100))
	assert.NoError(t, ledger.Release(db, p.ID, 100))
}

func TestGormLedgerUnknownProduct(t *testing.T) {
	db := setupDB(t)
	ledger := NewGormLedger()

	assert.ErrorIs(t, ledger.Reserve(db, 9999, 1), errs.ErrNotFound)
	assert.ErrorIs(t, ledger.Release(db, 9999, 1), errs.ErrNotFound)
}

func TestGormLedgerRejectsNonPositiveQuantities(t *testing.T) {
	db := setupDB(t)
	ledger := NewGormLedger()
	p := seedProduct(t, db, 5, 1, true)

	var validation *errs.ValidationError
	assert.True(t, errors.As(ledger.Reserve(db, p.ID, 0), &validation))
	assert.True(t, errors.As(ledger.Release(db, p.ID, -1), &validation))
}

func TestMemoryLedgerReserveRelease(t *testing.T) {
	ledger := NewMemoryLedger()
	ledger.SetStock(1, "Widget", 5)

	require.NoError(t, ledger.Reserve(nil, 1, 3))
	available, err := ledger.Available(nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, available)

	err = ledger.Reserve(nil, 1, 3)
	var stockErr *errs.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 2, stockErr.Available)

	require.NoError(t, ledger.Release(nil, 1, 3))
	available, err = ledger.Available(nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, available)
}

func TestMemoryLedgerStockNeverNegative(t *testing.T) {
	ledger := NewMemoryLedger()
	ledger.SetStock(1, "Widget", 3)

	require.NoError(t, ledger.Reserve(nil, 1, 3))
	require.Error(t, ledger.Reserve(nil, 1, 1))

	available, err := ledger.Available(nil, 1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, available, 0)
	assert.Equal(t, 0, available)
}

func TestMemoryLedgerConcurrentLastUnit(t *testing.T) {
	ledger := NewMemoryLedger()
	ledger.SetStock(1, "Widget", 1)

	const contenders = 2
	results := make(chan error, contenders)
	var wg sync.WaitGroup
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- ledger.Reserve(nil, 1, 1)
		}()
	}
	wg.Wait()
	close(results)

	var successes, stockFailures int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var stockErr *errs.InsufficientStockError
		if errors.As(err, &stockErr) {
			stockFailures++
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, stockFailures)

	available, err := ledger.Available(nil, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, available)
}

func TestMemoryLedgerUntracked(t *testing.T) {
	ledger := NewMemoryLedger()
	ledger.SetUntracked(7, "Gift Card")

	assert.NoError(t, ledger.Reserve(nil, 7, 1000))
	assert.NoError(t, ledger.Release(nil, 7, 1000))
}
