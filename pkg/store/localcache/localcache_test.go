package localcache

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skcglow/glowpos/pkg/logger"
	"github.com/skcglow/glowpos/pkg/models"
)

func openTestCache(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "cache.db"), logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCache_MissingKeyReturnsFallback(t *testing.T) {
	c := openTestCache(t)

	fallback := []models.CatalogItem{{ID: 1, Name: "Lipstick", Price: 20000, Stock: 3}}
	got := c.LoadCatalog(fallback)
	assert.Equal(t, fallback, got)

	// The fallback is copied, not aliased.
	got[0].Stock = 999
	assert.Equal(t, 3, fallback[0].Stock)
}

func TestCache_SaveLoadRoundTrip(t *testing.T) {
	c := openTestCache(t)

	at := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	catalog := []models.CatalogItem{{ID: 1, Name: "Lipstick", Price: 20000, Stock: 3}}
	sales := []models.SaleRecord{{
		ID:           1,
		CreatedAt:    at,
		Items:        []models.SaleLine{{ProductID: 1, Name: "Lipstick", Qty: 2, UnitPrice: 20000}},
		Total:        40000,
		CustomerName: "Ana",
	}}
	customers := []models.Customer{{ID: 1, Name: "Ana", OrderCount: 1, TotalSpent: 40000, LastPurchaseAt: &at}}

	c.SaveCatalog(catalog)
	c.SaveSales(sales)
	c.SaveCustomers(customers)

	assert.Equal(t, catalog, c.LoadCatalog(nil))
	assert.Equal(t, sales, c.LoadSales(nil))
	assert.Equal(t, customers, c.LoadCustomers(nil))
}

func TestCache_SaveOverwritesPreviousValue(t *testing.T) {
	c := openTestCache(t)

	c.SaveCatalog([]models.CatalogItem{{ID: 1, Name: "old", Price: 1, Stock: 1}})
	c.SaveCatalog([]models.CatalogItem{{ID: 1, Name: "new", Price: 1, Stock: 1}})

	got := c.LoadCatalog(nil)
	require.Len(t, got, 1)
	assert.Equal(t, "new", got[0].Name)
}

func TestCache_CorruptValueReturnsFallback(t *testing.T) {
	c := openTestCache(t)

	_, err := c.db.Exec(
		`INSERT INTO cache (key, value) VALUES (?, ?)`, models.CatalogKey, []byte("{not json"))
	require.NoError(t, err)

	fallback := []models.CatalogItem{{ID: 7, Name: "Fallback", Price: 1, Stock: 1}}
	assert.Equal(t, fallback, c.LoadCatalog(fallback))
}

func TestCache_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")

	c, err := Open(path, logger.Nop())
	require.NoError(t, err)
	c.SaveCatalog([]models.CatalogItem{{ID: 1, Name: "Lipstick", Price: 20000, Stock: 3}})
	require.NoError(t, c.Close())

	reopened, err := Open(path, logger.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	got := reopened.LoadCatalog(nil)
	require.Len(t, got, 1)
	assert.Equal(t, "Lipstick", got[0].Name)
}
