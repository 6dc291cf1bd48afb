package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skcglow/glowpos/pkg/logger"
	"github.com/skcglow/glowpos/pkg/models"
)

// memCache is an in-memory Cache for tests. It behaves like a fresh sqlite
// file: every key is absent until saved.
type memCache struct {
	catalog   []models.CatalogItem
	sales     []models.SaleRecord
	customers []models.Customer

	haveCatalog   bool
	haveSales     bool
	haveCustomers bool
}

func (m *memCache) LoadCatalog(fallback []models.CatalogItem) []models.CatalogItem {
	if !m.haveCatalog {
		return fallback
	}
	return models.CloneCatalog(m.catalog)
}

func (m *memCache) LoadSales(fallback []models.SaleRecord) []models.SaleRecord {
	if !m.haveSales {
		return fallback
	}
	return models.CloneSales(m.sales)
}

func (m *memCache) LoadCustomers(fallback []models.Customer) []models.Customer {
	if !m.haveCustomers {
		return fallback
	}
	return models.CloneCustomers(m.customers)
}

func (m *memCache) SaveCatalog(catalog []models.CatalogItem) {
	m.catalog = models.CloneCatalog(catalog)
	m.haveCatalog = true
}

func (m *memCache) SaveSales(sales []models.SaleRecord) {
	m.sales = models.CloneSales(sales)
	m.haveSales = true
}

func (m *memCache) SaveCustomers(customers []models.Customer) {
	m.customers = models.CloneCustomers(customers)
	m.haveCustomers = true
}

// recordingQueue captures every enqueued payload.
type recordingQueue struct {
	partials []models.Partial
}

func (r *recordingQueue) Enqueue(p models.Partial) {
	r.partials = append(r.partials, p)
}

func newTestSession(t *testing.T, catalog []models.CatalogItem) (*Session, *memCache, *recordingQueue) {
	t.Helper()
	cache := &memCache{}
	if catalog != nil {
		cache.SaveCatalog(catalog)
	}
	queue := &recordingQueue{}
	return NewSession(cache, queue, logger.Nop()), cache, queue
}

func lipstickCatalog() []models.CatalogItem {
	return []models.CatalogItem{{ID: 1, Name: "Lipstick", Price: 20000, Stock: 3}}
}

func TestNewSession_FallsBackToSeedCatalog(t *testing.T) {
	s, _, _ := newTestSession(t, nil)

	c := s.Collections()
	assert.Equal(t, models.DefaultCatalog(), c.Catalog)
	assert.Empty(t, c.Sales)
	assert.Empty(t, c.Customers)
}

func TestNewSession_PrefersCachedCatalog(t *testing.T) {
	s, _, _ := newTestSession(t, lipstickCatalog())

	c := s.Collections()
	require.Len(t, c.Catalog, 1)
	assert.Equal(t, "Lipstick", c.Catalog[0].Name)
}

func TestRegisterSale_DecrementsStockAndRecordsTotal(t *testing.T) {
	s, cache, queue := newTestSession(t, lipstickCatalog())

	sale, err := s.RegisterSale(SaleInput{
		ProductID: 1,
		Qty:       2,
		Customer:  CustomerInput{Name: "Ana", Phone: "3000000000"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, sale.ID)
	assert.Equal(t, float64(40000), sale.Total)
	require.Len(t, sale.Items, 1)
	assert.Equal(t, 2, sale.Items[0].Qty)
	assert.Equal(t, float64(20000), sale.Items[0].UnitPrice)

	c := s.Collections()
	assert.Equal(t, 1, c.Catalog[0].Stock)
	require.Len(t, c.Sales, 1)
	require.Len(t, c.Customers, 1)
	assert.Equal(t, "Ana", c.Customers[0].Name)
	assert.Equal(t, 1, c.Customers[0].OrderCount)
	assert.Equal(t, float64(40000), c.Customers[0].TotalSpent)
	require.NotNil(t, c.Customers[0].LastPurchaseAt)
	assert.Equal(t, sale.CreatedAt, *c.Customers[0].LastPurchaseAt)

	// Durable cache and replication queue both saw all three collections.
	assert.True(t, cache.haveCatalog)
	assert.True(t, cache.haveSales)
	assert.True(t, cache.haveCustomers)
	require.Len(t, queue.partials, 3)
	assert.NotNil(t, queue.partials[0].Catalog)
	assert.NotNil(t, queue.partials[1].Sales)
	assert.NotNil(t, queue.partials[2].Customers)
}

func TestRegisterSale_RepeatPurchaseReusesCustomer(t *testing.T) {
	s, _, _ := newTestSession(t, lipstickCatalog())

	_, err := s.RegisterSale(SaleInput{ProductID: 1, Qty: 2, Customer: CustomerInput{Name: "Ana", Phone: "3000000000"}})
	require.NoError(t, err)
	_, err = s.RegisterSale(SaleInput{ProductID: 1, Qty: 1, Customer: CustomerInput{Name: "Ana Maria", Phone: "3000000000"}})
	require.NoError(t, err)

	c := s.Collections()
	assert.Equal(t, 0, c.Catalog[0].Stock)
	assert.Len(t, c.Sales, 2)
	require.Len(t, c.Customers, 1, "phone match must not create a duplicate")
	assert.Equal(t, "Ana Maria", c.Customers[0].Name, "fresh sale data overwrites the record")
	assert.Equal(t, 2, c.Customers[0].OrderCount)
	assert.Equal(t, float64(60000), c.Customers[0].TotalSpent)
}

func TestRegisterSale_MatchesByNameCaseInsensitive(t *testing.T) {
	s, _, _ := newTestSession(t, lipstickCatalog())

	_, err := s.RegisterSale(SaleInput{ProductID: 1, Qty: 1, Customer: CustomerInput{Name: "Ana"}})
	require.NoError(t, err)
	_, err = s.RegisterSale(SaleInput{ProductID: 1, Qty: 1, Customer: CustomerInput{Name: "  ANA  "}})
	require.NoError(t, err)

	c := s.Collections()
	require.Len(t, c.Customers, 1)
	assert.Equal(t, 2, c.Customers[0].OrderCount)
}

func TestRegisterSale_PhoneMatchBeatsNameMismatch(t *testing.T) {
	s, _, _ := newTestSession(t, []models.CatalogItem{{ID: 1, Name: "Lipstick", Price: 20000, Stock: 10}})

	_, err := s.RegisterSale(SaleInput{ProductID: 1, Qty: 1, Customer: CustomerInput{Name: "Ana", Phone: "3000000000"}})
	require.NoError(t, err)
	_, err = s.RegisterSale(SaleInput{ProductID: 1, Qty: 1, Customer: CustomerInput{Name: "Completely Different", Phone: "3000000000"}})
	require.NoError(t, err)

	c := s.Collections()
	require.Len(t, c.Customers, 1)
	assert.Equal(t, 2, c.Customers[0].OrderCount)
}

func TestRegisterSale_InsufficientStockLeavesStateUntouched(t *testing.T) {
	s, _, queue := newTestSession(t, lipstickCatalog())
	before := s.Collections()
	enqueued := len(queue.partials)

	_, err := s.RegisterSale(SaleInput{ProductID: 1, Qty: 5, Customer: CustomerInput{Name: "Ana"}})

	var stockErr *StockInsufficientError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.ProductID)
	assert.Equal(t, 3, stockErr.Available)

	after := s.Collections()
	assert.Equal(t, before, after, "failed registration must not mutate any collection")
	assert.Len(t, queue.partials, enqueued, "failed registration must not replicate")
}

func TestRegisterSale_PreconditionOrder(t *testing.T) {
	s, _, _ := newTestSession(t, lipstickCatalog())

	// Unknown product wins even when qty is also bad.
	_, err := s.RegisterSale(SaleInput{ProductID: 99, Qty: 0, Customer: CustomerInput{Name: ""}})
	assert.ErrorIs(t, err, ErrUnknownProduct)

	// Bad qty wins over insufficient stock and missing name.
	_, err = s.RegisterSale(SaleInput{ProductID: 1, Qty: 0, Customer: CustomerInput{Name: ""}})
	assert.ErrorIs(t, err, ErrInvalidQty)

	// Stock check runs before the name check.
	_, err = s.RegisterSale(SaleInput{ProductID: 1, Qty: 5, Customer: CustomerInput{Name: ""}})
	var stockErr *StockInsufficientError
	assert.ErrorAs(t, err, &stockErr)

	// Blank name is the last precondition.
	_, err = s.RegisterSale(SaleInput{ProductID: 1, Qty: 1, Customer: CustomerInput{Name: "   "}})
	assert.ErrorIs(t, err, ErrCustomerName)
}

func TestRegisterSale_IDAllocationSkipsGaps(t *testing.T) {
	s, _, _ := newTestSession(t, []models.CatalogItem{{ID: 1, Name: "Lipstick", Price: 20000, Stock: 10}})

	first, err := s.RegisterSale(SaleInput{ProductID: 1, Qty: 1, Customer: CustomerInput{Name: "Ana"}})
	require.NoError(t, err)
	second, err := s.RegisterSale(SaleInput{ProductID: 1, Qty: 1, Customer: CustomerInput{Name: "Bea"}})
	require.NoError(t, err)

	assert.Equal(t, first.ID+1, second.ID)
}

func TestAddProduct_ValidatesAndAllocatesID(t *testing.T) {
	s, _, _ := newTestSession(t, lipstickCatalog())

	_, err := s.AddProduct(ProductInput{Name: "  ", Price: 100, Stock: 1})
	assert.ErrorIs(t, err, ErrProductName)
	_, err = s.AddProduct(ProductInput{Name: "Gloss", Price: 0, Stock: 1})
	assert.ErrorIs(t, err, ErrProductPrice)
	_, err = s.AddProduct(ProductInput{Name: "Gloss", Price: 100, Stock: -1})
	assert.ErrorIs(t, err, ErrProductStock)

	item, err := s.AddProduct(ProductInput{Name: "Gloss", Price: 18000, Stock: 4})
	require.NoError(t, err)
	assert.Equal(t, 2, item.ID)
	assert.Equal(t, models.DefaultProductImage, item.Image)
}

func TestUpdateProduct_ReplacesFieldsKeepingID(t *testing.T) {
	s, _, _ := newTestSession(t, lipstickCatalog())

	item, err := s.UpdateProduct(1, ProductInput{Name: "Lipstick Pro", Price: 25000, Stock: 7})
	require.NoError(t, err)
	assert.Equal(t, 1, item.ID)
	assert.Equal(t, "Lipstick Pro", item.Name)

	_, err = s.UpdateProduct(42, ProductInput{Name: "Ghost", Price: 1, Stock: 0})
	assert.ErrorIs(t, err, ErrUnknownProduct)
}

func TestDeleteProduct_KeepsSaleHistory(t *testing.T) {
	s, _, _ := newTestSession(t, lipstickCatalog())

	_, err := s.RegisterSale(SaleInput{ProductID: 1, Qty: 1, Customer: CustomerInput{Name: "Ana"}})
	require.NoError(t, err)
	require.NoError(t, s.DeleteProduct(1))

	c := s.Collections()
	assert.Empty(t, c.Catalog)
	require.Len(t, c.Sales, 1)
	assert.Equal(t, "Lipstick", c.Sales[0].Items[0].Name)

	assert.ErrorIs(t, s.DeleteProduct(1), ErrUnknownProduct)
}

func TestRestoreCatalog_ReinstatesSeed(t *testing.T) {
	s, _, _ := newTestSession(t, lipstickCatalog())

	s.RestoreCatalog()
	assert.Equal(t, models.DefaultCatalog(), s.Collections().Catalog)
}

func TestAddAndDeleteCustomer(t *testing.T) {
	s, _, _ := newTestSession(t, nil)

	_, err := s.AddCustomer(CustomerInput{Name: "   "})
	assert.ErrorIs(t, err, ErrCustomerName)

	c, err := s.AddCustomer(CustomerInput{Name: " Bea ", Phone: " 311 ", City: "Cali"})
	require.NoError(t, err)
	assert.Equal(t, "Bea", c.Name)
	assert.Equal(t, "311", c.Phone)
	assert.Equal(t, 0, c.OrderCount)
	assert.Nil(t, c.LastPurchaseAt)

	require.NoError(t, s.DeleteCustomer(c.ID))
	assert.ErrorIs(t, s.DeleteCustomer(c.ID), ErrUnknownCustomer)
}

func TestClearSales_KeepsCustomerCounters(t *testing.T) {
	s, _, _ := newTestSession(t, lipstickCatalog())

	_, err := s.RegisterSale(SaleInput{ProductID: 1, Qty: 2, Customer: CustomerInput{Name: "Ana"}})
	require.NoError(t, err)

	s.ClearSales()

	c := s.Collections()
	assert.Empty(t, c.Sales)
	assert.Equal(t, 1, c.Catalog[0].Stock, "stock stays decremented")
	require.Len(t, c.Customers, 1)
	assert.Equal(t, 1, c.Customers[0].OrderCount, "counters survive a ledger wipe")
}

func TestReset_RestoresEverything(t *testing.T) {
	s, cache, queue := newTestSession(t, lipstickCatalog())

	_, err := s.RegisterSale(SaleInput{ProductID: 1, Qty: 1, Customer: CustomerInput{Name: "Ana"}})
	require.NoError(t, err)

	queue.partials = nil
	s.Reset()

	c := s.Collections()
	assert.Equal(t, models.DefaultCatalog(), c.Catalog)
	assert.Empty(t, c.Sales)
	assert.Empty(t, c.Customers)
	assert.Equal(t, models.DefaultCatalog(), cache.catalog)
	assert.Len(t, queue.partials, 3)
}

func TestReconcile_AdoptsRemoteDocument(t *testing.T) {
	s, cache, queue := newTestSession(t, lipstickCatalog())

	remote := models.Document{
		Catalog:   []models.CatalogItem{{ID: 9, Name: "Remote Item", Price: 100, Stock: 1}},
		Sales:     []models.SaleRecord{},
		Customers: []models.Customer{{ID: 1, Name: "Remote Ana"}},
		Source:    models.SourceClient,
	}
	before := len(queue.partials)
	s.Reconcile(remote, "remote")

	c := s.Collections()
	assert.Equal(t, remote.Catalog, c.Catalog)
	assert.Equal(t, remote.Customers, c.Customers)
	assert.Equal(t, remote.Catalog, cache.catalog, "reconcile writes through to the cache")
	assert.Len(t, queue.partials, before, "reconcile must not re-enqueue")
}

func TestImport_ReplacesCollectionsWholesale(t *testing.T) {
	s, _, _ := newTestSession(t, lipstickCatalog())
	_, err := s.RegisterSale(SaleInput{ProductID: 1, Qty: 1, Customer: CustomerInput{Name: "Ana"}})
	require.NoError(t, err)

	raw := []byte(`{"data":{"catalog":[{"id":5,"name":"Imported","price":100,"stock":2}],"sales":[],"customers":[]}}`)
	require.NoError(t, s.Import(raw))

	c := s.Collections()
	require.Len(t, c.Catalog, 1)
	assert.Equal(t, "Imported", c.Catalog[0].Name)
	assert.Empty(t, c.Sales)
	assert.Empty(t, c.Customers)
}

func TestImport_MalformedLeavesStateUntouched(t *testing.T) {
	s, _, _ := newTestSession(t, lipstickCatalog())
	before := s.Collections()

	err := s.Import([]byte(`{"catalog":[],"sales":"not-an-array","customers":[]}`))
	require.Error(t, err)
	assert.Equal(t, before, s.Collections())
}

func TestCollections_ReturnsIndependentCopy(t *testing.T) {
	s, _, _ := newTestSession(t, lipstickCatalog())

	c := s.Collections()
	c.Catalog[0].Stock = 999

	assert.Equal(t, 3, s.Collections().Catalog[0].Stock)
}
