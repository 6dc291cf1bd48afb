// Package ops implements the domain operations of the point-of-sale data
// core: sale registration, catalog and customer maintenance, clearing and
// restoring collections. A Session holds the three collections in memory and
// persists every mutation to the local cache and the replication queue.
//
// Every operation mutates memory first and returns before any network
// traffic happens. Replication is best effort and never blocks or fails an
// operation.
package ops

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/skcglow/glowpos/pkg/backup"
	"github.com/skcglow/glowpos/pkg/client"
	"github.com/skcglow/glowpos/pkg/models"
	"github.com/skcglow/glowpos/pkg/syncqueue"
)

// Cache is the durable local store the session reads on startup and writes
// after every mutation. *localcache.Cache satisfies it.
type Cache interface {
	LoadCatalog(fallback []models.CatalogItem) []models.CatalogItem
	LoadSales(fallback []models.SaleRecord) []models.SaleRecord
	LoadCustomers(fallback []models.Customer) []models.Customer
	SaveCatalog(catalog []models.CatalogItem)
	SaveSales(sales []models.SaleRecord)
	SaveCustomers(customers []models.Customer)
}

// Replicator receives the changed collections after each mutation.
// *syncqueue.Queue satisfies it.
type Replicator interface {
	Enqueue(partial models.Partial)
}

// Fetcher retrieves the remote document during hydration.
// *client.Gateway satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context) (*client.Response, error)
}

// ProductInput is the validated form input for catalog entries.
type ProductInput struct {
	Name        string
	Price       float64
	Stock       int
	Category    string
	Description string
	Image       string
}

// CustomerInput is the customer portion of a sale or a roster entry.
type CustomerInput struct {
	Name  string
	Phone string
	Email string
	City  string
}

// SaleInput describes one sale to register.
type SaleInput struct {
	ProductID int
	Qty       int
	Customer  CustomerInput
	Channel   string
	Notes     string
}

// Session owns the in-memory collections and serializes all access to them.
type Session struct {
	mu        sync.Mutex
	catalog   []models.CatalogItem
	sales     []models.SaleRecord
	customers []models.Customer

	cache Cache
	queue Replicator
	log   zerolog.Logger
}

// NewSession loads the collections from the cache, falling back to the seed
// catalog and empty sales and customer lists, and registers the session as
// the reconcile target of the queue when it is a *syncqueue.Queue.
func NewSession(cache Cache, queue Replicator, log zerolog.Logger) *Session {
	s := &Session{
		cache: cache,
		queue: queue,
		log:   log,
	}
	s.catalog = cache.LoadCatalog(models.DefaultCatalog())
	s.sales = cache.LoadSales([]models.SaleRecord{})
	s.customers = cache.LoadCustomers([]models.Customer{})
	if q, ok := queue.(*syncqueue.Queue); ok {
		q.OnDocument(s.Reconcile)
	}
	return s
}

// Collections returns a deep copy of the current state.
func (s *Session) Collections() models.Collections {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Session) snapshot() models.Collections {
	return models.Collections{
		Catalog:   models.CloneCatalog(s.catalog),
		Sales:     models.CloneSales(s.sales),
		Customers: models.CloneCustomers(s.customers),
	}
}

// RegisterSale decrements stock, appends a sale record and upserts the
// buying customer as one atomic step. All preconditions are checked before
// anything is mutated, so a failed registration leaves every collection
// untouched.
func (s *Session) RegisterSale(in SaleInput) (models.SaleRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.catalog {
		if s.catalog[i].ID == in.ProductID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.SaleRecord{}, ErrUnknownProduct
	}
	if in.Qty <= 0 {
		return models.SaleRecord{}, ErrInvalidQty
	}
	product := &s.catalog[idx]
	if product.Stock < in.Qty {
		return models.SaleRecord{}, &StockInsufficientError{ProductID: product.ID, Available: product.Stock}
	}
	name := strings.TrimSpace(in.Customer.Name)
	if name == "" {
		return models.SaleRecord{}, ErrCustomerName
	}

	product.Stock -= in.Qty
	sale := models.SaleRecord{
		ID:        models.NextSaleID(s.sales),
		CreatedAt: time.Now().UTC(),
		Items: []models.SaleLine{{
			ProductID: product.ID,
			Name:      product.Name,
			Qty:       in.Qty,
			UnitPrice: product.Price,
		}},
		Total:         product.Price * float64(in.Qty),
		CustomerName:  name,
		CustomerPhone: strings.TrimSpace(in.Customer.Phone),
		CustomerEmail: strings.TrimSpace(in.Customer.Email),
		Channel:       in.Channel,
		Notes:         strings.TrimSpace(in.Notes),
	}
	s.sales = append(s.sales, sale)
	s.upsertCustomerFromSale(sale)

	s.persistAll()
	s.log.Info().Int("sale", sale.ID).Int("product", product.ID).
		Int("qty", in.Qty).Float64("total", sale.Total).Msg("sale registered")
	return sale, nil
}

// upsertCustomerFromSale matches the buyer against the roster by phone or by
// case-insensitive name, preferring the earliest inserted match, and folds
// the sale into the matched or freshly created record.
func (s *Session) upsertCustomerFromSale(sale models.SaleRecord) {
	nameKey := strings.ToLower(strings.TrimSpace(sale.CustomerName))
	phoneKey := strings.TrimSpace(sale.CustomerPhone)

	idx := -1
	for i := range s.customers {
		c := &s.customers[i]
		samePhone := phoneKey != "" && strings.TrimSpace(c.Phone) == phoneKey
		sameName := c.Name != "" && strings.ToLower(strings.TrimSpace(c.Name)) == nameKey
		if samePhone || sameName {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.customers = append(s.customers, models.Customer{
			ID:    models.NextCustomerID(s.customers),
			Name:  sale.CustomerName,
			Phone: sale.CustomerPhone,
			Email: sale.CustomerEmail,
		})
		idx = len(s.customers) - 1
	}

	c := &s.customers[idx]
	if sale.CustomerName != "" {
		c.Name = sale.CustomerName
	}
	if sale.CustomerPhone != "" {
		c.Phone = sale.CustomerPhone
	}
	if sale.CustomerEmail != "" {
		c.Email = sale.CustomerEmail
	}
	c.OrderCount++
	c.TotalSpent += sale.Total
	at := sale.CreatedAt
	c.LastPurchaseAt = &at
}

// AddProduct appends a validated catalog entry with a fresh id.
func (s *Session) AddProduct(in ProductInput) (models.CatalogItem, error) {
	item, err := buildProduct(in)
	if err != nil {
		return models.CatalogItem{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	item.ID = models.NextCatalogID(s.catalog)
	s.catalog = append(s.catalog, item)
	s.persistCatalog()
	return item, nil
}

// UpdateProduct replaces the fields of an existing catalog entry.
func (s *Session) UpdateProduct(id int, in ProductInput) (models.CatalogItem, error) {
	item, err := buildProduct(in)
	if err != nil {
		return models.CatalogItem{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.catalog {
		if s.catalog[i].ID == id {
			item.ID = id
			s.catalog[i] = item
			s.persistCatalog()
			return item, nil
		}
	}
	return models.CatalogItem{}, ErrUnknownProduct
}

// DeleteProduct removes a catalog entry. Existing sale records keep their
// denormalized product name and price.
func (s *Session) DeleteProduct(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.catalog {
		if s.catalog[i].ID == id {
			s.catalog = append(s.catalog[:i], s.catalog[i+1:]...)
			s.persistCatalog()
			return nil
		}
	}
	return ErrUnknownProduct
}

// RestoreCatalog discards the current catalog and reinstates the seed.
func (s *Session) RestoreCatalog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = models.DefaultCatalog()
	s.persistCatalog()
	s.log.Info().Msg("catalog restored to seed")
}

// AddCustomer appends a roster entry with zeroed purchase counters.
func (s *Session) AddCustomer(in CustomerInput) (models.Customer, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Customer{}, ErrCustomerName
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c := models.Customer{
		ID:    models.NextCustomerID(s.customers),
		Name:  name,
		Phone: strings.TrimSpace(in.Phone),
		Email: strings.TrimSpace(in.Email),
		City:  strings.TrimSpace(in.City),
	}
	s.customers = append(s.customers, c)
	s.persistCustomers()
	return c, nil
}

// DeleteCustomer removes a roster entry. Sale history is untouched.
func (s *Session) DeleteCustomer(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.customers {
		if s.customers[i].ID == id {
			s.customers = append(s.customers[:i], s.customers[i+1:]...)
			s.persistCustomers()
			return nil
		}
	}
	return ErrUnknownCustomer
}

// ClearSales empties the sales ledger. Customer counters and stock keep
// their accumulated values.
func (s *Session) ClearSales() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sales = []models.SaleRecord{}
	s.persistSales()
	s.log.Info().Msg("sales ledger cleared")
}

// Reset returns all three collections to their initial state.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = models.DefaultCatalog()
	s.sales = []models.SaleRecord{}
	s.customers = []models.Customer{}
	s.persistAll()
	s.log.Info().Msg("session reset to defaults")
}

// Export captures the current collections as a versioned snapshot.
func (s *Session) Export() models.Snapshot {
	return backup.Export(s.Collections())
}

// Import replaces all three collections with the content of a backup file.
// A malformed backup leaves the session untouched.
func (s *Session) Import(raw []byte) error {
	c, err := backup.Import(raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = c.Catalog
	s.sales = c.Sales
	s.customers = c.Customers
	s.persistAll()
	s.log.Info().Int("catalog", len(c.Catalog)).Int("sales", len(c.Sales)).
		Int("customers", len(c.Customers)).Msg("backup imported")
	return nil
}

// Hydrate pulls the remote document and adopts it wholesale. A transport
// failure is logged and returned, but the session keeps serving its local
// state, so callers are free to ignore the error.
func (s *Session) Hydrate(ctx context.Context, fetcher Fetcher) error {
	resp, err := fetcher.Fetch(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("hydrate failed, keeping local state")
		return err
	}
	s.adopt(resp.Data.Collections())
	s.log.Info().Str("storage", resp.Storage).Str("source", resp.Data.Source).Msg("hydrated from remote")
	return nil
}

// Reconcile adopts the merged document returned by a successful push. The
// remote copy wins over any local edits made while the push was in flight.
func (s *Session) Reconcile(doc models.Document, mode syncqueue.Mode) {
	s.adopt(doc.Collections())
	s.log.Debug().Str("mode", string(mode)).Time("updatedAt", doc.UpdatedAt).Msg("reconciled remote document")
}

func (s *Session) adopt(c models.Collections) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cc := c.Clone()
	s.catalog = cc.Catalog
	s.sales = cc.Sales
	s.customers = cc.Customers
	s.cache.SaveCatalog(s.catalog)
	s.cache.SaveSales(s.sales)
	s.cache.SaveCustomers(s.customers)
}

func buildProduct(in ProductInput) (models.CatalogItem, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.CatalogItem{}, ErrProductName
	}
	if in.Price <= 0 {
		return models.CatalogItem{}, ErrProductPrice
	}
	if in.Stock < 0 {
		return models.CatalogItem{}, ErrProductStock
	}
	image := strings.TrimSpace(in.Image)
	if image == "" {
		image = models.DefaultProductImage
	}
	return models.CatalogItem{
		Name:        name,
		Price:       in.Price,
		Stock:       in.Stock,
		Category:    strings.TrimSpace(in.Category),
		Description: strings.TrimSpace(in.Description),
		Image:       image,
	}, nil
}

// The persist helpers write the durable cache synchronously and hand deep
// copies to the replication queue, which pushes them after its debounce
// window. Copies keep in-flight pushes isolated from later mutations.

func (s *Session) persistCatalog() {
	s.cache.SaveCatalog(s.catalog)
	c := models.CloneCatalog(s.catalog)
	s.queue.Enqueue(models.Partial{Catalog: &c})
}

func (s *Session) persistSales() {
	s.cache.SaveSales(s.sales)
	c := models.CloneSales(s.sales)
	s.queue.Enqueue(models.Partial{Sales: &c})
}

func (s *Session) persistCustomers() {
	s.cache.SaveCustomers(s.customers)
	c := models.CloneCustomers(s.customers)
	s.queue.Enqueue(models.Partial{Customers: &c})
}

func (s *Session) persistAll() {
	s.persistCatalog()
	s.persistSales()
	s.persistCustomers()
}
