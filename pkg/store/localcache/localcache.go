// Package localcache is the durable client-side mirror of the three business
// collections. It is a passive key/value store: reads fall back to a
// caller-supplied default on missing or corrupt data, and writes are
// best-effort. Neither path ever returns an error to the caller; failures
// are logged and the in-memory state stays authoritative for the session.
package localcache

import (
	"database/sql"
	"encoding/json"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/skcglow/glowpos/pkg/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS cache (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
);`

// Cache stores each collection JSON-encoded under its own key, with no
// envelope around the payload.
type Cache struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open opens (or creates) the cache database at path.
func Open(path string, log zerolog.Logger) (*Cache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "open cache database")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create cache schema")
	}
	return &Cache{db: db, log: log.With().Str("component", "localcache").Logger()}, nil
}

// Close releases the underlying database handle.
func (c *Cache) Close() error {
	return c.db.Close()
}

// LoadCatalog returns the cached catalog, or a deep copy of fallback when
// the key is missing or the stored data is corrupt.
func (c *Cache) LoadCatalog(fallback []models.CatalogItem) []models.CatalogItem {
	var out []models.CatalogItem
	if !c.load(models.CatalogKey, &out) {
		return models.CloneCatalog(fallback)
	}
	return out
}

// LoadSales returns the cached sales ledger, or a deep copy of fallback.
func (c *Cache) LoadSales(fallback []models.SaleRecord) []models.SaleRecord {
	var out []models.SaleRecord
	if !c.load(models.SalesKey, &out) {
		return models.CloneSales(fallback)
	}
	return out
}

// LoadCustomers returns the cached customer roster, or a deep copy of fallback.
func (c *Cache) LoadCustomers(fallback []models.Customer) []models.Customer {
	var out []models.Customer
	if !c.load(models.CustomersKey, &out) {
		return models.CloneCustomers(fallback)
	}
	return out
}

// SaveCatalog persists the catalog. Failures are logged, never returned.
func (c *Cache) SaveCatalog(items []models.CatalogItem) {
	c.save(models.CatalogKey, items)
}

// SaveSales persists the sales ledger.
func (c *Cache) SaveSales(sales []models.SaleRecord) {
	c.save(models.SalesKey, sales)
}

// SaveCustomers persists the customer roster.
func (c *Cache) SaveCustomers(customers []models.Customer) {
	c.save(models.CustomersKey, customers)
}

// load reports false when the caller should use its fallback: key absent,
// row unreadable, or stored JSON corrupt. Corruption is logged, not raised.
func (c *Cache) load(key string, dst any) bool {
	var raw []byte
	err := c.db.QueryRow(`SELECT value FROM cache WHERE key = ?`, key).Scan(&raw)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache read failed, using fallback")
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache data corrupt, using fallback")
		return false
	}
	return true
}

func (c *Cache) save(key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache encode failed, keeping in-memory state")
		return
	}
	_, err = c.db.Exec(
		`INSERT INTO cache (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, raw)
	if err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed, keeping in-memory state")
	}
}
