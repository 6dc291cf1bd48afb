// Package models defines the entities shared by the glowpos client core and
// the API server: the three business collections (catalog, sales, customers),
// the composite document that is the unit of remote storage, the partial
// payload used for replication, and the versioned backup snapshot.
package models

import "time"

// Storage keys. Each local cache key holds the JSON-encoded collection
// directly, with no envelope. DocumentKey is the fixed key of the composite
// document in the remote key-value backend.
const (
	CatalogKey   = "skcCatalog"
	SalesKey     = "skcSales"
	CustomersKey = "skcCustomers"

	DocumentKey = "skc:db"
)

// Document source tags.
const (
	SourceSeed   = "seed"
	SourceEmpty  = "empty"
	SourceClient = "client"
)

// CatalogItem is a sellable product. Stock is decremented by sale
// registration and must never go negative.
type CatalogItem struct {
	ID          int     `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Image       string  `json:"image,omitempty"`
}

// SaleLine is one product position inside a sale.
type SaleLine struct {
	ProductID int     `json:"productId"`
	Name      string  `json:"name"`
	Qty       int     `json:"qty"`
	UnitPrice float64 `json:"unitPrice"`
}

// SaleRecord is an immutable ledger entry. Total equals the sum of
// qty*unitPrice over Items at creation time; the registration transaction
// enforces this, it is not re-checked later.
type SaleRecord struct {
	ID            int        `json:"id"`
	CreatedAt     time.Time  `json:"createdAt"`
	Items         []SaleLine `json:"items"`
	Total         float64    `json:"total"`
	CustomerName  string     `json:"customerName"`
	CustomerPhone string     `json:"customerPhone,omitempty"`
	CustomerEmail string     `json:"customerEmail,omitempty"`
	Channel       string     `json:"channel,omitempty"`
	Notes         string     `json:"notes,omitempty"`
}

// Customer is a deduplicated buyer record. Identity is an exact trimmed
// phone match or a case-insensitive trimmed name match, phone first.
type Customer struct {
	ID             int        `json:"id"`
	Name           string     `json:"name"`
	Phone          string     `json:"phone,omitempty"`
	Email          string     `json:"email,omitempty"`
	City           string     `json:"city,omitempty"`
	OrderCount     int        `json:"orderCount"`
	TotalSpent     float64    `json:"totalSpent"`
	LastPurchaseAt *time.Time `json:"lastPurchaseAt"`
}

// Collections groups the three business collections.
type Collections struct {
	Catalog   []CatalogItem `json:"catalog"`
	Sales     []SaleRecord  `json:"sales"`
	Customers []Customer    `json:"customers"`
}

// Document is the composite server-side unit of storage: all three
// collections plus provenance metadata.
type Document struct {
	Catalog   []CatalogItem `json:"catalog"`
	Sales     []SaleRecord  `json:"sales"`
	Customers []Customer    `json:"customers"`
	UpdatedAt time.Time     `json:"updatedAt"`
	Source    string        `json:"source"`
}

// Collections extracts the three business collections from a document,
// dropping the provenance metadata.
func (d Document) Collections() Collections {
	return Collections{
		Catalog:   d.Catalog,
		Sales:     d.Sales,
		Customers: d.Customers,
	}
}

// Partial is the coalesced replication payload. A nil field means the
// collection is absent from the payload; a non-nil field carries the full
// current collection, not a delta.
type Partial struct {
	Catalog   *[]CatalogItem `json:"catalog,omitempty"`
	Sales     *[]SaleRecord  `json:"sales,omitempty"`
	Customers *[]Customer    `json:"customers,omitempty"`
}

// Empty reports whether no collection is present in the payload.
func (p Partial) Empty() bool {
	return p.Catalog == nil && p.Sales == nil && p.Customers == nil
}

// Merge overlays the non-nil fields of other. A later payload for the same
// collection supersedes the pending one.
func (p *Partial) Merge(other Partial) {
	if other.Catalog != nil {
		p.Catalog = other.Catalog
	}
	if other.Sales != nil {
		p.Sales = other.Sales
	}
	if other.Customers != nil {
		p.Customers = other.Customers
	}
}

// ApplyTo shallow-merges the present collections over a document, replacing
// whole collections and leaving absent ones untouched.
func (p Partial) ApplyTo(doc *Document) {
	if p.Catalog != nil {
		doc.Catalog = *p.Catalog
	}
	if p.Sales != nil {
		doc.Sales = *p.Sales
	}
	if p.Customers != nil {
		doc.Customers = *p.Customers
	}
}

// Snapshot is the manual export/import payload.
type Snapshot struct {
	Version    int         `json:"version"`
	ExportedAt time.Time   `json:"exportedAt"`
	Data       Collections `json:"data"`
}

// SnapshotVersion is the only backup format version in existence. Import of
// other versions is not supported.
const SnapshotVersion = 1

// NextCatalogID allocates a monotonic id: max of existing ids (default 0)
// plus one.
func NextCatalogID(items []CatalogItem) int {
	max := 0
	for _, it := range items {
		if it.ID > max {
			max = it.ID
		}
	}
	return max + 1
}

// NextSaleID allocates the next sale id the same way as NextCatalogID.
func NextSaleID(sales []SaleRecord) int {
	max := 0
	for _, s := range sales {
		if s.ID > max {
			max = s.ID
		}
	}
	return max + 1
}

// NextCustomerID allocates the next customer id.
func NextCustomerID(customers []Customer) int {
	max := 0
	for _, c := range customers {
		if c.ID > max {
			max = c.ID
		}
	}
	return max + 1
}

// CloneCatalog returns a deep copy of the catalog.
func CloneCatalog(items []CatalogItem) []CatalogItem {
	out := make([]CatalogItem, len(items))
	copy(out, items)
	return out
}

// CloneSales returns a deep copy of the sales ledger, including line items.
func CloneSales(sales []SaleRecord) []SaleRecord {
	out := make([]SaleRecord, len(sales))
	copy(out, sales)
	for i := range out {
		if sales[i].Items != nil {
			out[i].Items = make([]SaleLine, len(sales[i].Items))
			copy(out[i].Items, sales[i].Items)
		}
	}
	return out
}

// CloneCustomers returns a deep copy of the customer roster.
func CloneCustomers(customers []Customer) []Customer {
	out := make([]Customer, len(customers))
	copy(out, customers)
	for i := range out {
		if customers[i].LastPurchaseAt != nil {
			at := *customers[i].LastPurchaseAt
			out[i].LastPurchaseAt = &at
		}
	}
	return out
}

// Clone returns a deep copy of all three collections.
func (c Collections) Clone() Collections {
	return Collections{
		Catalog:   CloneCatalog(c.Catalog),
		Sales:     CloneSales(c.Sales),
		Customers: CloneCustomers(c.Customers),
	}
}
