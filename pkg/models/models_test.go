package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextID_EmptyCollectionStartsAtOne(t *testing.T) {
	assert.Equal(t, 1, NextCatalogID(nil))
	assert.Equal(t, 1, NextSaleID(nil))
	assert.Equal(t, 1, NextCustomerID(nil))
}

func TestNextID_IsMaxPlusOneNotLenPlusOne(t *testing.T) {
	items := []CatalogItem{{ID: 3}, {ID: 7}, {ID: 5}}
	assert.Equal(t, 8, NextCatalogID(items), "deleting low ids must not cause reuse")
}

func TestPartial_MergeLaterCollectionSupersedes(t *testing.T) {
	old := []CatalogItem{{ID: 1, Name: "old"}}
	newer := []CatalogItem{{ID: 1, Name: "new"}}
	sales := []SaleRecord{{ID: 1}}

	p := Partial{Catalog: &old}
	p.Merge(Partial{Catalog: &newer})
	p.Merge(Partial{Sales: &sales})

	require.NotNil(t, p.Catalog)
	assert.Equal(t, "new", (*p.Catalog)[0].Name)
	assert.NotNil(t, p.Sales)
	assert.Nil(t, p.Customers)
	assert.False(t, p.Empty())
}

func TestPartial_ApplyToLeavesAbsentCollectionsAlone(t *testing.T) {
	doc := Document{
		Catalog:   []CatalogItem{{ID: 1}},
		Sales:     []SaleRecord{{ID: 1}},
		Customers: []Customer{{ID: 1}},
	}
	customers := []Customer{{ID: 2}, {ID: 3}}
	Partial{Customers: &customers}.ApplyTo(&doc)

	assert.Len(t, doc.Catalog, 1)
	assert.Len(t, doc.Sales, 1)
	assert.Len(t, doc.Customers, 2)
}

func TestCloneSales_LineItemsAreIndependent(t *testing.T) {
	src := []SaleRecord{{ID: 1, Items: []SaleLine{{ProductID: 1, Qty: 2}}}}
	dst := CloneSales(src)

	dst[0].Items[0].Qty = 99
	assert.Equal(t, 2, src[0].Items[0].Qty)
}

func TestCloneCustomers_LastPurchaseAtIsIndependent(t *testing.T) {
	at := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	src := []Customer{{ID: 1, LastPurchaseAt: &at}}
	dst := CloneCustomers(src)

	require.NotNil(t, dst[0].LastPurchaseAt)
	*dst[0].LastPurchaseAt = dst[0].LastPurchaseAt.Add(time.Hour)
	assert.Equal(t, at, *src[0].LastPurchaseAt)
}

func TestCustomer_LastPurchaseAtSerializesAsNull(t *testing.T) {
	raw, err := json.Marshal(Customer{ID: 1, Name: "Ana"})
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"lastPurchaseAt":null`)
}

func TestDefaultCatalog_ReturnsIndependentCopies(t *testing.T) {
	a := DefaultCatalog()
	a[0].Stock = 0
	b := DefaultCatalog()
	assert.NotEqual(t, 0, b[0].Stock)
}
