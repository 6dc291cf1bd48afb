package models

import "time"

// DefaultProductImage is assigned to catalog entries created without an
// image path.
const DefaultProductImage = "assets/default.png"

// DefaultCatalog returns the built-in product listing used when no catalog
// has ever been saved and when the catalog is restored to its base state.
func DefaultCatalog() []CatalogItem {
	return CloneCatalog(defaultCatalog)
}

// SeedDocument builds a fresh composite document around the given catalog,
// tagged as seed data.
func SeedDocument(catalog []CatalogItem) Document {
	return Document{
		Catalog:   catalog,
		Sales:     []SaleRecord{},
		Customers: []Customer{},
		UpdatedAt: time.Now().UTC(),
		Source:    SourceSeed,
	}
}

// EmptyDocument builds a composite document with no data, used when no seed
// dataset could be loaded.
func EmptyDocument() Document {
	return Document{
		Catalog:   []CatalogItem{},
		Sales:     []SaleRecord{},
		Customers: []Customer{},
		UpdatedAt: time.Now().UTC(),
		Source:    SourceEmpty,
	}
}

var defaultCatalog = []CatalogItem{
	{
		ID:          1,
		Name:        "Labial Mate Larga Duración",
		Price:       20000,
		Stock:       12,
		Category:    "Labios",
		Description: "Acabado mate intenso, hasta 8 horas de duración.",
		Image:       "assets/labial-mate.jpg",
	},
	{
		ID:          2,
		Name:        "Base Líquida Natural Glow",
		Price:       38000,
		Stock:       8,
		Category:    "Rostro",
		Description: "Cobertura media con efecto luminoso natural.",
		Image:       "assets/base-glow.jpg",
	},
	{
		ID:          3,
		Name:        "Paleta de Sombras Sunset",
		Price:       45000,
		Stock:       5,
		Category:    "Ojos",
		Description: "12 tonos cálidos, mate y satinados.",
		Image:       "assets/paleta-sunset.jpg",
	},
	{
		ID:          4,
		Name:        "Máscara de Pestañas Volumen",
		Price:       25000,
		Stock:       10,
		Category:    "Ojos",
		Description: "Volumen extremo sin grumos.",
		Image:       "assets/mascara-volumen.jpg",
	},
	{
		ID:          5,
		Name:        "Rubor en Polvo Rosé",
		Price:       22000,
		Stock:       7,
		Category:    "Rostro",
		Description: "Tono rosado buildable para un look fresco.",
		Image:       "assets/rubor-rose.jpg",
	},
	{
		ID:          6,
		Name:        "Brillo Labial Hidratante",
		Price:       18000,
		Stock:       15,
		Category:    "Labios",
		Description: "Brillo no pegajoso con ácido hialurónico.",
		Image:       "assets/brillo-hidratante.jpg",
	},
}
