package domain

import (
	"strings"
	"time"
)

type Category string

const (
	CategoryWomen       Category = "mujer"
	CategoryMen         Category = "hombre"
	CategoryAccessories Category = "accesorios"
	CategoryFootwear    Category = "calzado"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryWomen, CategoryMen, CategoryAccessories, CategoryFootwear:
		return true
	}
	return false
}

// Product prices are integer minor units.
type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Category    Category  `json:"category"`
	Images      []string  `json:"images"`
	Stock       int       `json:"stock"`
	Active      bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type ProductFilter struct {
	Category        Category
	Search          string
	IncludeInactive bool
}

// Matches reports whether p passes the filter. Adapters that cannot push the
// filter down to the store use it directly.
func (f ProductFilter) Matches(p Product) bool {
	if !f.IncludeInactive && !p.Active {
		return false
	}
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Search == "" {
		return true
	}
	needle := strings.ToLower(f.Search)
	return strings.Contains(strings.ToLower(p.Name), needle) ||
		strings.Contains(strings.ToLower(p.Description), needle)
}
