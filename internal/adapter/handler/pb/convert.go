package pb

import "github.com/rl1809/storefront/internal/core/domain"

func FromCart(cart domain.Cart) *CartResponse {
	out := &CartResponse{Entries: make([]*CartEntry, 0, len(cart))}
	for _, e := range cart {
		p := e.Product
		out.Entries = append(out.Entries, &CartEntry{
			Product: &Product{
				ID:          p.ID,
				Name:        p.Name,
				Description: p.Description,
				Price:       p.Price,
				Category:    string(p.Category),
				Images:      p.Images,
				Stock:       int64(p.Stock),
				Active:      p.Active,
				CreatedAt:   p.CreatedAt,
				UpdatedAt:   p.UpdatedAt,
			},
			Quantity: int64(e.Quantity),
		})
	}
	return out
}

// ToCart skips entries that arrived without a product.
func (r *CartResponse) ToCart() domain.Cart {
	entries := r.GetEntries()
	cart := make(domain.Cart, 0, len(entries))
	for _, e := range entries {
		if e == nil || e.Product == nil {
			continue
		}
		p := e.Product
		cart = append(cart, domain.CartEntry{
			Product: domain.Product{
				ID:          p.ID,
				Name:        p.Name,
				Description: p.Description,
				Price:       p.Price,
				Category:    domain.Category(p.Category),
				Images:      p.Images,
				Stock:       int(p.Stock),
				Active:      p.Active,
				CreatedAt:   p.CreatedAt,
				UpdatedAt:   p.UpdatedAt,
			},
			Quantity: int(e.Quantity),
		})
	}
	return cart
}
