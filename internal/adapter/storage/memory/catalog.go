// Package memory holds mutex-guarded in-process implementations of the
// storage ports, used by `serve --memory` and by tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rl1809/storefront/internal/core/domain"
)

type Catalog struct {
	mu       sync.Mutex
	products map[string]domain.Product
	orders   map[string]domain.Order
}

func NewCatalog(products ...domain.Product) *Catalog {
	c := &Catalog{
		products: make(map[string]domain.Product),
		orders:   make(map[string]domain.Order),
	}
	for _, p := range products {
		c.products[p.ID] = p
	}
	return c
}

// SetStock overwrites a product's stock, simulating a change made elsewhere.
func (c *Catalog) SetStock(id string, stock int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.products[id]; ok {
		p.Stock = stock
		c.products[id] = p
	}
}

func (c *Catalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (c *Catalog) GetProducts(ctx context.Context, ids []string) ([]domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := c.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *Catalog) ListProducts(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		if filter.Matches(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (c *Catalog) CreateProduct(ctx context.Context, product domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products[product.ID] = product
	return nil
}

func (c *Catalog) UpdateProduct(ctx context.Context, product domain.Product) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.products[product.ID]; !ok {
		return false, nil
	}
	c.products[product.ID] = product
	return true, nil
}

func (c *Catalog) DeactivateProduct(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.products[id]
	if !ok {
		return false, nil
	}
	p.Active = false
	c.products[id] = p
	return true, nil
}

func (c *Catalog) CreateOrder(ctx context.Context, order domain.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, line := range order.Lines {
		p, ok := c.products[line.ProductID]
		if !ok || p.Stock < line.Quantity {
			return domain.ErrInsufficientStock
		}
	}
	for _, line := range order.Lines {
		p := c.products[line.ProductID]
		p.Stock -= line.Quantity
		c.products[line.ProductID] = p
	}
	c.orders[order.ID] = order
	return nil
}

func (c *Catalog) Order(id string) (domain.Order, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	o, ok := c.orders[id]
	return o, ok
}
