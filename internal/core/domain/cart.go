package domain

import "time"

// CartEntry pairs a product snapshot with a quantity of at least one.
type CartEntry struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Cart holds at most one entry per product id.
type Cart []CartEntry

// ClampedQuantity is the accumulate-and-clamp rule shared by every cart
// mutation path: min(existing+requested, stock), never negative. The sum is
// never formed when it would pass stock, so huge requests cannot wrap.
func ClampedQuantity(existing, requested, stock int) int {
	if stock <= 0 {
		return 0
	}
	if existing < 0 {
		existing = 0
	}
	if requested >= stock-existing {
		return stock
	}
	if q := existing + requested; q > 0 {
		return q
	}
	return 0
}

func (c Cart) Index(productID string) int {
	for i, e := range c {
		if e.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) Contains(productID string) bool {
	return c.Index(productID) >= 0
}

func (c Cart) Quantity(productID string) int {
	if i := c.Index(productID); i >= 0 {
		return c[i].Quantity
	}
	return 0
}

func (c Cart) Total() int64 {
	var total int64
	for _, e := range c {
		total += e.Product.Price * int64(e.Quantity)
	}
	return total
}

func (c Cart) ItemCount() int {
	n := 0
	for _, e := range c {
		n += e.Quantity
	}
	return n
}

// WithAdded returns a copy of c with requested units of p accumulated and
// clamped to p.Stock. An existing entry keeps its original snapshot. A result
// of zero units leaves no entry behind.
func (c Cart) WithAdded(p Product, requested int) Cart {
	out := c.clone()
	i := out.Index(p.ID)
	if i < 0 {
		q := ClampedQuantity(0, requested, p.Stock)
		if q == 0 {
			return out
		}
		return append(out, CartEntry{Product: p, Quantity: q})
	}
	q := ClampedQuantity(out[i].Quantity, requested, p.Stock)
	if q == 0 {
		return out.Without(p.ID)
	}
	out[i].Quantity = q
	return out
}

// WithQuantity sets an absolute quantity clamped to the entry's snapshot
// stock. Unknown products are left alone.
func (c Cart) WithQuantity(productID string, quantity int) Cart {
	out := c.clone()
	i := out.Index(productID)
	if i < 0 {
		return out
	}
	q := ClampedQuantity(0, quantity, out[i].Product.Stock)
	if q == 0 {
		return out.Without(productID)
	}
	out[i].Quantity = q
	return out
}

func (c Cart) Without(productID string) Cart {
	out := make(Cart, 0, len(c))
	for _, e := range c {
		if e.Product.ID != productID {
			out = append(out, e)
		}
	}
	return out
}

func (c Cart) clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// CartItem is a persisted cart line: a product reference, not a snapshot.
type CartItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// StoredCart is the Account Store cart document. Version 0 means the cart has
// never been written; every successful save bumps it by one.
type StoredCart struct {
	AccountID string
	Items     []CartItem
	Version   int
	UpdatedAt time.Time
}

func (s StoredCart) Index(productID string) int {
	for i, it := range s.Items {
		if it.ProductID == productID {
			return i
		}
	}
	return -1
}
