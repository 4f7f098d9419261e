// Package pb holds the wire messages and service descriptor of
// storefront.cart.v1.CartService. Messages travel JSON encoded under the
// "json" content-subtype.
package pb

import "time"

type CartRequest struct {
	AccountID string `json:"account_id"`
}

type ItemRequest struct {
	AccountID string `json:"account_id"`
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type RemoveItemRequest struct {
	AccountID string `json:"account_id"`
	ProductID string `json:"product_id"`
}

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Category    string    `json:"category"`
	Images      []string  `json:"images,omitempty"`
	Stock       int64     `json:"stock"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CartEntry struct {
	Product  *Product `json:"product"`
	Quantity int64    `json:"quantity"`
}

type CartResponse struct {
	Entries []*CartEntry `json:"entries"`
}

func (r *CartResponse) GetEntries() []*CartEntry {
	if r == nil {
		return nil
	}
	return r.Entries
}
