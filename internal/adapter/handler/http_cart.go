package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/storefront/internal/core/domain"
)

type CartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"quantity"`
}

func (h *HTTPHandler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, synchronizerFrom(c).Snapshot())
}

func (h *HTTPHandler) AddToCart(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "productId is required")
		return
	}

	product, err := h.svc.Catalog.GetProduct(c.Request.Context(), req.ProductID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if !product.Active {
		h.writeError(c, domain.ErrProductNotFound)
		return
	}

	s := synchronizerFrom(c)
	if err := s.AddToCart(c.Request.Context(), product, req.Quantity); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *HTTPHandler) UpdateCart(c *gin.Context) {
	var req CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "productId is required")
		return
	}

	s := synchronizerFrom(c)
	if err := s.UpdateQuantity(c.Request.Context(), req.ProductID, req.Quantity); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

// DeleteFromCart removes one product, or empties the cart without ?productId.
func (h *HTTPHandler) DeleteFromCart(c *gin.Context) {
	s := synchronizerFrom(c)

	var err error
	if productID := c.Query("productId"); productID != "" {
		err = s.RemoveFromCart(c.Request.Context(), productID)
	} else {
		err = s.ClearCart(c.Request.Context())
	}
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Snapshot())
}

func (h *HTTPHandler) CartContains(c *gin.Context) {
	productID := c.Param("productId")
	c.JSON(http.StatusOK, gin.H{
		"productId": productID,
		"inCart":    synchronizerFrom(c).IsInCart(productID),
	})
}

func (h *HTTPHandler) Checkout(c *gin.Context) {
	s := synchronizerFrom(c)
	accountID := s.AccountID()
	if accountID == "" {
		h.writeError(c, domain.ErrNotAuthenticated)
		return
	}

	order, err := h.svc.Checkout.Checkout(c.Request.Context(), accountID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	if err := s.Refresh(c.Request.Context()); err != nil {
		h.log.WithError(err).WithField("order_id", order.ID).Warn("cart not refreshed after checkout")
	}
	c.JSON(http.StatusCreated, order)
}
