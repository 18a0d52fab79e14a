package api

import (
	"context"
	"net/http"

	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

type addToCartRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  *int  `json:"quantity"`
}

// getCart handles the cart page
func (h *Handler) getCart(c *gin.Context) {
	view, err := h.Cart.Load(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, err, "Failed to load cart")
		return
	}
	c.JSON(http.StatusOK, view)
}

// addToCart handles "add to cart". Quantity defaults to one.
func (h *Handler) addToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	view, err := h.Cart.Add(c.Request.Context(), principal(c), req.ProductID, quantity)
	if err != nil {
		respondError(c, err, "Failed to add item to cart")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *Handler) incrementCartItem(c *gin.Context) {
	h.stepCartItem(c, h.Cart.Increment)
}

func (h *Handler) decrementCartItem(c *gin.Context) {
	h.stepCartItem(c, h.Cart.Decrement)
}

type stepFunc func(ctx context.Context, p *models.Principal, lineID int64) (*service.CartView, bool, error)

func (h *Handler) stepCartItem(c *gin.Context, step stepFunc) {
	lineID, ok := idParam(c, "cart item")
	if !ok {
		return
	}

	view, changed, err := step(c.Request.Context(), principal(c), lineID)
	if err != nil {
		respondError(c, err, "Failed to update quantity")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cart":    view,
		"changed": changed,
	})
}

// removeCartItem handles line removal
func (h *Handler) removeCartItem(c *gin.Context) {
	lineID, ok := idParam(c, "cart item")
	if !ok {
		return
	}

	view, err := h.Cart.Remove(c.Request.Context(), principal(c), lineID)
	if err != nil {
		respondError(c, err, "Failed to remove item")
		return
	}
	c.JSON(http.StatusOK, view)
}
