package api

import (
	"net/http"

	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

type advanceRequest struct {
	From string `json:"from" binding:"required"`
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// getCheckout handles the checkout page
func (h *Handler) getCheckout(c *gin.Context) {
	quote, err := h.Checkout.Quote(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, err, "Failed to load checkout")
		return
	}
	c.JSON(http.StatusOK, quote)
}

// placeOrder handles checkout submission
func (h *Handler) placeOrder(c *gin.Context) {
	var form service.CheckoutForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	order, err := h.Checkout.PlaceOrder(c.Request.Context(), principal(c), form, c.GetHeader("Idempotency-Key"))
	if err != nil {
		respondError(c, err, "Failed to place order")
		return
	}
	c.JSON(http.StatusCreated, order)
}

// listMyOrders handles the order history page
func (h *Handler) listMyOrders(c *gin.Context) {
	orders, err := h.Orders.ListMine(c.Request.Context(), principal(c))
	if err != nil {
		respondError(c, err, "Failed to list orders")
		return
	}
	c.JSON(http.StatusOK, orders)
}

// getOrder handles get order by ID
func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := idParam(c, "order")
	if !ok {
		return
	}

	order, err := h.Orders.Get(c.Request.Context(), principal(c), orderID)
	if err != nil {
		respondError(c, err, "Order not found")
		return
	}
	c.JSON(http.StatusOK, order)
}

// listAllOrders handles the admin order board
func (h *Handler) listAllOrders(c *gin.Context) {
	orders, err := h.Orders.ListAll(c.Request.Context(), c.Query("status"))
	if err != nil {
		respondError(c, err, "Failed to list orders")
		return
	}
	c.JSON(http.StatusOK, orders)
}

// advanceOrder moves an order one step forward from the status the admin saw
func (h *Handler) advanceOrder(c *gin.Context) {
	orderID, ok := idParam(c, "order")
	if !ok {
		return
	}

	var req advanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	from, err := models.ParseOrderStatus(req.From)
	if err != nil {
		respondError(c, err, "Invalid status")
		return
	}

	order, err := h.Orders.Advance(c.Request.Context(), orderID, from)
	if err != nil {
		respondError(c, err, "Failed to advance order")
		return
	}
	c.JSON(http.StatusOK, order)
}

// setOrderStatus sets an order's status through the transition guard
func (h *Handler) setOrderStatus(c *gin.Context) {
	orderID, ok := idParam(c, "order")
	if !ok {
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	to, err := models.ParseOrderStatus(req.Status)
	if err != nil {
		respondError(c, err, "Invalid status")
		return
	}

	order, err := h.Orders.SetStatus(c.Request.Context(), orderID, to)
	if err != nil {
		respondError(c, err, "Failed to update order status")
		return
	}
	c.JSON(http.StatusOK, order)
}
