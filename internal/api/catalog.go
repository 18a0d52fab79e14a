package api

import (
	"net/http"

	"storefront/internal/models"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// listProducts handles the catalog listing
func (h *Handler) listProducts(c *gin.Context) {
	filter := models.ProductFilter{
		Category: c.Query("category"),
		Query:    c.Query("q"),
	}

	products, err := h.Products.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "Failed to list products")
		return
	}
	c.JSON(http.StatusOK, products)
}

// getProduct handles the item detail page
func (h *Handler) getProduct(c *gin.Context) {
	id, ok := idParam(c, "product")
	if !ok {
		return
	}

	product, err := h.Products.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "Product not found")
		return
	}
	c.JSON(http.StatusOK, product)
}

// listCategories handles the category menu
func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.Products.Categories(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

// createProduct handles the admin product form
func (h *Handler) createProduct(c *gin.Context) {
	var form service.ProductForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	product, err := h.Products.Create(c.Request.Context(), form)
	if err != nil {
		respondError(c, err, "Failed to create product")
		return
	}
	c.JSON(http.StatusCreated, product)
}

// updateProduct handles the admin product edit form
func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := idParam(c, "product")
	if !ok {
		return
	}

	var form service.ProductForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	product, err := h.Products.Update(c.Request.Context(), id, form)
	if err != nil {
		respondError(c, err, "Failed to update product")
		return
	}
	c.JSON(http.StatusOK, product)
}

// deleteProduct handles product removal
func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := idParam(c, "product")
	if !ok {
		return
	}

	if err := h.Products.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete product")
		return
	}
	c.Status(http.StatusNoContent)
}
