package api

import (
	"net/http"

	"storefront/internal/service"

	"github.com/gin-gonic/gin"
)

// submitContact handles the public contact form
func (h *Handler) submitContact(c *gin.Context) {
	var form service.ContactForm
	if err := c.ShouldBindJSON(&form); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	msg, err := h.Contact.Submit(c.Request.Context(), form)
	if err != nil {
		respondError(c, err, "Failed to send message")
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *Handler) listMessages(c *gin.Context) {
	messages, err := h.Contact.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to list messages")
		return
	}
	c.JSON(http.StatusOK, messages)
}

func (h *Handler) deleteMessage(c *gin.Context) {
	id, ok := idParam(c, "message")
	if !ok {
		return
	}

	if err := h.Contact.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err, "Failed to delete message")
		return
	}
	c.Status(http.StatusNoContent)
}
