package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// register handles customer sign-up
func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	user, err := h.Sessions.Register(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		respondError(c, err, "Failed to register")
		return
	}

	c.JSON(http.StatusCreated, user)
}

// createAdmin handles admin account creation by another admin
func (h *Handler) createAdmin(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	user, err := h.Sessions.CreateAdmin(c.Request.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		respondError(c, err, "Failed to create admin")
		return
	}

	c.JSON(http.StatusCreated, user)
}

// login handles sign-in
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	token, p, err := h.Sessions.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, "Login failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  p,
	})
}

// logout revokes the caller's token
func (h *Handler) logout(c *gin.Context) {
	if err := h.Sessions.SignOut(c.Request.Context(), bearerToken(c)); err != nil {
		respondError(c, err, "Logout failed")
		return
	}
	c.Status(http.StatusNoContent)
}

// me returns the caller's principal
func (h *Handler) me(c *gin.Context) {
	c.JSON(http.StatusOK, principal(c))
}
