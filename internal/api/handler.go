package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/models"
	"storefront/internal/realtime"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Pinger is a dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the HTTP layer serves
type Deps struct {
	Sessions  *session.Manager
	Products  *service.ProductService
	Cart      *service.CartService
	Checkout  *service.CheckoutService
	Orders    *service.OrderService
	Contact   *service.ContactService
	Hub       *realtime.Hub
	Readiness map[string]Pinger
}

// Handler contains HTTP handlers
type Handler struct {
	Deps
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(deps Deps) *Handler {
	return &Handler{
		Deps:   deps,
		logger: util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(requestLogger(h.logger))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/register", h.register)
		v1.POST("/auth/login", h.login)

		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.GET("/categories", h.listCategories)
		v1.POST("/contact", h.submitContact)
	}

	authed := v1.Group("", RequireAuth(h.Sessions))
	{
		authed.POST("/auth/logout", h.logout)
		authed.GET("/auth/me", h.me)

		authed.GET("/cart", h.getCart)
		authed.POST("/cart/items", h.addToCart)
		authed.POST("/cart/items/:id/increment", h.incrementCartItem)
		authed.POST("/cart/items/:id/decrement", h.decrementCartItem)
		authed.DELETE("/cart/items/:id", h.removeCartItem)

		authed.GET("/checkout", h.getCheckout)
		authed.POST("/checkout", h.placeOrder)

		authed.GET("/orders", h.listMyOrders)
		authed.GET("/orders/:id", h.getOrder)
	}

	admin := authed.Group("/admin", RequireRole(models.RoleAdmin))
	{
		admin.POST("/products", h.createProduct)
		admin.PUT("/products/:id", h.updateProduct)
		admin.DELETE("/products/:id", h.deleteProduct)

		admin.GET("/orders", h.listAllOrders)
		admin.POST("/orders/:id/advance", h.advanceOrder)
		admin.PUT("/orders/:id/status", h.setOrderStatus)

		admin.GET("/messages", h.listMessages)
		admin.DELETE("/messages/:id", h.deleteMessage)

		admin.POST("/users", h.createAdmin)

		admin.GET("/changes", h.streamChanges)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	ready := true
	for name, dep := range h.Readiness {
		if err := dep.Ping(ctx); err != nil {
			checks[name] = err.Error()
			ready = false
			continue
		}
		checks[name] = "ok"
	}

	status, code := "ready", http.StatusOK
	if !ready {
		status, code = "not ready", http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status": status,
		"checks": checks,
		"time":   time.Now().Unix(),
	})
}

// idParam parses the :id path parameter
func idParam(c *gin.Context, what string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "Invalid "+what+" ID", err)
		return 0, false
	}
	return id, true
}
