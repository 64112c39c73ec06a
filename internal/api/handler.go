package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/localstore"
	"storefront/internal/models"
	"storefront/internal/service"
	"storefront/internal/session"
	"storefront/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// OrderLister reads orders for the admin pages
type OrderLister interface {
	ListOrdersByStatus(ctx context.Context, status string) ([]models.Order, error)
}

// FeedReader reads the recent-order feed written by the worker
type FeedReader interface {
	GetOrderFeed(ctx context.Context, limit int) ([]string, error)
}

// Pinger is a dependency checked by the readiness probe
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the collaborators a Handler needs.
type Dependencies struct {
	Catalog     catalog.Query
	Aggregator  *service.CartAggregator
	Checkout    *service.CheckoutService
	Visitors    localstore.Namespace
	Tokens      *auth.TokenService
	Credentials auth.CredentialStore
	Orders      OrderLister
	Feed        FeedReader
	FeedSize    int
	Cookies     sessions.Store
	Readiness   []Pinger
}

// Handler contains HTTP handlers
type Handler struct {
	deps   Dependencies
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		deps:   deps,
		logger: util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/categories/:category", h.categoryPage)

		visitor := v1.Group("", visitorMiddleware(h.deps.Cookies))
		{
			visitor.GET("/cart", h.getCart)
			visitor.POST("/cart/items", h.addToCart)
			visitor.DELETE("/cart/items/:id", h.removeFromCart)
			visitor.DELETE("/cart", h.clearCart)
			visitor.POST("/cart/direct", h.orderDirectly)

			visitor.GET("/checkout", h.checkoutSummary)
			visitor.POST("/checkout", h.submitCheckout)

			visitor.POST("/auth/login", h.login)
			visitor.POST("/auth/logout", h.logout)
			visitor.GET("/pages/:page", h.pageCheck)

			admin := visitor.Group("/admin", h.requireAdmin())
			{
				admin.GET("/orders", h.listOrders)
				admin.GET("/feed", h.orderFeed)
			}
		}
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck reports ready only when every dependency answers
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	for _, p := range h.deps.Readiness {
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  err.Error(),
				"time":   time.Now().Unix(),
			})
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// per-visitor collaborators

func (h *Handler) storage(c *gin.Context) localstore.Storage {
	return h.deps.Visitors.ForVisitor(visitorID(c))
}

func (h *Handler) cartStore(c *gin.Context) *cart.Store {
	return cart.NewStore(h.storage(c))
}

func (h *Handler) gate(c *gin.Context) *session.Gate {
	storage := h.storage(c)
	return session.NewGate(auth.NewProvider(h.deps.Tokens, h.deps.Credentials, storage), storage)
}

// listProducts handles the catalog listing with optional type and category filters
func (h *Handler) listProducts(c *gin.Context) {
	var f catalog.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid filter",
			"details": err.Error(),
		})
		return
	}
	f = catalog.ParseFilter(f.Type, f.Category)

	products, err := h.deps.Catalog.ListProducts(c.Request.Context())
	if err != nil {
		h.respondError(c, "Failed to list products", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": catalog.FilterProducts(products, f),
	})
}

// categoryPage handles a single category listing
func (h *Handler) categoryPage(c *gin.Context) {
	category := c.Param("category")

	products, err := h.deps.Catalog.ListProducts(c.Request.Context())
	if err != nil {
		h.respondError(c, "Failed to list products", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"title":    catalog.CategoryTitle(category),
		"products": catalog.ByCategory(products, category),
	})
}

type cartItemView struct {
	ID      string         `json:"id"`
	Product models.Product `json:"product"`
}

type cartView struct {
	Items    []cartItemView `json:"items"`
	Count    int            `json:"count"`
	Total    string         `json:"total"`
	Currency string         `json:"currency"`
	Display  string         `json:"display"`
}

func newCartView(agg *service.Aggregation) cartView {
	items := make([]cartItemView, 0, len(agg.Items))
	for _, it := range agg.Items {
		items = append(items, cartItemView{ID: it.ID, Product: it.Product})
	}
	return cartView{
		Items:    items,
		Count:    len(items),
		Total:    agg.Total.String(),
		Currency: agg.Currency,
		Display:  agg.Display(),
	}
}

// renderCart aggregates the current cart. Each request renders from a fresh
// read, so the last response to arrive reflects the latest cart.
func (h *Handler) renderCart(c *gin.Context, store *cart.Store) {
	agg, err := h.deps.Aggregator.Aggregate(c.Request.Context(), store.Read(c.Request.Context()))
	if err != nil {
		h.respondError(c, "Failed to load cart", err)
		return
	}
	c.JSON(http.StatusOK, newCartView(agg))
}

func (h *Handler) getCart(c *gin.Context) {
	h.renderCart(c, h.cartStore(c))
}

type productRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

// addToCart appends a product id to the cart
func (h *Handler) addToCart(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	store := h.cartStore(c)
	if err := store.Add(c.Request.Context(), req.ProductID); err != nil {
		h.respondError(c, "Failed to add to cart", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notification": "Added to cart",
		"count":        len(store.Read(c.Request.Context())),
	})
}

// removeFromCart drops every occurrence of the id and re-renders the cart
func (h *Handler) removeFromCart(c *gin.Context) {
	store := h.cartStore(c)
	if err := store.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, "Failed to remove from cart", err)
		return
	}
	h.renderCart(c, store)
}

func (h *Handler) clearCart(c *gin.Context) {
	if err := h.cartStore(c).Clear(c.Request.Context()); err != nil {
		h.respondError(c, "Failed to clear cart", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// orderDirectly replaces the cart with a single product and sends the
// visitor to checkout
func (h *Handler) orderDirectly(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if err := h.cartStore(c).SetSingle(c.Request.Context(), req.ProductID); err != nil {
		h.respondError(c, "Failed to update cart", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"redirect": "checkout"})
}

func (h *Handler) checkoutSummary(c *gin.Context) {
	ids := h.cartStore(c).Read(c.Request.Context())

	summary, err := h.deps.Checkout.PrepareSummary(c.Request.Context(), ids)
	if err != nil {
		h.respondError(c, "Failed to prepare checkout", err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

type checkoutRequest struct {
	FullName string `json:"fullName"`
	Phone    string `json:"phone"`
	Wishes   string `json:"wishes"`
}

// submitCheckout places the order for the visitor's cart
func (h *Handler) submitCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	order, err := h.deps.Checkout.Submit(c.Request.Context(), h.cartStore(c), models.Customer{
		FullName: req.FullName,
		Phone:    req.Phone,
		Wishes:   req.Wishes,
	})
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": "Select at least one product to place an order",
			})
			return
		}
		h.respondError(c, "Failed to place order", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"order":    order,
		"message":  "Order placed",
		"redirect": "cart",
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	decision, err := h.gate(c).SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, "Sign-in failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state":    decision.State.String(),
		"redirect": decision.Redirect,
	})
}

func (h *Handler) logout(c *gin.Context) {
	decision, err := h.gate(c).SignOut(c.Request.Context())
	if err != nil {
		h.respondError(c, "Sign-out failed", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"state":    decision.State.String(),
		"redirect": decision.Redirect,
	})
}

// pageCheck runs the gate for a page load
func (h *Handler) pageCheck(c *gin.Context) {
	page := session.PageName(c.Param("page"))

	decision, err := h.gate(c).Check(c.Request.Context(), page)
	if err != nil {
		h.respondError(c, "Failed to check session", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":     page,
		"state":    decision.State.String(),
		"allowed":  decision.Allowed(),
		"redirect": decision.Redirect,
	})
}

// requireAdmin rejects requests without a signed-in admin
func (h *Handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		decision, err := h.gate(c).Check(c.Request.Context(), session.AdminEntryPage)
		if err != nil {
			h.respondError(c, "Failed to check session", err)
			c.Abort()
			return
		}
		if !decision.Allowed() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    "Sign in required",
				"redirect": decision.Redirect,
			})
			return
		}
		c.Next()
	}
}

// listOrders handles the admin order listings. status defaults to active.
func (h *Handler) listOrders(c *gin.Context) {
	status := c.DefaultQuery("status", models.OrderStatusActive)
	if !models.ValidOrderStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid order status",
		})
		return
	}

	orders, err := h.deps.Orders.ListOrdersByStatus(c.Request.Context(), status)
	if err != nil {
		h.respondError(c, "Failed to list orders", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"orders": orders,
	})
}

// orderFeed returns the most recent orders seen by the worker
func (h *Handler) orderFeed(c *gin.Context) {
	raw, err := h.deps.Feed.GetOrderFeed(c.Request.Context(), h.deps.FeedSize)
	if err != nil {
		h.respondError(c, "Failed to load order feed", err)
		return
	}

	entries := make([]models.OrderFeedEntry, 0, len(raw))
	for _, r := range raw {
		var e models.OrderFeedEntry
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			h.logger.Warn("Skipping malformed feed entry", zap.Error(err))
			continue
		}
		entries = append(entries, e)
	}

	c.JSON(http.StatusOK, gin.H{"orders": entries})
}

// respondError maps domain errors to HTTP statuses
func (h *Handler) respondError(c *gin.Context, msg string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrValidation):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, models.ErrPersistence):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error(msg, zap.Error(err), zap.String("path", c.FullPath()))
	}

	c.JSON(status, gin.H{
		"error":   msg,
		"details": err.Error(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
