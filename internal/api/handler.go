package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"anime-market/internal/auth"
	"anime-market/internal/i18n"
	"anime-market/internal/models"
	"anime-market/internal/service"
	"anime-market/internal/util"
	"anime-market/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const ctxLang = "i18n.lang"

// Pinger is a dependency checked by /ready
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups what the handlers call into
type Services struct {
	Orders   *service.OrderService
	Products *service.ProductService
	Users    *service.UserService
	Messages *service.MessageService
	Admin    *service.AdminService
	Reports  *service.ReportService
}

// Handler contains HTTP handlers
type Handler struct {
	orders     *service.OrderService
	products   *service.ProductService
	users      *service.UserService
	messages   *service.MessageService
	admin      *service.AdminService
	reports    *service.ReportService
	tokens     *auth.TokenIssuer
	translator *i18n.Translator
	readiness  map[string]Pinger
	logger     *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(svc Services, tokens *auth.TokenIssuer, translator *i18n.Translator) *Handler {
	return &Handler{
		orders:     svc.Orders,
		products:   svc.Products,
		users:      svc.Users,
		messages:   svc.Messages,
		admin:      svc.Admin,
		reports:    svc.Reports,
		tokens:     tokens,
		translator: translator,
		readiness:  map[string]Pinger{},
		logger:     util.Named("api"),
	}
}

// AddReadinessCheck registers a dependency that must answer for /ready to pass
func (h *Handler) AddReadinessCheck(name string, p Pinger) {
	h.readiness[name] = p
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(h.requestLogger())
	router.Use(h.languageMiddleware())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.POST("/auth/register", h.register)
		v1.POST("/auth/login", h.login)

		v1.GET("/products", h.searchProducts)
		v1.GET("/products/:id", h.getProduct)
		v1.GET("/categories", h.listCategories)
		v1.GET("/categories/:name/products", h.productsByCategory)
	}

	authed := v1.Group("", auth.Middleware(h.tokens, h.reject), h.activeAccount())
	{
		authed.GET("/users/me", h.me)
		authed.GET("/users/me/products", h.myProducts)
		authed.GET("/users/me/favorites", h.myFavorites)

		authed.POST("/products", h.createProduct)
		authed.PATCH("/products/:id/price", h.updatePrice)
		authed.DELETE("/products/:id", h.removeProduct)
		authed.POST("/products/:id/favorite", h.favoriteProduct)
		authed.DELETE("/products/:id/favorite", h.unfavoriteProduct)

		authed.POST("/reports", h.fileReport)

		authed.POST("/orders", h.createOrder)
		authed.GET("/orders", h.listOrders)
		authed.GET("/orders/:id", h.getOrder)
		authed.POST("/orders/:id/pay", h.payOrder)
		authed.POST("/orders/:id/ship", h.shipOrder)
		authed.POST("/orders/:id/confirm", h.confirmReceipt)
		authed.POST("/orders/:id/cancel", h.requestCancel)
		authed.POST("/orders/:id/cancel/approve", h.approveCancel)
		authed.POST("/orders/:id/cancel/reject", h.rejectCancel)
		authed.POST("/orders/:id/refund", h.requestRefund)
		authed.POST("/orders/:id/refund/approve", h.approveRefund)
		authed.POST("/orders/:id/refund/reject", h.rejectRefund)

		authed.GET("/messages", h.inbox)
		authed.POST("/messages", h.sendMessage)
		authed.POST("/messages/read", h.markRead)

		authed.DELETE("/admin/products/:id", h.adminRemoveProduct)
		authed.POST("/admin/users/:id/ban", h.adminBanUser)
		authed.POST("/admin/users/:id/unban", h.adminUnbanUser)
		authed.PUT("/admin/users/:id/role", h.adminSetRole)
		authed.GET("/admin/stats", h.adminStats)
		authed.GET("/admin/users", h.adminListUsers)
		authed.GET("/admin/products", h.adminListProducts)
		authed.GET("/admin/reports", h.adminPendingReports)
		authed.POST("/admin/reports/:id/review", h.adminReviewReport)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck pings every registered dependency
func (h *Handler) readinessCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, p := range h.readiness {
		if err := p.Ping(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
			"failed": failed,
			"time":   time.Now().Unix(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// languageMiddleware picks the response language from ?lang= or Accept-Language
func (h *Handler) languageMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		pref := c.Query("lang")
		if pref == "" {
			pref = c.GetHeader("Accept-Language")
		}
		c.Set(ctxLang, h.translator.Resolve(pref))
		c.Next()
	}
}

// activeAccount stops callers whose account was banned after login
func (h *Handler) activeAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		err := h.users.CheckActive(c.Request.Context(), callerID(c))
		switch {
		case err == nil:
			c.Next()
			return
		case errors.Is(err, models.ErrUserBanned):
			h.reject(c, http.StatusForbidden, "user.banned")
		case errors.Is(err, models.ErrUserNotFound):
			h.reject(c, http.StatusUnauthorized, auth.UnauthorizedKey)
		default:
			h.internalError(c, err)
		}
		c.Abort()
	}
}

func (h *Handler) t(c *gin.Context, key string, args map[string]interface{}) string {
	return h.translator.T(c.GetString(ctxLang), key, args)
}

func (h *Handler) ok(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func (h *Handler) reject(c *gin.Context, status int, key string) {
	c.JSON(status, gin.H{"success": false, "message": h.t(c, key, nil)})
}

// callerID returns the authenticated user. The auth middleware guarantees it
// on every route that calls this.
func callerID(c *gin.Context) int64 {
	id, _ := auth.UserID(c)
	return id
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// fail maps a service error onto a status and a translated message
func (h *Handler) fail(c *gin.Context, err error) {
	var vErr *validator.Error
	var permErr *models.PermissionError

	switch {
	case errors.As(err, &vErr):
		h.reject(c, http.StatusBadRequest, vErr.Key)
	case errors.As(err, &permErr):
		h.reject(c, http.StatusForbidden, "common.forbidden")
	case errors.Is(err, models.ErrInvalidCredentials):
		h.reject(c, http.StatusUnauthorized, "user.login_failed")
	case errors.Is(err, models.ErrUserBanned):
		h.reject(c, http.StatusForbidden, "user.banned")
	case errors.Is(err, models.ErrNotSeller):
		h.reject(c, http.StatusForbidden, "product.not_seller")
	case errors.Is(err, models.ErrUserExists):
		h.reject(c, http.StatusConflict, "user.user_exists")
	case errors.Is(err, models.ErrInvalidRole):
		h.reject(c, http.StatusBadRequest, "common.bad_request")
	case errors.Is(err, models.ErrEmptyMessage):
		h.reject(c, http.StatusBadRequest, "message.empty")
	case errors.Is(err, models.ErrInvalidReport):
		h.reject(c, http.StatusBadRequest, "report.invalid")
	case errors.Is(err, models.ErrReportReviewed):
		h.reject(c, http.StatusConflict, "report.already_reviewed")
	case errors.Is(err, models.ErrAlreadyFavorited):
		h.reject(c, http.StatusConflict, "product.already_favorited")
	case errors.Is(err, models.ErrNotFavorited):
		h.reject(c, http.StatusNotFound, "product.not_favorited")
	case errors.Is(err, models.ErrUserNotFound),
		errors.Is(err, models.ErrProductNotFound),
		errors.Is(err, models.ErrOrderNotFound),
		errors.Is(err, models.ErrReportNotFound):
		h.reject(c, http.StatusNotFound, "common.not_found")
	default:
		h.internalError(c, err)
	}
}

func (h *Handler) internalError(c *gin.Context, err error) {
	h.logger.Error("Request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err))
	h.reject(c, http.StatusInternalServerError, "common.internal_error")
}

// requestLogger writes one access log line per request
func (h *Handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		h.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
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
