package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/storefront/internal/core/cartsync"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

const (
	SessionHeader = "X-Session-ID"

	ctxSynchronizer = "cart"
	ctxSession      = "session"
)

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Services struct {
	Registry *cartsync.Registry
	Auth     *service.AuthService
	Catalog  *service.CatalogService
	Checkout *service.CheckoutService
	Media    *service.MediaService
	Contact  *service.ContactService
	// Google is nil when OAuth login is not configured
	Google *GoogleOAuth
	Health map[string]HealthCheck
}

type HTTPHandler struct {
	svc Services
	log *logrus.Logger
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func NewHTTPHandler(svc Services, log *logrus.Logger) *HTTPHandler {
	return &HTTPHandler{svc: svc, log: log}
}

// NewRouter returns an engine with recovery, request logging and every route.
func (h *HTTPHandler) NewRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(h.log))
	h.RegisterRoutes(router)
	return router
}

func (h *HTTPHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)

	api := r.Group("/api")
	api.POST("/session", h.CreateSession)
	api.POST("/auth/register", h.Register)
	api.GET("/auth/google/login", h.GoogleLogin)
	api.GET("/auth/google/callback", h.GoogleCallback)
	api.GET("/products", h.ListProducts)
	api.GET("/products/:id", h.GetProduct)
	api.GET("/images/:id", h.GetImage)
	api.POST("/contact", h.Contact)

	session := api.Group("", h.requireSession)
	session.POST("/auth/login", h.Login)
	session.POST("/auth/logout", h.Logout)
	session.GET("/cart", h.GetCart)
	session.POST("/cart", h.AddToCart)
	session.PUT("/cart", h.UpdateCart)
	session.DELETE("/cart", h.DeleteFromCart)
	session.GET("/cart/contains/:productId", h.CartContains)
	session.POST("/checkout", h.Checkout)

	admin := session.Group("/products", h.requireAdmin)
	admin.POST("", h.CreateProduct)
	admin.PUT("/:id", h.UpdateProduct)
	admin.DELETE("/:id", h.DeleteProduct)

	upload := session.Group("/upload", h.requireAdmin)
	upload.POST("", h.UploadImage)
	upload.DELETE("", h.DeleteImage)
}

func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.svc.Health))
	status := http.StatusOK
	for name, check := range h.svc.Health {
		if err := check(ctx); err != nil {
			h.log.WithError(err).WithField("dependency", name).Warn("health check failed")
			checks[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "up"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}

// requireSession attaches the caller's session and cart Synchronizer.
func (h *HTTPHandler) requireSession(c *gin.Context) {
	s, session, err := h.svc.Registry.Get(c.Request.Context(), c.GetHeader(SessionHeader))
	if err != nil {
		h.writeError(c, err)
		c.Abort()
		return
	}
	c.Set(ctxSynchronizer, s)
	c.Set(ctxSession, session)
	c.Next()
}

func (h *HTTPHandler) requireAdmin(c *gin.Context) {
	session := sessionFrom(c)
	if !session.Authenticated() {
		h.writeError(c, domain.ErrNotAuthenticated)
		c.Abort()
		return
	}
	if session.Role != domain.RoleAdmin {
		h.writeError(c, domain.ErrForbidden)
		c.Abort()
		return
	}
	c.Next()
}

func synchronizerFrom(c *gin.Context) *cartsync.Synchronizer {
	return c.MustGet(ctxSynchronizer).(*cartsync.Synchronizer)
}

func sessionFrom(c *gin.Context) domain.Session {
	session, _ := c.Get(ctxSession)
	s, _ := session.(domain.Session)
	return s
}

func (h *HTTPHandler) writeError(c *gin.Context, err error) {
	status, body := errorResponse(err)
	if status == http.StatusInternalServerError {
		h.log.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).Error("request failed")
	}
	c.JSON(status, body)
}

func errorResponse(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"}
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "INSUFFICIENT_STOCK"}
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "CONFLICT"}
	case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrEmptyCart):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"}
	case errors.Is(err, domain.ErrNotAuthenticated), errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, ErrorResponse{Error: err.Error(), Code: "UNAUTHORIZED"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, ErrorResponse{Error: err.Error(), Code: "FORBIDDEN"}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Error: "request timed out"}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: "internal server error"}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg, Code: "INVALID_REQUEST"})
}

// RequestLogger logs one line per request once it completes.
func RequestLogger(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		entry := log.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status_code": c.Writer.Status(),
			"latency_ms":  time.Since(start).Milliseconds(),
			"remote_ip":   c.ClientIP(),
		})
		if sid := c.GetHeader(SessionHeader); sid != "" {
			entry = entry.WithField("session_id", sid)
		}

		switch status := c.Writer.Status(); {
		case status >= 500:
			entry.Error("request completed with server error")
		case status >= 400:
			entry.Warn("request completed with client error")
		default:
			entry.Info("request completed")
		}
	}
}
