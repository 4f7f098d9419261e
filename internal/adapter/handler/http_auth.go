package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rl1809/storefront/internal/core/cartsync"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

type LoginRequest struct {
	Documento string `json:"documento" binding:"required"`
	Password  string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Account domain.Account `json:"account"`
	Cart    cartsync.View  `json:"cart"`
}

func (h *HTTPHandler) CreateSession(c *gin.Context) {
	session, err := h.svc.Auth.CreateSession(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Header(SessionHeader, session.ID)
	c.JSON(http.StatusCreated, gin.H{"sessionId": session.ID})
}

func (h *HTTPHandler) Register(c *gin.Context) {
	var req service.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	account, err := h.svc.Auth.Register(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

// Login checks credentials, binds the session and merges the anonymous cart
// into the account's cart before answering.
func (h *HTTPHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "documento and password are required")
		return
	}

	sessionID := sessionFrom(c).ID
	var account domain.Account
	s, err := h.svc.Registry.Authenticate(c.Request.Context(), sessionID, func(ctx context.Context) (string, error) {
		acc, err := h.svc.Auth.Login(ctx, req.Documento, req.Password)
		if err != nil {
			return "", err
		}
		if _, err := h.svc.Auth.BindSession(ctx, sessionID, acc); err != nil {
			return "", err
		}
		account = acc
		return acc.ID, nil
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	h.log.WithField("account_id", account.ID).WithField("session_id", sessionID).Info("logged in")
	c.JSON(http.StatusOK, LoginResponse{Account: account, Cart: s.Snapshot()})
}

func (h *HTTPHandler) Logout(c *gin.Context) {
	sessionID := sessionFrom(c).ID
	err := h.svc.Registry.Logout(c.Request.Context(), sessionID, func(ctx context.Context) error {
		_, err := h.svc.Auth.UnbindSession(ctx, sessionID)
		return err
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, synchronizerFrom(c).Snapshot())
}
