package handler

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/storefront/internal/adapter/handler/pb"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

// GRPCHandler serves the Account Store cart API.
type GRPCHandler struct {
	pb.UnimplementedCartServiceServer
	carts port.AccountCartAPI
	log   *logrus.Logger
}

func NewGRPCHandler(carts port.AccountCartAPI, log *logrus.Logger) *GRPCHandler {
	return &GRPCHandler{carts: carts, log: log}
}

func (h *GRPCHandler) Register(s *grpc.Server) {
	pb.RegisterCartServiceServer(s, h)
}

func (h *GRPCHandler) GetCart(ctx context.Context, req *pb.CartRequest) (*pb.CartResponse, error) {
	if req.AccountID == "" {
		return nil, status.Error(codes.InvalidArgument, "account_id is required")
	}
	cart, err := h.carts.GetCart(ctx, req.AccountID)
	return h.reply("GetCart", cart, err)
}

func (h *GRPCHandler) AddItem(ctx context.Context, req *pb.ItemRequest) (*pb.CartResponse, error) {
	if req.AccountID == "" || req.ProductID == "" {
		return nil, status.Error(codes.InvalidArgument, "account_id and product_id are required")
	}
	cart, err := h.carts.AddItem(ctx, req.AccountID, req.ProductID, int(req.Quantity))
	return h.reply("AddItem", cart, err)
}

func (h *GRPCHandler) SetItemQuantity(ctx context.Context, req *pb.ItemRequest) (*pb.CartResponse, error) {
	if req.AccountID == "" || req.ProductID == "" {
		return nil, status.Error(codes.InvalidArgument, "account_id and product_id are required")
	}
	cart, err := h.carts.SetItemQuantity(ctx, req.AccountID, req.ProductID, int(req.Quantity))
	return h.reply("SetItemQuantity", cart, err)
}

func (h *GRPCHandler) RemoveItem(ctx context.Context, req *pb.RemoveItemRequest) (*pb.CartResponse, error) {
	if req.AccountID == "" || req.ProductID == "" {
		return nil, status.Error(codes.InvalidArgument, "account_id and product_id are required")
	}
	cart, err := h.carts.RemoveItem(ctx, req.AccountID, req.ProductID)
	return h.reply("RemoveItem", cart, err)
}

func (h *GRPCHandler) ClearCart(ctx context.Context, req *pb.CartRequest) (*pb.CartResponse, error) {
	if req.AccountID == "" {
		return nil, status.Error(codes.InvalidArgument, "account_id is required")
	}
	cart, err := h.carts.ClearCart(ctx, req.AccountID)
	return h.reply("ClearCart", cart, err)
}

func (h *GRPCHandler) reply(method string, cart domain.Cart, err error) (*pb.CartResponse, error) {
	if err != nil {
		code := grpcCode(err)
		if code == codes.Internal {
			h.log.WithError(err).WithField("method", method).Error("cart rpc failed")
			return nil, status.Error(code, "internal error")
		}
		return nil, status.Error(code, err.Error())
	}
	return pb.FromCart(cart), nil
}

func grpcCode(err error) codes.Code {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		return codes.FailedPrecondition
	case errors.Is(err, domain.ErrConflict):
		return codes.Aborted
	case errors.Is(err, domain.ErrInvalidQuantity), errors.Is(err, domain.ErrValidation):
		return codes.InvalidArgument
	case errors.Is(err, domain.ErrNotAuthenticated):
		return codes.Unauthenticated
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	}
	return codes.Internal
}
