// Package cartclient reaches a remote Account Store cart API over gRPC.
package cartclient

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rl1809/storefront/internal/adapter/handler/pb"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

type GRPCCartClient struct {
	client pb.CartServiceClient
}

var _ port.AccountCartAPI = (*GRPCCartClient)(nil)

func NewGRPCCartClient(conn grpc.ClientConnInterface) *GRPCCartClient {
	return &GRPCCartClient{client: pb.NewCartServiceClient(conn)}
}

func (c *GRPCCartClient) GetCart(ctx context.Context, accountID string) (domain.Cart, error) {
	return reply(c.client.GetCart(ctx, &pb.CartRequest{AccountID: accountID}))
}

func (c *GRPCCartClient) AddItem(ctx context.Context, accountID, productID string, quantity int) (domain.Cart, error) {
	return reply(c.client.AddItem(ctx, &pb.ItemRequest{
		AccountID: accountID,
		ProductID: productID,
		Quantity:  int64(quantity),
	}))
}

func (c *GRPCCartClient) SetItemQuantity(ctx context.Context, accountID, productID string, quantity int) (domain.Cart, error) {
	return reply(c.client.SetItemQuantity(ctx, &pb.ItemRequest{
		AccountID: accountID,
		ProductID: productID,
		Quantity:  int64(quantity),
	}))
}

func (c *GRPCCartClient) RemoveItem(ctx context.Context, accountID, productID string) (domain.Cart, error) {
	return reply(c.client.RemoveItem(ctx, &pb.RemoveItemRequest{AccountID: accountID, ProductID: productID}))
}

func (c *GRPCCartClient) ClearCart(ctx context.Context, accountID string) (domain.Cart, error) {
	return reply(c.client.ClearCart(ctx, &pb.CartRequest{AccountID: accountID}))
}

func reply(resp *pb.CartResponse, err error) (domain.Cart, error) {
	if err != nil {
		return nil, fromStatus(err)
	}
	return resp.ToCart(), nil
}

// fromStatus turns a status error back into the domain sentinel it was made from.
func fromStatus(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%w: %v", domain.ErrServer, err)
	}

	var sentinel error
	switch st.Code() {
	case codes.NotFound:
		sentinel = domain.ErrNotFound
	case codes.FailedPrecondition:
		sentinel = domain.ErrInsufficientStock
	case codes.Aborted:
		sentinel = domain.ErrConflict
	case codes.InvalidArgument:
		sentinel = domain.ErrInvalidQuantity
	case codes.Unauthenticated:
		sentinel = domain.ErrNotAuthenticated
	case codes.Canceled:
		return context.Canceled
	case codes.DeadlineExceeded:
		return context.DeadlineExceeded
	default:
		sentinel = domain.ErrServer
	}
	return fmt.Errorf("%w: %s", sentinel, st.Message())
}
