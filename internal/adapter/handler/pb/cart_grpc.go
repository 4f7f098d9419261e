package pb

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const ServiceName = "storefront.cart.v1.CartService"

const (
	CartService_GetCart_FullMethodName         = "/" + ServiceName + "/GetCart"
	CartService_AddItem_FullMethodName         = "/" + ServiceName + "/AddItem"
	CartService_SetItemQuantity_FullMethodName = "/" + ServiceName + "/SetItemQuantity"
	CartService_RemoveItem_FullMethodName      = "/" + ServiceName + "/RemoveItem"
	CartService_ClearCart_FullMethodName       = "/" + ServiceName + "/ClearCart"
)

type CartServiceClient interface {
	GetCart(ctx context.Context, in *CartRequest, opts ...grpc.CallOption) (*CartResponse, error)
	AddItem(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*CartResponse, error)
	SetItemQuantity(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*CartResponse, error)
	RemoveItem(ctx context.Context, in *RemoveItemRequest, opts ...grpc.CallOption) (*CartResponse, error)
	ClearCart(ctx context.Context, in *CartRequest, opts ...grpc.CallOption) (*CartResponse, error)
}

type cartServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewCartServiceClient(cc grpc.ClientConnInterface) CartServiceClient {
	return &cartServiceClient{cc: cc}
}

func (c *cartServiceClient) invoke(ctx context.Context, method string, in any, opts []grpc.CallOption) (*CartResponse, error) {
	out := new(CartResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *cartServiceClient) GetCart(ctx context.Context, in *CartRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return c.invoke(ctx, CartService_GetCart_FullMethodName, in, opts)
}

func (c *cartServiceClient) AddItem(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return c.invoke(ctx, CartService_AddItem_FullMethodName, in, opts)
}

func (c *cartServiceClient) SetItemQuantity(ctx context.Context, in *ItemRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return c.invoke(ctx, CartService_SetItemQuantity_FullMethodName, in, opts)
}

func (c *cartServiceClient) RemoveItem(ctx context.Context, in *RemoveItemRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return c.invoke(ctx, CartService_RemoveItem_FullMethodName, in, opts)
}

func (c *cartServiceClient) ClearCart(ctx context.Context, in *CartRequest, opts ...grpc.CallOption) (*CartResponse, error) {
	return c.invoke(ctx, CartService_ClearCart_FullMethodName, in, opts)
}

type CartServiceServer interface {
	GetCart(context.Context, *CartRequest) (*CartResponse, error)
	AddItem(context.Context, *ItemRequest) (*CartResponse, error)
	SetItemQuantity(context.Context, *ItemRequest) (*CartResponse, error)
	RemoveItem(context.Context, *RemoveItemRequest) (*CartResponse, error)
	ClearCart(context.Context, *CartRequest) (*CartResponse, error)
}

// UnimplementedCartServiceServer can be embedded to have forward compatible implementations.
type UnimplementedCartServiceServer struct{}

func (UnimplementedCartServiceServer) GetCart(context.Context, *CartRequest) (*CartResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetCart not implemented")
}

func (UnimplementedCartServiceServer) AddItem(context.Context, *ItemRequest) (*CartResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AddItem not implemented")
}

func (UnimplementedCartServiceServer) SetItemQuantity(context.Context, *ItemRequest) (*CartResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method SetItemQuantity not implemented")
}

func (UnimplementedCartServiceServer) RemoveItem(context.Context, *RemoveItemRequest) (*CartResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RemoveItem not implemented")
}

func (UnimplementedCartServiceServer) ClearCart(context.Context, *CartRequest) (*CartResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ClearCart not implemented")
}

func RegisterCartServiceServer(s grpc.ServiceRegistrar, srv CartServiceServer) {
	s.RegisterService(&CartService_ServiceDesc, srv)
}

func unaryMethod[Req any](name string, call func(CartServiceServer, context.Context, *Req) (*CartResponse, error)) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CartServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(CartServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var CartService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CartServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("GetCart", CartServiceServer.GetCart),
		unaryMethod("AddItem", CartServiceServer.AddItem),
		unaryMethod("SetItemQuantity", CartServiceServer.SetItemQuantity),
		unaryMethod("RemoveItem", CartServiceServer.RemoveItem),
		unaryMethod("ClearCart", CartServiceServer.ClearCart),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "storefront/cart/v1/cart.proto",
}
