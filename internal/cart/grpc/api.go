package grpc

import (
	"context"

	"github.com/dwikikusuma/marketplace-cart/internal/cart/domain"
	summaryapp "github.com/dwikikusuma/marketplace-cart/internal/summary/app"
	"google.golang.org/grpc"
)

const ServiceName = "cart.v1.CartService"

type Empty struct{}

type AddToCartRequest struct {
	Product domain.Product `json:"product"`
}

type ItemRequest struct {
	ID string `json:"id"`
}

type CartResponse struct {
	Items []domain.LineItem `json:"items"`
}

type SummaryResponse struct {
	Summary summaryapp.View `json:"summary"`
}

// CartServiceServer is the server API of cart.v1.CartService.
type CartServiceServer interface {
	GetCart(context.Context, *Empty) (*CartResponse, error)
	AddToCart(context.Context, *AddToCartRequest) (*CartResponse, error)
	Increment(context.Context, *ItemRequest) (*CartResponse, error)
	Decrement(context.Context, *ItemRequest) (*CartResponse, error)
	GetSummary(context.Context, *Empty) (*SummaryResponse, error)
	WatchSummary(*Empty, SummaryStream) error
}

type SummaryStream interface {
	Send(*SummaryResponse) error
	Context() context.Context
}

func RegisterCartServiceServer(s grpc.ServiceRegistrar, srv CartServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CartServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetCart", Handler: unary("GetCart", CartServiceServer.GetCart)},
		{MethodName: "AddToCart", Handler: unary("AddToCart", CartServiceServer.AddToCart)},
		{MethodName: "Increment", Handler: unary("Increment", CartServiceServer.Increment)},
		{MethodName: "Decrement", Handler: unary("Decrement", CartServiceServer.Decrement)},
		{MethodName: "GetSummary", Handler: unary("GetSummary", CartServiceServer.GetSummary)},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "WatchSummary", Handler: watchSummaryHandler, ServerStreams: true},
	},
	Metadata: "cart/v1/cart.proto",
}

func fullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

func unary[Req, Resp any](name string, call func(CartServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(CartServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(CartServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type summaryServerStream struct {
	grpc.ServerStream
}

func (s *summaryServerStream) Send(m *SummaryResponse) error {
	return s.ServerStream.SendMsg(m)
}

func watchSummaryHandler(srv any, stream grpc.ServerStream) error {
	in := new(Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(CartServiceServer).WatchSummary(in, &summaryServerStream{stream})
}
