package grpc

import (
	"context"
	"errors"
	"io"

	"github.com/dwikikusuma/marketplace-cart/internal/cart/domain"
	summaryapp "github.com/dwikikusuma/marketplace-cart/internal/summary/app"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client is a typed client for cart.v1.CartService.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Dial opens a plaintext connection that speaks the JSON codec.
func Dial(addr string, opts ...grpc.DialOption) (*grpc.ClientConn, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(CodecName)),
	}, opts...)
	return grpc.NewClient(addr, opts...)
}

func (c *Client) GetCart(ctx context.Context) ([]domain.LineItem, error) {
	out := new(CartResponse)
	if err := c.cc.Invoke(ctx, fullMethod("GetCart"), &Empty{}, out, callOpts()...); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) AddToCart(ctx context.Context, p domain.Product) ([]domain.LineItem, error) {
	out := new(CartResponse)
	if err := c.cc.Invoke(ctx, fullMethod("AddToCart"), &AddToCartRequest{Product: p}, out, callOpts()...); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) Increment(ctx context.Context, id string) ([]domain.LineItem, error) {
	out := new(CartResponse)
	if err := c.cc.Invoke(ctx, fullMethod("Increment"), &ItemRequest{ID: id}, out, callOpts()...); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) Decrement(ctx context.Context, id string) ([]domain.LineItem, error) {
	out := new(CartResponse)
	if err := c.cc.Invoke(ctx, fullMethod("Decrement"), &ItemRequest{ID: id}, out, callOpts()...); err != nil {
		return nil, err
	}
	return out.Items, nil
}

func (c *Client) GetSummary(ctx context.Context) (summaryapp.View, error) {
	out := new(SummaryResponse)
	if err := c.cc.Invoke(ctx, fullMethod("GetSummary"), &Empty{}, out, callOpts()...); err != nil {
		return summaryapp.View{}, err
	}
	return out.Summary, nil
}

// WatchSummary calls fn for every summary the server pushes until the stream
// ends, ctx is done or fn returns an error.
func (c *Client) WatchSummary(ctx context.Context, fn func(summaryapp.View) error) error {
	stream, err := c.cc.NewStream(ctx, &serviceDesc.Streams[0], fullMethod("WatchSummary"), callOpts()...)
	if err != nil {
		return err
	}
	if err := stream.SendMsg(&Empty{}); err != nil {
		return err
	}
	if err := stream.CloseSend(); err != nil {
		return err
	}

	for {
		msg := new(SummaryResponse)
		if err := stream.RecvMsg(msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := fn(msg.Summary); err != nil {
			return err
		}
	}
}

func callOpts() []grpc.CallOption {
	return []grpc.CallOption{grpc.CallContentSubtype(CodecName)}
}
