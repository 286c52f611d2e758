package grpc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dwikikusuma/marketplace-cart/internal/cart/app"
	"github.com/dwikikusuma/marketplace-cart/internal/cart/domain"
	summaryapp "github.com/dwikikusuma/marketplace-cart/internal/summary/app"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Server struct {
	svc     *app.Service
	summary *summaryapp.Presenter
}

func NewServer(svc *app.Service, summary *summaryapp.Presenter) *Server {
	return &Server{svc: svc, summary: summary}
}

func (s *Server) GetCart(ctx context.Context, _ *Empty) (*CartResponse, error) {
	items, err := s.svc.Products(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return toResponse(items), nil
}

func (s *Server) AddToCart(ctx context.Context, req *AddToCartRequest) (*CartResponse, error) {
	items, err := s.svc.AddToCart(ctx, req.Product)
	if err != nil {
		return nil, mapErr(err)
	}
	return toResponse(items), nil
}

func (s *Server) Increment(ctx context.Context, req *ItemRequest) (*CartResponse, error) {
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	items, err := s.svc.Increment(ctx, req.ID)
	if err != nil {
		return nil, mapErr(err)
	}
	return toResponse(items), nil
}

func (s *Server) Decrement(ctx context.Context, req *ItemRequest) (*CartResponse, error) {
	if req.ID == "" {
		return nil, status.Error(codes.InvalidArgument, "id is required")
	}
	items, err := s.svc.Decrement(ctx, req.ID)
	if err != nil {
		return nil, mapErr(err)
	}
	return toResponse(items), nil
}

func (s *Server) GetSummary(ctx context.Context, _ *Empty) (*SummaryResponse, error) {
	items, err := s.svc.Products(ctx)
	if err != nil {
		return nil, mapErr(err)
	}
	return &SummaryResponse{Summary: s.summary.Render(items)}, nil
}

func (s *Server) WatchSummary(_ *Empty, stream SummaryStream) error {
	ctx := stream.Context()
	feed, cancel, err := s.svc.Subscribe(ctx)
	if err != nil {
		return mapErr(err)
	}
	defer cancel()

	for view := range s.summary.Watch(ctx, feed) {
		if err := stream.Send(&SummaryResponse{Summary: view}); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Unavailable, "cart service closed")
}

func toResponse(items []domain.LineItem) *CartResponse {
	if items == nil {
		items = []domain.LineItem{}
	}
	return &CartResponse{Items: items}
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, domain.ErrInvalidItem):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrItemNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, app.ErrClosed), errors.Is(err, app.ErrStorageUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return status.FromContextError(err).Err()
	}
	return status.Error(codes.Internal, "internal error")
}

// LoggingInterceptor logs every unary call with a request id, its code and
// latency.
func LoggingInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		attrs := []any{
			slog.String("request_id", uuid.NewString()),
			slog.String("method", info.FullMethod),
			slog.String("code", status.Code(err).String()),
			slog.Duration("latency", time.Since(start)),
		}
		if err != nil && status.Code(err) == codes.Internal {
			log.Error("rpc failed", append(attrs, slog.Any("err", err))...)
		} else {
			log.Info("rpc", attrs...)
		}
		return resp, err
	}
}
