package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	cartapp "github.com/dwikikusuma/marketplace-cart/internal/cart/app"
	cartgrpc "github.com/dwikikusuma/marketplace-cart/internal/cart/grpc"
	cartamqp "github.com/dwikikusuma/marketplace-cart/internal/cart/infra/amqp"
	summaryapp "github.com/dwikikusuma/marketplace-cart/internal/summary/app"
	"github.com/dwikikusuma/marketplace-cart/internal/summary/infra/format"

	"github.com/dwikikusuma/marketplace-cart/pkg/config"
	"github.com/dwikikusuma/marketplace-cart/pkg/logger"
	"github.com/dwikikusuma/marketplace-cart/pkg/shutdown"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{Service: "cartd", Env: cfg.AppEnv, Level: cfg.LogLevel, AddSource: true})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("cartd stopped", slog.Any("err", err))
		os.Exit(1)
	}
	log.Info("bye")
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	storage, closeStorage, err := openStorage(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer func() {
		if err := closeStorage(); err != nil {
			log.Warn("close storage", slog.Any("err", err))
		}
	}()

	opts := []cartapp.Option{cartapp.WithStorageKey(cfg.Storage.Key), cartapp.WithLogger(log)}
	if cfg.Events.AMQPURL != "" {
		conn, ch, err := cartamqp.Dial(cfg.Events.AMQPURL)
		if err != nil {
			return err
		}
		defer conn.Close()
		pub, err := cartamqp.NewPublisher(ch, cfg.Events.Exchange)
		if err != nil {
			return err
		}
		opts = append(opts, cartapp.WithPublisher(pub))
		log.Info("publishing cart events", slog.String("exchange", cfg.Events.Exchange))
	}

	// Cart
	cartSvc, err := cartapp.Open(ctx, storage, opts...)
	if err != nil {
		return fmt.Errorf("open cart: %w", err)
	}
	defer cartSvc.Close()

	// Summary
	currency, err := format.NewCurrency(cfg.Summary.Locale, cfg.Summary.Currency)
	if err != nil {
		return err
	}
	presenter := summaryapp.NewPresenter(currency, nil, cfg.Summary.UnitLabel)

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(cartgrpc.LoggingInterceptor(log)),
	)
	cartgrpc.RegisterCartServiceServer(grpcServer, cartgrpc.NewServer(cartSvc, presenter))

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthSrv)

	grpcAddr := fmt.Sprintf(":%d", cfg.GRPCPort)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", grpcAddr, err)
	}

	httpAddr := fmt.Sprintf(":%d", cfg.HTTPPort)
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           probeMux(storage),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("grpc starting", slog.String("addr", grpcAddr))
		return grpcServer.Serve(lis)
	})
	g.Go(func() error {
		log.Info("http probes starting", slog.String("addr", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		watchHealth(gctx, storage, healthSrv, log)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown requested")
		healthSrv.Shutdown()

		if err := shutdown.Graceful(10*time.Second, httpServer.Shutdown, nil); err != nil {
			log.Error("http shutdown error", slog.Any("err", err))
		}
		err := shutdown.Graceful(10*time.Second, func(context.Context) error {
			grpcServer.GracefulStop()
			return nil
		}, grpcServer.Stop)
		if err != nil {
			log.Warn("graceful stop timeout, forcing stop")
		}
		return nil
	})

	return g.Wait()
}

// watchHealth mirrors storage liveness into the gRPC health service.
func watchHealth(ctx context.Context, storage cartapp.Storage, hs *health.Server, log *slog.Logger) {
	pinger, ok := storage.(cartapp.Pinger)
	if !ok {
		hs.SetServingStatus(cartgrpc.ServiceName, healthpb.HealthCheckResponse_SERVING)
		return
	}

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	last := healthpb.HealthCheckResponse_UNKNOWN
	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := pinger.Ping(pingCtx)
		cancel()

		next := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			next = healthpb.HealthCheckResponse_NOT_SERVING
		}
		if next != last {
			log.Info("health changed", slog.String("status", next.String()), slog.Any("err", err))
			hs.SetServingStatus(cartgrpc.ServiceName, next)
			hs.SetServingStatus("", next)
			last = next
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func probeMux(storage cartapp.Storage) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if p, ok := storage.(cartapp.Pinger); ok {
			if err := p.Ping(r.Context()); err != nil {
				http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
