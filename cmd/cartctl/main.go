package main

import (
	"context"
	"fmt"
	"os"

	cartgrpc "github.com/dwikikusuma/marketplace-cart/internal/cart/grpc"
	"github.com/dwikikusuma/marketplace-cart/pkg/config"
	"github.com/dwikikusuma/marketplace-cart/pkg/logger"
	"github.com/dwikikusuma/marketplace-cart/pkg/shutdown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{
		Service: "cartctl",
		Env:     cfg.AppEnv,
		Level:   cfg.LogLevel,
		Format:  "text",
		Output:  os.Stderr,
	})

	ctx, cancel := shutdown.WithSignals(context.Background())
	defer cancel()

	root := newRootCmd(cfg.CartAddr, dialCart)
	if err := root.ExecuteContext(ctx); err != nil {
		log.Debug("command failed", "err", err)
		os.Exit(1)
	}
}

func dialCart(addr string) (cartAPI, func() error, error) {
	conn, err := cartgrpc.Dial(addr)
	if err != nil {
		return nil, nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return cartgrpc.NewClient(conn), conn.Close, nil
}
