package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/app"
	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/config"
	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/domain"
	"github.com/HammadShahzad/seo-blog-saas-sub001/internal/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if f := domain.AsFailure(err); f != nil {
			fmt.Fprintf(os.Stderr, "cmspush: %s: %v\n", f.Kind, err)
		}
		os.Exit(1)
	}
}

func run(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	defer logger.Close()

	root := newRootCmd(openPublisher)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// openPublisher loads configuration from the environment and wires the publisher.
func openPublisher(ctx context.Context) (service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log.DebugObj("cmspush starting", "config", cfg)

	pub, err := app.New(ctx, cfg, log)
	if err != nil {
		log.ErrorObj("failed to initialize publisher", "error", err.Error())
		return nil, err
	}
	return pub, nil
}
