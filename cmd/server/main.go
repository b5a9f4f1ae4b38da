package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zeusync/suika/internal/config"
	"github.com/zeusync/suika/internal/core/observability/log"
	"github.com/zeusync/suika/internal/injector"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		logger := log.Provide()
		logger.Error("suika exited", log.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Resolve(args, os.Getenv)
	if err != nil {
		return err
	}

	app, err := injector.InitializeApp(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.Logger.Info("Starting",
		log.String("addr", cfg.Addr),
		log.String("placement", cfg.Placement),
		log.Stringer("step_interval", cfg.StepInterval),
		log.Int("kinds", len(cfg.Definitions())))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return app.Loop.Run(gctx) })
	g.Go(func() error {
		if err := app.Server.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.Server.Stop(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return app.Server.Close()
	})

	err = g.Wait()
	app.Logger.Info("Stopped")
	return err
}
