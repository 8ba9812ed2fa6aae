package app

import (
	"context"
	"errors"
	"flag"
	"os/signal"
	"syscall"

	"github.com/muratoffalex/ytscribe/internal/app/di"
	"github.com/muratoffalex/ytscribe/internal/config"
	"github.com/muratoffalex/ytscribe/internal/logger"
)

type Application struct {
	Logger logger.Logger
	cfg    *config.Config
	di     *di.Container
	ctx    context.Context
	cancel context.CancelFunc
}

func New() (*Application, error) {
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	cfg, err := config.Load()
	if err != nil {
		cancel()
		return nil, err
	}

	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		cancel()
		return nil, err
	}
	container.Logger.Info("DI Container created")

	return &Application{
		Logger: container.Logger,
		cfg:    cfg,
		di:     container,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start serves until the listener fails or a shutdown signal arrives.
func (a *Application) Start() error {
	a.Logger.Info("Starting application")

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.di.Server.Listen(a.cfg.Server().Address)
	}()

	select {
	case err := <-errCh:
		return err
	case <-a.ctx.Done():
		return a.shutdown()
	}
}

func (a *Application) shutdown() error {
	a.Logger.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server().ShutdownTimeout)
	defer cancel()

	return errors.Join(
		a.di.Server.Shutdown(ctx),
		a.di.Cache.Close(),
	)
}

func (a *Application) WaitForShutdown() {
	a.cancel()
	a.Logger.Info("Application stopped")
}
