package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/BrunoKrugel/irpreview/internal/capture"
	"github.com/BrunoKrugel/irpreview/internal/client"
	"github.com/BrunoKrugel/irpreview/internal/config"
	"github.com/BrunoKrugel/irpreview/internal/display"
	"github.com/BrunoKrugel/irpreview/internal/log"
	"github.com/BrunoKrugel/irpreview/internal/preview"
	"github.com/BrunoKrugel/irpreview/internal/source"
	"github.com/BrunoKrugel/irpreview/internal/source/opencv"
	"github.com/BrunoKrugel/irpreview/internal/source/snapshot"
	"github.com/BrunoKrugel/irpreview/internal/source/synthetic"
	_ "github.com/joho/godotenv/autoload"
)

// The window surface must stay on the main OS thread.
func init() {
	runtime.LockOSThread()
}

func main() {
	if err := run(); err != nil {
		log.Error("irpreview stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.NewConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log.Init(cfg.Server.LogLevel)
	logger := log.L()

	backend, err := newBackend(cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	presenter := preview.NewPresenter(logger)

	c, err := capture.Start(ctx, backend, backend, presenter.HandleFrameArrived, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if cfg.Server.Window {
		return display.RunWindow(ctx, c.Group.DisplayName, presenter.Updates(), logger)
	}

	surface := display.NewSurface(cfg.Server.JPEGQuality, logger)
	go surface.Run(ctx, presenter.Updates())

	server := display.NewServer(surface, cfg.Server.FPS, func() any { return presenter.Stats() }, logger)
	httpServer := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	logger.Info("preview ready", "stream", fmt.Sprintf("http://localhost:%s/stream", cfg.Server.Port), "fps", cfg.Server.FPS)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newBackend(cfg *config.Config) (source.Backend, error) {
	logger := log.L()

	switch cfg.Source.Backend {
	case "snapshot":
		cameras, err := cfg.Source.Cameras()
		if err != nil {
			return nil, err
		}
		for _, c := range cameras {
			logger.Info("snapshot camera configured", "name", c.Name, "kind", c.Kind)
		}
		return snapshot.New(cameras, client.NewRestyClient(cfg), cfg.Source.FetchFPS, logger)
	case "opencv":
		devices, err := cfg.Source.Devices()
		if err != nil {
			return nil, err
		}
		return opencv.New(devices, cfg.Source.FetchFPS, logger)
	default:
		width, height, err := cfg.Source.Size()
		if err != nil {
			return nil, err
		}
		return synthetic.New(width, height, cfg.Source.FetchFPS, logger), nil
	}
}
