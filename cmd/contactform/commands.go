package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/contactform/internal/config"
	"github.com/deppfellow/contactform/internal/handler"
	"github.com/deppfellow/contactform/internal/logger"
	"github.com/deppfellow/contactform/internal/router"
	"github.com/deppfellow/contactform/internal/server"
	"github.com/deppfellow/contactform/internal/service"
	"github.com/deppfellow/contactform/internal/view"
	"github.com/urfave/cli/v2"
)

// DefaultShutdownTimeout bounds how long in-flight requests may take once a
// shutdown signal arrives.
const DefaultShutdownTimeout = 30 * time.Second

var ServeCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server (default)",
	Action: serve,
}

var CheckCommand = &cli.Command{
	Name:  "check",
	Usage: "Parse the views and render each one with sample data",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "dir",
			Usage: "read templates from `DIR` instead of the configured views directory",
		},
	},
	Action: check,
}

func serve(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	loggerService, err := logger.NewLoggerService(cfg.Observability)
	if err != nil {
		return err
	}
	defer loggerService.Shutdown()

	log := logger.NewLogger(cfg.Observability, loggerService)

	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		return err
	}

	services, err := service.NewServices(srv)
	if err != nil {
		return err
	}

	r := router.NewRouter(srv, handler.NewHandlers(srv, services))
	srv.SetupHTTPServer(r)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server stopped: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server exited properly")

	return nil
}

func check(c *cli.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	if dir := c.String("dir"); dir != "" {
		cfg.Views.Dir = dir
	}
	cfg.Views.Watch = false

	log := logger.NewLoggerWithWriter(cfg.Observability, nil, c.App.ErrWriter)

	views, err := view.New(cfg.Views, &log)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	defer views.Close()

	for _, v := range view.Views {
		if err := views.Execute(c.App.Writer, string(v), view.PreviewData[v]); err != nil {
			return cli.Exit(err.Error(), 1)
		}
		fmt.Fprintf(c.App.Writer, "\nok %s\n", v)
	}

	fmt.Fprintln(c.App.Writer, "all views rendered")

	return nil
}
