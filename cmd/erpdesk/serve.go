// ABOUTME: The serve subcommand: initialize the store, then serve commands over HTTP
// ABOUTME: Shuts the listener down gracefully on SIGINT/SIGTERM

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/2389/erpdesk/internal/commands"
)

const (
	shutdownTimeout = 10 * time.Second
	readyTimeout    = 2 * time.Second
)

func runServe(ctx context.Context) error {
	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	a, configPath, err := loadApp()
	if err != nil {
		return err
	}

	dbPath, err := a.store.ResolvePath()
	if err != nil {
		return err
	}

	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)

	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", configPath)
	green.Print("    ▶ ")
	fmt.Printf("Database:  %s ", dbPath)
	gray.Printf("(%s)\n", a.cfg.Database.Driver)
	green.Print("    ▶ ")
	fmt.Printf("HTTP:      %s\n", a.cfg.Server.HTTPAddr)
	if a.cfg.Metrics.Enabled {
		green.Print("    ▶ ")
		fmt.Printf("Metrics:   %s\n", a.cfg.Metrics.Path)
	}
	fmt.Println()

	// The listener only starts once initialization has finished. A failure
	// is logged and the process keeps serving so initDatabase can retry.
	if err := a.store.Initialize(ctx); err != nil {
		yellow.Println("    ! store initialization failed, serving in degraded mode")
		a.logger.Error("store initialization failed", "error", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	dispatcher := commands.NewDispatcher(a.authority, commands.NewMetrics(reg), a.logger)
	commands.Register(dispatcher, commands.Services{
		Store:   a.store,
		Auth:    a.authority,
		Hasher:  a.hasher,
		Version: version,
	})

	opts := commands.RouterOptions{
		Ready: func() bool {
			ctx, cancel := context.WithTimeout(context.Background(), readyTimeout)
			defer cancel()
			ok, err := a.store.SchemaReady(ctx)
			return err == nil && ok
		},
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		Logger:         a.logger,
	}
	if a.cfg.Metrics.Enabled {
		opts.MetricsPath = a.cfg.Metrics.Path
		opts.Gatherer = reg
	}

	srv := &http.Server{
		Addr:              a.cfg.Server.HTTPAddr,
		Handler:           commands.NewRouter(dispatcher, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	a.logger.Info("starting erpdesk",
		"config", configPath,
		"http_addr", a.cfg.Server.HTTPAddr,
		"database", dbPath,
		"commands", len(dispatcher.Names()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
		return nil
	})

	return g.Wait()
}
