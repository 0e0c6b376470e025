package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"taskboard/internal/config"
	"taskboard/internal/domain"
	router "taskboard/internal/http"
	"taskboard/internal/http/handlers"
	"taskboard/internal/logging"
	"taskboard/internal/service"
	"taskboard/internal/store/memory"
	"taskboard/internal/validation"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "taskboard: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	fs := pflag.NewFlagSet("taskboard", pflag.ContinueOnError)
	cfg, err := config.Load(fs, os.Args[1:])
	if err != nil {
		return err
	}

	logger, err := logging.New(os.Stderr, logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	calendar := domain.NewCalendar(clockwork.NewRealClock(), loc)

	store := memory.New(calendar)

	taskService, err := service.New(store, calendar, logger)
	if err != nil {
		return fmt.Errorf("service initiation failed: %w", err)
	}

	validator, err := validation.New()
	if err != nil {
		return fmt.Errorf("loading request schemas: %w", err)
	}

	handler := handlers.New(taskService, handlers.Options{
		Validator:    validator,
		Calendar:     calendar,
		Logger:       logger,
		MaxBodyBytes: cfg.MaxBodyBytes,
	})
	health := handlers.NewHealth(cfg.Environment, calendar.Now)

	if cfg.EnableReset {
		logger.Warn("task reset endpoint enabled", "route", "DELETE "+router.TaskPath)
	}

	server := router.NewServer(router.ServerConfig{
		Address: cfg.HTTPPort,
		Handler: router.New(handler, health, router.Options{
			Logger:         logger,
			AllowedOrigins: cfg.AllowedOrigins(),
			Production:     cfg.IsProduction(),
			EnableReset:    cfg.EnableReset,
		}),
		Logger:          logger,
		ShutdownTimeout: cfg.ShutdownTimeout,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", "environment", cfg.Environment, "timezone", loc.String())
	return server.Serve(ctx)
}
