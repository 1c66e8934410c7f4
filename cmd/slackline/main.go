// Copyright 2026 The Slackline Authors
// SPDX-License-Identifier: Apache-2.0

// Slackline bridges a workspace realtime connection to standard
// input and output as newline-delimited JSON, resolving wire
// identifiers to human-readable names on the way out and back again
// on the way in. It is built to sit behind a terminal client or any
// program that speaks line-oriented JSON.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/slackline/slackline/bridge"
	"github.com/slackline/slackline/lib/config"
	"github.com/slackline/slackline/lib/version"
	"github.com/slackline/slackline/slack"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var verbose bool
	var showVersion bool

	pflag.StringVar(&configPath, "config", "", "path to config file (default: $SLACKLINE_CONFIG, else built-in defaults)")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Printf("slackline %s\n", version.Info())
		return nil
	}

	// Stdout carries the protocol; all diagnostics go to stderr.
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	token := os.Getenv(cfg.API.TokenEnv)
	if token == "" {
		return fmt.Errorf("no token: set %s", cfg.API.TokenEnv)
	}

	client, err := slack.NewClient(slack.ClientConfig{
		BaseURL: cfg.API.BaseURL,
		Token:   token,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	// The connect-time roster is a human nicety: print it only when
	// a human is plausibly watching stderr.
	var summaryWriter io.Writer
	if term.IsTerminal(int(os.Stderr.Fd())) {
		summaryWriter = os.Stderr
	}

	logger.Info("starting slackline",
		"version", version.Info(),
		"api", cfg.API.BaseURL,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	b := &bridge.Bridge{
		Client:            client,
		Input:             os.Stdin,
		Output:            os.Stdout,
		Logger:            logger,
		KeepaliveInterval: cfg.Keepalive.Interval,
		KeepaliveTimeout:  cfg.Keepalive.Timeout,
		HistoryCount:      cfg.HistoryCount,
		SummaryWriter:     summaryWriter,
	}
	if err := b.Run(ctx); err != nil {
		if ctx.Err() != nil {
			logger.Info("interrupted, shutting down")
			return nil
		}
		return err
	}
	return nil
}
