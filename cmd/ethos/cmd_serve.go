// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/AleutianAI/EthosGuard/cmd/ethos/config"
	"github.com/AleutianAI/EthosGuard/services/ledger"
	"github.com/AleutianAI/EthosGuard/services/ledger/telemetry"
)

// runServe starts the ledger API server.
//
// Description:
//
//	Opens the durable ledger backend, seeds the in-memory sequence from
//	it, and serves the ledger API plus a Prometheus /metrics endpoint
//	until SIGINT or SIGTERM. Shutdown drains in-flight requests before
//	closing the store.
func runServe(cmd *cobra.Command, args []string) {
	logger := newLogger("ledger")
	defer logger.Close()

	port := config.Global.Server.Port
	if servePort != 0 {
		port = servePort
	}
	debug := serveDebug || config.Global.Server.Debug

	// Set Gin mode
	if debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Telemetry first so the meter provider is set before instruments
	// are created.
	ctx := context.Background()
	telemetryShutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "ethos-ledger",
		ServiceVersion: ledger.ServiceVersion,
		Environment:    telemetry.DefaultConfig().Environment,
		MetricExporter: telemetry.DefaultConfig().MetricExporter,
	})
	if err != nil {
		log.Fatalf("Error initializing telemetry: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telemetryShutdown(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err.Error())
		}
	}()

	metrics, err := telemetry.NewMetrics(otel.Meter("ethos-ledger"))
	if err != nil {
		log.Fatalf("Error creating metric instruments: %v", err)
	}

	ordering, err := parseOrdering(config.Global.Ledger.Ordering)
	if err != nil {
		log.Fatalf("Error in ledger config: %v", err)
	}

	backend, err := openBackend(logger)
	if err != nil {
		log.Fatalf("Error opening ledger storage: %v", err)
	}

	svc := ledger.NewService(ledger.ServiceConfig{
		DefaultSubjectID: config.Global.Ledger.DefaultSubjectID,
		Ordering:         ordering,
		Backend:          backend,
		Logger:           logger.Slog(),
		Metrics:          metrics,
	})
	if err := svc.Load(ctx); err != nil {
		log.Fatalf("Error loading ledger from storage: %v", err)
	}

	// Setup router
	router := gin.New()
	router.Use(gin.Recovery())
	if debug {
		router.Use(gin.Logger())
	}

	handlers := ledger.NewHandlers(svc)
	v1 := router.Group("/v1")
	ledger.RegisterRoutes(v1, handlers)
	if mh := telemetry.MetricsHandler(); mh != nil {
		router.GET("/metrics", gin.WrapH(mh))
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("starting EthosGuard ledger server",
			"address", srv.Addr,
			"records", svc.Len(),
			"ordering", ordering.String())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err.Error())
			os.Exit(1)
		}
	}()

	<-quit
	logger.Info("shutting down EthosGuard ledger server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err.Error())
	}
	if err := svc.Close(); err != nil {
		logger.Error("store close failed", "error", err.Error())
	}
}
