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
	"fmt"
	"os"

	"github.com/AleutianAI/EthosGuard/cmd/ethos/config"
	"github.com/AleutianAI/EthosGuard/pkg/logging"
	"github.com/AleutianAI/EthosGuard/services/ledger"
	badgerstore "github.com/AleutianAI/EthosGuard/services/ledger/storage/badger"
)

// newLogger builds the process logger from the loaded config.
//
// When ExportFile is set, entries are additionally appended there via a
// WriterExporter. An unopenable export file degrades to a warning rather
// than blocking startup.
func newLogger(service string) *logging.Logger {
	cfg := config.Global.Logging
	var exporter logging.LogExporter
	if cfg.ExportFile != "" {
		f, err := os.OpenFile(cfg.ExportFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
		if err != nil {
			fmt.Fprintf(os.Stderr, "log export file %s unavailable: %v\n", cfg.ExportFile, err)
		} else {
			exporter = logging.NewWriterExporter(f)
		}
	}
	return logging.New(logging.Config{
		Level:    parseLevel(cfg.Level),
		LogDir:   cfg.Dir,
		Service:  service,
		JSON:     cfg.JSON,
		Quiet:    cfg.Quiet,
		Exporter: exporter,
	})
}

// parseLevel maps a config string to a log level. Unknown values fall
// back to Info.
func parseLevel(s string) logging.Level {
	switch s {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}

// parseOrdering maps a config string to an ordering mode.
func parseOrdering(s string) (ledger.OrderingMode, error) {
	switch s {
	case "", "strict":
		return ledger.OrderingStrict, nil
	case "advisory":
		return ledger.OrderingAdvisory, nil
	default:
		return ledger.OrderingStrict, fmt.Errorf("unknown ordering mode %q (want strict or advisory)", s)
	}
}

// openBackend opens the durable ledger backend from the loaded config.
func openBackend(logger *logging.Logger) (*badgerstore.Backend, error) {
	cfg := config.Global.Storage
	return badgerstore.Open(badgerstore.Config{
		Path:       cfg.Path,
		InMemory:   cfg.InMemory,
		SyncWrites: cfg.SyncWrites,
		Logger:     logger.Slog(),
	})
}
