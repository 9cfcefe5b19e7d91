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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/AleutianAI/EthosGuard/cmd/ethos/config"
	"github.com/AleutianAI/EthosGuard/pkg/logging"
	"github.com/AleutianAI/EthosGuard/services/ledger"
)

// TestNewLogger_ExportFile verifies entries reach the configured export
// destination.
func TestNewLogger_ExportFile(t *testing.T) {
	exportPath := filepath.Join(t.TempDir(), "export.log")
	orig := config.Global.Logging
	config.Global.Logging = config.LoggingConfig{
		Level:      "info",
		Quiet:      true,
		ExportFile: exportPath,
	}
	defer func() { config.Global.Logging = orig }()

	logger := newLogger("cli")
	logger.Info("export destination check", "key", "value")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatalf("failed to read export file: %v", err)
	}
	if !strings.Contains(string(data), "export destination check") {
		t.Errorf("export file missing entry, got: %q", string(data))
	}
}

// TestNewLogger_ExportFileUnavailable verifies startup degrades instead of
// failing when the export path cannot be opened.
func TestNewLogger_ExportFileUnavailable(t *testing.T) {
	orig := config.Global.Logging
	config.Global.Logging = config.LoggingConfig{
		Level:      "info",
		Quiet:      true,
		ExportFile: filepath.Join(t.TempDir(), "missing", "export.log"),
	}
	defer func() { config.Global.Logging = orig }()

	logger := newLogger("cli")
	if logger == nil {
		t.Fatal("newLogger returned nil")
	}
	logger.Info("still usable")
	_ = logger.Close()
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want logging.Level
	}{
		{"debug", logging.LevelDebug},
		{"warn", logging.LevelWarn},
		{"error", logging.LevelError},
		{"info", logging.LevelInfo},
		{"", logging.LevelInfo},
		{"bogus", logging.LevelInfo},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseOrdering(t *testing.T) {
	tests := []struct {
		in      string
		want    ledger.OrderingMode
		wantErr bool
	}{
		{"", ledger.OrderingStrict, false},
		{"strict", ledger.OrderingStrict, false},
		{"advisory", ledger.OrderingAdvisory, false},
		{"lenient", ledger.OrderingStrict, true},
	}
	for _, tt := range tests {
		got, err := parseOrdering(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseOrdering(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseOrdering(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
