// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

// TestCreateDefault verifies default config creation.
func TestCreateDefault(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, ".ethos", "ethos.yaml")

	err := createDefault(configPath)
	if err != nil {
		t.Fatalf("createDefault() failed: %v", err)
	}

	// Verify the file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}

	// Read and verify the config
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config file: %v", err)
	}

	var cfg EthosConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("failed to parse config: %v", err)
	}

	// Verify some defaults
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Ledger.Ordering != "strict" {
		t.Errorf("Ledger.Ordering = %q, want %q", cfg.Ledger.Ordering, "strict")
	}
	if !cfg.Storage.SyncWrites {
		t.Error("Storage.SyncWrites should default to true")
	}
}

// TestCreateDefault_DirectoryCreation verifies directory is created.
func TestCreateDefault_DirectoryCreation(t *testing.T) {
	tempDir := t.TempDir()

	// Use a nested path
	configPath := filepath.Join(tempDir, "deep", "nested", "path", "ethos.yaml")

	err := createDefault(configPath)
	if err != nil {
		t.Fatalf("createDefault() failed with nested path: %v", err)
	}

	// Verify the directories were created
	dirPath := filepath.Dir(configPath)
	if _, err := os.Stat(dirPath); os.IsNotExist(err) {
		t.Fatal("nested directories were not created")
	}
}

// TestDefaultConfig_StoragePath verifies the storage path is rooted in home.
func TestDefaultConfig_StoragePath(t *testing.T) {
	cfg := DefaultConfig()

	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory on test system")
	}
	want := filepath.Join(home, ".ethos", "ledger")
	if cfg.Storage.Path != want {
		t.Errorf("Storage.Path = %q, want %q", cfg.Storage.Path, want)
	}
}
