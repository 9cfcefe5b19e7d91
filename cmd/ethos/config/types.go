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
)

type EthosConfig struct {
	// Server: HTTP API settings for the serve command
	Server ServerConfig `yaml:"server"`

	// Storage: durable ledger location
	Storage StorageConfig `yaml:"storage"`

	// Ledger: record construction and ordering behavior
	Ledger LedgerConfig `yaml:"ledger"`

	// Logging: structured log destinations
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Port  int  `yaml:"port"`  // e.g. 8080
	Debug bool `yaml:"debug"` // enables gin debug mode and request logging
}

type StorageConfig struct {
	Path       string `yaml:"path"`        // e.g. ~/.ethos/ledger
	InMemory   bool   `yaml:"in_memory"`   // no persistence, testing only
	SyncWrites bool   `yaml:"sync_writes"` // fsync every append
}

type LedgerConfig struct {
	// DefaultSubjectID is used when a record request omits the subject.
	DefaultSubjectID string `yaml:"default_subject_id"`

	// Ordering is "strict" (reject out-of-order timestamps) or
	// "advisory" (log and accept).
	Ordering string `yaml:"ordering"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`       // debug, info, warn, error
	Dir        string `yaml:"dir"`         // optional file log directory
	JSON       bool   `yaml:"json"`        // JSON stderr output
	Quiet      bool   `yaml:"quiet"`       // suppress stderr output
	ExportFile string `yaml:"export_file"` // optional export destination, appended to
}

func DefaultConfig() EthosConfig {
	storagePath := "ledger"
	if home, err := os.UserHomeDir(); err == nil {
		storagePath = filepath.Join(home, ".ethos", "ledger")
	}
	return EthosConfig{
		Server: ServerConfig{
			Port:  8080,
			Debug: false,
		},
		Storage: StorageConfig{
			Path:       storagePath,
			InMemory:   false,
			SyncWrites: true,
		},
		Ledger: LedgerConfig{
			DefaultSubjectID: "",
			Ordering:         "strict",
		},
		Logging: LoggingConfig{
			Level: "info",
			JSON:  false,
		},
	}
}
