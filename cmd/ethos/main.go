// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command ethos manages the EthosGuard prediction audit ledger.
//
// EthosGuard records model predictions with a sensitive-group tag in a
// tamper-evident, append-only ledger and tabulates per-group outcome
// distributions for fairness review.
//
// Usage:
//
//	ethos serve
//	ethos record --group group_a --prediction 1 --input '{"age": 34}'
//	ethos verify
//	ethos summarize
//
// Example requests against a running server:
//
//	# Health check
//	curl http://localhost:8080/v1/ledger/health
//
//	# Record a prediction
//	curl -X POST http://localhost:8080/v1/ledger/records \
//	  -H "Content-Type: application/json" \
//	  -d '{"subject_id": "model-7", "input_data": {"age": 34}, "prediction_output": 1, "sensitive_group": "group_a"}'
//
//	# Verify ledger integrity
//	curl -X POST http://localhost:8080/v1/ledger/verify
//
//	# Per-group drift summary
//	curl http://localhost:8080/v1/ledger/drift
package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/EthosGuard/cmd/ethos/config"
)

func main() {
	// Execute the root command. Cobra handles parsing the arguments.
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if err := config.Load(); err != nil {
			log.Fatalf("Error loading config: %v", err)
		}
	}
}
