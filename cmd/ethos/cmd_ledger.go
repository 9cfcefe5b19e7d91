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
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/EthosGuard/cmd/ethos/config"
	"github.com/AleutianAI/EthosGuard/pkg/logging"
	"github.com/AleutianAI/EthosGuard/pkg/validation"
	"github.com/AleutianAI/EthosGuard/services/ledger"
	badgerstore "github.com/AleutianAI/EthosGuard/services/ledger/storage/badger"
)

// openService opens the local ledger against the configured storage and
// seeds it from disk. The caller must Close the service.
func openService(logger *logging.Logger) (*ledger.Service, *badgerstore.Backend) {
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
	})
	if err := svc.Load(context.Background()); err != nil {
		log.Fatalf("Error loading ledger from storage: %v", err)
	}
	return svc, backend
}

// runRecord seals and appends one prediction record to the local ledger.
func runRecord(cmd *cobra.Command, args []string) {
	if recordGroup == "" {
		log.Fatal("Error: --group is required")
	}
	if recordOutcome == "" {
		log.Fatal("Error: --prediction is required")
	}

	var input map[string]any
	if err := json.Unmarshal([]byte(recordInput), &input); err != nil {
		log.Fatalf("Error parsing --input as a JSON object: %v", err)
	}

	// Accept any JSON value; bare words fall back to string literals so
	// `--prediction approved` works without quoting.
	var prediction any
	if err := json.Unmarshal([]byte(recordOutcome), &prediction); err != nil {
		prediction = recordOutcome
	}

	subject := recordSubject
	if subject != "" {
		var err error
		subject, err = validation.SanitizeSubjectID(subject)
		if err != nil {
			log.Fatalf("Error in --subject: %v", err)
		}
	}

	logger := newLogger("cli")
	defer logger.Close()

	svc, backend := openService(logger)
	defer svc.Close()

	rec, err := svc.RecordPrediction(context.Background(), subject, input, prediction, recordGroup)
	if err != nil {
		log.Fatalf("Error recording prediction: %v", err)
	}

	// One-shot invocation; flush before exit so the record survives an
	// unclean shutdown even without sync_writes.
	if err := backend.Sync(); err != nil {
		log.Fatalf("Error syncing ledger storage: %v", err)
	}

	printJSON(rec)
}

// runVerify re-verifies every record hash and optionally the storage
// hash chain. Exits non-zero when tampering is found.
func runVerify(cmd *cobra.Command, args []string) {
	logger := newLogger("cli")
	defer logger.Close()

	svc, backend := openService(logger)
	defer svc.Close()

	report, err := svc.VerifyIntegrity(context.Background(), nil)
	if err != nil {
		log.Fatalf("Error verifying ledger: %v", err)
	}

	printJSON(report)

	tampered := !report.Valid

	if verifyChain {
		broken, err := backend.VerifyChain(context.Background())
		if err != nil {
			log.Fatalf("Error verifying storage chain: %v", err)
		}
		if len(broken) > 0 {
			fmt.Printf("storage chain broken at sequence numbers: %v\n", broken)
			tampered = true
		} else {
			fmt.Println("storage chain intact")
		}
	}

	if tampered {
		os.Exit(1)
	}
}

// runSummarize prints the per-group prediction distribution.
func runSummarize(cmd *cobra.Command, args []string) {
	logger := newLogger("cli")
	defer logger.Close()

	svc, _ := openService(logger)
	defer svc.Close()

	summary := svc.SummarizeDrift(context.Background(), nil)

	if summarizeGroup != "" {
		group, ok := summary.Groups[summarizeGroup]
		if !ok {
			log.Fatalf("Error: no records for sensitive group %q", summarizeGroup)
		}
		printJSON(group)
		return
	}

	printJSON(summary)
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.Fatalf("Error encoding output: %v", err)
	}
	fmt.Println(string(data))
}
