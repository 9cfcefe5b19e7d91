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
	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	servePort      int
	serveDebug     bool
	recordSubject  string
	recordGroup    string
	recordInput    string
	recordOutcome  string
	verifyChain    bool
	summarizeGroup string

	rootCmd = &cobra.Command{
		Use:   "ethos",
		Short: "A cli to manage the EthosGuard prediction audit ledger",
		Long: `EthosGuard records model predictions in a tamper-evident,
				append-only ledger and summarizes outcome distributions
				per sensitive group for fairness review.`,
	}

	// --- Server ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the EthosGuard ledger API server",
		Run:   runServe, // Defined in cmd_serve.go
	}

	// --- Ledger Operations ---
	recordCmd = &cobra.Command{
		Use:   "record",
		Short: "Record a sealed prediction in the local ledger",
		Run:   runRecord, // Defined in cmd_ledger.go
	}

	verifyCmd = &cobra.Command{
		Use:   "verify",
		Short: "Re-verify every record hash in the local ledger",
		Long: `Recomputes the content hash of every record and reports all
				mismatches. Exits non-zero if any record was tampered with.`,
		Run: runVerify, // Defined in cmd_ledger.go
	}

	summarizeCmd = &cobra.Command{
		Use:   "summarize",
		Short: "Tabulate prediction outcomes per sensitive group",
		Run:   runSummarize, // Defined in cmd_ledger.go
	}
)

// init runs when the Go program starts
func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveDebug, "debug", false, "Enable gin debug mode and request logging")

	rootCmd.AddCommand(recordCmd)
	recordCmd.Flags().StringVar(&recordSubject, "subject", "", "Subject (producer) identifier")
	recordCmd.Flags().StringVar(&recordGroup, "group", "", "Sensitive group tag (required)")
	recordCmd.Flags().StringVar(&recordInput, "input", "{}", "Input features as a JSON object")
	recordCmd.Flags().StringVar(&recordOutcome, "prediction", "", "Prediction outcome as a JSON value (required)")

	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().BoolVar(&verifyChain, "chain", false, "Also verify the storage hash chain for reordering or removal")

	rootCmd.AddCommand(summarizeCmd)
	summarizeCmd.Flags().StringVar(&summarizeGroup, "group", "", "Only show the summary for one sensitive group")
}
