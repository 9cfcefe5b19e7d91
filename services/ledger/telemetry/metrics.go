// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package telemetry

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics contains pre-defined metrics for the EthosGuard ledger service.
//
// Description:
//
//	Provides standard counters and histograms for record appends,
//	integrity verification, and drift aggregation. All metrics use the
//	"ledger_" prefix for consistent naming.
//
// Thread Safety: Safe for concurrent use after creation.
type Metrics struct {
	// --- Record Metrics ---

	// RecordsAppendedTotal counts records appended by sensitive group.
	RecordsAppendedTotal metric.Int64Counter

	// OrderingViolationsTotal counts detected timestamp regressions by mode.
	OrderingViolationsTotal metric.Int64Counter

	// --- Verification Metrics ---

	// VerifyRunsTotal counts integrity verification runs by outcome.
	VerifyRunsTotal metric.Int64Counter

	// VerifyMismatchesTotal counts individual integrity mismatches found.
	VerifyMismatchesTotal metric.Int64Counter

	// VerifyDuration records verification duration in seconds.
	VerifyDuration metric.Float64Histogram

	// --- Drift Metrics ---

	// DriftRunsTotal counts drift summarization runs.
	DriftRunsTotal metric.Int64Counter

	// --- Error Metrics ---

	// ErrorsTotal counts total errors by type and component.
	ErrorsTotal metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all metrics registered.
//
// Description:
//
//	Registers all pre-defined metrics with the provided meter.
//	Returns an error if any metric registration fails.
//
// Inputs:
//
//	meter - The OTel meter to use for metric registration.
//
// Outputs:
//
//	*Metrics - The metrics instance with all instruments initialized.
//	error - Non-nil if metric registration fails.
//
// Example:
//
//	meter := otel.Meter("ledger")
//	metrics, err := telemetry.NewMetrics(meter)
//	if err != nil {
//	    return fmt.Errorf("create metrics: %w", err)
//	}
//	metrics.RecordsAppendedTotal.Add(ctx, 1, ...)
//
// Thread Safety: Safe for concurrent use after creation.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	// --- Record Metrics ---
	m.RecordsAppendedTotal, err = meter.Int64Counter(
		"ledger_records_appended_total",
		metric.WithDescription("Total records appended to the audit store"),
		metric.WithUnit("{record}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create records_appended_total: %w", err)
	}

	m.OrderingViolationsTotal, err = meter.Int64Counter(
		"ledger_ordering_violations_total",
		metric.WithDescription("Total timestamp ordering violations detected on append"),
		metric.WithUnit("{violation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create ordering_violations_total: %w", err)
	}

	// --- Verification Metrics ---
	m.VerifyRunsTotal, err = meter.Int64Counter(
		"ledger_verify_runs_total",
		metric.WithDescription("Total integrity verification runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create verify_runs_total: %w", err)
	}

	m.VerifyMismatchesTotal, err = meter.Int64Counter(
		"ledger_verify_mismatches_total",
		metric.WithDescription("Total integrity mismatches reported"),
		metric.WithUnit("{mismatch}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create verify_mismatches_total: %w", err)
	}

	m.VerifyDuration, err = meter.Float64Histogram(
		"ledger_verify_duration_seconds",
		metric.WithDescription("Integrity verification duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5),
	)
	if err != nil {
		return nil, fmt.Errorf("create verify_duration: %w", err)
	}

	// --- Drift Metrics ---
	m.DriftRunsTotal, err = meter.Int64Counter(
		"ledger_drift_runs_total",
		metric.WithDescription("Total drift summarization runs"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create drift_runs_total: %w", err)
	}

	// --- Error Metrics ---
	m.ErrorsTotal, err = meter.Int64Counter(
		"ledger_errors_total",
		metric.WithDescription("Total errors by type and component"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create errors_total: %w", err)
	}

	return m, nil
}
