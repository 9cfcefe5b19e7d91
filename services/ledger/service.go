// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package ledger provides the EthosGuard tamper-evident prediction ledger.
//
// The service records model predictions together with a sensitive-group tag
// in an append-only, content-hashed sequence, so an auditor can later prove
// no entry was altered after the fact and a monitor can detect whether
// outcomes are distributed unevenly across groups.
//
// Components:
//   - canonical: deterministic serialization for hashing
//   - Builder: assembles sealed records
//   - Engine: computes and re-verifies content hashes
//   - Store: append-only ownership of the record sequence
//   - Summarize: per-group outcome tabulation
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AleutianAI/EthosGuard/services/ledger/telemetry"
)

// ServiceVersion is the ledger service version.
const ServiceVersion = "0.1.0"

// ServiceConfig configures the ledger service.
type ServiceConfig struct {
	// DefaultSubjectID is used when a caller omits the subject.
	// Default: "" (subject required per call)
	DefaultSubjectID string

	// Ordering is the monotonicity guard mode for appends.
	// Default: OrderingStrict
	Ordering OrderingMode

	// Clock supplies record timestamps. Default: time.Now
	Clock Clock

	// Backend is the optional durable ledger sink. Default: nil (in-memory only)
	Backend Backend

	// Logger is the structured logger. Default: slog.Default()
	Logger *slog.Logger

	// Metrics is the optional telemetry instrument set. Default: nil (no metrics)
	Metrics *telemetry.Metrics
}

// DefaultServiceConfig returns sensible defaults.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Ordering: OrderingStrict,
	}
}

// Service is the EthosGuard ledger service.
//
// Thread Safety:
//
//	Service is safe for concurrent use. Appends are serialized by the
//	store; verification and drift summarization are pure reads over
//	snapshots and may run concurrently with appends.
type Service struct {
	config  ServiceConfig
	engine  *Engine
	builder *Builder
	store   *Store
	logger  *slog.Logger
	metrics *telemetry.Metrics
}

// NewService creates a ledger service with the given configuration.
//
// Description:
//
//	Wires the canonicalizer-backed integrity engine, record builder, and
//	audit store together. If a backend is configured, call Load before
//	serving to seed the in-memory sequence, and Close on shutdown.
//
// Inputs:
//
//	cfg - Service configuration. Use DefaultServiceConfig() for defaults.
//
// Outputs:
//
//	*Service - The service, ready for use.
func NewService(cfg ServiceConfig) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	engine := NewEngine()
	opts := []StoreOption{
		WithOrderingMode(cfg.Ordering),
		WithStoreLogger(logger),
	}
	if cfg.Backend != nil {
		opts = append(opts, WithBackend(cfg.Backend))
	}

	return &Service{
		config:  cfg,
		engine:  engine,
		builder: NewBuilder(engine, cfg.Clock),
		store:   NewStore(opts...),
		logger:  logger,
		metrics: cfg.Metrics,
	}
}

// Load seeds the service from its durable backend.
//
// No-op when no backend is configured.
func (s *Service) Load(ctx context.Context) error {
	if err := s.store.Load(ctx); err != nil {
		return err
	}
	s.logger.Info("ledger loaded", "records", s.store.Len())
	return nil
}

// Close releases the store and its backend.
func (s *Service) Close() error {
	return s.store.Close()
}

// Len returns the number of records currently in the ledger.
func (s *Service) Len() int {
	return s.store.Len()
}

// Snapshot returns a copy of the current record sequence.
func (s *Service) Snapshot() []Record {
	return s.store.Snapshot()
}

// RecordPrediction builds, seals, and appends a record for one prediction.
//
// Description:
//
//	Assembles a record from the supplied fields, seals it through the
//	integrity engine, and appends it to the audit store (persisting to
//	the backend first when one is configured). Construction errors never
//	partially apply: on any failure no record is appended.
//
// Inputs:
//
//	ctx - Context for the backend write.
//	subjectID - Producer identifier. Falls back to DefaultSubjectID when empty.
//	input - Feature payload. Must be canonicalizable.
//	prediction - The model's decision.
//	group - Sensitive group tag. Must be non-empty.
//
// Outputs:
//
//	Record - The sealed, appended record.
//	error - Wraps ErrValidation, ErrOrdering, ErrStorage, or ErrStoreClosed.
//
// Thread Safety: Safe for concurrent use.
func (s *Service) RecordPrediction(ctx context.Context, subjectID string, input map[string]any, prediction any, group string) (Record, error) {
	if subjectID == "" {
		subjectID = s.config.DefaultSubjectID
	}

	rec, err := s.builder.Build(subjectID, input, prediction, group)
	if err != nil {
		s.countError(ctx, "validation", "builder")
		return Record{}, err
	}

	if err := s.store.Append(ctx, rec); err != nil {
		switch {
		case errors.Is(err, ErrOrdering):
			s.countOrderingViolation(ctx)
		case errors.Is(err, ErrStorage):
			s.countError(ctx, "storage", "store")
		}
		return Record{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordsAppendedTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("sensitive_group", group)))
	}
	s.logger.Info("prediction recorded",
		"subject_id", subjectID,
		"sensitive_group", group,
		"content_hash", abbreviate(rec.ContentHash))

	return rec, nil
}

// VerifyIntegrity re-verifies a record sequence.
//
// Description:
//
//	Recomputes every record's digest and reports the full set of
//	mismatches; a nil records argument verifies the store's current
//	snapshot. Read-only and idempotent.
//
// Inputs:
//
//	ctx - Context for metric recording.
//	records - Sequence to verify, or nil for the store snapshot.
//
// Outputs:
//
//	*VerificationReport - Exhaustive verification result.
//	error - Wraps ErrMalformedRecord if the sequence cannot be verified.
//
// Thread Safety: Safe for concurrent use.
func (s *Service) VerifyIntegrity(ctx context.Context, records []Record) (*VerificationReport, error) {
	if records == nil {
		records = s.store.Snapshot()
	}

	start := time.Now()
	report, err := s.engine.VerifyAll(records)
	if err != nil {
		s.countError(ctx, "malformed_record", "integrity")
		return nil, err
	}

	if s.metrics != nil {
		outcome := "valid"
		if !report.Valid {
			outcome = "tampered"
		}
		s.metrics.VerifyRunsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("outcome", outcome)))
		s.metrics.VerifyMismatchesTotal.Add(ctx, int64(len(report.Mismatches)))
		s.metrics.VerifyDuration.Record(ctx, time.Since(start).Seconds())
	}

	if !report.Valid {
		s.logger.Warn("integrity verification found mismatches",
			"checked", report.Checked,
			"mismatches", len(report.Mismatches))
	} else {
		s.logger.Debug("integrity verification passed", "checked", report.Checked)
	}

	return report, nil
}

// SummarizeDrift tabulates prediction outcomes per sensitive group.
//
// Description:
//
//	A nil records argument summarizes the store's current snapshot.
//	Pure and read-only; no statistical inference is performed.
//
// Inputs:
//
//	ctx - Context for metric recording.
//	records - Sequence to summarize, or nil for the store snapshot.
//
// Outputs:
//
//	DriftSummary - Per-group prediction counts and totals.
//
// Thread Safety: Safe for concurrent use.
func (s *Service) SummarizeDrift(ctx context.Context, records []Record) DriftSummary {
	if records == nil {
		records = s.store.Snapshot()
	}

	summary := Summarize(records)

	if s.metrics != nil {
		s.metrics.DriftRunsTotal.Add(ctx, 1)
	}
	s.logger.Debug("drift summarized",
		"records", summary.Records,
		"groups", len(summary.Groups))

	return summary
}

func (s *Service) countError(ctx context.Context, errType, component string) {
	if s.metrics == nil {
		return
	}
	s.metrics.ErrorsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}

func (s *Service) countOrderingViolation(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	s.metrics.OrderingViolationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode", s.config.Ordering.String()),
	))
}

// abbreviate shortens a hash for log output.
func abbreviate(hash string) string {
	if len(hash) <= 10 {
		return hash
	}
	return fmt.Sprintf("%s...", hash[:10])
}
