// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// OrderingMode controls how the store reacts to timestamp regressions.
//
// Real clocks skew, so the monotonicity guard is configurable: strict
// deployments reject out-of-order appends, advisory deployments log and
// continue.
type OrderingMode int

const (
	// OrderingStrict rejects appends whose timestamp is earlier than the
	// last appended record's timestamp.
	OrderingStrict OrderingMode = iota

	// OrderingAdvisory logs a warning on regression and appends anyway.
	OrderingAdvisory
)

// String returns the string representation.
func (m OrderingMode) String() string {
	switch m {
	case OrderingStrict:
		return "strict"
	case OrderingAdvisory:
		return "advisory"
	default:
		return "unknown"
	}
}

// Backend is the durable ledger sink behind a Store.
//
// Implementations are assumed durable and crash-consistent. The core
// surfaces backend failures verbatim and never retries; retry policy
// belongs to the backend's own contract.
type Backend interface {
	// Append durably persists a record at the end of the sequence.
	Append(ctx context.Context, rec Record) error

	// LoadAll returns the persisted sequence in append order.
	LoadAll(ctx context.Context) ([]Record, error)

	// Close releases backend resources. Called on every exit path.
	Close() error
}

// Store owns the append-only record sequence for the current process.
//
// Append is the only mutator; there is no deletion or in-place edit.
// Reads operate on copy-out snapshots, so verification and drift analysis
// can run concurrently with appends.
//
// Thread Safety: Safe for concurrent use. Single-writer semantics are
// enforced internally with a mutex.
type Store struct {
	mu      sync.RWMutex
	records []Record
	lastTS  int64
	closed  bool

	mode    OrderingMode
	backend Backend
	logger  *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithBackend attaches a durable backend. Every append is persisted to the
// backend before it becomes visible in memory.
func WithBackend(b Backend) StoreOption {
	return func(s *Store) { s.backend = b }
}

// WithOrderingMode sets the monotonicity guard mode. Default: OrderingStrict.
func WithOrderingMode(mode OrderingMode) StoreOption {
	return func(s *Store) { s.mode = mode }
}

// WithStoreLogger sets the logger for advisory ordering warnings.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates an empty audit store.
//
// Outputs:
//
//	*Store - An empty store. Use Load to seed it from a backend.
//
// Thread Safety: The returned store is safe for concurrent use.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		records: make([]Record, 0),
		mode:    OrderingStrict,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load seeds the store from its backend's persisted sequence.
//
// Description:
//
//	Replaces the in-memory sequence with Backend.LoadAll output. Intended
//	for process startup, before any appends. No-op when the store has no
//	backend.
//
// Inputs:
//
//	ctx - Context for the backend read.
//
// Outputs:
//
//	error - Wraps ErrStorage on backend failure.
//
// Thread Safety: Safe for concurrent use.
func (s *Store) Load(ctx context.Context) error {
	if s.backend == nil {
		return nil
	}

	records, err := s.backend.LoadAll(ctx)
	if err != nil {
		return fmt.Errorf("%w: load: %v", ErrStorage, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.records = records
	// Prime the guard with the maximum, not the final, timestamp: an
	// advisory-mode sequence may end in a regression, and a restart must
	// not lower the high-water mark below the historical max.
	s.lastTS = 0
	for _, rec := range records {
		if rec.Timestamp > s.lastTS {
			s.lastTS = rec.Timestamp
		}
	}
	return nil
}

// Append adds a sealed record to the end of the sequence.
//
// Description:
//
//	Enforces the timestamp monotonicity guard, persists to the backend
//	(if configured), then makes the record visible in memory. On backend
//	failure nothing is applied: the in-memory sequence is unchanged and
//	the error wraps ErrStorage.
//
// Inputs:
//
//	ctx - Context passed to the backend write.
//	rec - The sealed record. Must carry a content hash.
//
// Outputs:
//
//	error - Wraps ErrValidation (unsealed record), ErrOrdering (strict
//	        mode regression), ErrStorage (backend failure), or
//	        ErrStoreClosed.
//
// Thread Safety: Safe for concurrent use; appends are serialized.
func (s *Store) Append(ctx context.Context, rec Record) error {
	if rec.ContentHash == "" {
		return fmt.Errorf("%w: record is not sealed", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	if len(s.records) > 0 && rec.Timestamp < s.lastTS {
		if s.mode == OrderingStrict {
			return fmt.Errorf("%w: record timestamp %d precedes last appended %d",
				ErrOrdering, rec.Timestamp, s.lastTS)
		}
		s.logger.Warn("append timestamp regression",
			"record_ts", rec.Timestamp,
			"last_ts", s.lastTS,
			"subject_id", rec.SubjectID)
	}

	if s.backend != nil {
		if err := s.backend.Append(ctx, rec); err != nil {
			return fmt.Errorf("%w: append: %v", ErrStorage, err)
		}
	}

	s.records = append(s.records, rec)
	if rec.Timestamp > s.lastTS {
		s.lastTS = rec.Timestamp
	}
	return nil
}

// Snapshot returns a copy of the record sequence in append order.
//
// Description:
//
//	The copy is consistent at call time; appends racing with the call are
//	not required to be observed. Callers may not mutate stored records
//	through the returned slice.
//
// Outputs:
//
//	[]Record - Copy of all records.
//
// Thread Safety: Safe for concurrent use.
func (s *Store) Snapshot() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records.
//
// Thread Safety: Safe for concurrent use.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close releases the backend. Subsequent appends fail with ErrStoreClosed.
//
// Outputs:
//
//	error - Non-nil if the backend close fails.
//
// Thread Safety: Safe for concurrent use. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.backend != nil {
		if err := s.backend.Close(); err != nil {
			return fmt.Errorf("%w: close: %v", ErrStorage, err)
		}
	}
	return nil
}
