// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package badger provides a BadgerDB-backed durable sink for the audit ledger.
//
// BadgerDB is used for local embedded storage with low-latency access. The
// backend persists records under monotonically increasing sequence keys, so
// append order is preserved across restarts, and maintains a running hash
// chain over the record content hashes as a second tamper signal alongside
// the per-record content hash.
//
// License: BadgerDB is Apache 2.0 licensed (github.com/dgraph-io/badger).
// This package follows Apache 2.0 guidelines for attribution and usage.
package badger

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/AleutianAI/EthosGuard/services/ledger"
)

// recordKeyPrefix namespaces record keys. The 8-byte big-endian sequence
// number after the prefix makes lexicographic key order equal append order.
const recordKeyPrefix = "rec/"

// genesisChainHash is the initial value of the hash chain.
const genesisChainHash = "genesis"

// Config holds configuration for a BadgerDB backend.
type Config struct {
	// Path is the directory for BadgerDB files.
	// Required for persistent databases.
	// Ignored when InMemory is true.
	Path string

	// InMemory enables in-memory mode (no disk persistence).
	// Useful for testing.
	InMemory bool

	// SyncWrites enables synchronous writes for durability.
	// Default: true for production, false for testing.
	SyncWrites bool

	// Logger is the logger for BadgerDB operations.
	// If nil, BadgerDB's internal logging is disabled.
	Logger *slog.Logger
}

// DefaultConfig returns sensible defaults for production use.
//
// Outputs:
//
//	Config - SyncWrites enabled for durability.
func DefaultConfig() Config {
	return Config{
		SyncWrites: true,
	}
}

// InMemoryConfig returns configuration optimized for testing.
//
// Outputs:
//
//	Config - InMemory mode enabled, SyncWrites disabled.
func InMemoryConfig() Config {
	return Config{
		InMemory:   true,
		SyncWrites: false,
	}
}

// badgerLogger adapts slog.Logger to BadgerDB's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// storedEntry is the persisted envelope for one record.
type storedEntry struct {
	// Record is the sealed audit record.
	Record ledger.Record `json:"record"`

	// ChainHash is the running hash at this entry:
	// SHA-256(previous chain hash || record content hash).
	ChainHash string `json:"chain_hash"`
}

// Backend is a BadgerDB-backed durable ledger sink.
//
// Implements ledger.Backend. Records are stored append-only; there is no
// delete or update path.
//
// Thread Safety: Safe for concurrent use. Appends are serialized.
type Backend struct {
	mu        sync.Mutex
	db        *badger.DB
	nextSeq   uint64
	chainHead string
	inMemory  bool
}

// Ensure Backend implements the ledger contract.
var _ ledger.Backend = (*Backend)(nil)

// Open creates and opens a BadgerDB backend with the given configuration.
//
// Description:
//
//	Opens a BadgerDB database at the configured path, or in memory if
//	InMemory is true. Creates the directory if it doesn't exist, then
//	scans existing records to restore the sequence counter and chain head.
//
// Inputs:
//
//	cfg - Backend configuration. Path is required unless InMemory is true.
//
// Outputs:
//
//	*Backend - The opened backend. Caller must call Close() when done.
//	error - Non-nil if the path is invalid or the database cannot be opened.
//
// Thread Safety: The returned backend is safe for concurrent use.
func Open(cfg Config) (*Backend, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// Ensure directory exists
		if err := os.MkdirAll(cfg.Path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}

	opts = opts.WithSyncWrites(cfg.SyncWrites)

	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil) // Disable BadgerDB's internal logging
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}

	b := &Backend{
		db:        db,
		chainHead: genesisChainHash,
		inMemory:  cfg.InMemory,
	}

	if err := b.restore(); err != nil {
		db.Close()
		return nil, fmt.Errorf("restore sequence state: %w", err)
	}

	return b, nil
}

// OpenInMemory is a convenience function for opening an in-memory backend.
//
// Outputs:
//
//	*Backend - The opened backend. Data is lost when closed.
//	error - Non-nil if the database cannot be opened.
func OpenInMemory() (*Backend, error) {
	return Open(InMemoryConfig())
}

// restore scans persisted entries to recover nextSeq and the chain head.
func (b *Backend) restore() error {
	return b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(recordKeyPrefix)
		var lastKey []byte
		var lastVal []byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			lastKey = item.KeyCopy(lastKey)
			var err error
			lastVal, err = item.ValueCopy(lastVal)
			if err != nil {
				return err
			}
		}

		if lastKey == nil {
			return nil // empty database
		}

		seq := binary.BigEndian.Uint64(lastKey[len(recordKeyPrefix):])
		b.nextSeq = seq + 1

		var entry storedEntry
		if err := json.Unmarshal(lastVal, &entry); err != nil {
			return fmt.Errorf("decode entry %d: %w", seq, err)
		}
		b.chainHead = entry.ChainHash
		return nil
	})
}

// Append durably persists a record at the end of the sequence.
//
// Description:
//
//	Writes the record under the next sequence key together with the
//	advanced chain hash. The chain hash of entry N is
//	SHA-256(chain hash of N-1 || content hash of N), with a fixed genesis
//	value for the first entry.
//
// Inputs:
//
//	ctx - Context for cancellation (checked before the write).
//	rec - The sealed record.
//
// Outputs:
//
//	error - Non-nil on write failure. The sequence state is unchanged on error.
//
// Thread Safety: Safe for concurrent use; appends are serialized.
func (b *Backend) Append(ctx context.Context, rec ledger.Record) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled: %w", err)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	entry := storedEntry{
		Record:    rec,
		ChainHash: advanceChain(b.chainHead, rec.ContentHash),
	}
	val, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}

	key := recordKey(b.nextSeq)
	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
	if err != nil {
		return fmt.Errorf("write entry %d: %w", b.nextSeq, err)
	}

	b.nextSeq++
	b.chainHead = entry.ChainHash
	return nil
}

// LoadAll returns the persisted record sequence in append order.
//
// Inputs:
//
//	ctx - Context for cancellation (checked before the read).
//
// Outputs:
//
//	[]ledger.Record - All records, oldest first.
//	error - Non-nil on read or decode failure.
//
// Thread Safety: Safe for concurrent use.
func (b *Backend) LoadAll(ctx context.Context) ([]ledger.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	records := make([]ledger.Record, 0)
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(recordKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var entry storedEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return fmt.Errorf("decode entry: %w", err)
			}
			records = append(records, entry.Record)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// VerifyChain recomputes the hash chain over the persisted entries.
//
// Description:
//
//	Re-derives every entry's chain hash from genesis and compares it to
//	the stored value. This detects reordering and removal of persisted
//	entries, which per-record content hashes alone cannot. Exhaustive:
//	all broken links are reported, not just the first.
//
// Inputs:
//
//	ctx - Context for cancellation (checked before the read).
//
// Outputs:
//
//	[]uint64 - Sequence numbers of entries whose chain hash did not match.
//	error - Non-nil on read or decode failure.
//
// Thread Safety: Safe for concurrent use.
func (b *Backend) VerifyChain(ctx context.Context) ([]uint64, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled: %w", err)
	}

	broken := make([]uint64, 0)
	err := b.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		chain := genesisChainHash
		prefix := []byte(recordKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			seq := binary.BigEndian.Uint64(item.Key()[len(recordKeyPrefix):])

			var entry storedEntry
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return fmt.Errorf("decode entry %d: %w", seq, err)
			}

			chain = advanceChain(chain, entry.Record.ContentHash)
			if entry.ChainHash != chain {
				broken = append(broken, seq)
				// Resynchronize so one broken link does not cascade
				// into every subsequent entry.
				chain = entry.ChainHash
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return broken, nil
}

// ChainHead returns the current running chain hash.
//
// Thread Safety: Safe for concurrent use.
func (b *Backend) ChainHead() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.chainHead
}

// Len returns the number of persisted records.
//
// Thread Safety: Safe for concurrent use.
func (b *Backend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int(b.nextSeq)
}

// Close closes the underlying database.
//
// Thread Safety: Safe for concurrent use. Idempotent for BadgerDB.
func (b *Backend) Close() error {
	return b.db.Close()
}

// Sync flushes pending writes to disk. No-op for in-memory databases.
func (b *Backend) Sync() error {
	if b.inMemory {
		return nil
	}
	return b.db.Sync()
}

// recordKey builds the key for a sequence number.
func recordKey(seq uint64) []byte {
	key := make([]byte, len(recordKeyPrefix)+8)
	copy(key, recordKeyPrefix)
	binary.BigEndian.PutUint64(key[len(recordKeyPrefix):], seq)
	return key
}

// advanceChain computes the next chain hash from the previous one and a
// record content hash.
func advanceChain(prev, contentHash string) string {
	h := sha256.New()
	h.Write([]byte(prev))
	h.Write([]byte(contentHash))
	return hex.EncodeToString(h.Sum(nil))
}
