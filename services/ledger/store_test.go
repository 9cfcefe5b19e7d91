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
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend is an in-memory Backend with optional failure injection.
type fakeBackend struct {
	mu       sync.Mutex
	records  []Record
	failNext error
	closed   bool
}

func (f *fakeBackend) Append(ctx context.Context, rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failNext != nil {
		err := f.failNext
		f.failNext = nil
		return err
	}
	f.records = append(f.records, rec)
	return nil
}

func (f *fakeBackend) LoadAll(ctx context.Context) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Record, len(f.records))
	copy(out, f.records)
	return out, nil
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func storeRecord(t *testing.T, ts int64, subject string) Record {
	t.Helper()
	rec := sealedRecord(t, subject, map[string]any{"a": 1}, 1, "g")
	rec.Timestamp = ts
	// Reseal with the new timestamp so the hash invariant holds.
	hash, err := NewEngine().Seal(rec)
	require.NoError(t, err)
	rec.ContentHash = hash
	return rec
}

func TestStore_AppendOnlyOrder(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Append(ctx, storeRecord(t, int64(i), fmt.Sprintf("m-%d", i))))
	}

	snap := s.Snapshot()
	require.Len(t, snap, 5)
	for i, rec := range snap {
		assert.Equal(t, fmt.Sprintf("m-%d", i+1), rec.SubjectID)
	}
	assert.Equal(t, 5, s.Len())
}

func TestStore_RejectsUnsealedRecord(t *testing.T) {
	s := NewStore()
	err := s.Append(context.Background(), Record{Timestamp: 1, SubjectID: "m"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestStore_StrictOrderingRejectsRegression(t *testing.T) {
	s := NewStore(WithOrderingMode(OrderingStrict))
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, storeRecord(t, 100, "m")))
	err := s.Append(ctx, storeRecord(t, 50, "m"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOrdering))

	// The failed append must not be applied.
	assert.Equal(t, 1, s.Len())
}

func TestStore_StrictOrderingAllowsEqualTimestamps(t *testing.T) {
	s := NewStore(WithOrderingMode(OrderingStrict))
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, storeRecord(t, 100, "m")))
	require.NoError(t, s.Append(ctx, storeRecord(t, 100, "m")))
	assert.Equal(t, 2, s.Len())
}

func TestStore_AdvisoryOrderingAcceptsRegression(t *testing.T) {
	s := NewStore(WithOrderingMode(OrderingAdvisory))
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, storeRecord(t, 100, "m")))
	require.NoError(t, s.Append(ctx, storeRecord(t, 50, "m")))
	assert.Equal(t, 2, s.Len())

	// The high-water mark is preserved, so the guard keeps firing on
	// later regressions instead of ratcheting down.
	require.NoError(t, s.Append(ctx, storeRecord(t, 60, "m")))
	assert.Equal(t, 3, s.Len())
}

func TestStore_BackendFailureAppliesNothing(t *testing.T) {
	backend := &fakeBackend{}
	s := NewStore(WithBackend(backend))
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, storeRecord(t, 1, "m")))

	backend.failNext = errors.New("disk full")
	err := s.Append(ctx, storeRecord(t, 2, "m"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStorage))

	// In-memory sequence unchanged, backend unchanged.
	assert.Equal(t, 1, s.Len())
	persisted, _ := backend.LoadAll(ctx)
	assert.Len(t, persisted, 1)

	// The store remains usable after a backend failure.
	require.NoError(t, s.Append(ctx, storeRecord(t, 3, "m")))
	assert.Equal(t, 2, s.Len())
}

func TestStore_LoadSeedsFromBackend(t *testing.T) {
	backend := &fakeBackend{}
	ctx := context.Background()

	seed := NewStore(WithBackend(backend))
	require.NoError(t, seed.Append(ctx, storeRecord(t, 10, "m")))
	require.NoError(t, seed.Append(ctx, storeRecord(t, 20, "m")))

	s := NewStore(WithBackend(backend), WithOrderingMode(OrderingStrict))
	require.NoError(t, s.Load(ctx))
	assert.Equal(t, 2, s.Len())

	// The guard resumes from the loaded high-water mark.
	err := s.Append(ctx, storeRecord(t, 15, "m"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOrdering))
}

func TestStore_LoadPrimesGuardWithMaxTimestamp(t *testing.T) {
	backend := &fakeBackend{}
	ctx := context.Background()

	// An advisory-mode sequence may legitimately end in a regression.
	seed := NewStore(WithBackend(backend), WithOrderingMode(OrderingAdvisory))
	require.NoError(t, seed.Append(ctx, storeRecord(t, 10, "m")))
	require.NoError(t, seed.Append(ctx, storeRecord(t, 30, "m")))
	require.NoError(t, seed.Append(ctx, storeRecord(t, 20, "m")))

	// After a restart the strict guard must resume from the historical
	// maximum, not the trailing record's timestamp.
	s := NewStore(WithBackend(backend), WithOrderingMode(OrderingStrict))
	require.NoError(t, s.Load(ctx))

	err := s.Append(ctx, storeRecord(t, 25, "m"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOrdering))

	assert.NoError(t, s.Append(ctx, storeRecord(t, 30, "m")))
}

func TestStore_SnapshotIsCopy(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.Append(ctx, storeRecord(t, 1, "m")))

	snap := s.Snapshot()
	snap[0].SubjectID = "mutated"

	assert.Equal(t, "m", s.Snapshot()[0].SubjectID)
}

func TestStore_CloseIsIdempotent(t *testing.T) {
	backend := &fakeBackend{}
	s := NewStore(WithBackend(backend))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.True(t, backend.closed)

	err := s.Append(context.Background(), storeRecord(t, 1, "m"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreClosed))
}

func TestStore_ConcurrentAppends(t *testing.T) {
	s := NewStore(WithOrderingMode(OrderingAdvisory))
	ctx := context.Background()

	const workers = 8
	const perWorker = 25

	// Records are sealed up front; the goroutines only race on Append.
	batches := make([][]Record, workers)
	for w := 0; w < workers; w++ {
		for i := 0; i < perWorker; i++ {
			batches[w] = append(batches[w], storeRecord(t, int64(w*1000+i), fmt.Sprintf("w-%d", w)))
		}
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(batch []Record) {
			defer wg.Done()
			for _, rec := range batch {
				assert.NoError(t, s.Append(ctx, rec))
			}
		}(batches[w])
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker, s.Len())
}
