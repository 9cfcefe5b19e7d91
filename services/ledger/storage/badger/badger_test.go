// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package badger

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/EthosGuard/services/ledger"
)

func testRecord(i int) ledger.Record {
	return ledger.Record{
		Timestamp:        int64(1700000000000 + i),
		SubjectID:        fmt.Sprintf("subject-%03d", i),
		InputData:        map[string]any{"age": 30 + i},
		PredictionOutput: i % 2,
		SensitiveGroup:   "group_a",
		ContentHash:      fmt.Sprintf("%064d", i),
	}
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "path is required")
}

func TestBackend_AppendAndLoadAll(t *testing.T) {
	b, err := OpenInMemory()
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, b.Append(ctx, testRecord(i)))
	}

	records, err := b.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 5)
	for i, rec := range records {
		assert.Equal(t, fmt.Sprintf("subject-%03d", i), rec.SubjectID)
	}
	assert.Equal(t, 5, b.Len())
}

func TestBackend_LoadAllEmpty(t *testing.T) {
	b, err := OpenInMemory()
	require.NoError(t, err)
	defer b.Close()

	records, err := b.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Equal(t, genesisChainHash, b.ChainHead())
}

func TestBackend_ChainHeadAdvances(t *testing.T) {
	b, err := OpenInMemory()
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	head0 := b.ChainHead()
	require.NoError(t, b.Append(ctx, testRecord(0)))
	head1 := b.ChainHead()
	require.NoError(t, b.Append(ctx, testRecord(1)))
	head2 := b.ChainHead()

	assert.NotEqual(t, head0, head1)
	assert.NotEqual(t, head1, head2)
	assert.Equal(t, advanceChain(head0, testRecord(0).ContentHash), head1)
}

func TestBackend_RestoreAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Path: dir, SyncWrites: false}

	b, err := Open(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, b.Append(ctx, testRecord(i)))
	}
	head := b.ChainHead()
	require.NoError(t, b.Close())

	reopened, err := Open(cfg)
	require.NoError(t, err)
	defer reopened.Close()

	assert.Equal(t, 3, reopened.Len())
	assert.Equal(t, head, reopened.ChainHead())

	// New appends continue the sequence.
	require.NoError(t, reopened.Append(ctx, testRecord(3)))
	records, err := reopened.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "subject-003", records[3].SubjectID)
}

func TestBackend_VerifyChainClean(t *testing.T) {
	b, err := OpenInMemory()
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, b.Append(ctx, testRecord(i)))
	}

	broken, err := b.VerifyChain(ctx)
	require.NoError(t, err)
	assert.Empty(t, broken)
}

func TestBackend_VerifyChainDetectsTamper(t *testing.T) {
	b, err := OpenInMemory()
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		require.NoError(t, b.Append(ctx, testRecord(i)))
	}

	// Rewrite entry 1 with a different content hash but the original
	// stored chain hash.
	key := recordKey(1)
	err = b.db.Update(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		var entry storedEntry
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		}); err != nil {
			return err
		}
		entry.Record.ContentHash = "deadbeef"
		val, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		return txn.Set(key, val)
	})
	require.NoError(t, err)

	broken, err := b.VerifyChain(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1}, broken)
}

func TestBackend_VerifyChainReportsAllBreaks(t *testing.T) {
	b, err := OpenInMemory()
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	for i := 0; i < 6; i++ {
		require.NoError(t, b.Append(ctx, testRecord(i)))
	}

	tamper := func(seq uint64) {
		key := recordKey(seq)
		err := b.db.Update(func(txn *badgerdb.Txn) error {
			item, err := txn.Get(key)
			if err != nil {
				return err
			}
			var entry storedEntry
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			}); err != nil {
				return err
			}
			entry.Record.ContentHash = fmt.Sprintf("tampered-%d", seq)
			val, err := json.Marshal(entry)
			if err != nil {
				return err
			}
			return txn.Set(key, val)
		})
		require.NoError(t, err)
	}

	tamper(1)
	tamper(4)

	broken, err := b.VerifyChain(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 4}, broken)
}

func TestBackend_AppendCancelledContext(t *testing.T) {
	b, err := OpenInMemory()
	require.NoError(t, err)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = b.Append(ctx, testRecord(0))
	require.Error(t, err)
	assert.Equal(t, 0, b.Len())
}

func TestBackend_SyncFlushesUnsyncedWrites(t *testing.T) {
	b, err := Open(Config{Path: t.TempDir(), SyncWrites: false})
	require.NoError(t, err)
	defer b.Close()

	ctx := context.Background()
	require.NoError(t, b.Append(ctx, testRecord(0)))
	require.NoError(t, b.Sync())
}

func TestBackend_SyncNoOpInMemory(t *testing.T) {
	b, err := OpenInMemory()
	require.NoError(t, err)
	defer b.Close()

	require.NoError(t, b.Append(context.Background(), testRecord(0)))
	require.NoError(t, b.Sync())
}
