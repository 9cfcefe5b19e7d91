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
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sealedRecord(t *testing.T, subjectID string, input map[string]any, prediction any, group string) Record {
	t.Helper()
	engine := NewEngine()
	rec := Record{
		Timestamp:        1700000000000,
		SubjectID:        subjectID,
		InputData:        input,
		PredictionOutput: prediction,
		SensitiveGroup:   group,
	}
	hash, err := engine.Seal(rec)
	require.NoError(t, err)
	rec.ContentHash = hash
	return rec
}

func TestSeal_Deterministic(t *testing.T) {
	engine := NewEngine()
	rec := sealedRecord(t, "model-7", map[string]any{"age": 34, "zip": "02139"}, 1, "group_a")

	for i := 0; i < 3; i++ {
		hash, err := engine.Seal(rec)
		require.NoError(t, err)
		assert.Equal(t, rec.ContentHash, hash)
	}
}

func TestSeal_IndependentOfMapConstructionOrder(t *testing.T) {
	engine := NewEngine()

	first := make(map[string]any)
	first["age"] = 34
	first["income"] = 72000
	first["zip"] = "02139"

	second := make(map[string]any)
	second["zip"] = "02139"
	second["income"] = 72000
	second["age"] = 34

	recA := Record{Timestamp: 1, SubjectID: "m", InputData: first, PredictionOutput: 0, SensitiveGroup: "g"}
	recB := Record{Timestamp: 1, SubjectID: "m", InputData: second, PredictionOutput: 0, SensitiveGroup: "g"}

	hashA, err := engine.Seal(recA)
	require.NoError(t, err)
	hashB, err := engine.Seal(recB)
	require.NoError(t, err)
	assert.Equal(t, hashA, hashB)
}

func TestSeal_IgnoresExistingContentHash(t *testing.T) {
	engine := NewEngine()
	rec := sealedRecord(t, "m", map[string]any{"x": 1}, "ok", "g")

	withHash, err := engine.Seal(rec)
	require.NoError(t, err)

	rec.ContentHash = ""
	withoutHash, err := engine.Seal(rec)
	require.NoError(t, err)

	assert.Equal(t, withoutHash, withHash)
}

func TestSeal_SensitiveToEveryField(t *testing.T) {
	engine := NewEngine()
	base := sealedRecord(t, "m", map[string]any{"x": 1}, 1, "g")

	mutations := map[string]func(Record) Record{
		"timestamp": func(r Record) Record { r.Timestamp++; return r },
		"subject":   func(r Record) Record { r.SubjectID = "other"; return r },
		"input":     func(r Record) Record { r.InputData = map[string]any{"x": 2}; return r },
		"predict":   func(r Record) Record { r.PredictionOutput = 0; return r },
		"group":     func(r Record) Record { r.SensitiveGroup = "h"; return r },
	}

	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			hash, err := engine.Seal(mutate(base))
			require.NoError(t, err)
			assert.NotEqual(t, base.ContentHash, hash)
		})
	}
}

func TestSeal_RejectsUncanonicalizableInput(t *testing.T) {
	engine := NewEngine()
	rec := Record{
		Timestamp:        1,
		SubjectID:        "m",
		InputData:        map[string]any{"bad": make(chan int)},
		PredictionOutput: 1,
		SensitiveGroup:   "g",
	}
	_, err := engine.Seal(rec)
	require.Error(t, err)
}

func TestVerifyAll_CleanSequence(t *testing.T) {
	engine := NewEngine()
	records := []Record{
		sealedRecord(t, "m", map[string]any{"a": 1}, 1, "group_a"),
		sealedRecord(t, "m", map[string]any{"a": 2}, 0, "group_b"),
	}

	report, err := engine.VerifyAll(records)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, 2, report.Checked)
	assert.Empty(t, report.Mismatches)
}

func TestVerifyAll_EmptySequence(t *testing.T) {
	report, err := NewEngine().VerifyAll(nil)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, 0, report.Checked)
}

func TestVerifyAll_DetectsTamper(t *testing.T) {
	engine := NewEngine()
	records := []Record{
		sealedRecord(t, "m", map[string]any{"a": 1}, 1, "group_a"),
		sealedRecord(t, "m", map[string]any{"a": 2}, 0, "group_b"),
	}
	records[1].PredictionOutput = 1 // tamper after sealing

	report, err := engine.VerifyAll(records)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	require.Len(t, report.Mismatches, 1)
	assert.Equal(t, 1, report.Mismatches[0].Index)
	assert.Equal(t, records[1].ContentHash, report.Mismatches[0].StoredHash)
	assert.NotEqual(t, report.Mismatches[0].StoredHash, report.Mismatches[0].ComputedHash)
}

func TestVerifyAll_ReportsEveryMismatch(t *testing.T) {
	// Verification must not stop at the first failure: a corrupted record
	// early in the sequence cannot mask a later one.
	engine := NewEngine()
	records := []Record{
		sealedRecord(t, "m", map[string]any{"a": 1}, 1, "group_a"),
		sealedRecord(t, "m", map[string]any{"a": 2}, 0, "group_a"),
		sealedRecord(t, "m", map[string]any{"a": 3}, 1, "group_b"),
		sealedRecord(t, "m", map[string]any{"a": 4}, 0, "group_b"),
	}
	records[0].SensitiveGroup = "forged"
	records[2].InputData = map[string]any{"a": 99}

	report, err := engine.VerifyAll(records)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	require.Len(t, report.Mismatches, 2)
	assert.Equal(t, 0, report.Mismatches[0].Index)
	assert.Equal(t, 2, report.Mismatches[1].Index)
	assert.Equal(t, 4, report.Checked)
}

func TestVerifyAll_MalformedRecords(t *testing.T) {
	engine := NewEngine()
	valid := sealedRecord(t, "m", map[string]any{"a": 1}, 1, "g")

	t.Run("missing content hash", func(t *testing.T) {
		rec := valid
		rec.ContentHash = ""
		_, err := engine.VerifyAll([]Record{rec})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedRecord))
	})

	t.Run("missing subject", func(t *testing.T) {
		rec := valid
		rec.SubjectID = ""
		_, err := engine.VerifyAll([]Record{rec})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedRecord))
	})

	t.Run("uncanonicalizable input", func(t *testing.T) {
		rec := valid
		rec.InputData = map[string]any{"bad": make(chan int)}
		_, err := engine.VerifyAll([]Record{rec})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMalformedRecord))
	})
}

func TestVerifyAll_JSONRoundTripStable(t *testing.T) {
	// Sealing with int predictions and verifying after a JSON decode
	// (which produces float64) must still verify, because whole floats
	// and ints share a canonical form.
	engine := NewEngine()
	rec := sealedRecord(t, "m", map[string]any{"age": 34}, 1, "group_a")

	decoded := rec
	decoded.InputData = map[string]any{"age": float64(34)}
	decoded.PredictionOutput = float64(1)

	report, err := engine.VerifyAll([]Record{decoded})
	require.NoError(t, err)
	assert.True(t, report.Valid)
}

func TestVerifyAll_LargeWholeNumbersSurviveRoundTrip(t *testing.T) {
	// Whole numbers up to 2^53 survive a float64 JSON decode exactly, so
	// an untampered record carrying one must still verify after the wire
	// round trip an external verify request performs.
	engine := NewEngine()
	rec := sealedRecord(t, "m",
		map[string]any{"n": int64(2_000_000_000_000_000)},
		int64(1<<53), "group_a")

	raw, err := json.Marshal(rec)
	require.NoError(t, err)
	var decoded Record
	require.NoError(t, json.Unmarshal(raw, &decoded))

	report, err := engine.VerifyAll([]Record{decoded})
	require.NoError(t, err)
	assert.True(t, report.Valid, "mismatches: %v", report.Mismatches)
	assert.Empty(t, report.Mismatches)
}
