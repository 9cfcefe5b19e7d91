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
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/AleutianAI/EthosGuard/services/ledger/canonical"
)

// Engine computes and verifies record content hashes.
//
// The digest is SHA-256 over the canonical form of the record's field
// mapping with content_hash set to the empty string (the hash excludes
// itself). Canonicalization makes the digest independent of field
// construction order.
//
// Thread Safety: Safe for concurrent use (stateless).
type Engine struct{}

// NewEngine creates an integrity engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Seal computes the content hash for a record.
//
// Description:
//
//	Canonicalizes the record's fields with ContentHash treated as empty
//	and returns the hex-encoded SHA-256 digest. Any ContentHash already
//	present on the input is ignored, so Seal is idempotent.
//
// Inputs:
//
//	rec - The record to seal. Its ContentHash field is not consulted.
//
// Outputs:
//
//	string - Hex-encoded 256-bit digest.
//	error - Non-nil if the record's fields cannot be canonicalized.
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) Seal(rec Record) (string, error) {
	data, err := canonical.Marshal(fieldMapping(rec))
	if err != nil {
		return "", fmt.Errorf("canonicalize record: %w", err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// VerifyAll re-verifies every record in a sequence.
//
// Description:
//
//	For each record, recomputes the digest over a copy with ContentHash
//	cleared and compares it to the stored digest. Verification is
//	exhaustive: it never stops at the first failure, so one corrupted
//	record cannot mask another. A mismatch is a reported finding, not an
//	error; the error return is reserved for sequences that cannot be
//	verified at all.
//
// Inputs:
//
//	records - Ordered sequence of sealed records. May be empty.
//
// Outputs:
//
//	*VerificationReport - Valid flag plus every mismatch in sequence order.
//	error - Non-nil only if a record is malformed (missing content hash or
//	        subject, or uncanonicalizable fields); wraps ErrMalformedRecord.
//
// Thread Safety: Safe for concurrent use. Read-only over the input.
func (e *Engine) VerifyAll(records []Record) (*VerificationReport, error) {
	report := &VerificationReport{
		Valid:      true,
		Checked:    len(records),
		Mismatches: make([]Mismatch, 0),
	}

	for i, rec := range records {
		if rec.ContentHash == "" {
			return nil, fmt.Errorf("%w: record %d has no content hash", ErrMalformedRecord, i)
		}
		if rec.SubjectID == "" {
			return nil, fmt.Errorf("%w: record %d has no subject", ErrMalformedRecord, i)
		}

		computed, err := e.Seal(rec)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrMalformedRecord, i, err)
		}

		if computed != rec.ContentHash {
			report.Valid = false
			report.Mismatches = append(report.Mismatches, Mismatch{
				Index:        i,
				SubjectID:    rec.SubjectID,
				StoredHash:   rec.ContentHash,
				ComputedHash: computed,
				Record:       rec,
			})
		}
	}

	return report, nil
}

// fieldMapping returns the record's fields as the mapping that is hashed.
//
// The key set and names are fixed by the wire contract; content_hash is
// always present and empty so the digest excludes itself.
func fieldMapping(rec Record) map[string]any {
	return map[string]any{
		"timestamp":         rec.Timestamp,
		"subject_id":        rec.SubjectID,
		"input_data":        rec.InputData,
		"prediction_output": rec.PredictionOutput,
		"sensitive_group":   rec.SensitiveGroup,
		"content_hash":      "",
	}
}
