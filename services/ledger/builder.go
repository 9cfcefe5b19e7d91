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
	"fmt"
	"time"
)

// Clock supplies record timestamps. Injected for testability.
type Clock func() time.Time

// Builder assembles sealed records from caller-supplied fields.
//
// The returned records satisfy the content-hash invariant by construction:
// Build seals the record through the integrity engine before returning it.
//
// Thread Safety: Safe for concurrent use.
type Builder struct {
	engine *Engine
	clock  Clock
}

// NewBuilder creates a record builder.
//
// Inputs:
//
//	engine - The integrity engine used to seal records. Must not be nil.
//	clock - Timestamp source. If nil, time.Now is used.
//
// Outputs:
//
//	*Builder - The builder.
func NewBuilder(engine *Engine, clock Clock) *Builder {
	if clock == nil {
		clock = time.Now
	}
	return &Builder{engine: engine, clock: clock}
}

// Build assembles and seals a record.
//
// Description:
//
//	Stamps the record with the clock's current time (Unix milliseconds),
//	validates the inputs, computes the content hash over the canonical
//	field mapping, and returns the sealed record. On any failure no
//	record is produced; nothing is partially applied.
//
// Inputs:
//
//	subjectID - The model/process identifier. Must be non-empty.
//	input - The feature payload. Must be canonicalizable (JSON-style
//	        scalars, string-keyed maps, slices; bounded nesting).
//	prediction - The model's decision. Must be canonicalizable.
//	group - The sensitive group tag. Must be non-empty.
//
// Outputs:
//
//	Record - The sealed record, hash invariant holding by construction.
//	error - Wraps ErrValidation if any input is rejected.
//
// Thread Safety: Safe for concurrent use.
func (b *Builder) Build(subjectID string, input map[string]any, prediction any, group string) (Record, error) {
	if subjectID == "" {
		return Record{}, fmt.Errorf("%w: subject_id must not be empty", ErrValidation)
	}
	if group == "" {
		return Record{}, fmt.Errorf("%w: sensitive_group must not be empty", ErrValidation)
	}

	rec := Record{
		Timestamp:        b.clock().UnixMilli(),
		SubjectID:        subjectID,
		InputData:        input,
		PredictionOutput: prediction,
		SensitiveGroup:   group,
	}

	hash, err := b.engine.Seal(rec)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	rec.ContentHash = hash

	return rec, nil
}
