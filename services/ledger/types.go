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

// Record is a single sealed audit entry for one prediction event.
//
// A record is immutable once sealed: ContentHash binds every other field
// together, and any post-hoc modification is detectable by recomputing the
// digest over the canonical form with ContentHash cleared.
type Record struct {
	// Timestamp is the creation time in Unix milliseconds UTC.
	Timestamp int64 `json:"timestamp"`

	// SubjectID identifies the model or process that produced the prediction.
	SubjectID string `json:"subject_id"`

	// InputData is the feature payload the prediction was made from.
	InputData map[string]any `json:"input_data"`

	// PredictionOutput is the model's decision (numeric, string, or structured).
	PredictionOutput any `json:"prediction_output"`

	// SensitiveGroup is the fairness-relevant cohort tag. Required, non-empty.
	SensitiveGroup string `json:"sensitive_group"`

	// ContentHash is the hex-encoded SHA-256 digest over every other field.
	ContentHash string `json:"content_hash"`
}

// VerificationReport is the result of re-verifying a record sequence.
//
// Valid is true iff zero mismatches were found. Verification is exhaustive:
// every record is checked and every mismatch reported, so a single corruption
// cannot hide others.
type VerificationReport struct {
	// Valid is true iff no mismatches were detected.
	Valid bool `json:"valid"`

	// Checked is the number of records examined.
	Checked int `json:"checked"`

	// Mismatches lists every record whose stored digest did not match,
	// in sequence order.
	Mismatches []Mismatch `json:"mismatches"`
}

// Mismatch describes a single detected integrity failure.
//
// A mismatch is a reported finding, not an error: verification never aborts
// on one.
type Mismatch struct {
	// Index is the record's position in the verified sequence.
	Index int `json:"index"`

	// SubjectID is the record's subject at the time of verification.
	SubjectID string `json:"subject_id"`

	// StoredHash is the content hash found on the record.
	StoredHash string `json:"stored_hash"`

	// ComputedHash is the digest recomputed from the record's fields.
	ComputedHash string `json:"computed_hash"`

	// Record is a snapshot of the mismatching record.
	Record Record `json:"record"`
}

// DriftSummary aggregates prediction outcomes per sensitive group.
//
// This is the input to external statistical fairness testing; the core
// performs no inference of its own.
type DriftSummary struct {
	// Groups maps sensitive group tag to its per-prediction counts.
	Groups map[string]GroupSummary `json:"groups"`

	// Records is the number of records aggregated.
	Records int `json:"records"`
}

// GroupSummary holds the outcome tally for one sensitive group.
type GroupSummary struct {
	// Counts maps the canonical prediction key to its occurrence count.
	// Structurally equal predictions share a key regardless of original type.
	Counts map[string]int `json:"counts"`

	// Total is the number of records in this group.
	Total int `json:"total"`
}
