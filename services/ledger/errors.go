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

import "errors"

// Sentinel errors for the ledger service.
//
// Integrity mismatches are deliberately NOT errors: VerifyAll reports them
// in a VerificationReport and returns nil error.
var (
	// ErrValidation indicates malformed input to the record builder.
	// No record is created or appended when this is returned.
	ErrValidation = errors.New("invalid record input")

	// ErrOrdering indicates an append whose timestamp is earlier than the
	// last appended record's timestamp (monotonicity violation).
	ErrOrdering = errors.New("timestamp ordering violation")

	// ErrStorage indicates a failure in the durable backend. Surfaced
	// verbatim; the core performs no retries.
	ErrStorage = errors.New("storage backend failure")

	// ErrMalformedRecord indicates a record sequence that cannot be
	// verified (e.g. a record missing required fields).
	ErrMalformedRecord = errors.New("malformed record")

	// ErrStoreClosed indicates an operation on a closed store.
	ErrStoreClosed = errors.New("audit store is closed")
)
