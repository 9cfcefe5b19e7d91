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
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	pkgvalidation "github.com/AleutianAI/EthosGuard/pkg/validation"
)

func init() {
	// Register the grouptag and subjectid validators with gin's binding
	// engine so request structs can use them in binding tags.
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("grouptag", validateGroupTag)
		_ = v.RegisterValidation("subjectid", validateSubjectID)
	}
}

// validateGroupTag validates a sensitive group tag field.
func validateGroupTag(fl validator.FieldLevel) bool {
	return pkgvalidation.ValidateGroupTag(fl.Field().String()) == nil
}

// validateSubjectID validates a subject identifier field.
func validateSubjectID(fl validator.FieldLevel) bool {
	return pkgvalidation.ValidateSubjectID(fl.Field().String()) == nil
}

// RecordRequest is the request body for POST /v1/ledger/records.
type RecordRequest struct {
	// SubjectID identifies the producing model. Optional when the service
	// is configured with a default subject; when present it must be a
	// valid identifier.
	SubjectID string `json:"subject_id" binding:"omitempty,subjectid"`

	// InputData is the feature payload. Required.
	InputData map[string]any `json:"input_data" binding:"required"`

	// PredictionOutput is the model's decision. May be any JSON value,
	// including zero values like 0 or false.
	PredictionOutput any `json:"prediction_output"`

	// SensitiveGroup is the cohort tag. Required.
	SensitiveGroup string `json:"sensitive_group" binding:"required,grouptag"`
}

// RecordResponse is the response for POST /v1/ledger/records.
type RecordResponse struct {
	// Record is the sealed, appended record.
	Record Record `json:"record"`

	// Position is the record's index in the audit sequence.
	Position int `json:"position"`
}

// ListRecordsResponse is the response for GET /v1/ledger/records.
type ListRecordsResponse struct {
	// Records is the current audit sequence snapshot in append order.
	Records []Record `json:"records"`

	// Count is the number of records returned.
	Count int `json:"count"`
}

// VerifyRequest is the request body for POST /v1/ledger/verify.
//
// An empty body (or null records) verifies the store's current snapshot;
// callers may instead submit an externally held sequence, e.g. one read
// back from the durable ledger.
type VerifyRequest struct {
	// Records is the sequence to verify. Nil means the store snapshot.
	Records []Record `json:"records"`
}

// DriftResponse is the response for GET /v1/ledger/drift.
type DriftResponse struct {
	// Summary is the per-group prediction tally.
	Summary DriftSummary `json:"summary"`
}

// HealthResponse is the response for GET /v1/ledger/health.
type HealthResponse struct {
	// Status is "healthy" when the service is up.
	Status string `json:"status"`

	// Version is the service version.
	Version string `json:"version"`

	// Records is the current ledger length.
	Records int `json:"records"`
}

// ReadyResponse is the response for GET /v1/ledger/ready.
type ReadyResponse struct {
	// Ready indicates the service can accept appends.
	Ready bool `json:"ready"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	// Error is the human-readable message.
	Error string `json:"error"`

	// Code is the machine-readable error code.
	Code string `json:"code"`
}
