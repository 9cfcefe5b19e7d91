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
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handlers contains the HTTP handlers for the ledger service.
type Handlers struct {
	svc *Service
}

// NewHandlers creates handlers for the given service.
func NewHandlers(svc *Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleRecord handles POST /v1/ledger/records.
//
// Description:
//
//	Builds, seals, and appends a record for one prediction event.
//
// Request Body:
//
//	RecordRequest
//
// Response:
//
//	200 OK: RecordResponse
//	400 Bad Request: Validation error
//	409 Conflict: Timestamp ordering violation (strict mode)
//	500 Internal Server Error: Storage backend failure
func (h *Handlers) HandleRecord(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleRecord")

	var req RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_REQUEST",
		})
		return
	}

	rec, err := h.svc.RecordPrediction(c.Request.Context(),
		req.SubjectID, req.InputData, req.PredictionOutput, req.SensitiveGroup)
	if err != nil {
		statusCode := http.StatusInternalServerError
		errCode := "RECORD_FAILED"

		switch {
		case errors.Is(err, ErrValidation):
			statusCode = http.StatusBadRequest
			errCode = "INVALID_RECORD"
		case errors.Is(err, ErrOrdering):
			statusCode = http.StatusConflict
			errCode = "ORDERING_VIOLATION"
		case errors.Is(err, ErrStorage):
			errCode = "STORAGE_FAILURE"
		case errors.Is(err, ErrStoreClosed):
			statusCode = http.StatusServiceUnavailable
			errCode = "STORE_CLOSED"
		}

		logger.Error("Record failed", "error", err)
		c.JSON(statusCode, ErrorResponse{
			Error: err.Error(),
			Code:  errCode,
		})
		return
	}

	logger.Info("Record appended",
		"subject_id", rec.SubjectID,
		"sensitive_group", rec.SensitiveGroup)

	c.JSON(http.StatusOK, RecordResponse{
		Record:   rec,
		Position: h.svc.Len() - 1,
	})
}

// HandleListRecords handles GET /v1/ledger/records.
//
// Response:
//
//	200 OK: ListRecordsResponse
func (h *Handlers) HandleListRecords(c *gin.Context) {
	records := h.svc.Snapshot()
	c.JSON(http.StatusOK, ListRecordsResponse{
		Records: records,
		Count:   len(records),
	})
}

// HandleVerify handles POST /v1/ledger/verify.
//
// Description:
//
//	Re-verifies every record's content hash and reports the full set of
//	mismatches. With no body (or null records), the store's current
//	snapshot is verified. A mismatch does NOT produce an error status:
//	the report carries the findings.
//
// Request Body:
//
//	VerifyRequest (optional)
//
// Response:
//
//	200 OK: VerificationReport
//	400 Bad Request: Malformed record sequence
func (h *Handlers) HandleVerify(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := slog.With("request_id", requestID, "handler", "HandleVerify")

	var req VerifyRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Invalid request body", "error", err)
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error: "Invalid request body",
				Code:  "INVALID_REQUEST",
			})
			return
		}
	}

	report, err := h.svc.VerifyIntegrity(c.Request.Context(), req.Records)
	if err != nil {
		logger.Error("Verification failed", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "MALFORMED_RECORDS",
		})
		return
	}

	logger.Info("Verification completed",
		"checked", report.Checked,
		"valid", report.Valid,
		"mismatches", len(report.Mismatches))

	c.JSON(http.StatusOK, report)
}

// HandleDrift handles GET /v1/ledger/drift.
//
// Description:
//
//	Tabulates prediction outcomes per sensitive group over the store's
//	current snapshot.
//
// Response:
//
//	200 OK: DriftResponse
func (h *Handlers) HandleDrift(c *gin.Context) {
	summary := h.svc.SummarizeDrift(c.Request.Context(), nil)
	c.JSON(http.StatusOK, DriftResponse{Summary: summary})
}

// HandleHealth handles GET /v1/ledger/health.
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: ServiceVersion,
		Records: h.svc.Len(),
	})
}

// HandleReady handles GET /v1/ledger/ready.
func (h *Handlers) HandleReady(c *gin.Context) {
	c.JSON(http.StatusOK, ReadyResponse{Ready: true})
}

// getOrCreateRequestID returns the request ID from the X-Request-ID header,
// generating one if absent, and echoes it on the response.
func getOrCreateRequestID(c *gin.Context) string {
	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Header("X-Request-ID", requestID)
	return requestID
}
