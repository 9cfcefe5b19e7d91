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
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all ledger routes with the router.
//
// Description:
//
//	Registers all /v1/ledger/* endpoints with the given Gin router group.
//	The router group should already have any required middleware applied.
//
// Inputs:
//
//	rg - Gin router group (typically /v1)
//	handlers - The handlers instance
//
// Endpoints:
//
//	POST /v1/ledger/records - Record a prediction
//	GET  /v1/ledger/records - List the audit sequence
//	POST /v1/ledger/verify - Re-verify record integrity
//	GET  /v1/ledger/drift - Per-group prediction tally
//	GET  /v1/ledger/health - Health check
//	GET  /v1/ledger/ready - Readiness check
//
// Example:
//
//	svc := ledger.NewService(ledger.DefaultServiceConfig())
//	handlers := ledger.NewHandlers(svc)
//
//	v1 := router.Group("/v1")
//	ledger.RegisterRoutes(v1, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	lg := rg.Group("/ledger")
	{
		lg.POST("/records", handlers.HandleRecord)
		lg.GET("/records", handlers.HandleListRecords)

		lg.POST("/verify", handlers.HandleVerify)
		lg.GET("/drift", handlers.HandleDrift)

		lg.GET("/health", handlers.HandleHealth)
		lg.GET("/ready", handlers.HandleReady)
	}
}
