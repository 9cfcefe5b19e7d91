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
	"github.com/AleutianAI/EthosGuard/services/ledger/canonical"
)

// Summarize tallies prediction outcomes per sensitive group.
//
// Description:
//
//	Groups records by sensitive_group and counts occurrences of each
//	prediction, keyed by the prediction's canonical string form so that
//	structurally equal predictions count together regardless of their
//	original Go type (int 1, float64 1.0, json.Number "1" share a key).
//	Pure and read-only: identical input yields identical output.
//
//	Statistical inference (chi-squared, disparate impact) is deliberately
//	out of scope; this summary is the input to such tooling.
//
// Inputs:
//
//	records - The record sequence to aggregate. May be empty.
//
// Outputs:
//
//	DriftSummary - Per-group prediction counts and totals.
//
// Thread Safety: Safe for concurrent use (pure function).
func Summarize(records []Record) DriftSummary {
	summary := DriftSummary{
		Groups:  make(map[string]GroupSummary),
		Records: len(records),
	}

	for _, rec := range records {
		group, ok := summary.Groups[rec.SensitiveGroup]
		if !ok {
			group = GroupSummary{Counts: make(map[string]int)}
		}
		group.Counts[canonical.String(rec.PredictionOutput)]++
		group.Total++
		summary.Groups[rec.SensitiveGroup] = group
	}

	return summary
}
