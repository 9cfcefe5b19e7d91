// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package validation

import (
	"strings"
	"testing"
)

func TestValidateGroupTag(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		wantErr bool
	}{
		// Valid tags
		{"simple", "group_a", false},
		{"single char", "a", false},
		{"digits", "cohort2026", false},
		{"namespaced", "region:emea", false},
		{"dotted", "loans.approved", false},
		{"hyphenated", "age-18-25", false},
		{"max length", strings.Repeat("a", 64), false},
		{"starts with digit", "1group", false},
		{"starts with underscore", "_internal", false},

		// Invalid tags - injection attempts
		{"empty", "", true},
		{"spaces", "group a", true},
		{"newline injection", "group\ndrop", true},
		{"log injection", `g" level=ERROR msg="forged`, true},
		{"special chars", "group@#$", true},
		{"unicode", "groupé", true},
		{"too long", strings.Repeat("a", 65), true},
		{"starts with dot", ".group", true},
		{"starts with hyphen", "-group", true},
		{"starts with colon", ":group", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGroupTag(tt.tag)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGroupTag(%q) error = %v, wantErr %v", tt.tag, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSubjectID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{"simple", "model-7", false},
		{"versioned", "credit-model:v2.1", false},
		{"dotted", "fraud.scorer", false},
		{"empty", "", true},
		{"spaces", "model 7", true},
		{"path traversal", "../etc/passwd", true},
		{"too long", strings.Repeat("m", 65), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSubjectID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSubjectID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
		})
	}
}

func TestSanitizeSubjectID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		want    string
		wantErr bool
	}{
		{"passthrough", "model-7", "model-7", false},
		{"trims whitespace", "  model-7  ", "model-7", false},
		{"invalid rejected", "bad id!", "", true},
		{"whitespace only", "   ", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeSubjectID(tt.id)
			if (err != nil) != tt.wantErr {
				t.Errorf("SanitizeSubjectID(%q) error = %v, wantErr %v", tt.id, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SanitizeSubjectID(%q) = %q, want %q", tt.id, got, tt.want)
			}
		})
	}
}
