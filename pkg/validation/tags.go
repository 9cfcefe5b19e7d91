// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package validation provides input validation utilities for security-critical operations.
//
// This package contains validators for user-provided identifiers that end up
// in log output, storage keys, and aggregation maps. Using these validators
// keeps injection-prone characters out of the audit trail.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// tagPattern matches valid group tags and subject identifiers.
// Allows: letters, digits, underscores, dots, hyphens, colons (namespacing).
// Max length: 64 characters.
var tagPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.:\-]{0,63}$`)

// ValidateGroupTag validates a sensitive group tag.
//
// Valid tags:
//   - 1-64 characters
//   - Letters, digits, underscores
//   - Dots, colons, hyphens after the first character
//
// Returns an error if the tag is invalid.
//
// Example:
//
//	if err := validation.ValidateGroupTag(group); err != nil {
//	    return fmt.Errorf("invalid group: %w", err)
//	}
func ValidateGroupTag(tag string) error {
	if tag == "" {
		return fmt.Errorf("group tag cannot be empty")
	}

	if !tagPattern.MatchString(tag) {
		return fmt.Errorf("invalid group tag format: %q (must be 1-64 alphanumeric chars, dots, colons, underscores, or hyphens)", tag)
	}

	return nil
}

// ValidateSubjectID validates a model/process subject identifier.
//
// Subject IDs follow the same shape as group tags. Returns an error if the
// identifier is invalid.
func ValidateSubjectID(id string) error {
	if id == "" {
		return fmt.Errorf("subject id cannot be empty")
	}

	if !tagPattern.MatchString(id) {
		return fmt.Errorf("invalid subject id format: %q (must be 1-64 alphanumeric chars, dots, colons, underscores, or hyphens)", id)
	}

	return nil
}

// SanitizeSubjectID normalizes and validates a subject identifier.
// Returns the trimmed identifier if valid, or an error if invalid.
func SanitizeSubjectID(id string) (string, error) {
	normalized := strings.TrimSpace(id)
	if err := ValidateSubjectID(normalized); err != nil {
		return "", err
	}
	return normalized, nil
}
