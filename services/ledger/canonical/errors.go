// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package canonical

import "errors"

// ErrUnsupportedValue indicates a value that has no canonical form.
//
// Raised for structs, channels, funcs, non-string map keys, non-finite
// floats, and payloads nested deeper than MaxDepth.
var ErrUnsupportedValue = errors.New("value has no canonical form")
