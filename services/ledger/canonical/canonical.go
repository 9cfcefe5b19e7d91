// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package canonical provides deterministic serialization for content hashing.
//
// Two values that are logically equal must always encode to the same byte
// sequence, regardless of how they were constructed. This is achieved by
// sorting map keys lexicographically at every nesting level and using a
// fixed JSON-compatible encoding for every scalar type.
//
// The output is valid JSON, so canonical bytes can be decoded by any JSON
// consumer, but the reverse is not true: json.Marshal output is NOT
// guaranteed to be canonical for arbitrary Go values (struct field order,
// custom marshalers). Always hash canonical.Marshal output, never raw JSON.
package canonical

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
)

// MaxDepth is the maximum nesting depth accepted by Marshal.
//
// Payloads deeper than this are rejected rather than encoded, which also
// guards against cyclic structures without tracking visited pointers.
const MaxDepth = 64

// maxExactFloatInt is 2^53, the largest integer magnitude that float64
// represents without rounding. Whole floats up to this bound collapse to
// integer form; beyond it the decimal expansion of a float is no longer
// trustworthy digit for digit.
const maxExactFloatInt = 1 << 53

// Marshal encodes a value into its canonical byte form.
//
// Description:
//
//	Recursively encodes the value as JSON with map keys sorted
//	lexicographically at every nesting level. Supported inputs: nil, bool,
//	all integer and float types, string, json.Number, []any (and typed
//	slices/arrays), and map[string]any (and typed string-keyed maps).
//	Structs and other kinds are rejected so that the canonical form never
//	depends on Go declaration order.
//
// Inputs:
//
//	v - The value to encode.
//
// Outputs:
//
//	[]byte - The canonical encoding.
//	error - Non-nil if the value contains an unsupported type, a non-string
//	        map key, a non-finite float, or exceeds MaxDepth.
//
// Thread Safety: Safe for concurrent use (pure function).
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, v, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// String returns the canonical key form of a value.
//
// Description:
//
//	Used where a value must act as a map key, e.g. grouping structurally
//	equal predictions. Plain strings are returned as-is (no JSON quotes) so
//	that keys read naturally; every other value uses its canonical bytes.
//	Unencodable values fall back to fmt.Sprintf("%v"), which keeps key
//	formation total for callers that already validated the value.
//
// Inputs:
//
//	v - The value to form a key for.
//
// Outputs:
//
//	string - The canonical key form.
//
// Thread Safety: Safe for concurrent use (pure function).
func String(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	b, err := Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// encode writes the canonical form of v to buf.
func encode(buf *bytes.Buffer, v any, depth int) error {
	if depth > MaxDepth {
		return fmt.Errorf("%w: nesting exceeds %d levels", ErrUnsupportedValue, MaxDepth)
	}

	if v == nil {
		buf.WriteString("null")
		return nil
	}

	switch val := v.(type) {
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case string:
		return encodeString(buf, val)
	case json.Number:
		// Already a decimal literal; trust the lexical form.
		buf.WriteString(val.String())
		return nil
	case int:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case int8:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case int16:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case int32:
		buf.WriteString(strconv.FormatInt(int64(val), 10))
		return nil
	case int64:
		buf.WriteString(strconv.FormatInt(val, 10))
		return nil
	case uint:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
		return nil
	case uint8:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
		return nil
	case uint16:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
		return nil
	case uint32:
		buf.WriteString(strconv.FormatUint(uint64(val), 10))
		return nil
	case uint64:
		buf.WriteString(strconv.FormatUint(val, 10))
		return nil
	case float32:
		return encodeFloat(buf, float64(val))
	case float64:
		return encodeFloat(buf, val)
	case map[string]any:
		return encodeMap(buf, val, depth)
	case []any:
		return encodeSlice(buf, val, depth)
	}

	// Typed slices and string-keyed maps (e.g. []int, map[string]string)
	// are normalized via reflection.
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		generic := make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			generic[i] = rv.Index(i).Interface()
		}
		return encodeSlice(buf, generic, depth)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("%w: map key type %s (keys must be strings)",
				ErrUnsupportedValue, rv.Type().Key())
		}
		generic := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			generic[iter.Key().String()] = iter.Value().Interface()
		}
		return encodeMap(buf, generic, depth)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			buf.WriteString("null")
			return nil
		}
		return encode(buf, rv.Elem().Interface(), depth)
	}

	return fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
}

// encodeString writes a JSON string literal without HTML escaping.
func encodeString(buf *bytes.Buffer, s string) error {
	// json.Marshal on a plain string is deterministic; HTML escaping of
	// <, >, & is disabled so the canonical form matches the wire form.
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode string: %w", err)
	}
	// Encoder appends a newline; strip it.
	buf.Write(bytes.TrimRight(b.Bytes(), "\n"))
	return nil
}

// encodeFloat writes a float in shortest round-trip decimal form.
func encodeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: non-finite float %v", ErrUnsupportedValue, f)
	}
	// Whole floats encode as integers so 1.0 and int 1 canonicalize
	// identically. This keeps key formation stable across numeric types.
	// The cutoff is 2^53, the largest magnitude at which float64 still
	// represents every integer exactly, so the collapsed set matches what
	// a JSON decode into float64 preserves.
	if f == math.Trunc(f) && math.Abs(f) <= maxExactFloatInt {
		buf.WriteString(strconv.FormatInt(int64(f), 10))
		return nil
	}
	buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

// encodeMap writes a JSON object with keys in lexicographic order.
func encodeMap(buf *bytes.Buffer, m map[string]any, depth int) error {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encodeString(buf, k); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := encode(buf, m[k], depth+1); err != nil {
			return fmt.Errorf("key %q: %w", k, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

// encodeSlice writes a JSON array preserving element order.
func encodeSlice(buf *bytes.Buffer, s []any, depth int) error {
	buf.WriteByte('[')
	for i, elem := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := encode(buf, elem, depth+1); err != nil {
			return fmt.Errorf("index %d: %w", i, err)
		}
	}
	buf.WriteByte(']')
	return nil
}
