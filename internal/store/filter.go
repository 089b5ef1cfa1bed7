// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package store

import "reflect"

// Filter restricts a query to documents whose metadata contains every key of
// the filter with an exactly equal value.
//
// Equality is strict: strings, booleans and other comparable values must
// have the same dynamic type and value. Numbers compare by numeric value
// regardless of Go type, so a filter decoded from JSON (float64) matches
// metadata written as int. Maps, slices and other non-comparable values never
// match. A nil filter value only matches a key present with a nil value.
// There are no substring, range or set operators.
type Filter map[string]any

// Matches reports whether md satisfies every condition in f. An empty filter
// matches everything.
func (f Filter) Matches(md Metadata) bool {
	for key, want := range f {
		got, ok := md[key]
		if !ok || !valuesEqual(want, got) {
			return false
		}
	}
	return true
}

func valuesEqual(want, got any) bool {
	if want == nil || got == nil {
		return want == nil && got == nil
	}

	if wn, ok := asFloat(want); ok {
		gn, ok := asFloat(got)
		return ok && wn == gn
	}

	wt, gt := reflect.TypeOf(want), reflect.TypeOf(got)
	if wt != gt || !wt.Comparable() {
		return false
	}
	return want == got
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
