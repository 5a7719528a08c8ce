/*
 * Copyright 2025 CloudWeGo Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package pagemap provides page-granular memory for allocators: fresh
// zero-filled mappings, page size queries and the address arithmetic
// that goes with them.
package pagemap

import (
	"errors"
	"math/bits"
)

var (
	// ErrMapFailed is returned when a mapping request is denied.
	ErrMapFailed = errors.New("pagemap: map failed")

	// ErrNotMapped is returned by Unmap for regions the Mapper does not own.
	ErrNotMapped = errors.New("pagemap: region not mapped")

	// ErrBadLength is returned for lengths that are not a positive multiple of the page size.
	ErrBadLength = errors.New("pagemap: length must be a positive multiple of page size")
)

// Mapper hands out page-aligned, zero-filled memory regions.
//
// Memory returned by Map is invisible to the garbage collector:
// never store the only reference to a Go object in it.
type Mapper interface {
	// Map returns a fresh region of exactly length bytes.
	// length must be a positive multiple of PageSize().
	Map(length int) ([]byte, error)

	// Unmap releases a region returned by Map.
	// b must be the exact slice returned by Map.
	Unmap(b []byte) error

	// PageSize returns the granularity of Map.
	PageSize() int
}

// PageFloor rounds p down to the start of the page containing it.
// pageSize must be a power of two.
func PageFloor(p uintptr, pageSize int) uintptr {
	return p &^ (uintptr(pageSize) - 1)
}

// RoundUp rounds n up to a multiple of m. m must be a power of two.
func RoundUp(n, m uintptr) uintptr {
	return (n + m - 1) &^ (m - 1)
}

// MulOverflow returns a*b and whether the product overflowed uintptr.
func MulOverflow(a, b uintptr) (uintptr, bool) {
	hi, lo := bits.Mul(uint(a), uint(b))
	return uintptr(lo), hi != 0
}

func checkLength(length, pageSize int) error {
	if length <= 0 || length%pageSize != 0 {
		return ErrBadLength
	}
	return nil
}
